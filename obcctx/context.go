// Package obcctx carries per-invocation flags through context.Context.
package obcctx

import "context"

type ctxIndex int

const (
	ctxIndexVerbose ctxIndex = iota
	ctxIndexConfigPath
)

// IsVerbose reports whether wire level dumps were requested.
func IsVerbose(ctx context.Context) bool {
	val, ok := ctx.Value(ctxIndexVerbose).(bool)
	return ok && val
}

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, ctxIndexVerbose, value)
}

// ConfigPath returns the configuration file the command was started with.
func ConfigPath(ctx context.Context) string {
	val, _ := ctx.Value(ctxIndexConfigPath).(string)
	return val
}

func SetConfigPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, ctxIndexConfigPath, path)
}
