package obcctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerbose(t *testing.T) {
	ctx := context.Background()
	assert.False(t, IsVerbose(ctx))
	assert.True(t, IsVerbose(SetVerbose(ctx, true)))
	assert.False(t, IsVerbose(SetVerbose(SetVerbose(ctx, true), false)))
}

func TestConfigPath(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ConfigPath(ctx))
	assert.Equal(t, "/etc/obc.yml", ConfigPath(SetConfigPath(ctx, "/etc/obc.yml")))
}
