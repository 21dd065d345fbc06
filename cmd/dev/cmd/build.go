package cmd

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gophertribe/devtool/build"
)

// targets maps the board names to their GOOS/GOARCH pair.
var targets = map[string][2]string{
	"pi4":  {"linux", "arm64"},
	"pi0":  {"linux", "arm"},
	"host": {runtime.GOOS, runtime.GOARCH},
}

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the obc cli",
		RunE: func(cmd *cobra.Command, args []string) error {
			version := cmd.Flag("version").Value.String()
			target := cmd.Flag("target").Value.String()
			platform, ok := targets[target]
			if !ok {
				return fmt.Errorf("unknown target %q", target)
			}
			goos, arch := platform[0], platform[1]

			// hid needs cgo, so foreign targets are built inside the cross compilation image
			if goos == runtime.GOOS && arch == runtime.GOARCH {
				slog.Info("building natively", "os", goos, "arch", arch, "version", version)
				return build.GoBuild("dist/obc", "./cmd/obc", build.GoBuildOpts{
					Version:       version,
					InjectVersion: true,
					ConfigPackage: "main",
					EnableCgo:     true,
					Arch:          arch,
					OS:            goos,
				})
			}

			noCache, err := cmd.Flags().GetBool("no-cache")
			if err != nil {
				return fmt.Errorf("could not get no-cache flag: %w", err)
			}
			slog.Info("building in docker", "os", goos, "arch", arch, "version", version)
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", goos, arch), []string{"build", "--version", version, "--target", "host"}, build.DockerBuildOpts{
				NoCache: noCache,
				Image:   "gophertribe/gobuild:1.25-bookworm",
			})
		},
	}
	cmd.Flags().Bool("no-cache", false, "do not use cache when building the app")
	cmd.Flags().String("version", "latest", "version of the cli")
	cmd.Flags().String("target", "host", "board to build for (host, pi4, pi0)")

	return cmd
}
