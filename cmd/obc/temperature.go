package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/qset/obc/cmd/obc/console"
	"github.com/qset/obc/environment"
)

var resolutions = map[string]environment.Resolution{
	"0.5":    environment.ResolutionHalf,
	"0.25":   environment.ResolutionQuarter,
	"0.125":  environment.ResolutionEighth,
	"0.0625": environment.ResolutionSixteenth,
}

var tempCmd = cli.Command{
	Name:    "temperature",
	Aliases: []string{"temp"},
	Usage:   "MCP9808 ambient temperature sensor",
	Subcommands: cli.Commands{
		&tempReadCmd,
		&tempThresholdsCmd,
		&tempCheckCmd,
		&tempResolutionCmd,
	},
}

func withThermometer(c *cli.Context, fn func(ctx context.Context, sensor *environment.MCP9808) error) error {
	hw, err := openHardware(c.Context)
	if err != nil {
		return console.Fail("hardware initialization error", err)
	}
	defer func() { _ = hw.Close() }()
	sensor, err := hw.thermometer(c.Context, false)
	if err != nil {
		return console.Fail("temperature sensor error", err)
	}
	if err := fn(c.Context, sensor); err != nil {
		return console.Fail("temperature sensor error", err)
	}
	return nil
}

var tempReadCmd = cli.Command{
	Name:  "read",
	Usage: "read the ambient temperature",
	Action: func(c *cli.Context) error {
		return withThermometer(c, func(ctx context.Context, sensor *environment.MCP9808) error {
			temp, err := sensor.GetAmbient(ctx)
			if err != nil {
				return err
			}
			console.PInfof(console.PictoThermometer, "%s", console.White(temp))
			return nil
		})
	},
}

var tempThresholdsCmd = cli.Command{
	Name:  "thresholds",
	Usage: "show the alarm thresholds, changing the ones passed as flags first",
	Flags: []cli.Flag{
		&cli.Float64Flag{Name: "critical", Usage: "critical temperature in °C"},
		&cli.Float64Flag{Name: "upper", Usage: "upper temperature in °C"},
		&cli.Float64Flag{Name: "lower", Usage: "lower temperature in °C"},
	},
	Action: func(c *cli.Context) error {
		return withThermometer(c, func(ctx context.Context, sensor *environment.MCP9808) error {
			thresholds := []struct {
				name string
				get  func(context.Context) (environment.Temperature, error)
				set  func(context.Context, environment.Temperature) error
			}{
				{"critical", sensor.GetCritical, sensor.SetCritical},
				{"upper", sensor.GetUpper, sensor.SetUpper},
				{"lower", sensor.GetLower, sensor.SetLower},
			}
			for _, th := range thresholds {
				if c.IsSet(th.name) {
					t, err := environment.FromCelsius(c.Float64(th.name))
					if err != nil {
						return fmt.Errorf("%s: %w", th.name, err)
					}
					if err := th.set(ctx, t); err != nil {
						return err
					}
				}
				t, err := th.get(ctx)
				if err != nil {
					return err
				}
				console.PInfof(console.PictoThermometer, "%-8s %s", th.name, console.White(t))
			}
			return nil
		})
	},
}

var tempCheckCmd = cli.Command{
	Name:  "check",
	Usage: "verify manufacturer and device identification",
	Action: func(c *cli.Context) error {
		return withThermometer(c, func(ctx context.Context, sensor *environment.MCP9808) error {
			if err := sensor.Check(ctx); err != nil {
				return err
			}
			console.PInfof(console.PictoThermometer, "%s", console.Green("MCP9808 identified"))
			return nil
		})
	},
}

var tempResolutionCmd = cli.Command{
	Name:      "resolution",
	Usage:     "show or change the conversion resolution",
	ArgsUsage: "[0.5|0.25|0.125|0.0625]",
	Action: func(c *cli.Context) error {
		return withThermometer(c, func(ctx context.Context, sensor *environment.MCP9808) error {
			if arg := c.Args().First(); arg != "" {
				res, ok := resolutions[arg]
				if !ok {
					return fmt.Errorf("unsupported resolution %q", arg)
				}
				if err := sensor.SetResolution(ctx, res); err != nil {
					return err
				}
			}
			res, err := sensor.GetResolution(ctx)
			if err != nil {
				return err
			}
			for name, r := range resolutions {
				if r == res {
					console.PInfof(console.PictoThermometer, "resolution %s °C", console.White(name))
				}
			}
			return nil
		})
	},
}
