package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/qset/obc/cmd/obc/console"
	"github.com/qset/obc/config"
	"github.com/qset/obc/rtc"
)

var rtcCmd = cli.Command{
	Name:  "rtc",
	Usage: "MCP79410 real-time clock",
	Subcommands: cli.Commands{
		&rtcGetCmd,
		&rtcSetCmd,
		&rtcBatteryCmd,
		&rtcClockCmd,
		&rtcResetCmd,
	},
}

// withClock runs fn against the RTC and converts failures into exit errors.
func withClock(c *cli.Context, fn func(ctx context.Context, clock *rtc.MCP79410) error) error {
	hw, err := openHardware(c.Context)
	if err != nil {
		return console.Fail("hardware initialization error", err)
	}
	defer func() { _ = hw.Close() }()
	clock, err := hw.clock(c.Context, false)
	if err != nil {
		return console.Fail("rtc error", err)
	}
	if err := fn(c.Context, clock); err != nil {
		return console.Fail("rtc error", err)
	}
	return nil
}

var rtcGetCmd = cli.Command{
	Name:  "get",
	Usage: "read date-time, battery and clock state",
	Action: func(c *cli.Context) error {
		return withClock(c, func(ctx context.Context, clock *rtc.MCP79410) error {
			dt, err := clock.GetDateTime(ctx)
			if err != nil {
				return err
			}
			battery, err := clock.GetBatteryState(ctx)
			if err != nil {
				return err
			}
			state, err := clock.GetClockState(ctx)
			if err != nil {
				return err
			}
			console.PInfof(console.PictoClock, "%s (clock %s)", console.White(dt), console.White(state))
			console.PInfof(console.PictoBattery, "battery backup %s", console.OnOff(battery == rtc.BatteryOn))
			return nil
		})
	},
}

var rtcSetCmd = cli.Command{
	Name:      "set",
	Usage:     "set the date-time (UTC)",
	ArgsUsage: `"2006-01-02 15:04:05" | now`,
	Action: func(c *cli.Context) error {
		if c.Args().Len() != 1 {
			return console.Exit(1, "expected exactly one date-time argument")
		}
		when := time.Now().UTC()
		if arg := c.Args().First(); arg != "now" {
			var err error
			when, err = time.ParseInLocation(config.DateTimeLayout, arg, time.UTC)
			if err != nil {
				return console.Fail("invalid date-time", err)
			}
		}
		return withClock(c, func(ctx context.Context, clock *rtc.MCP79410) error {
			if err := clock.Set(ctx, when); err != nil {
				return err
			}
			console.PInfof(console.PictoClock, "date-time set to %s", console.White(rtc.FromTime(when)))
			return nil
		})
	},
}

var rtcBatteryCmd = cli.Command{
	Name:      "battery",
	Usage:     "show or change the backup battery state",
	ArgsUsage: "[on|off]",
	Action: func(c *cli.Context) error {
		return withClock(c, func(ctx context.Context, clock *rtc.MCP79410) error {
			switch c.Args().First() {
			case "":
			case "on":
				if err := clock.SetBatteryState(ctx, rtc.BatteryOn); err != nil {
					return err
				}
			case "off":
				if err := clock.SetBatteryState(ctx, rtc.BatteryOff); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown battery state %q", c.Args().First())
			}
			state, err := clock.GetBatteryState(ctx)
			if err != nil {
				return err
			}
			console.PInfof(console.PictoBattery, "battery backup %s", console.OnOff(state == rtc.BatteryOn))
			return nil
		})
	},
}

var rtcClockCmd = cli.Command{
	Name:      "clock",
	Usage:     "show, start or stop the oscillator",
	ArgsUsage: "[start|stop]",
	Action: func(c *cli.Context) error {
		return withClock(c, func(ctx context.Context, clock *rtc.MCP79410) error {
			var desired rtc.ClockState
			switch c.Args().First() {
			case "":
				state, err := clock.GetClockState(ctx)
				if err != nil {
					return err
				}
				console.PInfof(console.PictoClock, "clock %s", console.White(state))
				return nil
			case "start":
				desired = rtc.ClockRunning
			case "stop":
				desired = rtc.ClockStopped
			default:
				return fmt.Errorf("unknown clock state %q", c.Args().First())
			}
			console.Infof("waiting for the oscillator to settle")
			if err := clock.SetClockState(ctx, desired); err != nil {
				return err
			}
			console.PInfof(console.PictoClock, "clock %s", console.Green(desired))
			return nil
		})
	},
}

var rtcResetCmd = cli.Command{
	Name:  "reset",
	Usage: "reset date-time to 2000-01-01, disable the battery and stop the clock",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
	},
	Action: func(c *cli.Context) error {
		if !c.Bool("yes") {
			answer, err := console.YesOrNo("reset the RTC?")
			if err != nil {
				return console.Fail("prompt error", err)
			}
			if answer != console.Yes {
				console.PInfof(console.PictoStop, "reset aborted")
				return nil
			}
		}
		return withClock(c, func(ctx context.Context, clock *rtc.MCP79410) error {
			if !clock.Reset(ctx) {
				return fmt.Errorf("reset incomplete, see the log for failed steps")
			}
			console.PInfof(console.PictoClock, "%s", console.Green("rtc reset"))
			return nil
		})
	},
}
