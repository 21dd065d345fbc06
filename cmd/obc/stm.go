package main

import (
	"encoding/hex"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/qset/obc/cmd/obc/console"
)

var stmCmd = cli.Command{
	Name:  "stm",
	Usage: "raw frames to and from the STM32 co-processor",
	Subcommands: cli.Commands{
		&stmTxCmd,
		&stmRxCmd,
	},
}

var stmTxCmd = cli.Command{
	Name:      "tx",
	Usage:     "transmit a frame",
	ArgsUsage: "[hex bytes, e.g. 09050102]",
	Action: func(c *cli.Context) error {
		arg := c.Args().First()
		if arg == "" {
			arg = "09050102"
		}
		data, err := hex.DecodeString(strings.ReplaceAll(arg, " ", ""))
		if err != nil {
			return console.Fail("invalid data hex string", err)
		}
		hw, err := openHardware(c.Context)
		if err != nil {
			return console.Fail("hardware initialization error", err)
		}
		defer func() { _ = hw.Close() }()
		link, err := hw.stm32()
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		if err := link.Transmit(c.Context, data); err != nil {
			return console.Fail("stm32 error", err)
		}
		console.PInfof(console.PictoSatellite, "sent % X", data)
		return nil
	},
}

var stmRxCmd = cli.Command{
	Name:  "rx",
	Usage: "receive a frame",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "length", Aliases: []string{"n"}, Value: 4, Usage: "number of bytes expected"},
	},
	Action: func(c *cli.Context) error {
		hw, err := openHardware(c.Context)
		if err != nil {
			return console.Fail("hardware initialization error", err)
		}
		defer func() { _ = hw.Close() }()
		link, err := hw.stm32()
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		data, err := link.Receive(c.Context, c.Int("length"))
		if err != nil {
			return console.Fail("stm32 error", err)
		}
		console.PInfof(console.PictoSatellite, "received % X", data)
		return nil
	},
}

var ledCmd = cli.Command{
	Name:      "led",
	Usage:     "comms board LED",
	ArgsUsage: "on|off|state",
	Action: func(c *cli.Context) error {
		hw, err := openHardware(c.Context)
		if err != nil {
			return console.Fail("hardware initialization error", err)
		}
		defer func() { _ = hw.Close() }()
		board, err := hw.board()
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		switch c.Args().First() {
		case "on":
			err = board.LEDOn(c.Context)
		case "off":
			err = board.LEDOff(c.Context)
		case "state", "":
			var on bool
			on, err = board.LEDState(c.Context)
			if err == nil {
				console.PInfof(console.PictoBulb, "led %s", console.OnOff(on))
			}
		default:
			return console.Exit(1, "unknown led command %q", c.Args().First())
		}
		if err != nil {
			return console.Fail("comms error", err)
		}
		return nil
	},
}
