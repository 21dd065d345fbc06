package main

import (
	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/raspi"

	"github.com/qset/obc/adc"
	"github.com/qset/obc/cmd/obc/console"
	"github.com/qset/obc/spi"
)

var adcCmd = cli.Command{
	Name:  "adc",
	Usage: "MCP3008 analog to digital converter",
	Subcommands: cli.Commands{
		&adcReadCmd,
	},
}

var adcReadCmd = cli.Command{
	Name:  "read",
	Usage: "select a channel and read one sample",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "channel", Aliases: []string{"ch"}, Required: true},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c.Context)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		dev := spi.NewDevice(raspi.NewAdaptor(), spi.Config{
			Bus:   cfg.MCP3008.Bus,
			Chip:  cfg.MCP3008.ChipEnable,
			Mode:  cfg.MCP3008.Mode,
			Speed: cfg.MCP3008.Speed,
		})
		if err := dev.Start(); err != nil {
			return console.Fail("SPI device start error", err)
		}
		defer func() { _ = dev.Halt() }()
		converter := adc.NewMCP3008(dev, cfg.MCP3008.ChannelMask(), adc.WithSampleWidth(cfg.MCP3008.SampleWidth))
		ch := c.Int("channel")
		sample, err := converter.ReadChannel(c.Context, ch)
		if err != nil {
			return console.Fail("adc error", err)
		}
		val, err := sample.Value()
		if err != nil {
			return console.Fail("adc error", err)
		}
		console.Printf("channel %d: %s (raw % X)\n", ch, console.White(val), []byte(sample))
		return nil
	},
}
