package main

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/qset/obc/cmd/obc/console"
	"github.com/qset/obc/controller"
)

var telemetryCmd = cli.Command{
	Name:  "telemetry",
	Usage: "print the RTC date-time and the OBC ambient temperature",
	Action: func(c *cli.Context) error {
		hw, err := openHardware(c.Context)
		if err != nil {
			return console.Fail("hardware initialization error", err)
		}
		defer func() { _ = hw.Close() }()
		clock, err := hw.clock(c.Context, false)
		if err != nil {
			return console.Fail("rtc error", err)
		}
		thermo, err := hw.thermometer(c.Context, false)
		if err != nil {
			return console.Fail("temperature sensor error", err)
		}
		tel, err := controller.New(controller.Devices{Clock: clock, Thermometer: thermo}).Telemetry(c.Context)
		if err != nil {
			return console.Fail("telemetry error", err)
		}
		console.PInfof(console.PictoClock, "Time: %s", console.White(tel.Time))
		console.PInfof(console.PictoThermometer, "OBC Ambient Temperature: %s", console.White(tel.Ambient))
		return nil
	},
}

var initCmd = cli.Command{
	Name:  "init",
	Usage: "apply the configured RTC states, date-time and temperature thresholds",
	Action: func(c *cli.Context) error {
		hw, err := openHardware(c.Context)
		if err != nil {
			return console.Fail("hardware initialization error", err)
		}
		defer func() { _ = hw.Close() }()

		var devices controller.Devices
		if hw.cfg.RTC.Enabled {
			console.Infof("initializing rtc (this waits for the oscillator to settle)")
			clock, err := hw.clock(c.Context, true)
			if err != nil {
				return console.Fail("rtc initialization error", err)
			}
			devices.Clock = clock
		}
		if hw.cfg.TemperatureSensor.Enabled {
			thermo, err := hw.thermometer(c.Context, true)
			if err != nil {
				return console.Fail("temperature sensor initialization error", err)
			}
			if err := thermo.Check(c.Context); err != nil {
				console.Warnf("temperature sensor identification failed: %s", err)
			}
			devices.Thermometer = thermo
		}
		when, ok, err := hw.cfg.RTC.ParseDateTime()
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		if ok && devices.Clock != nil {
			if err := controller.New(devices).ApplyDateTime(c.Context, when); err != nil {
				return console.Exit(1, "%s", console.Red(err))
			}
			console.PInfof(console.PictoClock, "date-time set to %s", console.White(when.Format(time.DateTime)))
		}
		console.PInfof(console.PictoSatellite, "%s", console.Green("hardware initialized"))
		return nil
	},
}
