// Package controller aggregates the OBC peripherals behind the operations
// exposed on the command line.
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/qset/obc/config"
	"github.com/qset/obc/environment"
	"github.com/qset/obc/rtc"
)

var ErrDeviceDisabled = errors.New("device disabled in configuration")

type Clock interface {
	GetDateTime(ctx context.Context) (rtc.DateTime, error)
	SetDateTime(ctx context.Context, dt rtc.DateTime) error
}

type Thermometer interface {
	GetAmbient(ctx context.Context) (environment.Temperature, error)
}

// Devices holds the peripherals; a nil entry is a device disabled in configuration.
type Devices struct {
	Clock       Clock
	Thermometer Thermometer
}

type Telemetry struct {
	Time    rtc.DateTime
	Ambient environment.Temperature
}

func (t Telemetry) String() string {
	return fmt.Sprintf("Time: %s\nOBC Ambient Temperature: %.2f °C", t.Time, t.Ambient.Celsius())
}

type Controller struct {
	devices Devices
}

func New(devices Devices) *Controller {
	return &Controller{devices: devices}
}

// Telemetry reads the clock and the ambient temperature. No partial result
// is returned when either device fails.
func (c *Controller) Telemetry(ctx context.Context) (Telemetry, error) {
	if c.devices.Clock == nil {
		return Telemetry{}, fmt.Errorf("rtc: %w", ErrDeviceDisabled)
	}
	if c.devices.Thermometer == nil {
		return Telemetry{}, fmt.Errorf("temperature sensor: %w", ErrDeviceDisabled)
	}
	dt, err := c.devices.Clock.GetDateTime(ctx)
	if err != nil {
		return Telemetry{}, fmt.Errorf("could not read date-time: %w", err)
	}
	ambient, err := c.devices.Thermometer.GetAmbient(ctx)
	if err != nil {
		return Telemetry{}, fmt.Errorf("could not read ambient temperature: %w", err)
	}
	return Telemetry{Time: dt, Ambient: ambient}, nil
}

// ApplyDateTime sets the RTC to t.
func (c *Controller) ApplyDateTime(ctx context.Context, t time.Time) error {
	if c.devices.Clock == nil {
		return fmt.Errorf("rtc: %w", ErrDeviceDisabled)
	}
	if err := c.devices.Clock.SetDateTime(ctx, rtc.FromTime(t)); err != nil {
		return fmt.Errorf("could not set date-time: %w", err)
	}
	return nil
}

// RTCOptions translates the rtc section into driver options. Battery and
// clock states are only applied when present.
func RTCOptions(cfg config.RTC) []rtc.ConfigOption {
	opts := []rtc.ConfigOption{
		rtc.WithAddress(cfg.Address),
		rtc.WithSettleInterval(cfg.SettleInterval),
	}
	if cfg.BatteryState != nil {
		state := rtc.BatteryOff
		if *cfg.BatteryState {
			state = rtc.BatteryOn
		}
		opts = append(opts, rtc.WithBatteryState(state))
	}
	if cfg.ClockState != nil {
		state := rtc.ClockStopped
		if *cfg.ClockState {
			state = rtc.ClockRunning
		}
		opts = append(opts, rtc.WithClockState(state))
	}
	return opts
}

// ThermometerOptions translates the temperature_sensor section into driver
// options.
func ThermometerOptions(cfg config.TemperatureSensor) ([]environment.MCP9808ConfigOption, error) {
	opts := []environment.MCP9808ConfigOption{environment.WithAddress(cfg.Address)}
	thresholds := []struct {
		name  string
		value *float64
		opt   func(environment.Temperature) environment.MCP9808ConfigOption
	}{
		{"critical", cfg.Critical, environment.WithCritical},
		{"upper", cfg.Upper, environment.WithUpper},
		{"lower", cfg.Lower, environment.WithLower},
	}
	for _, th := range thresholds {
		if th.value == nil {
			continue
		}
		t, err := environment.FromCelsius(*th.value)
		if err != nil {
			return nil, fmt.Errorf("%s temperature: %w", th.name, err)
		}
		opts = append(opts, th.opt(t))
	}
	return opts, nil
}
