package main

import (
	"context"
	"fmt"

	"github.com/qset/obc"
	"github.com/qset/obc/adapter"
	"github.com/qset/obc/comms"
	"github.com/qset/obc/config"
	"github.com/qset/obc/controller"
	"github.com/qset/obc/environment"
	"github.com/qset/obc/i2c"
	"github.com/qset/obc/obcctx"
	"github.com/qset/obc/rtc"
)

// hardware is the configured I2C transport shared by every device of one
// invocation.
type hardware struct {
	cfg   *config.Config
	raw   obc.I2CBus
	regs  obc.RegisterBus
	close func() error
}

func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(obcctx.ConfigPath(ctx))
	if err != nil {
		return nil, fmt.Errorf("could not load configuration: %w", err)
	}
	return cfg, nil
}

func openHardware(ctx context.Context) (*hardware, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	switch cfg.I2C.Adapter {
	case config.AdapterMCP2221:
		bridge := adapter.NewMCP2221()
		if err := bridge.SetSpeed(ctx, cfg.I2C.Speed); err != nil {
			return nil, fmt.Errorf("could not set bridge speed: %w", err)
		}
		return &hardware{
			cfg:   cfg,
			raw:   bridge,
			regs:  obc.NewRegisterBus(bridge),
			close: func() error { return nil },
		}, nil
	default:
		bus, err := i2c.Open(cfg.I2C.Bus)
		if err != nil {
			return nil, err
		}
		return &hardware{cfg: cfg, raw: bus, regs: bus, close: bus.Close}, nil
	}
}

func (h *hardware) Close() error {
	return h.close()
}

// clock creates the RTC driver; configured battery and clock states are
// only written when apply is set.
func (h *hardware) clock(ctx context.Context, apply bool) (*rtc.MCP79410, error) {
	cfg := h.cfg.RTC
	if !cfg.Enabled {
		return nil, fmt.Errorf("rtc: %w", controller.ErrDeviceDisabled)
	}
	if !apply {
		cfg.BatteryState, cfg.ClockState = nil, nil
	}
	return rtc.NewMCP79410(ctx, h.regs, controller.RTCOptions(cfg)...)
}

// thermometer creates the MCP9808 driver; configured thresholds are only
// written when apply is set.
func (h *hardware) thermometer(ctx context.Context, apply bool) (*environment.MCP9808, error) {
	cfg := h.cfg.TemperatureSensor
	if !cfg.Enabled {
		return nil, fmt.Errorf("temperature sensor: %w", controller.ErrDeviceDisabled)
	}
	if !apply {
		cfg.Critical, cfg.Upper, cfg.Lower = nil, nil, nil
	}
	opts, err := controller.ThermometerOptions(cfg)
	if err != nil {
		return nil, err
	}
	return environment.NewMCP9808(ctx, h.regs, opts...)
}

func (h *hardware) stm32() (*comms.STM32, error) {
	if !h.cfg.Comms.Enabled {
		return nil, fmt.Errorf("comms: %w", controller.ErrDeviceDisabled)
	}
	return comms.NewSTM32(h.raw, h.cfg.Comms.Address), nil
}

func (h *hardware) board() (*comms.Board, error) {
	link, err := h.stm32()
	if err != nil {
		return nil, err
	}
	cmds := h.cfg.Comms.Commands
	return comms.NewBoard(link, comms.Commands{LEDOn: cmds.LEDOn, LEDOff: cmds.LEDOff}), nil
}
