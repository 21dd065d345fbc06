package environment

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/qset/obc"
)

const mcp9808DefaultAddress = 0x18

// Register map, see page 16 of the datasheet.
const (
	mcp9808RegConfig     byte = 0x01
	mcp9808RegUpper      byte = 0x02
	mcp9808RegLower      byte = 0x03
	mcp9808RegCritical   byte = 0x04
	mcp9808RegAmbient    byte = 0x05
	mcp9808RegManufactID byte = 0x06
	mcp9808RegDeviceID   byte = 0x07
	mcp9808RegResolution byte = 0x08
)

const (
	mcp9808ManufacturerID = 0x0054
	mcp9808DeviceID       = 0x04

	resolutionMask = 0x03
)

// Resolution selects the ambient conversion resolution.
type Resolution byte

const (
	ResolutionHalf      Resolution = 0x00 // 0.5 °C, 30 ms
	ResolutionQuarter   Resolution = 0x01 // 0.25 °C, 65 ms
	ResolutionEighth    Resolution = 0x02 // 0.125 °C, 130 ms
	ResolutionSixteenth Resolution = 0x03 // 0.0625 °C, 250 ms (power-up default)
)

// MCP9808 represents a Microchip MCP9808 digital temperature sensor.
// See: https://ww1.microchip.com/downloads/en/DeviceDoc/25095A.pdf
//
// Usage: Instantiate with NewMCP9808, then call GetAmbient(ctx). Threshold
// registers are only configuration for the on-chip alarm logic; alarm flags
// are not interpreted.
type MCP9808 struct {
	mx        sync.Mutex
	transport obc.RegisterBus
	address   byte
}

type MCP9808Config struct {
	Address  byte
	Critical *Temperature
	Upper    *Temperature
	Lower    *Temperature
}

type MCP9808ConfigOption func(*MCP9808Config)

func WithAddress(address byte) MCP9808ConfigOption {
	return func(c *MCP9808Config) {
		c.Address = address
	}
}

// WithCritical writes the critical threshold during initialization.
func WithCritical(t Temperature) MCP9808ConfigOption {
	return func(c *MCP9808Config) {
		c.Critical = &t
	}
}

// WithUpper writes the upper alert threshold during initialization.
func WithUpper(t Temperature) MCP9808ConfigOption {
	return func(c *MCP9808Config) {
		c.Upper = &t
	}
}

// WithLower writes the lower alert threshold during initialization.
func WithLower(t Temperature) MCP9808ConfigOption {
	return func(c *MCP9808Config) {
		c.Lower = &t
	}
}

// NewMCP9808 creates a sensor connector and writes any thresholds passed as
// options before returning, so no reading is served with stale limits.
func NewMCP9808(ctx context.Context, trans obc.RegisterBus, opts ...MCP9808ConfigOption) (*MCP9808, error) {
	config := &MCP9808Config{
		Address: mcp9808DefaultAddress,
	}
	for _, opt := range opts {
		opt(config)
	}
	sensor := &MCP9808{transport: trans, address: config.Address}
	thresholds := []struct {
		name  string
		reg   byte
		value *Temperature
	}{
		{"critical", mcp9808RegCritical, config.Critical},
		{"upper", mcp9808RegUpper, config.Upper},
		{"lower", mcp9808RegLower, config.Lower},
	}
	for _, th := range thresholds {
		if th.value == nil {
			continue
		}
		if err := sensor.setTemperature(ctx, th.reg, *th.value); err != nil {
			return nil, fmt.Errorf("mcp9808: could not initialize %s threshold: %w", th.name, err)
		}
	}
	return sensor, nil
}

func (sensor *MCP9808) reg(offset byte) obc.RegisterAddress {
	return obc.RegisterAddress{Device: sensor.address, Offset: offset}
}

func (sensor *MCP9808) getTemperature(ctx context.Context, reg byte) (Temperature, error) {
	sensor.mx.Lock()
	defer sensor.mx.Unlock()
	buf := make([]byte, 2)
	err := sensor.transport.ReadBlockData(ctx, sensor.reg(reg), buf)
	if err != nil {
		return 0, fmt.Errorf("mcp9808: could not read register %#02x: %w", reg, obc.Fault(err))
	}
	return DecodeTemperature(buf[0], buf[1]), nil
}

func (sensor *MCP9808) setTemperature(ctx context.Context, reg byte, t Temperature) error {
	high, low, err := EncodeTemperature(t)
	if err != nil {
		return fmt.Errorf("mcp9808: %w", err)
	}
	sensor.mx.Lock()
	defer sensor.mx.Unlock()
	err = sensor.transport.WriteBlockData(ctx, sensor.reg(reg), []byte{high, low})
	if err != nil {
		return fmt.Errorf("mcp9808: could not write register %#02x: %w", reg, obc.Fault(err))
	}
	return nil
}

// GetAmbient returns the last converted ambient temperature.
func (sensor *MCP9808) GetAmbient(ctx context.Context) (Temperature, error) {
	return sensor.getTemperature(ctx, mcp9808RegAmbient)
}

func (sensor *MCP9808) GetUpper(ctx context.Context) (Temperature, error) {
	return sensor.getTemperature(ctx, mcp9808RegUpper)
}

func (sensor *MCP9808) SetUpper(ctx context.Context, t Temperature) error {
	return sensor.setTemperature(ctx, mcp9808RegUpper, t)
}

func (sensor *MCP9808) GetLower(ctx context.Context) (Temperature, error) {
	return sensor.getTemperature(ctx, mcp9808RegLower)
}

func (sensor *MCP9808) SetLower(ctx context.Context, t Temperature) error {
	return sensor.setTemperature(ctx, mcp9808RegLower, t)
}

func (sensor *MCP9808) GetCritical(ctx context.Context) (Temperature, error) {
	return sensor.getTemperature(ctx, mcp9808RegCritical)
}

func (sensor *MCP9808) SetCritical(ctx context.Context, t Temperature) error {
	return sensor.setTemperature(ctx, mcp9808RegCritical, t)
}

// GetConfig reads the 16-bit configuration register.
func (sensor *MCP9808) GetConfig(ctx context.Context) (uint16, error) {
	sensor.mx.Lock()
	defer sensor.mx.Unlock()
	buf := make([]byte, 2)
	err := sensor.transport.ReadBlockData(ctx, sensor.reg(mcp9808RegConfig), buf)
	if err != nil {
		return 0, fmt.Errorf("mcp9808: could not read config register: %w", obc.Fault(err))
	}
	return binary.BigEndian.Uint16(buf), nil
}

// Check verifies the manufacturer and device identification registers.
func (sensor *MCP9808) Check(ctx context.Context) error {
	sensor.mx.Lock()
	defer sensor.mx.Unlock()
	buf := make([]byte, 2)
	err := sensor.transport.ReadBlockData(ctx, sensor.reg(mcp9808RegManufactID), buf)
	if err != nil {
		return fmt.Errorf("mcp9808: could not read manufacturer ID: %w", obc.Fault(err))
	}
	mID := binary.BigEndian.Uint16(buf)
	err = sensor.transport.ReadBlockData(ctx, sensor.reg(mcp9808RegDeviceID), buf)
	if err != nil {
		return fmt.Errorf("mcp9808: could not read device ID: %w", obc.Fault(err))
	}
	// low byte is the silicon revision
	dID := buf[0]
	if mID != mcp9808ManufacturerID || dID != mcp9808DeviceID {
		return fmt.Errorf("mcp9808: unexpected manufacturer/device ID %#04x/%#02x: %w", mID, dID, obc.ErrHardwareFault)
	}
	return nil
}

func (sensor *MCP9808) GetResolution(ctx context.Context) (Resolution, error) {
	sensor.mx.Lock()
	defer sensor.mx.Unlock()
	val, err := sensor.transport.ReadByteData(ctx, sensor.reg(mcp9808RegResolution))
	if err != nil {
		return 0, fmt.Errorf("mcp9808: could not read resolution register: %w", obc.Fault(err))
	}
	return Resolution(val & resolutionMask), nil
}

// SetResolution updates bits 1:0 of the resolution register; the remaining bits are preserved.
func (sensor *MCP9808) SetResolution(ctx context.Context, res Resolution) error {
	if res > ResolutionSixteenth {
		return fmt.Errorf("mcp9808: resolution %d: %w", res, obc.ErrRange)
	}
	sensor.mx.Lock()
	defer sensor.mx.Unlock()
	val, err := sensor.transport.ReadByteData(ctx, sensor.reg(mcp9808RegResolution))
	if err != nil {
		return fmt.Errorf("mcp9808: could not read resolution register: %w", obc.Fault(err))
	}
	val = val&^resolutionMask | byte(res)
	err = sensor.transport.WriteByteData(ctx, sensor.reg(mcp9808RegResolution), val)
	if err != nil {
		return fmt.Errorf("mcp9808: could not write resolution register: %w", obc.Fault(err))
	}
	return nil
}
