// Package rtc drives the Microchip MCP79410 battery-backed real-time clock.
// Datasheet: http://ww1.microchip.com/downloads/en/devicedoc/20002266h.pdf
package rtc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/qset/obc"
	"github.com/qset/obc/bcd"
)

const DefaultAddress = 0x6F

// Time keeping registers (datasheet Table 5-1)
const (
	regSeconds byte = 0x00
	regMinutes byte = 0x01
	regHours   byte = 0x02
	regWeekday byte = 0x03
	regDate    byte = 0x04
	regMonth   byte = 0x05
	regYear    byte = 0x06
)

const (
	bitST     = 0x80 // RTCSEC: start oscillator
	bitVBATEN = 0x08 // RTCWKDAY: external battery backup enable
	bit12Hour = 0x40 // RTCHOUR: 12 hour format
	bitPM     = 0x20 // RTCHOUR: PM indicator in 12 hour format

	maskSeconds = 0x7F
	maskMinutes = 0x7F
	maskHours24 = 0x3F
	maskHours12 = 0x1F
	maskDate    = 0x3F
	maskMonth   = 0x1F
	maskYear    = 0xFF
)

const (
	defaultSettleInterval = 3 * time.Second
	verifyMargin          = 2 * time.Second
)

type ClockState byte

const (
	ClockStopped ClockState = iota
	ClockRunning
)

func (s ClockState) String() string {
	switch s {
	case ClockStopped:
		return "stopped"
	case ClockRunning:
		return "running"
	default:
		return fmt.Sprintf("ClockState(%d)", byte(s))
	}
}

type BatteryState byte

const (
	BatteryOff BatteryState = iota
	BatteryOn
)

func (s BatteryState) String() string {
	switch s {
	case BatteryOff:
		return "off"
	case BatteryOn:
		return "on"
	default:
		return fmt.Sprintf("BatteryState(%d)", byte(s))
	}
}

type Config struct {
	Address        byte
	SettleInterval time.Duration
	// VerifyTimeout bounds a whole tick verification; zero means settle interval plus two seconds.
	VerifyTimeout time.Duration
	Battery       *BatteryState
	Clock         *ClockState
}

type ConfigOption func(*Config)

func WithAddress(address byte) ConfigOption {
	return func(c *Config) {
		c.Address = address
	}
}

// WithSettleInterval sets the wait between the two seconds samples of a tick
// verification. It must be long enough to observe at least one tick.
func WithSettleInterval(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.SettleInterval = d
	}
}

func WithVerifyTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.VerifyTimeout = d
	}
}

// WithBatteryState applies the backup battery state during initialization.
func WithBatteryState(state BatteryState) ConfigOption {
	return func(c *Config) {
		c.Battery = &state
	}
}

// WithClockState applies (and verifies) the oscillator state during initialization.
func WithClockState(state ClockState) ConfigOption {
	return func(c *Config) {
		c.Clock = &state
	}
}

// MCP79410 represents the RTC. All operations are synchronous; every logical
// operation holds the device lock for its whole duration, including the
// multi-second tick verification of SetClockState.
type MCP79410 struct {
	mx        sync.Mutex
	transport obc.RegisterBus
	address   byte
	settle    time.Duration
	timeout   time.Duration
}

// NewMCP79410 creates the driver and applies the initial battery and clock
// states passed as options.
func NewMCP79410(ctx context.Context, trans obc.RegisterBus, opts ...ConfigOption) (*MCP79410, error) {
	config := &Config{
		Address:        DefaultAddress,
		SettleInterval: defaultSettleInterval,
	}
	for _, opt := range opts {
		opt(config)
	}
	timeout := config.VerifyTimeout
	if timeout == 0 {
		timeout = config.SettleInterval + verifyMargin
	}
	d := &MCP79410{
		transport: trans,
		address:   config.Address,
		settle:    config.SettleInterval,
		timeout:   timeout,
	}
	if config.Battery != nil {
		if err := d.SetBatteryState(ctx, *config.Battery); err != nil {
			return nil, err
		}
	}
	if config.Clock != nil {
		if err := d.SetClockState(ctx, *config.Clock); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *MCP79410) readReg(ctx context.Context, offset byte) (byte, error) {
	val, err := d.transport.ReadByteData(ctx, obc.RegisterAddress{Device: d.address, Offset: offset})
	if err != nil {
		return 0, fmt.Errorf("mcp79410: could not read register %#02x: %w", offset, obc.Fault(err))
	}
	return val, nil
}

func (d *MCP79410) writeReg(ctx context.Context, offset, value byte) error {
	err := d.transport.WriteByteData(ctx, obc.RegisterAddress{Device: d.address, Offset: offset}, value)
	if err != nil {
		return fmt.Errorf("mcp79410: could not write register %#02x: %w", offset, obc.Fault(err))
	}
	return nil
}

// updateReg replaces the bits selected by mask and keeps all others.
func (d *MCP79410) updateReg(ctx context.Context, offset, mask, value byte) error {
	if mask == 0xFF {
		return d.writeReg(ctx, offset, value)
	}
	old, err := d.readReg(ctx, offset)
	if err != nil {
		return err
	}
	return d.writeReg(ctx, offset, old&^mask|value&mask)
}

func (d *MCP79410) readField(ctx context.Context, offset, mask byte) (int, error) {
	raw, err := d.readReg(ctx, offset)
	if err != nil {
		return 0, err
	}
	v, err := bcd.Decode(raw & mask)
	if err != nil {
		return 0, fmt.Errorf("mcp79410: register %#02x: %w", offset, err)
	}
	return v, nil
}

func (d *MCP79410) GetClockState(ctx context.Context) (ClockState, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	raw, err := d.readReg(ctx, regSeconds)
	if err != nil {
		return 0, err
	}
	if raw&bitST != 0 {
		return ClockRunning, nil
	}
	return ClockStopped, nil
}

// SetClockState flips the oscillator enable bit and blocks until a tick
// verification confirms the clock really is (or is not) advancing.
func (d *MCP79410) SetClockState(ctx context.Context, desired ClockState) error {
	var bit byte
	switch desired {
	case ClockRunning:
		bit = bitST
	case ClockStopped:
	default:
		return fmt.Errorf("mcp79410: invalid clock state %d: %w", desired, obc.ErrRange)
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.updateReg(ctx, regSeconds, bitST, bit); err != nil {
		return err
	}
	return d.verifyTick(ctx, desired)
}

// verifyTick samples the seconds field twice, one settle interval apart.
// The device has no reliable "oscillating" status bit, so this is the only
// way to know the transition took effect.
func (d *MCP79410) verifyTick(ctx context.Context, desired ClockState) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	first, err := d.readField(ctx, regSeconds, maskSeconds)
	if err != nil {
		return err
	}
	timer := time.NewTimer(d.settle)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return fmt.Errorf("mcp79410: tick verification aborted: %w", obc.Fault(ctx.Err()))
	}
	second, err := d.readField(ctx, regSeconds, maskSeconds)
	if err != nil {
		return err
	}
	slog.Debug("mcp79410: tick verification", "desired", desired, "first", first, "second", second)
	ticking := first != second
	switch {
	case desired == ClockRunning && !ticking:
		return fmt.Errorf("mcp79410: clock unable to start (seconds stuck at %d): %w", first, obc.ErrHardwareFault)
	case desired == ClockStopped && ticking:
		return fmt.Errorf("mcp79410: clock unable to stop (seconds %d -> %d): %w", first, second, obc.ErrHardwareFault)
	}
	return nil
}

func (d *MCP79410) GetBatteryState(ctx context.Context) (BatteryState, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	raw, err := d.readReg(ctx, regWeekday)
	if err != nil {
		return 0, err
	}
	if raw&bitVBATEN != 0 {
		return BatteryOn, nil
	}
	return BatteryOff, nil
}

// SetBatteryState updates VBATEN only; weekday and status bits are preserved.
func (d *MCP79410) SetBatteryState(ctx context.Context, state BatteryState) error {
	var bit byte
	switch state {
	case BatteryOn:
		bit = bitVBATEN
	case BatteryOff:
	default:
		return fmt.Errorf("mcp79410: invalid battery state %d: %w", state, obc.ErrRange)
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.updateReg(ctx, regWeekday, bitVBATEN, bit)
}

// GetDateTime reads each time keeping register separately. Hours stored in
// 12 hour format are converted to 24 hour values.
func (d *MCP79410) GetDateTime(ctx context.Context) (DateTime, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	var dt DateTime
	var err error
	if dt.Second, err = d.readField(ctx, regSeconds, maskSeconds); err != nil {
		return DateTime{}, err
	}
	if dt.Minute, err = d.readField(ctx, regMinutes, maskMinutes); err != nil {
		return DateTime{}, err
	}
	if dt.Hour, err = d.readHour(ctx); err != nil {
		return DateTime{}, err
	}
	if dt.Day, err = d.readField(ctx, regDate, maskDate); err != nil {
		return DateTime{}, err
	}
	if dt.Month, err = d.readField(ctx, regMonth, maskMonth); err != nil {
		return DateTime{}, err
	}
	year, err := d.readField(ctx, regYear, maskYear)
	if err != nil {
		return DateTime{}, err
	}
	dt.Year = century + year
	if err := dt.Validate(); err != nil {
		return DateTime{}, fmt.Errorf("mcp79410: stored date-time %s is invalid (%v): %w", dt, err, obc.ErrFormat)
	}
	return dt, nil
}

func (d *MCP79410) readHour(ctx context.Context) (int, error) {
	raw, err := d.readReg(ctx, regHours)
	if err != nil {
		return 0, err
	}
	if raw&bit12Hour == 0 {
		h, err := bcd.Decode(raw & maskHours24)
		if err != nil {
			return 0, fmt.Errorf("mcp79410: hours register: %w", err)
		}
		return h, nil
	}
	h, err := bcd.Decode(raw & maskHours12)
	if err != nil {
		return 0, fmt.Errorf("mcp79410: hours register: %w", err)
	}
	if h < 1 || h > 12 {
		return 0, fmt.Errorf("mcp79410: 12 hour value %d: %w", h, obc.ErrFormat)
	}
	h %= 12
	if raw&bitPM != 0 {
		h += 12
	}
	return h, nil
}

// SetDateTime writes seconds, minutes, hours, day, month and year, in that
// order. Each write keeps the bits that do not belong to the field (ST,
// 12/24 hour format, LPYR).
func (d *MCP79410) SetDateTime(ctx context.Context, dt DateTime) error {
	if err := dt.Validate(); err != nil {
		return fmt.Errorf("mcp79410: %w", err)
	}
	fields := []struct {
		reg   byte
		mask  byte
		value int
	}{
		{regSeconds, maskSeconds, dt.Second},
		{regMinutes, maskMinutes, dt.Minute},
		{regHours, maskHours24, dt.Hour},
		{regDate, maskDate, dt.Day},
		{regMonth, maskMonth, dt.Month},
		{regYear, maskYear, dt.Year - century},
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	for _, f := range fields {
		if f.reg == regHours {
			if err := d.writeHour(ctx, f.value); err != nil {
				return err
			}
			continue
		}
		b, err := bcd.Encode(f.value)
		if err != nil {
			return fmt.Errorf("mcp79410: register %#02x: %w", f.reg, err)
		}
		if err := d.updateReg(ctx, f.reg, f.mask, b); err != nil {
			return err
		}
	}
	return nil
}

// writeHour encodes hour (0-23) in whichever format the register is set to.
func (d *MCP79410) writeHour(ctx context.Context, hour int) error {
	raw, err := d.readReg(ctx, regHours)
	if err != nil {
		return err
	}
	var val byte
	if raw&bit12Hour == 0 {
		val, err = bcd.Encode(hour)
	} else {
		h := hour % 12
		if h == 0 {
			h = 12
		}
		val, err = bcd.Encode(h)
		if hour >= 12 {
			val |= bitPM
		}
	}
	if err != nil {
		return fmt.Errorf("mcp79410: hours register: %w", err)
	}
	return d.writeReg(ctx, regHours, raw&^maskHours24|val)
}

// Now returns the RTC time as UTC.
func (d *MCP79410) Now(ctx context.Context) (time.Time, error) {
	dt, err := d.GetDateTime(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return dt.Time(), nil
}

// Set writes t (converted to UTC, truncated to the second) to the RTC.
func (d *MCP79410) Set(ctx context.Context, t time.Time) error {
	return d.SetDateTime(ctx, FromTime(t))
}

// Reset puts the RTC back to the epoch with the battery disabled and the
// clock stopped. It is meant for fault recovery, so every step is attempted
// and failures are only logged; the result reports whether all succeeded.
func (d *MCP79410) Reset(ctx context.Context) bool {
	ok := true
	if err := d.SetDateTime(ctx, Epoch); err != nil {
		slog.Warn("mcp79410: reset could not set date-time", "error", err)
		ok = false
	}
	if err := d.SetBatteryState(ctx, BatteryOff); err != nil {
		slog.Warn("mcp79410: reset could not disable battery", "error", err)
		ok = false
	}
	if err := d.SetClockState(ctx, ClockStopped); err != nil {
		slog.Warn("mcp79410: reset could not stop clock", "error", err)
		ok = false
	}
	return ok
}
