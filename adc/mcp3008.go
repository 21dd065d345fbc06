// Package adc drives the Microchip MCP3008 8-channel 10-bit SPI ADC.
// Datasheet: https://ww1.microchip.com/downloads/en/DeviceDoc/21295d.pdf
package adc

import (
	"context"
	"fmt"
	"sync"

	"github.com/qset/obc"
)

const (
	ChannelCount = 8

	startBit    = 0x01
	singleEnded = 0b1000

	defaultSampleWidth = 2
)

// Sample is the raw response clocked out after a channel selection.
type Sample []byte

// Value decodes the 10-bit conversion result carried in the last two bytes
// of the sample.
func (s Sample) Value() (uint16, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("mcp3008: sample of %d bytes: %w", len(s), obc.ErrFormat)
	}
	n := len(s)
	return uint16(s[n-2]&0x03)<<8 | uint16(s[n-1]), nil
}

type Config struct {
	SampleWidth int
}

type ConfigOption func(*Config)

// WithSampleWidth sets the number of bytes read back by ReadChannel.
func WithSampleWidth(n int) ConfigOption {
	return func(c *Config) {
		c.SampleWidth = n
	}
}

type MCP3008 struct {
	mx        sync.Mutex
	transport obc.SPIDevice
	channels  [ChannelCount]bool
	width     int
}

// NewMCP3008 binds the driver to one chip select line. The channel mask is
// copied and cannot be changed afterwards.
func NewMCP3008(dev obc.SPIDevice, channels [ChannelCount]bool, opts ...ConfigOption) *MCP3008 {
	config := &Config{SampleWidth: defaultSampleWidth}
	for _, opt := range opts {
		opt(config)
	}
	if config.SampleWidth < 2 {
		config.SampleWidth = defaultSampleWidth
	}
	return &MCP3008{
		transport: dev,
		channels:  channels,
		width:     config.SampleWidth,
	}
}

// Channels returns a copy of the enablement mask.
func (d *MCP3008) Channels() [ChannelCount]bool {
	return d.channels
}

// Command returns the 4-bit single-ended selection command for ch.
func Command(ch int) (byte, error) {
	if ch < 0 || ch >= ChannelCount {
		return 0, fmt.Errorf("mcp3008: channel %d: %w", ch, obc.ErrRange)
	}
	return singleEnded | byte(ch), nil
}

func (d *MCP3008) frame(ch int) ([]byte, error) {
	cmd, err := Command(ch)
	if err != nil {
		return nil, err
	}
	if !d.channels[ch] {
		return nil, fmt.Errorf("mcp3008: channel %d: %w", ch, obc.ErrChannelDisabled)
	}
	return []byte{startBit, cmd << 4}, nil
}

// SelectChannel transmits the selection command for ch. Nothing is sent for
// channels that are out of range or disabled.
func (d *MCP3008) SelectChannel(ctx context.Context, ch int) error {
	frame, err := d.frame(ch)
	if err != nil {
		return err
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.send(ctx, ch, frame)
}

func (d *MCP3008) send(ctx context.Context, ch int, frame []byte) error {
	if err := d.transport.Write(ctx, frame); err != nil {
		return fmt.Errorf("mcp3008: could not select channel %d: %w", ch, obc.Fault(err))
	}
	return nil
}

// ReadChannel selects ch and reads one sample. Selection and read form one
// critical section so no other selection can interleave.
func (d *MCP3008) ReadChannel(ctx context.Context, ch int) (Sample, error) {
	frame, err := d.frame(ch)
	if err != nil {
		return nil, err
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.send(ctx, ch, frame); err != nil {
		return nil, err
	}
	sample := make(Sample, d.width)
	if err := d.transport.Read(ctx, sample); err != nil {
		return nil, fmt.Errorf("mcp3008: could not read channel %d: %w", ch, obc.Fault(err))
	}
	return sample, nil
}
