// Package adapter drives the MCP2221 USB to I2C bridge, used to reach the
// OBC peripherals from a bench computer.
package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/qset/obc"
	"github.com/qset/obc/obcctx"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

const (
	reportSize = 64
	// maxPayload is what fits in one report after the command header.
	maxPayload = reportSize - 4

	cmdStatus       = 0x10
	cmdI2CWrite     = 0x90
	cmdI2CRead      = 0x91
	cmdI2CGetData   = 0x40
	statusCancel    = 0x10
	statusSetSpeed  = 0x20
	responseFailed  = 0x01
	getDataFailed   = 0x41
	invalidDataSize = 127

	clockFrequency = 12_000_000
)

var ErrCommandFailed = errors.New("command failed")

var _ obc.I2CBus = &MCP2221{}

type Status struct {
	I2CDataBufferCounter   int    `yaml:"i2c_data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"i2c_speed_divider"`
	I2CTimeout             int    `yaml:"i2c_timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested_size"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent_size"`
	ReadPending            int    `yaml:"read_pending"`
}

// device is the part of a HID handle the bridge needs.
type device interface {
	Write(b []byte) (int, error)
	Read(b []byte) (int, error)
	Close() error
}

type MCP2221 struct {
	mx           sync.Mutex
	open         func() (device, error)
	request      []byte
	response     []byte
	responseWait time.Duration
}

// NewMCP2221 talks to the only bridge connected over USB. The device is
// opened for every report so the bridge can be unplugged between commands.
func NewMCP2221() *MCP2221 {
	return newMCP2221(openFirst)
}

func newMCP2221(open func() (device, error)) *MCP2221 {
	return &MCP2221{
		open:         open,
		request:      make([]byte, reportSize),
		response:     make([]byte, reportSize),
		responseWait: 50 * time.Millisecond,
	}
}

func openFirst() (device, error) {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) > 1 {
		return nil, fmt.Errorf("ambiguous device identification: %d bridges connected", len(devs))
	}
	if len(devs) == 0 {
		return nil, fmt.Errorf("MCP2221 device not found")
	}
	dev, err := devs[0].Open()
	if err != nil {
		return nil, fmt.Errorf("error opening device: %w", err)
	}
	return dev, nil
}

func (d *MCP2221) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if len(buffer) > maxPayload {
		return fmt.Errorf("write of %d bytes exceeds one report: %w", len(buffer), obc.ErrRange)
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdI2CWrite
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address << 1
	copy(d.request[4:], buffer)
	if err := d.send(ctx); err != nil {
		return fmt.Errorf("write to %#02x failed: %w", address, err)
	}
	if d.response[1] == responseFailed {
		slog.Debug("mcp2221: adapter busy", "address", address)
		return obc.ErrBusBusy
	}
	return nil
}

func (d *MCP2221) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	if len(buffer) > maxPayload {
		return fmt.Errorf("read of %d bytes exceeds one report: %w", len(buffer), obc.ErrRange)
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdI2CRead
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address<<1 | 1
	if err := d.send(ctx); err != nil {
		return fmt.Errorf("bus read from %#02x failed: %w", address, err)
	}
	if d.response[1] == responseFailed {
		return obc.ErrBusBusy
	}
	d.resetBuffers()
	d.request[0] = cmdI2CGetData
	if err := d.send(ctx); err != nil {
		return fmt.Errorf("error getting read data from adapter: %w", err)
	}
	if d.response[1] == getDataFailed {
		return fmt.Errorf("error reading the I2C slave data from the I2C engine: %w", ErrCommandFailed)
	}
	if d.response[3] == invalidDataSize || int(d.response[3]) != len(buffer) {
		return fmt.Errorf("invalid data size byte; expected %d, got %d", len(buffer), d.response[3])
	}
	copy(buffer, d.response[4:])
	return nil
}

func (d *MCP2221) Status(ctx context.Context) (*Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	if err := d.send(ctx); err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

// SetSpeed changes the I2C clock. The bridge derives it from its 12 MHz
// clock, so the actual speed is rounded.
func (d *MCP2221) SetSpeed(ctx context.Context, hz int) error {
	if hz <= 0 || clockFrequency/hz-3 < 1 || clockFrequency/hz-3 > 0xFF {
		return fmt.Errorf("i2c speed %d Hz: %w", hz, obc.ErrRange)
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	d.request[3] = statusSetSpeed
	d.request[4] = byte(clockFrequency/hz - 3)
	if err := d.send(ctx); err != nil {
		return fmt.Errorf("set speed request failed: %w", err)
	}
	if d.response[3] != statusSetSpeed {
		return fmt.Errorf("speed change rejected (transfer in progress): %w", ErrCommandFailed)
	}
	return nil
}

func bufferToStatus(buffer []byte) *Status {
	/*
		9: Lower byte (16-bit value) of the requested I2C transfer length
		10: Higher byte (16-bit value) of the requested I2C transfer length
		11:	Lower byte (16-bit value) of the already transferred (through I2C) number of bytes
		12:	Higher byte (16-bit value) of the already transferred (through I2C) number of bytes
		13:	Internal I2C data buffer counter
		14: Current I2C communication speed divider value
		15: Current I2C timeout value
		16:	Lower byte (16-bit value) of the I2C address being used
		17:	Higher byte (16-bit value) of the I2C address being used
	*/
	return &Status{
		I2CDataBufferCounter:   int(buffer[13]),
		I2CSpeedDivider:        int(buffer[14]),
		I2CTimeout:             int(buffer[15]),
		ReadPending:            int(buffer[25]),
		CurrentAddress:         hex.EncodeToString(buffer[16:18]),
		LastWriteRequestedSize: binary.LittleEndian.Uint16(buffer[9:11]),
		LastWriteSentSize:      binary.LittleEndian.Uint16(buffer[11:13]),
	}
}

// Release cancels the current transfer and frees the I2C engine.
func (d *MCP2221) Release(ctx context.Context) error {
	_, err := d.ReleaseBus(ctx)
	return err
}

func (d *MCP2221) ReleaseBus(ctx context.Context) (*Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	d.request[2] = statusCancel
	if err := d.send(ctx); err != nil {
		return nil, fmt.Errorf("bus release request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

// send writes the request report and reads the response report into d.response.
func (d *MCP2221) send(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dev, err := d.open()
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Close(); err != nil {
			slog.Debug("mcp2221: could not close device", "error", err)
		}
	}()
	verbose := obcctx.IsVerbose(ctx)
	if verbose {
		slog.Debug("mcp2221: sending report", "dump", "\n"+hex.Dump(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short write: %d", n)
	}
	timer := time.NewTimer(d.responseWait)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short read: %d", n)
	}
	if verbose {
		slog.Debug("mcp2221: received report", "dump", "\n"+hex.Dump(d.response))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	clear(d.request)
	clear(d.response)
}
