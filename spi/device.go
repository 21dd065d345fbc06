// Package spi exposes a gobot SPI connection as an obc.SPIDevice.
package spi

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"github.com/qset/obc"
	"github.com/qset/obc/obcctx"
	gspi "gobot.io/x/gobot/v2/drivers/spi"
)

var _ obc.SPIDevice = &Device{}

// connection is the subset of the gobot SPI connection used here.
type connection interface {
	ReadCommandData(command []byte, data []byte) error
	WriteBytes(data []byte) error
}

type Config struct {
	Bus   int
	Chip  int
	Mode  int
	Speed int64
}

// Device is one chip select line. Start must be called before any transfer.
type Device struct {
	mx     sync.Mutex
	driver *gspi.Driver
	conn   connection
}

func NewDevice(adaptor gspi.Connector, config Config) *Device {
	driver := gspi.NewDriver(adaptor, "spi",
		gspi.WithBusNumber(config.Bus),
		gspi.WithChipNumber(config.Chip),
		gspi.WithMode(config.Mode),
		gspi.WithSpeed(config.Speed),
	)
	return &Device{driver: driver}
}

func (d *Device) Start() error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.driver.Start(); err != nil {
		return fmt.Errorf("could not start spi driver: %w", err)
	}
	conn, ok := d.driver.Connection().(connection)
	if !ok {
		return fmt.Errorf("spi connection does not support required operations")
	}
	d.conn = conn
	return nil
}

func (d *Device) Halt() error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.conn = nil
	return d.driver.Halt()
}

func (d *Device) active(ctx context.Context) (connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.conn == nil {
		return nil, fmt.Errorf("spi device not started")
	}
	return d.conn, nil
}

func (d *Device) Write(ctx context.Context, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	conn, err := d.active(ctx)
	if err != nil {
		return err
	}
	if obcctx.IsVerbose(ctx) {
		slog.Debug("spi write", "data", hex.EncodeToString(buffer))
	}
	if err := conn.WriteBytes(buffer); err != nil {
		return fmt.Errorf("could not write %d bytes: %w", len(buffer), err)
	}
	return nil
}

// Read clocks out zeros while filling buffer.
func (d *Device) Read(ctx context.Context, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	conn, err := d.active(ctx)
	if err != nil {
		return err
	}
	if err := conn.ReadCommandData(nil, buffer); err != nil {
		return fmt.Errorf("could not read %d bytes: %w", len(buffer), err)
	}
	if obcctx.IsVerbose(ctx) {
		slog.Debug("spi read", "data", hex.EncodeToString(buffer))
	}
	return nil
}
