package i2c

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/qset/obc"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

var (
	_ obc.I2CBus      = &GenericBus{}
	_ obc.RegisterBus = &GenericBus{}
)

// GenericBus adapts a periph.io bus. Register reads use a single combined
// transaction (repeated start) instead of two separate transfers.
type GenericBus struct {
	mx  sync.Mutex
	bus i2c.Bus
}

func NewGenericBus(bus i2c.Bus) *GenericBus {
	return &GenericBus{bus: bus}
}

// Open initializes the host drivers and opens the named bus ("" picks the
// first one available).
func Open(dev string) (*GenericBus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("periph driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus %q: %w", dev, err)
	}
	return NewGenericBus(bus), nil
}

func (b *GenericBus) tx(ctx context.Context, address byte, w, r []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.bus.Tx(uint16(address), w, r)
}

func (b *GenericBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	if err := b.tx(ctx, address, nil, buffer); err != nil {
		return fmt.Errorf("could not read from i2c address %#02x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if err := b.tx(ctx, address, buffer, nil); err != nil {
		return fmt.Errorf("could not write to i2c address %#02x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) Release(ctx context.Context) error {
	return nil
}

func (b *GenericBus) ReadByteData(ctx context.Context, reg obc.RegisterAddress) (byte, error) {
	buf := make([]byte, 1)
	if err := b.ReadBlockData(ctx, reg, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (b *GenericBus) WriteByteData(ctx context.Context, reg obc.RegisterAddress, value byte) error {
	return b.WriteBlockData(ctx, reg, []byte{value})
}

func (b *GenericBus) ReadBlockData(ctx context.Context, reg obc.RegisterAddress, buffer []byte) error {
	if err := b.tx(ctx, reg.Device, []byte{reg.Offset}, buffer); err != nil {
		return fmt.Errorf("could not read register %s: %w", reg, err)
	}
	return nil
}

func (b *GenericBus) WriteBlockData(ctx context.Context, reg obc.RegisterAddress, data []byte) error {
	w := make([]byte, 0, len(data)+1)
	w = append(w, reg.Offset)
	w = append(w, data...)
	if err := b.tx(ctx, reg.Device, w, nil); err != nil {
		return fmt.Errorf("could not write register %s: %w", reg, err)
	}
	return nil
}

// Close closes the underlying bus when it supports closing.
func (b *GenericBus) Close() error {
	if c, ok := b.bus.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
