package obc

import (
	"context"
	"fmt"
	"sync"
)

var _ RegisterBus = &registerBus{}

// registerBus emulates register access on transports that only know plain
// addressed writes and reads: the register pointer is written first and the
// data is read back in a second transfer.
type registerBus struct {
	mx  sync.Mutex
	bus I2CBus
}

// NewRegisterBus wraps a raw I2C transport with register semantics.
func NewRegisterBus(bus I2CBus) RegisterBus {
	return &registerBus{bus: bus}
}

func (r *registerBus) ReadByteData(ctx context.Context, reg RegisterAddress) (byte, error) {
	buf := make([]byte, 1)
	if err := r.ReadBlockData(ctx, reg, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (r *registerBus) WriteByteData(ctx context.Context, reg RegisterAddress, value byte) error {
	return r.WriteBlockData(ctx, reg, []byte{value})
}

func (r *registerBus) ReadBlockData(ctx context.Context, reg RegisterAddress, buffer []byte) error {
	r.mx.Lock()
	defer r.mx.Unlock()
	err := r.bus.WriteToAddr(ctx, reg.Device, []byte{reg.Offset})
	if err != nil {
		return fmt.Errorf("could not set register pointer %s: %w", reg, err)
	}
	err = r.bus.ReadFromAddr(ctx, reg.Device, buffer)
	if err != nil {
		return fmt.Errorf("could not read register %s: %w", reg, err)
	}
	return nil
}

func (r *registerBus) WriteBlockData(ctx context.Context, reg RegisterAddress, data []byte) error {
	r.mx.Lock()
	defer r.mx.Unlock()
	buf := make([]byte, 0, len(data)+1)
	buf = append(buf, reg.Offset)
	buf = append(buf, data...)
	err := r.bus.WriteToAddr(ctx, reg.Device, buf)
	if err != nil {
		return fmt.Errorf("could not write register %s: %w", reg, err)
	}
	return nil
}
