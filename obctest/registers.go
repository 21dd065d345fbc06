// Package obctest provides an in-memory register map implementing
// obc.RegisterBus, for testing drivers without hardware.
package obctest

import (
	"context"
	"sync"

	"github.com/qset/obc"
)

var _ obc.RegisterBus = &Registers{}

// Write records one register write as seen on the bus.
type Write struct {
	Reg  obc.RegisterAddress
	Data []byte
}

// File holds register contents keyed by address. A register may be wider
// than one byte (e.g. the 16-bit MCP9808 registers).
type File map[obc.RegisterAddress][]byte

// Registers simulates the register files of any number of devices.
type Registers struct {
	mx   sync.Mutex
	file File

	// Errors makes any transfer addressed to the given register fail.
	Errors map[obc.RegisterAddress]error
	// OnRead is called with the register file, under the bus lock, before every read.
	OnRead func(reg obc.RegisterAddress, file File)
	// Writes lists every write in order.
	Writes []Write
	// Reads counts read transfers.
	Reads int
}

func NewRegisters() *Registers {
	return &Registers{
		file:   File{},
		Errors: map[obc.RegisterAddress]error{},
	}
}

// Set seeds a register without recording a write.
func (r *Registers) Set(reg obc.RegisterAddress, values ...byte) {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.file[reg] = append([]byte(nil), values...)
}

// Get returns the first byte of a register.
func (r *Registers) Get(reg obc.RegisterAddress) byte {
	return r.Bytes(reg, 1)[0]
}

// Bytes returns the first n bytes of a register, zero padded.
func (r *Registers) Bytes(reg obc.RegisterAddress, n int) []byte {
	r.mx.Lock()
	defer r.mx.Unlock()
	res := make([]byte, n)
	copy(res, r.file[reg])
	return res
}

// Update applies fn to the register file under the bus lock.
func (r *Registers) Update(fn func(file File)) {
	r.mx.Lock()
	defer r.mx.Unlock()
	fn(r.file)
}

func (r *Registers) ReadByteData(ctx context.Context, reg obc.RegisterAddress) (byte, error) {
	buf := make([]byte, 1)
	if err := r.ReadBlockData(ctx, reg, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (r *Registers) WriteByteData(ctx context.Context, reg obc.RegisterAddress, value byte) error {
	return r.WriteBlockData(ctx, reg, []byte{value})
}

func (r *Registers) ReadBlockData(ctx context.Context, reg obc.RegisterAddress, buffer []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mx.Lock()
	defer r.mx.Unlock()
	if err, ok := r.Errors[reg]; ok {
		return err
	}
	if r.OnRead != nil {
		r.OnRead(reg, r.file)
	}
	r.Reads++
	for i := range buffer {
		buffer[i] = 0
	}
	copy(buffer, r.file[reg])
	return nil
}

func (r *Registers) WriteBlockData(ctx context.Context, reg obc.RegisterAddress, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mx.Lock()
	defer r.mx.Unlock()
	if err, ok := r.Errors[reg]; ok {
		return err
	}
	stored := append([]byte(nil), data...)
	r.file[reg] = stored
	r.Writes = append(r.Writes, Write{Reg: reg, Data: append([]byte(nil), data...)})
	return nil
}

// WritesTo returns the writes addressed to one register.
func (r *Registers) WritesTo(reg obc.RegisterAddress) []Write {
	r.mx.Lock()
	defer r.mx.Unlock()
	var res []Write
	for _, w := range r.Writes {
		if w.Reg == reg {
			res = append(res, w)
		}
	}
	return res
}
