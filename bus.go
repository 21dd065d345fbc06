// Package obc holds the bus abstractions and errors shared by the on-board
// controller peripheral drivers.
package obc

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

type BusReader interface {
	Read(ctx context.Context, buffer []byte) error
}

type BusWriter interface {
	Write(ctx context.Context, buffer []byte) error
}

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is a raw I2C transport: plain writes and reads addressed to a device.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// SPIDevice is a single chip-select line on an SPI bus.
type SPIDevice interface {
	BusReader
	BusWriter
}

// RegisterAddress identifies one byte-wide register of a device.
type RegisterAddress struct {
	Device byte
	Offset byte
}

func (a RegisterAddress) String() string {
	return fmt.Sprintf("%#02x/%#02x", a.Device, a.Offset)
}

// RegisterBus reads and writes device registers. Block operations start at
// the given register and let the device auto-increment the pointer.
type RegisterBus interface {
	ReadByteData(ctx context.Context, reg RegisterAddress) (byte, error)
	WriteByteData(ctx context.Context, reg RegisterAddress, value byte) error
	ReadBlockData(ctx context.Context, reg RegisterAddress, buffer []byte) error
	WriteBlockData(ctx context.Context, reg RegisterAddress, data []byte) error
}
