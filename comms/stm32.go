// Package comms talks to the STM32 communications co-processor over its
// point-to-point I2C link.
package comms

import (
	"context"
	"fmt"
	"sync"

	"github.com/qset/obc"
)

const DefaultAddress = 0x15

// STM32 is a raw byte link: the co-processor has no register map, frames
// are written and read as is.
type STM32 struct {
	mx        sync.Mutex
	transport obc.I2CBus
	address   byte
}

func NewSTM32(bus obc.I2CBus, address byte) *STM32 {
	if address == 0 {
		address = DefaultAddress
	}
	return &STM32{transport: bus, address: address}
}

func (s *STM32) Address() byte {
	return s.address
}

func (s *STM32) Transmit(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("stm32: empty frame: %w", obc.ErrRange)
	}
	s.mx.Lock()
	defer s.mx.Unlock()
	if err := s.transport.WriteToAddr(ctx, s.address, data); err != nil {
		return fmt.Errorf("stm32: could not transmit %d bytes: %w", len(data), obc.Fault(err))
	}
	return nil
}

// Receive reads exactly n bytes from the co-processor.
func (s *STM32) Receive(ctx context.Context, n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("stm32: receive length %d: %w", n, obc.ErrRange)
	}
	s.mx.Lock()
	defer s.mx.Unlock()
	buf := make([]byte, n)
	if err := s.transport.ReadFromAddr(ctx, s.address, buf); err != nil {
		return nil, fmt.Errorf("stm32: could not receive %d bytes: %w", n, obc.Fault(err))
	}
	return buf, nil
}
