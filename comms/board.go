package comms

import (
	"context"
	"fmt"

	"github.com/qset/obc"
)

// Commands are the single byte opcodes understood by the comms firmware.
type Commands struct {
	LEDOn  byte
	LEDOff byte
}

type Link interface {
	Transmit(ctx context.Context, data []byte) error
	Receive(ctx context.Context, n int) ([]byte, error)
}

// Board is the comms board seen through its co-processor link.
type Board struct {
	link Link
	cmds Commands
}

func NewBoard(link Link, cmds Commands) *Board {
	return &Board{link: link, cmds: cmds}
}

func (b *Board) LEDOn(ctx context.Context) error {
	return b.link.Transmit(ctx, []byte{b.cmds.LEDOn})
}

func (b *Board) LEDOff(ctx context.Context) error {
	return b.link.Transmit(ctx, []byte{b.cmds.LEDOff})
}

// LEDState reads the one byte status reply; any non-zero value means lit.
func (b *Board) LEDState(ctx context.Context) (bool, error) {
	data, err := b.link.Receive(ctx, 1)
	if err != nil {
		return false, err
	}
	if len(data) != 1 {
		return false, fmt.Errorf("comms: led state reply of %d bytes: %w", len(data), obc.ErrFormat)
	}
	return data[0] != 0, nil
}
