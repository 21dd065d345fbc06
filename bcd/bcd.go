// Package bcd converts small integers to and from packed binary-coded decimal,
// the layout used by the MCP79410 time keeping registers.
package bcd

import (
	"fmt"

	"github.com/qset/obc"
)

// Encode packs v (0-99) into one byte: tens in the high nibble, ones in the low nibble.
func Encode(v int) (byte, error) {
	if v < 0 || v > 99 {
		return 0, fmt.Errorf("bcd: cannot encode %d: %w", v, obc.ErrRange)
	}
	return byte(v/10)<<4 | byte(v%10), nil
}

// Decode unpacks a BCD byte. Nibbles above 9 are rejected.
func Decode(b byte) (int, error) {
	tens, ones := b>>4, b&0x0F
	if tens > 9 || ones > 9 {
		return 0, fmt.Errorf("bcd: invalid byte %#02x: %w", b, obc.ErrFormat)
	}
	return int(tens)*10 + int(ones), nil
}
