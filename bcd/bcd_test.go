package bcd

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qset/obc"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		given    int
		expected byte
	}{
		{0, 0x00},
		{9, 0x09},
		{10, 0x10},
		{30, 0x30},
		{45, 0x45},
		{59, 0x59},
		{99, 0x99},
	}
	for _, test := range tests {
		t.Run(fmt.Sprint(test.given), func(t *testing.T) {
			b, err := Encode(test.given)
			require.NoError(t, err)
			assert.Equal(t, test.expected, b)
		})
	}
}

func TestEncode_OutOfRange(t *testing.T) {
	for _, v := range []int{-1, 100, 255} {
		_, err := Encode(v)
		assert.ErrorIs(t, err, obc.ErrRange, "value %d", v)
	}
}

func TestDecode_Invalid(t *testing.T) {
	for _, b := range []byte{0x0A, 0xA0, 0x7F, 0xFF} {
		_, err := Decode(b)
		assert.ErrorIs(t, err, obc.ErrFormat, "byte %#02x", b)
	}
}

func TestRoundTrip(t *testing.T) {
	for v := 0; v <= 99; v++ {
		b, err := Encode(v)
		require.NoError(t, err)
		got, err := Decode(b)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
	for i := 0; i < 256; i++ {
		b := byte(i)
		if b>>4 > 9 || b&0x0F > 9 {
			continue
		}
		v, err := Decode(b)
		require.NoError(t, err)
		enc, err := Encode(v)
		require.NoError(t, err)
		assert.Equal(t, b, enc)
	}
}
