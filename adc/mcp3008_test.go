package adc

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/qset/obc"
)

type MockSPIDevice struct {
	mock.Mock
}

func (m *MockSPIDevice) Write(ctx context.Context, buffer []byte) error {
	return m.Called(ctx, buffer).Error(0)
}

func (m *MockSPIDevice) Read(ctx context.Context, buffer []byte) error {
	args := m.Called(ctx, buffer)
	if data, ok := args.Get(0).([]byte); ok {
		copy(buffer, data)
	}
	return args.Error(1)
}

var allEnabled = [ChannelCount]bool{true, true, true, true, true, true, true, true}

func TestMCP3008_SelectChannelFrames(t *testing.T) {
	tests := []struct {
		ch    int
		frame []byte
	}{
		{0, []byte{0x01, 0x80}},
		{1, []byte{0x01, 0x90}},
		{2, []byte{0x01, 0xA0}},
		{3, []byte{0x01, 0xB0}},
		{4, []byte{0x01, 0xC0}},
		{5, []byte{0x01, 0xD0}},
		{6, []byte{0x01, 0xE0}},
		{7, []byte{0x01, 0xF0}},
	}
	for _, test := range tests {
		t.Run(hex.EncodeToString(test.frame), func(t *testing.T) {
			dev := new(MockSPIDevice)
			dev.On("Write", mock.Anything, test.frame).Return(nil).Once()
			adc := NewMCP3008(dev, allEnabled)
			require.NoError(t, adc.SelectChannel(context.Background(), test.ch))
			dev.AssertExpectations(t)
		})
	}
}

func TestMCP3008_Command(t *testing.T) {
	cmd, err := Command(5)
	require.NoError(t, err)
	assert.Equal(t, byte(0b1101), cmd)
	_, err = Command(8)
	assert.ErrorIs(t, err, obc.ErrRange)
}

func TestMCP3008_DisabledChannel(t *testing.T) {
	dev := new(MockSPIDevice)
	adc := NewMCP3008(dev, [ChannelCount]bool{true, true, true, false, true, true, true, true})

	err := adc.SelectChannel(context.Background(), 3)
	assert.ErrorIs(t, err, obc.ErrChannelDisabled)
	_, err = adc.ReadChannel(context.Background(), 3)
	assert.ErrorIs(t, err, obc.ErrChannelDisabled)
	dev.AssertNotCalled(t, "Write", mock.Anything, mock.Anything)
	dev.AssertNotCalled(t, "Read", mock.Anything, mock.Anything)
}

func TestMCP3008_OutOfRange(t *testing.T) {
	dev := new(MockSPIDevice)
	adc := NewMCP3008(dev, allEnabled)
	for _, ch := range []int{-1, 8, 100} {
		assert.ErrorIs(t, adc.SelectChannel(context.Background(), ch), obc.ErrRange)
	}
	dev.AssertNotCalled(t, "Write", mock.Anything, mock.Anything)
}

func TestMCP3008_ChannelsIsACopy(t *testing.T) {
	mask := [ChannelCount]bool{true}
	adc := NewMCP3008(new(MockSPIDevice), mask)
	mask[1] = true
	got := adc.Channels()
	got[2] = true
	assert.Equal(t, [ChannelCount]bool{true}, adc.Channels())
}

func TestMCP3008_ReadChannel(t *testing.T) {
	dev := new(MockSPIDevice)
	dev.On("Write", mock.Anything, []byte{0x01, 0xC0}).Return(nil).Once()
	dev.On("Read", mock.Anything, mock.Anything).Return([]byte{0xFE, 0xA5}, nil).Once()
	adc := NewMCP3008(dev, allEnabled)

	sample, err := adc.ReadChannel(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, Sample{0xFE, 0xA5}, sample)
	val, err := sample.Value()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x2A5), val)
	dev.AssertExpectations(t)
}

func TestMCP3008_SampleWidth(t *testing.T) {
	dev := new(MockSPIDevice)
	dev.On("Write", mock.Anything, mock.Anything).Return(nil)
	dev.On("Read", mock.Anything, mock.MatchedBy(func(b []byte) bool { return len(b) == 3 })).
		Return([]byte{0x00, 0x01, 0xFF}, nil).Once()
	adc := NewMCP3008(dev, allEnabled, WithSampleWidth(3))

	sample, err := adc.ReadChannel(context.Background(), 0)
	require.NoError(t, err)
	val, err := sample.Value()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1FF), val)

	_, err = Sample{0x01}.Value()
	assert.ErrorIs(t, err, obc.ErrFormat)
}

func TestMCP3008_TransportError(t *testing.T) {
	busErr := errors.New("spi: device busy")
	dev := new(MockSPIDevice)
	dev.On("Write", mock.Anything, mock.Anything).Return(busErr)
	adc := NewMCP3008(dev, allEnabled)

	_, err := adc.ReadChannel(context.Background(), 1)
	assert.ErrorIs(t, err, obc.ErrHardwareFault)
	assert.ErrorIs(t, err, busErr)
	dev.AssertNotCalled(t, "Read", mock.Anything, mock.Anything)
}
