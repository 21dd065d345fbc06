package spi

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/qset/obc"
	"github.com/qset/obc/adc"
	"github.com/qset/obc/obcctx"
)

type mockConnection struct {
	mock.Mock
}

func (m *mockConnection) ReadCommandData(command []byte, data []byte) error {
	args := m.Called(command, data)
	if resp, ok := args.Get(0).([]byte); ok {
		copy(data, resp)
	}
	return args.Error(1)
}

func (m *mockConnection) WriteBytes(data []byte) error {
	return m.Called(data).Error(0)
}

func TestDevice_NotStarted(t *testing.T) {
	dev := &Device{}
	assert.Error(t, dev.Write(context.Background(), []byte{0x01}))
	assert.Error(t, dev.Read(context.Background(), make([]byte, 2)))
}

func TestDevice_WriteRead(t *testing.T) {
	conn := new(mockConnection)
	conn.On("WriteBytes", []byte{0x01, 0x80}).Return(nil).Once()
	conn.On("ReadCommandData", []byte(nil), mock.Anything).Return([]byte{0x03, 0xFF}, nil).Once()
	dev := &Device{conn: conn}
	ctx := obcctx.SetVerbose(context.Background(), true)

	require.NoError(t, dev.Write(ctx, []byte{0x01, 0x80}))
	buf := make([]byte, 2)
	require.NoError(t, dev.Read(ctx, buf))
	assert.Equal(t, []byte{0x03, 0xFF}, buf)
	conn.AssertExpectations(t)
}

func TestDevice_ADCOverDevice(t *testing.T) {
	busErr := errors.New("ioctl failed")
	conn := new(mockConnection)
	conn.On("WriteBytes", []byte{0x01, 0xB0}).Return(nil).Once()
	conn.On("ReadCommandData", mock.Anything, mock.Anything).Return(nil, busErr).Once()
	converter := adc.NewMCP3008(&Device{conn: conn}, [adc.ChannelCount]bool{3: true})

	_, err := converter.ReadChannel(context.Background(), 3)
	assert.ErrorIs(t, err, obc.ErrHardwareFault)
	assert.ErrorIs(t, err, busErr)
	conn.AssertExpectations(t)
}

func TestDevice_CanceledContext(t *testing.T) {
	conn := new(mockConnection)
	dev := &Device{conn: conn}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, dev.Write(ctx, []byte{0x01}), context.Canceled)
	conn.AssertNotCalled(t, "WriteBytes", mock.Anything)
}
