package obc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestRegisterBus_ReadByteData(t *testing.T) {
	bus := new(MockI2CBus)
	regs := NewRegisterBus(bus)
	ctx := context.Background()

	bus.On("WriteToAddr", mock.Anything, byte(0x6F), []byte{0x03}).Return(nil).Once()
	bus.On("ReadFromAddr", mock.Anything, byte(0x6F), mock.Anything).Return([]byte{0x2A}, nil).Once()

	val, err := regs.ReadByteData(ctx, RegisterAddress{Device: 0x6F, Offset: 0x03})
	require.NoError(t, err)
	assert.Equal(t, byte(0x2A), val)
	bus.AssertExpectations(t)
}

func TestRegisterBus_WriteBlockData(t *testing.T) {
	bus := new(MockI2CBus)
	regs := NewRegisterBus(bus)

	bus.On("WriteToAddr", mock.Anything, byte(0x18), []byte{0x04, 0x05, 0x00}).Return(nil).Once()

	err := regs.WriteBlockData(context.Background(), RegisterAddress{Device: 0x18, Offset: 0x04}, []byte{0x05, 0x00})
	require.NoError(t, err)
	bus.AssertExpectations(t)
}

func TestRegisterBus_ErrorsPropagate(t *testing.T) {
	busErr := errors.New("nack")
	bus := new(MockI2CBus)
	regs := NewRegisterBus(bus)

	bus.On("WriteToAddr", mock.Anything, byte(0x18), []byte{0x05}).Return(busErr).Once()

	_, err := regs.ReadByteData(context.Background(), RegisterAddress{Device: 0x18, Offset: 0x05})
	assert.ErrorIs(t, err, busErr)
	bus.AssertNotCalled(t, "ReadFromAddr", mock.Anything, mock.Anything, mock.Anything)
}

func TestFault(t *testing.T) {
	busErr := errors.New("nack")
	err := Fault(busErr)
	assert.ErrorIs(t, err, ErrHardwareFault)
	assert.ErrorIs(t, err, busErr)
	assert.NoError(t, Fault(nil))
}
