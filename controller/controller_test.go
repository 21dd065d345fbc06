package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/qset/obc"
	"github.com/qset/obc/config"
	"github.com/qset/obc/environment"
	"github.com/qset/obc/obctest"
	"github.com/qset/obc/rtc"
)

type MockClock struct {
	mock.Mock
}

func (m *MockClock) GetDateTime(ctx context.Context) (rtc.DateTime, error) {
	args := m.Called(ctx)
	return args.Get(0).(rtc.DateTime), args.Error(1)
}

func (m *MockClock) SetDateTime(ctx context.Context, dt rtc.DateTime) error {
	return m.Called(ctx, dt).Error(0)
}

func TestController_Telemetry(t *testing.T) {
	dt := rtc.DateTime{Year: 2024, Month: 3, Day: 15, Hour: 13, Minute: 45, Second: 30}
	clock := new(MockClock)
	clock.On("GetDateTime", mock.Anything).Return(dt, nil).Once()
	thermo := environment.NewMockThermometer(func(ctx context.Context) (environment.Temperature, error) {
		return 25*environment.Degree + 4*environment.Sixteenth, nil
	})
	c := New(Devices{Clock: clock, Thermometer: thermo})

	tel, err := c.Telemetry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Telemetry{Time: dt, Ambient: 404}, tel)
	assert.Equal(t, "Time: 2024-03-15 13:45:30\nOBC Ambient Temperature: 25.25 °C", tel.String())
	clock.AssertExpectations(t)
}

func TestController_TelemetryFailure(t *testing.T) {
	clock := new(MockClock)
	clock.On("GetDateTime", mock.Anything).Return(rtc.DateTime{}, obc.ErrHardwareFault)
	thermo := environment.NewMockThermometer(func(ctx context.Context) (environment.Temperature, error) {
		return 0, errors.New("unreachable")
	})
	c := New(Devices{Clock: clock, Thermometer: thermo})

	_, err := c.Telemetry(context.Background())
	assert.ErrorIs(t, err, obc.ErrHardwareFault)

	clock = new(MockClock)
	clock.On("GetDateTime", mock.Anything).Return(rtc.Epoch, nil)
	sensorErr := errors.New("sensor unplugged")
	thermo = environment.NewMockThermometer(func(ctx context.Context) (environment.Temperature, error) {
		return 0, sensorErr
	})
	_, err = New(Devices{Clock: clock, Thermometer: thermo}).Telemetry(context.Background())
	assert.ErrorIs(t, err, sensorErr)
}

func TestController_DisabledDevices(t *testing.T) {
	c := New(Devices{})
	_, err := c.Telemetry(context.Background())
	assert.ErrorIs(t, err, ErrDeviceDisabled)
	assert.ErrorIs(t, c.ApplyDateTime(context.Background(), time.Now()), ErrDeviceDisabled)
}

func TestController_ApplyDateTime(t *testing.T) {
	clock := new(MockClock)
	clock.On("SetDateTime", mock.Anything, rtc.DateTime{Year: 2024, Month: 3, Day: 15, Hour: 12, Minute: 45, Second: 30}).
		Return(nil).Once()
	c := New(Devices{Clock: clock})

	when := time.Date(2024, time.March, 15, 13, 45, 30, 0, time.FixedZone("CET", 3600))
	require.NoError(t, c.ApplyDateTime(context.Background(), when))
	clock.AssertExpectations(t)
}

func TestRTCOptions(t *testing.T) {
	on, off := config.Switch(true), config.Switch(false)
	cfg := config.Default().RTC
	cfg.SettleInterval = time.Millisecond
	cfg.BatteryState = &on
	cfg.ClockState = &off

	bus := obctest.NewRegisters()
	_, err := rtc.NewMCP79410(context.Background(), bus, RTCOptions(cfg)...)
	require.NoError(t, err)
	weekday := obc.RegisterAddress{Device: 0x6F, Offset: 0x03}
	assert.Equal(t, byte(0x08), bus.Get(weekday))
	assert.Len(t, bus.WritesTo(obc.RegisterAddress{Device: 0x6F, Offset: 0x00}), 1)
}

func TestThermometerOptions(t *testing.T) {
	crit, lower := 80.0, -20.0
	cfg := config.Default().TemperatureSensor
	cfg.Critical = &crit
	cfg.Lower = &lower

	opts, err := ThermometerOptions(cfg)
	require.NoError(t, err)
	bus := obctest.NewRegisters()
	_, err = environment.NewMCP9808(context.Background(), bus, opts...)
	require.NoError(t, err)
	require.Len(t, bus.Writes, 2)
	assert.Equal(t, []byte{0x05, 0x00}, bus.Writes[0].Data)
	assert.Equal(t, []byte{0x1E, 0xC0}, bus.Writes[1].Data)

	hot := 1000.0
	cfg.Upper = &hot
	_, err = ThermometerOptions(cfg)
	assert.ErrorIs(t, err, obc.ErrRange)
}
