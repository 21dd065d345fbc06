//go:build integration

package i2c

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qset/obc/environment"
	"github.com/qset/obc/rtc"
)

// Runs against the peripherals on the bus named by OBC_I2C_BUS ("" selects
// the first bus).
func TestIntegration_Peripherals(t *testing.T) {
	bus, err := Open(os.Getenv("OBC_I2C_BUS"))
	require.NoError(t, err)
	defer func() { _ = bus.Close() }()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sensor, err := environment.NewMCP9808(ctx, bus)
	require.NoError(t, err)
	require.NoError(t, sensor.Check(ctx))
	temp, err := sensor.GetAmbient(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 25, temp.Celsius(), 40)

	clock, err := rtc.NewMCP79410(ctx, bus, rtc.WithClockState(rtc.ClockRunning))
	require.NoError(t, err)
	first, err := clock.Now(ctx)
	require.NoError(t, err)
	time.Sleep(2 * time.Second)
	second, err := clock.Now(ctx)
	require.NoError(t, err)
	assert.True(t, second.After(first))
}
