package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
i2c:
  adapter: mcp2221
rtc:
  i2c_status: 1
  battery_state: on
  clock_state: 0
  datetime: "2024-03-15 13:45:30"
  settle_interval: 2s
temperature_sensor:
  i2c_status: true
  critical_temperature: 80
  upper_temperature: 60.5
  lower_temperature: -20
mcp3008:
  chip_enable: 1
  speed: 200000
  channels: [1, 1, 1, 0, 1, 1, 1, 1]
comms:
  address: 0x16
  cmds:
    led_on: 0x0A
    led_off: 0x0B
`

func TestParse(t *testing.T) {
	cfg, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, AdapterMCP2221, cfg.I2C.Adapter)
	assert.Equal(t, 100_000, cfg.I2C.Speed)

	assert.True(t, bool(cfg.RTC.Enabled))
	require.NotNil(t, cfg.RTC.BatteryState)
	assert.True(t, bool(*cfg.RTC.BatteryState))
	require.NotNil(t, cfg.RTC.ClockState)
	assert.False(t, bool(*cfg.RTC.ClockState))
	assert.Equal(t, uint8(0x6F), cfg.RTC.Address)
	assert.Equal(t, 2*time.Second, cfg.RTC.SettleInterval)
	when, ok, err := cfg.RTC.ParseDateTime()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, time.March, 15, 13, 45, 30, 0, time.UTC), when)

	require.NotNil(t, cfg.TemperatureSensor.Upper)
	assert.Equal(t, 60.5, *cfg.TemperatureSensor.Upper)
	assert.Equal(t, -20.0, *cfg.TemperatureSensor.Lower)
	assert.Equal(t, uint8(0x18), cfg.TemperatureSensor.Address)

	assert.Equal(t, [8]bool{true, true, true, false, true, true, true, true}, cfg.MCP3008.ChannelMask())
	assert.Equal(t, 1, cfg.MCP3008.ChipEnable)
	assert.Equal(t, int64(200000), cfg.MCP3008.Speed)
	assert.Equal(t, 2, cfg.MCP3008.SampleWidth)

	assert.Equal(t, uint8(0x16), cfg.Comms.Address)
	assert.Equal(t, CommsCommands{LEDOn: 0x0A, LEDOff: 0x0B}, cfg.Comms.Commands)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	_, ok, err := cfg.RTC.ParseDateTime()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, cfg.RTC.BatteryState)
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"short channel mask": "mcp3008:\n  channels: [1, 1, 1]\n",
		"bad switch":         "rtc:\n  battery_state: maybe\n",
		"bad datetime":       "rtc:\n  datetime: 2024-13-01 00:00:00\n",
		"unknown key":        "rtc:\n  colour: blue\n",
		"bad adapter":        "i2c:\n  adapter: ftdi\n",
		"address overflow":   "comms:\n  address: 0x1FF\n",
		"narrow sample":      "mcp3008:\n  sample_width: 1\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestSwitch(t *testing.T) {
	for _, val := range []string{"1", "on", "ON", "true", "yes"} {
		cfg, err := Parse(strings.NewReader("rtc:\n  clock_state: " + val + "\n"))
		require.NoError(t, err, val)
		assert.True(t, bool(*cfg.RTC.ClockState), val)
	}
	for _, val := range []string{"0", "off", "false", "no"} {
		cfg, err := Parse(strings.NewReader("rtc:\n  clock_state: " + val + "\n"))
		require.NoError(t, err, val)
		assert.False(t, bool(*cfg.RTC.ClockState), val)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "controller_config.yml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x16), cfg.Comms.Address)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestLoad_Example(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "controller_config.yml"))
	require.NoError(t, err)
	assert.Equal(t, AdapterPeriph, cfg.I2C.Adapter)
	assert.Equal(t, [8]bool{true, true, true, false, true, true, true, true}, cfg.MCP3008.ChannelMask())
	_, ok, err := cfg.RTC.ParseDateTime()
	require.NoError(t, err)
	assert.False(t, ok)
}
