// Package config loads the controller configuration file.
//
// Example:
//
//	i2c:
//	  adapter: periph
//	  bus: "1"
//	rtc:
//	  i2c_status: on
//	  battery_state: on
//	  clock_state: on
//	  datetime: "2024-03-15 13:45:30"
//	temperature_sensor:
//	  i2c_status: on
//	  critical_temperature: 80
//	  upper_temperature: 60
//	  lower_temperature: -20
//	mcp3008:
//	  chip_enable: 0
//	  channels: [1, 1, 1, 0, 1, 1, 1, 1]
//	comms:
//	  address: 0x15
//	  cmds:
//	    led_on: 0x01
//	    led_off: 0x02
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DateTimeLayout is the layout of rtc.datetime.
const DateTimeLayout = time.DateTime

const (
	AdapterPeriph  = "periph"
	AdapterMCP2221 = "mcp2221"
)

// Switch is a boolean that also accepts 0/1 and on/off.
type Switch bool

func (s *Switch) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: switch must be a scalar", node.Line)
	}
	switch strings.ToLower(node.Value) {
	case "1", "on", "true", "yes", "enabled":
		*s = true
	case "0", "off", "false", "no", "disabled":
		*s = false
	default:
		return fmt.Errorf("line %d: invalid switch value %q", node.Line, node.Value)
	}
	return nil
}

type I2C struct {
	// Adapter selects the transport: periph (native bus) or mcp2221 (USB bridge).
	Adapter string `yaml:"adapter"`
	Bus     string `yaml:"bus"`
	Speed   int    `yaml:"speed"`
}

type RTC struct {
	Enabled        Switch        `yaml:"i2c_status"`
	Address        uint8         `yaml:"address"`
	BatteryState   *Switch       `yaml:"battery_state"`
	ClockState     *Switch       `yaml:"clock_state"`
	DateTime       string        `yaml:"datetime"`
	SettleInterval time.Duration `yaml:"settle_interval"`
}

// ParseDateTime returns the configured date-time, or false when none is set.
func (r RTC) ParseDateTime() (time.Time, bool, error) {
	if r.DateTime == "" {
		return time.Time{}, false, nil
	}
	t, err := time.ParseInLocation(DateTimeLayout, r.DateTime, time.UTC)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("rtc datetime: %w", err)
	}
	return t, true, nil
}

type TemperatureSensor struct {
	Enabled  Switch   `yaml:"i2c_status"`
	Address  uint8    `yaml:"address"`
	Critical *float64 `yaml:"critical_temperature"`
	Upper    *float64 `yaml:"upper_temperature"`
	Lower    *float64 `yaml:"lower_temperature"`
}

type MCP3008 struct {
	Bus         int      `yaml:"spi_bus"`
	ChipEnable  int      `yaml:"chip_enable"`
	Mode        int      `yaml:"spi_mode"`
	Speed       int64    `yaml:"speed"`
	SampleWidth int      `yaml:"sample_width"`
	Channels    []Switch `yaml:"channels"`
}

// ChannelMask returns the channel enablement as a fixed size array. It
// assumes Validate succeeded.
func (m MCP3008) ChannelMask() [8]bool {
	var mask [8]bool
	for i := 0; i < len(mask) && i < len(m.Channels); i++ {
		mask[i] = bool(m.Channels[i])
	}
	return mask
}

type CommsCommands struct {
	LEDOn  uint8 `yaml:"led_on"`
	LEDOff uint8 `yaml:"led_off"`
}

type Comms struct {
	Enabled  Switch        `yaml:"i2c_status"`
	Address  uint8         `yaml:"address"`
	Commands CommsCommands `yaml:"cmds"`
}

type Config struct {
	I2C               I2C               `yaml:"i2c"`
	RTC               RTC               `yaml:"rtc"`
	TemperatureSensor TemperatureSensor `yaml:"temperature_sensor"`
	MCP3008           MCP3008           `yaml:"mcp3008"`
	Comms             Comms             `yaml:"comms"`
}

// Default returns the configuration used for keys missing from the file.
func Default() *Config {
	return &Config{
		I2C: I2C{
			Adapter: AdapterPeriph,
			Speed:   100_000,
		},
		RTC: RTC{
			Enabled:        true,
			Address:        0x6F,
			SettleInterval: 3 * time.Second,
		},
		TemperatureSensor: TemperatureSensor{
			Enabled: true,
			Address: 0x18,
		},
		MCP3008: MCP3008{
			Speed:       1_000_000,
			SampleWidth: 2,
			Channels:    []Switch{true, true, true, true, true, true, true, true},
		},
		Comms: Comms{
			Enabled: true,
			Address: 0x15,
			Commands: CommsCommands{
				LEDOn:  0x01,
				LEDOff: 0x02,
			},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes the configuration on top of the defaults and validates it.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.I2C.Adapter {
	case AdapterPeriph, AdapterMCP2221:
	default:
		return fmt.Errorf("i2c adapter %q is not supported", c.I2C.Adapter)
	}
	if len(c.MCP3008.Channels) != 8 {
		return fmt.Errorf("mcp3008 channels: expected 8 entries, got %d", len(c.MCP3008.Channels))
	}
	if c.MCP3008.SampleWidth < 2 {
		return fmt.Errorf("mcp3008 sample width %d is too short for a 10-bit sample", c.MCP3008.SampleWidth)
	}
	if _, _, err := c.RTC.ParseDateTime(); err != nil {
		return err
	}
	if c.RTC.SettleInterval <= 0 {
		return fmt.Errorf("rtc settle interval must be positive")
	}
	return nil
}
