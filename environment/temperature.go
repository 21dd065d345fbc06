package environment

import (
	"fmt"
	"math"

	"periph.io/x/conn/v3/physic"

	"github.com/qset/obc"
)

// Temperature is expressed in 1/16 °C steps, the native resolution of the
// MCP9808 temperature registers.
type Temperature int32

const (
	Sixteenth Temperature = 1
	Degree    Temperature = 16

	// MinTemperature and MaxTemperature bound what a 13-bit register can hold.
	MinTemperature = -256 * Degree
	MaxTemperature = 256*Degree - Sixteenth

	step = 62_500 * physic.MicroKelvin
)

// FromCelsius rounds c to the nearest 1/16 °C.
func FromCelsius(c float64) (Temperature, error) {
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 0, fmt.Errorf("temperature %v: %w", c, obc.ErrRange)
	}
	v := math.Round(c * float64(Degree))
	if v < float64(MinTemperature) || v > float64(MaxTemperature) {
		return 0, fmt.Errorf("temperature %v°C: %w", c, obc.ErrRange)
	}
	return Temperature(v), nil
}

// FromPhysic converts a periph temperature, rounding to the nearest 1/16 °C.
func FromPhysic(p physic.Temperature) (Temperature, error) {
	v := math.Round(float64(p-physic.ZeroCelsius) / float64(step))
	if v < float64(MinTemperature) || v > float64(MaxTemperature) {
		return 0, fmt.Errorf("temperature %s: %w", p, obc.ErrRange)
	}
	return Temperature(v), nil
}

func (t Temperature) Celsius() float64 {
	return float64(t) / float64(Degree)
}

func (t Temperature) Physic() physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(t)*step
}

func (t Temperature) String() string {
	return fmt.Sprintf("%.4f°C", t.Celsius())
}

// DecodeTemperature converts a register pair into a temperature. The top
// three bits of high carry alarm flags and are ignored; bit 4 is the sign.
func DecodeTemperature(high, low byte) Temperature {
	masked := high & 0x1F
	raw := int32(masked&0x0F)<<8 | int32(low)
	if masked&0x10 != 0 {
		raw -= 256 * int32(Degree)
	}
	return Temperature(raw)
}

// EncodeTemperature is the inverse of DecodeTemperature. Negative values are
// stored in 13-bit two's complement with the sign in bit 4 of high.
func EncodeTemperature(t Temperature) (high, low byte, err error) {
	if t < MinTemperature || t > MaxTemperature {
		return 0, 0, fmt.Errorf("cannot encode %s: %w", t, obc.ErrRange)
	}
	raw := uint16(int32(t)) & 0x1FFF
	return byte(raw >> 8), byte(raw), nil
}
