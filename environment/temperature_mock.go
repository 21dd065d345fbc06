package environment

import (
	"context"
)

// TemperatureBehaviorFunc produces a temperature reading or an error.
type TemperatureBehaviorFunc func(ctx context.Context) (Temperature, error)

// MockThermometer stands in for an MCP9808 on benches without hardware.
// Thresholds are stored in memory; the ambient value comes from the behavior function.
//
// Example usage:
//
//	sensor := NewMockThermometer(func(ctx context.Context) (Temperature, error) { return 25 * Degree, nil })
type MockThermometer struct {
	behavior TemperatureBehaviorFunc
	critical Temperature
	upper    Temperature
	lower    Temperature
}

func NewMockThermometer(behavior TemperatureBehaviorFunc) *MockThermometer {
	return &MockThermometer{behavior: behavior}
}

// GetAmbient returns the temperature by calling the behavior function.
func (m *MockThermometer) GetAmbient(ctx context.Context) (Temperature, error) {
	return m.behavior(ctx)
}

func (m *MockThermometer) GetCritical(ctx context.Context) (Temperature, error) {
	return m.critical, nil
}

func (m *MockThermometer) SetCritical(ctx context.Context, t Temperature) error {
	if _, _, err := EncodeTemperature(t); err != nil {
		return err
	}
	m.critical = t
	return nil
}

func (m *MockThermometer) GetUpper(ctx context.Context) (Temperature, error) {
	return m.upper, nil
}

func (m *MockThermometer) SetUpper(ctx context.Context, t Temperature) error {
	if _, _, err := EncodeTemperature(t); err != nil {
		return err
	}
	m.upper = t
	return nil
}

func (m *MockThermometer) GetLower(ctx context.Context) (Temperature, error) {
	return m.lower, nil
}

func (m *MockThermometer) SetLower(ctx context.Context, t Temperature) error {
	if _, _, err := EncodeTemperature(t); err != nil {
		return err
	}
	m.lower = t
	return nil
}
