package obc

import "fmt"

var (
	// ErrRange is returned for values outside of the domain a register can hold.
	ErrRange = fmt.Errorf("value out of range")
	// ErrFormat is returned when register contents are malformed (e.g. non-BCD nibbles).
	ErrFormat = fmt.Errorf("malformed register contents")
	// ErrHardwareFault covers transport failures and failed state verification.
	ErrHardwareFault = fmt.Errorf("hardware fault")
	// ErrChannelDisabled is returned when selecting an ADC channel that is not enabled.
	ErrChannelDisabled = fmt.Errorf("channel disabled")
)

// Fault wraps a transport error so that it matches both ErrHardwareFault and err.
func Fault(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrHardwareFault, err)
}
