package types

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks a rejected request: bad wave parameters,
	// an unknown channel, or a stroke the actuator cannot deliver.
	ErrConfiguration = errors.New("configuration error")

	// ErrDevice marks a failure reported by the analog output device.
	ErrDevice = errors.New("device error")

	// ErrNotRunning is returned when stopping a scheduler that was never started.
	ErrNotRunning = errors.New("scheduler not running")
)

// DeviceError records the device operation that failed.
type DeviceError struct {
	Op      string
	Channel string
	Err     error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device error: %s %s: %v", e.Op, e.Channel, e.Err)
}

func (e *DeviceError) Unwrap() []error {
	return []error{ErrDevice, e.Err}
}
