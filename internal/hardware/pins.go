// Package hardware provides GPIO relay control with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package hardware

import "errors"

// Level is the logical level of a digital output pin.
type Level int

const (
	// Low de-energizes the relay coil.
	Low Level = 0
	// High energizes the relay coil.
	High Level = 1
)

// MaxPins is the number of addressable GPIO pins.
const MaxPins = 32

var (
	// ErrNotConnected is returned when the GPIO backend is unavailable.
	ErrNotConnected = errors.New("gpio backend not connected")
	// ErrPinRange is returned for a pin outside [0, MaxPins).
	ErrPinRange = errors.New("gpio pin out of range")
)

// Pins is the capability interface over a GPIO backend.
type Pins interface {
	// Write sets the level of a pin. Fails if the pin is out of range.
	Write(pin int, level Level) error

	// Read returns the level of a pin. Fails if the pin is out of range.
	Read(pin int) (Level, error)

	// Connected reports whether the backend is usable.
	Connected() bool

	// Close releases GPIO resources.
	Close() error
}

func checkPin(pin int) error {
	if pin < 0 || pin >= MaxPins {
		return ErrPinRange
	}

	return nil
}
