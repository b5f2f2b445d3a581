// Package telemetry validates and publishes the daemon's outbound
// messages. Each message kind has a fixed schema checked before
// transmission; invalid messages are suppressed, never sent.
package telemetry

import (
	"errors"
	"fmt"
)

// Message kinds, used as the "id" field on the wire.
const (
	KindError             = "error"
	KindSetInterruptState = "set_interrupt_state"
	KindInterruptStatus   = "interrupt_status"
	KindSetFan            = "set_fan"
	KindNewTemperature    = "new_temperature"
	KindHeartbeat         = "heartbeat"
)

// Error codes carried by error messages.
const (
	// CodeRelayFailure reports a relay actuation failure.
	CodeRelayFailure = 1
	// CodeLoopFailure reports an unexpected loop iteration failure.
	CodeLoopFailure = 2
)

// ErrInvalidMessage is returned when a message fails schema validation.
var ErrInvalidMessage = errors.New("telemetry message failed validation")

// Message is one outbound telemetry message.
type Message interface {
	// Kind returns the message kind tag.
	Kind() string

	// Validate checks the message against its fixed schema.
	Validate() error
}

// Error reports a hardware or loop failure to the subscriber.
type Error struct {
	ID      string `json:"id"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewError creates a validated-shape error message.
func NewError(code int, message string) Error {
	return Error{ID: KindError, Code: code, Message: message}
}

// Kind returns the message kind tag.
func (e Error) Kind() string { return KindError }

// Validate checks the error schema.
func (e Error) Validate() error {
	if e.ID != KindError {
		return fmt.Errorf("%w: id %q", ErrInvalidMessage, e.ID)
	}

	if e.Message == "" {
		return fmt.Errorf("%w: empty error message", ErrInvalidMessage)
	}

	return nil
}

// SetInterruptState announces a commanded interlock transition.
type SetInterruptState struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// NewSetInterruptState creates a set_interrupt_state message.
// Valid values are "open", "close" and "reset".
func NewSetInterruptState(value string) SetInterruptState {
	return SetInterruptState{ID: KindSetInterruptState, Value: value}
}

// Kind returns the message kind tag.
func (m SetInterruptState) Kind() string { return KindSetInterruptState }

// Validate checks the set_interrupt_state schema.
func (m SetInterruptState) Validate() error {
	if m.ID != KindSetInterruptState {
		return fmt.Errorf("%w: id %q", ErrInvalidMessage, m.ID)
	}

	switch m.Value {
	case "open", "close", "reset":
		return nil
	default:
		return fmt.Errorf("%w: set_interrupt_state value %q", ErrInvalidMessage, m.Value)
	}
}

// InterruptStatus reports the observed interlock relay state.
type InterruptStatus struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// NewInterruptStatus creates an interrupt_status message.
// Valid values are "open" and "closed".
func NewInterruptStatus(value string) InterruptStatus {
	return InterruptStatus{ID: KindInterruptStatus, Value: value}
}

// Kind returns the message kind tag.
func (m InterruptStatus) Kind() string { return KindInterruptStatus }

// Validate checks the interrupt_status schema.
func (m InterruptStatus) Validate() error {
	if m.ID != KindInterruptStatus {
		return fmt.Errorf("%w: id %q", ErrInvalidMessage, m.ID)
	}

	switch m.Value {
	case "open", "closed":
		return nil
	default:
		return fmt.Errorf("%w: interrupt_status value %q", ErrInvalidMessage, m.Value)
	}
}

// SetFan announces a commanded fan transition.
type SetFan struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// NewSetFan creates a set_fan message. Valid values are "on" and "off".
func NewSetFan(value string) SetFan {
	return SetFan{ID: KindSetFan, Value: value}
}

// Kind returns the message kind tag.
func (m SetFan) Kind() string { return KindSetFan }

// Validate checks the set_fan schema.
func (m SetFan) Validate() error {
	if m.ID != KindSetFan {
		return fmt.Errorf("%w: id %q", ErrInvalidMessage, m.ID)
	}

	switch m.Value {
	case "on", "off":
		return nil
	default:
		return fmt.Errorf("%w: set_fan value %q", ErrInvalidMessage, m.Value)
	}
}

// NewTemperature carries one smoothed temperature reading.
type NewTemperature struct {
	ID    string  `json:"id"`
	Value float64 `json:"value"`
}

// NewNewTemperature creates a new_temperature message.
func NewNewTemperature(value float64) NewTemperature {
	return NewTemperature{ID: KindNewTemperature, Value: value}
}

// Kind returns the message kind tag.
func (m NewTemperature) Kind() string { return KindNewTemperature }

// Validate checks the new_temperature schema.
func (m NewTemperature) Validate() error {
	if m.ID != KindNewTemperature {
		return fmt.Errorf("%w: id %q", ErrInvalidMessage, m.ID)
	}

	return nil
}

// Heartbeat signals liveness to the subscriber.
type Heartbeat struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// NewHeartbeat creates a heartbeat message.
func NewHeartbeat() Heartbeat {
	return Heartbeat{ID: KindHeartbeat, Value: "alive"}
}

// Kind returns the message kind tag.
func (m Heartbeat) Kind() string { return KindHeartbeat }

// Validate checks the heartbeat schema.
func (m Heartbeat) Validate() error {
	if m.ID != KindHeartbeat {
		return fmt.Errorf("%w: id %q", ErrInvalidMessage, m.ID)
	}

	if m.Value != "alive" {
		return fmt.Errorf("%w: heartbeat value %q", ErrInvalidMessage, m.Value)
	}

	return nil
}
