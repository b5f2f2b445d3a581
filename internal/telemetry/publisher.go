package telemetry

import "errors"

// Publisher delivers validated messages to at most one subscriber.
type Publisher interface {
	// Publish validates and sends a message. A message with no
	// subscriber connected is dropped without error; an invalid
	// message is suppressed and reported as ErrInvalidMessage.
	Publish(msg Message) error

	// Connected reports whether a subscriber is currently attached.
	Connected() bool

	// Close releases the transport.
	Close() error
}

// Multi fans one message out to several publishers (e.g. the TCP
// subscriber plus an MQTT mirror). Publish errors are joined; a failing
// transport never blocks the others.
type Multi []Publisher

// Publish sends the message through every transport.
func (m Multi) Publish(msg Message) error {
	var errs []error

	for _, p := range m {
		if err := p.Publish(msg); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Connected reports whether any transport has a subscriber.
func (m Multi) Connected() bool {
	for _, p := range m {
		if p.Connected() {
			return true
		}
	}

	return false
}

// Close closes every transport.
func (m Multi) Close() error {
	var errs []error

	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
