// Package serialio provides buffered serial access with hardware
// abstraction. The real implementation wraps a serial device; the fake
// implementation replays injected frames for testing.
package serialio

import "errors"

// ErrClosed is returned when the port has been closed.
var ErrClosed = errors.New("serial port closed")

// Port is the capability interface over a serial backend.
// Callers poll BytesWaiting and then read exactly that many bytes.
type Port interface {
	// BytesWaiting returns the number of buffered bytes available.
	BytesWaiting() (int, error)

	// Read consumes up to n buffered bytes.
	Read(n int) ([]byte, error)

	// Close releases the port.
	Close() error
}
