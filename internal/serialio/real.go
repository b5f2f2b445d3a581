package serialio

import (
	"fmt"
	"sync"

	"go.bug.st/serial"
)

// RealPort reads from an actual serial device. The serial library does
// not expose the driver's input-buffer count, so a background goroutine
// drains the device into an internal buffer; BytesWaiting reports the
// buffered length, preserving the poll-then-read-exactly contract.
type RealPort struct {
	port serial.Port

	mu      sync.Mutex
	buf     []byte
	readErr error
	closed  bool
}

// Open opens the serial device at the given path and baud rate.
func Open(path string, baudRate int) (*RealPort, error) {
	mode := &serial.Mode{BaudRate: baudRate}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}

	p := &RealPort{port: port}
	go p.fill()

	return p, nil
}

// fill drains the device into the internal buffer until read failure.
func (p *RealPort) fill() {
	chunk := make([]byte, 256)

	for {
		n, err := p.port.Read(chunk)

		p.mu.Lock()

		if n > 0 {
			p.buf = append(p.buf, chunk[:n]...)
		}

		if err != nil {
			if p.readErr == nil {
				p.readErr = err
			}

			p.mu.Unlock()

			return
		}

		p.mu.Unlock()
	}
}

// BytesWaiting returns the number of buffered bytes. A reader failure is
// surfaced once the buffer has drained so pending frames are not lost.
func (p *RealPort) BytesWaiting() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrClosed
	}

	if len(p.buf) == 0 && p.readErr != nil {
		return 0, fmt.Errorf("serial read: %w", p.readErr)
	}

	return len(p.buf), nil
}

// Read consumes up to n buffered bytes.
func (p *RealPort) Read(n int) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}

	if n > len(p.buf) {
		n = len(p.buf)
	}

	out := append([]byte(nil), p.buf[:n]...)
	p.buf = p.buf[n:]

	return out, nil
}

// Close closes the device, terminating the background reader.
func (p *RealPort) Close() error {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()

		return nil
	}

	p.closed = true
	p.mu.Unlock()

	return p.port.Close()
}
