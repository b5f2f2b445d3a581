//go:build linux

package hardware

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// RealPins drives actual relays using the Linux GPIO character device.
// Lines are requested as outputs on first use and cached for readback.
type RealPins struct {
	mu    sync.Mutex
	chip  *gpiocdev.Chip
	lines map[int]*gpiocdev.Line
}

// NewRealPins opens the given GPIO chip (e.g. "gpiochip0").
func NewRealPins(chipName string) (*RealPins, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	return &RealPins{
		chip:  chip,
		lines: make(map[int]*gpiocdev.Line),
	}, nil
}

// line returns the cached output line for pin, requesting it if needed.
// Relays are driven low on first request so an unattended boot never
// energizes an actuator.
func (r *RealPins) line(pin int) (*gpiocdev.Line, error) {
	if l, ok := r.lines[pin]; ok {
		return l, nil
	}

	l, err := r.chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request pin %d: %w", pin, err)
	}

	r.lines[pin] = l

	return l, nil
}

// Write sets the level of a pin.
func (r *RealPins) Write(pin int, level Level) error {
	if err := checkPin(pin); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.chip == nil {
		return ErrNotConnected
	}

	l, err := r.line(pin)
	if err != nil {
		return err
	}

	if err := l.SetValue(int(level)); err != nil {
		return fmt.Errorf("write pin %d: %w", pin, err)
	}

	return nil
}

// Read returns the last driven level of a pin.
func (r *RealPins) Read(pin int) (Level, error) {
	if err := checkPin(pin); err != nil {
		return Low, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.chip == nil {
		return Low, ErrNotConnected
	}

	l, err := r.line(pin)
	if err != nil {
		return Low, err
	}

	v, err := l.Value()
	if err != nil {
		return Low, fmt.Errorf("read pin %d: %w", pin, err)
	}

	if v == 0 {
		return Low, nil
	}

	return High, nil
}

// Connected reports whether the chip is open.
func (r *RealPins) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.chip != nil
}

// Close releases all requested lines and the chip. Pin levels are left
// as last commanded; callers force safe states before closing.
func (r *RealPins) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error

	for pin, l := range r.lines {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
		}
	}

	r.lines = make(map[int]*gpiocdev.Line)

	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}

		r.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}

	return nil
}
