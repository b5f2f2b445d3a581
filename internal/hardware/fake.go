package hardware

import "sync"

// FakePins is an in-memory GPIO backend for simulation mode and tests.
type FakePins struct {
	mu sync.Mutex

	levels [MaxPins]Level

	// disconnected simulates a lost GPIO daemon connection.
	disconnected bool

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakePins creates a connected FakePins with all pins low.
func NewFakePins() *FakePins {
	return &FakePins{}
}

// Write sets the level of a pin.
func (f *FakePins) Write(pin int, level Level) error {
	if err := checkPin(pin); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.levels[pin] = level

	return nil
}

// Read returns the level of a pin.
func (f *FakePins) Read(pin int) (Level, error) {
	if err := checkPin(pin); err != nil {
		return Low, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.levels[pin], nil
}

// Connected reports whether the fake backend is "connected".
func (f *FakePins) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return !f.disconnected
}

// SetConnected controls the value returned by Connected.
func (f *FakePins) SetConnected(connected bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.disconnected = !connected
}

// Close marks the backend as closed.
func (f *FakePins) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Closed = true

	return nil
}
