package hardware

// Relay is a single digital actuator bound to one GPIO pin.
// The physical pin is the single source of truth for the relay state;
// Get always reads it back rather than caching.
type Relay struct {
	pins Pins
	pin  int
}

// NewRelay binds a relay to the given pin of a GPIO backend.
func NewRelay(pins Pins, pin int) *Relay {
	return &Relay{pins: pins, pin: pin}
}

// Set drives the relay pin to the given level.
func (r *Relay) Set(level Level) error {
	if !r.pins.Connected() {
		return ErrNotConnected
	}

	return r.pins.Write(r.pin, level)
}

// Get reads back the current pin level.
func (r *Relay) Get() (Level, error) {
	if !r.pins.Connected() {
		return Low, ErrNotConnected
	}

	return r.pins.Read(r.pin)
}

// Pin returns the bound pin number.
func (r *Relay) Pin() int {
	return r.pin
}
