// Package scanner reads the multiplexed serial temperature stream,
// drives the exhaust fan via hysteresis and maintains the smoothed
// telemetry window.
package scanner

import "fmt"

// Channel is one temperature sensor channel of the serial scanner.
type Channel struct {
	ID        string
	Label     string
	LastValue float64
}

// FanSensorLabel is the channel designated for fan control.
const FanSensorLabel = "Ambient"

// DefaultChannels returns the fixed eight-channel table of the scanner
// hardware, in wire order.
func DefaultChannels() []*Channel {
	return []*Channel{
		{ID: "C01", Label: "Ambient"},
		{ID: "C02", Label: "Laser"},
		{ID: "C03", Label: "FC"},
		{ID: "C04", Label: "A"},
		{ID: "C05", Label: "B"},
		{ID: "C06", Label: "C"},
		{ID: "C07", Label: "D"},
		{ID: "C08", Label: "E"},
	}
}

// Reading is a point-in-time copy of one channel.
type Reading struct {
	ID    string
	Label string
	Value float64
}

// Frame is a snapshot of every channel after a successful parse.
// It is a value type handed to consumers; the frame reader keeps
// exclusive ownership of the live channel table.
type Frame struct {
	Readings []Reading
}

// Mean returns the unweighted mean over all channels.
func (f Frame) Mean() float64 {
	if len(f.Readings) == 0 {
		return 0
	}

	var sum float64
	for _, r := range f.Readings {
		sum += r.Value
	}

	return sum / float64(len(f.Readings))
}

// Value returns the reading for the channel with the given label.
func (f Frame) Value(label string) (float64, bool) {
	for _, r := range f.Readings {
		if r.Label == label {
			return r.Value, true
		}
	}

	return 0, false
}

// RenderFrame formats channel values as one wire frame line. Used by the
// simulated serial backend and tests.
func RenderFrame(readings []Reading) []byte {
	line := make([]byte, 0, 16*len(readings))

	for i, r := range readings {
		if i > 0 {
			line = append(line, ',')
		}

		line = append(line, fmt.Sprintf("%s=%.1f", r.ID, r.Value)...)
	}

	line = append(line, '\n')

	return line
}
