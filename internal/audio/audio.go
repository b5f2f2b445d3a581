// Package audio provides microphone capture with hardware abstraction.
// The real implementation records through PortAudio.
// The fake implementation plays back scripted samples for testing.
package audio

import "errors"

// Device describes an audio input device.
type Device struct {
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
}

// ErrNoDevice is returned when the requested device index does not exist.
var ErrNoDevice = errors.New("audio device not found")

// Source is the capability interface over an audio capture backend.
type Source interface {
	// QueryDevice returns the descriptor for the device at index.
	QueryDevice(index int) (Device, error)

	// CheckInputSettings fails if the device does not support the
	// requested sample rate and channel count.
	CheckInputSettings(index int, sampleRate float64, channels int) error

	// Record captures frames samples from channel 0, blocking until done.
	Record(frames int, sampleRate float64, channels int) ([]float64, error)

	// Close releases audio resources.
	Close() error
}
