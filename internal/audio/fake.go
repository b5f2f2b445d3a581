package audio

import (
	"math"
	"sync"
)

// FakeSource is a test double that returns scripted audio samples.
type FakeSource struct {
	mu sync.Mutex

	// data is returned by Record, padded or trimmed to the requested
	// frame count the way the real capture buffer would be.
	data []float64

	// RecordError, if set, will be returned by Record.
	RecordError error

	// SettingsError, if set, will be returned by CheckInputSettings.
	SettingsError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeSource creates a FakeSource producing silence.
func NewFakeSource() *FakeSource {
	return &FakeSource{}
}

// Fill replaces the scripted samples.
func (f *FakeSource) Fill(data []float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.data = append([]float64(nil), data...)
}

// FillConstant scripts n samples of a constant value.
func (f *FakeSource) FillConstant(value float64, n int) {
	data := make([]float64, n)
	for i := range data {
		data[i] = value
	}

	f.Fill(data)
}

// FillSine scripts n samples of a sine tone.
func (f *FakeSource) FillSine(freq, sampleRate, amplitude float64, n int) {
	data := make([]float64, n)
	for i := range data {
		data[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}

	f.Fill(data)
}

// QueryDevice returns a fixed single-microphone descriptor.
func (f *FakeSource) QueryDevice(index int) (Device, error) {
	if index != 0 {
		return Device{}, ErrNoDevice
	}

	return Device{
		Name:              "microphone",
		MaxInputChannels:  1,
		DefaultSampleRate: 44100,
	}, nil
}

// CheckInputSettings returns the scripted settings error, if any.
func (f *FakeSource) CheckInputSettings(index int, sampleRate float64, channels int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.SettingsError
}

// Record returns the scripted samples padded or trimmed to frames.
func (f *FakeSource) Record(frames int, sampleRate float64, channels int) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.RecordError != nil {
		return nil, f.RecordError
	}

	out := make([]float64, frames)
	copy(out, f.data)

	return out, nil
}

// Close marks the source as closed.
func (f *FakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Closed = true

	return nil
}
