package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// RealSource records from an actual microphone through PortAudio.
type RealSource struct {
	// input is the default capture device index, mirroring how the
	// capture stack pins a default input device at startup.
	input int
}

// NewRealSource initializes PortAudio with the given default input device.
func NewRealSource(input int) (*RealSource, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}

	return &RealSource{input: input}, nil
}

func deviceInfo(index int) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	if index < 0 || index >= len(devices) {
		return nil, fmt.Errorf("%w: index %d", ErrNoDevice, index)
	}

	return devices[index], nil
}

// QueryDevice returns the descriptor for the device at index.
func (s *RealSource) QueryDevice(index int) (Device, error) {
	info, err := deviceInfo(index)
	if err != nil {
		return Device{}, err
	}

	return Device{
		Name:              info.Name,
		MaxInputChannels:  info.MaxInputChannels,
		DefaultSampleRate: info.DefaultSampleRate,
	}, nil
}

func inputParameters(index int, sampleRate float64, channels, frames int) (portaudio.StreamParameters, error) {
	info, err := deviceInfo(index)
	if err != nil {
		return portaudio.StreamParameters{}, err
	}

	params := portaudio.LowLatencyParameters(info, nil)
	params.Input.Channels = channels
	params.SampleRate = sampleRate
	params.FramesPerBuffer = frames

	return params, nil
}

// CheckInputSettings fails if the device does not support the settings.
func (s *RealSource) CheckInputSettings(index int, sampleRate float64, channels int) error {
	params, err := inputParameters(index, sampleRate, channels, 0)
	if err != nil {
		return err
	}

	buf := make([]float32, channels)
	if err := portaudio.IsFormatSupported(params, buf); err != nil {
		return fmt.Errorf("unsupported input settings: %w", err)
	}

	return nil
}

// Record captures frames samples, blocking until the buffer is full.
// Only channel 0 is returned; extra channels are dropped.
func (s *RealSource) Record(frames int, sampleRate float64, channels int) ([]float64, error) {
	params, err := inputParameters(s.input, sampleRate, channels, frames)
	if err != nil {
		return nil, err
	}

	buf := make([]float32, frames*channels)

	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start stream: %w", err)
	}
	defer stream.Stop()

	if err := stream.Read(); err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}

	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		out[i] = float64(buf[i*channels])
	}

	return out, nil
}

// Close terminates PortAudio.
func (s *RealSource) Close() error {
	return portaudio.Terminate()
}
