package audio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueryDevice(t *testing.T) {
	src := NewFakeSource()

	dev, err := src.QueryDevice(0)
	require.NoError(t, err)
	require.Equal(t, 1, dev.MaxInputChannels)
	require.InDelta(t, 44100.0, dev.DefaultSampleRate, 1e-9)

	_, err = src.QueryDevice(3)
	require.ErrorIs(t, err, ErrNoDevice)
}

func TestRecordPadsToRequestedFrames(t *testing.T) {
	src := NewFakeSource()
	src.Fill([]float64{1, 2, 3})

	samples, err := src.Record(5, 44100, 1)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3, 0, 0}, samples)
}

func TestRecordTrimsToRequestedFrames(t *testing.T) {
	src := NewFakeSource()
	src.Fill([]float64{1, 2, 3, 4, 5})

	samples, err := src.Record(2, 44100, 1)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2}, samples)
}

func TestFillConstant(t *testing.T) {
	src := NewFakeSource()
	src.FillConstant(0.5, 4)

	samples, err := src.Record(4, 44100, 1)
	require.NoError(t, err)
	require.Equal(t, []float64{0.5, 0.5, 0.5, 0.5}, samples)
}

func TestFillSineStartsAtZeroCrossing(t *testing.T) {
	src := NewFakeSource()
	src.FillSine(1000, 44100, 1, 100)

	samples, err := src.Record(100, 44100, 1)
	require.NoError(t, err)
	require.InDelta(t, 0.0, samples[0], 1e-12)
	require.NotZero(t, samples[1])
}

func TestScriptedErrors(t *testing.T) {
	src := NewFakeSource()

	wantSettings := errors.New("unsupported settings")
	src.SettingsError = wantSettings
	require.ErrorIs(t, src.CheckInputSettings(0, 44100, 1), wantSettings)

	wantRecord := errors.New("stream overflow")
	src.RecordError = wantRecord

	_, err := src.Record(10, 44100, 1)
	require.ErrorIs(t, err, wantRecord)
}
