package scanner

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lsst-ts/ts-audiotrigger/internal/serialio"
)

func newReader(t *testing.T) (*FrameReader, *serialio.FakePort) {
	t.Helper()

	port := serialio.NewFakePort()
	reader := NewFrameReader(zaptest.NewLogger(t).Sugar(), port, DefaultChannels())

	return reader, port
}

func TestPollParsesCompleteFrame(t *testing.T) {
	reader, port := newReader(t)

	port.Push([]byte("C01=20.1,C02=21.5,C03=19.0,C04=1.0,C05=2.0,C06=3.0,C07=4.0,C08=5.0\nC01=9"))

	frame, err := reader.Poll()
	require.NoError(t, err)
	require.Len(t, frame.Readings, 8)

	ambient, ok := frame.Value("Ambient")
	require.True(t, ok)
	require.InDelta(t, 20.1, ambient, 1e-9)

	laser, ok := frame.Value("Laser")
	require.True(t, ok)
	require.InDelta(t, 21.5, laser, 1e-9)
}

func TestPollSkipsMalformedTokens(t *testing.T) {
	reader, port := newReader(t)

	port.Push([]byte("C01=20.1,C02=BAD,C03=21.0\n"))

	frame, err := reader.Poll()
	require.NoError(t, err)

	ambient, _ := frame.Value("Ambient")
	require.InDelta(t, 20.1, ambient, 1e-9)

	fc, _ := frame.Value("FC")
	require.InDelta(t, 21.0, fc, 1e-9)

	// The malformed channel keeps its previous value.
	laser, _ := frame.Value("Laser")
	require.InDelta(t, 0.0, laser, 1e-9)
}

func TestPollUsesSecondToLastLine(t *testing.T) {
	reader, port := newReader(t)

	// The trailing line is still being written and must be ignored.
	port.Push([]byte("C01=18.0\nC01=19.5\nC01=99"))

	frame, err := reader.Poll()
	require.NoError(t, err)

	ambient, _ := frame.Value("Ambient")
	require.InDelta(t, 19.5, ambient, 1e-9)
}

func TestPollIgnoresUnknownChannels(t *testing.T) {
	reader, port := newReader(t)

	port.Push([]byte("C01=20.0,C99=50.0,garbage\n"))

	frame, err := reader.Poll()
	require.NoError(t, err)

	ambient, _ := frame.Value("Ambient")
	require.InDelta(t, 20.0, ambient, 1e-9)
}

func TestPollWithNothingBuffered(t *testing.T) {
	reader, _ := newReader(t)

	_, err := reader.Poll()
	require.ErrorIs(t, err, ErrNoData)
}

func TestPollWithoutCompleteLine(t *testing.T) {
	reader, port := newReader(t)

	port.Push([]byte("C01=20.1,C02=2"))

	_, err := reader.Poll()
	require.ErrorIs(t, err, ErrIncompleteFrame)
}

func TestPollConsumesBuffer(t *testing.T) {
	reader, port := newReader(t)

	port.Push([]byte("C01=20.1\n"))

	_, err := reader.Poll()
	require.NoError(t, err)

	_, err = reader.Poll()
	require.ErrorIs(t, err, ErrNoData)
}

func TestFrameMean(t *testing.T) {
	frame := Frame{Readings: []Reading{
		{ID: "C01", Label: "Ambient", Value: 10},
		{ID: "C02", Label: "Laser", Value: 20},
		{ID: "C03", Label: "FC", Value: 30},
		{ID: "C04", Label: "A", Value: 40},
	}}

	require.InDelta(t, 25.0, frame.Mean(), 1e-9)
	require.InDelta(t, 0.0, Frame{}.Mean(), 1e-9)
}

func TestRenderFrameRoundtrip(t *testing.T) {
	reader, port := newReader(t)

	readings := []Reading{
		{ID: "C01", Label: "Ambient", Value: 23.5},
		{ID: "C02", Label: "Laser", Value: 24.5},
	}

	port.Push(RenderFrame(readings))
	port.Push([]byte("C0"))

	frame, err := reader.Poll()
	require.NoError(t, err)

	ambient, _ := frame.Value("Ambient")
	require.InDelta(t, 23.5, ambient, 1e-9)

	laser, _ := frame.Value("Laser")
	require.InDelta(t, 24.5, laser, 1e-9)
}
