package scanner

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lsst-ts/ts-audiotrigger/internal/hardware"
	"github.com/lsst-ts/ts-audiotrigger/internal/serialio"
	"github.com/lsst-ts/ts-audiotrigger/internal/telemetry"
)

type scannerFixture struct {
	scanner *Scanner
	port    *serialio.FakePort
	pins    *hardware.FakePins
	fanPub  *telemetry.FakePublisher
	essPub  *telemetry.FakePublisher
}

func newScanner(t *testing.T) *scannerFixture {
	t.Helper()

	log := zaptest.NewLogger(t).Sugar()

	f := &scannerFixture{
		port:   serialio.NewFakePort(),
		pins:   hardware.NewFakePins(),
		fanPub: telemetry.NewFakePublisher(),
		essPub: telemetry.NewFakePublisher(),
	}

	reader := NewFrameReader(log, f.port, DefaultChannels())
	window := NewWindow(8)
	fan := NewFanController(log, hardware.NewRelay(f.pins, testFanPin), f.fanPub, 25, 22)
	f.scanner = New(log, reader, window, fan, f.essPub)

	return f
}

// pushFrame pushes a full 8-channel frame where every channel reads the
// same temperature, followed by a partial trailing line.
func (f *scannerFixture) pushFrame(temp float64) {
	readings := make([]Reading, 0, 8)
	for _, ch := range DefaultChannels() {
		readings = append(readings, Reading{ID: ch.ID, Label: ch.Label, Value: temp})
	}

	f.port.Push(RenderFrame(readings))
	f.port.Push([]byte("C0"))
}

func TestCycleWithNoDataIsQuiet(t *testing.T) {
	f := newScanner(t)

	require.NoError(t, f.scanner.Cycle())
	require.Empty(t, f.essPub.Messages)
	require.Empty(t, f.fanPub.Messages)
}

func TestCyclePublishesSmoothedTemperature(t *testing.T) {
	f := newScanner(t)

	f.pushFrame(20)
	require.NoError(t, f.scanner.Cycle())

	msgs := f.essPub.OfKind(telemetry.KindNewTemperature)
	require.Len(t, msgs, 1)
	require.InDelta(t, 20.0, msgs[0].(telemetry.NewTemperature).Value, 1e-9)

	// The first frame primes the whole window.
	require.Equal(t, 8, f.scanner.Window().Len())
	require.True(t, f.scanner.Window().Primed())

	f.pushFrame(24)
	require.NoError(t, f.scanner.Cycle())

	msgs = f.essPub.OfKind(telemetry.KindNewTemperature)
	require.Len(t, msgs, 2)
	require.InDelta(t, 24.0, msgs[1].(telemetry.NewTemperature).Value, 1e-9)
	require.Equal(t, []float64{24, 20, 20, 20, 20, 20, 20, 20}, f.scanner.Window().Values())
}

func TestCycleDrivesFanFromRawAmbient(t *testing.T) {
	f := newScanner(t)

	f.pushFrame(26)
	require.NoError(t, f.scanner.Cycle())

	level, err := f.pins.Read(testFanPin)
	require.NoError(t, err)
	require.Equal(t, hardware.High, level)

	f.pushFrame(21)
	require.NoError(t, f.scanner.Cycle())

	level, err = f.pins.Read(testFanPin)
	require.NoError(t, err)
	require.Equal(t, hardware.Low, level)

	require.Equal(t, []string{"on", "off"}, fanValues(f.fanPub))
}

func TestCycleSurfacesPortFailure(t *testing.T) {
	f := newScanner(t)

	f.port.WaitError = serialio.ErrClosed

	err := f.scanner.Cycle()
	require.ErrorIs(t, err, serialio.ErrClosed)
}

func TestFanOffStopsFan(t *testing.T) {
	f := newScanner(t)

	f.pushFrame(30)
	require.NoError(t, f.scanner.Cycle())
	require.NoError(t, f.scanner.FanOff())

	level, err := f.pins.Read(testFanPin)
	require.NoError(t, err)
	require.Equal(t, hardware.Low, level)
}
