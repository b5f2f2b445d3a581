package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lsst-ts/ts-audiotrigger/internal/audio"
	"github.com/lsst-ts/ts-audiotrigger/internal/config"
	"github.com/lsst-ts/ts-audiotrigger/internal/hardware"
	"github.com/lsst-ts/ts-audiotrigger/internal/scanner"
	"github.com/lsst-ts/ts-audiotrigger/internal/serialio"
	"github.com/lsst-ts/ts-audiotrigger/internal/telemetry"
)

type runnerFixture struct {
	cfg  *config.Config
	pins *hardware.FakePins
	src  *audio.FakeSource
	port *serialio.FakePort

	interlockPub *telemetry.FakePublisher
	fanPub       *telemetry.FakePublisher
	essPub       *telemetry.FakePublisher

	runner *Runner
}

// newRunner builds a Runner over fakes with intervals short enough for
// every loop to turn over several times within the test deadline.
func newRunner(t *testing.T, mutate func(*config.Config)) *runnerFixture {
	t.Helper()

	cfg := config.Default()
	cfg.Simulate = true
	cfg.SampleRate = 44100
	cfg.RecordDuration = 100 * time.Millisecond
	cfg.Cooldown = time.Millisecond
	cfg.HeartbeatInterval = 2 * time.Millisecond
	cfg.SampleWait = 2 * time.Millisecond
	cfg.LoopRetryWait = time.Millisecond

	if mutate != nil {
		mutate(cfg)
	}

	require.NoError(t, config.Validate(cfg))

	f := &runnerFixture{
		cfg:          cfg,
		pins:         hardware.NewFakePins(),
		src:          audio.NewFakeSource(),
		port:         serialio.NewFakePort(),
		interlockPub: telemetry.NewFakePublisher(),
		fanPub:       telemetry.NewFakePublisher(),
		essPub:       telemetry.NewFakePublisher(),
	}

	b := &Backends{
		Pins:         f.pins,
		Source:       f.src,
		Port:         f.port,
		InterlockPub: f.interlockPub,
		FanPub:       f.fanPub,
		ESSPub:       f.essPub,
	}

	r, err := New(cfg, zaptest.NewLogger(t).Sugar(), b)
	require.NoError(t, err)

	f.runner = r

	return f
}

func (f *runnerFixture) run(t *testing.T, d time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	require.NoError(t, f.runner.Run(ctx))
}

func (f *runnerFixture) pinLevel(t *testing.T, pin int) hardware.Level {
	t.Helper()

	level, err := f.pins.Read(pin)
	require.NoError(t, err)

	return level
}

func interruptValues(pub *telemetry.FakePublisher) []string {
	var values []string
	for _, m := range pub.OfKind(telemetry.KindSetInterruptState) {
		values = append(values, m.(telemetry.SetInterruptState).Value)
	}

	return values
}

func TestRunLeavesKnownSafeState(t *testing.T) {
	f := newRunner(t, func(cfg *config.Config) {
		cfg.DisableMicrophone = true
	})

	f.port.Generator = simulatedFrames()

	f.run(t, 50*time.Millisecond)

	// Interlock engaged and fan stopped after shutdown.
	require.Equal(t, hardware.High, f.pinLevel(t, f.cfg.RelayPin))
	require.Equal(t, hardware.Low, f.pinLevel(t, f.cfg.FanPin))

	// The interlock opened at startup before anything else.
	values := interruptValues(f.interlockPub)
	require.NotEmpty(t, values)
	require.Equal(t, "open", values[0])

	// Liveness and temperature telemetry kept flowing.
	require.NotEmpty(t, f.interlockPub.OfKind(telemetry.KindHeartbeat))
	require.NotEmpty(t, f.essPub.OfKind(telemetry.KindNewTemperature))
}

func TestRunTripsInterlockOnSustainedTone(t *testing.T) {
	f := newRunner(t, func(cfg *config.Config) {
		cfg.CountThreshold = 3
	})

	// A loud 1 kHz tone in every recorded buffer.
	f.src.FillSine(1000, 44100, 40, 4410)

	f.run(t, 50*time.Millisecond)

	values := interruptValues(f.interlockPub)
	require.Contains(t, values, "close")
	require.Equal(t, "open", values[0])

	// Shutdown still wins: the relay ends engaged.
	require.Equal(t, hardware.High, f.pinLevel(t, f.cfg.RelayPin))
}

func TestRunWithSilenceNeverTrips(t *testing.T) {
	f := newRunner(t, nil)

	f.src.FillConstant(0, 4410)

	f.run(t, 30*time.Millisecond)

	values := interruptValues(f.interlockPub)
	require.NotContains(t, values, "close")
}

func TestRunReportsLoopFailures(t *testing.T) {
	f := newRunner(t, nil)

	f.src.RecordError = audio.ErrNoDevice

	f.run(t, 30*time.Millisecond)

	msgs := f.interlockPub.OfKind(telemetry.KindError)
	require.NotEmpty(t, msgs)
	require.Equal(t, telemetry.CodeLoopFailure, msgs[0].(telemetry.Error).Code)
}

func TestRunDrivesFanFromScannerFrames(t *testing.T) {
	f := newRunner(t, func(cfg *config.Config) {
		cfg.DisableMicrophone = true
	})

	readings := make([]scanner.Reading, 0, 8)
	for _, ch := range scanner.DefaultChannels() {
		readings = append(readings, scanner.Reading{ID: ch.ID, Label: ch.Label, Value: 27.0})
	}

	hot := scanner.RenderFrame(readings)
	f.port.Generator = func() []byte {
		return append(append([]byte(nil), hot...), "C0"...)
	}

	f.run(t, 50*time.Millisecond)

	var values []string
	for _, m := range f.fanPub.OfKind(telemetry.KindSetFan) {
		values = append(values, m.(telemetry.SetFan).Value)
	}

	require.Contains(t, values, "on")

	// FanOff on shutdown leaves the relay low regardless.
	require.Equal(t, hardware.Low, f.pinLevel(t, f.cfg.FanPin))
}

func TestBuildSimulatedBackends(t *testing.T) {
	cfg := config.Default()
	cfg.Simulate = true
	cfg.InterlockAddr = "127.0.0.1:0"
	cfg.FanAddr = "127.0.0.1:0"
	cfg.ESSAddr = "127.0.0.1:0"

	b, err := Build(cfg, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	defer b.Close()

	require.IsType(t, &hardware.FakePins{}, b.Pins)
	require.IsType(t, &audio.FakeSource{}, b.Source)
	require.IsType(t, &serialio.FakePort{}, b.Port)
	require.IsType(t, &telemetry.Server{}, b.InterlockPub)

	// A runner wires up cleanly over simulated backends.
	r, err := New(cfg, zaptest.NewLogger(t).Sugar(), b)
	require.NoError(t, err)
	require.NotNil(t, r.Interlock())
}

func TestSimulatedFramesParse(t *testing.T) {
	port := serialio.NewFakePort()
	port.Generator = simulatedFrames()

	reader := scanner.NewFrameReader(zaptest.NewLogger(t).Sugar(), port, scanner.DefaultChannels())

	frame, err := reader.Poll()
	require.NoError(t, err)
	require.Len(t, frame.Readings, 8)

	ambient, ok := frame.Value(scanner.FanSensorLabel)
	require.True(t, ok)
	require.Greater(t, ambient, 15.0)
	require.Less(t, ambient, 30.0)
}
