// Package runner builds the hardware backends and runs the daemon's
// control loops: laser alignment listening, serial temperature
// scanning and heartbeat publishing.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lsst-ts/ts-audiotrigger/internal/analysis"
	"github.com/lsst-ts/ts-audiotrigger/internal/audio"
	"github.com/lsst-ts/ts-audiotrigger/internal/config"
	"github.com/lsst-ts/ts-audiotrigger/internal/hardware"
	"github.com/lsst-ts/ts-audiotrigger/internal/interlock"
	"github.com/lsst-ts/ts-audiotrigger/internal/scanner"
	"github.com/lsst-ts/ts-audiotrigger/internal/serialio"
	"github.com/lsst-ts/ts-audiotrigger/internal/telemetry"
)

// GPIOChip is the character device all relays hang off.
const GPIOChip = "gpiochip0"

// Backends are the hardware and transport capabilities the runner
// drives. Tests inject fakes; production wiring comes from Build.
type Backends struct {
	Pins   hardware.Pins
	Source audio.Source
	Port   serialio.Port

	// One telemetry endpoint per concern, mirroring the deployed
	// process layout: interlock log stream, fan control stream and
	// the ESS temperature stream.
	InterlockPub telemetry.Publisher
	FanPub       telemetry.Publisher
	ESSPub       telemetry.Publisher
}

// Close releases every backend.
func (b *Backends) Close() {
	if b.InterlockPub != nil {
		b.InterlockPub.Close()
	}

	if b.FanPub != nil {
		b.FanPub.Close()
	}

	if b.ESSPub != nil {
		b.ESSPub.Close()
	}

	if b.Source != nil {
		b.Source.Close()
	}

	if b.Port != nil {
		b.Port.Close()
	}

	if b.Pins != nil {
		b.Pins.Close()
	}
}

// Build constructs real or simulated backends per the configuration.
func Build(cfg *config.Config, log *zap.SugaredLogger) (*Backends, error) {
	b := new(Backends)

	if err := buildHardware(cfg, log, b); err != nil {
		b.Close()

		return nil, err
	}

	if err := buildTelemetry(cfg, log, b); err != nil {
		b.Close()

		return nil, err
	}

	return b, nil
}

func buildHardware(cfg *config.Config, log *zap.SugaredLogger, b *Backends) error {
	if cfg.Simulate {
		b.Pins = hardware.NewFakePins()

		source := audio.NewFakeSource()
		source.FillConstant(0, int(cfg.RecordDuration.Seconds()*44100))
		b.Source = source

		port := serialio.NewFakePort()
		port.Generator = simulatedFrames()
		b.Port = port

		return nil
	}

	pins, err := hardware.NewRealPins(GPIOChip)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}

	b.Pins = pins

	if !cfg.DisableMicrophone {
		source, err := audio.NewRealSource(cfg.AudioDevice)
		if err != nil {
			return fmt.Errorf("init audio: %w", err)
		}

		b.Source = source
	}

	port, err := serialio.Open(cfg.SerialPort, cfg.BaudRate)
	if err != nil {
		return fmt.Errorf("init serial: %w", err)
	}

	b.Port = port

	return nil
}

func buildTelemetry(cfg *config.Config, log *zap.SugaredLogger, b *Backends) error {
	var err error

	if b.InterlockPub, err = newPublisher(cfg, log, cfg.InterlockAddr); err != nil {
		return err
	}

	if b.FanPub, err = newPublisher(cfg, log, cfg.FanAddr); err != nil {
		return err
	}

	if b.ESSPub, err = newPublisher(cfg, log, cfg.ESSAddr); err != nil {
		return err
	}

	return nil
}

// newPublisher builds the TCP endpoint for addr, with an MQTT mirror
// fanned in when a broker is configured.
func newPublisher(cfg *config.Config, log *zap.SugaredLogger, addr string) (telemetry.Publisher, error) {
	server, err := telemetry.NewServer(log, addr)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	if cfg.MQTTBroker == "" {
		return server, nil
	}

	mirror, err := telemetry.NewMirror(cfg.MQTTBroker)
	if err != nil {
		server.Close()

		return nil, fmt.Errorf("init telemetry mirror: %w", err)
	}

	return telemetry.Multi{server, mirror}, nil
}

// simulatedFrames emits synthetic scanner frames with a slow random
// walk around room temperature, plus a partial trailing line the way
// the real stream arrives.
func simulatedFrames() func() []byte {
	channels := scanner.DefaultChannels()

	temps := make([]float64, len(channels))
	for i := range temps {
		temps[i] = 21.0 + float64(i)*0.5
	}

	return func() []byte {
		readings := make([]scanner.Reading, len(channels))
		for i, ch := range channels {
			// Deterministic drift, enough to cross the fan band.
			temps[i] += 0.3
			if temps[i] > 28 {
				temps[i] = 19
			}

			readings[i] = scanner.Reading{ID: ch.ID, Label: ch.Label, Value: temps[i]}
		}

		frame := scanner.RenderFrame(readings)

		return append(frame, "C0"...)
	}
}

// Runner owns the daemon's loop goroutines.
type Runner struct {
	cfg *config.Config
	log *zap.SugaredLogger

	backends *Backends

	interlock *interlock.Controller
	analyzer  *analysis.Analyzer
	scanner   *scanner.Scanner

	sampleRate float64
	frames     int
}

// New wires controllers onto the given backends.
func New(cfg *config.Config, log *zap.SugaredLogger, b *Backends) (*Runner, error) {
	r := &Runner{
		cfg:      cfg,
		log:      log,
		backends: b,
		analyzer: analysis.New(analysis.DefaultThreshold),
	}

	relay := hardware.NewRelay(b.Pins, cfg.RelayPin)
	r.interlock = interlock.New(log, relay, b.InterlockPub, cfg.CountThreshold, cfg.Cooldown)

	fanRelay := hardware.NewRelay(b.Pins, cfg.FanPin)
	fan := scanner.NewFanController(log, fanRelay, b.FanPub, cfg.FanOnTemp, cfg.FanOffTemp)

	reader := scanner.NewFrameReader(log, b.Port, scanner.DefaultChannels())
	window := scanner.NewWindow(cfg.WindowLength)
	r.scanner = scanner.New(log, reader, window, fan, b.ESSPub)

	if !cfg.DisableMicrophone {
		if err := r.resolveSampleRate(); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// resolveSampleRate picks the configured rate or the device default.
func (r *Runner) resolveSampleRate() error {
	r.sampleRate = r.cfg.SampleRate

	if r.sampleRate == 0 {
		device, err := r.backends.Source.QueryDevice(r.cfg.AudioDevice)
		if err != nil {
			return fmt.Errorf("query audio device %d: %w", r.cfg.AudioDevice, err)
		}

		r.sampleRate = device.DefaultSampleRate
	}

	r.frames = int(r.cfg.RecordDuration.Seconds() * r.sampleRate)

	return nil
}

// Interlock exposes the interlock controller for manual reset handling.
func (r *Runner) Interlock() *interlock.Controller {
	return r.interlock
}

// Run opens the interlock, starts the loops and blocks until the
// context is canceled. On the way out it forces the interlock engaged
// and the fan off so the enclosure is left in a known-safe state.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.interlock.Start(ctx); err != nil {
		return fmt.Errorf("open interlock at startup: %w", err)
	}

	var wg sync.WaitGroup

	if r.cfg.DisableMicrophone {
		r.log.Info("microphone disabled, skipping laser alignment loop")
	} else {
		wg.Add(1)

		go func() {
			defer wg.Done()
			r.audioLoop(ctx)
		}()
	}

	wg.Add(1)

	go func() {
		defer wg.Done()
		r.serialLoop(ctx)
	}()

	wg.Add(1)

	go func() {
		defer wg.Done()
		r.heartbeatLoop(ctx)
	}()

	wg.Wait()

	// Known-safe physical state on shutdown, even mid-cycle.
	shutdownCtx := context.Background()

	if err := r.interlock.Shutdown(shutdownCtx); err != nil {
		r.log.Errorw("failed to engage interlock on shutdown", "error", err)
	}

	if err := r.scanner.FanOff(); err != nil {
		r.log.Errorw("failed to stop fan on shutdown", "error", err)
	}

	return nil
}

// audioLoop records, analyzes and feeds the interlock until canceled.
// A failed iteration is logged, reported and retried after the
// configured wait; only cancellation stops the loop.
func (r *Runner) audioLoop(ctx context.Context) {
	r.log.Infow("starting laser alignment loop",
		"sample_rate", r.sampleRate, "frames", r.frames)

	for ctx.Err() == nil {
		if err := r.audioCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}

			r.log.Errorw("laser alignment iteration failed", "error", err)
			r.reportLoopFailure(r.backends.InterlockPub, err)

			waitFor(ctx, r.cfg.LoopRetryWait)
		}
	}
}

func (r *Runner) audioCycle(ctx context.Context) error {
	if err := r.backends.Source.CheckInputSettings(r.cfg.AudioDevice, r.sampleRate, 1); err != nil {
		return fmt.Errorf("check input settings: %w", err)
	}

	samples, err := r.backends.Source.Record(r.frames, r.sampleRate, 1)
	if err != nil {
		return fmt.Errorf("record: %w", err)
	}

	result := r.analyzer.Analyze(samples, r.sampleRate)

	return r.interlock.HandleDetection(ctx, result)
}

// serialLoop scans the temperature stream on a fixed cadence.
func (r *Runner) serialLoop(ctx context.Context) {
	r.log.Infow("starting temperature scanner loop", "sample_wait", r.cfg.SampleWait)

	ticker := time.NewTicker(r.cfg.SampleWait)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.scanner.Cycle(); err != nil {
				r.log.Errorw("temperature scan iteration failed", "error", err)
				r.reportLoopFailure(r.backends.FanPub, err)
			}
		}
	}
}

// heartbeatLoop publishes liveness on the interlock stream.
func (r *Runner) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.backends.InterlockPub.Publish(telemetry.NewHeartbeat()); err != nil {
				r.log.Debugw("heartbeat publish failed", "error", err)
			}
		}
	}
}

func (r *Runner) reportLoopFailure(pub telemetry.Publisher, cause error) {
	msg := telemetry.NewError(telemetry.CodeLoopFailure, cause.Error())
	if err := pub.Publish(msg); err != nil {
		r.log.Debugw("loop failure telemetry dropped", "error", err)
	}
}

func waitFor(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
