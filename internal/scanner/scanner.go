package scanner

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lsst-ts/ts-audiotrigger/internal/telemetry"
)

// Scanner runs one temperature scan cycle: parse the newest serial
// frame, fold its mean into the rolling window, republish the smoothed
// value and drive the fan from the raw designated-channel reading.
type Scanner struct {
	log    *zap.SugaredLogger
	reader *FrameReader
	window *Window
	fan    *FanController
	ess    telemetry.Publisher
}

// New creates a Scanner.
func New(log *zap.SugaredLogger, reader *FrameReader, window *Window, fan *FanController, ess telemetry.Publisher) *Scanner {
	return &Scanner{
		log:    log,
		reader: reader,
		window: window,
		fan:    fan,
		ess:    ess,
	}
}

// Window exposes the rolling window for inspection.
func (s *Scanner) Window() *Window {
	return s.window
}

// Cycle performs one scan iteration. A cycle with nothing buffered yet
// is not an error.
func (s *Scanner) Cycle() error {
	frame, err := s.reader.Poll()
	if err != nil {
		if errors.Is(err, ErrNoData) || errors.Is(err, ErrIncompleteFrame) {
			s.log.Debugw("no complete frame this cycle", "reason", err)

			return nil
		}

		return fmt.Errorf("scan cycle: %w", err)
	}

	s.window.Push(frame.Mean())

	if err := s.ess.Publish(telemetry.NewNewTemperature(s.window.Latest())); err != nil {
		s.log.Errorw("temperature telemetry publish failed", "error", err)
	}

	// The fan decision always uses the raw latest reading, not the
	// smoothed window.
	ambient, ok := frame.Value(FanSensorLabel)
	if !ok {
		return fmt.Errorf("scan cycle: channel %q missing from frame", FanSensorLabel)
	}

	return s.fan.Apply(ambient)
}

// FanOff forces the fan relay off, used on shutdown.
func (s *Scanner) FanOff() error {
	return s.fan.Off()
}
