package scanner

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lsst-ts/ts-audiotrigger/internal/hardware"
	"github.com/lsst-ts/ts-audiotrigger/internal/telemetry"
)

// FanState is the logical state of the exhaust fan.
type FanState string

const (
	// FanOn means the fan relay is energized.
	FanOn FanState = "ON"
	// FanOff means the fan relay is released.
	FanOff FanState = "OFF"
)

// DecideFan applies the hysteresis band. Comparison is inclusive on
// both ends: at or above on turns the fan on, at or below off turns it
// off, strictly between keeps the current state.
func DecideFan(value, on, off float64, current FanState) FanState {
	switch {
	case value >= on:
		return FanOn
	case value <= off:
		return FanOff
	default:
		return current
	}
}

// FanController drives the exhaust fan relay from the designated
// channel's latest raw reading.
type FanController struct {
	log   *zap.SugaredLogger
	relay *hardware.Relay
	pub   telemetry.Publisher

	onThreshold  float64
	offThreshold float64
}

// NewFanController creates a FanController. onThreshold must exceed
// offThreshold; config validation enforces the positive hysteresis gap.
func NewFanController(log *zap.SugaredLogger, relay *hardware.Relay, pub telemetry.Publisher, onThreshold, offThreshold float64) *FanController {
	return &FanController{
		log:          log,
		relay:        relay,
		pub:          pub,
		onThreshold:  onThreshold,
		offThreshold: offThreshold,
	}
}

// Apply reads the relay back, decides the desired state from the raw
// temperature and only actuates (and publishes) when the state changes.
func (f *FanController) Apply(value float64) error {
	level, err := f.relay.Get()
	if err != nil {
		f.reportRelayFailure(err)

		return fmt.Errorf("read fan relay: %w", err)
	}

	current := FanOff
	if level == hardware.High {
		current = FanOn
	}

	desired := DecideFan(value, f.onThreshold, f.offThreshold, current)
	if desired == current {
		return nil
	}

	target := hardware.Low
	wire := "off"

	if desired == FanOn {
		target = hardware.High
		wire = "on"
	}

	if err := f.relay.Set(target); err != nil {
		f.reportRelayFailure(err)

		return fmt.Errorf("actuate fan relay: %w", err)
	}

	f.log.Infof("fan %s at %.1f deg C", wire, value)

	if err := f.pub.Publish(telemetry.NewSetFan(wire)); err != nil {
		f.log.Errorw("fan telemetry publish failed", "error", err)
	}

	return nil
}

// Off forces the fan relay off, used on shutdown.
func (f *FanController) Off() error {
	if err := f.relay.Set(hardware.Low); err != nil {
		f.reportRelayFailure(err)

		return fmt.Errorf("actuate fan relay: %w", err)
	}

	return nil
}

func (f *FanController) reportRelayFailure(err error) {
	if perr := f.pub.Publish(telemetry.NewError(telemetry.CodeRelayFailure,
		"not configured properly before actuating fan")); perr != nil {
		f.log.Errorw("fan telemetry publish failed", "error", perr)
	}

	f.log.Errorw("fan relay failure", "pin", f.relay.Pin(), "error", err)
}
