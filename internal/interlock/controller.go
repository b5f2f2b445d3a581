// Package interlock turns acoustic detections into laser interlock
// relay transitions with a consecutive-hit threshold and a cooldown.
package interlock

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lsst-ts/ts-audiotrigger/internal/analysis"
	"github.com/lsst-ts/ts-audiotrigger/internal/hardware"
	"github.com/lsst-ts/ts-audiotrigger/internal/telemetry"
)

// Status is the observable interlock state, derived from the relay pin.
type Status string

const (
	// StatusOpen means the laser may propagate.
	StatusOpen Status = "open"
	// StatusClosed means the interlock is engaged and the laser is blocked.
	StatusClosed Status = "closed"
)

// Relay polarity: a high pin engages the interlock (laser blocked),
// a low pin opens it for propagation.
const (
	levelEngaged = hardware.High
	levelOpen    = hardware.Low
)

// Controller owns the interlock relay and the detection streak counter.
// It is driven by one loop goroutine and is not safe for concurrent use.
type Controller struct {
	log   *zap.SugaredLogger
	relay *hardware.Relay
	pub   telemetry.Publisher

	countThreshold int
	cooldown       time.Duration
	count          int

	// sleep waits out the cooldown; injectable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Controller. The relay is not touched until Start.
func New(log *zap.SugaredLogger, relay *hardware.Relay, pub telemetry.Publisher, countThreshold int, cooldown time.Duration) *Controller {
	return &Controller{
		log:            log,
		relay:          relay,
		pub:            pub,
		countThreshold: countThreshold,
		cooldown:       cooldown,
		sleep:          waitFor,
	}
}

// Start commands the relay into the open state. The controller is only
// considered running once this actuation succeeds.
func (c *Controller) Start(ctx context.Context) error {
	return c.Open(ctx)
}

// Open disengages the interlock, allowing laser propagation.
func (c *Controller) Open(ctx context.Context) error {
	if err := c.setRelay(levelOpen); err != nil {
		return err
	}

	c.log.Info("laser interrupt opened")
	c.publish(telemetry.NewSetInterruptState("open"))

	return nil
}

// Close engages the interlock, disabling laser propagation.
func (c *Controller) Close(ctx context.Context) error {
	if err := c.setRelay(levelEngaged); err != nil {
		return err
	}

	c.log.Warn("laser interrupt engaged, laser propagation disabled")
	c.publish(telemetry.NewSetInterruptState("close"))

	return nil
}

// Restart forces an immediate open regardless of the current streak,
// used for manual reset requests.
func (c *Controller) Restart(ctx context.Context) error {
	c.log.Info("reset requested")
	c.publish(telemetry.NewSetInterruptState("reset"))
	c.count = 0

	return c.Open(ctx)
}

// Status reads the relay pin back and reports the observed state.
func (c *Controller) Status(ctx context.Context) (Status, error) {
	level, err := c.relay.Get()
	if err != nil {
		c.reportRelayFailure(err)

		return "", fmt.Errorf("read interlock relay: %w", err)
	}

	status := StatusOpen
	if level == levelEngaged {
		status = StatusClosed
	}

	c.publish(telemetry.NewInterruptStatus(string(status)))

	return status, nil
}

// HitCount returns the current consecutive-detection streak.
func (c *Controller) HitCount() int {
	return c.count
}

// HandleDetection advances the streak state machine with one analysis
// result. A failed analysis is treated as no detection by policy: the
// conservative outcome keeps the laser propagating rather than tripping
// the interlock on bad input.
func (c *Controller) HandleDetection(ctx context.Context, res analysis.Result) error {
	if res.Verdict == analysis.Failed {
		c.log.Debugw("analysis failed, treating as no detection", "error", res.Err)
	}

	if res.Verdict != analysis.Detected {
		c.count = 0

		return nil
	}

	if c.count < c.countThreshold-1 {
		c.count++
		c.log.Infof("experienced value above threshold %d times", c.count)

		return nil
	}

	// This is the Nth consecutive detection: trip the interlock.
	c.log.Warn("detected misalignment in audible safety circuit")

	if err := c.Close(ctx); err != nil {
		return err
	}

	c.log.Warnf("interlock holding closed for %s", c.cooldown)

	if err := c.sleep(ctx, c.cooldown); err != nil {
		return err
	}

	c.log.Warn("interlock re-opening now")

	if err := c.Open(ctx); err != nil {
		return err
	}

	c.count = 0

	return nil
}

// Shutdown forces the interlock into the engaged (safe) state so the
// laser cannot propagate while the daemon is down.
func (c *Controller) Shutdown(ctx context.Context) error {
	return c.Close(ctx)
}

func (c *Controller) setRelay(level hardware.Level) error {
	if err := c.relay.Set(level); err != nil {
		c.reportRelayFailure(err)

		return fmt.Errorf("actuate interlock relay: %w", err)
	}

	return nil
}

func (c *Controller) reportRelayFailure(err error) {
	c.publish(telemetry.NewError(telemetry.CodeRelayFailure,
		"not configured properly before actuating relay"))
	c.log.Errorw("interlock relay failure", "pin", c.relay.Pin(), "error", err)
}

// publish drops telemetry errors after logging; a telemetry failure
// must never interrupt an actuation sequence.
func (c *Controller) publish(msg telemetry.Message) {
	if err := c.pub.Publish(msg); err != nil {
		c.log.Errorw("telemetry publish failed", "kind", msg.Kind(), "error", err)
	}
}

func waitFor(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
