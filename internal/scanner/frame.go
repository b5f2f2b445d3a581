package scanner

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/lsst-ts/ts-audiotrigger/internal/serialio"
)

var (
	// ErrNoData means nothing was buffered on the serial port.
	ErrNoData = errors.New("no serial data waiting")
	// ErrIncompleteFrame means the chunk held no complete frame line.
	ErrIncompleteFrame = errors.New("no complete frame in serial chunk")
)

// FrameReader parses the most recent complete frame out of the serial
// stream. It owns the channel table exclusively; consumers get value
// snapshots.
type FrameReader struct {
	log      *zap.SugaredLogger
	port     serialio.Port
	channels []*Channel
	byID     map[string]*Channel
}

// NewFrameReader creates a reader over the given port and channel table.
func NewFrameReader(log *zap.SugaredLogger, port serialio.Port, channels []*Channel) *FrameReader {
	byID := make(map[string]*Channel, len(channels))
	for _, ch := range channels {
		byID[ch.ID] = ch
	}

	return &FrameReader{
		log:      log,
		port:     port,
		channels: channels,
		byID:     byID,
	}
}

// Poll drains the serial buffer and applies the newest complete frame.
// The scanner hardware emits channels at a fixed cadence, so the last
// line of a chunk is frequently still being written; the second-to-last
// line is the newest line guaranteed complete. Never assume the last
// line is complete.
func (r *FrameReader) Poll() (Frame, error) {
	waiting, err := r.port.BytesWaiting()
	if err != nil {
		return Frame{}, fmt.Errorf("poll serial port: %w", err)
	}

	if waiting == 0 {
		return Frame{}, ErrNoData
	}

	raw, err := r.port.Read(waiting)
	if err != nil {
		return Frame{}, fmt.Errorf("read serial port: %w", err)
	}

	lines := strings.Split(string(raw), "\n")
	if len(lines) < 2 {
		return Frame{}, ErrIncompleteFrame
	}

	r.applyLine(lines[len(lines)-2])

	return r.snapshot(), nil
}

// applyLine updates channels from one frame line. Malformed tokens are
// skipped so a noisy stream never aborts the cycle.
func (r *FrameReader) applyLine(line string) {
	for _, token := range strings.Split(line, ",") {
		key, value, found := strings.Cut(token, "=")
		if !found {
			r.log.Debugw("skipping malformed serial token", "token", token)

			continue
		}

		ch, ok := r.byID[strings.TrimSpace(key)]
		if !ok {
			r.log.Debugw("skipping unknown serial channel", "token", token)

			continue
		}

		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			r.log.Debugw("skipping unparsable serial value", "token", token)

			continue
		}

		ch.LastValue = parsed
	}
}

func (r *FrameReader) snapshot() Frame {
	readings := make([]Reading, len(r.channels))
	for i, ch := range r.channels {
		readings[i] = Reading{ID: ch.ID, Label: ch.Label, Value: ch.LastValue}
	}

	return Frame{Readings: readings}
}
