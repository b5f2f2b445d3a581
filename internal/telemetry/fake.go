package telemetry

import (
	"encoding/json"
	"sync"
)

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	mu sync.Mutex

	// Messages contains all messages that passed validation.
	Messages []Message

	// Payloads contains the JSON payloads that would have been written.
	Payloads [][]byte

	// PublishError, if set, will be returned by Publish after validation.
	PublishError error

	// Subscriber controls the return value of Connected.
	Subscriber bool

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakePublisher creates a FakePublisher with a subscriber attached.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Subscriber: true}
}

// Publish validates and records the message.
func (f *FakePublisher) Publish(msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PublishError != nil {
		return f.PublishError
	}

	if !f.Subscriber {
		// Dropped, same as the real server with no subscriber.
		return nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	f.Messages = append(f.Messages, msg)
	f.Payloads = append(f.Payloads, payload)

	return nil
}

// Connected reports whether the fake has a "subscriber".
func (f *FakePublisher) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.Subscriber
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Closed = true

	return nil
}

// OfKind returns the recorded messages with the given kind tag.
func (f *FakePublisher) OfKind(kind string) []Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []Message

	for _, m := range f.Messages {
		if m.Kind() == kind {
			out = append(out, m)
		}
	}

	return out
}

// Reset clears recorded messages.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Messages = nil
	f.Payloads = nil
	f.PublishError = nil
	f.Closed = false
}
