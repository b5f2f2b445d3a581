package serialio

import "sync"

// FakePort is a test double backed by an in-memory byte buffer.
type FakePort struct {
	mu  sync.Mutex
	buf []byte

	// Generator, if set, refills an empty buffer on BytesWaiting.
	// Used in simulation mode to emit synthetic sensor frames.
	Generator func() []byte

	// WaitError, if set, will be returned by BytesWaiting.
	WaitError error

	// ReadError, if set, will be returned by Read.
	ReadError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakePort creates an empty FakePort.
func NewFakePort() *FakePort {
	return &FakePort{}
}

// Push appends raw bytes to the buffer.
func (f *FakePort) Push(b []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.buf = append(f.buf, b...)
}

// BytesWaiting returns the number of buffered bytes.
func (f *FakePort) BytesWaiting() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.WaitError != nil {
		return 0, f.WaitError
	}

	if len(f.buf) == 0 && f.Generator != nil {
		f.buf = append(f.buf, f.Generator()...)
	}

	return len(f.buf), nil
}

// Read consumes up to n bytes from the buffer.
func (f *FakePort) Read(n int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ReadError != nil {
		return nil, f.ReadError
	}

	if n > len(f.buf) {
		n = len(f.buf)
	}

	out := append([]byte(nil), f.buf[:n]...)
	f.buf = f.buf[n:]

	return out, nil
}

// Close marks the port as closed.
func (f *FakePort) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Closed = true

	return nil
}
