package scanner

// Window is a fixed-length history of averaged readings used for
// smoothed telemetry. The newest value sits at position 0; pushing
// shifts every entry one position toward the tail and discards the
// oldest. The first push fills the whole window so telemetry never
// shows a cold-start transient of zeros.
type Window struct {
	vals   []float64
	primed bool
}

// NewWindow creates a window of length n.
func NewWindow(n int) *Window {
	if n < 1 {
		n = 1
	}

	return &Window{vals: make([]float64, n)}
}

// Push inserts a new averaged value at position 0.
func (w *Window) Push(mean float64) {
	if !w.primed {
		for i := range w.vals {
			w.vals[i] = mean
		}

		w.primed = true

		return
	}

	for i := len(w.vals) - 1; i > 0; i-- {
		w.vals[i] = w.vals[i-1]
	}

	w.vals[0] = mean
}

// Latest returns the newest value.
func (w *Window) Latest() float64 {
	return w.vals[0]
}

// Values returns a copy of the window, newest first.
func (w *Window) Values() []float64 {
	return append([]float64(nil), w.vals...)
}

// Len returns the fixed window length.
func (w *Window) Len() int {
	return len(w.vals)
}

// Primed reports whether the first fill has happened.
func (w *Window) Primed() bool {
	return w.primed
}
