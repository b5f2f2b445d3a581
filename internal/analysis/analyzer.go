// Package analysis detects the 1 kHz acoustic signature of a misaligned
// laser in a recorded audio buffer.
package analysis

import (
	"errors"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// DefaultThreshold is the peak-over-background ratio above which the
// misalignment tone is considered present.
const DefaultThreshold = 10.0

// Band is an open frequency interval in Hz.
type Band struct {
	Low  float64
	High float64
}

// Contains reports whether f lies strictly inside the band.
func (b Band) Contains(f float64) bool {
	return f > b.Low && f < b.High
}

// Detection bands around the 1 kHz misalignment tone.
var (
	// SignalBand is where the tone peak is searched.
	SignalBand = Band{Low: 995, High: 1005}
	// BackgroundBand is where the local background median is taken.
	BackgroundBand = Band{Low: 950, High: 1050}
)

// Verdict classifies the outcome of one analysis pass.
type Verdict int

const (
	// NotDetected means no anomalous tone was found.
	NotDetected Verdict = iota
	// Detected means the tone exceeded the threshold over background.
	Detected
	// Failed means the computation could not run on the given input.
	// Controllers map this to NotDetected as a documented policy.
	Failed
)

// String returns a readable verdict name.
func (v Verdict) String() string {
	switch v {
	case NotDetected:
		return "not detected"
	case Detected:
		return "detected"
	case Failed:
		return "analysis failed"
	default:
		return "unknown"
	}
}

// Result carries the verdict plus the measured band statistics.
type Result struct {
	Verdict    Verdict
	Peak       float64
	Background float64
	Err        error
}

var (
	errTooShort = errors.New("buffer too short for spectral analysis")
	errBadRate  = errors.New("sample rate must be positive")
	errNoBins   = errors.New("no spectrum bins inside detection band")
)

// Analyzer computes power spectral density over one buffer and compares
// the detection band peak against the local background. Stateless; no
// history is kept across calls.
type Analyzer struct {
	Threshold float64
}

// New creates an Analyzer. A non-positive threshold selects the default.
func New(threshold float64) *Analyzer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	return &Analyzer{Threshold: threshold}
}

// Analyze transforms the buffer and reports whether the 1 kHz tone is
// anomalously loud relative to the 950-1050 Hz background median.
func (a *Analyzer) Analyze(samples []float64, sampleRate float64) Result {
	if sampleRate <= 0 {
		return Result{Verdict: Failed, Err: errBadRate}
	}

	// The transform needs an even-length buffer; drop the last sample.
	if len(samples)%2 != 0 {
		samples = samples[:len(samples)-1]
	}

	n := len(samples)
	if n < 2 {
		return Result{Verdict: Failed, Err: errTooShort}
	}

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, samples)

	// Real input: only the first half of the spectrum is informative.
	half := n / 2

	var (
		peak       float64
		peakFound  bool
		background []float64
	)

	for k := 0; k < half; k++ {
		freq := float64(k) * sampleRate / float64(n)
		if !BackgroundBand.Contains(freq) {
			continue
		}

		mag := cmplx.Abs(coeffs[k]) * 2 / float64(n)
		psd := mag * mag

		background = append(background, psd)

		if SignalBand.Contains(freq) {
			if !peakFound || psd > peak {
				peak = psd
				peakFound = true
			}
		}
	}

	if !peakFound || len(background) == 0 {
		return Result{Verdict: Failed, Err: errNoBins}
	}

	sort.Float64s(background)
	median := stat.Quantile(0.5, stat.Empirical, background, nil)

	verdict := NotDetected
	if peak > a.Threshold*median {
		verdict = Detected
	}

	// Guard against a degenerate spectrum where everything is zero.
	if math.IsNaN(peak) || math.IsNaN(median) {
		return Result{Verdict: Failed, Err: errNoBins}
	}

	return Result{Verdict: verdict, Peak: peak, Background: median}
}
