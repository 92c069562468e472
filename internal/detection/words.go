package detection

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Normalize rescales curve in place so that its largest value equals its
// length, which puts the amplitude axis on the same scale as the index axis
// and keeps angle thresholds meaningful whatever the input units. Empty,
// all-zero or negative curves are left as they are.
func Normalize(curve []float64) {
	if len(curve) == 0 {
		return
	}
	peak := floats.Max(curve)
	if !(peak > 0) || math.IsInf(peak, 1) {
		return
	}
	floats.Scale(float64(len(curve))/peak, curve)
}

// Normalized returns a rescaled copy of curve, leaving the input untouched.
func Normalized(curve []float64) []float64 {
	out := make([]float64, len(curve))
	copy(out, curve)
	Normalize(out)
	return out
}

// CountWords returns the number of peaks FindExtrema reports for curve.
// Valleys are computed but do not contribute.
func CountWords(curve []float64, cfg ExtremaConfig) int {
	peaks, _ := FindExtrema(curve, cfg)
	return len(peaks)
}

// CountSignal normalises a copy of an already smoothed amplitude signal and
// counts its peaks. The input slice is not modified.
func CountSignal(signal []float64, cfg ExtremaConfig) int {
	return CountWords(Normalized(signal), cfg)
}
