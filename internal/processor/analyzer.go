package processor

import (
	"math"
)

// SilenceDB is the level reported for digital silence.
const SilenceDB = -90.0

// noiseWindowSec is the length of the windows scanned for the noise floor.
const noiseWindowSec = 0.250

// Measurements contains the level analysis that drives adaptive gating
type Measurements struct {
	Duration   float64 `json:"duration"`    // seconds
	PeakLevel  float64 `json:"peak_level"`  // dBFS
	RMSLevel   float64 `json:"rms_level"`   // dBFS
	NoiseFloor float64 `json:"noise_floor"` // RMS of the quietest 250ms window (dBFS)

	// Windows that were scanned for the noise floor
	NoiseWindows int `json:"noise_windows"`

	// Gate threshold derived from the noise floor (linear amplitude)
	SuggestedGateThreshold float64 `json:"suggested_gate_threshold"`
}

// AnalyzeSamples measures peak, RMS and noise floor of a mono signal.
//
// The noise floor is the RMS of the quietest 250ms window. Signals shorter
// than one window use the whole signal.
func AnalyzeSamples(samples []float64, sampleRate int) *Measurements {
	m := &Measurements{
		PeakLevel:  SilenceDB,
		RMSLevel:   SilenceDB,
		NoiseFloor: SilenceDB,
	}
	if sampleRate > 0 {
		m.Duration = float64(len(samples)) / float64(sampleRate)
	}

	if len(samples) > 0 {
		var peak, sumSq float64
		for _, v := range samples {
			peak = math.Max(peak, math.Abs(v))
			sumSq += v * v
		}
		m.PeakLevel = LinearToDb(peak)
		m.RMSLevel = LinearToDb(math.Sqrt(sumSq / float64(len(samples))))

		floor, windows := quietestWindowRMS(samples, windowSize(sampleRate))
		m.NoiseFloor = LinearToDb(floor)
		m.NoiseWindows = windows
	}

	m.SuggestedGateThreshold = suggestGateThreshold(m.NoiseFloor)
	return m
}

func windowSize(sampleRate int) int {
	return max(1, int(math.Round(noiseWindowSec*float64(sampleRate))))
}

// quietestWindowRMS returns the lowest RMS over consecutive non-overlapping
// windows and how many windows were scanned. A trailing partial window only
// counts when it is the only one.
func quietestWindowRMS(samples []float64, window int) (float64, int) {
	if len(samples) < window {
		return rms(samples), 1
	}

	lowest := math.Inf(1)
	windows := 0
	for start := 0; start+window <= len(samples); start += window {
		lowest = math.Min(lowest, rms(samples[start:start+window]))
		windows++
	}
	return lowest, windows
}

func rms(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sumSq float64
	for _, v := range samples {
		sumSq += v * v
	}
	return math.Sqrt(sumSq / float64(len(samples)))
}
