package processor

import (
	"math"
	"testing"
)

func TestAnalyzeSamples(t *testing.T) {
	const rate = 8000

	t.Run("silence", func(t *testing.T) {
		m := AnalyzeSamples(make([]float64, rate), rate)
		if m.PeakLevel != SilenceDB || m.RMSLevel != SilenceDB || m.NoiseFloor != SilenceDB {
			t.Errorf("silence levels = %v/%v/%v, want %v", m.PeakLevel, m.RMSLevel, m.NoiseFloor, SilenceDB)
		}
		if want := DbToLinear(gateThresholdMinDB); math.Abs(m.SuggestedGateThreshold-want) > 1e-12 {
			t.Errorf("SuggestedGateThreshold = %v, want %v", m.SuggestedGateThreshold, want)
		}
		if m.Duration != 1 {
			t.Errorf("Duration = %v, want 1", m.Duration)
		}
	})

	t.Run("full scale sine", func(t *testing.T) {
		m := AnalyzeSamples(sine(1000, 1, rate, rate), rate)
		if math.Abs(m.PeakLevel) > 1e-6 {
			t.Errorf("PeakLevel = %v, want 0", m.PeakLevel)
		}
		if math.Abs(m.RMSLevel-(-3.0103)) > 0.01 {
			t.Errorf("RMSLevel = %v, want -3.01", m.RMSLevel)
		}
		if m.NoiseWindows != 4 {
			t.Errorf("NoiseWindows = %d, want 4", m.NoiseWindows)
		}
	})

	t.Run("quietest window", func(t *testing.T) {
		samples := sine(1000, 0.5, rate, rate)
		// Second window carries a much quieter tone
		for i := 2000; i < 4000; i++ {
			samples[i] *= 0.01
		}
		m := AnalyzeSamples(samples, rate)

		want := LinearToDb(0.005 / math.Sqrt2)
		if math.Abs(m.NoiseFloor-want) > 0.01 {
			t.Errorf("NoiseFloor = %v, want %v", m.NoiseFloor, want)
		}
	})

	t.Run("shorter than one window", func(t *testing.T) {
		samples := []float64{0.5, -0.5, 0.5, -0.5}
		m := AnalyzeSamples(samples, rate)
		if math.Abs(m.NoiseFloor-LinearToDb(0.5)) > 1e-9 {
			t.Errorf("NoiseFloor = %v, want %v", m.NoiseFloor, LinearToDb(0.5))
		}
		if m.NoiseWindows != 1 {
			t.Errorf("NoiseWindows = %d, want 1", m.NoiseWindows)
		}
	})

	t.Run("empty", func(t *testing.T) {
		m := AnalyzeSamples(nil, rate)
		if m.NoiseFloor != SilenceDB || m.Duration != 0 {
			t.Errorf("empty analysis = %+v", m)
		}
	})
}

func TestQuietestWindowRMS(t *testing.T) {
	samples := []float64{1, 1, 0.5, 0.5, 2, 2, 0.1}
	got, windows := quietestWindowRMS(samples, 2)
	if got != 0.5 {
		t.Errorf("quietestWindowRMS = %v, want 0.5", got)
	}
	// Trailing partial window is ignored
	if windows != 3 {
		t.Errorf("windows = %d, want 3", windows)
	}
}
