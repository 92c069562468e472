package processor

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/linuxmatters/speechenergy/internal/audio"
)

// TestSpeechOptions configures the synthetic speech-like signal to generate
type TestSpeechOptions struct {
	SampleRate int     // Sample rate (default: 8000)
	Words      int     // Number of bursts
	SlotSecs   float64 // Seconds per burst including its surrounding silence (default: 0.6)
	Amplitude  float64 // Peak amplitude of each burst (default: 0.8)
	ToneFreq   float64 // Carrier frequency in Hz (0 = bare energy hump)
	NoiseLevel float64 // White noise level in dBFS (0 = no noise)
}

// generateSpeech builds one raised-cosine burst per word, centred in its slot
// with a quarter slot of silence either side.
func generateSpeech(opts TestSpeechOptions) []float64 {
	if opts.SampleRate == 0 {
		opts.SampleRate = 8000
	}
	if opts.SlotSecs == 0 {
		opts.SlotSecs = 0.6
	}
	if opts.Amplitude == 0 {
		opts.Amplitude = 0.8
	}

	slot := int(opts.SlotSecs * float64(opts.SampleRate))
	samples := make([]float64, slot*opts.Words)

	for w := 0; w < opts.Words; w++ {
		start := w*slot + slot/4
		width := slot / 2
		for i := 0; i < width; i++ {
			v := opts.Amplitude * 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(width)))
			if opts.ToneFreq > 0 {
				v *= math.Sin(2 * math.Pi * opts.ToneFreq * float64(i) / float64(opts.SampleRate))
			}
			samples[start+i] = v
		}
	}

	if opts.NoiseLevel < 0 {
		amp := DbToLinear(opts.NoiseLevel)
		// Deterministic LCG noise
		state := uint32(12345)
		for i := range samples {
			state = state*1664525 + 1013904223
			samples[i] += amp * ((float64(state)/float64(math.MaxUint32))*2 - 1)
		}
	}

	return samples
}

// writeTestWAV writes samples to a WAV in a per-test temporary directory.
func writeTestWAV(t *testing.T, name string, samples []float64, sampleRate int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := audio.WriteWAV(path, samples, sampleRate); err != nil {
		t.Fatalf("failed to write test audio: %v", err)
	}
	return path
}

// sine returns n samples of a sine wave.
func sine(freq, amplitude float64, n, sampleRate int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

// peakAbs returns the largest absolute value in samples.
func peakAbs(samples []float64) float64 {
	return peakOf(samples)
}
