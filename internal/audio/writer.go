package audio

import (
	"bufio"
	"fmt"
	"math"
	"os"

	"github.com/youpy/go-wav"
)

// WriteWAV writes mono samples as 16-bit PCM. Values outside [-1, 1] are
// clipped.
func WriteWAV(filename string, samples []float64, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer f.Close()

	buf := bufio.NewWriter(f)
	writer := wav.NewWriter(buf, uint32(len(samples)), 1, uint32(sampleRate), 16)

	frames := make([]wav.Sample, len(samples))
	for i, v := range samples {
		v = math.Max(-1, math.Min(1, v))
		frames[i].Values[0] = int(math.Round(v * math.MaxInt16))
	}
	if err := writer.WriteSamples(frames); err != nil {
		return fmt.Errorf("failed to write samples to %s: %w", filename, err)
	}

	if err := buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", filename, err)
	}
	return f.Close()
}
