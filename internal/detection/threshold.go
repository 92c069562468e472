package detection

import (
	"fmt"
	"math"
)

// ThresholdCounter is a streaming word counter based on a fixed silence gate.
//
// Samples are judged in blocks of Window samples. A block whose mean absolute
// amplitude is below the gate is silent and is zeroed in place. Every change
// from silence to sound counts as one word. Counting is on that rising edge,
// not when silence follows sound, so a stream that ends mid-word still counts
// its last word and trailing silence adds nothing. State carries over between
// Process calls, so a long stream may be fed in arbitrary buffer sizes as long
// as the buffers are multiples of the window.
type ThresholdCounter struct {
	gate   float64
	window int
	silent bool
	count  int
}

// NewThresholdCounter creates a counter with a linear amplitude gate and a
// block size in samples.
func NewThresholdCounter(gate float64, window int) (*ThresholdCounter, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w: threshold window must be at least 1 sample, got %d", ErrInvalidConfiguration, window)
	}
	if !(gate >= 0) || math.IsInf(gate, 0) {
		return nil, fmt.Errorf("%w: threshold gate must be a non-negative number, got %v", ErrInvalidConfiguration, gate)
	}
	return &ThresholdCounter{gate: gate, window: window, silent: true}, nil
}

// Process judges buf block by block, zeroing silent blocks. A trailing partial
// block is judged on the samples it has.
func (tc *ThresholdCounter) Process(buf []float64) {
	for start := 0; start < len(buf); start += tc.window {
		end := min(start+tc.window, len(buf))
		block := buf[start:end]

		var sum float64
		for _, s := range block {
			sum += math.Abs(s)
		}

		if sum/float64(len(block)) < tc.gate {
			clear(block)
			tc.silent = true
			continue
		}

		if tc.silent {
			tc.count++
		}
		tc.silent = false
	}
}

// Count returns the number of sound onsets seen so far.
func (tc *ThresholdCounter) Count() int { return tc.count }

// Reset clears the count and returns to the silent state.
func (tc *ThresholdCounter) Reset() {
	tc.count = 0
	tc.silent = true
}
