package processor

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// movingAverage returns the centred mean over window samples. Near the edges
// the mean covers only the samples that exist.
func movingAverage(in []float64, window int) []float64 {
	n := len(in)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	prefix := make([]float64, n+1)
	for i, v := range in {
		prefix[i+1] = prefix[i] + v
	}

	half := window / 2
	for i := range out {
		lo := max(0, i-half)
		hi := min(n, i+half+1)
		out[i] = (prefix[hi] - prefix[lo]) / float64(hi-lo)
	}
	return out
}

// biquad is a direct form I second-order section with normalised coefficients.
type biquad struct {
	b0, b1, b2, a1, a2 float64
}

// newNotch designs an RBJ cookbook notch at freq Hz.
func newNotch(freq, q float64, sampleRate int) biquad {
	w0 := 2 * math.Pi * freq / float64(sampleRate)
	alpha := math.Sin(w0) / (2 * q)
	cosw := math.Cos(w0)
	a0 := 1 + alpha

	return biquad{
		b0: 1 / a0,
		b1: -2 * cosw / a0,
		b2: 1 / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha) / a0,
	}
}

// filter runs the section over buf in place from zero state.
func (f biquad) filter(buf []float64) {
	var x1, x2, y1, y2 float64
	for i, x := range buf {
		y := f.b0*x + f.b1*x1 + f.b2*x2 - f.a1*y1 - f.a2*y2
		x2, x1 = x1, x
		y2, y1 = y1, y
		buf[i] = y
	}
}

// fftLowPass zeroes every bin above cutoff Hz and transforms back.
func fftLowPass(in []float64, cutoff float64, sampleRate int) []float64 {
	n := len(in)
	if n < 2 {
		return append([]float64(nil), in...)
	}

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, in)

	binHz := float64(sampleRate) / float64(n)
	for i := range coeff {
		if float64(i)*binHz > cutoff {
			coeff[i] = 0
		}
	}

	out := fft.Sequence(nil, coeff)
	floats.Scale(1/float64(n), out)
	return out
}
