// Package processor prepares audio for word detection and runs the counting
// pipeline over files.
package processor

import (
	"fmt"
	"math"

	"github.com/linuxmatters/speechenergy/internal/detection"
	"github.com/linuxmatters/speechenergy/internal/envelope"
	"github.com/linuxmatters/speechenergy/internal/mains"
)

// FilterID identifies a stage in the pre-filter chain
type FilterID string

// Filter identifiers for the pre-filter chain
const (
	FilterHumNotch      FilterID = "humnotch"      // RBJ notch at mains frequency and harmonics
	FilterFFTLowPass    FilterID = "fftlowpass"    // Brick-wall low-pass in the frequency domain
	FilterMovingAverage FilterID = "movingaverage" // Centred moving average
	FilterGate          FilterID = "gate"          // Envelope gate, silences sub-threshold passages
	FilterEnvelope      FilterID = "envelope"      // Rectify + attack/release smoothing
	FilterSmooth        FilterID = "smooth"        // Repeated moving average over the envelope
)

// DefaultFilterOrder defines the chain that feeds the extrema finder.
// Hum notch and low-pass run first so they clean the signal the moving average
// sees; both are disabled by default. Gate before envelope so the envelope
// curve is flat in pauses. Smooth runs last to remove the carrier ripple the
// envelope leaves behind, which would otherwise read as extra extrema.
var DefaultFilterOrder = []FilterID{
	FilterHumNotch,
	FilterFFTLowPass,
	FilterMovingAverage,
	FilterGate,
	FilterEnvelope,
	FilterSmooth,
}

// Filter transforms a sample sequence into a new sequence of the same length.
type Filter func([]float64) []float64

// Stage is one built, enabled filter in a chain.
type Stage struct {
	ID    FilterID
	Apply Filter
}

// filterBuilderFunc builds a filter from config.
// Returns a nil Filter when the stage is disabled.
type filterBuilderFunc func(*FilterChainConfig) (Filter, error)

// filterBuilders maps FilterID to its builder function.
var filterBuilders = map[FilterID]filterBuilderFunc{
	FilterHumNotch:      (*FilterChainConfig).buildHumNotchFilter,
	FilterFFTLowPass:    (*FilterChainConfig).buildLowPassFilter,
	FilterMovingAverage: (*FilterChainConfig).buildMovingAverageFilter,
	FilterGate:          (*FilterChainConfig).buildGateFilter,
	FilterEnvelope:      (*FilterChainConfig).buildEnvelopeFilter,
	FilterSmooth:        (*FilterChainConfig).buildSmoothFilter,
}

// FilterChainConfig holds configuration for the pre-filter chain
type FilterChainConfig struct {
	// SampleRate of the signal the chain runs over, set by the caller
	SampleRate int

	// Hum notch - mains hum removal
	HumNotchEnabled bool
	HumFrequency    float64 // Hz, fundamental (50 or 60). 0 disables the stage
	HumHarmonics    int     // fundamental plus harmonics to notch
	HumQ            float64 // notch quality factor

	// FFT low-pass - removes content above the speech band
	LowPassEnabled bool
	LowPassFreq    float64 // Hz

	// Moving average - removes sample-level jitter
	MovingAverageEnabled bool
	MovingAverageWindow  int // samples, odd

	// Gate - silences everything below threshold
	GateEnabled   bool
	GateAttack    float64 // ms
	GateRelease   float64 // ms
	GateThreshold float64 // linear amplitude
	GateAdaptive  bool    // derive GateThreshold from the measured noise floor

	// Envelope - rectification and smoothing
	EnvelopeEnabled bool
	EnvelopeAttack  float64 // ms
	EnvelopeRelease float64 // ms

	// Smooth - flattens envelope ripple
	SmoothEnabled bool
	SmoothWindow  float64 // ms
	SmoothPasses  int

	// Filter chain order
	FilterOrder []FilterID

	// Measurements the config was adapted from, nil until AdaptConfig runs
	Measurements *Measurements
}

// DefaultFilterConfig returns the chain used to count words in speech: moving
// average of 19 samples, a 30/30 ms gate, a 10/50 ms envelope and two 20 ms
// smoothing passes.
func DefaultFilterConfig() *FilterChainConfig {
	return &FilterChainConfig{
		HumNotchEnabled: false,
		HumFrequency:    mains.Hz50,
		HumHarmonics:    defaultHumHarmonics,
		HumQ:            defaultHumQ,

		LowPassEnabled: false,
		LowPassFreq:    4000.0, // upper edge of speech intelligibility band

		MovingAverageEnabled: true,
		MovingAverageWindow:  19,

		GateEnabled:   true,
		GateAttack:    30,
		GateRelease:   30,
		GateThreshold: defaultGateThreshold,
		GateAdaptive:  true,

		EnvelopeEnabled: true,
		EnvelopeAttack:  10,
		EnvelopeRelease: 50,

		SmoothEnabled: true,
		SmoothWindow:  20,
		SmoothPasses:  2,

		FilterOrder: DefaultFilterOrder,
	}
}

// DbToLinear converts decibel value to linear amplitude.
func DbToLinear(db float64) float64 {
	return math.Pow(10, db/20.0)
}

// LinearToDb converts linear amplitude to decibels, floored at SilenceDB.
func LinearToDb(linear float64) float64 {
	if linear <= 0 {
		return SilenceDB
	}
	return math.Max(SilenceDB, 20.0*math.Log10(linear))
}

// Validate checks the enabled stages and the order for bad values.
func (cfg *FilterChainConfig) Validate() error {
	if cfg.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", detection.ErrInvalidConfiguration, cfg.SampleRate)
	}
	for _, id := range cfg.FilterOrder {
		if _, ok := filterBuilders[id]; !ok {
			return fmt.Errorf("%w: unknown filter %q", detection.ErrInvalidConfiguration, id)
		}
	}
	if cfg.MovingAverageEnabled && (cfg.MovingAverageWindow < 1 || cfg.MovingAverageWindow%2 == 0) {
		return fmt.Errorf("%w: moving average window %d must be odd and positive",
			detection.ErrInvalidConfiguration, cfg.MovingAverageWindow)
	}
	if cfg.HumNotchEnabled && cfg.HumFrequency > 0 && (cfg.HumQ <= 0 || cfg.HumHarmonics < 1) {
		return fmt.Errorf("%w: hum notch Q %.2f harmonics %d",
			detection.ErrInvalidConfiguration, cfg.HumQ, cfg.HumHarmonics)
	}
	if cfg.LowPassEnabled && (cfg.LowPassFreq <= 0 || math.IsNaN(cfg.LowPassFreq)) {
		return fmt.Errorf("%w: low-pass frequency %.1f", detection.ErrInvalidConfiguration, cfg.LowPassFreq)
	}
	if cfg.GateEnabled && (cfg.GateThreshold < 0 || math.IsNaN(cfg.GateThreshold)) {
		return fmt.Errorf("%w: gate threshold %v", detection.ErrInvalidConfiguration, cfg.GateThreshold)
	}
	if cfg.SmoothEnabled && (!(cfg.SmoothWindow > 0) || math.IsInf(cfg.SmoothWindow, 0) || cfg.SmoothPasses < 1) {
		return fmt.Errorf("%w: smoothing window %v ms passes %d",
			detection.ErrInvalidConfiguration, cfg.SmoothWindow, cfg.SmoothPasses)
	}
	return nil
}

// BuildChain builds the enabled stages in FilterOrder. Disabled stages are
// skipped; unknown IDs and invalid parameters fail the whole chain.
func (cfg *FilterChainConfig) BuildChain() ([]Stage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var chain []Stage
	for _, id := range cfg.FilterOrder {
		f, err := filterBuilders[id](cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", detection.ErrInvalidConfiguration, id, err)
		}
		if f != nil {
			chain = append(chain, Stage{ID: id, Apply: f})
		}
	}
	return chain, nil
}

// buildHumNotchFilter cascades one notch per harmonic below Nyquist.
func (cfg *FilterChainConfig) buildHumNotchFilter() (Filter, error) {
	if !cfg.HumNotchEnabled || cfg.HumFrequency <= 0 {
		return nil, nil
	}

	freqs := mains.Harmonics(cfg.HumFrequency, cfg.HumHarmonics, cfg.SampleRate)
	if len(freqs) == 0 {
		return nil, nil
	}

	notches := make([]biquad, len(freqs))
	for i, f := range freqs {
		notches[i] = newNotch(f, cfg.HumQ, cfg.SampleRate)
	}

	return func(in []float64) []float64 {
		out := append([]float64(nil), in...)
		for _, n := range notches {
			n.filter(out)
		}
		return out
	}, nil
}

func (cfg *FilterChainConfig) buildLowPassFilter() (Filter, error) {
	if !cfg.LowPassEnabled {
		return nil, nil
	}
	// At or above Nyquist there is nothing to remove
	if cfg.LowPassFreq >= float64(cfg.SampleRate)/2 {
		return nil, nil
	}
	cutoff, rate := cfg.LowPassFreq, cfg.SampleRate
	return func(in []float64) []float64 {
		return fftLowPass(in, cutoff, rate)
	}, nil
}

func (cfg *FilterChainConfig) buildMovingAverageFilter() (Filter, error) {
	if !cfg.MovingAverageEnabled || cfg.MovingAverageWindow == 1 {
		return nil, nil
	}
	window := cfg.MovingAverageWindow
	return func(in []float64) []float64 {
		return movingAverage(in, window)
	}, nil
}

// buildGateFilter validates the gate parameters up front; each call of the
// returned filter runs its own Gate so concurrent streams never share state.
func (cfg *FilterChainConfig) buildGateFilter() (Filter, error) {
	if !cfg.GateEnabled {
		return nil, nil
	}
	attack, release, rate, threshold := cfg.GateAttack, cfg.GateRelease, float64(cfg.SampleRate), cfg.GateThreshold
	if _, err := envelope.NewGate(attack, release, rate, threshold); err != nil {
		return nil, err
	}

	return func(in []float64) []float64 {
		g, _ := envelope.NewGate(attack, release, rate, threshold)
		out := append([]float64(nil), in...)
		g.ProcessBuffer(out)
		return out
	}, nil
}

func (cfg *FilterChainConfig) buildEnvelopeFilter() (Filter, error) {
	if !cfg.EnvelopeEnabled {
		return nil, nil
	}
	attack, release, rate := cfg.EnvelopeAttack, cfg.EnvelopeRelease, float64(cfg.SampleRate)
	if _, err := envelope.NewAttackRelease(attack, release, rate); err != nil {
		return nil, err
	}

	return func(in []float64) []float64 {
		env, _ := envelope.NewAttackRelease(attack, release, rate)
		out := make([]float64, len(in))
		for i, v := range in {
			out[i] = env.Run(math.Abs(v))
		}
		return out
	}, nil
}

// buildSmoothFilter converts the window to an odd sample count and runs the
// moving average SmoothPasses times.
func (cfg *FilterChainConfig) buildSmoothFilter() (Filter, error) {
	if !cfg.SmoothEnabled {
		return nil, nil
	}
	window := smoothWindowSamples(cfg.SmoothWindow, cfg.SampleRate)
	if window == 1 {
		return nil, nil
	}
	passes := cfg.SmoothPasses

	return func(in []float64) []float64 {
		out := in
		for i := 0; i < passes; i++ {
			out = movingAverage(out, window)
		}
		return out
	}, nil
}

// smoothWindowSamples returns the odd window nearest to ms at sampleRate.
func smoothWindowSamples(ms float64, sampleRate int) int {
	n := int(math.Round(ms * float64(sampleRate) / 1000))
	if n%2 == 0 {
		n++
	}
	return max(1, n)
}
