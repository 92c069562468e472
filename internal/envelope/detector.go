// Package envelope provides one-pole envelope followers and a noise gate
// built on top of them.
//
// Every type in this package carries per-stream state. An instance must be
// owned by exactly one audio stream; to process several channels in parallel,
// create one instance per channel. Instances share nothing with each other, so
// no locking is needed when that rule is followed.
package envelope

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfiguration is returned when a time constant or sample rate is
// not a positive finite number.
var ErrInvalidConfiguration = errors.New("invalid envelope configuration")

// Detector is a single-pole exponential smoother (one-pole IIR low-pass).
//
// Each call to Run moves the state towards the input by a fraction set by the
// time constant: state' = input + coeff*(state-input).
type Detector struct {
	timeConstant float64 // milliseconds
	sampleRate   float64 // Hz
	coeff        float64
	state        float64
}

// NewDetector creates a Detector with the given time constant in milliseconds
// and sample rate in Hz. Both must be positive.
func NewDetector(timeConstantMs, sampleRateHz float64) (*Detector, error) {
	coeff, err := coefficient(timeConstantMs, sampleRateHz)
	if err != nil {
		return nil, err
	}
	return &Detector{
		timeConstant: timeConstantMs,
		sampleRate:   sampleRateHz,
		coeff:        coeff,
	}, nil
}

// coefficient derives the per-sample decay ratio exp(-1 / (0.001*ms*rate)).
// The result must lie strictly between 0 and 1.
func coefficient(timeConstantMs, sampleRateHz float64) (float64, error) {
	if !(timeConstantMs > 0) || math.IsInf(timeConstantMs, 0) {
		return 0, fmt.Errorf("%w: time constant must be positive, got %v ms", ErrInvalidConfiguration, timeConstantMs)
	}
	if !(sampleRateHz > 0) || math.IsInf(sampleRateHz, 0) {
		return 0, fmt.Errorf("%w: sample rate must be positive, got %v Hz", ErrInvalidConfiguration, sampleRateHz)
	}

	coeff := math.Exp(-1.0 / (0.001 * timeConstantMs * sampleRateHz))
	if coeff <= 0 || coeff >= 1 {
		return 0, fmt.Errorf("%w: %v ms at %v Hz gives degenerate coefficient %v",
			ErrInvalidConfiguration, timeConstantMs, sampleRateHz, coeff)
	}
	return coeff, nil
}

// TimeConstant returns the time constant in milliseconds.
func (d *Detector) TimeConstant() float64 { return d.timeConstant }

// SetTimeConstant changes the time constant and recomputes the coefficient.
// On error the detector is left unchanged.
func (d *Detector) SetTimeConstant(ms float64) error {
	coeff, err := coefficient(ms, d.sampleRate)
	if err != nil {
		return err
	}
	d.timeConstant = ms
	d.coeff = coeff
	return nil
}

// SampleRate returns the sample rate in Hz.
func (d *Detector) SampleRate() float64 { return d.sampleRate }

// SetSampleRate changes the sample rate and recomputes the coefficient.
// On error the detector is left unchanged.
func (d *Detector) SetSampleRate(hz float64) error {
	coeff, err := coefficient(d.timeConstant, hz)
	if err != nil {
		return err
	}
	d.sampleRate = hz
	d.coeff = coeff
	return nil
}

// Coefficient returns the current decay coefficient.
func (d *Detector) Coefficient() float64 { return d.coeff }

// Step applies one smoothing step to an explicit state and returns the new
// state. It does not touch the detector's own state.
func (d *Detector) Step(input, state float64) float64 {
	return input + d.coeff*(state-input)
}

// Run feeds one input sample, updates the internal state and returns it.
func (d *Detector) Run(input float64) float64 {
	d.state = d.Step(input, d.state)
	return d.state
}

// State returns the most recent smoothed value.
func (d *Detector) State() float64 { return d.state }

// SetState overrides the internal state, e.g. to seed it with a known level.
func (d *Detector) SetState(v float64) { d.state = v }

// Reset returns the state to zero.
func (d *Detector) Reset() { d.state = 0 }
