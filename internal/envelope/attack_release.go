package envelope

// AttackRelease follows a signal with separate rise and fall response times.
//
// Rising input (input > state) is smoothed by the attack detector, flat or
// falling input by the release detector. Fast attack with slow release catches
// onsets quickly without letting the envelope chatter down to silence.
type AttackRelease struct {
	attack  Detector
	release Detector
	state   float64
}

// NewAttackRelease creates an envelope follower. Attack and release are time
// constants in milliseconds; both detectors share the sample rate.
func NewAttackRelease(attackMs, releaseMs, sampleRateHz float64) (*AttackRelease, error) {
	attack, err := NewDetector(attackMs, sampleRateHz)
	if err != nil {
		return nil, err
	}
	release, err := NewDetector(releaseMs, sampleRateHz)
	if err != nil {
		return nil, err
	}
	return &AttackRelease{attack: *attack, release: *release}, nil
}

// Attack returns the attack time constant in milliseconds.
func (e *AttackRelease) Attack() float64 { return e.attack.TimeConstant() }

// SetAttack changes the attack time constant.
func (e *AttackRelease) SetAttack(ms float64) error { return e.attack.SetTimeConstant(ms) }

// Release returns the release time constant in milliseconds.
func (e *AttackRelease) Release() float64 { return e.release.TimeConstant() }

// SetRelease changes the release time constant.
func (e *AttackRelease) SetRelease(ms float64) error { return e.release.SetTimeConstant(ms) }

// SampleRate returns the shared sample rate in Hz.
func (e *AttackRelease) SampleRate() float64 { return e.attack.SampleRate() }

// SetSampleRate updates both detectors. Either both change or neither does.
func (e *AttackRelease) SetSampleRate(hz float64) error {
	attackCoeff, err := coefficient(e.attack.timeConstant, hz)
	if err != nil {
		return err
	}
	releaseCoeff, err := coefficient(e.release.timeConstant, hz)
	if err != nil {
		return err
	}

	e.attack.sampleRate, e.attack.coeff = hz, attackCoeff
	e.release.sampleRate, e.release.coeff = hz, releaseCoeff
	return nil
}

// Step applies one step to an explicit state without touching the follower's
// own state.
func (e *AttackRelease) Step(input, state float64) float64 {
	if input > state {
		return e.attack.Step(input, state)
	}
	return e.release.Step(input, state)
}

// Run feeds one input sample, updates the internal state and returns it.
func (e *AttackRelease) Run(input float64) float64 {
	e.state = e.Step(input, e.state)
	return e.state
}

// State returns the most recent envelope value.
func (e *AttackRelease) State() float64 { return e.state }

// SetState overrides the internal state.
func (e *AttackRelease) SetState(v float64) { e.state = v }

// Reset returns the state to zero.
func (e *AttackRelease) Reset() { e.state = 0 }
