package envelope

import "math"

// GateMode selects what an open gate emits.
type GateMode int

const (
	// GateModePass passes the input sample through unchanged while open.
	GateModePass GateMode = iota
	// GateModeEnvelope emits the envelope value instead of the sample while open.
	GateModeEnvelope
)

// GateState is the open/closed state of a Gate.
type GateState int

const (
	GateClosed GateState = iota
	GateOpen
)

func (s GateState) String() string {
	if s == GateOpen {
		return "open"
	}
	return "closed"
}

// Gate mutes a signal while its envelope sits below a threshold.
//
// The rectified input drives an AttackRelease follower. The gate is open when
// the envelope is at or above the threshold and closed otherwise; the attack
// and release times set how quickly it opens on an onset and closes on decay.
// There is no hysteresis beyond that smoothing.
type Gate struct {
	env       AttackRelease
	threshold float64
	mode      GateMode
	state     GateState
}

// NewGate creates a gate with attack and release in milliseconds and a linear
// amplitude threshold. The gate starts closed with a zero envelope.
func NewGate(attackMs, releaseMs, sampleRateHz, threshold float64) (*Gate, error) {
	env, err := NewAttackRelease(attackMs, releaseMs, sampleRateHz)
	if err != nil {
		return nil, err
	}
	return &Gate{env: *env, threshold: threshold}, nil
}

// Process gates a single sample and returns the output sample.
func (g *Gate) Process(sample float64) float64 {
	level := g.env.Run(math.Abs(sample))

	if level < g.threshold {
		g.state = GateClosed
		return 0
	}

	g.state = GateOpen
	if g.mode == GateModeEnvelope {
		return level
	}
	return sample
}

// ProcessBuffer gates samples in place.
func (g *Gate) ProcessBuffer(samples []float64) {
	for i, s := range samples {
		samples[i] = g.Process(s)
	}
}

// Threshold returns the linear amplitude threshold.
func (g *Gate) Threshold() float64 { return g.threshold }

// SetThreshold changes the linear amplitude threshold.
func (g *Gate) SetThreshold(threshold float64) { g.threshold = threshold }

// Mode returns the output mode.
func (g *Gate) Mode() GateMode { return g.mode }

// SetMode changes the output mode.
func (g *Gate) SetMode(mode GateMode) { g.mode = mode }

// Envelope exposes the follower driving the gate, for tuning attack, release
// and sample rate.
func (g *Gate) Envelope() *AttackRelease { return &g.env }

// State reports whether the gate was open after the last processed sample.
func (g *Gate) State() GateState { return g.state }

// IsOpen is shorthand for State() == GateOpen.
func (g *Gate) IsOpen() bool { return g.state == GateOpen }

// Reset closes the gate and clears the envelope.
func (g *Gate) Reset() {
	g.env.Reset()
	g.state = GateClosed
}
