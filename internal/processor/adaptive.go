package processor

import "math"

// Adaptive tuning constants for the pre-filter chain.
const (
	// Gate threshold safety bounds (applied after data-driven calculation)
	gateThresholdMinDB = -70.0 // dB - professional studio floor
	gateThresholdMaxDB = -25.0 // dB - never gate above this (would cut speech)

	// Noise floor quality thresholds
	noiseFloorClean   = -60.0 // dBFS - very clean recording
	noiseFloorTypical = -50.0 // dBFS - typical recording

	// Headroom above the noise floor, wider for cleaner recordings
	gateHeadroomClean   = 10.0 // dB
	gateHeadroomTypical = 8.0  // dB
	gateHeadroomNoisy   = 6.0  // dB

	defaultGateThreshold = 0.01 // -40dBFS
	defaultHumHarmonics  = 3
	defaultHumQ          = 30.0
	maxHumHarmonics      = 8
)

// AdaptConfig tunes the chain from the measurements of the signal it is
// about to process. It updates config in place.
func AdaptConfig(config *FilterChainConfig, measurements *Measurements) {
	config.Measurements = measurements

	tuneGateThreshold(config, measurements)
	tuneLowPass(config)

	sanitizeConfig(config)
}

// suggestGateThreshold places the gate above the noise floor and returns it
// in linear amplitude.
func suggestGateThreshold(noiseFloorDB float64) float64 {
	var headroom float64
	switch {
	case noiseFloorDB < noiseFloorClean:
		headroom = gateHeadroomClean
	case noiseFloorDB < noiseFloorTypical:
		headroom = gateHeadroomTypical
	default:
		headroom = gateHeadroomNoisy
	}
	return DbToLinear(clamp(noiseFloorDB+headroom, gateThresholdMinDB, gateThresholdMaxDB))
}

// tuneGateThreshold replaces the fixed threshold with the measured one when
// the gate is adaptive.
func tuneGateThreshold(config *FilterChainConfig, measurements *Measurements) {
	if !config.GateAdaptive || measurements == nil {
		return
	}
	if measurements.SuggestedGateThreshold > 0 {
		config.GateThreshold = measurements.SuggestedGateThreshold
		return
	}
	config.GateThreshold = suggestGateThreshold(measurements.NoiseFloor)
}

// tuneLowPass keeps the cutoff below Nyquist.
func tuneLowPass(config *FilterChainConfig) {
	if !config.LowPassEnabled || config.SampleRate <= 0 {
		return
	}
	nyquist := float64(config.SampleRate) / 2
	if config.LowPassFreq >= nyquist {
		config.LowPassEnabled = false
	}
}

// sanitizeConfig ensures no NaN or Inf values remain after adaptive tuning
func sanitizeConfig(config *FilterChainConfig) {
	if math.IsNaN(config.GateThreshold) || math.IsInf(config.GateThreshold, 0) || config.GateThreshold < 0 {
		config.GateThreshold = defaultGateThreshold
	}

	config.HumFrequency = sanitizeFloat(config.HumFrequency, 0)
	config.HumQ = sanitizeFloat(config.HumQ, defaultHumQ)
	if config.HumHarmonics < 1 || config.HumHarmonics > maxHumHarmonics {
		config.HumHarmonics = defaultHumHarmonics
	}
}

// sanitizeFloat returns defaultVal if val is NaN or Inf
func sanitizeFloat(val, defaultVal float64) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return defaultVal
	}
	return val
}

// clamp restricts val to the range [lo, hi]
func clamp(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
