// Package detection finds peaks and valleys in a smoothed amplitude curve and
// turns them into a word estimate.
//
// All functions here are pure: configuration travels with every call and no
// state survives between calls, so concurrent detections with different
// settings do not interfere.
package detection

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfiguration is returned by ExtremaConfig.Validate.
var ErrInvalidConfiguration = errors.New("invalid detection configuration")

// Monotony classifies the local trend of a curve segment.
type Monotony int

const (
	Grow Monotony = iota
	Abate
	Stable
)

func (m Monotony) String() string {
	switch m {
	case Grow:
		return "grow"
	case Abate:
		return "abate"
	default:
		return "stable"
	}
}

// ExtremeKind is the type of a candidate extreme point.
type ExtremeKind int

const (
	ExtremeNone ExtremeKind = iota
	ExtremeMin
	ExtremeMax
)

func (k ExtremeKind) String() string {
	switch k {
	case ExtremeMin:
		return "min"
	case ExtremeMax:
		return "max"
	default:
		return "none"
	}
}

// Range is an inclusive pair of curve indices bounding a peak or valley.
type Range struct {
	Start int
	End   int
}

// ExtremaConfig tunes the extrema scan.
type ExtremaConfig struct {
	// IntervalSize is Δx, the spacing of the three-point scan. Values below 2
	// leave no room for an extremum and always yield an empty result.
	IntervalSize int

	// GrowthAngle and AbateAngle, in degrees, are the slopes above and below
	// which an interval counts as rising or falling.
	GrowthAngle float64
	AbateAngle  float64

	// Smoothness is the minimum number of whole intervals between two
	// same-kind extreme points for them to close a peak or valley.
	Smoothness int
}

// DefaultExtremaConfig returns the operating point used for word counting on
// preprocessed speech: Δx = 50 samples, ±45° and a smoothness of 15 intervals.
func DefaultExtremaConfig() ExtremaConfig {
	return ExtremaConfig{
		IntervalSize: 50,
		GrowthAngle:  45,
		AbateAngle:   -45,
		Smoothness:   15,
	}
}

// Validate rejects non-positive interval sizes and smoothness values, and
// angles that are not finite.
func (c ExtremaConfig) Validate() error {
	if c.IntervalSize < 1 {
		return fmt.Errorf("%w: interval size must be at least 1, got %d", ErrInvalidConfiguration, c.IntervalSize)
	}
	if c.Smoothness < 1 {
		return fmt.Errorf("%w: smoothness must be at least 1, got %d", ErrInvalidConfiguration, c.Smoothness)
	}
	if math.IsNaN(c.GrowthAngle) || math.IsInf(c.GrowthAngle, 0) {
		return fmt.Errorf("%w: growth angle must be finite, got %v", ErrInvalidConfiguration, c.GrowthAngle)
	}
	if math.IsNaN(c.AbateAngle) || math.IsInf(c.AbateAngle, 0) {
		return fmt.Errorf("%w: abate angle must be finite, got %v", ErrInvalidConfiguration, c.AbateAngle)
	}
	return nil
}

// slopes converts the configured angles to slope thresholds.
func (c ExtremaConfig) slopes() (growth, abate float64) {
	return math.Tan(c.GrowthAngle * math.Pi / 180), math.Tan(c.AbateAngle * math.Pi / 180)
}

// monotony classifies the interval [fa, fb] of width dx. The growth test runs
// first, so crossed thresholds resolve to Grow.
func monotony(fa, fb float64, dx int, growth, abate float64) Monotony {
	m := (fb - fa) / float64(dx)
	if m >= growth {
		return Grow
	}
	if m <= abate {
		return Abate
	}
	return Stable
}

// extremeKind classifies the point between a previous and current interval.
func extremeKind(previous, current Monotony) ExtremeKind {
	switch {
	case previous == Grow && current == Stable,
		previous == Grow && current == Abate,
		previous == Stable && current == Abate:
		return ExtremeMax
	case previous == Abate && current == Stable,
		previous == Abate && current == Grow,
		previous == Stable && current == Grow:
		return ExtremeMin
	}
	return ExtremeNone
}

// FindExtrema scans curve with a sliding pair of intervals and returns the
// index ranges of its peaks and valleys.
//
// A peak is bounded by two minima and a valley by two maxima. Same-kind
// extreme points closer than cfg.Smoothness intervals are treated as noise.
// The curve is used as given; see Normalized for rescaling. Too short a curve,
// or an interval size below 2, yields no ranges.
func FindExtrema(curve []float64, cfg ExtremaConfig) (peaks, valleys []Range) {
	dx := cfg.IntervalSize
	offset := dx - 1
	if dx < 2 || len(curve) < 2*offset+1 {
		return nil, nil
	}

	growth, abate := cfg.slopes()

	// Ip = [b-offset, b] is the previous interval, Ic = [b, c] the current one.
	b, c := offset, 2*offset
	ipMonotony := monotony(curve[0], curve[b], dx, growth, abate)

	previous := ExtremeNone
	switch ipMonotony {
	case Grow:
		previous = ExtremeMin
	case Abate:
		previous = ExtremeMax
	}
	previousIndex := b

	shift := ExtremeNone
	shiftIndex := 0

	for c < len(curve) {
		icMonotony := monotony(curve[b], curve[c], dx, growth, abate)

		if icMonotony != ipMonotony {
			current := extremeKind(ipMonotony, icMonotony)
			currentIndex := b

			if current != previous {
				if shift != ExtremeNone && (currentIndex-shiftIndex)/dx >= cfg.Smoothness {
					switch {
					case shift == ExtremeMax && current == ExtremeMax:
						valleys = append(valleys, Range{Start: shiftIndex, End: currentIndex})
					case shift == ExtremeMin && current == ExtremeMin:
						peaks = append(peaks, Range{Start: shiftIndex, End: currentIndex})
					}
				}
				shift, shiftIndex = previous, previousIndex
			}

			previous, previousIndex = current, currentIndex
		}

		b, c = c, c+offset
		ipMonotony = icMonotony
	}

	return peaks, valleys
}
