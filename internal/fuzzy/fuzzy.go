// Package fuzzy holds the membership functions that map a raw attribute
// value and a user target to a match strength in [0,1]. All functions are
// pure and allocation-free; they are called once per site per criterion on
// the evaluation hot path.
package fuzzy

import "math"

// DefaultMarginFraction is the share of the range width used as the soft
// margin when the user does not set one explicitly.
const DefaultMarginFraction = 0.3

// Clamp01 bounds v to [0,1]. NaN maps to 0 so a defective membership never
// propagates into aggregation.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Ramp is the clamped linear decay max(0, 1 - d/max). A non-positive max
// degenerates to exact matching: 1 at d == 0, else 0.
func Ramp(d, max float64) float64 {
	if d <= 0 {
		return 1
	}
	if max <= 0 {
		return 0
	}
	return Clamp01(1 - d/max)
}

// RationalDecay is 1/(1+d^p). The exponent p controls how harshly deviation
// is punished; typical deployments use 1 or 2.
func RationalDecay(d, p float64) float64 {
	if d <= 0 {
		return 1
	}
	return Clamp01(1 / (1 + math.Pow(d, p)))
}

// Trapezoid evaluates a range target with soft margins: 1.0 inside
// [low, high], linear decay to 0 at low-marginLow and high+marginHigh,
// exactly 0 beyond.
func Trapezoid(v, low, high, marginLow, marginHigh float64) float64 {
	switch {
	case v >= low && v <= high:
		return 1
	case v < low:
		return Ramp(low-v, marginLow)
	default:
		return Ramp(v-high, marginHigh)
	}
}

// DefaultMargins derives the soft margins from the range width when none
// are configured. A degenerate zero-width range still gets a small margin
// so the criterion is not a knife edge.
func DefaultMargins(low, high float64) (float64, float64) {
	width := high - low
	if width <= 0 {
		width = 1
	}
	m := width * DefaultMarginFraction
	return m, m
}

// OrdinalDistance scores an ordered categorical value against an allowed
// set: 1.0 when the value is allowed, decaying linearly with the ordinal
// step distance to the nearest allowed level, 0 beyond maxDistance steps.
func OrdinalDistance(v int, allowed []int, maxDistance int) float64 {
	if len(allowed) == 0 {
		return 0
	}
	nearest := math.MaxInt
	for _, a := range allowed {
		d := v - a
		if d < 0 {
			d = -d
		}
		if d < nearest {
			nearest = d
		}
	}
	if nearest == 0 {
		return 1
	}
	return Ramp(float64(nearest), float64(maxDistance))
}

// Boolean gives no partial credit.
func Boolean(got, want bool) float64 {
	if got == want {
		return 1
	}
	return 0
}

// Sigmoid maps a signed, scaled sum into (0,1) with 0.5 as the neutral
// point. Used for the modifier group score.
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
