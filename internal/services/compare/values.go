// Package compare implements the pairing and change primitives shared by
// every category validator.
package compare

import "math"

// Sentinel stands in for an infinite percentage change when the base is
// zero and the new value is not.
const Sentinel = 999999.99

// PercentChange returns the unsigned and signed percentage change from a to
// b. A zero base yields Sentinel (unsigned) and ±100 (signed) when b moved.
func PercentChange(a, b float64) (unsigned, signed float64) {
	if a == 0 {
		if b == 0 {
			return 0, 0
		}
		return Sentinel, signOf(b) * 100
	}
	unsigned = math.Abs(b-a) / math.Abs(a) * 100
	signed = (b - a) / math.Abs(a) * 100
	return unsigned, signed
}

// RelativeChange is PercentChange for aggregate values, where a zero base
// moving to a non-zero value is reported as a 100% move.
func RelativeChange(a, b float64) (unsigned, signed float64) {
	if a == 0 {
		if b == 0 {
			return 0, 0
		}
		return 100, signOf(b) * 100
	}
	return PercentChange(a, b)
}

// Measure compares two aggregate values in the given precision mode. The
// magnitude drives pass/fail; signed keeps the direction for display.
func Measure(a, b float64, absolute bool) (magnitude, signed float64) {
	if absolute {
		return math.Abs(b - a), b - a
	}
	return RelativeChange(a, b)
}

// Exceeds reports whether magnitude breaches threshold. Equality passes.
func Exceeds(magnitude, threshold float64) bool {
	return magnitude > threshold
}

func signOf(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Float returns a pointer to v, for optional item values.
func Float(v float64) *float64 {
	return &v
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}
