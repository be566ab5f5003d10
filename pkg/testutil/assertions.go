package testutil

import (
	"math"
	"testing"
)

// AssertFloat compares floats with a small tolerance.
func AssertFloat(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

// AssertFloatNear compares floats with an explicit tolerance.
func AssertFloatNear(t *testing.T, name string, got, want, eps float64) {
	t.Helper()
	if math.Abs(got-want) > eps {
		t.Errorf("%s = %v, want %v (±%v)", name, got, want, eps)
	}
}
