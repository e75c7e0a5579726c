package fuzzy

import (
	"math"
	"testing"
)

func TestTrapezoid(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		want float64
	}{
		{"inside range", 20, 1.0},
		{"at low edge", 10, 1.0},
		{"at high edge", 32, 1.0},
		{"halfway down low margin", 7.5, 0.5},
		{"halfway down high margin", 34.5, 0.5},
		{"beyond low margin", 4, 0.0},
		{"beyond high margin", 38, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Trapezoid(tt.v, 10, 32, 5, 5)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Trapezoid(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestDefaultMargins(t *testing.T) {
	lo, hi := DefaultMargins(10, 30)
	if math.Abs(lo-6.0) > 1e-9 || math.Abs(hi-6.0) > 1e-9 {
		t.Errorf("expected margins 6.0, got %v/%v", lo, hi)
	}

	lo, hi = DefaultMargins(5, 5)
	if lo <= 0 || hi <= 0 {
		t.Error("zero-width range must still get a positive margin")
	}
}

func TestOrdinalDistance(t *testing.T) {
	allowed := []int{2, 3}
	tests := []struct {
		v    int
		want float64
	}{
		{2, 1.0},
		{3, 1.0},
		{1, 0.5},
		{4, 0.5},
		{0, 0.0},
	}
	for _, tt := range tests {
		got := OrdinalDistance(tt.v, allowed, 2)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("OrdinalDistance(%d) = %v, want %v", tt.v, got, tt.want)
		}
	}

	if OrdinalDistance(1, nil, 2) != 0 {
		t.Error("empty allowed set should score 0")
	}
}

func TestRationalDecay(t *testing.T) {
	if RationalDecay(0, 2) != 1 {
		t.Error("zero distance must score 1")
	}
	if got := RationalDecay(1, 2); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("d=1 should score 0.5, got %v", got)
	}
	// Higher exponent punishes deviation harder beyond d=1.
	if RationalDecay(2, 2) >= RationalDecay(2, 1) {
		t.Error("p=2 should score below p=1 at d=2")
	}
}

func TestBoolean(t *testing.T) {
	if Boolean(true, true) != 1 || Boolean(false, false) != 1 {
		t.Error("matching booleans must score 1")
	}
	if Boolean(true, false) != 0 || Boolean(false, true) != 0 {
		t.Error("mismatched booleans must score 0")
	}
}

func TestClamp01(t *testing.T) {
	if Clamp01(math.NaN()) != 0 {
		t.Error("NaN must clamp to 0")
	}
	if Clamp01(-0.5) != 0 || Clamp01(1.5) != 1 {
		t.Error("out-of-range values must clamp")
	}
}

func TestSigmoidNeutral(t *testing.T) {
	if got := Sigmoid(0); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Sigmoid(0) = %v, want 0.5", got)
	}
	if Sigmoid(3) <= 0.5 || Sigmoid(-3) >= 0.5 {
		t.Error("sigmoid must be monotone around the neutral point")
	}
}
