package velocity

import (
	"math"
	"testing"
)

func near(a, b, tol float32) bool {
	return math.Abs(float64(a-b)) <= float64(tol)
}

func TestCurveLinearIdentity(t *testing.T) {
	c := Curve{Type: CurveLinear, Amount: 1}
	for _, v := range []float32{0, 0.25, 0.5, 0.75, 1} {
		if got := c.Apply(v); got != v {
			t.Fatalf("linear(%v) = %v", v, got)
		}
	}
}

func TestCurveExponential(t *testing.T) {
	c := Curve{Type: CurveExponential, Amount: 2}
	if got := c.Apply(0.25); !near(got, 0.5, 1e-6) {
		t.Fatalf("exponential(0.25) = %v, want 0.5", got)
	}
}

func TestCurveLogarithmic(t *testing.T) {
	c := Curve{Type: CurveLogarithmic, Amount: 2}
	if got := c.Apply(0.5); !near(got, 0.25, 1e-6) {
		t.Fatalf("logarithmic(0.5) = %v, want 0.25", got)
	}
}

func TestCurveSCurveFixedPoints(t *testing.T) {
	c := Curve{Type: CurveSCurve, Amount: 3}
	if got := c.Apply(0.5); !near(got, 0.5, 1e-6) {
		t.Fatalf("s-curve(0.5) = %v, want 0.5", got)
	}
	if got := c.Apply(0); !near(got, 0, 1e-6) {
		t.Fatalf("s-curve(0) = %v, want 0", got)
	}
	if got := c.Apply(1); !near(got, 1, 1e-6) {
		t.Fatalf("s-curve(1) = %v, want 1", got)
	}
}

func TestCurvePower(t *testing.T) {
	c := Curve{Type: CurvePower, Amount: 2}
	if got := c.Apply(0.5); !near(got, 0.25, 1e-6) {
		t.Fatalf("power(0.5) = %v, want 0.25", got)
	}
}

func TestCurveStepped(t *testing.T) {
	c := Curve{Type: CurveStepped, Amount: 1, Steps: 4}
	// 4 steps quantize onto 0, 1/3, 2/3, 1.
	cases := []struct{ in, want float32 }{
		{0.0, 0.0},
		{0.2, 1.0 / 3.0},
		{0.5, 2.0 / 3.0},
		{0.95, 1.0},
	}
	for _, tc := range cases {
		if got := c.Apply(tc.in); !near(got, tc.want, 1e-6) {
			t.Fatalf("stepped(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCurveSteppedClampsStepCount(t *testing.T) {
	c := Curve{Type: CurveStepped, Amount: 1, Steps: 100}
	// Step count caps at 16, so outputs land on k/15.
	got := c.Apply(0.5)
	scaled := got * 15
	if !near(scaled, float32(math.Round(float64(scaled))), 1e-4) {
		t.Fatalf("stepped output %v not on 1/15 grid", got)
	}
}

func TestCurveCustomTable(t *testing.T) {
	c := Curve{Type: CurveCustom, Amount: 1, Table: []float32{1, 0}}
	if got := c.Apply(0); !near(got, 1, 1e-6) {
		t.Fatalf("custom(0) = %v, want 1", got)
	}
	if got := c.Apply(1); !near(got, 0, 1e-6) {
		t.Fatalf("custom(1) = %v, want 0", got)
	}
	if got := c.Apply(0.5); !near(got, 0.5, 1e-6) {
		t.Fatalf("custom(0.5) = %v, want 0.5", got)
	}

	// Short tables are identity.
	short := Curve{Type: CurveCustom, Table: []float32{0.3}}
	if got := short.Apply(0.7); got != 0.7 {
		t.Fatalf("short table altered input: %v", got)
	}
}

func TestCurveAmountClamped(t *testing.T) {
	// Amount 100 clamps to 10.
	big := Curve{Type: CurvePower, Amount: 100}
	ref := Curve{Type: CurvePower, Amount: 10}
	if got, want := big.Apply(0.5), ref.Apply(0.5); !near(got, want, 1e-6) {
		t.Fatalf("amount not clamped: %v vs %v", got, want)
	}
}

func TestCurveOutputAlwaysInRange(t *testing.T) {
	curves := []Curve{
		{Type: CurveLinear, Amount: 1},
		{Type: CurveExponential, Amount: 5},
		{Type: CurveLogarithmic, Amount: 5},
		{Type: CurveSCurve, Amount: 8},
		{Type: CurvePower, Amount: 0.2},
		{Type: CurveStepped, Amount: 1, Steps: 7},
		{Type: CurveCustom, Amount: 1, Table: []float32{-1, 2, 0.5}},
	}
	for _, c := range curves {
		for v := float32(-0.5); v <= 1.5; v += 0.1 {
			got := c.Apply(v)
			if got < 0 || got > 1 {
				t.Fatalf("%s(%v) = %v out of range", c.Type, v, got)
			}
		}
	}
}
