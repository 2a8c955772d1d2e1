package param

import (
	"math"
	"testing"
)

func TestSmootherReachesTarget(t *testing.T) {
	cfg := NewDefaultSmootherConfig(48000)
	s := NewSmoother(cfg, 0)
	s.SetTarget(1)

	// 20 ms at 48 kHz is 960 samples; allow a couple extra.
	for i := 0; i < 1000; i++ {
		s.Next()
	}
	if s.IsSmoothing() {
		t.Fatalf("smoother still active after ramp time")
	}
	if s.Value() != 1 {
		t.Fatalf("value = %v, want 1", s.Value())
	}
}

func TestSmootherMonotonicRamp(t *testing.T) {
	cfg := NewDefaultSmootherConfig(48000)
	s := NewSmoother(cfg, 0.2)
	s.SetTarget(0.9)

	prev := s.Value()
	for i := 0; i < 1000; i++ {
		v := s.Next()
		if v < prev-1e-6 {
			t.Fatalf("ramp not monotonic at sample %d: %v -> %v", i, prev, v)
		}
		prev = v
	}
}

func TestSmootherInstant(t *testing.T) {
	cfg := NewDefaultSmootherConfig(48000)
	cfg.Type = SmoothInstant
	s := NewSmoother(cfg, 0)
	s.SetTarget(0.7)
	if s.IsSmoothing() {
		t.Fatalf("instant smoother reported active")
	}
	if s.Value() != 0.7 {
		t.Fatalf("value = %v, want 0.7", s.Value())
	}
}

func TestSmootherAdaptiveJump(t *testing.T) {
	cfg := NewDefaultSmootherConfig(48000)
	cfg.Type = SmoothAdaptive
	s := NewSmoother(cfg, 0)

	// A jump above the threshold uses the fast time: done within 2 ms.
	s.SetTarget(0.8)
	for i := 0; i < 100; i++ {
		s.Next()
	}
	if s.IsSmoothing() {
		t.Fatalf("large jump did not use fast ramp")
	}

	// A small move uses the audible time: still active after 2 ms.
	s.SetTarget(0.85)
	for i := 0; i < 100; i++ {
		s.Next()
	}
	if !s.IsSmoothing() {
		t.Fatalf("small move finished too quickly")
	}
}

func TestSmootherExponentialConverges(t *testing.T) {
	cfg := NewDefaultSmootherConfig(48000)
	cfg.Curve = CurveExponential
	s := NewSmoother(cfg, 0)
	s.SetTarget(1)

	for i := 0; i < 4000; i++ {
		s.Next()
	}
	if math.Abs(float64(s.Value()-1)) > 1e-3 {
		t.Fatalf("exponential smoother at %v, want ~1", s.Value())
	}
}

func TestSmootherCurveShapesStayInRange(t *testing.T) {
	for _, curve := range []SmoothCurve{CurveLinear, CurveSCurve, CurveLogarithmic} {
		cfg := NewDefaultSmootherConfig(48000)
		cfg.Curve = curve
		s := NewSmoother(cfg, 0)
		s.SetTarget(1)
		for i := 0; i < 2000; i++ {
			v := s.Next()
			if v < 0 || v > 1 {
				t.Fatalf("curve %d produced out-of-range value %v", curve, v)
			}
		}
	}
}
