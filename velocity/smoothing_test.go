package velocity

import "testing"

func TestSmoothingNonePassesThrough(t *testing.T) {
	s := NewSmoothing(SmoothingNone, 0)
	if got := s.Push(0.7); got != 0.7 {
		t.Fatalf("none(0.7) = %v", got)
	}
}

func TestSmoothingLowPass(t *testing.T) {
	s := NewSmoothing(SmoothingLowPass, 0.5)
	if got := s.Push(1); got != 1 {
		t.Fatalf("first sample should prime the filter, got %v", got)
	}
	// 1 -> 0 with alpha 0.5 halves the state each step.
	if got := s.Push(0); !near(got, 0.5, 1e-6) {
		t.Fatalf("lowpass step = %v, want 0.5", got)
	}
	if got := s.Push(0); !near(got, 0.25, 1e-6) {
		t.Fatalf("lowpass step = %v, want 0.25", got)
	}
}

func TestSmoothingMovingAvg(t *testing.T) {
	s := NewSmoothing(SmoothingMovingAvg, 0)
	s.WindowSize = 4
	s.Push(0.4)
	s.Push(0.8)
	if got := s.Value(); !near(got, 0.6, 1e-6) {
		t.Fatalf("mean of two = %v, want 0.6", got)
	}
	if s.SampleCount() != 2 {
		t.Fatalf("sample count = %d, want 2", s.SampleCount())
	}

	// Fill past the window; only the last four samples count.
	s.Push(0.8)
	s.Push(0.8)
	s.Push(0.8)
	if got := s.Value(); !near(got, 0.8, 1e-6) {
		t.Fatalf("mean after window rollover = %v, want 0.8", got)
	}
}

func TestSmoothingExponential(t *testing.T) {
	s := NewSmoothing(SmoothingExponential, 0.9)
	s.Push(1)
	got := s.Push(0)
	if !near(got, 0.9, 1e-6) {
		t.Fatalf("exponential decay = %v, want 0.9", got)
	}
}

func TestSmoothingPeakHold(t *testing.T) {
	s := NewSmoothing(SmoothingPeakHold, 0)
	s.DecayRate = 1.0
	s.UpdateRate = 10.0 // 0.1 decay per push

	s.Push(1)
	if got := s.Value(); !near(got, 1, 1e-6) {
		t.Fatalf("peak = %v, want 1", got)
	}
	if got := s.Push(0); !near(got, 0.9, 1e-6) {
		t.Fatalf("peak after decay = %v, want 0.9", got)
	}
	// A louder hit resets the peak.
	if got := s.Push(0.95); !near(got, 0.95, 1e-6) {
		t.Fatalf("peak after louder hit = %v, want 0.95", got)
	}
}

func TestSmoothingRMS(t *testing.T) {
	s := NewSmoothing(SmoothingRMS, 0)
	s.WindowSize = 2
	s.Push(0.6)
	s.Push(0.8)
	// sqrt((0.36+0.64)/2) = sqrt(0.5)
	if got := s.Value(); !near(got, 0.70710677, 1e-5) {
		t.Fatalf("rms = %v, want sqrt(0.5)", got)
	}
}

func TestSmoothingReset(t *testing.T) {
	s := NewSmoothing(SmoothingMovingAvg, 0)
	s.Push(1)
	s.Push(1)
	s.Reset()
	if s.SampleCount() != 0 || s.Value() != 0 {
		t.Fatalf("reset left state: count=%d value=%v", s.SampleCount(), s.Value())
	}
}

func TestSmoothingWindowClamped(t *testing.T) {
	s := NewSmoothing(SmoothingMovingAvg, 0)
	s.WindowSize = 1000
	for i := 0; i < 100; i++ {
		s.Push(0.5)
	}
	if s.SampleCount() > smoothingRingCap {
		t.Fatalf("sample count %d exceeds ring capacity", s.SampleCount())
	}
}
