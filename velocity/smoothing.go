package velocity

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// SmoothingType selects how incoming velocities are averaged over time.
type SmoothingType int

const (
	SmoothingNone SmoothingType = iota
	SmoothingLowPass
	SmoothingMovingAvg
	SmoothingExponential
	SmoothingPeakHold
	SmoothingRMS
)

const smoothingRingCap = 32

// Smoothing filters a stream of normalized velocities. All state is
// fixed-size; Push never allocates.
type Smoothing struct {
	Type       SmoothingType
	Amount     float32 // filter coefficient in [0,1]
	WindowSize int     // MovingAvg and RMS, clamped to [1, 32]
	DecayRate  float32 // PeakHold decay per second
	UpdateRate float32 // PeakHold updates per second

	ring  [smoothingRingCap]float32
	head  int
	count int

	state  float32
	peak   float32
	primed bool
}

// NewSmoothing creates a smoothing stage. Zero amount means no
// filtering for the coefficient-based types.
func NewSmoothing(typ SmoothingType, amount float32) *Smoothing {
	return &Smoothing{
		Type:       typ,
		Amount:     clamp01(amount),
		WindowSize: 8,
		DecayRate:  2.0,
		UpdateRate: 1000.0,
	}
}

// Push feeds one velocity sample and returns the smoothed value.
func (s *Smoothing) Push(v float32) float32 {
	v = clamp01(v)

	switch s.Type {
	case SmoothingLowPass:
		if !s.primed {
			s.state = v
			s.primed = true
			break
		}
		alpha := clamp01(s.Amount)
		s.state += alpha * (v - s.state)
		s.state = float32(dspcore.FlushDenormals(float64(s.state)))

	case SmoothingMovingAvg:
		s.pushRing(v)
		s.state = s.ringMean()

	case SmoothingExponential:
		if !s.primed {
			s.state = v
			s.primed = true
			break
		}
		decay := clamp01(s.Amount)
		s.state = s.state*decay + v*(1-decay)
		s.state = float32(dspcore.FlushDenormals(float64(s.state)))

	case SmoothingPeakHold:
		rate := s.UpdateRate
		if rate <= 0 {
			rate = 1000.0
		}
		s.peak -= s.DecayRate / rate
		if s.peak < 0 {
			s.peak = 0
		}
		if v > s.peak {
			s.peak = v
		}
		s.state = s.peak

	case SmoothingRMS:
		s.pushRing(v)
		s.state = s.ringRMS()

	default:
		s.state = v
	}

	return clamp01(s.state)
}

// Value returns the last smoothed output.
func (s *Smoothing) Value() float32 {
	return clamp01(s.state)
}

// SampleCount reports how many samples the ring currently holds.
func (s *Smoothing) SampleCount() int {
	return s.count
}

// Reset clears all filter state.
func (s *Smoothing) Reset() {
	s.head = 0
	s.count = 0
	s.state = 0
	s.peak = 0
	s.primed = false
	for i := range s.ring {
		s.ring[i] = 0
	}
}

func (s *Smoothing) window() int {
	w := s.WindowSize
	if w < 1 {
		w = 1
	}
	if w > smoothingRingCap {
		w = smoothingRingCap
	}
	return w
}

func (s *Smoothing) pushRing(v float32) {
	w := s.window()
	if s.head >= w {
		s.head = 0
	}
	if s.count > w {
		s.count = w
	}
	s.ring[s.head] = v
	s.head = (s.head + 1) % w
	if s.count < w {
		s.count++
	}
}

func (s *Smoothing) ringMean() float32 {
	if s.count == 0 {
		return 0
	}
	var sum float32
	for i := 0; i < s.count; i++ {
		sum += s.ring[i]
	}
	return sum / float32(s.count)
}

func (s *Smoothing) ringRMS() float32 {
	if s.count == 0 {
		return 0
	}
	var sum float32
	for i := 0; i < s.count; i++ {
		sum += s.ring[i] * s.ring[i]
	}
	return float32(math.Sqrt(float64(sum / float32(s.count))))
}
