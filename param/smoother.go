package param

import (
	"math"

	"github.com/cwbudde/algo-approx"
	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// SmoothType selects how quickly a parameter chases its target.
type SmoothType int

const (
	SmoothFast SmoothType = iota // ~2 ms, for pops-over-clicks tradeoffs
	SmoothAudible
	SmoothAdaptive // fast on large jumps, audible otherwise
	SmoothInstant
)

// SmoothCurve shapes the transition between start and target.
type SmoothCurve int

const (
	CurveLinear SmoothCurve = iota
	CurveExponential
	CurveSCurve
	CurveLogarithmic
)

// SmootherConfig configures one parameter smoother.
type SmootherConfig struct {
	Type          SmoothType
	Curve         SmoothCurve
	FastTimeMs    float32
	AudibleTimeMs float32
	JumpThreshold float32
	SampleRate    float32
}

// NewDefaultSmootherConfig returns the standard smoothing times.
func NewDefaultSmootherConfig(sampleRate float32) SmootherConfig {
	return SmootherConfig{
		Type:          SmoothAudible,
		Curve:         CurveLinear,
		FastTimeMs:    2.0,
		AudibleTimeMs: 20.0,
		JumpThreshold: 0.3,
		SampleRate:    sampleRate,
	}
}

// Smoother moves a parameter value toward a target without zipper noise.
// It allocates nothing after construction and is owned by the audio
// context exclusively.
type Smoother struct {
	cfg SmootherConfig

	current float32
	target  float32
	start   float32

	rampPos float32
	rampInc float32
	expCoef float32
	active  bool
}

// NewSmoother creates a smoother resting at initial.
func NewSmoother(cfg SmootherConfig, initial float32) *Smoother {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 48000
	}
	if cfg.FastTimeMs <= 0 {
		cfg.FastTimeMs = 2.0
	}
	if cfg.AudibleTimeMs <= 0 {
		cfg.AudibleTimeMs = 20.0
	}
	if cfg.JumpThreshold <= 0 {
		cfg.JumpThreshold = 0.3
	}
	return &Smoother{
		cfg:     cfg,
		current: initial,
		target:  initial,
	}
}

// SetTarget starts a transition toward value.
func (s *Smoother) SetTarget(value float32) {
	s.target = value
	if s.cfg.Type == SmoothInstant {
		s.current = value
		s.active = false
		return
	}

	timeMs := s.cfg.AudibleTimeMs
	switch s.cfg.Type {
	case SmoothFast:
		timeMs = s.cfg.FastTimeMs
	case SmoothAdaptive:
		if absf(value-s.current) > s.cfg.JumpThreshold {
			timeMs = s.cfg.FastTimeMs
		}
	}

	samples := timeMs * 0.001 * s.cfg.SampleRate
	if samples < 1 {
		s.current = value
		s.active = false
		return
	}

	s.start = s.current
	s.rampPos = 0
	s.rampInc = 1.0 / samples
	// One-pole settles to 0.1% of the step after timeMs.
	s.expCoef = approx.FastExp(-6.9078 / samples)
	s.active = true
}

// SetImmediate forces the value without any transition.
func (s *Smoother) SetImmediate(value float32) {
	s.current = value
	s.target = value
	s.active = false
}

// Next advances the smoother by one sample and returns the new value.
func (s *Smoother) Next() float32 {
	if !s.active {
		return s.current
	}

	if s.cfg.Curve == CurveExponential {
		s.current = s.target + (s.current-s.target)*s.expCoef
		s.current = float32(dspcore.FlushDenormals(float64(s.current)))
		if absf(s.current-s.target) < 1e-6 {
			s.current = s.target
			s.active = false
		}
		return s.current
	}

	s.rampPos += s.rampInc
	if s.rampPos >= 1 {
		s.current = s.target
		s.active = false
		return s.current
	}
	s.current = s.start + (s.target-s.start)*shapeRamp(s.cfg.Curve, s.rampPos)
	return s.current
}

// Process fills out with len(out) successive samples.
func (s *Smoother) Process(out []float32) {
	for i := range out {
		out[i] = s.Next()
	}
}

// IsSmoothing reports whether a transition is still in flight.
func (s *Smoother) IsSmoothing() bool {
	return s.active
}

// Value returns the current output without advancing.
func (s *Smoother) Value() float32 {
	return s.current
}

// Target returns the value the smoother is heading toward.
func (s *Smoother) Target() float32 {
	return s.target
}

// SetSampleRate rescales an in-flight ramp to the new rate.
func (s *Smoother) SetSampleRate(sampleRate float32) {
	if sampleRate <= 0 {
		return
	}
	ratio := s.cfg.SampleRate / sampleRate
	s.cfg.SampleRate = sampleRate
	if s.active {
		s.rampInc *= ratio
		s.expCoef = approx.FastExp(float32(math.Log(float64(s.expCoef))) * ratio)
	}
}

func shapeRamp(curve SmoothCurve, pos float32) float32 {
	switch curve {
	case CurveSCurve:
		return pos * pos * (3 - 2*pos)
	case CurveLogarithmic:
		return float32(math.Sqrt(float64(pos)))
	default:
		return pos
	}
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
