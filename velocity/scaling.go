package velocity

import (
	"github.com/cwbudde/algo-velocity/param"
)

// Category groups parameters that share a velocity scaling character.
type Category int

const (
	CategoryVolume Category = iota
	CategoryFilterCutoff
	CategoryFilterResonance
	CategoryPitch
	CategoryLFORate
	CategoryLFODepth
	CategoryEnvAttack
	CategoryEnvDecay
	CategoryEnvSustain
	CategoryEnvRelease
	CategoryOscMix
	CategoryDetune
	CategoryReverbSend
	CategoryDelaySend
	CategoryPan
	CategoryHarmonics
	CategoryTimbre
	CategoryMorph

	categoryCount
)

// Polarity selects which direction velocity pushes a parameter.
type Polarity int

const (
	PolarityPositive Polarity = iota
	PolarityNegative
	PolarityBipolar
)

const (
	minScale = 0.1
	maxScale = 5.0

	kneeCompressThreshold = 0.7
	kneeExpandThreshold   = 0.3

	autoScaleMinSamples = 10
	autoScaleStep       = 0.1
	autoScaleHistoryCap = 100
)

// ScalingConfig controls the velocity-to-parameter scaling pipeline for
// one parameter.
type ScalingConfig struct {
	Category  Category
	Scale     float32 // [0.1, 5]
	Polarity  Polarity
	Center    float32 // bipolar center
	Asymmetry float32 // bipolar skew in [-1, 1]

	Deadzone   float32
	Threshold  float32
	Hysteresis float32
	Invert     bool

	RangeMin float32 // remap output range
	RangeMax float32

	KneeRatio float32 // >1 compresses above 0.7, <1 expands below 0.3, 1 bypasses

	AutoScale bool
}

// NewDefaultScalingConfig returns a neutral scaling setup.
func NewDefaultScalingConfig() ScalingConfig {
	return ScalingConfig{
		Category:  CategoryVolume,
		Scale:     1.0,
		Polarity:  PolarityPositive,
		Center:    0.5,
		RangeMin:  0.0,
		RangeMax:  1.0,
		KneeRatio: 1.0,
	}
}

// NewCategoryScalingConfig returns the default scaling for a category.
func NewCategoryScalingConfig(cat Category) ScalingConfig {
	cfg := NewDefaultScalingConfig()
	cfg.Category = cat
	switch cat {
	case CategoryVolume:
		cfg.Scale = 2.0
	case CategoryFilterCutoff:
		cfg.Scale = 1.5
	case CategoryFilterResonance:
		cfg.Scale = 0.8
	case CategoryPan:
		cfg.Polarity = PolarityBipolar
	case CategoryPitch, CategoryDetune:
		cfg.Scale = 0.5
		cfg.Polarity = PolarityBipolar
	case CategoryEnvAttack:
		cfg.Scale = 0.8
		cfg.Invert = true
	case CategoryReverbSend, CategoryDelaySend:
		cfg.Scale = 1.2
	}
	return cfg
}

// ScalingResult reports what the pipeline did to one velocity event.
type ScalingResult struct {
	OriginalVelocity float32
	ScaledVelocity   float32
	FinalValue       float32
	InDeadzone       bool
	ThresholdPassed  bool
	ScaleApplied     float32
}

type scalingState struct {
	cfg ScalingConfig

	// threshold gate with hysteresis
	gateOpen bool

	history []float32
}

// ScalingTable applies per-parameter velocity scaling: deadzone,
// threshold gating with hysteresis, range remapping, soft-knee
// shaping, scale, and polarity. Control goroutine only.
type ScalingTable struct {
	params map[param.ID]*scalingState
}

// NewScalingTable creates an empty table. Unconfigured parameters use
// the neutral defaults.
func NewScalingTable() *ScalingTable {
	return &ScalingTable{params: make(map[param.ID]*scalingState)}
}

func (t *ScalingTable) state(id param.ID) *scalingState {
	st, ok := t.params[id]
	if !ok {
		st = &scalingState{cfg: NewDefaultScalingConfig()}
		t.params[id] = st
	}
	return st
}

// Configure sets the scaling configuration for a parameter.
func (t *ScalingTable) Configure(id param.ID, cfg ScalingConfig) {
	cfg.Scale = clampf(cfg.Scale, minScale, maxScale)
	if cfg.RangeMax <= cfg.RangeMin {
		cfg.RangeMin, cfg.RangeMax = 0, 1
	}
	if cfg.KneeRatio <= 0 {
		cfg.KneeRatio = 1.0
	}
	st := t.state(id)
	st.cfg = cfg
	st.gateOpen = false
}

// ConfigureCategory applies a category's default scaling to a
// parameter.
func (t *ScalingTable) ConfigureCategory(id param.ID, cat Category) {
	t.Configure(id, NewCategoryScalingConfig(cat))
}

// Config returns the current configuration for a parameter.
func (t *ScalingTable) Config(id param.ID) ScalingConfig {
	return t.state(id).cfg
}

// Apply runs the scaling pipeline for one velocity event against a base
// value. Both inputs are normalized to [0,1]; the final value is
// clamped to [0,1].
func (t *ScalingTable) Apply(id param.ID, baseValue, vel float32) ScalingResult {
	st := t.state(id)
	cfg := &st.cfg

	vel = clamp01(vel)
	baseValue = clamp01(baseValue)
	res := ScalingResult{
		OriginalVelocity: vel,
		ScaleApplied:     cfg.Scale,
	}

	if cfg.AutoScale {
		st.recordSample(vel)
	}

	// Deadzone: velocities at or below it leave the base untouched.
	if vel <= cfg.Deadzone {
		res.InDeadzone = true
		res.ScaledVelocity = 0
		res.FinalValue = baseValue
		return res
	}

	// Threshold gate with hysteresis: open above t+h, close below t-h.
	if cfg.Threshold > 0 {
		if st.gateOpen {
			if vel < cfg.Threshold-cfg.Hysteresis {
				st.gateOpen = false
			}
		} else {
			if vel > cfg.Threshold+cfg.Hysteresis {
				st.gateOpen = true
			}
		}
		if !st.gateOpen {
			res.FinalValue = baseValue
			return res
		}
	}
	res.ThresholdPassed = true

	if cfg.Invert {
		vel = 1 - vel
	}

	vel = cfg.RangeMin + vel*(cfg.RangeMax-cfg.RangeMin)
	vel = applyKnee(vel, cfg.KneeRatio)
	vel = clamp01(vel * cfg.Scale)
	res.ScaledVelocity = vel

	res.FinalValue = applyPolarity(baseValue, vel, cfg.Polarity, cfg.Center, cfg.Asymmetry)
	return res
}

// applyKnee soft-compresses above 0.7 for ratios above one, or expands
// below 0.3 for ratios below one.
func applyKnee(v, ratio float32) float32 {
	switch {
	case ratio > 1 && v > kneeCompressThreshold:
		excess := v - kneeCompressThreshold
		return kneeCompressThreshold + excess/ratio
	case ratio < 1 && ratio > 0 && v < kneeExpandThreshold:
		deficit := kneeExpandThreshold - v
		return maxf(0, kneeExpandThreshold-deficit/ratio)
	default:
		return v
	}
}

func applyPolarity(base, vel float32, pol Polarity, center, asym float32) float32 {
	switch pol {
	case PolarityNegative:
		return clamp01(base - vel)
	case PolarityBipolar:
		bi := (vel - 0.5) * 2
		if asym != 0 {
			if bi > 0 {
				bi *= 1 + clampf(asym, -1, 1)
			} else {
				bi *= 1 - clampf(asym, -1, 1)
			}
		}
		return clamp01(center + bi*0.5)
	default:
		return clamp01(base + vel)
	}
}

func (st *scalingState) recordSample(vel float32) {
	st.history = append(st.history, vel)
	if len(st.history) > autoScaleHistoryCap {
		st.history = st.history[len(st.history)-autoScaleHistoryCap:]
	}
}

// RecommendedScale returns the auto-scaling recommendation for a
// parameter, or the current scale when fewer than ten samples have been
// seen.
func (t *ScalingTable) RecommendedScale(id param.ID) float32 {
	st := t.state(id)
	if len(st.history) < autoScaleMinSamples {
		return st.cfg.Scale
	}
	lo, hi := st.history[0], st.history[0]
	for _, v := range st.history[1:] {
		lo = minf(lo, v)
		hi = maxf(hi, v)
	}
	switch r := hi - lo; {
	case r < 0.3:
		return 2.0
	case r > 0.8:
		return 1.0
	default:
		return 1.5
	}
}

// StepAutoScale nudges the configured scale one 0.1 step toward the
// recommendation. It reports whether the scale changed.
func (t *ScalingTable) StepAutoScale(id param.ID) bool {
	st := t.state(id)
	if !st.cfg.AutoScale || len(st.history) < autoScaleMinSamples {
		return false
	}
	rec := t.RecommendedScale(id)
	cur := st.cfg.Scale
	switch {
	case absf(rec-cur) < autoScaleStep:
		return false
	case rec > cur:
		st.cfg.Scale = clampf(cur+autoScaleStep, minScale, maxScale)
	default:
		st.cfg.Scale = clampf(cur-autoScaleStep, minScale, maxScale)
	}
	return true
}

// SampleCount reports how many auto-scaling samples are recorded for a
// parameter.
func (t *ScalingTable) SampleCount(id param.ID) int {
	return len(t.state(id).history)
}

// ClearHistory drops the recorded auto-scaling samples for a parameter.
func (t *ScalingTable) ClearHistory(id param.ID) {
	t.state(id).history = nil
}

// Reset drops all per-parameter state.
func (t *ScalingTable) Reset() {
	t.params = make(map[param.ID]*scalingState)
}
