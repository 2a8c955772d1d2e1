package velocity

import (
	"sort"
	"time"

	"github.com/cwbudde/algo-velocity/param"
)

// Mode selects how processed velocity combines with the base value.
type Mode int

const (
	ModeAbsolute Mode = iota
	ModeRelative
	ModeAdditive
	ModeMultiplicative
	ModeEnvelope
	ModeBipolarCenter
)

func (m Mode) String() string {
	switch m {
	case ModeAbsolute:
		return "absolute"
	case ModeRelative:
		return "relative"
	case ModeAdditive:
		return "additive"
	case ModeMultiplicative:
		return "multiplicative"
	case ModeEnvelope:
		return "envelope"
	case ModeBipolarCenter:
		return "bipolar-center"
	default:
		return "unknown"
	}
}

const (
	minModScale = 0.1
	maxModScale = 5.0

	activeThreshold = 0.001

	calcLoadPerParam = 0.002
)

// ModulationConfig controls the full velocity processing pipeline for
// one parameter.
type ModulationConfig struct {
	Mode  Mode
	Curve Curve

	Scale  float32 // [0.1, 5]
	Offset float32 // [-1, 1]
	Depth  float32 // [0, 2], used when no governor is attached
	Center float32 // ModeBipolarCenter
	Invert bool

	Smoothing       SmoothingType
	SmoothingAmount float32
	HistorySize     int // [1, 32]

	AttackMs  float32 // ModeEnvelope
	ReleaseMs float32

	Threshold  float32
	Hysteresis float32

	QuantizeSteps int // 0 disables, otherwise [2, 16]
}

// NewDefaultModulationConfig returns a neutral additive setup.
func NewDefaultModulationConfig() ModulationConfig {
	return ModulationConfig{
		Mode:            ModeAdditive,
		Curve:           Curve{Type: CurveLinear, Amount: 1.0},
		Scale:           1.0,
		Offset:          0.0,
		Depth:           1.0,
		Center:          0.5,
		Smoothing:       SmoothingNone,
		SmoothingAmount: 0.5,
		HistorySize:     8,
		AttackMs:        10,
		ReleaseMs:       100,
	}
}

// ModulationResult reports everything one Calculate call produced.
type ModulationResult struct {
	ModulatedValue    float32
	RawVelocity       float32
	ProcessedVelocity float32
	SmoothedVelocity  float32
	ModulationAmount  float32
	IsActive          bool
	SampleCount       int
}

type calcState struct {
	cfg      ModulationConfig
	smoother *Smoothing
	gateOpen bool
	envValue float32
	lastCalc time.Time
	hasCalc  bool
}

// Calculator turns raw velocities into modulated parameter values. It
// owns the per-parameter pipeline of inversion, threshold gating,
// curve shaping, scaling, quantization, smoothing, and mode
// combination. Depth policy is delegated to an attached DepthGovernor
// when present. Control goroutine only.
type Calculator struct {
	params  map[param.ID]*calcState
	depths  *DepthGovernor
	scaling *ScalingTable
	now     func() time.Time
}

// NewCalculator creates a calculator with no parameters configured.
func NewCalculator() *Calculator {
	return &Calculator{
		params: make(map[param.ID]*calcState),
		now:    time.Now,
	}
}

// AttachDepthGovernor delegates depth resolution to a governor.
func (c *Calculator) AttachDepthGovernor(g *DepthGovernor) {
	c.depths = g
}

// AttachScalingTable routes processed velocities through a per
// parameter scaling table before mode combination.
func (c *Calculator) AttachScalingTable(t *ScalingTable) {
	c.scaling = t
}

func (c *Calculator) state(id param.ID) *calcState {
	st, ok := c.params[id]
	if !ok {
		cfg := NewDefaultModulationConfig()
		st = &calcState{
			cfg:      cfg,
			smoother: NewSmoothing(cfg.Smoothing, cfg.SmoothingAmount),
		}
		c.params[id] = st
	}
	return st
}

// Configure sets the modulation configuration for a parameter.
func (c *Calculator) Configure(id param.ID, cfg ModulationConfig) {
	cfg.Scale = clampf(cfg.Scale, minModScale, maxModScale)
	cfg.Offset = clampf(cfg.Offset, -1, 1)
	cfg.Depth = clampf(cfg.Depth, minDepth, maxDepth)
	cfg.Center = clamp01(cfg.Center)
	if cfg.HistorySize < 1 {
		cfg.HistorySize = 1
	}
	if cfg.HistorySize > smoothingRingCap {
		cfg.HistorySize = smoothingRingCap
	}
	if cfg.QuantizeSteps != 0 {
		if cfg.QuantizeSteps < minSteps {
			cfg.QuantizeSteps = minSteps
		}
		if cfg.QuantizeSteps > maxSteps {
			cfg.QuantizeSteps = maxSteps
		}
	}

	st := c.state(id)
	st.cfg = cfg
	st.smoother = NewSmoothing(cfg.Smoothing, cfg.SmoothingAmount)
	st.smoother.WindowSize = cfg.HistorySize
	st.gateOpen = false
	st.envValue = 0
	st.hasCalc = false
}

// ConfigureBatch applies several configurations at once.
func (c *Calculator) ConfigureBatch(cfgs map[param.ID]ModulationConfig) {
	ids := make([]param.ID, 0, len(cfgs))
	for id := range cfgs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		c.Configure(id, cfgs[id])
	}
}

// Config returns the current configuration for a parameter.
func (c *Calculator) Config(id param.ID) ModulationConfig {
	return c.state(id).cfg
}

// Calculate runs the full pipeline for one velocity event. velocity is
// a raw MIDI-style value in [0, 127]; baseValue is the unmodulated
// parameter in [0, 1]. The modulated value is always in [0, 1].
func (c *Calculator) Calculate(id param.ID, baseValue float32, velocity int) ModulationResult {
	st := c.state(id)
	cfg := &st.cfg

	if velocity < 0 {
		velocity = 0
	}
	if velocity > 127 {
		velocity = 127
	}
	baseValue = clamp01(baseValue)

	raw := float32(velocity) / 127.0
	res := ModulationResult{RawVelocity: raw}

	v := raw
	if cfg.Invert {
		v = 1 - v
	}

	// Threshold gate with hysteresis.
	if cfg.Threshold > 0 {
		if st.gateOpen {
			if v < cfg.Threshold-cfg.Hysteresis {
				st.gateOpen = false
			}
		} else {
			if v > cfg.Threshold+cfg.Hysteresis {
				st.gateOpen = true
			}
		}
		if !st.gateOpen {
			res.ModulatedValue = baseValue
			res.SmoothedVelocity = st.smoother.Value()
			res.SampleCount = st.smoother.SampleCount()
			return res
		}
	}

	v = cfg.Curve.Apply(v)
	v = clamp01(v*cfg.Scale + cfg.Offset)

	if cfg.QuantizeSteps >= minSteps {
		v = steppedCurve(v, cfg.QuantizeSteps)
	}

	v = st.smoother.Push(v)
	res.SmoothedVelocity = v
	res.SampleCount = st.smoother.SampleCount()

	if c.scaling != nil {
		v = c.scaling.Apply(id, baseValue, v).ScaledVelocity
	}
	res.ProcessedVelocity = v

	depth := cfg.Depth
	if c.depths != nil {
		depth = c.depths.EffectiveDepth(id)
	}

	value := c.combine(st, baseValue, v, depth)
	res.ModulatedValue = clamp01(value)
	// Bipolar modulation deviates from the center point, not the base.
	amountFrom := baseValue
	if cfg.Mode == ModeBipolarCenter {
		amountFrom = cfg.Center
	}
	res.ModulationAmount = res.ModulatedValue - amountFrom
	res.IsActive = absf(res.ModulationAmount) > activeThreshold
	return res
}

func (c *Calculator) combine(st *calcState, base, v, depth float32) float32 {
	cfg := &st.cfg
	switch cfg.Mode {
	case ModeAbsolute:
		return base + v*depth
	case ModeRelative:
		// Interpolates from the base toward base+depth, weighted by
		// velocity and depth.
		target := base + depth
		return base + (target-base)*v*depth
	case ModeAdditive:
		return base + v*depth
	case ModeMultiplicative:
		return base * (1 + (v-0.5)*depth)
	case ModeEnvelope:
		return base + c.advanceEnvelope(st, v)*depth
	case ModeBipolarCenter:
		return cfg.Center + (v-0.5)*depth
	default:
		return base
	}
}

// advanceEnvelope chases the processed velocity with separate attack
// and release rates, using wall-clock time between Calculate calls.
func (c *Calculator) advanceEnvelope(st *calcState, target float32) float32 {
	now := c.now()
	if !st.hasCalc {
		st.lastCalc = now
		st.hasCalc = true
		st.envValue = target
		return st.envValue
	}
	dt := float32(now.Sub(st.lastCalc).Seconds())
	st.lastCalc = now
	if dt <= 0 {
		return st.envValue
	}

	ms := st.cfg.ReleaseMs
	if target > st.envValue {
		ms = st.cfg.AttackMs
	}
	rate := 1.0 / maxf(ms/1000.0, 0.001)
	st.envValue += (target - st.envValue) * minf(rate*dt, 1)
	return st.envValue
}

// ResetSmoothing clears the velocity smoothing state for a parameter.
func (c *Calculator) ResetSmoothing(id param.ID) {
	st := c.state(id)
	st.smoother.Reset()
	st.envValue = 0
	st.hasCalc = false
}

// ResetAll clears smoothing and gate state for every parameter.
func (c *Calculator) ResetAll() {
	for _, st := range c.params {
		st.smoother.Reset()
		st.gateOpen = false
		st.envValue = 0
		st.hasCalc = false
	}
}

// ConfiguredCount reports how many parameters have modulation state.
func (c *Calculator) ConfiguredCount() int {
	return len(c.params)
}

// LoadEstimate approximates the processing cost of the configured
// parameters.
func (c *Calculator) LoadEstimate() float32 {
	return float32(len(c.params)) * calcLoadPerParam
}
