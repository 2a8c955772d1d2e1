package velocity

import (
	"sort"
	"time"

	"github.com/cwbudde/algo-approx"
	"github.com/cwbudde/algo-velocity/param"
)

// DepthMode selects how a parameter's modulation depth is interpreted.
type DepthMode int

const (
	DepthAbsolute DepthMode = iota
	DepthRelative
	DepthScaled
	DepthLimited
	DepthDynamic
)

// SafetyLevel caps effective depth to protect against runaway
// modulation.
type SafetyLevel int

const (
	SafetyNone SafetyLevel = iota
	SafetyConservative
	SafetyModerate
	SafetyAggressive
	SafetyCustom
)

const (
	minDepth = 0.0
	maxDepth = 2.0

	defaultCustomCeiling  = 1.5
	emergencyDepthCeiling = 1.5
)

// DepthConfig holds the per-parameter depth settings.
type DepthConfig struct {
	BaseDepth     float32 // [0, 2]
	MinDepth      float32
	MaxDepth      float32
	Mode          DepthMode
	Safety        SafetyLevel
	SmoothingTime float32 // seconds
	MasterLinked  bool
	MasterScale   float32
}

// NewDefaultDepthConfig returns a neutral full-range depth setup.
func NewDefaultDepthConfig() DepthConfig {
	return DepthConfig{
		BaseDepth:     1.0,
		MinDepth:      0.0,
		MaxDepth:      2.0,
		Mode:          DepthAbsolute,
		Safety:        SafetyModerate,
		SmoothingTime: 0.05,
		MasterLinked:  true,
		MasterScale:   1.0,
	}
}

// GlobalDepthConfig holds the governor-wide settings.
type GlobalDepthConfig struct {
	MasterDepth    float32
	MaxDepth       float32
	EmergencyLimit float32
	TransitionTime float32
}

// NewDefaultGlobalDepthConfig returns the standard global depth setup.
func NewDefaultGlobalDepthConfig() GlobalDepthConfig {
	return GlobalDepthConfig{
		MasterDepth:    1.0,
		MaxDepth:       2.0,
		EmergencyLimit: emergencyDepthCeiling,
		TransitionTime: 0.1,
	}
}

type depthState struct {
	cfg        DepthConfig
	rtMod      float32
	smoothed   float32
	ceiling    float32 // SafetyCustom only
	lastUpdate time.Time
	hasUpdate  bool
}

// DepthChangeFunc observes effective depth changes.
type DepthChangeFunc func(id param.ID, depth float32)

// DepthGovernor owns all modulation depth policy: per-parameter base
// depths, the master depth, safety ceilings, and depth smoothing.
// Control goroutine only.
type DepthGovernor struct {
	global   GlobalDepthConfig
	params   map[param.ID]*depthState
	onChange DepthChangeFunc
	now      func() time.Time
}

// NewDepthGovernor creates a governor with default global settings.
func NewDepthGovernor() *DepthGovernor {
	return &DepthGovernor{
		global: NewDefaultGlobalDepthConfig(),
		params: make(map[param.ID]*depthState),
		now:    time.Now,
	}
}

func (g *DepthGovernor) state(id param.ID) *depthState {
	st, ok := g.params[id]
	if !ok {
		cfg := NewDefaultDepthConfig()
		st = &depthState{cfg: cfg, smoothed: cfg.BaseDepth, ceiling: defaultCustomCeiling}
		g.params[id] = st
	}
	return st
}

// Configure sets the depth configuration for a parameter. Min and max
// are swapped when reversed; depths are clamped to [0, 2].
func (g *DepthGovernor) Configure(id param.ID, cfg DepthConfig) {
	cfg.BaseDepth = clampf(cfg.BaseDepth, minDepth, maxDepth)
	cfg.MinDepth = clampf(cfg.MinDepth, minDepth, maxDepth)
	cfg.MaxDepth = clampf(cfg.MaxDepth, minDepth, maxDepth)
	if cfg.MinDepth > cfg.MaxDepth {
		cfg.MinDepth, cfg.MaxDepth = cfg.MaxDepth, cfg.MinDepth
	}
	if cfg.MasterScale <= 0 {
		cfg.MasterScale = 1.0
	}
	st := g.state(id)
	st.cfg = cfg
	st.hasUpdate = false
}

// Config returns the current configuration for a parameter.
func (g *DepthGovernor) Config(id param.ID) DepthConfig {
	return g.state(id).cfg
}

// SetBaseDepth adjusts only the base depth of a parameter.
func (g *DepthGovernor) SetBaseDepth(id param.ID, depth float32) {
	g.state(id).cfg.BaseDepth = clampf(depth, minDepth, maxDepth)
}

// SetRealtimeModulation adds a momentary depth offset in [-1, 1],
// typically from a performance controller.
func (g *DepthGovernor) SetRealtimeModulation(id param.ID, mod float32) {
	g.state(id).rtMod = clampf(mod, -1, 1)
}

// SetCustomCeiling sets the per-parameter ceiling used by SafetyCustom.
func (g *DepthGovernor) SetCustomCeiling(id param.ID, ceiling float32) {
	g.state(id).ceiling = clampf(ceiling, minDepth, maxDepth)
}

// SetMasterDepth updates the governor-wide master depth.
func (g *DepthGovernor) SetMasterDepth(depth float32) {
	g.global.MasterDepth = clampf(depth, minDepth, maxDepth)
}

// MasterDepth returns the current master depth.
func (g *DepthGovernor) MasterDepth() float32 {
	return g.global.MasterDepth
}

// SetGlobalConfig replaces the governor-wide settings.
func (g *DepthGovernor) SetGlobalConfig(cfg GlobalDepthConfig) {
	cfg.MasterDepth = clampf(cfg.MasterDepth, minDepth, maxDepth)
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = maxDepth
	}
	if cfg.EmergencyLimit <= 0 {
		cfg.EmergencyLimit = emergencyDepthCeiling
	}
	g.global = cfg
}

// OnDepthChange installs a callback fired whenever EffectiveDepth
// produces a new smoothed value.
func (g *DepthGovernor) OnDepthChange(fn DepthChangeFunc) {
	g.onChange = fn
}

func safetyCeiling(level SafetyLevel, custom float32) float32 {
	switch level {
	case SafetyNone:
		return maxDepth
	case SafetyConservative:
		return 0.8
	case SafetyModerate:
		return 1.2
	case SafetyAggressive:
		return 1.8
	case SafetyCustom:
		return custom
	default:
		return maxDepth
	}
}

func (g *DepthGovernor) modeMultiplier(mode DepthMode) float32 {
	switch mode {
	case DepthRelative:
		return 0.5
	case DepthScaled:
		return 0.8
	case DepthLimited:
		return 0.6
	case DepthDynamic:
		avg := g.AverageDepth()
		return minf(1.0, 2.0/(1.0+avg))
	default:
		return 1.0
	}
}

// WorkingDepth returns the master-linked depth before modulation,
// ceilings, and smoothing.
func (g *DepthGovernor) WorkingDepth(id param.ID) float32 {
	st := g.state(id)
	d := st.cfg.BaseDepth
	if st.cfg.MasterLinked {
		d *= g.global.MasterDepth * st.cfg.MasterScale
	}
	return d
}

// EffectiveDepth computes the depth applied to a modulation event:
// working depth plus realtime modulation, capped by the safety ceiling
// and the configured range, scaled by the depth mode, then smoothed
// toward the result over the configured smoothing time.
func (g *DepthGovernor) EffectiveDepth(id param.ID) float32 {
	st := g.state(id)

	d := g.WorkingDepth(id) + st.rtMod
	d = clampf(d, minDepth, maxDepth)
	d = minf(d, safetyCeiling(st.cfg.Safety, st.ceiling))
	d = clampf(d, st.cfg.MinDepth, st.cfg.MaxDepth)
	d *= g.modeMultiplier(st.cfg.Mode)
	d = minf(d, g.global.MaxDepth)

	now := g.now()
	if st.cfg.SmoothingTime > 0 && st.hasUpdate {
		dt := float32(now.Sub(st.lastUpdate).Seconds())
		if dt > 0 {
			alpha := 1 - approx.FastExp(-dt/st.cfg.SmoothingTime)
			st.smoothed += alpha * (d - st.smoothed)
		}
	} else {
		st.smoothed = d
	}
	st.lastUpdate = now
	st.hasUpdate = true

	if g.onChange != nil {
		g.onChange(id, st.smoothed)
	}
	return st.smoothed
}

// EmergencyLimit immediately caps every base depth and the master depth
// to min(limit, 1.5). Smoothing is bypassed.
func (g *DepthGovernor) EmergencyLimit(limit float32) {
	ceiling := minf(clampf(limit, minDepth, maxDepth), g.global.EmergencyLimit)
	g.global.MasterDepth = minf(g.global.MasterDepth, ceiling)
	for _, st := range g.params {
		st.cfg.BaseDepth = minf(st.cfg.BaseDepth, ceiling)
		st.smoothed = minf(st.smoothed, ceiling)
		st.rtMod = 0
	}
}

// AverageDepth returns the mean base depth of all configured
// parameters, or 1 when none are configured.
func (g *DepthGovernor) AverageDepth() float32 {
	if len(g.params) == 0 {
		return 1.0
	}
	var sum float32
	for _, st := range g.params {
		sum += st.cfg.BaseDepth
	}
	return sum / float32(len(g.params))
}

// OverDepth lists parameters whose working depth exceeds the given
// threshold.
func (g *DepthGovernor) OverDepth(threshold float32) []param.ID {
	var out []param.ID
	for id := range g.params {
		if g.WorkingDepth(id) > threshold {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ConfiguredCount reports how many parameters have depth state.
func (g *DepthGovernor) ConfiguredCount() int {
	return len(g.params)
}

// Reset drops all per-parameter state and restores global defaults.
func (g *DepthGovernor) Reset() {
	g.params = make(map[param.ID]*depthState)
	g.global = NewDefaultGlobalDepthConfig()
}
