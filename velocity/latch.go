package velocity

import (
	"sort"
	"time"

	"github.com/cwbudde/algo-velocity/param"
)

// Source supplies the live velocity feed driving latched parameters.
type Source interface {
	// CurrentVelocity returns the most recent velocity in [0, 127].
	CurrentVelocity() float32
	// SourceTag names where the velocity comes from (pad, keyboard, ...).
	SourceTag() string
	// Active reports whether the source produced a velocity recently.
	Active() bool
}

// View receives latch display updates. Implementations are typically a
// UI layer; tests use a recording double.
type View interface {
	SetLatchIcon(id param.ID, state LatchState)
	ShowLatchSettings(id param.ID)
}

// LatchState is the icon state shown for a latched parameter.
type LatchState int

const (
	LatchInactive LatchState = iota
	LatchLatched
	LatchActivelyModulating
)

func (s LatchState) String() string {
	switch s {
	case LatchLatched:
		return "latched"
	case LatchActivelyModulating:
		return "modulating"
	default:
		return "inactive"
	}
}

const (
	latchActivityTimeout = 100 * time.Millisecond
	latchLoadPerParam    = 0.001
	defaultLatchVelocity = 100.0

	minLatchDepth = -2.0
	maxLatchDepth = 2.0
	minLatchScale = 0.1
	maxLatchScale = 2.0
)

// LatchConfig holds the per-parameter latch settings.
type LatchConfig struct {
	Enabled   bool
	Depth     float32 // [-2, 2]
	Polarity  Polarity
	Invert    bool
	Scale     float32 // [0.1, 2]
	BaseValue float32
}

// NewDefaultLatchConfig returns a disabled latch with neutral settings.
func NewDefaultLatchConfig() LatchConfig {
	return LatchConfig{
		Depth:     1.0,
		Scale:     1.0,
		BaseValue: 0.5,
	}
}

type latchEntry struct {
	cfg          LatchConfig
	state        LatchState
	lastActivity time.Time
	lastValue    float32
}

// LatchUpdateFunc observes modulated values produced by Update.
type LatchUpdateFunc func(id param.ID, value float32)

// LatchSystem keeps velocity modulation engaged on selected parameters
// after the triggering gesture ends. Control goroutine only.
type LatchSystem struct {
	source   Source
	view     View
	params   map[param.ID]*latchEntry
	onUpdate LatchUpdateFunc
	now      func() time.Time
}

// NewLatchSystem creates a latch system. Source and view may be nil;
// without a source the default velocity of 100 is used.
func NewLatchSystem(source Source, view View) *LatchSystem {
	return &LatchSystem{
		source: source,
		view:   view,
		params: make(map[param.ID]*latchEntry),
		now:    time.Now,
	}
}

func (l *LatchSystem) entry(id param.ID) *latchEntry {
	e, ok := l.params[id]
	if !ok {
		e = &latchEntry{cfg: NewDefaultLatchConfig()}
		l.params[id] = e
	}
	return e
}

// Configure sets the latch configuration for a parameter.
func (l *LatchSystem) Configure(id param.ID, cfg LatchConfig) {
	cfg.Depth = clampf(cfg.Depth, minLatchDepth, maxLatchDepth)
	cfg.Scale = clampf(cfg.Scale, minLatchScale, maxLatchScale)
	cfg.BaseValue = clamp01(cfg.BaseValue)
	e := l.entry(id)
	e.cfg = cfg
	l.refreshState(id, e)
}

// Config returns the current latch configuration for a parameter.
func (l *LatchSystem) Config(id param.ID) LatchConfig {
	return l.entry(id).cfg
}

// HandleTap toggles the latch for a parameter and returns the new
// enabled state.
func (l *LatchSystem) HandleTap(id param.ID) bool {
	e := l.entry(id)
	e.cfg.Enabled = !e.cfg.Enabled
	l.refreshState(id, e)
	return e.cfg.Enabled
}

// HandleLongPress asks the view to open the latch settings for a
// parameter.
func (l *LatchSystem) HandleLongPress(id param.ID) {
	if l.view != nil {
		l.view.ShowLatchSettings(id)
	}
}

// OnUpdate installs a callback fired for every enabled parameter on
// each Update call.
func (l *LatchSystem) OnUpdate(fn LatchUpdateFunc) {
	l.onUpdate = fn
}

func (l *LatchSystem) velocity() float32 {
	if l.source != nil && l.source.Active() {
		return clampf(l.source.CurrentVelocity(), 0, 127)
	}
	return defaultLatchVelocity
}

func (l *LatchSystem) sourceRecent(e *latchEntry) bool {
	if l.source == nil || !l.source.Active() {
		return false
	}
	e.lastActivity = l.now()
	return true
}

func (l *LatchSystem) refreshState(id param.ID, e *latchEntry) {
	prev := e.state
	switch {
	case !e.cfg.Enabled:
		e.state = LatchInactive
	case l.sourceRecent(e) || l.now().Sub(e.lastActivity) <= latchActivityTimeout:
		e.state = LatchActivelyModulating
	default:
		e.state = LatchLatched
	}
	if l.view != nil && e.state != prev {
		l.view.SetLatchIcon(id, e.state)
	}
}

// Update recomputes all enabled latches from the current source
// velocity, pushes values through the callback, and refreshes icon
// states. It returns the modulated values keyed by parameter.
func (l *LatchSystem) Update() map[param.ID]float32 {
	vel := l.velocity() / 127.0
	out := make(map[param.ID]float32)

	ids := make([]param.ID, 0, len(l.params))
	for id := range l.params {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		e := l.params[id]
		l.refreshState(id, e)
		if !e.cfg.Enabled {
			continue
		}

		v := vel
		if e.cfg.Invert {
			v = 1 - v
		}
		v *= e.cfg.Scale

		var value float32
		switch e.cfg.Polarity {
		case PolarityNegative:
			value = e.cfg.BaseValue - v*e.cfg.Depth
		case PolarityBipolar:
			value = e.cfg.BaseValue + (v-0.5)*2*e.cfg.Depth*0.5
		default:
			value = e.cfg.BaseValue + v*e.cfg.Depth
		}
		value = clamp01(value)

		e.lastValue = value
		out[id] = value
		if l.onUpdate != nil {
			l.onUpdate(id, value)
		}
	}
	return out
}

// State returns the icon state for a parameter.
func (l *LatchSystem) State(id param.ID) LatchState {
	return l.entry(id).state
}

// LastValue returns the most recent modulated value for a parameter.
func (l *LatchSystem) LastValue(id param.ID) float32 {
	return l.entry(id).lastValue
}

// ActiveLatchCount reports how many parameters are currently latched.
func (l *LatchSystem) ActiveLatchCount() int {
	n := 0
	for _, e := range l.params {
		if e.cfg.Enabled {
			n++
		}
	}
	return n
}

// LoadEstimate approximates the processing cost of the enabled latches.
func (l *LatchSystem) LoadEstimate() float32 {
	return float32(l.ActiveLatchCount()) * latchLoadPerParam
}

// Reset disables and forgets all latches.
func (l *LatchSystem) Reset() {
	for id, e := range l.params {
		if e.state != LatchInactive && l.view != nil {
			l.view.SetLatchIcon(id, LatchInactive)
		}
	}
	l.params = make(map[param.ID]*latchEntry)
}
