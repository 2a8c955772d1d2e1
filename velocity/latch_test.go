package velocity

import (
	"testing"
	"time"

	"github.com/cwbudde/algo-velocity/param"
)

type fakeSource struct {
	velocity float32
	tag      string
	active   bool
}

func (f *fakeSource) CurrentVelocity() float32 { return f.velocity }
func (f *fakeSource) SourceTag() string        { return f.tag }
func (f *fakeSource) Active() bool             { return f.active }

type fakeView struct {
	icons    map[param.ID]LatchState
	settings []param.ID
}

func newFakeView() *fakeView {
	return &fakeView{icons: make(map[param.ID]LatchState)}
}

func (f *fakeView) SetLatchIcon(id param.ID, state LatchState) { f.icons[id] = state }
func (f *fakeView) ShowLatchSettings(id param.ID)              { f.settings = append(f.settings, id) }

func TestLatchTapToggles(t *testing.T) {
	l := NewLatchSystem(nil, nil)
	if !l.HandleTap(param.FilterCutoff) {
		t.Fatalf("first tap should enable")
	}
	if l.HandleTap(param.FilterCutoff) {
		t.Fatalf("second tap should disable")
	}
}

func TestLatchLongPressOpensSettings(t *testing.T) {
	view := newFakeView()
	l := NewLatchSystem(nil, view)
	l.HandleLongPress(param.Volume)
	if len(view.settings) != 1 || view.settings[0] != param.Volume {
		t.Fatalf("settings requests = %v", view.settings)
	}
}

func TestLatchCountAndLoad(t *testing.T) {
	l := NewLatchSystem(nil, nil)
	ids := []param.ID{
		param.Harmonics, param.Timbre, param.Morph, param.OscMix,
		param.Detune, param.FilterCutoff, param.FilterResonance,
		param.Attack, param.Volume, param.Pan,
	}
	for _, id := range ids {
		l.HandleTap(id)
	}
	if got := l.ActiveLatchCount(); got != 10 {
		t.Fatalf("active latches = %d, want 10", got)
	}
	if got := l.LoadEstimate(); !near(got, 0.01, 1e-6) {
		t.Fatalf("load = %v, want 0.01", got)
	}
}

func TestLatchDefaultVelocityWithoutSource(t *testing.T) {
	l := NewLatchSystem(nil, nil)
	cfg := NewDefaultLatchConfig()
	cfg.Enabled = true
	cfg.BaseValue = 0
	cfg.Depth = 1
	l.Configure(param.Volume, cfg)

	out := l.Update()
	// Default velocity 100 normalized over 127.
	if got := out[param.Volume]; !near(got, 100.0/127.0, 1e-5) {
		t.Fatalf("latched value = %v, want %v", got, 100.0/127.0)
	}
}

func TestLatchUsesSourceVelocity(t *testing.T) {
	src := &fakeSource{velocity: 64, tag: "pad", active: true}
	l := NewLatchSystem(src, nil)
	cfg := NewDefaultLatchConfig()
	cfg.Enabled = true
	cfg.BaseValue = 0
	cfg.Depth = 1
	l.Configure(param.Volume, cfg)

	out := l.Update()
	if got := out[param.Volume]; !near(got, 64.0/127.0, 1e-5) {
		t.Fatalf("latched value = %v, want %v", got, 64.0/127.0)
	}
}

func TestLatchStates(t *testing.T) {
	src := &fakeSource{velocity: 90, active: true}
	view := newFakeView()
	l := NewLatchSystem(src, view)
	l.now = func() time.Time { return time.Unix(0, 0) }

	if l.State(param.Volume) != LatchInactive {
		t.Fatalf("untouched parameter not inactive")
	}

	// Enabled with an active source: actively modulating.
	l.HandleTap(param.Volume)
	l.Update()
	if got := l.State(param.Volume); got != LatchActivelyModulating {
		t.Fatalf("state with active source = %v", got)
	}

	// Source quiet past the activity timeout: latched but idle.
	src.active = false
	l.now = func() time.Time { return time.Unix(1, 0) }
	l.Update()
	if got := l.State(param.Volume); got != LatchLatched {
		t.Fatalf("state after timeout = %v", got)
	}
	if view.icons[param.Volume] != LatchLatched {
		t.Fatalf("view icon = %v", view.icons[param.Volume])
	}

	// Disabled again: inactive.
	l.HandleTap(param.Volume)
	if got := l.State(param.Volume); got != LatchInactive {
		t.Fatalf("state after disable = %v", got)
	}
}

func TestLatchInvertAndScale(t *testing.T) {
	src := &fakeSource{velocity: 127, active: true}
	l := NewLatchSystem(src, nil)
	cfg := NewDefaultLatchConfig()
	cfg.Enabled = true
	cfg.BaseValue = 0
	cfg.Depth = 1
	cfg.Invert = true
	l.Configure(param.Volume, cfg)

	out := l.Update()
	if got := out[param.Volume]; !near(got, 0, 1e-6) {
		t.Fatalf("inverted full velocity = %v, want 0", got)
	}

	cfg.Invert = false
	cfg.Scale = 0.5
	l.Configure(param.Volume, cfg)
	out = l.Update()
	if got := out[param.Volume]; !near(got, 0.5, 1e-6) {
		t.Fatalf("scaled value = %v, want 0.5", got)
	}
}

func TestLatchDepthClamped(t *testing.T) {
	l := NewLatchSystem(nil, nil)
	cfg := NewDefaultLatchConfig()
	cfg.Depth = 5
	l.Configure(param.Volume, cfg)
	if got := l.Config(param.Volume).Depth; got != maxLatchDepth {
		t.Fatalf("depth = %v, want clamp at %v", got, maxLatchDepth)
	}

	cfg.Depth = -5
	l.Configure(param.Volume, cfg)
	if got := l.Config(param.Volume).Depth; got != minLatchDepth {
		t.Fatalf("depth = %v, want clamp at %v", got, minLatchDepth)
	}
}

func TestLatchReset(t *testing.T) {
	l := NewLatchSystem(nil, nil)
	l.HandleTap(param.Volume)
	l.Reset()
	if l.ActiveLatchCount() != 0 {
		t.Fatalf("latches survived reset")
	}
}
