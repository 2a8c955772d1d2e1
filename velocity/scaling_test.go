package velocity

import (
	"testing"

	"github.com/cwbudde/algo-velocity/param"
)

func TestScalingDefaultsAdditive(t *testing.T) {
	tab := NewScalingTable()
	res := tab.Apply(param.Volume, 0.2, 0.5)
	if !near(res.FinalValue, 0.7, 1e-6) {
		t.Fatalf("final = %v, want 0.7", res.FinalValue)
	}
	if res.InDeadzone || !res.ThresholdPassed {
		t.Fatalf("unexpected flags: %+v", res)
	}
}

func TestScalingDeadzone(t *testing.T) {
	tab := NewScalingTable()
	cfg := NewDefaultScalingConfig()
	cfg.Deadzone = 0.1
	tab.Configure(param.Volume, cfg)

	res := tab.Apply(param.Volume, 0.4, 0.05)
	if !res.InDeadzone {
		t.Fatalf("velocity below deadzone not flagged")
	}
	if res.FinalValue != 0.4 {
		t.Fatalf("deadzone changed base value: %v", res.FinalValue)
	}
}

func TestScalingHysteresis(t *testing.T) {
	tab := NewScalingTable()
	cfg := NewDefaultScalingConfig()
	cfg.Threshold = 0.5
	cfg.Hysteresis = 0.1
	tab.Configure(param.Volume, cfg)

	// Below t+h: gate stays closed.
	if res := tab.Apply(param.Volume, 0.3, 0.55); res.ThresholdPassed {
		t.Fatalf("gate opened below threshold+hysteresis")
	}
	// Above t+h: gate opens.
	if res := tab.Apply(param.Volume, 0.3, 0.7); !res.ThresholdPassed {
		t.Fatalf("gate failed to open above threshold+hysteresis")
	}
	// Inside the band: gate stays open.
	if res := tab.Apply(param.Volume, 0.3, 0.45); !res.ThresholdPassed {
		t.Fatalf("gate closed inside hysteresis band")
	}
	// Below t-h: gate closes.
	if res := tab.Apply(param.Volume, 0.3, 0.35); res.ThresholdPassed {
		t.Fatalf("gate stayed open below threshold-hysteresis")
	}
}

func TestScalingInvert(t *testing.T) {
	tab := NewScalingTable()
	cfg := NewDefaultScalingConfig()
	cfg.Invert = true
	tab.Configure(param.Volume, cfg)

	res := tab.Apply(param.Volume, 0, 0.3)
	if !near(res.ScaledVelocity, 0.7, 1e-6) {
		t.Fatalf("inverted velocity = %v, want 0.7", res.ScaledVelocity)
	}
}

func TestScalingRangeRemap(t *testing.T) {
	tab := NewScalingTable()
	cfg := NewDefaultScalingConfig()
	cfg.RangeMin = 0.5
	cfg.RangeMax = 1.0
	tab.Configure(param.Volume, cfg)

	res := tab.Apply(param.Volume, 0, 0.5)
	if !near(res.ScaledVelocity, 0.75, 1e-6) {
		t.Fatalf("remapped velocity = %v, want 0.75", res.ScaledVelocity)
	}
}

func TestScalingKnee(t *testing.T) {
	// Compression: above 0.7 the excess is divided by the ratio.
	if got := applyKnee(0.9, 2); !near(got, 0.8, 1e-6) {
		t.Fatalf("compress knee = %v, want 0.8", got)
	}
	// Expansion: below 0.3 the deficit grows by 1/ratio.
	if got := applyKnee(0.2, 0.5); !near(got, 0.1, 1e-6) {
		t.Fatalf("expand knee = %v, want 0.1", got)
	}
	// Ratio 1 bypasses.
	if got := applyKnee(0.9, 1); got != 0.9 {
		t.Fatalf("unity knee altered value: %v", got)
	}
}

func TestScalingCategoryDefaults(t *testing.T) {
	if got := NewCategoryScalingConfig(CategoryFilterCutoff).Scale; got != 1.5 {
		t.Fatalf("filter cutoff scale = %v, want 1.5", got)
	}
	if got := NewCategoryScalingConfig(CategoryFilterResonance).Scale; got != 0.8 {
		t.Fatalf("filter resonance scale = %v, want 0.8", got)
	}
	if got := NewCategoryScalingConfig(CategoryVolume).Scale; got != 2.0 {
		t.Fatalf("volume scale = %v, want 2.0", got)
	}
	if got := NewCategoryScalingConfig(CategoryPan).Polarity; got != PolarityBipolar {
		t.Fatalf("pan polarity = %v, want bipolar", got)
	}
}

func TestScalingBipolar(t *testing.T) {
	tab := NewScalingTable()
	cfg := NewDefaultScalingConfig()
	cfg.Polarity = PolarityBipolar
	cfg.Center = 0.5
	tab.Configure(param.Pan, cfg)

	// Mid velocity sits at the center.
	res := tab.Apply(param.Pan, 0.5, 0.5)
	if !near(res.FinalValue, 0.5, 1e-6) {
		t.Fatalf("bipolar mid = %v, want 0.5", res.FinalValue)
	}
	// Full velocity swings to the top.
	res = tab.Apply(param.Pan, 0.5, 1.0)
	if !near(res.FinalValue, 1.0, 1e-6) {
		t.Fatalf("bipolar full = %v, want 1.0", res.FinalValue)
	}
}

func TestScalingScaleClamped(t *testing.T) {
	tab := NewScalingTable()
	cfg := NewDefaultScalingConfig()
	cfg.Scale = 50
	tab.Configure(param.Volume, cfg)
	if got := tab.Config(param.Volume).Scale; got != maxScale {
		t.Fatalf("scale = %v, want clamp at %v", got, maxScale)
	}
}

func TestScalingAutoScale(t *testing.T) {
	tab := NewScalingTable()
	cfg := NewDefaultScalingConfig()
	cfg.AutoScale = true
	cfg.Scale = 1.0
	tab.Configure(param.Volume, cfg)

	// Fewer than ten samples: no recommendation beyond the current scale.
	for i := 0; i < 9; i++ {
		tab.Apply(param.Volume, 0.5, 0.5)
	}
	if tab.StepAutoScale(param.Volume) {
		t.Fatalf("auto-scale stepped with too few samples")
	}

	// A narrow velocity range recommends 2.0, approached in 0.1 steps.
	tab.Apply(param.Volume, 0.5, 0.55)
	if got := tab.RecommendedScale(param.Volume); got != 2.0 {
		t.Fatalf("recommended scale = %v, want 2.0", got)
	}
	if !tab.StepAutoScale(param.Volume) {
		t.Fatalf("auto-scale refused to step")
	}
	if got := tab.Config(param.Volume).Scale; !near(got, 1.1, 1e-6) {
		t.Fatalf("scale after one step = %v, want 1.1", got)
	}
}

func TestScalingHistoryCap(t *testing.T) {
	tab := NewScalingTable()
	cfg := NewDefaultScalingConfig()
	cfg.AutoScale = true
	tab.Configure(param.Volume, cfg)

	for i := 0; i < 250; i++ {
		tab.Apply(param.Volume, 0.5, 0.5)
	}
	if got := tab.SampleCount(param.Volume); got != autoScaleHistoryCap {
		t.Fatalf("history size = %d, want %d", got, autoScaleHistoryCap)
	}
}
