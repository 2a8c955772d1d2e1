package velocity

import "testing"

func TestRouterUnknownEngine(t *testing.T) {
	r := NewEngineRouter()
	if out := r.UpdateEngineParameters(9, 0, 100); out != nil {
		t.Fatalf("unknown engine produced output: %v", out)
	}
}

func TestRouterBasicMapping(t *testing.T) {
	r := NewEngineRouter()
	r.RegisterEngine(1, EngineConfig{
		Engine: EngineMacroVA,
		Name:   "test",
		Mappings: []Mapping{
			{Target: TargetVolume, BaseValue: 0.2, VelocityAmount: 0.5,
				Curve: Curve{Type: CurveLinear, Amount: 1}, MinValue: 0, MaxValue: 1},
		},
	})

	out := r.UpdateEngineParameters(1, 0, 127)
	if len(out) != 1 {
		t.Fatalf("output count = %d", len(out))
	}
	if out[0].Target != TargetVolume || !near(out[0].Value, 0.7, 1e-5) {
		t.Fatalf("routed value = %+v, want volume 0.7", out[0])
	}
}

func TestRouterMappingRangeClamp(t *testing.T) {
	r := NewEngineRouter()
	r.RegisterEngine(1, EngineConfig{
		Engine: EngineMacroVA,
		Mappings: []Mapping{
			{Target: TargetFilterCutoff, BaseValue: 0.5, VelocityAmount: 1.0,
				Curve: Curve{Type: CurveLinear, Amount: 1}, MinValue: 0.1, MaxValue: 0.9},
		},
	})

	out := r.UpdateEngineParameters(1, 0, 127)
	if !near(out[0].Value, 0.9, 1e-5) {
		t.Fatalf("value = %v, want clamp at 0.9", out[0].Value)
	}
}

func TestRouterNegativeAmount(t *testing.T) {
	r := NewEngineRouter()
	r.RegisterEngine(1, EngineConfig{
		Engine: EngineMacroVA,
		Mappings: []Mapping{
			{Target: TargetAttack, BaseValue: 0.5, VelocityAmount: -0.3,
				Curve: Curve{Type: CurveLinear, Amount: 1}, MinValue: 0, MaxValue: 1},
		},
	})

	out := r.UpdateEngineParameters(1, 0, 127)
	if !near(out[0].Value, 0.2, 1e-5) {
		t.Fatalf("value = %v, want 0.2", out[0].Value)
	}
}

func TestRouterVoiceState(t *testing.T) {
	r := NewEngineRouter()
	r.RegisterDefaultEngine(1, EngineMacroVA)

	r.UpdateEngineParameters(1, 3, 100)
	r.UpdateEngineParameters(1, 4, 50)

	if got := r.VoiceCount(1); got != 2 {
		t.Fatalf("voice count = %d, want 2", got)
	}
	if v, ok := r.VoiceVelocity(1, 3); !ok || v != 100 {
		t.Fatalf("voice 3 velocity = %d/%v", v, ok)
	}
	if _, ok := r.VoiceValue(1, 3, TargetVolume); !ok {
		t.Fatalf("voice 3 has no routed volume")
	}

	r.RemoveVoice(1, 3)
	if got := r.VoiceCount(1); got != 1 {
		t.Fatalf("voice count after remove = %d, want 1", got)
	}
	r.ClearVoices(1)
	if got := r.VoiceCount(1); got != 0 {
		t.Fatalf("voice count after clear = %d, want 0", got)
	}
}

func TestRouterDefaultPresets(t *testing.T) {
	r := NewEngineRouter()
	for _, typ := range []EngineType{EngineMacroVA, EngineMacroFM, EngineMacroHarmonics, EngineMacroWavetable} {
		if !r.RegisterDefaultEngine(int(typ), typ) {
			t.Fatalf("no default preset for %v", typ)
		}
		cfg, ok := r.EngineConfigFor(int(typ))
		if !ok || len(cfg.Mappings) == 0 {
			t.Fatalf("preset for %v has no mappings", typ)
		}
	}
	if r.RegisterDefaultEngine(99, EngineDrumKit) {
		t.Fatalf("unexpected preset for drum kit")
	}
}

func TestRouterCallback(t *testing.T) {
	r := NewEngineRouter()
	r.RegisterDefaultEngine(1, EngineMacroFM)

	type call struct {
		engineID, voiceID int
		target            Target
	}
	var calls []call
	r.OnUpdate(func(engineID, voiceID int, target Target, value float32) {
		calls = append(calls, call{engineID, voiceID, target})
	})

	out := r.UpdateEngineParameters(1, 2, 110)
	if len(calls) != len(out) {
		t.Fatalf("callback count %d != output count %d", len(calls), len(out))
	}
	for i, c := range calls {
		if c.engineID != 1 || c.voiceID != 2 || c.target != out[i].Target {
			t.Fatalf("callback %d = %+v, want target %v", i, c, out[i].Target)
		}
	}
}

func TestRouterRemoveEngine(t *testing.T) {
	r := NewEngineRouter()
	r.RegisterDefaultEngine(1, EngineMacroVA)
	r.UpdateEngineParameters(1, 0, 80)
	r.RemoveEngine(1)

	if _, ok := r.EngineConfigFor(1); ok {
		t.Fatalf("engine survived removal")
	}
	if got := r.VoiceCount(1); got != 0 {
		t.Fatalf("voices survived engine removal: %d", got)
	}
}

func TestRouterVelocityClamped(t *testing.T) {
	r := NewEngineRouter()
	r.RegisterDefaultEngine(1, EngineMacroVA)
	r.UpdateEngineParameters(1, 0, 300)
	if v, _ := r.VoiceVelocity(1, 0); v != 127 {
		t.Fatalf("velocity = %d, want clamp at 127", v)
	}
}

func TestAvailableTargets(t *testing.T) {
	targets := AvailableTargets(EngineMacroFM)
	found := false
	for _, tgt := range targets {
		if tgt == TargetFMIndex {
			found = true
		}
	}
	if !found {
		t.Fatalf("macro-fm targets missing fm_index: %v", targets)
	}
	if len(AvailableTargets(EngineType(99))) == 0 {
		t.Fatalf("unknown engine type has no common targets")
	}
}
