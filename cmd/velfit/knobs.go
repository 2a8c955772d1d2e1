package main

import (
	"fmt"
	"math"
	"strings"

	fitcommon "github.com/cwbudde/algo-velocity/internal/fitcommon"
	"github.com/cwbudde/algo-velocity/velocity"
)

type knobDef struct {
	Name  string
	Min   float64
	Max   float64
	IsInt bool
}

type candidate struct {
	Vals []float64
}

// parseFitGroups parses a comma-separated string of knob group names.
// Valid groups: curve, gain, gate, smooth.
func parseFitGroups(raw string) (map[string]bool, error) {
	valid := map[string]bool{"curve": true, "gain": true, "gate": true, "smooth": true}
	groups := make(map[string]bool)
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !valid[s] {
			return nil, fmt.Errorf("unknown fit group %q (valid: curve, gain, gate, smooth)", s)
		}
		groups[s] = true
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("no fit groups specified")
	}
	return groups, nil
}

func initCandidate(base velocity.ModulationConfig, groups map[string]bool) ([]knobDef, candidate) {
	defs := make([]knobDef, 0, 8)
	vals := make([]float64, 0, 8)
	addKnob := func(def knobDef, val float64) {
		defs = append(defs, def)
		vals = append(vals, val)
	}

	if groups["curve"] {
		// Curve types linear through power; stepped and table curves
		// are not searchable continuously.
		addKnob(knobDef{Name: "curve_type", Min: 0, Max: 4, IsInt: true}, float64(base.Curve.Type))
		addKnob(knobDef{Name: "curve_amount", Min: 0.1, Max: 10.0}, float64(base.Curve.Amount))
	}
	if groups["gain"] {
		addKnob(knobDef{Name: "scale", Min: 0.1, Max: 5.0}, float64(base.Scale))
		addKnob(knobDef{Name: "offset", Min: -1.0, Max: 1.0}, float64(base.Offset))
		addKnob(knobDef{Name: "depth", Min: 0.0, Max: 2.0}, float64(base.Depth))
	}
	if groups["gate"] {
		addKnob(knobDef{Name: "threshold", Min: 0.0, Max: 0.5}, float64(base.Threshold))
		addKnob(knobDef{Name: "hysteresis", Min: 0.0, Max: 0.2}, float64(base.Hysteresis))
	}
	if groups["smooth"] {
		addKnob(knobDef{Name: "smoothing_amount", Min: 0.0, Max: 0.95}, float64(base.SmoothingAmount))
	}

	for i := range vals {
		vals[i] = fitcommon.Clamp(vals[i], defs[i].Min, defs[i].Max)
		if defs[i].IsInt {
			vals[i] = math.Round(vals[i])
		}
	}
	return defs, candidate{Vals: vals}
}

func applyCandidate(base velocity.ModulationConfig, defs []knobDef, c candidate) velocity.ModulationConfig {
	cfg := base
	for i, def := range defs {
		v := c.Vals[i]
		switch def.Name {
		case "curve_type":
			cfg.Curve.Type = velocity.CurveType(int(math.Round(v)))
		case "curve_amount":
			cfg.Curve.Amount = float32(v)
		case "scale":
			cfg.Scale = float32(v)
		case "offset":
			cfg.Offset = float32(v)
		case "depth":
			cfg.Depth = float32(v)
		case "threshold":
			cfg.Threshold = float32(v)
		case "hysteresis":
			cfg.Hysteresis = float32(v)
		case "smoothing_amount":
			cfg.Smoothing = velocity.SmoothingExponential
			cfg.SmoothingAmount = float32(v)
		}
	}
	return cfg
}

// fromNormalized maps a mayfly position in [0,1]^n to knob values.
func fromNormalized(pos []float64, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i, d := range defs {
		p := fitcommon.Clamp(pos[i], 0.0, 1.0)
		v := d.Min + p*(d.Max-d.Min)
		if d.IsInt {
			v = math.Round(v)
		}
		vals[i] = fitcommon.Clamp(v, d.Min, d.Max)
	}
	return candidate{Vals: vals}
}
