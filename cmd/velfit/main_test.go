package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-velocity/analysis"
)

func metricsWithScore(s float64) analysis.Metrics {
	return analysis.Metrics{Score: s, Similarity: math.Exp(-4.0 * s)}
}

func TestShapeTargets(t *testing.T) {
	for _, shape := range []string{"linear", "soft", "hard", "scurve"} {
		out, err := shapeTarget(shape, 32)
		if err != nil {
			t.Fatalf("shape %q: %v", shape, err)
		}
		if len(out) != 32 {
			t.Fatalf("shape %q: got %d points", shape, len(out))
		}
		if out[0] != 0 {
			t.Fatalf("shape %q: starts at %v, want 0", shape, out[0])
		}
		if math.Abs(out[31]-1) > 1e-9 {
			t.Fatalf("shape %q: ends at %v, want 1", shape, out[31])
		}
	}
	if _, err := shapeTarget("bogus", 32); err == nil {
		t.Fatal("expected error for unknown shape")
	}
}

func TestLoadTargetFromFileResamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target.csv")
	if err := os.WriteFile(path, []byte("0.0, 0.5, 1.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := loadTarget(path, "", 5)
	if err != nil {
		t.Fatalf("loadTarget: %v", err)
	}
	want := []float64{0.0, 0.25, 0.5, 0.75, 1.0}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-9 {
			t.Fatalf("point %d = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestLoadTargetRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target.csv")
	if err := os.WriteFile(path, []byte("0.0, zebra, 1.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadTarget(path, "", 5); err == nil {
		t.Fatal("expected error for non-numeric value")
	}
}

func TestLoadCandidateFromReportBestKnobs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	body := `{"best_knobs":{"curve_amount":3.0,"scale":99.0}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	defs := []knobDef{
		{Name: "curve_amount", Min: 0.1, Max: 10},
		{Name: "scale", Min: 0.1, Max: 5},
	}
	fallback := candidate{Vals: []float64{1.0, 1.0}}
	cand, ok, err := loadCandidateFromReport(path, defs, fallback)
	if err != nil {
		t.Fatalf("loadCandidateFromReport: %v", err)
	}
	if !ok {
		t.Fatal("expected resume")
	}
	if cand.Vals[0] != 3.0 {
		t.Fatalf("curve_amount = %v, want 3", cand.Vals[0])
	}
	if cand.Vals[1] != 5.0 {
		t.Fatalf("out-of-range scale should clamp to 5, got %v", cand.Vals[1])
	}
}

func TestLoadCandidateFromReportMissingFile(t *testing.T) {
	fallback := candidate{Vals: []float64{1.0}}
	cand, ok, err := loadCandidateFromReport(filepath.Join(t.TempDir(), "missing.json"), nil, fallback)
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if ok {
		t.Fatal("missing file should not resume")
	}
	if cand.Vals[0] != 1.0 {
		t.Fatal("fallback candidate should pass through")
	}
}
