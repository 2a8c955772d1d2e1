package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-velocity/analysis"
	fitcommon "github.com/cwbudde/algo-velocity/internal/fitcommon"
	"github.com/cwbudde/algo-velocity/param"
	"github.com/cwbudde/algo-velocity/velocity"
)

func main() {
	targetPath := flag.String("target", "", "Target response file (one value per line or comma-separated)")
	targetShape := flag.String("target-shape", "soft", "Built-in target when --target is empty: linear|soft|hard|scurve")
	points := flag.Int("points", 128, "Number of response points sampled over the velocity range")
	paramName := flag.String("param", "volume", "Parameter whose response is fitted")
	baseValue := flag.Float64("base-value", 0.0, "Base parameter value during fitting")
	fitGroups := flag.String("fit", "curve,gain", "Comma-separated knob groups to fit: curve, gain, gate, smooth")
	reportPath := flag.String("report", "out/velfit.report.json", "Report JSON path")
	tracePath := flag.String("output-trace", "", "Optional fitted response trace output (CSV)")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 20.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 20000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 500, "Print progress every N evaluations")
	topK := flag.Int("top-k", 5, "How many top candidates to keep in report")
	resume := flag.Bool("resume", true, "Resume from previous best_knobs report when available")
	workers := flag.String("workers", "1", "Parallel optimization workers running independent Mayfly rounds (number or 'auto')")

	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 240, "Target eval budget per Mayfly round")
	flag.Parse()

	if *points < 8 {
		die("points must be >= 8")
	}
	if *maxEvals < 1 {
		die("max-evals must be >= 1")
	}
	if *timeBudget <= 0 {
		die("time-budget must be > 0")
	}
	if *reportEvery < 1 {
		*reportEvery = 1
	}
	if *mayflyPop < 2 {
		*mayflyPop = 2
	}
	if *mayflyRoundEvals < *mayflyPop*2 {
		*mayflyRoundEvals = *mayflyPop * 2
	}
	if *topK < 1 {
		*topK = 1
	}
	groups, err := parseFitGroups(*fitGroups)
	if err != nil {
		die("invalid --fit: %v", err)
	}
	parsedWorkers, err := fitcommon.ParseWorkers(*workers)
	if err != nil {
		die("invalid workers value: %v", err)
	}
	id, ok := param.IDByName(*paramName)
	if !ok {
		die("unknown parameter %q", *paramName)
	}

	target, err := loadTarget(*targetPath, *targetShape, *points)
	if err != nil {
		die("failed to load target: %v", err)
	}

	baseConfig := velocity.NewDefaultModulationConfig()
	baseConfig.Mode = velocity.ModeAbsolute
	defs, initCand := initCandidate(baseConfig, groups)
	if *resume {
		if resumed, ok, err := loadCandidateFromReport(*reportPath, defs, initCand); err != nil {
			fmt.Fprintf(os.Stderr, "resume skipped (%s): %v\n", *reportPath, err)
		} else if ok {
			initCand = resumed
			fmt.Printf("Resumed candidate from %s\n", *reportPath)
		}
	}

	cfg := &optimizationConfig{
		target:           target,
		baseConfig:       baseConfig,
		defs:             defs,
		initCandidate:    initCand,
		paramID:          id,
		baseValue:        float32(*baseValue),
		points:           *points,
		seed:             *seed,
		timeBudget:       *timeBudget,
		maxEvals:         *maxEvals,
		reportEvery:      *reportEvery,
		mayflyVariant:    *mayflyVariant,
		mayflyPop:        *mayflyPop,
		mayflyRoundEvals: *mayflyRoundEvals,
		workers:          parsedWorkers,
		topK:             *topK,
	}

	result, err := runOptimization(cfg)
	if err != nil {
		die("optimization failed: %v", err)
	}

	if err := writeReport(*reportPath, cfg, result); err != nil {
		die("failed to write report: %v", err)
	}
	if *tracePath != "" {
		if err := writeTrace(*tracePath, result.bestTrace); err != nil {
			die("failed to write trace: %v", err)
		}
	}

	fmt.Printf("Done evals=%d elapsed=%.1fs best_score=%.4f best_similarity=%.2f%% variant=%s\n",
		result.evals, result.elapsed, result.bestMetrics.Score, result.bestMetrics.Similarity*100.0,
		strings.ToLower(*mayflyVariant))
}

// loadTarget reads a response trace from disk, resampling by linear
// interpolation when the point counts differ, or synthesizes one of
// the built-in shapes.
func loadTarget(path string, shape string, points int) ([]float64, error) {
	if path == "" {
		return shapeTarget(shape, points)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fields := strings.FieldsFunc(string(b), func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r' || r == ' ' || r == '\t'
	})
	raw := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("bad value %q: %w", f, err)
		}
		raw = append(raw, v)
	}
	if len(raw) < 2 {
		return nil, fmt.Errorf("target needs at least 2 values, got %d", len(raw))
	}
	if len(raw) == points {
		return raw, nil
	}
	out := make([]float64, points)
	for i := 0; i < points; i++ {
		pos := float64(i) / float64(points-1) * float64(len(raw)-1)
		lo := int(pos)
		hi := lo + 1
		if hi >= len(raw) {
			hi = len(raw) - 1
		}
		frac := pos - float64(lo)
		out[i] = raw[lo]*(1-frac) + raw[hi]*frac
	}
	return out, nil
}

func shapeTarget(shape string, points int) ([]float64, error) {
	var f func(x float64) float64
	switch strings.ToLower(strings.TrimSpace(shape)) {
	case "linear":
		f = func(x float64) float64 { return x }
	case "soft":
		f = math.Sqrt
	case "hard":
		f = func(x float64) float64 { return x * x }
	case "scurve":
		f = func(x float64) float64 { return x * x * (3 - 2*x) }
	default:
		return nil, fmt.Errorf("unsupported target shape %q", shape)
	}
	out := make([]float64, points)
	for i := range out {
		out[i] = f(float64(i) / float64(points-1))
	}
	return out, nil
}

type report struct {
	Variant    string             `json:"variant"`
	Param      string             `json:"param"`
	Points     int                `json:"points"`
	Evals      int                `json:"evals"`
	ElapsedS   float64            `json:"elapsed_s"`
	Metrics    analysis.Metrics   `json:"metrics"`
	BestKnobs  map[string]float64 `json:"best_knobs"`
	Top        []topCandidate     `json:"top_candidates"`
	BestConfig reportConfig       `json:"best_config"`
}

type reportConfig struct {
	Mode        string  `json:"mode"`
	Curve       string  `json:"curve"`
	CurveAmount float32 `json:"curve_amount"`
	Scale       float32 `json:"scale"`
	Offset      float32 `json:"offset"`
	Depth       float32 `json:"depth"`
	Threshold   float32 `json:"threshold"`
	Hysteresis  float32 `json:"hysteresis"`
}

func writeReport(path string, cfg *optimizationConfig, result *optimizationResult) error {
	knobs := make(map[string]float64, len(cfg.defs))
	for i, d := range cfg.defs {
		knobs[d.Name] = result.best.Vals[i]
	}
	rep := report{
		Variant:   strings.ToLower(cfg.mayflyVariant),
		Param:     cfg.paramID.String(),
		Points:    cfg.points,
		Evals:     result.evals,
		ElapsedS:  result.elapsed,
		Metrics:   result.bestMetrics,
		BestKnobs: knobs,
		Top:       result.top,
		BestConfig: reportConfig{
			Mode:        result.bestConfig.Mode.String(),
			Curve:       result.bestConfig.Curve.Type.String(),
			CurveAmount: result.bestConfig.Curve.Amount,
			Scale:       result.bestConfig.Scale,
			Offset:      result.bestConfig.Offset,
			Depth:       result.bestConfig.Depth,
			Threshold:   result.bestConfig.Threshold,
			Hysteresis:  result.bestConfig.Hysteresis,
		},
	}
	b, err := json.MarshalIndent(&rep, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func writeTrace(path string, trace []float64) error {
	var b strings.Builder
	for _, v := range trace {
		fmt.Fprintf(&b, "%.6f\n", v)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func loadCandidateFromReport(path string, defs []knobDef, fallback candidate) (candidate, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fallback, false, nil
		}
		return fallback, false, err
	}
	var rep struct {
		BestKnobs map[string]float64 `json:"best_knobs"`
	}
	if err := json.Unmarshal(b, &rep); err != nil {
		return fallback, false, err
	}
	if len(rep.BestKnobs) == 0 {
		return fallback, false, nil
	}
	vals := make([]float64, len(fallback.Vals))
	copy(vals, fallback.Vals)
	for i, d := range defs {
		if v, ok := rep.BestKnobs[d.Name]; ok {
			vals[i] = fitcommon.Clamp(v, d.Min, d.Max)
			if d.IsInt {
				vals[i] = math.Round(vals[i])
			}
		}
	}
	return candidate{Vals: vals}, true, nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
