package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-velocity/analysis"
)

func main() {
	referencePath := flag.String("reference", "", "Reference trace file (one value per line or comma-separated)")
	referenceShape := flag.String("reference-shape", "soft", "Built-in reference when --reference is empty: linear|soft|hard|scurve")
	candidatePath := flag.String("candidate", "", "Candidate trace file")
	points := flag.Int("points", 128, "Points to compare after resampling")
	jsonOut := flag.Bool("json", false, "Print metrics as JSON")
	flag.Parse()

	if *candidatePath == "" {
		die("--candidate is required")
	}
	if *points < 2 {
		die("points must be >= 2")
	}

	ref, err := loadTrace(*referencePath, *referenceShape, *points)
	if err != nil {
		die("failed to load reference: %v", err)
	}
	cand, err := loadTrace(*candidatePath, "", *points)
	if err != nil {
		die("failed to load candidate: %v", err)
	}

	metrics := analysis.Compare(ref, cand)
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(metrics); err != nil {
			die("json encode failed: %v", err)
		}
		return
	}

	fmt.Printf("Reference points: %d\n", metrics.ReferencePoints)
	fmt.Printf("Candidate points: %d\n", metrics.CandidatePoints)
	fmt.Printf("Compared points:  %d\n", metrics.ComparedPoints)
	fmt.Println()
	fmt.Printf("RMSE:             %.6f\n", metrics.RMSE)
	fmt.Printf("Max error:        %.6f\n", metrics.MaxError)
	fmt.Printf("Mean error:       %.6f\n", metrics.MeanError)
	fmt.Printf("Monotonicity:     %.4f\n", metrics.Monotonicity)
	fmt.Println()
	fmt.Printf("Score:            %.4f  (0 best, 1 worst)\n", metrics.Score)
	fmt.Printf("Similarity:       %.2f%%\n", metrics.Similarity*100.0)
}

// loadTrace reads a response trace from disk, resampling it to the
// requested point count, or synthesizes a built-in shape when no path
// is given.
func loadTrace(path string, shape string, points int) ([]float64, error) {
	if path == "" {
		return shapeTrace(shape, points)
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
		return nil, fmt.Errorf("trace needs at least 2 values, got %d", len(raw))
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

func shapeTrace(shape string, points int) ([]float64, error) {
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
		return nil, fmt.Errorf("unsupported reference shape %q", shape)
	}
	out := make([]float64, points)
	for i := range out {
		out[i] = f(float64(i) / float64(points-1))
	}
	return out, nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
