package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/cwbudde/algo-velocity/analysis"
	"github.com/cwbudde/algo-velocity/param"
)

func main() {
	smoothType := flag.String("type", "audible", "Smoother type: fast|audible|adaptive|instant")
	curveName := flag.String("curve", "exponential", "Smoother curve: linear|exponential|s-curve|logarithmic")
	fastMs := flag.Float64("fast-ms", 2.0, "Fast smoothing time in ms")
	audibleMs := flag.Float64("audible-ms", 20.0, "Audible smoothing time in ms")
	sampleRate := flag.Int("sample-rate", 48000, "Sample rate in Hz")
	fftSize := flag.Int("fft-size", 8192, "FFT size (power of two)")
	bins := flag.Int("print-bins", 16, "Magnitude bins to print")
	flag.Parse()

	typ, err := parseSmoothType(*smoothType)
	if err != nil {
		die("%v", err)
	}
	curve, err := parseSmoothCurve(*curveName)
	if err != nil {
		die("%v", err)
	}

	cfg := param.NewDefaultSmootherConfig(float32(*sampleRate))
	cfg.Type = typ
	cfg.Curve = curve
	cfg.FastTimeMs = float32(*fastMs)
	cfg.AudibleTimeMs = float32(*audibleMs)

	spec, err := analysis.MeasureSmoother(cfg, *fftSize)
	if err != nil {
		die("measurement failed: %v", err)
	}

	fmt.Printf("Smoother %s/%s at %d Hz (fft %d, bin %.2f Hz)\n",
		*smoothType, *curveName, *sampleRate, *fftSize, spec.BinHz)
	if spec.CutoffHz > 0 {
		fmt.Printf("-3 dB cutoff: %.1f Hz\n\n", spec.CutoffHz)
	} else {
		fmt.Printf("-3 dB cutoff: none within measured range\n\n")
	}

	n := *bins
	if n > len(spec.Magnitude) {
		n = len(spec.Magnitude)
	}
	for k := 0; k < n; k++ {
		db := 20.0 * math.Log10(math.Max(spec.Magnitude[k], 1e-12))
		fmt.Printf("%8.1f Hz  %7.2f dB\n", float64(k)*spec.BinHz, db)
	}
}

func parseSmoothType(name string) (param.SmoothType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fast":
		return param.SmoothFast, nil
	case "audible":
		return param.SmoothAudible, nil
	case "adaptive":
		return param.SmoothAdaptive, nil
	case "instant":
		return param.SmoothInstant, nil
	default:
		return param.SmoothAudible, fmt.Errorf("unsupported smoother type %q", name)
	}
}

func parseSmoothCurve(name string) (param.SmoothCurve, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linear":
		return param.CurveLinear, nil
	case "exponential", "exp":
		return param.CurveExponential, nil
	case "s-curve", "scurve":
		return param.CurveSCurve, nil
	case "logarithmic", "log":
		return param.CurveLogarithmic, nil
	default:
		return param.CurveLinear, fmt.Errorf("unsupported smoother curve %q", name)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
