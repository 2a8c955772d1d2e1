package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	fitcommon "github.com/cwbudde/algo-velocity/internal/fitcommon"
	"github.com/cwbudde/algo-velocity/param"
	"github.com/cwbudde/algo-velocity/preset"
	"github.com/cwbudde/algo-velocity/velocity"
)

func main() {
	outputPath := flag.String("output", "out/velrender.wav", "Output WAV path")
	presetPath := flag.String("preset", "", "Optional preset JSON path applied before rendering")
	inputPath := flag.String("in", "", "Optional carrier WAV (mono mixdown); a sine is generated when empty")
	velocities := flag.String("velocities", "16,48,80,112,127", "Comma-separated MIDI velocities to audition")
	paramName := flag.String("param", "volume", "Parameter name driven by velocity")
	curveName := flag.String("curve", "exponential", "Velocity curve: linear|exponential|logarithmic|s-curve|power|stepped")
	curveAmount := flag.Float64("curve-amount", 2.0, "Curve shaping amount")
	curveSteps := flag.Int("curve-steps", 0, "Step count for the stepped curve (0 keeps the default)")
	modeName := flag.String("mode", "absolute", "Combine mode: absolute|relative|additive|multiplicative|envelope|bipolar-center")
	depth := flag.Float64("depth", 1.0, "Modulation depth")
	scale := flag.Float64("scale", 1.0, "Velocity scale before combining")
	invert := flag.Bool("invert", false, "Invert incoming velocity")
	noteDuration := flag.Float64("note-duration", 0.5, "Seconds per velocity step")
	gapDuration := flag.Float64("gap-duration", 0.05, "Silent gap between steps in seconds")
	frequency := flag.Float64("freq", 220.0, "Sine carrier frequency in Hz")
	gain := flag.Float64("gain", 0.8, "Output gain")
	mono := flag.Bool("mono", false, "Write mono output (pre-pan signal) instead of stereo")
	sampleRate := flag.Int("sample-rate", 48000, "Output sample rate")
	blockSize := flag.Int("block-size", 128, "Audio render block size")
	flag.Parse()

	if *sampleRate < 8000 {
		die("sample-rate must be >= 8000")
	}
	if *noteDuration <= 0 {
		die("note-duration must be > 0")
	}
	if *blockSize < 16 {
		*blockSize = 16
	}

	vels, err := fitcommon.ParseVelocities(*velocities)
	if err != nil {
		die("invalid velocities: %v", err)
	}
	id, ok := param.IDByName(*paramName)
	if !ok {
		die("unknown parameter %q", *paramName)
	}
	curveType, err := parseCurveType(*curveName)
	if err != nil {
		die("%v", err)
	}
	mode, err := parseMode(*modeName)
	if err != nil {
		die("%v", err)
	}

	store := param.NewStore(float32(*sampleRate))
	if *presetPath != "" {
		p, err := preset.Load(*presetPath)
		if err != nil {
			die("failed to load preset: %v", err)
		}
		preset.ApplyToStore(store, p)
		fmt.Printf("Loaded preset %s\n", *presetPath)
	}
	baseValue := store.Get(id)

	var carrier []float64
	if *inputPath != "" {
		raw, inSR, err := fitcommon.ReadWAVMono(*inputPath)
		if err != nil {
			die("failed to read carrier: %v", err)
		}
		carrier, err = fitcommon.ResampleIfNeeded(raw, inSR, *sampleRate)
		if err != nil {
			die("failed to resample carrier: %v", err)
		}
		fmt.Printf("Carrier %s (%d frames at %d Hz)\n", *inputPath, len(carrier), *sampleRate)
	}

	cfg := velocity.NewDefaultModulationConfig()
	cfg.Mode = mode
	cfg.Curve = velocity.Curve{Type: curveType, Amount: float32(*curveAmount), Steps: *curveSteps}
	cfg.Scale = float32(*scale)
	cfg.Depth = float32(*depth)
	cfg.Invert = *invert
	calc := velocity.NewCalculator()
	calc.Configure(id, cfg)

	noteFrames := int(float64(*sampleRate) * *noteDuration)
	gapFrames := int(float64(*sampleRate) * *gapDuration)
	stereo := make([]float32, 0, (noteFrames+gapFrames)*len(vels)*2)
	var monoBuf []float32
	if *mono {
		monoBuf = make([]float32, 0, (noteFrames+gapFrames)*len(vels))
	}
	phase := 0.0
	phaseInc := 2.0 * math.Pi * *frequency / float64(*sampleRate)
	carrierPos := 0

	for _, vel := range vels {
		res := calc.Calculate(id, baseValue, vel)
		store.Set(id, res.ModulatedValue)
		fmt.Printf("velocity=%3d processed=%.4f value=%.4f active=%v\n",
			vel, res.ProcessedVelocity, res.ModulatedValue, res.IsActive)

		rendered := 0
		for rendered < noteFrames {
			frames := *blockSize
			if rendered+frames > noteFrames {
				frames = noteFrames - rendered
			}
			store.ProcessAudioBlock(frames)
			level := store.Get(id) * float32(*gain)
			pan := store.Get(param.Pan)
			for i := 0; i < frames; i++ {
				var s float32
				if carrier != nil {
					s = float32(carrier[carrierPos%len(carrier)])
					carrierPos++
				} else {
					s = float32(math.Sin(phase))
					phase += phaseInc
				}
				s *= level
				if *mono {
					monoBuf = append(monoBuf, s)
				}
				stereo = append(stereo, s*(1.0-pan), s*pan)
			}
			rendered += frames
		}

		// Let the smoother settle back toward the base during the gap.
		store.Set(id, baseValue)
		rendered = 0
		for rendered < gapFrames {
			frames := *blockSize
			if rendered+frames > gapFrames {
				frames = gapFrames - rendered
			}
			store.ProcessAudioBlock(frames)
			for i := 0; i < frames; i++ {
				if *mono {
					monoBuf = append(monoBuf, 0)
				}
				stereo = append(stereo, 0, 0)
			}
			rendered += frames
		}
	}

	if *mono {
		if err := fitcommon.WriteMonoWAV(*outputPath, monoBuf, *sampleRate); err != nil {
			die("failed to write output: %v", err)
		}
	} else if err := fitcommon.WriteStereoInterleavedWAV(*outputPath, stereo, *sampleRate); err != nil {
		die("failed to write output: %v", err)
	}
	rms := fitcommon.StereoRMS(stereo)
	fmt.Printf("Wrote %s (%d frames, RMS %.4f)\n", *outputPath, len(stereo)/2, rms)
}

func parseCurveType(name string) (velocity.CurveType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linear":
		return velocity.CurveLinear, nil
	case "exponential", "exp":
		return velocity.CurveExponential, nil
	case "logarithmic", "log":
		return velocity.CurveLogarithmic, nil
	case "s-curve", "scurve":
		return velocity.CurveSCurve, nil
	case "power":
		return velocity.CurvePower, nil
	case "stepped":
		return velocity.CurveStepped, nil
	default:
		return velocity.CurveLinear, fmt.Errorf("unsupported curve %q", name)
	}
}

func parseMode(name string) (velocity.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "absolute":
		return velocity.ModeAbsolute, nil
	case "relative":
		return velocity.ModeRelative, nil
	case "additive":
		return velocity.ModeAdditive, nil
	case "multiplicative":
		return velocity.ModeMultiplicative, nil
	case "envelope":
		return velocity.ModeEnvelope, nil
	case "bipolar-center", "bipolar":
		return velocity.ModeBipolarCenter, nil
	default:
		return velocity.ModeAbsolute, fmt.Errorf("unsupported mode %q", name)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
