package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-velocity/param"
)

// SmootherSpectrum measures the frequency response of a parameter
// smoother by differentiating its step response and taking a forward
// real FFT.
type SmootherSpectrum struct {
	SampleRate float32
	BinHz      float64
	Magnitude  []float64 // nBins entries, DC first, normalized to 1
	CutoffHz   float64   // -3 dB point, 0 when the response never drops
}

// MeasureSmoother runs a smoother configured by cfg through a unit
// step and reports its spectrum. fftSize must be a power of two large
// enough to contain the ramp.
func MeasureSmoother(cfg param.SmootherConfig, fftSize int) (*SmootherSpectrum, error) {
	if fftSize < 64 {
		return nil, fmt.Errorf("fft size %d too small", fftSize)
	}

	s := param.NewSmoother(cfg, 0)
	s.SetTarget(1)

	// Impulse response as the first difference of the step response.
	buf := make([]float64, fftSize)
	prev := float64(0)
	for i := 0; i < fftSize; i++ {
		cur := float64(s.Next())
		buf[i] = cur - prev
		prev = cur
	}

	plan, err := algofft.NewPlanReal64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("fft plan: %w", err)
	}
	spec := make([]complex128, fftSize/2+1)
	plan.Forward(spec, buf)

	nBins := fftSize / 2
	mag := make([]float64, nBins)
	for k := 0; k < nBins; k++ {
		mag[k] = cmplx.Abs(spec[k])
	}
	dc := mag[0]
	if dc > 1e-12 {
		for k := range mag {
			mag[k] /= dc
		}
	}

	out := &SmootherSpectrum{
		SampleRate: cfg.SampleRate,
		BinHz:      float64(cfg.SampleRate) / float64(fftSize),
		Magnitude:  mag,
	}
	out.CutoffHz = cutoffHz(mag, out.BinHz)
	return out, nil
}

// cutoffHz finds the -3 dB crossing with linear interpolation between
// bins.
func cutoffHz(mag []float64, binHz float64) float64 {
	const target = math.Sqrt2 / 2
	for k := 1; k < len(mag); k++ {
		if mag[k] < target {
			m0, m1 := mag[k-1], mag[k]
			frac := 0.0
			if m0 != m1 {
				frac = (m0 - target) / (m0 - m1)
			}
			return (float64(k-1) + frac) * binHz
		}
	}
	return 0
}
