package analysis

import (
	"math"
)

// Metrics contains distance and similarity measurements between two
// velocity response traces.
type Metrics struct {
	ReferencePoints int `json:"reference_points"`
	CandidatePoints int `json:"candidate_points"`
	ComparedPoints  int `json:"compared_points"`

	RMSE         float64 `json:"rmse"`
	MaxError     float64 `json:"max_error"`
	MeanError    float64 `json:"mean_error"`
	Monotonicity float64 `json:"monotonicity"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

// Compare returns objective distance metrics between a reference and a
// candidate velocity response, plus a combined score in [0,1] where 0
// is a perfect match.
func Compare(reference []float64, candidate []float64) Metrics {
	m := Metrics{
		ReferencePoints: len(reference),
		CandidatePoints: len(candidate),
	}
	n := len(reference)
	if len(candidate) < n {
		n = len(candidate)
	}
	if n == 0 {
		m.Score = 1.0
		m.Similarity = 0.0
		return m
	}
	m.ComparedPoints = n

	var sumSq, sumAbs, worst float64
	for i := 0; i < n; i++ {
		d := reference[i] - candidate[i]
		sumSq += d * d
		ad := math.Abs(d)
		sumAbs += ad
		if ad > worst {
			worst = ad
		}
	}
	m.RMSE = math.Sqrt(sumSq / float64(n))
	m.MeanError = sumAbs / float64(n)
	m.MaxError = worst
	m.Monotonicity = monotonicity(candidate[:n])

	rmseNorm := clamp01(m.RMSE / 0.25)
	maxNorm := clamp01(m.MaxError / 0.5)
	monoPenalty := clamp01(monotonicity(reference[:n]) - m.Monotonicity)
	m.Score = clamp01(0.5*rmseNorm + 0.3*maxNorm + 0.2*monoPenalty)
	m.Similarity = clamp01(math.Exp(-4.0 * m.Score))
	return m
}

// monotonicity reports the fraction of non-decreasing steps in a
// trace, 1 for fully monotonic.
func monotonicity(x []float64) float64 {
	if len(x) < 2 {
		return 1.0
	}
	up := 0
	for i := 1; i < len(x); i++ {
		if x[i] >= x[i-1]-1e-9 {
			up++
		}
	}
	return float64(up) / float64(len(x)-1)
}

// ResponseTrace samples a velocity-to-value function over the full
// MIDI velocity range into n points.
func ResponseTrace(n int, f func(velocity int) float64) []float64 {
	if n < 2 {
		n = 2
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		vel := int(math.Round(float64(i) * 127.0 / float64(n-1)))
		out[i] = f(vel)
	}
	return out
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
