package velocity

import "math"

// CurveType selects the velocity response shape.
type CurveType int

const (
	CurveLinear CurveType = iota
	CurveExponential
	CurveLogarithmic
	CurveSCurve
	CurvePower
	CurveStepped
	CurveCustom
)

func (c CurveType) String() string {
	switch c {
	case CurveLinear:
		return "linear"
	case CurveExponential:
		return "exponential"
	case CurveLogarithmic:
		return "logarithmic"
	case CurveSCurve:
		return "s-curve"
	case CurvePower:
		return "power"
	case CurveStepped:
		return "stepped"
	case CurveCustom:
		return "custom"
	default:
		return "unknown"
	}
}

const (
	minCurveAmount = 0.1
	maxCurveAmount = 10.0

	minSteps = 2
	maxSteps = 16
)

// Curve maps a normalized velocity in [0,1] to a shaped response in
// [0,1]. The zero value behaves as a linear curve.
type Curve struct {
	Type   CurveType
	Amount float32 // shape intensity, clamped to [0.1, 10]
	Steps  int     // CurveStepped only, clamped to [2, 16]
	Table  []float32
}

// Apply shapes a normalized velocity. Inputs outside [0,1] are clamped
// first; the output is always in [0,1].
func (c Curve) Apply(v float32) float32 {
	v = clamp01(v)
	a := clampf(c.Amount, minCurveAmount, maxCurveAmount)
	if c.Amount == 0 {
		a = 1
	}

	switch c.Type {
	case CurveExponential:
		return clamp01(powf(v, 1.0/a))
	case CurveLogarithmic:
		return clamp01(powf(v, a))
	case CurveSCurve:
		return clamp01(sCurve(v, a))
	case CurvePower:
		return clamp01(powf(v, a))
	case CurveStepped:
		return steppedCurve(v, c.Steps)
	case CurveCustom:
		return lookupCurve(v, c.Table)
	default:
		return v
	}
}

func sCurve(v, a float32) float32 {
	t := float32(math.Tanh(float64(a)))
	if t == 0 {
		return v
	}
	num := float32(math.Tanh(float64(a * (2*v - 1))))
	return (num/t + 1) * 0.5
}

func steppedCurve(v float32, steps int) float32 {
	if steps < minSteps {
		steps = minSteps
	}
	if steps > maxSteps {
		steps = maxSteps
	}
	n := float32(steps - 1)
	return float32(math.Floor(float64(v*n+0.5))) / n
}

// lookupCurve interpolates a user table linearly. Tables shorter than
// two points fall back to identity.
func lookupCurve(v float32, table []float32) float32 {
	if len(table) < 2 {
		return v
	}
	pos := v * float32(len(table)-1)
	i := int(pos)
	if i >= len(table)-1 {
		return clamp01(table[len(table)-1])
	}
	frac := pos - float32(i)
	return clamp01(table[i] + (table[i+1]-table[i])*frac)
}

func powf(v, e float32) float32 {
	if v <= 0 {
		return 0
	}
	return float32(math.Pow(float64(v), float64(e)))
}

func clamp01(v float32) float32 {
	return clampf(v, 0, 1)
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func isFinite(x float32) bool {
	return !math.IsNaN(float64(x)) && !math.IsInf(float64(x), 0)
}
