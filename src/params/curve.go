package params

import "math"

// ----- Curve ----- //

// Curve selects how a normalized control value is spread over a parameter range.
type Curve int

// Curve kinds
const (
	Linear Curve = iota
	Exponential
	Logarithmic
)

// shape exponent of the Exponential curve
const expShape = 2.0

var curveNames = [...]string{"linear", "exponential", "logarithmic"}

func (c Curve) String() string {
	if c < 0 || int(c) >= len(curveNames) {
		return "unknown"
	}
	return curveNames[c]
}

// ParseCurve looks a curve up by the name String gives it.
func ParseCurve(s string) (Curve, bool) {
	for i, name := range curveNames {
		if name == s {
			return Curve(i), true
		}
	}
	return Linear, false
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

func clamp(x float64, min float64, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}

// Map converts raw in [0,1] into [min,max] following curve.
// Logarithmic requires min > 0.
func Map(curve Curve, raw float64, min float64, max float64) float64 {
	if raw <= 0 {
		return min
	}
	if raw >= 1 {
		return max
	}
	var value float64
	switch curve {
	case Exponential:
		value = min + (max-min)*math.Pow(raw, expShape)
	case Logarithmic:
		value = min * math.Pow(max/min, raw)
	default:
		value = min + raw*(max-min)
	}
	return clamp(value, min, max)
}

// Unmap is the inverse of Map. Values outside [min,max] are clamped first.
func Unmap(curve Curve, value float64, min float64, max float64) float64 {
	if max <= min {
		return 0
	}
	value = clamp(value, min, max)
	var raw float64
	switch curve {
	case Exponential:
		raw = math.Pow((value-min)/(max-min), 1/expShape)
	case Logarithmic:
		raw = math.Log(value/min) / math.Log(max/min)
	default:
		raw = (value - min) / (max - min)
	}
	return clamp01(raw)
}
