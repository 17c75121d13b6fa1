package synth

import "math"

// ----- Glide ----- //

// glide moves a value toward its target by a fixed fraction every sample.
// It approaches the target monotonically and never passes it.
type glide struct {
	value  float64
	target float64
	coef   float64
}

// glideCoef returns the per-sample coefficient for a time constant of sec seconds.
func glideCoef(sec float64, sampleRate float64) float64 {
	if sec <= 0 || sampleRate <= 0 {
		return 1
	}
	return 1 - math.Exp(-1/(sec*sampleRate))
}

func (g *glide) init(value float64) {
	g.value = value
	g.target = value
}

func (g *glide) step() float64 {
	g.value += (g.target - g.value) * g.coef
	return g.value
}
