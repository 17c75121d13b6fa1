package synth

import "math"

// Butterworth: no resonant peak, so neither response exceeds unity gain.
const butterworthQ = 0.7071067811865476

// keeps tan/cos terms well behaved near Nyquist
const maxNormalizedCutoff = 0.45

// ----- Biquad ----- //

type biquadCoefs struct {
	b0, b1, b2 float64
	a1, a2     float64
}

func normalizedCutoff(freq float64, sampleRate float64) float64 {
	fc := freq / sampleRate
	if fc > maxNormalizedCutoff {
		fc = maxNormalizedCutoff
	}
	if fc < 1e-6 {
		fc = 1e-6
	}
	return fc
}

func makeBiquadLowpass(fc float64, q float64) biquadCoefs {
	// from RBJ's cookbook
	w0 := 2 * math.Pi * fc
	alpha := math.Sin(w0) / (2 * q)
	cos := math.Cos(w0)
	a0 := 1 + alpha
	return biquadCoefs{
		b0: (1 - cos) / 2 / a0,
		b1: (1 - cos) / a0,
		b2: (1 - cos) / 2 / a0,
		a1: -2 * cos / a0,
		a2: (1 - alpha) / a0,
	}
}

func makeBiquadHighpass(fc float64, q float64) biquadCoefs {
	// from RBJ's cookbook
	w0 := 2 * math.Pi * fc
	alpha := math.Sin(w0) / (2 * q)
	cos := math.Cos(w0)
	a0 := 1 + alpha
	return biquadCoefs{
		b0: (1 + cos) / 2 / a0,
		b1: -(1 + cos) / a0,
		b2: (1 + cos) / 2 / a0,
		a1: -2 * cos / a0,
		a2: (1 - alpha) / a0,
	}
}

// biquad is a direct form I filter. Coefficients may change between samples.
type biquad struct {
	c      biquadCoefs
	x1, x2 float64
	y1, y2 float64
}

func (f *biquad) reset() {
	f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0
}

func (f *biquad) process(in float64) float64 {
	c := &f.c
	out := c.b0*in + c.b1*f.x1 + c.b2*f.x2 - c.a1*f.y1 - c.a2*f.y2
	f.x2 = f.x1
	f.x1 = in
	f.y2 = f.y1
	f.y1 = out
	return out
}
