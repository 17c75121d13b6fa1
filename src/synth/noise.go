package synth

import "math/rand"

// ----- Noise ----- //

// noise is a seeded white noise source; the same seed gives the same sequence.
type noise struct {
	rnd *rand.Rand
	amp float64
}

func newNoise(seed int64, amp float64) *noise {
	return &noise{
		rnd: rand.New(rand.NewSource(seed)),
		amp: amp,
	}
}

func (n *noise) process() float64 {
	return (n.rnd.Float64()*2 - 1) * n.amp
}
