package synth

import (
	"math/rand"
	"testing"
)

func TestDelayLineIntegerDelay(t *testing.T) {
	d := newDelayLine(16)
	for i := 1; i <= 40; i++ {
		d.write(float64(i))
	}
	// last written is 40
	expectEqual(t, d.read(1), 40.0)
	expectEqual(t, d.read(5), 36.0)
	expectEqual(t, d.read(d.maxDelay()), 40-d.maxDelay()+1)
}

func TestDelayLineFractionalDelay(t *testing.T) {
	d := newDelayLine(8)
	for i := 1; i <= 10; i++ {
		d.write(float64(i))
	}
	expectNearlyEqual(t, d.read(1.5), 9.5)
	expectNearlyEqual(t, d.read(2.25), 8.75)
}

func TestDelayLineClampsDelay(t *testing.T) {
	d := newDelayLine(8)
	for i := 1; i <= 10; i++ {
		d.write(float64(i))
	}
	expectEqual(t, d.read(0), d.read(1))
	expectEqual(t, d.read(-3), d.read(1))
	expectEqual(t, d.read(1000), d.read(d.maxDelay()))
}

func TestDelayLineWrapInvariant(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for _, capacity := range []int{4, 5, 17, 4802, 12002} {
		d := newDelayLine(capacity)
		for i := 0; i < 3*capacity+11; i++ {
			d.write(rnd.Float64())
			if d.pos < 0 || d.pos >= d.capacity() {
				t.Fatalf("capacity %d: write index %d out of range", capacity, d.pos)
			}
			// any panic here is an out of bounds access
			d.read(rnd.Float64() * d.maxDelay() * 1.2)
			d.read(float64(d.pos) + 1e-15)
			d.read(d.maxDelay())
		}
	}
}

func TestDelayLineFor(t *testing.T) {
	d := delayLineFor(0.25, 48000)
	expectEqual(t, d.capacity(), 12002)
	if d.maxDelay() < 0.25*48000 {
		t.Errorf("max delay %v shorter than requested", d.maxDelay())
	}
}
