package synth

import "math"

// ----- Delay Line ----- //

// delayLine is a fixed capacity ring buffer with fractional reads.
// The buffer is allocated once and never resized.
type delayLine struct {
	past []float64
	pos  int // next write index, always in [0, len(past))
}

func newDelayLine(capacity int) *delayLine {
	if capacity < 4 {
		capacity = 4
	}
	return &delayLine{
		past: make([]float64, capacity),
	}
}

// delayLineFor returns a line long enough to delay maxSec seconds at sampleRate.
func delayLineFor(maxSec float64, sampleRate float64) *delayLine {
	return newDelayLine(int(math.Ceil(maxSec*sampleRate)) + 2)
}

func (d *delayLine) reset() {
	for i := range d.past {
		d.past[i] = 0
	}
	d.pos = 0
}

func (d *delayLine) capacity() int {
	return len(d.past)
}

// maxDelay is the longest delay read accepts, in samples.
func (d *delayLine) maxDelay() float64 {
	return float64(len(d.past) - 2)
}

func (d *delayLine) write(in float64) {
	d.past[d.pos] = in
	d.pos++
	if d.pos >= len(d.past) {
		d.pos = 0
	}
}

// read returns the sample written delay samples ago, linearly interpolated.
// delay is clamped to [1, maxDelay].
func (d *delayLine) read(delay float64) float64 {
	if !(delay >= 1) {
		delay = 1
	}
	if max := d.maxDelay(); delay > max {
		delay = max
	}
	size := len(d.past)
	readPos := float64(d.pos) - delay
	if readPos < 0 {
		readPos += float64(size)
	}
	i := int(readPos)
	frac := readPos - float64(i)
	if i >= size {
		i -= size
	}
	j := i + 1
	if j >= size {
		j = 0
	}
	return d.past[i] + (d.past[j]-d.past[i])*frac
}
