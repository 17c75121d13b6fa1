package audio

import (
	"fmt"
	"math"
	"sync/atomic"
)

// ----- Knobs ----- //

// KnobBank stands in for the sensor inputs of the hardware. A knob reads NaN
// until it is first set, so untouched knobs leave MIDI and IPC values alone.
type KnobBank struct {
	values []atomic.Uint64 // float64 bits
}

// NewKnobBank ...
func NewKnobBank(n int) *KnobBank {
	k := &KnobBank{values: make([]atomic.Uint64, n)}
	for i := range k.values {
		k.values[i].Store(math.Float64bits(math.NaN()))
	}
	return k
}

// Set stores a normalized reading for channel.
func (k *KnobBank) Set(channel int, value float64) error {
	if channel < 0 || channel >= len(k.values) {
		return fmt.Errorf("knob %d out of range [0,%d)", channel, len(k.values))
	}
	k.values[channel].Store(math.Float64bits(value))
	return nil
}

// Read implements controls.Source.
func (k *KnobBank) Read(channel int) float64 {
	if channel < 0 || channel >= len(k.values) {
		return math.NaN()
	}
	return math.Float64frombits(k.values[channel].Load())
}
