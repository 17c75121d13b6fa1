package synth

import "math"

const (
	stringBrightness = 0.5
	stringDamping    = 0.996 // loop gain, < 1
	stringGlideTime  = 0.005 // sec
)

// ----- String ----- //

// stringOsc is a Karplus-Strong string: a delay line one period long whose
// output is lowpassed, attenuated and fed back together with the excitation.
type stringOsc struct {
	sampleRate float64
	line       *delayLine
	length     glide   // period in samples
	lpCoef     float64 // loop lowpass pole
	lp         float64
}

func newStringOsc(sampleRate float64, minFreq float64) *stringOsc {
	s := &stringOsc{
		sampleRate: sampleRate,
		line:       delayLineFor(1/minFreq, sampleRate),
		lpCoef:     0.5 * (1 - stringBrightness),
	}
	s.length.coef = glideCoef(stringGlideTime, sampleRate)
	return s
}

func (s *stringOsc) reset(freq float64) {
	s.line.reset()
	s.lp = 0
	s.length.init(s.periodFor(freq))
}

// periodFor converts freq into a loop length, compensating the loop
// lowpass's phase delay.
func (s *stringOsc) periodFor(freq float64) float64 {
	maxFreq := s.sampleRate / 4
	if freq > maxFreq {
		freq = maxFreq
	}
	if freq <= 0 {
		freq = 1
	}
	period := s.sampleRate/freq - s.lpCoef/(1-s.lpCoef)
	return math.Max(1, math.Min(period, s.line.maxDelay()))
}

func (s *stringOsc) setFreq(freq float64) {
	s.length.target = s.periodFor(freq)
}

func (s *stringOsc) frequency() float64 {
	return s.sampleRate / (s.length.target + s.lpCoef/(1-s.lpCoef))
}

func (s *stringOsc) process(in float64) float64 {
	delayed := s.line.read(s.length.step())
	s.lp = delayed*(1-s.lpCoef) + s.lp*s.lpCoef
	out := in + s.lp*stringDamping
	s.line.write(out)
	return out
}
