// Package synth implements the feedback string voice: a pair of
// Karplus-Strong strings whose output runs through filtered feedback delay
// lines, followed by echo and reverb sends.
//
// The Engine is single-threaded. Setters and Excite are meant to be called at
// block boundaries and Process once per sample, from the same goroutine.
// None of them allocate, block or log.
package synth

import (
	"log"
	"math"
)

// Parameter ranges. Setters clamp to these.
const (
	MinStringPitch = 16.0 // note number
	MaxStringPitch = 72.0

	MinFeedbackGain = -60.0 // dBFS
	MaxFeedbackGain = 12.0

	MinFeedbackDelay = 0.001 // sec
	MaxFeedbackDelay = 0.1

	MinFeedbackLPFCutoff = 100.0 // Hz
	MaxFeedbackLPFCutoff = 18000.0
	MinFeedbackHPFCutoff = 10.0
	MaxFeedbackHPFCutoff = 4000.0

	MinEchoDelayTime = 0.05 // sec
	MaxEchoDelayTime = 5.0

	MinEchoDelayFeedback = 0.0
	MaxEchoDelayFeedback = 1.5

	MinEchoDelaySend = 0.0
	MaxEchoDelaySend = 1.0

	MinReverbTime = 0.0
	MaxReverbTime = 1.0
	MinReverbMix  = 0.0
	MaxReverbMix  = 1.0
)

// Defaults applied by Init.
const (
	DefaultStringPitch       = 40.0
	DefaultFeedbackGain      = -60.0
	DefaultFeedbackDelay     = 0.001
	DefaultFeedbackLPFCutoff = 18000.0
	DefaultFeedbackHPFCutoff = 250.0
	DefaultEchoDelayTime     = 0.5
	DefaultEchoDelayFeedback = 0.0
	DefaultEchoDelaySend     = 0.0
	DefaultReverbTime        = 0.0
	DefaultReverbMix         = 0.0
)

const (
	// capacity of the feedback delay lines
	maxFeedbackDelayCapacity = 0.25 // sec
	feedbackDelayGlideTime   = 0.05 // sec
	noiseLevel               = 0.02
	noiseSeed                = 1
	baseFreq                 = 440.0
)

const numChannels = 2

// ----- Utility ----- //

func clamp(x float64, min float64, max float64) float64 {
	if x < min || math.IsNaN(x) {
		return min
	}
	if x > max {
		return max
	}
	return x
}

func noteToFreq(note float64) float64 {
	return baseFreq * math.Pow(2, (note-69)/12)
}

func dbToGain(db float64) float64 {
	return math.Pow(10, db/20)
}

// softLimit bounds a feedback loop to (-1,1) while staying close to linear
// for small signals.
func softLimit(x float64) float64 {
	return math.Tanh(x)
}

// ----- Engine ----- //

// Engine is the synthesis engine. The zero value is not usable; call Init.
type Engine struct {
	sampleRate  float64
	initialized bool

	noise   *noise
	strings [numChannels]*stringOsc
	excite  float64

	fbLines [numChannels]*delayLine
	fbDelay glide // samples
	fbGain  float64
	lpf     [numChannels]biquad
	hpf     [numChannels]biquad

	echoes   [numChannels]*echo
	echoSend float64

	reverbs   [numChannels]*reverbChannel
	reverbMix float64

	// last values given to the setters, in engineering units
	stringPitch  float64
	fbGainDB     float64
	fbDelaySec   float64
	lpfCutoff    float64
	hpfCutoff    float64
	echoTime     float64
	echoFeedback float64
	reverbTime   float64
}

// New ...
func New() *Engine {
	return &Engine{}
}

// Init allocates every buffer for sampleRate, clears all state and applies
// the default parameter values. It must not run concurrently with Process.
func (e *Engine) Init(sampleRate float64) {
	if !(sampleRate > 0) {
		log.Panicf("synth: invalid sample rate %v", sampleRate)
	}
	e.sampleRate = sampleRate
	e.noise = newNoise(noiseSeed, noiseLevel)
	e.excite = 0
	minFreq := noteToFreq(MinStringPitch)
	for ch := 0; ch < numChannels; ch++ {
		e.strings[ch] = newStringOsc(sampleRate, minFreq)
		e.fbLines[ch] = delayLineFor(maxFeedbackDelayCapacity, sampleRate)
		e.lpf[ch].reset()
		e.hpf[ch].reset()
		e.echoes[ch] = newEcho(sampleRate)
		e.reverbs[ch] = newReverbChannel(sampleRate, ch*reverbSpread)
	}
	e.fbDelay.coef = glideCoef(feedbackDelayGlideTime, sampleRate)
	e.initialized = true

	e.SetStringPitch(DefaultStringPitch)
	e.SetFeedbackGain(DefaultFeedbackGain)
	e.SetFeedbackDelay(DefaultFeedbackDelay)
	e.SetFeedbackLPFCutoff(DefaultFeedbackLPFCutoff)
	e.SetFeedbackHPFCutoff(DefaultFeedbackHPFCutoff)
	e.SetEchoDelayTime(DefaultEchoDelayTime)
	e.SetEchoDelayFeedback(DefaultEchoDelayFeedback)
	e.SetEchoDelaySendAmount(DefaultEchoDelaySend)
	e.SetReverbTime(DefaultReverbTime)
	e.SetReverbMix(DefaultReverbMix)

	// start settled, not gliding from zero
	freq := noteToFreq(e.stringPitch)
	for ch := 0; ch < numChannels; ch++ {
		e.strings[ch].reset(freq)
		e.echoes[ch].reset(e.echoTime, e.echoFeedback)
	}
	e.fbDelay.init(e.fbDelay.target)
}

// SampleRate ...
func (e *Engine) SampleRate() float64 {
	return e.sampleRate
}

// SetStringPitch sets the string pitch as a note number.
func (e *Engine) SetStringPitch(nn float64) {
	e.stringPitch = clamp(nn, MinStringPitch, MaxStringPitch)
	if !e.initialized {
		return
	}
	freq := noteToFreq(e.stringPitch)
	for _, s := range e.strings {
		s.setFreq(freq)
	}
}

// SetFeedbackGain sets the feedback loop gain in dBFS.
func (e *Engine) SetFeedbackGain(db float64) {
	e.fbGainDB = clamp(db, MinFeedbackGain, MaxFeedbackGain)
	e.fbGain = dbToGain(e.fbGainDB)
}

// SetFeedbackDelay retargets the feedback delay length in seconds.
// The length glides toward the new target one step per sample.
func (e *Engine) SetFeedbackDelay(sec float64) {
	e.fbDelaySec = clamp(sec, MinFeedbackDelay, MaxFeedbackDelay)
	if !e.initialized {
		return
	}
	e.fbDelay.target = clamp(e.fbDelaySec*e.sampleRate, 1, e.fbLines[0].maxDelay())
}

// SetFeedbackLPFCutoff ...
func (e *Engine) SetFeedbackLPFCutoff(hz float64) {
	e.lpfCutoff = clamp(hz, MinFeedbackLPFCutoff, MaxFeedbackLPFCutoff)
	if !e.initialized {
		return
	}
	c := makeBiquadLowpass(normalizedCutoff(e.lpfCutoff, e.sampleRate), butterworthQ)
	for ch := range e.lpf {
		e.lpf[ch].c = c
	}
}

// SetFeedbackHPFCutoff ...
func (e *Engine) SetFeedbackHPFCutoff(hz float64) {
	e.hpfCutoff = clamp(hz, MinFeedbackHPFCutoff, MaxFeedbackHPFCutoff)
	if !e.initialized {
		return
	}
	c := makeBiquadHighpass(normalizedCutoff(e.hpfCutoff, e.sampleRate), butterworthQ)
	for ch := range e.hpf {
		e.hpf[ch].c = c
	}
}

// SetEchoDelayTime sets the echo time in seconds.
func (e *Engine) SetEchoDelayTime(sec float64) {
	e.echoTime = clamp(sec, MinEchoDelayTime, MaxEchoDelayTime)
	if !e.initialized {
		return
	}
	for _, ec := range e.echoes {
		ec.setTime(e.echoTime)
	}
}

// SetEchoDelayFeedback ...
func (e *Engine) SetEchoDelayFeedback(feedback float64) {
	e.echoFeedback = clamp(feedback, MinEchoDelayFeedback, MaxEchoDelayFeedback)
	if !e.initialized {
		return
	}
	for _, ec := range e.echoes {
		ec.feedback = e.echoFeedback
	}
}

// SetEchoDelaySendAmount ...
func (e *Engine) SetEchoDelaySendAmount(amount float64) {
	e.echoSend = clamp(amount, MinEchoDelaySend, MaxEchoDelaySend)
}

// SetReverbTime ...
func (e *Engine) SetReverbTime(time float64) {
	e.reverbTime = clamp(time, MinReverbTime, MaxReverbTime)
	if !e.initialized {
		return
	}
	for _, r := range e.reverbs {
		r.setFeedback(roomFeedback(e.reverbTime))
	}
}

// SetReverbMix ...
func (e *Engine) SetReverbMix(mix float64) {
	e.reverbMix = clamp(mix, MinReverbMix, MaxReverbMix)
}

// Excite adds an impulse of the given amplitude to both strings on the next sample.
func (e *Engine) Excite(amount float64) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return
	}
	e.excite += clamp(amount, -1, 1)
}

// FeedbackDelaySamples returns the current (gliding) feedback delay length.
func (e *Engine) FeedbackDelaySamples() float64 {
	return e.fbDelay.value
}

// FeedbackDelayTarget returns the length the feedback delay is gliding toward.
func (e *Engine) FeedbackDelayTarget() float64 {
	return e.fbDelay.target
}

// FeedbackGain returns the linear feedback gain.
func (e *Engine) FeedbackGain() float64 {
	return e.fbGain
}

// StringFrequency returns the target string frequency in Hz.
func (e *Engine) StringFrequency() float64 {
	if !e.initialized {
		return noteToFreq(e.stringPitch)
	}
	return e.strings[0].frequency()
}

// Process advances the engine by one sample and returns the stereo output.
func (e *Engine) Process() (left float64, right float64) {
	if !e.initialized {
		log.Panicf("synth: Process called before Init")
	}
	length := e.fbDelay.step()
	excite := e.excite
	e.excite = 0

	var core [numChannels]float64
	for ch := 0; ch < numChannels; ch++ {
		str := e.strings[ch].process(e.noise.process() + excite)
		delayed := e.fbLines[ch].read(length)
		filtered := e.hpf[ch].process(e.lpf[ch].process(delayed))
		y := softLimit(str + filtered*e.fbGain)
		e.fbLines[ch].write(y)
		core[ch] = y
	}

	var out [numChannels]float64
	for ch := 0; ch < numChannels; ch++ {
		dry := core[ch] + e.echoes[ch].step(core[ch]*e.echoSend)
		wet := e.reverbs[ch].step(core[ch])
		out[ch] = dry*(1-e.reverbMix) + wet*e.reverbMix
	}
	return out[0], out[1]
}
