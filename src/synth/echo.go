package synth

const echoGlideTime = 0.05 // sec

// ----- Echo ----- //

// echo is a feedback delay fed by a send. Its loop is soft limited so any
// feedback amount up to MaxEchoDelayFeedback stays bounded.
type echo struct {
	sampleRate float64
	line       *delayLine
	time       glide // samples
	feedback   float64
}

func newEcho(sampleRate float64) *echo {
	e := &echo{
		sampleRate: sampleRate,
		line:       delayLineFor(MaxEchoDelayTime, sampleRate),
	}
	e.time.coef = glideCoef(echoGlideTime, sampleRate)
	return e
}

func (e *echo) reset(sec float64, feedback float64) {
	e.line.reset()
	e.time.init(e.samplesFor(sec))
	e.feedback = feedback
}

func (e *echo) samplesFor(sec float64) float64 {
	samples := sec * e.sampleRate
	if samples > e.line.maxDelay() {
		samples = e.line.maxDelay()
	}
	if samples < 1 {
		samples = 1
	}
	return samples
}

func (e *echo) setTime(sec float64) {
	e.time.target = e.samplesFor(sec)
}

func (e *echo) step(in float64) float64 {
	delayed := e.line.read(e.time.step())
	e.line.write(softLimit(in + delayed*e.feedback))
	return delayed
}
