package synth

// Freeverb tuning (Jezar at Dreampoint), in samples at 44.1kHz
const (
	reverbTuningRate = 44100.0
	reverbInputGain  = 0.015
	reverbWetScale   = 3.0
	reverbDamp       = 0.5 * 0.4
	reverbRoomScale  = 0.28
	reverbRoomOffset = 0.7
	reverbSpread     = 23
	allpassFeedback  = 0.5
)

var combTuning = [...]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
var allpassTuning = [...]int{556, 441, 341, 225}

// ----- Comb ----- //

type comb struct {
	past     []float64
	cursor   int
	store    float64
	feedback float64
}

func (c *comb) step(in float64) float64 {
	out := c.past[c.cursor]
	c.store = out*(1-reverbDamp) + c.store*reverbDamp
	c.past[c.cursor] = in + c.store*c.feedback
	c.cursor++
	if c.cursor >= len(c.past) {
		c.cursor = 0
	}
	return out
}

// ----- Allpass ----- //

type allpass struct {
	past   []float64
	cursor int
}

func (a *allpass) step(in float64) float64 {
	delayed := a.past[a.cursor]
	a.past[a.cursor] = in + delayed*allpassFeedback
	a.cursor++
	if a.cursor >= len(a.past) {
		a.cursor = 0
	}
	return delayed - in
}

// ----- Reverb ----- //

// reverbChannel is one side of the stereo reverb. Sides share no state.
type reverbChannel struct {
	combs     [len(combTuning)]comb
	allpasses [len(allpassTuning)]allpass
}

func newReverbChannel(sampleRate float64, spread int) *reverbChannel {
	scale := sampleRate / reverbTuningRate
	r := &reverbChannel{}
	for i, n := range combTuning {
		r.combs[i].past = make([]float64, scaledLength(n+spread, scale))
	}
	for i, n := range allpassTuning {
		r.allpasses[i].past = make([]float64, scaledLength(n+spread, scale))
	}
	return r
}

func scaledLength(n int, scale float64) int {
	length := int(float64(n) * scale)
	if length < 1 {
		length = 1
	}
	return length
}

func (r *reverbChannel) setFeedback(feedback float64) {
	for i := range r.combs {
		r.combs[i].feedback = feedback
	}
}

func (r *reverbChannel) step(in float64) float64 {
	in *= reverbInputGain
	out := 0.0
	for i := range r.combs {
		out += r.combs[i].step(in)
	}
	for i := range r.allpasses {
		out = r.allpasses[i].step(out)
	}
	return out * reverbWetScale
}

// roomFeedback maps reverb time in [0,1] to comb feedback in [0.7,0.98].
func roomFeedback(time float64) float64 {
	return time*reverbRoomScale + reverbRoomOffset
}
