package synth

import (
	"math"
	"testing"
)

const testSampleRate = 48000.0

func newTestEngine() *Engine {
	e := New()
	e.Init(testSampleRate)
	return e
}

func TestProcessBeforeInitPanics(t *testing.T) {
	expectPanic(t, "process", func() {
		New().Process()
	})
	expectPanic(t, "init", func() {
		New().Init(0)
	})
}

func TestInitAppliesDefaults(t *testing.T) {
	e := newTestEngine()
	expectEqual(t, e.SampleRate(), testSampleRate)
	expectNearlyEqual(t, e.FeedbackDelaySamples(), DefaultFeedbackDelay*testSampleRate)
	expectNearlyEqual(t, e.FeedbackDelayTarget(), e.FeedbackDelaySamples())
	expectNearlyEqual(t, e.FeedbackGain(), 0.001)
	if math.Abs(e.StringFrequency()-noteToFreq(DefaultStringPitch)) > 0.01 {
		t.Errorf("unexpected string frequency %v", e.StringFrequency())
	}
}

func TestSettersClamp(t *testing.T) {
	e := newTestEngine()
	e.SetFeedbackGain(100)
	expectNearlyEqual(t, e.FeedbackGain(), dbToGain(MaxFeedbackGain))
	e.SetFeedbackGain(math.NaN())
	expectNearlyEqual(t, e.FeedbackGain(), dbToGain(MinFeedbackGain))
	e.SetFeedbackDelay(10)
	expectNearlyEqual(t, e.FeedbackDelayTarget(), MaxFeedbackDelay*testSampleRate)
	e.SetFeedbackDelay(-1)
	expectNearlyEqual(t, e.FeedbackDelayTarget(), MinFeedbackDelay*testSampleRate)
	e.SetStringPitch(200)
	if math.Abs(e.StringFrequency()-noteToFreq(MaxStringPitch)) > 0.01 {
		t.Errorf("pitch not clamped: %v", e.StringFrequency())
	}
	e.SetEchoDelayTime(60)
	expectNearlyEqual(t, e.echoes[0].time.target, MaxEchoDelayTime*testSampleRate)
	e.SetEchoDelayFeedback(3)
	expectEqual(t, e.echoes[1].feedback, MaxEchoDelayFeedback)
	e.SetReverbMix(-1)
	expectEqual(t, e.reverbMix, MinReverbMix)
	e.SetReverbTime(2)
	expectNearlyEqual(t, e.reverbs[0].combs[0].feedback, roomFeedback(MaxReverbTime))
}

func TestSettersBeforeInitAreOverriddenByDefaults(t *testing.T) {
	e := New()
	e.SetFeedbackGain(0)
	e.SetFeedbackDelay(0.05)
	e.Init(testSampleRate)
	expectNearlyEqual(t, e.FeedbackGain(), dbToGain(DefaultFeedbackGain))
	expectNearlyEqual(t, e.FeedbackDelayTarget(), DefaultFeedbackDelay*testSampleRate)
}

func TestFeedbackDelayGlidesMonotonically(t *testing.T) {
	e := newTestEngine()
	e.SetFeedbackDelay(MinFeedbackDelay)
	e.SetFeedbackDelay(MaxFeedbackDelay)
	target := e.FeedbackDelayTarget()
	expectNearlyEqual(t, target, 4800)

	prev := e.FeedbackDelaySamples()
	maxStep := 0.0
	for i := 0; i < int(testSampleRate); i++ {
		e.Process()
		cur := e.FeedbackDelaySamples()
		step := cur - prev
		if step < 0 {
			t.Fatalf("sample %d: length decreased from %v to %v", i, prev, cur)
		}
		if cur > target {
			t.Fatalf("sample %d: length %v passed target %v", i, cur, target)
		}
		if i == 0 {
			maxStep = step
			if maxStep <= 0 || maxStep > 10 {
				t.Fatalf("unexpected first step %v", maxStep)
			}
		} else if step > maxStep*(1+1e-9) {
			t.Fatalf("sample %d: step %v larger than first step %v", i, step, maxStep)
		}
		prev = cur
	}
	if math.Abs(prev-target) > 0.01 {
		t.Errorf("expected to settle at %v, got %v", target, prev)
	}
}

func TestImpulseAtMaxFeedbackStaysBounded(t *testing.T) {
	e := newTestEngine()
	e.SetFeedbackGain(MaxFeedbackGain)
	e.SetFeedbackDelay(0.01)
	e.Excite(1)
	peak := 0.0
	for i := 0; i < int(testSampleRate); i++ {
		l, r := e.Process()
		expectFinite(t, i, l, r)
		peak = math.Max(peak, math.Max(math.Abs(l), math.Abs(r)))
	}
	if peak > 1 {
		t.Errorf("output exceeded the soft limit: %v", peak)
	}
	if peak < 0.1 {
		t.Errorf("expected the impulse to be audible, peak %v", peak)
	}
}

// bound on the reverb output for inputs in [-1,1]: 8 combs with feedback
// <= 0.98, then 4 allpass stages each at most tripling their input
func reverbBound() float64 {
	combs := float64(len(combTuning)) * reverbInputGain / (1 - roomFeedback(MaxReverbTime))
	return combs * math.Pow(3, float64(len(allpassTuning))) * reverbWetScale
}

func runStability(t *testing.T, e *Engine, seconds float64, bound float64) {
	t.Helper()
	e.Excite(1)
	n := int(seconds * testSampleRate)
	for i := 0; i < n; i++ {
		l, r := e.Process()
		expectFinite(t, i, l, r)
		if math.Abs(l) > bound || math.Abs(r) > bound {
			t.Fatalf("sample %d: |(%v, %v)| exceeds %v", i, l, r, bound)
		}
	}
}

func TestFeedbackLoopStability(t *testing.T) {
	seconds := 10.0
	if testing.Short() {
		seconds = 1
	}
	for _, lpf := range []float64{MinFeedbackLPFCutoff, MaxFeedbackLPFCutoff} {
		for _, hpf := range []float64{MinFeedbackHPFCutoff, MaxFeedbackHPFCutoff} {
			for _, delay := range []float64{MinFeedbackDelay, MaxFeedbackDelay} {
				e := newTestEngine()
				e.SetFeedbackGain(MaxFeedbackGain)
				e.SetFeedbackLPFCutoff(lpf)
				e.SetFeedbackHPFCutoff(hpf)
				e.SetFeedbackDelay(delay)
				e.SetStringPitch(MinStringPitch)
				// echo and reverb off: the loop output is within the soft limit
				runStability(t, e, seconds, 1)
			}
		}
	}
}

func TestAllSendsAtMaxStayBounded(t *testing.T) {
	seconds := 10.0
	if testing.Short() {
		seconds = 1
	}
	e := newTestEngine()
	e.SetFeedbackGain(MaxFeedbackGain)
	e.SetFeedbackDelay(MaxFeedbackDelay)
	e.SetStringPitch(MaxStringPitch)
	e.SetEchoDelayTime(MinEchoDelayTime)
	e.SetEchoDelayFeedback(MaxEchoDelayFeedback)
	e.SetEchoDelaySendAmount(MaxEchoDelaySend)
	e.SetReverbTime(MaxReverbTime)
	e.SetReverbMix(0.5)
	runStability(t, e, seconds, math.Max(2, reverbBound()))
}

func TestEchoSendWithoutReverbIsBounded(t *testing.T) {
	e := newTestEngine()
	e.SetFeedbackGain(MaxFeedbackGain)
	e.SetEchoDelayTime(MinEchoDelayTime)
	e.SetEchoDelayFeedback(MaxEchoDelayFeedback)
	e.SetEchoDelaySendAmount(MaxEchoDelaySend)
	// core and echo return are each within the soft limit
	runStability(t, e, 2, 2)
}

func TestFeedbackGainRaisesLevel(t *testing.T) {
	rms := func(db float64) float64 {
		e := newTestEngine()
		e.SetFeedbackGain(db)
		e.SetFeedbackDelay(0.005)
		sum := 0.0
		n := int(testSampleRate)
		for i := 0; i < n; i++ {
			l, _ := e.Process()
			sum += l * l
		}
		return math.Sqrt(sum / float64(n))
	}
	low := rms(MinFeedbackGain)
	high := rms(MaxFeedbackGain)
	if !(high > low) {
		t.Errorf("expected more level with more feedback: %v <= %v", high, low)
	}
}

func TestProcessIsDeterministic(t *testing.T) {
	a := newTestEngine()
	b := newTestEngine()
	for _, e := range []*Engine{a, b} {
		e.SetFeedbackGain(0)
		e.SetReverbMix(0.3)
		e.Excite(0.5)
	}
	for i := 0; i < 4800; i++ {
		al, ar := a.Process()
		bl, br := b.Process()
		if al != bl || ar != br {
			t.Fatalf("sample %d differs", i)
		}
	}
}

func TestReInitResetsState(t *testing.T) {
	e := newTestEngine()
	first := make([]float64, 256)
	for i := range first {
		first[i], _ = e.Process()
	}
	e.SetFeedbackGain(MaxFeedbackGain)
	for i := 0; i < 1000; i++ {
		e.Process()
	}
	e.Init(testSampleRate)
	for i := range first {
		l, _ := e.Process()
		if l != first[i] {
			t.Fatalf("sample %d: %v != %v after Init", i, l, first[i])
		}
	}
}

func TestProcessAndSettersDoNotAllocate(t *testing.T) {
	e := newTestEngine()
	allocs := testing.AllocsPerRun(200, func() {
		e.SetFeedbackLPFCutoff(2000)
		e.SetFeedbackHPFCutoff(100)
		e.SetStringPitch(50)
		e.SetFeedbackDelay(0.02)
		e.SetEchoDelayTime(0.3)
		e.SetReverbTime(0.5)
		for i := 0; i < 64; i++ {
			e.Process()
		}
	})
	expectEqual(t, allocs, 0.0)
}
