package controls

import (
	"math"
	"testing"
)

func expectEqual(t *testing.T, actual, expected interface{}) {
	t.Helper()
	if actual != expected {
		t.Errorf("expected %v, but got: %v", expected, actual)
	}
}

func expectNearlyEqual(t *testing.T, actual, expected float64) {
	t.Helper()
	if math.Abs(actual-expected) > 0.0001 {
		t.Errorf("expected %v, but got: %v", expected, actual)
	}
}

func expectNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("expected no error, but got: %v", err)
	}
}

func expectPanic(t *testing.T, name string, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic, but returned normally", name)
		}
	}()
	f()
}

// fakeEngine records the last value each setter received.
type fakeEngine struct {
	values  [NumParameters]float64
	calls   [NumParameters]int
	excited []float64
}

func (f *fakeEngine) set(p Parameter, v float64) {
	f.values[p] = v
	f.calls[p]++
}

func (f *fakeEngine) SetStringPitch(v float64)         { f.set(StringPitch, v) }
func (f *fakeEngine) SetFeedbackGain(v float64)        { f.set(FeedbackGain, v) }
func (f *fakeEngine) SetFeedbackDelay(v float64)       { f.set(FeedbackDelay, v) }
func (f *fakeEngine) SetFeedbackLPFCutoff(v float64)   { f.set(FeedbackLPFCutoff, v) }
func (f *fakeEngine) SetFeedbackHPFCutoff(v float64)   { f.set(FeedbackHPFCutoff, v) }
func (f *fakeEngine) SetEchoDelayTime(v float64)       { f.set(EchoDelayTime, v) }
func (f *fakeEngine) SetEchoDelayFeedback(v float64)   { f.set(EchoDelayFeedback, v) }
func (f *fakeEngine) SetEchoDelaySendAmount(v float64) { f.set(EchoDelaySend, v) }
func (f *fakeEngine) SetReverbMix(v float64)           { f.set(ReverbMix, v) }
func (f *fakeEngine) SetReverbTime(v float64)          { f.set(ReverbTime, v) }
func (f *fakeEngine) Excite(amount float64)            { f.excited = append(f.excited, amount) }

// sliceSource serves fixed readings.
type sliceSource []float64

func (s sliceSource) Read(channel int) float64 {
	if channel >= len(s) {
		return math.NaN()
	}
	return s[channel]
}

const (
	testSampleRate = 48000.0
	testBlockSize  = 64
)

func newTestControls(t *testing.T, config *Config) (*Controls, *fakeEngine) {
	t.Helper()
	engine := &fakeEngine{}
	c := New(config)
	c.Init(testSampleRate, testBlockSize, engine)
	return c, engine
}
