// Package controls wires the synth parameters to the engine: it registers
// each parameter with its range and curve, feeds sensor and MIDI input into
// the parameter registry, and runs the registry once per audio block.
package controls

import (
	"log"
	"math"
	"sync/atomic"

	"github.com/infrasonic/feedback-synth/src/params"
	"github.com/infrasonic/feedback-synth/src/synth"
)

// Engine is the set of operations the parameters drive.
type Engine interface {
	SetStringPitch(nn float64)
	SetFeedbackGain(db float64)
	SetFeedbackDelay(sec float64)
	SetFeedbackLPFCutoff(hz float64)
	SetFeedbackHPFCutoff(hz float64)
	SetEchoDelayTime(sec float64)
	SetEchoDelayFeedback(feedback float64)
	SetEchoDelaySendAmount(amount float64)
	SetReverbMix(mix float64)
	SetReverbTime(time float64)
	Excite(amount float64)
}

var _ Engine = (*synth.Engine)(nil)

// Source provides one normalized reading per sensor channel.
// Readings outside [0,1] are clamped; NaN means "no reading".
type Source interface {
	Read(channel int) float64
}

// ----- Controls ----- //

// Controls owns the parameter registry for one engine.
//
// Init, Update and Process belong to the control domain and must run on the
// goroutine that renders audio, once per block and outside the sample loop.
// SetNormalized, SetValue, Excite and HandleMIDI may be called from any goroutine.
type Controls struct {
	config *Config
	params *params.Registry[Parameter]
	engine Engine
	ccs    [128]Parameter
	hasCC  [128]bool
	excite atomic.Uint64 // pending excitation, float64 bits
}

// New creates controls for config. A nil config means DefaultConfig.
func New(config *Config) *Controls {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		log.Panicf("controls: %v", err)
	}
	c := &Controls{config: config}
	for _, cc := range config.CCs {
		c.ccs[cc.Number] = cc.Parameter
		c.hasCC[cc.Number] = true
	}
	return c
}

// Init registers every parameter for engine. The registry runs at
// sampleRate/blockSize updates per second.
func (c *Controls) Init(sampleRate float64, blockSize int, engine Engine) {
	if c.params != nil {
		log.Panicf("controls: Init called twice")
	}
	if blockSize <= 0 {
		log.Panicf("controls: invalid block size %d", blockSize)
	}
	c.engine = engine
	c.params = params.NewRegistry[Parameter](NumParameters, sampleRate/float64(blockSize))
	c.registerParams(engine)
}

// ----- Parameter table ----- //

type paramSpec struct {
	def       float64
	min       float64
	max       float64
	smoothing float64 // sec
	curve     params.Curve
	setter    func(Engine) params.Callback
}

var paramSpecs = [NumParameters]paramSpec{
	// note number
	StringPitch: {synth.DefaultStringPitch, synth.MinStringPitch, synth.MaxStringPitch, 0.2, params.Linear,
		func(e Engine) params.Callback { return e.SetStringPitch }},
	// dBFS
	FeedbackGain: {synth.DefaultFeedbackGain, synth.MinFeedbackGain, synth.MaxFeedbackGain, 0.05, params.Linear,
		func(e Engine) params.Callback { return e.SetFeedbackGain }},
	// sec
	FeedbackDelay: {synth.DefaultFeedbackDelay, synth.MinFeedbackDelay, synth.MaxFeedbackDelay, 1.0, params.Exponential,
		func(e Engine) params.Callback { return e.SetFeedbackDelay }},
	// Hz
	FeedbackLPFCutoff: {synth.DefaultFeedbackLPFCutoff, synth.MinFeedbackLPFCutoff, synth.MaxFeedbackLPFCutoff, 0.05, params.Logarithmic,
		func(e Engine) params.Callback { return e.SetFeedbackLPFCutoff }},
	FeedbackHPFCutoff: {synth.DefaultFeedbackHPFCutoff, synth.MinFeedbackHPFCutoff, synth.MaxFeedbackHPFCutoff, 0.05, params.Logarithmic,
		func(e Engine) params.Callback { return e.SetFeedbackHPFCutoff }},
	// sec
	EchoDelayTime: {synth.DefaultEchoDelayTime, synth.MinEchoDelayTime, synth.MaxEchoDelayTime, 0.1, params.Exponential,
		func(e Engine) params.Callback { return e.SetEchoDelayTime }},
	EchoDelayFeedback: {synth.DefaultEchoDelayFeedback, synth.MinEchoDelayFeedback, synth.MaxEchoDelayFeedback, 0.05, params.Linear,
		func(e Engine) params.Callback { return e.SetEchoDelayFeedback }},
	EchoDelaySend: {synth.DefaultEchoDelaySend, synth.MinEchoDelaySend, synth.MaxEchoDelaySend, 0.05, params.Exponential,
		func(e Engine) params.Callback { return e.SetEchoDelaySendAmount }},
	ReverbMix: {synth.DefaultReverbMix, synth.MinReverbMix, synth.MaxReverbMix, 0.05, params.Linear,
		func(e Engine) params.Callback { return e.SetReverbMix }},
	ReverbTime: {synth.DefaultReverbTime, synth.MinReverbTime, synth.MaxReverbTime, 0.05, params.Linear,
		func(e Engine) params.Callback { return e.SetReverbTime }},
}

func (c *Controls) registerParams(engine Engine) {
	for _, p := range Parameters() {
		spec := paramSpecs[p]
		curve := spec.curve
		if override, ok := c.config.Curves[p]; ok {
			curve = override
		}
		c.params.Register(p, spec.def, spec.min, spec.max, spec.setter(engine),
			params.WithSmoothingTime(spec.smoothing), params.WithCurve(curve))
	}
}

func (c *Controls) mustInit() {
	if c.params == nil {
		log.Panicf("controls: used before Init")
	}
}

// Params exposes the registry for inspection.
func (c *Controls) Params() *params.Registry[Parameter] {
	c.mustInit()
	return c.params
}

// Config returns the bindings the controls were created with.
func (c *Controls) Config() *Config {
	return c.config
}

// Update samples every bound sensor channel of src.
func (c *Controls) Update(src Source) {
	c.mustInit()
	for _, in := range c.config.Inputs {
		v := src.Read(in.Channel)
		if in.Invert {
			v = 1 - v
		}
		c.params.UpdateNormalized(in.Parameter, v)
	}
}

// Process runs the parameter registry once, delivering smoothed values to
// the engine, then hands pending excitation to the engine.
func (c *Controls) Process() {
	c.mustInit()
	c.params.Process()
	if amount := math.Float64frombits(c.excite.Swap(0)); amount != 0 {
		c.engine.Excite(amount)
	}
}

// SetNormalized sets the raw [0,1] value of p.
func (c *Controls) SetNormalized(p Parameter, raw float64) {
	c.mustInit()
	c.params.UpdateNormalized(p, raw)
}

// SetValue sets p in engineering units.
func (c *Controls) SetValue(p Parameter, value float64) {
	c.mustInit()
	c.params.UpdateValue(p, value)
}

// Excite queues an excitation for the next Process.
func (c *Controls) Excite(amount float64) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return
	}
	for {
		old := c.excite.Load()
		next := math.Float64bits(math.Float64frombits(old) + amount)
		if c.excite.CompareAndSwap(old, next) {
			return
		}
	}
}
