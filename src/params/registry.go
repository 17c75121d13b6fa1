// Package params turns raw normalized control readings into smoothed
// parameter values and hands them to consumer callbacks once per block.
package params

import (
	"log"
	"math"
	"sync/atomic"
)

// DefaultSmoothingTime is the smoothing time constant used when Register
// gets no WithSmoothingTime option.
const DefaultSmoothingTime = 0.05 // sec

// Callback receives the smoothed value of a parameter.
type Callback func(value float64)

// ----- Options ----- //

type registerConfig struct {
	smoothingTime float64
	curve         Curve
}

// Option customizes a registration.
type Option func(*registerConfig)

// WithSmoothingTime sets the one-pole time constant in seconds.
// Zero or less disables smoothing.
func WithSmoothingTime(sec float64) Option {
	return func(cfg *registerConfig) {
		cfg.smoothingTime = sec
	}
}

// WithCurve sets the mapping curve.
func WithCurve(curve Curve) Option {
	return func(cfg *registerConfig) {
		cfg.curve = curve
	}
}

// ----- Entry ----- //

type entry struct {
	registered bool
	def        float64
	min        float64
	max        float64
	curve      Curve
	smoothing  float64 // sec
	coef       float64
	callback   Callback

	raw       atomic.Uint64 // float64 bits, written by any goroutine
	value     float64       // owned by Process
	published atomic.Uint64 // float64 bits of value, for readers outside Process
}

func (e *entry) rawValue() float64 {
	return math.Float64frombits(e.raw.Load())
}

func (e *entry) storeRaw(raw float64) {
	e.raw.Store(math.Float64bits(raw))
}

// ----- Registry ----- //

// Registry maps an enumerated parameter id to its descriptor and live state.
//
// Register must finish before the first Process. UpdateNormalized and
// UpdateValue may be called from any goroutine; Process and the callbacks it
// invokes run on the caller's goroutine and must not be called concurrently.
type Registry[P ~int] struct {
	controlRate float64
	entries     []entry
	order       []P
}

// NewRegistry creates a registry for ids in [0,count), processed at controlRate
// (Process calls per second).
func NewRegistry[P ~int](count int, controlRate float64) *Registry[P] {
	if count <= 0 {
		log.Panicf("params: count should be positive, got %d", count)
	}
	if controlRate <= 0 {
		log.Panicf("params: control rate should be positive, got %v", controlRate)
	}
	return &Registry[P]{
		controlRate: controlRate,
		entries:     make([]entry, count),
		order:       make([]P, 0, count),
	}
}

// ControlRate returns the number of Process calls per second the registry assumes.
func (r *Registry[P]) ControlRate() float64 {
	return r.controlRate
}

// Register binds id to a range, a default and a callback.
// It panics if id is out of bounds or already registered, if the range is
// invalid or does not contain def, or if callback is nil.
func (r *Registry[P]) Register(id P, def float64, min float64, max float64, callback Callback, opts ...Option) {
	cfg := registerConfig{smoothingTime: DefaultSmoothingTime, curve: Linear}
	for _, opt := range opts {
		opt(&cfg)
	}
	if int(id) < 0 || int(id) >= len(r.entries) {
		log.Panicf("params: id %v out of range [0,%d)", id, len(r.entries))
	}
	e := &r.entries[id]
	if e.registered {
		log.Panicf("params: id %v already registered", id)
	}
	if min > max {
		log.Panicf("params: id %v has min %v > max %v", id, min, max)
	}
	if def < min || def > max {
		log.Panicf("params: id %v default %v outside [%v,%v]", id, def, min, max)
	}
	if cfg.curve == Logarithmic && min <= 0 {
		log.Panicf("params: id %v uses a logarithmic curve with min %v <= 0", id, min)
	}
	if callback == nil {
		log.Panicf("params: id %v has no callback", id)
	}
	e.registered = true
	e.def = def
	e.min = min
	e.max = max
	e.curve = cfg.curve
	e.smoothing = cfg.smoothingTime
	e.coef = smoothingCoef(cfg.smoothingTime, r.controlRate)
	e.callback = callback
	e.value = def
	e.storeRaw(Unmap(cfg.curve, def, min, max))
	e.published.Store(math.Float64bits(def))
	r.order = append(r.order, id)
}

// smoothingCoef returns the one-pole coefficient that reaches ~63% of a step
// after sec seconds at rate updates per second.
func smoothingCoef(sec float64, rate float64) float64 {
	if sec <= 0 {
		return 1
	}
	return 1 - math.Exp(-1/(sec*rate))
}

func (r *Registry[P]) mustGet(id P) *entry {
	if int(id) < 0 || int(id) >= len(r.entries) || !r.entries[id].registered {
		log.Panicf("params: id %v is not registered", id)
	}
	return &r.entries[id]
}

// UpdateNormalized stores raw, clamped to [0,1], as the new target of id.
// NaN is ignored. The callback is not invoked until the next Process.
func (r *Registry[P]) UpdateNormalized(id P, raw float64) {
	e := r.mustGet(id)
	if math.IsNaN(raw) {
		return
	}
	e.storeRaw(clamp01(raw))
}

// UpdateValue sets the target of id in engineering units.
func (r *Registry[P]) UpdateValue(id P, value float64) {
	e := r.mustGet(id)
	if math.IsNaN(value) {
		return
	}
	e.storeRaw(Unmap(e.curve, value, e.min, e.max))
}

// Process advances every parameter's smoothing filter one step and delivers
// the smoothed value to its callback, in registration order.
func (r *Registry[P]) Process() {
	for _, id := range r.order {
		e := &r.entries[id]
		target := Map(e.curve, e.rawValue(), e.min, e.max)
		e.value += (target - e.value) * e.coef
		e.published.Store(math.Float64bits(e.value))
		e.callback(e.value)
	}
}

// Value returns the last smoothed value of id.
func (r *Registry[P]) Value(id P) float64 {
	return math.Float64frombits(r.mustGet(id).published.Load())
}

// Normalized returns the last raw value of id.
func (r *Registry[P]) Normalized(id P) float64 {
	return r.mustGet(id).rawValue()
}

// Target returns the value id is currently smoothing toward.
func (r *Registry[P]) Target(id P) float64 {
	e := r.mustGet(id)
	return Map(e.curve, e.rawValue(), e.min, e.max)
}

// Descriptor describes a registered parameter.
type Descriptor struct {
	Default       float64
	Min           float64
	Max           float64
	Curve         Curve
	SmoothingTime float64
}

// Describe returns the descriptor of id.
func (r *Registry[P]) Describe(id P) Descriptor {
	e := r.mustGet(id)
	return Descriptor{
		Default:       e.def,
		Min:           e.min,
		Max:           e.max,
		Curve:         e.curve,
		SmoothingTime: e.smoothing,
	}
}

// IDs returns registered ids in registration order.
func (r *Registry[P]) IDs() []P {
	ids := make([]P, len(r.order))
	copy(ids, r.order)
	return ids
}
