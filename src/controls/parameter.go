package controls

// ----- Parameter ----- //

// Parameter identifies a control of the synth engine.
type Parameter int

// Parameters, in registration order
const (
	StringPitch Parameter = iota
	FeedbackGain
	FeedbackDelay
	FeedbackLPFCutoff
	FeedbackHPFCutoff
	EchoDelayTime
	EchoDelayFeedback
	EchoDelaySend
	ReverbMix
	ReverbTime

	NumParameters int = iota
)

var parameterNames = [NumParameters]string{
	"string_pitch",
	"feedback_gain",
	"feedback_delay",
	"feedback_lpf_cutoff",
	"feedback_hpf_cutoff",
	"echo_delay_time",
	"echo_delay_feedback",
	"echo_delay_send",
	"reverb_mix",
	"reverb_time",
}

func (p Parameter) String() string {
	if p < 0 || int(p) >= NumParameters {
		return "unknown"
	}
	return parameterNames[p]
}

// ParseParameter looks a parameter up by name.
func ParseParameter(s string) (Parameter, bool) {
	for i, name := range parameterNames {
		if name == s {
			return Parameter(i), true
		}
	}
	return 0, false
}

// Parameters returns every parameter in registration order.
func Parameters() []Parameter {
	ps := make([]Parameter, NumParameters)
	for i := range ps {
		ps[i] = Parameter(i)
	}
	return ps
}
