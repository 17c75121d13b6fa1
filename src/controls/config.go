package controls

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/infrasonic/feedback-synth/src/params"
)

// OmniChannel accepts MIDI messages on every channel.
const OmniChannel = -1

// ----- Config ----- //

// Input binds a parameter to a sensor channel.
type Input struct {
	Parameter Parameter
	Channel   int
	Invert    bool // use 1 - reading
}

// CC binds a parameter to a MIDI control change number.
type CC struct {
	Parameter Parameter
	Number    int
}

// Config describes how the physical controls reach the parameters.
type Config struct {
	Inputs      []Input
	CCs         []CC
	MIDIChannel int                        // 0-15 or OmniChannel
	Curves      map[Parameter]params.Curve // overrides the built-in mapping curve
}

// DefaultConfig mirrors the reference board: the first eight parameters on
// an eight way multiplexer (channels 0-7), reverb time and mix on two direct
// inputs (channels 8 and 9), every pot wired inverted. CCs 20-29 follow the
// parameter order.
func DefaultConfig() *Config {
	c := &Config{MIDIChannel: OmniChannel}
	for i := 0; i < 8; i++ {
		c.Inputs = append(c.Inputs, Input{Parameter: Parameter(i), Channel: i, Invert: true})
	}
	c.Inputs = append(c.Inputs,
		Input{Parameter: ReverbTime, Channel: 8, Invert: true},
		Input{Parameter: ReverbMix, Channel: 9, Invert: true},
	)
	for _, p := range Parameters() {
		c.CCs = append(c.CCs, CC{Parameter: p, Number: 20 + int(p)})
	}
	return c
}

// Validate reports bindings that would let two controls fight over one parameter.
func (c *Config) Validate() error {
	if c.MIDIChannel != OmniChannel && (c.MIDIChannel < 0 || c.MIDIChannel > 15) {
		return fmt.Errorf("invalid MIDI channel %d", c.MIDIChannel)
	}
	bound := make(map[Parameter]bool)
	for _, in := range c.Inputs {
		if in.Parameter < 0 || int(in.Parameter) >= NumParameters {
			return fmt.Errorf("invalid parameter %d", in.Parameter)
		}
		if in.Channel < 0 {
			return fmt.Errorf("%v: invalid channel %d", in.Parameter, in.Channel)
		}
		if bound[in.Parameter] {
			return fmt.Errorf("%v: bound to more than one input", in.Parameter)
		}
		bound[in.Parameter] = true
	}
	for p, curve := range c.Curves {
		if p < 0 || int(p) >= NumParameters {
			return fmt.Errorf("invalid parameter %d", p)
		}
		if curve == params.Logarithmic && paramSpecs[p].min <= 0 {
			return fmt.Errorf("%v: logarithmic curve needs a positive minimum", p)
		}
	}
	ccs := make(map[int]bool)
	for _, cc := range c.CCs {
		if cc.Parameter < 0 || int(cc.Parameter) >= NumParameters {
			return fmt.Errorf("invalid parameter %d", cc.Parameter)
		}
		if cc.Number < 0 || cc.Number > 127 {
			return fmt.Errorf("%v: invalid CC number %d", cc.Parameter, cc.Number)
		}
		if ccs[cc.Number] {
			return fmt.Errorf("CC %d: bound to more than one parameter", cc.Number)
		}
		ccs[cc.Number] = true
	}
	return nil
}

// ----- JSON ----- //

type inputJSON struct {
	Param   string `json:"param"`
	Channel int    `json:"channel"`
	Invert  bool   `json:"invert"`
}

type ccJSON struct {
	Param  string `json:"param"`
	Number int    `json:"cc"`
}

type configJSON struct {
	Inputs      []inputJSON       `json:"inputs"`
	CCs         []ccJSON          `json:"ccs"`
	MIDIChannel *int              `json:"midiChannel"`
	Curves      map[string]string `json:"curves"`
}

func (c *Config) applyJSON(data []byte) error {
	var j configJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	if j.Inputs != nil {
		c.Inputs = c.Inputs[:0]
		for _, in := range j.Inputs {
			p, ok := ParseParameter(in.Param)
			if !ok {
				return fmt.Errorf("unknown parameter %q", in.Param)
			}
			c.Inputs = append(c.Inputs, Input{Parameter: p, Channel: in.Channel, Invert: in.Invert})
		}
	}
	if j.CCs != nil {
		c.CCs = c.CCs[:0]
		for _, cc := range j.CCs {
			p, ok := ParseParameter(cc.Param)
			if !ok {
				return fmt.Errorf("unknown parameter %q", cc.Param)
			}
			c.CCs = append(c.CCs, CC{Parameter: p, Number: cc.Number})
		}
	}
	if j.Curves != nil {
		c.Curves = make(map[Parameter]params.Curve, len(j.Curves))
		for name, value := range j.Curves {
			p, ok := ParseParameter(name)
			if !ok {
				return fmt.Errorf("unknown parameter %q", name)
			}
			curve, ok := params.ParseCurve(value)
			if !ok {
				return fmt.Errorf("%v: unknown curve %q", p, value)
			}
			c.Curves[p] = curve
		}
	}
	if j.MIDIChannel != nil {
		c.MIDIChannel = *j.MIDIChannel
	}
	return c.Validate()
}

// ParseConfig overlays data on DefaultConfig. Sections missing from data
// keep their defaults.
func ParseConfig(data []byte) (*Config, error) {
	c := DefaultConfig()
	if err := c.applyJSON(data); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadConfig reads a JSON config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
