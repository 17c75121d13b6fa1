package controls

// ----- MIDI ----- //

const (
	midiNoteOff       = 0x8
	midiNoteOn        = 0x9
	midiControlChange = 0xB
)

// HandleMIDI applies one raw MIDI message. Note on sets the string pitch and
// excites the strings by velocity; control changes set their bound parameter.
// Other messages are ignored.
func (c *Controls) HandleMIDI(data []byte) {
	c.mustInit()
	if len(data) < 3 {
		return
	}
	kind := data[0] >> 4
	channel := int(data[0] & 0x0F)
	if c.config.MIDIChannel != OmniChannel && channel != c.config.MIDIChannel {
		return
	}
	switch kind {
	case midiNoteOn:
		velocity := data[2] & 0x7F
		if velocity == 0 {
			// note on with zero velocity is a note off; the string just rings out
			return
		}
		c.params.UpdateValue(StringPitch, float64(data[1]&0x7F))
		c.Excite(float64(velocity) / 127)
	case midiControlChange:
		number := data[1] & 0x7F
		if !c.hasCC[number] {
			return
		}
		c.params.UpdateNormalized(c.ccs[number], float64(data[2]&0x7F)/127)
	case midiNoteOff:
	}
}
