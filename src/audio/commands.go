package audio

import (
	"fmt"
	"log"
	"strconv"

	"github.com/infrasonic/feedback-synth/src/controls"
)

// ----- Commands ----- //

func processCommands(audio *Audio, commandCh <-chan []string) {
	for command := range commandCh {
		if err := audio.Apply(command); err != nil {
			log.Printf("invalid command %v: %v", command, err)
		}
	}
	log.Println("processCommands() ended.")
}

// Apply runs one IPC command:
//
//	knob <channel> <value>
//	set <param> <normalized value>
//	value <param> <value>
//	excite <amount>
//	note_on <note> <velocity>
func (a *Audio) Apply(command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("empty command")
	}
	switch command[0] {
	case "knob":
		if len(command) != 3 {
			return fmt.Errorf("expected channel and value")
		}
		channel, err := strconv.Atoi(command[1])
		if err != nil {
			return err
		}
		value, err := strconv.ParseFloat(command[2], 64)
		if err != nil {
			return err
		}
		return a.Knobs.Set(channel, value)
	case "set", "value":
		if len(command) != 3 {
			return fmt.Errorf("expected parameter and value")
		}
		p, ok := controls.ParseParameter(command[1])
		if !ok {
			return fmt.Errorf("unknown parameter %q", command[1])
		}
		value, err := strconv.ParseFloat(command[2], 64)
		if err != nil {
			return err
		}
		if command[0] == "set" {
			a.controls.SetNormalized(p, value)
		} else {
			a.controls.SetValue(p, value)
		}
	case "excite":
		if len(command) != 2 {
			return fmt.Errorf("expected amount")
		}
		amount, err := strconv.ParseFloat(command[1], 64)
		if err != nil {
			return err
		}
		a.controls.Excite(amount)
	case "note_on":
		if len(command) != 3 {
			return fmt.Errorf("expected note and velocity")
		}
		note, err := strconv.ParseUint(command[1], 10, 7)
		if err != nil {
			return err
		}
		velocity, err := strconv.ParseUint(command[2], 10, 7)
		if err != nil {
			return err
		}
		a.HandleMIDI([]byte{0x90, byte(note), byte(velocity)})
	default:
		return fmt.Errorf("unknown command %v", command[0])
	}
	return nil
}
