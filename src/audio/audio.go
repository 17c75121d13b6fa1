// Package audio is the desktop host of the synth: it streams the engine to
// the sound card through oto and feeds it from MIDI, IPC commands and a bank
// of virtual knobs.
package audio

import (
	"context"
	"io"
	"log"

	"github.com/hajimehoshi/oto"
	"github.com/infrasonic/feedback-synth/src/controls"
	"github.com/infrasonic/feedback-synth/src/synth"
)

// Output format
const (
	SampleRate      = 48000
	ChannelNum      = 2
	BitDepthInBytes = 2
	samplesPerCycle = 1024
)
const bytesPerSample = BitDepthInBytes * ChannelNum
const bufferSizeInBytes = samplesPerCycle * bytesPerSample // should be >= 4096

// DefaultBlockSize is the number of samples between two control updates.
const DefaultBlockSize = 64

const numKnobs = 16

// ----- Audio ----- //

// Audio ...
type Audio struct {
	ctx        context.Context
	otoContext *oto.Context
	CommandCh  chan []string
	engine     *synth.Engine
	controls   *controls.Controls
	Knobs      *KnobBank
	blockSize  int
	pos        int // samples rendered in the current block
}

var _ io.Reader = (*Audio)(nil)

// NewOffline creates an Audio that is not connected to any device. Read
// renders the stream on demand.
func NewOffline(config *controls.Config, blockSize int) *Audio {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	engine := synth.New()
	engine.Init(SampleRate)
	c := controls.New(config)
	c.Init(engine.SampleRate(), blockSize, engine)
	return &Audio{
		ctx:       context.Background(),
		CommandCh: make(chan []string, 256),
		engine:    engine,
		controls:  c,
		Knobs:     NewKnobBank(knobsFor(c.Config())),
		blockSize: blockSize,
	}
}

// knobsFor returns enough knobs for every bound sensor channel.
func knobsFor(config *controls.Config) int {
	n := numKnobs
	for _, in := range config.Inputs {
		if in.Channel >= n {
			n = in.Channel + 1
		}
	}
	return n
}

// NewAudio opens the output device. A nil config means the default bindings.
func NewAudio(config *controls.Config, blockSize int) (*Audio, error) {
	otoContext, err := oto.NewContext(SampleRate, ChannelNum, BitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return nil, err
	}
	audio := NewOffline(config, blockSize)
	audio.otoContext = otoContext
	log.Printf("block: %d samples, control rate: %.1f Hz\n", audio.blockSize, audio.controls.Params().ControlRate())
	go processCommands(audio, audio.CommandCh)
	return audio, nil
}

func (a *Audio) Read(buf []byte) (int, error) {
	select {
	case <-a.ctx.Done():
		log.Println("Read() interrupted.")
		return 0, io.EOF
	default:
		sampleLength := len(buf) / bytesPerSample
		for i := 0; i < sampleLength; i++ {
			if a.pos == 0 {
				a.controls.Update(a.Knobs)
				a.controls.Process()
			}
			left, right := a.engine.Process()
			writeSample(buf, i, 0, left)
			writeSample(buf, i, 1, right)
			a.pos++
			if a.pos >= a.blockSize {
				a.pos = 0
			}
		}
		return sampleLength * bytesPerSample, nil
	}
}

func writeSample(buf []byte, i int, ch int, value float64) {
	if value > 1 {
		value = 1
	} else if value < -1 {
		value = -1
	}
	const max = 32767
	b := int16(value * max)
	buf[bytesPerSample*i+2*ch] = byte(b)
	buf[bytesPerSample*i+2*ch+1] = byte(b >> 8)
}

// Close ...
func (a *Audio) Close() error {
	log.Println("Closing Audio...")
	close(a.CommandCh)
	if a.otoContext == nil {
		return nil
	}
	return a.otoContext.Close()
}

// Start ...
func (a *Audio) Start(ctx context.Context) error {
	p := a.otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	a.ctx = ctx

	// block until cancel() called
	if _, err := io.CopyBuffer(p, a, make([]byte, bufferSizeInBytes)); err != nil {
		return err
	}
	log.Println("Start() ended.")
	return nil
}

// HandleMIDI passes a raw MIDI message to the controls. Safe from any goroutine.
func (a *Audio) HandleMIDI(data []byte) {
	a.controls.HandleMIDI(data)
}

// Value returns the last smoothed value of p. Safe from any goroutine.
func (a *Audio) Value(p controls.Parameter) float64 {
	return a.controls.Params().Value(p)
}
