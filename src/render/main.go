package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"flag"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/infrasonic/feedback-synth/src/audio"
	"github.com/infrasonic/feedback-synth/src/controls"
	"golang.org/x/sync/errgroup"
)

// scenes are rendered side by side, one file each
var scenes = map[string][]string{
	"drone": {
		"value feedback_gain 0",
		"value feedback_delay 0.02",
		"excite 1",
	},
	"scream": {
		"value feedback_gain 12",
		"value feedback_delay 0.1",
		"value feedback_hpf_cutoff 4000",
		"excite 1",
	},
	"echo": {
		"value feedback_gain -6",
		"value echo_delay_time 0.25",
		"value echo_delay_feedback 1.5",
		"value echo_delay_send 1",
		"excite 1",
	},
	"hall": {
		"value feedback_gain -3",
		"value reverb_time 1",
		"value reverb_mix 0.5",
		"note_on 36 127",
	},
}

func main() {
	configPath := flag.String("config", "", "control binding file (JSON)")
	seconds := flag.Float64("seconds", 10, "length of each file")
	script := flag.String("script", "", "render one file from a command script instead of the built-in scenes")
	flag.Parse()
	dir := flag.Arg(0)
	if dir == "" {
		panic("dir is not passed")
	}
	log.SetFlags(log.Lshortfile)

	var config *controls.Config
	if *configPath != "" {
		var err error
		config, err = controls.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("error: %v\n", err)
		}
	}
	todo := scenes
	if *script != "" {
		commands, err := readScript(*script)
		if err != nil {
			log.Fatalf("error: %v\n", err)
		}
		name := strings.TrimSuffix(filepath.Base(*script), filepath.Ext(*script))
		todo = map[string][]string{name: commands}
	}

	g, _ := errgroup.WithContext(context.Background())
	for name, commands := range todo {
		name, commands := name, commands
		g.Go(func() error {
			path := filepath.Join(dir, name+".wav")
			if err := render(path, config, commands, *seconds); err != nil {
				return err
			}
			log.Printf("rendered %s\n", path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

func readScript(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	var commands []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		commands = append(commands, line)
	}
	return commands, scanner.Err()
}

func render(path string, config *controls.Config, commands []string, seconds float64) error {
	a := audio.NewOffline(config, audio.DefaultBlockSize)
	for _, command := range commands {
		if err := a.Apply(strings.Fields(command)); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeWav(file, a, int(seconds*audio.SampleRate)); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// writeWav writes frames of src as a WAV stream.
func writeWav(dst io.Writer, src io.Reader, frames int) error {
	w := bufio.NewWriter(dst)
	if err := writeWavHeader(w, frames); err != nil {
		return err
	}
	if _, err := io.CopyN(w, src, int64(frames*audio.ChannelNum*audio.BitDepthInBytes)); err != nil {
		return err
	}
	return w.Flush()
}

// writeWavHeader writes a canonical 44 byte PCM header.
func writeWavHeader(w io.Writer, frames int) error {
	const headerSize = 44
	blockAlign := audio.ChannelNum * audio.BitDepthInBytes
	dataSize := frames * blockAlign
	fields := []interface{}{
		[4]byte{'R', 'I', 'F', 'F'},
		uint32(headerSize - 8 + dataSize),
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16), // fmt chunk size
		uint16(1),  // PCM
		uint16(audio.ChannelNum),
		uint32(audio.SampleRate),
		uint32(audio.SampleRate * blockAlign),
		uint16(blockAlign),
		uint16(audio.BitDepthInBytes * 8),
		[4]byte{'d', 'a', 't', 'a'},
		uint32(dataSize),
	}
	for _, field := range fields {
		if err := binary.Write(w, binary.LittleEndian, field); err != nil {
			return err
		}
	}
	return nil
}
