package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/infrasonic/feedback-synth/src/audio"
	"github.com/infrasonic/feedback-synth/src/controls"
	"golang.org/x/sync/errgroup"
)

const defaultSockFileName = "/tmp/feedback-synth.sock"

func main() {
	configPath := flag.String("config", "", "control binding file (JSON)")
	sockFileName := flag.String("sock", defaultSockFileName, "IPC socket, empty to disable")
	blockSize := flag.Int("block", audio.DefaultBlockSize, "samples per control update")
	midiIn := flag.String("midi", "", "MIDI IN port name (substring), first port if empty")
	reportInterval := flag.Duration("report", time.Second/10, "interval of value reports")
	flag.Parse()
	log.SetFlags(log.Lshortfile)
	log.Printf("NumCPU: %v\n", runtime.NumCPU())

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var config *controls.Config
	if *configPath != "" {
		var err error
		config, err = controls.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("error: %v\n", err)
		}
	}
	host, err := audio.NewAudio(config, *blockSize)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	defer host.Close()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalCh)
		cancel()
	}()
	go func() {
		sig := <-signalCh
		log.Printf("Caught signal %s: shutting down...\n", sig)
		cancel()
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return host.Start(ctx)
	})
	g.Go(func() error {
		for data := range audio.ListenToMidiIn(ctx, *midiIn) {
			host.HandleMIDI(data)
		}
		log.Println("MIDI IN ended.")
		return nil
	})
	if *sockFileName != "" {
		g.Go(func() error {
			return withIPCConnection(ctx, *sockFileName, func(ctx context.Context, conn net.Conn) error {
				return serveIPC(ctx, conn, host.CommandCh, host.Value, *reportInterval)
			})
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

// withIPCConnection serves clients one at a time until ctx is done. A client
// leaving ends its session, not the listener.
func withIPCConnection(ctx context.Context, sockFileName string, f func(context.Context, net.Conn) error) error {
	os.Remove(sockFileName)
	listener, err := new(net.ListenConfig).Listen(ctx, "unix", sockFileName)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		listener.Close()
	}()
	defer func() {
		log.Println("Closing IPC...")
		os.Remove(sockFileName)
	}()
	for {
		log.Printf("start listening on %s...\n", sockFileName)
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := handleConnection(ctx, conn, f); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		log.Println("IPC client left")
	}
}

func handleConnection(ctx context.Context, conn net.Conn, f func(context.Context, net.Conn) error) error {
	defer func() {
		err := conn.Close()
		if err != nil && !errors.Is(err, net.ErrClosed) {
			log.Printf("error while closing connection: %v", err)
		}
	}()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	return f(ctx, conn)
}

// serveIPC runs one client session. It returns nil once the client is gone,
// and either side ending ends the other.
func serveIPC(ctx context.Context, conn net.Conn, commandCh chan<- []string, value func(controls.Parameter) float64, interval time.Duration) error {
	session, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		// unblocks a pending read
		<-session.Done()
		conn.Close()
	}()
	g, ctx := errgroup.WithContext(session)
	g.Go(func() error {
		defer cancel()
		return receiveCommands(ctx, conn, commandCh)
	})
	g.Go(func() error {
		defer cancel()
		return sendReports(ctx, conn, value, interval)
	})
	return g.Wait()
}

// isDisconnect reports errors that mean the peer went away.
func isDisconnect(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

func receiveCommands(ctx context.Context, conn io.Reader, commandCh chan<- []string) error {
	reader := bufio.NewReader(conn)
	var line []byte
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("Connection interrupted")
			break loop
		default:
		}
		next, isPrefix, err := reader.ReadLine()
		if err != nil {
			if ctx.Err() != nil || isDisconnect(err) {
				break loop
			}
			return err
		}
		line = append(line, next...)
		if isPrefix {
			continue
		}
		command, err := parseCommand(string(line))
		if err != nil {
			return err
		}
		if len(command) > 0 {
			select {
			case commandCh <- command:
			case <-ctx.Done():
				break loop
			}
			log.Printf("received: %s\n", string(line))
		}
		line = []byte{}
	}
	log.Println("receiveCommands() ended.")
	return nil
}

func parseCommand(line string) ([]string, error) {
	lineStr := strings.Fields(line)
	for i, item := range lineStr {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		lineStr[i] = escaped
	}
	return lineStr, nil
}

// formatReport lists the smoothed value of every parameter on one line.
func formatReport(value func(controls.Parameter) float64) string {
	s := "values"
	for _, p := range controls.Parameters() {
		s += " " + p.String() + "=" + strconv.FormatFloat(value(p), 'f', 6, 64)
	}
	return s
}

func sendReports(ctx context.Context, conn io.Writer, value func(controls.Parameter) float64, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("sendReports() interrupted")
			break loop
		case <-t.C:
			if _, err := conn.Write([]byte(formatReport(value) + "\n")); err != nil {
				if ctx.Err() != nil || isDisconnect(err) {
					break loop
				}
				return err
			}
		}
	}
	log.Println("sendReports() ended.")
	return nil
}
