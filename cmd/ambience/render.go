package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/Danondso/ambience/internal/engine"
	"github.com/Danondso/ambience/internal/recorder"
	"github.com/Danondso/ambience/internal/synth"
)

// renderOptions are the flags of the render subcommand.
type renderOptions struct {
	vibe      string
	seconds   float64
	rate      int
	synthRate int
	seed      uint64
	volume    float64
	out       string
	debug     bool
}

func parseRenderFlags(args []string, stderr io.Writer) (renderOptions, error) {
	var o renderOptions
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.vibe, "vibe", "rain", "vibe to render")
	fs.Float64Var(&o.seconds, "seconds", 30, "length in seconds")
	fs.IntVar(&o.rate, "rate", 0, "output sample rate (0 = synthesis rate)")
	fs.IntVar(&o.synthRate, "synth-rate", 44100, "synthesis sample rate")
	fs.Uint64Var(&o.seed, "seed", 0, "random seed (0 = random)")
	fs.Float64Var(&o.volume, "volume", 0.5, "volume 0.0-1.0")
	fs.StringVar(&o.out, "out", "", "output WAV path (default <vibe>.wav)")
	fs.BoolVar(&o.debug, "debug", false, "enable debug logging to stderr")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.seconds <= 0 {
		return o, fmt.Errorf("-seconds must be positive, got %v", o.seconds)
	}
	if o.synthRate <= 0 {
		return o, fmt.Errorf("-synth-rate must be positive, got %d", o.synthRate)
	}
	if o.rate < 0 {
		return o, fmt.Errorf("-rate must not be negative, got %d", o.rate)
	}
	return o, nil
}

// runRender synthesizes a vibe offline and writes it as a mono 16-bit WAV.
func runRender(args []string, stdout io.Writer) error {
	o, err := parseRenderFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	vibe, err := synth.ParseVibe(o.vibe)
	if err != nil {
		return err
	}
	if o.out == "" {
		o.out = vibe.String() + ".wav"
	}

	length := time.Duration(o.seconds * float64(time.Second))
	rec, err := recorder.New(float64(o.synthRate), 0, length)
	if err != nil {
		return err
	}

	logger := newLogger(o.debug)
	eng := engine.New(rec,
		engine.WithLogger(logger),
		engine.WithVolume(o.volume),
		engine.WithSeed(o.seed),
	)
	eng.Start(vibe)
	if !eng.IsPlaying() {
		return fmt.Errorf("engine did not start")
	}
	seed := eng.Seed()
	stop := make(chan struct{})
	go reportProgress(rec, logger, time.Second, stop)
	rec.Wait()
	close(stop)
	eng.Stop()
	if !rec.Truncated() {
		return fmt.Errorf("render ended before %.1fs were captured", o.seconds)
	}

	wavData, err := rec.Export(o.rate)
	if err != nil {
		return err
	}
	if err := os.WriteFile(o.out, wavData, 0o644); err != nil { //nolint:gosec // output file is meant to be shared
		return fmt.Errorf("write %s: %w", o.out, err)
	}

	rate := o.rate
	if rate == 0 {
		rate = o.synthRate
	}
	fmt.Fprintf(stdout, "wrote %s: %s, %.1fs at %d Hz, seed %d\n", o.out, vibe.DisplayName(), o.seconds, rate, seed)
	return nil
}

// progressSource is the part of the recorder the render progress log reads.
type progressSource interface {
	IsRecording() bool
	Level() float64
}

// reportProgress logs the output level every interval until stop is closed
// or the source finishes recording.
func reportProgress(src progressSource, logger *log.Logger, every time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !src.IsRecording() {
				return
			}
			logger.Printf("render: recording, level %.3f", src.Level())
		}
	}
}
