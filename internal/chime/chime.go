package chime

import (
	"bytes"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"

	"github.com/Danondso/ambience/internal/output"
	"github.com/Danondso/ambience/internal/recorder"
)

const (
	chimeRate     = 44100
	chimeDuration = 0.25 // seconds
)

// Player manages focus-session chime playback.
type Player struct {
	startData []byte
	stopData  []byte
	enabled   bool
	logger    *log.Logger
}

// New creates a Player. If startPath/stopPath are empty, synthesized
// defaults are used: a rising glide to start a session, a falling one to
// end it. If enabled is false, PlayStart/PlayStop are no-ops.
func New(startPath, stopPath string, enabled bool, logger *log.Logger) (*Player, error) {
	p := &Player{
		enabled: enabled,
		logger:  logger,
	}

	var err error
	if p.startData, err = load(startPath, 440, 660); err != nil {
		return nil, fmt.Errorf("start chime: %w", err)
	}
	if p.stopData, err = load(stopPath, 660, 440); err != nil {
		return nil, fmt.Errorf("stop chime: %w", err)
	}
	return p, nil
}

func load(path string, startFreq, endFreq float64) ([]byte, error) {
	if path == "" {
		return recorder.EncodeWAV(generateChime(chimeRate, chimeDuration, startFreq, endFreq), chimeRate)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	_, _, bits, err := recorder.ValidateWAVHeader(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if bits != 16 {
		return nil, fmt.Errorf("%s: %d-bit audio, want 16-bit", path, bits)
	}
	data, err = normalize(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// normalize re-encodes a custom chime as mono 16-bit PCM at chimeRate so
// every chime reaches the speaker in the same format.
func normalize(data []byte) ([]byte, error) {
	samples, rate, err := recorder.DecodeWAV(data)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("chime has no samples")
	}
	if rate != chimeRate {
		if samples, err = recorder.Resample(samples, float64(rate), chimeRate); err != nil {
			return nil, fmt.Errorf("resample chime: %w", err)
		}
	}
	return recorder.EncodeWAV(samples, chimeRate)
}

// generateChime renders a sine glide from startFreq to endFreq under a
// half-sine envelope.
func generateChime(sampleRate int, duration, startFreq, endFreq float64) []int16 {
	numSamples := int(float64(sampleRate) * duration)
	samples := make([]int16, numSamples)
	phase := 0.0
	for i := 0; i < numSamples; i++ {
		progress := float64(i) / float64(numSamples)
		freq := startFreq + (endFreq-startFreq)*progress
		envelope := math.Sin(math.Pi * progress)
		samples[i] = int16(math.Sin(phase) * envelope * 12000)
		phase += 2 * math.Pi * freq / float64(sampleRate)
	}
	return samples
}

func (p *Player) play(data []byte) {
	if !p.enabled || len(data) == 0 {
		return
	}

	go func() {
		streamer, format, err := wav.Decode(bytes.NewReader(data))
		if err != nil {
			if p.logger != nil {
				p.logger.Printf("chime: wav decode error: %v", err)
			}
			return
		}
		defer streamer.Close()

		sr, err := output.InitSpeaker(format.SampleRate, 0)
		if err != nil {
			if p.logger != nil {
				p.logger.Printf("chime: speaker init error: %v", err)
			}
			return
		}

		var s beep.Streamer = streamer
		if sr != format.SampleRate {
			s = beep.Resample(4, format.SampleRate, sr, streamer)
		}

		done := make(chan struct{})
		speaker.Play(beep.Seq(s, beep.Callback(func() {
			close(done)
		})))
		<-done
	}()
}

// PlayStart plays the session start chime (non-blocking).
func (p *Player) PlayStart() {
	p.play(p.startData)
}

// PlayStop plays the session end chime (non-blocking).
func (p *Player) PlayStop() {
	p.play(p.stopData)
}

// Enabled reports whether chimes will be played.
func (p *Player) Enabled() bool {
	return p.enabled
}
