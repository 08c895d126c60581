package output

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/Danondso/ambience/internal/engine"
)

// Backend names accepted by New and by the audio.backend config key.
const (
	BackendPortAudio = "portaudio"
	BackendBeep      = "beep"
	BackendOto       = "oto"
)

// DefaultSampleRate is used by backends that cannot query the device and
// were given no explicit rate.
const DefaultSampleRate = 44100

// maxChunk bounds the scratch buffers the adapters hand to the render
// function. Requests larger than this are served in several calls.
const maxChunk = 4096

// ErrUnknownBackend is returned by New for an unrecognised backend name.
var ErrUnknownBackend = errors.New("unknown output backend")

// Backends lists every supported backend name.
func Backends() []string {
	return []string{BackendPortAudio, BackendBeep, BackendOto}
}

// New returns the sink for backend. sampleRate <= 0 lets the backend pick
// (the device default for PortAudio, DefaultSampleRate otherwise).
// No device is opened until the engine starts a session.
func New(backend string, sampleRate float64, frames int, logger *log.Logger) (engine.Sink, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	switch backend {
	case BackendPortAudio, "":
		return NewPortAudio(sampleRate, frames, logger), nil
	case BackendBeep:
		return NewBeep(sampleRate, logger), nil
	case BackendOto:
		return NewOto(sampleRate, frames, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

func rateOrDefault(rate float64) float64 {
	if rate > 0 {
		return rate
	}
	return DefaultSampleRate
}

func framesOrDefault(frames int) int {
	if frames > 0 {
		return frames
	}
	return 512
}
