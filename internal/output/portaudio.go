package output

import (
	"fmt"
	"log"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudio plays through the default output device using a PortAudio
// callback stream. portaudio.Initialize() must have been called first.
type PortAudio struct {
	mu     sync.Mutex
	rate   float64 // 0 = device default
	frames int
	stream *portaudio.Stream
	logger *log.Logger
}

// NewPortAudio creates a PortAudio sink. rate <= 0 uses the device's
// default sample rate.
func NewPortAudio(rate float64, frames int, logger *log.Logger) *PortAudio {
	return &PortAudio{
		rate:   rate,
		frames: framesOrDefault(frames),
		logger: logger,
	}
}

// SampleRate returns the configured rate, or the default output device's
// rate. It returns 0 when no output device is available.
func (p *PortAudio) SampleRate() float64 {
	if p.rate > 0 {
		return p.rate
	}
	dev, err := portaudio.DefaultOutputDevice()
	if err != nil || dev == nil {
		p.logger.Printf("sink: portaudio: no default output device: %v", err)
		return 0
	}
	return dev.DefaultSampleRate
}

// Begin opens a mono float32 stream and starts calling render from the
// PortAudio callback thread.
func (p *PortAudio) Begin(render func(out []float32)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream != nil {
		return fmt.Errorf("portaudio stream already open")
	}

	rate := p.SampleRate()
	if rate <= 0 {
		return fmt.Errorf("no output device")
	}

	stream, err := portaudio.OpenDefaultStream(0, 1, rate, p.frames, render)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("start stream: %w", err)
	}

	p.stream = stream
	p.logger.Printf("sink: portaudio stream started rate=%.0f frames=%d", rate, p.frames)
	return nil
}

// End stops and closes the stream. Pa_StopStream returns after the last
// callback has completed.
func (p *PortAudio) End() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return
	}
	if err := p.stream.Stop(); err != nil {
		p.logger.Printf("sink: portaudio stop: %v", err)
	}
	if err := p.stream.Close(); err != nil {
		p.logger.Printf("sink: portaudio close: %v", err)
	}
	p.stream = nil
	p.logger.Printf("sink: portaudio stream closed")
}

// OutputAvailable returns true if PortAudio can find a default output device.
// portaudio.Initialize() must have been called before using this.
func OutputAvailable() bool {
	dev, err := portaudio.DefaultOutputDevice()
	return err == nil && dev != nil && dev.MaxOutputChannels > 0
}
