package output

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

var (
	speakerOnce sync.Once
	speakerRate beep.SampleRate
	speakerErr  error
)

// InitSpeaker initializes the beep speaker at rate on first use and returns
// the rate it actually runs at. Later calls return the first result, so the
// ambience sink and the chime player share one speaker. bufferSize <= 0
// selects 100ms.
func InitSpeaker(rate beep.SampleRate, bufferSize int) (beep.SampleRate, error) {
	speakerOnce.Do(func() {
		if bufferSize <= 0 {
			bufferSize = rate.N(time.Second / 10)
		}
		speakerRate = rate
		speakerErr = speaker.Init(rate, bufferSize)
	})
	return speakerRate, speakerErr
}

// Beep plays through the beep speaker (oto underneath). The mono render
// output is duplicated onto both speaker channels.
type Beep struct {
	mu     sync.Mutex
	rate   float64
	ctrl   *beep.Ctrl
	logger *log.Logger
}

// NewBeep creates a beep sink. rate <= 0 uses DefaultSampleRate. The
// speaker always buffers 100ms; beep underruns with callback-sized buffers.
func NewBeep(rate float64, logger *log.Logger) *Beep {
	return &Beep{
		rate:   rateOrDefault(rate),
		logger: logger,
	}
}

// SampleRate returns the speaker rate. If another component initialized
// the speaker first, its rate wins.
func (b *Beep) SampleRate() float64 {
	sr, err := InitSpeaker(beep.SampleRate(int(b.rate)), 0)
	if err != nil {
		b.logger.Printf("sink: beep speaker init: %v", err)
		return 0
	}
	return float64(sr)
}

// Begin adds a streamer driving render to the speaker mix.
func (b *Beep) Begin(render func(out []float32)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctrl != nil {
		return fmt.Errorf("beep sink already playing")
	}
	sr, err := InitSpeaker(beep.SampleRate(int(b.rate)), 0)
	if err != nil {
		return fmt.Errorf("speaker init: %w", err)
	}

	b.ctrl = &beep.Ctrl{Streamer: newMonoStreamer(render)}
	speaker.Play(b.ctrl)
	b.logger.Printf("sink: beep streamer added rate=%d", int(sr))
	return nil
}

// End detaches the streamer. The speaker calls streamers with its lock
// held, so once the lock is released render will not be called again.
func (b *Beep) End() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctrl == nil {
		return
	}
	speaker.Lock()
	b.ctrl.Streamer = nil
	speaker.Unlock()
	b.ctrl = nil
	b.logger.Printf("sink: beep streamer removed")
}

// monoStreamer adapts a mono render function to beep's stereo Streamer.
type monoStreamer struct {
	render func(out []float32)
	buf    []float32
}

func newMonoStreamer(render func(out []float32)) *monoStreamer {
	return &monoStreamer{render: render, buf: make([]float32, maxChunk)}
}

func (m *monoStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	for len(samples) > 0 {
		k := min(len(samples), len(m.buf))
		chunk := m.buf[:k]
		m.render(chunk)
		for i, v := range chunk {
			samples[i][0] = float64(v)
			samples[i][1] = float64(v)
		}
		samples = samples[k:]
		n += k
	}
	return n, true
}

func (m *monoStreamer) Err() error {
	return nil
}
