package output

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

func otoContext(rate, frames int) (*oto.Context, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   rate,
			ChannelCount: 1,
			Format:       oto.FormatFloat32LE,
			BufferSize:   0,
		})
		if err != nil {
			otoErr = err
			return
		}
		<-ready
		otoCtx = ctx
	})
	return otoCtx, otoErr
}

// Oto plays through an oto/v3 player reading 32-bit float little-endian
// mono PCM. It cannot be combined with the beep backend, which opens its
// own oto context.
type Oto struct {
	mu     sync.Mutex
	rate   float64
	frames int
	player *oto.Player
	logger *log.Logger
}

// NewOto creates an oto sink. rate <= 0 uses DefaultSampleRate.
func NewOto(rate float64, frames int, logger *log.Logger) *Oto {
	return &Oto{
		rate:   rateOrDefault(rate),
		frames: framesOrDefault(frames),
		logger: logger,
	}
}

// SampleRate returns the rate the oto context is opened at.
func (o *Oto) SampleRate() float64 {
	return o.rate
}

// Begin creates a player pulling from render and starts it.
func (o *Oto) Begin(render func(out []float32)) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		return fmt.Errorf("oto sink already playing")
	}
	ctx, err := otoContext(int(o.rate), o.frames)
	if err != nil {
		return fmt.Errorf("oto context: %w", err)
	}

	o.player = ctx.NewPlayer(newFloatReader(render))
	o.player.SetBufferSize(o.frames * 4)
	o.player.Play()
	o.logger.Printf("sink: oto player started rate=%.0f frames=%d", o.rate, o.frames)
	return nil
}

// End closes the player. Close holds the player's lock, which Read also
// runs under, so no read is in flight once it returns.
func (o *Oto) End() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return
	}
	o.player.Pause()
	o.player.Close()
	o.player = nil
	o.logger.Printf("sink: oto player closed")
}

// floatReader is an io.Reader producing little-endian float32 samples from
// a render function.
type floatReader struct {
	render func(out []float32)
	buf    []float32
}

func newFloatReader(render func(out []float32)) *floatReader {
	return &floatReader{render: render, buf: make([]float32, maxChunk)}
}

// Read fills whole samples only; a trailing partial sample is left unread.
func (r *floatReader) Read(p []byte) (int, error) {
	n := 0
	for len(p) >= 4 {
		k := min(len(p)/4, len(r.buf))
		chunk := r.buf[:k]
		r.render(chunk)
		for i, v := range chunk {
			binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(v))
		}
		p = p[4*k:]
		n += 4 * k
	}
	return n, nil
}
