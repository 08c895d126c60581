package engine

import (
	"io"
	"log"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/Danondso/ambience/internal/synth"
)

// Sink is an audio output that pulls mono float32 samples at its own rate.
//
// Begin registers render and starts calling it from the sink's own context.
// End must not return until the sink is guaranteed never to call render
// again. Both are only called from the engine's control path.
type Sink interface {
	SampleRate() float64
	Begin(render func(out []float32)) error
	End()
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the debug logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithVolume sets the initial volume, clamped to [0,1]. The default is 0.5.
func WithVolume(v float64) Option {
	return func(e *Engine) {
		e.volume.Store(math.Float64bits(synth.ClampVolume(v)))
	}
}

// WithSeed fixes the PRNG seed of every session. Zero picks a fresh random
// seed on each Start.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.fixedSeed = seed
	}
}

// WithSampleRate overrides the rate reported by the sink. Only useful for
// sinks that accept any rate, such as the offline recorder.
func WithSampleRate(rate float64) Option {
	return func(e *Engine) {
		e.rateOverride = rate
	}
}

// Engine starts and stops ambience sessions on a Sink. All methods are safe
// for concurrent use and never return errors: a sink that cannot be opened
// leaves the engine stopped and silent.
type Engine struct {
	mu      sync.Mutex
	sink    Sink
	logger  *log.Logger
	state   *synth.RenderState
	playing bool
	vibe    synth.Vibe
	seed    uint64

	fixedSeed    uint64
	rateOverride float64

	volume atomic.Uint64 // float64 bits; survives across sessions
	level  atomic.Uint64 // float64 bits; RMS of the last rendered buffer
}

// New creates a stopped Engine that will play through sink.
func New(sink Sink, opts ...Option) *Engine {
	e := &Engine{
		sink:   sink,
		logger: log.New(io.Discard, "", 0),
	}
	e.volume.Store(math.Float64bits(0.5))
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start begins playing vibe, replacing any current session. If the sink
// fails to open the engine logs the failure and stays stopped.
func (e *Engine) Start(vibe synth.Vibe) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopLocked()

	if !vibe.Valid() {
		e.logger.Printf("engine: start ignored: invalid vibe %d", int(vibe))
		return
	}
	if e.sink == nil {
		e.logger.Printf("engine: start %s: no output sink", vibe)
		return
	}

	rate := e.rateOverride
	if rate <= 0 {
		rate = e.sink.SampleRate()
	}
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		e.logger.Printf("engine: start %s: sink reported unusable sample rate %v", vibe, rate)
		return
	}

	seed := e.fixedSeed
	if seed == 0 {
		seed = rand.Uint64()
	}

	st := synth.NewRenderState(vibe, rate, seed)
	st.SetVolume(e.Volume())
	st.Reset()
	e.logger.Printf("engine: %s state reset pristine=%v", vibe, st.Pristine())

	render := func(out []float32) {
		st.Render(out)
		e.level.Store(math.Float64bits(rms(out)))
	}

	if err := e.sink.Begin(render); err != nil {
		e.logger.Printf("engine: start %s: sink begin: %v", vibe, err)
		return
	}

	e.state = st
	e.playing = true
	e.vibe = vibe
	e.seed = seed
	e.logger.Printf("engine: playing vibe=%s rate=%.0f seed=%d volume=%.2f", vibe, rate, seed, st.Volume())
}

// Stop ends the current session. It returns only once the sink has stopped
// calling the render function. Calling Stop when stopped is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *Engine) stopLocked() {
	if !e.playing {
		return
	}
	e.sink.End()
	e.logger.Printf("engine: stopped vibe=%s", e.vibe)
	e.state = nil
	e.playing = false
	e.vibe = 0
	e.level.Store(0)
}

// Toggle stops playback if anything is playing, otherwise starts vibe.
// It reports whether the engine is playing afterwards.
func (e *Engine) Toggle(vibe synth.Vibe) bool {
	if e.IsPlaying() {
		e.Stop()
		return false
	}
	e.Start(vibe)
	return e.IsPlaying()
}

// SetVolume sets the output gain, clamped to [0,1]. It takes effect on the
// next buffer the sink requests and persists across sessions.
func (e *Engine) SetVolume(v float64) {
	v = synth.ClampVolume(v)
	e.volume.Store(math.Float64bits(v))

	e.mu.Lock()
	if e.state != nil {
		e.state.SetVolume(v)
	}
	e.mu.Unlock()
}

// Volume returns the current output gain.
func (e *Engine) Volume() float64 {
	return math.Float64frombits(e.volume.Load())
}

// IsPlaying reports whether a session is active.
func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

// CurrentVibe returns the vibe being played. ok is false when stopped.
func (e *Engine) CurrentVibe() (vibe synth.Vibe, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vibe, e.playing
}

// Seed returns the PRNG seed of the current session, or 0 when stopped.
func (e *Engine) Seed() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.playing {
		return 0
	}
	return e.seed
}

// Level returns the RMS amplitude of the most recently rendered buffer,
// in [0,1]. Safe to call from any goroutine.
func (e *Engine) Level() float64 {
	return math.Float64frombits(e.level.Load())
}

// rms is called on the render path and must not allocate.
func rms(buf []float32) float64 {
	if len(buf) == 0 {
		return 0
	}
	var sum float64
	for _, s := range buf {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(buf)))
}
