package synth

import (
	"math"
	"math/rand/v2"
	"sync/atomic"
)

// seedMix decorrelates the two PCG seed words.
const seedMix = 0x9e3779b97f4a7c15

// MaxFrames is the size of the scratch buffer. Longer render requests are
// processed in chunks of this size.
const MaxFrames = 4096

// RenderState is the mutable state shared between the control context and
// the render context for one playback session.
//
// SampleRate and Vibe are fixed at construction. The volume may be changed
// from any goroutine. Everything else is owned by the render context once
// the state has been handed to an output sink.
type RenderState struct {
	SampleRate float64
	Vibe       Vibe

	volume atomic.Uint64 // float64 bits

	seed uint64
	pcg  *rand.PCG
	rng  *rand.Rand

	tune    tuning
	scratch []float64

	brown  brownState
	rain   rainState
	nature natureState
	lofi   lofiState
	piano  pianoState
}

// NewRenderState allocates a state for vibe at sampleRate. The PRNG stream
// is fully determined by seed. The returned state is already reset.
func NewRenderState(vibe Vibe, sampleRate float64, seed uint64) *RenderState {
	pcg := rand.NewPCG(seed, seed^seedMix)
	s := &RenderState{
		SampleRate: sampleRate,
		Vibe:       vibe,
		seed:       seed,
		pcg:        pcg,
		rng:        rand.New(pcg),
		tune:       newTuning(newTiming(sampleRate)),
		scratch:    make([]float64, MaxFrames),
	}
	s.SetVolume(1)
	s.Reset()
	return s
}

// Reset puts every generator-private field back to its initial value and
// rewinds the PRNG to the start of the seed's stream. It must not be called
// while a sink may be rendering from this state.
func (s *RenderState) Reset() {
	s.pcg.Seed(s.seed, s.seed^seedMix)
	s.brown = brownState{}
	s.rain = rainState{}
	s.nature = natureState{}
	s.lofi = lofiState{}
	s.piano.reset()
}

// Pristine reports whether every generator-private field still holds its
// initial value.
func (s *RenderState) Pristine() bool {
	return s.brown == brownState{} &&
		s.rain == rainState{} &&
		s.nature == natureState{} &&
		s.lofi == lofiState{} &&
		s.piano.count == 0 && s.piano.cooldown == 0
}

// Seed returns the seed of the PRNG stream.
func (s *RenderState) Seed() uint64 {
	return s.seed
}

// SetVolume stores the output gain, clamped to [0,1]. Safe to call while
// rendering.
func (s *RenderState) SetVolume(v float64) {
	s.volume.Store(math.Float64bits(ClampVolume(v)))
}

// Volume returns the current output gain.
func (s *RenderState) Volume() float64 {
	return math.Float64frombits(s.volume.Load())
}

// Render fills out with len(out) samples of the active vibe scaled by the
// current volume. It does not allocate, lock, or block.
func (s *RenderState) Render(out []float32) {
	vol := s.Volume()
	for len(out) > 0 {
		n := min(len(out), len(s.scratch))
		buf := s.scratch[:n]
		s.Generate(buf)
		for i, v := range buf {
			out[i] = float32(v * vol)
		}
		out = out[n:]
	}
}

// Generate writes len(buf) raw samples in [-1,1] from the active generator,
// before the volume is applied.
func (s *RenderState) Generate(buf []float64) {
	switch s.Vibe {
	case WhiteNoise:
		generateWhite(buf, s.rng)
	case BrownNoise:
		s.brown.generate(buf, s.rng)
	case Rain:
		s.rain.generate(buf, s.rng, &s.tune)
	case Nature:
		s.nature.generate(buf, s.rng, &s.tune)
	case LoFi:
		s.lofi.generate(buf, s.rng, &s.tune)
	case Piano:
		s.piano.generate(buf, s.rng, &s.tune)
	default:
		clear(buf)
		return
	}
	for i, v := range buf {
		buf[i] = limit(v)
	}
}

// ClampVolume bounds v to [0,1]; NaN maps to 0.
func ClampVolume(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v >= 0:
		return v
	default:
		return 0
	}
}

// limit clamps v to [-1, 1].
func limit(v float64) float64 {
	return max(-1, min(1, v))
}

// uniform draws from [lo, hi).
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// bipolar draws from [-1, 1).
func bipolar(rng *rand.Rand) float64 {
	return rng.Float64()*2 - 1
}
