package synth

import "math/rand/v2"

const (
	whiteHeadroom = 0.3

	brownStep   = 0.02
	brownLeak   = 0.998
	brownOutput = 0.5
)

func generateWhite(buf []float64, rng *rand.Rand) {
	for i := range buf {
		buf[i] = bipolar(rng) * whiteHeadroom
	}
}

// brownState is a leaky integrator of white noise. The leak pulls the
// accumulator back toward zero so the random walk cannot settle on a rail.
type brownState struct {
	acc float64
}

// step advances the integrator by one sample and returns the accumulator.
func (b *brownState) step(rng *rand.Rand) float64 {
	b.acc += bipolar(rng) * brownStep
	if b.acc > 1 {
		b.acc = 1
	} else if b.acc < -1 {
		b.acc = -1
	}
	b.acc *= brownLeak
	return b.acc
}

func (b *brownState) generate(buf []float64, rng *rand.Rand) {
	for i := range buf {
		buf[i] = b.step(rng) * brownOutput
	}
}
