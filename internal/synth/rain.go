package synth

import "math/rand/v2"

const (
	rainFloor      = 0.15
	rainDropChance = 0.001
	rainDropMin    = 0.3
	rainDropMax    = 0.7
	rainDecayMin   = 0.995
	rainDecayMax   = 0.9995
	rainAudible    = 0.01
	rainOutput     = 0.4
)

// rainState models droplet impacts as a sparse random impulse train laid
// over a constant hiss. Each impact rings out with its own decay.
type rainState struct {
	dropAmplitude float64
	dropDecay     float64
}

func (r *rainState) generate(buf []float64, rng *rand.Rand, tune *tuning) {
	for i := range buf {
		s := bipolar(rng) * rainFloor

		if rng.Float64() < tune.dropChance {
			r.dropAmplitude = uniform(rng, rainDropMin, rainDropMax)
			r.dropDecay = tune.factor(uniform(rng, rainDecayMin, rainDecayMax))
		}

		if r.dropAmplitude > rainAudible {
			s += bipolar(rng) * r.dropAmplitude
			r.dropAmplitude *= r.dropDecay
		}

		buf[i] = s * rainOutput
	}
}
