package synth

import (
	"math"
	"math/rand/v2"
)

const (
	windOutput = 0.3

	chirpLevel       = 0.08
	chirpFreqMin     = 1800.0
	chirpFreqMax     = 4000.0
	chirpMinSamples  = 800.0
	chirpMaxSamples  = 2000.0
	chirpGlide       = 1.0001
	chirpCooldownMin = 15000.0
	chirpCooldownMax = 40000.0
)

// natureState is a wind bed with an occasional bird chirp on top. A chirp
// is a sine that glides upward while fading out linearly; after it ends the
// scheduler waits a random cooldown before the next one.
type natureState struct {
	wind brownState

	chirpPhase     float64
	chirpFreq      float64
	chirpRemaining int // samples left in the current chirp
	chirpCooldown  int // samples until the next chirp may start
}

func (n *natureState) generate(buf []float64, rng *rand.Rand, tune *tuning) {
	for i := range buf {
		s := n.wind.step(rng) * windOutput

		if n.chirpRemaining == 0 {
			if n.chirpCooldown > 0 {
				n.chirpCooldown--
			} else {
				n.chirpFreq = uniform(rng, chirpFreqMin, chirpFreqMax)
				n.chirpRemaining = atLeastOne(uniform(rng, tune.chirpMin, tune.chirpMax))
				n.chirpPhase = 0
			}
		}

		if n.chirpRemaining > 0 {
			env := float64(n.chirpRemaining) / tune.chirpSpan
			s += math.Sin(n.chirpPhase) * env * chirpLevel

			n.chirpPhase += tune.phasePerHz * n.chirpFreq
			if n.chirpPhase >= 2*math.Pi {
				n.chirpPhase -= 2 * math.Pi
			}
			n.chirpFreq *= tune.chirpGlide
			n.chirpRemaining--
			if n.chirpRemaining == 0 {
				n.chirpCooldown = atLeastOne(uniform(rng, tune.cooldownMin, tune.cooldownMax))
			}
		}

		buf[i] = s
	}
}

func atLeastOne(samples float64) int {
	if samples < 1 {
		return 1
	}
	return int(samples)
}
