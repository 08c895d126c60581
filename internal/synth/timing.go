package synth

import "math"

// ReferenceRate is the sample rate the generator constants are tuned at.
// At any other rate, event probabilities, sample counts and per-sample decay
// factors are converted so the sound keeps the same time-domain behaviour.
const ReferenceRate = 44100.0

// timing converts reference-rate constants to the session's sample rate.
type timing struct {
	rate  float64
	ratio float64 // ReferenceRate / rate
}

func newTiming(sampleRate float64) timing {
	return timing{rate: sampleRate, ratio: ReferenceRate / sampleRate}
}

// chance converts a per-sample event probability.
func (t timing) chance(p float64) float64 {
	if t.ratio == 1 {
		return p
	}
	return 1 - math.Pow(1-p, t.ratio)
}

// factor converts a multiplicative per-sample decay or glide.
func (t timing) factor(f float64) float64 {
	if t.ratio == 1 {
		return f
	}
	return math.Pow(f, t.ratio)
}

// samples converts a count of reference-rate samples.
func (t timing) samples(n float64) float64 {
	return n / t.ratio
}

// seconds converts a duration to a sample count at the session rate.
func (t timing) seconds(s float64) float64 {
	return s * t.rate
}

// tuning holds the rate-converted constants, computed once per RenderState
// so the render path never calls math.Pow for fixed values.
type tuning struct {
	timing

	dropChance  float64
	chirpGlide  float64
	chirpSpan   float64 // envelope denominator
	chirpMin    float64
	chirpMax    float64
	cooldownMin float64
	cooldownMax float64
	pianoDecay  float64
	phasePerHz  float64 // 2π / sampleRate
}

func newTuning(t timing) tuning {
	return tuning{
		timing:      t,
		dropChance:  t.chance(rainDropChance),
		chirpGlide:  t.factor(chirpGlide),
		chirpSpan:   t.samples(chirpMaxSamples),
		chirpMin:    t.samples(chirpMinSamples),
		chirpMax:    t.samples(chirpMaxSamples),
		cooldownMin: t.samples(chirpCooldownMin),
		cooldownMax: t.samples(chirpCooldownMax),
		pianoDecay:  t.factor(pianoDecay),
		phasePerHz:  2 * math.Pi / t.rate,
	}
}
