package synth

import (
	"math"
	"math/rand/v2"
)

// MaxPianoVoices caps the voice pool. With the spawn and decay constants the
// live population stays in single digits; the cap only matters if those are
// changed.
const MaxPianoVoices = 64

const (
	pianoAmpMin      = 0.15
	pianoAmpMax      = 0.3
	pianoDecay       = 0.99995
	pianoSilence     = 0.001
	pianoCooldownMin = 0.5 // seconds
	pianoCooldownMax = 2.5
	pianoSecond      = 0.3
	pianoThird       = 0.1
)

type pianoVoice struct {
	phase     float64
	freq      float64
	amplitude float64
	decay     float64
}

// pianoState is a polyphonic pool of decaying three-harmonic voices. Notes
// are spawned after a random cooldown and dropped once inaudible.
type pianoState struct {
	voices   [MaxPianoVoices]pianoVoice
	count    int
	cooldown int
}

func (p *pianoState) reset() {
	p.count = 0
	p.cooldown = 0
}

func (p *pianoState) spawn(rng *rand.Rand, tune *tuning) {
	v := pianoVoice{
		freq:      pentatonic[rng.IntN(len(pentatonic))],
		amplitude: uniform(rng, pianoAmpMin, pianoAmpMax),
		decay:     tune.pianoDecay,
	}
	if p.count < len(p.voices) {
		p.voices[p.count] = v
		p.count++
		return
	}
	// pool full: steal the quietest voice
	q := 0
	for i := 1; i < p.count; i++ {
		if p.voices[i].amplitude < p.voices[q].amplitude {
			q = i
		}
	}
	p.voices[q] = v
}

func (p *pianoState) generate(buf []float64, rng *rand.Rand, tune *tuning) {
	for i := range buf {
		if p.cooldown <= 0 {
			p.spawn(rng, tune)
			p.cooldown = atLeastOne(tune.seconds(uniform(rng, pianoCooldownMin, pianoCooldownMax)))
		} else {
			p.cooldown--
		}

		s := 0.0
		live := 0
		for j := 0; j < p.count; j++ {
			v := p.voices[j]
			s += v.amplitude * (math.Sin(v.phase) + math.Sin(2*v.phase)*pianoSecond + math.Sin(3*v.phase)*pianoThird)

			v.phase += tune.phasePerHz * v.freq
			if v.phase >= 2*math.Pi {
				v.phase -= 2 * math.Pi
			}
			v.amplitude *= v.decay
			if v.amplitude >= pianoSilence {
				p.voices[live] = v
				live++
			}
		}
		p.count = live

		buf[i] = s
	}
}
