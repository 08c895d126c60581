package synth

import (
	"math"
	"math/rand/v2"
)

// pentatonic is C major pentatonic over two octaves, C4 to A5.
var pentatonic = [...]float64{
	261.63, 293.66, 329.63, 392.00, 440.00,
	523.25, 587.33, 659.25, 783.99, 880.00,
}

const (
	lofiNoise       = 0.04
	lofiFundamental = 0.25
	lofiHarmonic    = 0.05
	lofiDetune      = 2.003
	lofiNoteMin     = 0.8 // seconds
	lofiNoteMax     = 2.0
)

// lofiState is a single monophonic voice over a faint noise bed. Each note
// fades with a quadratic envelope and is followed immediately by the next.
type lofiState struct {
	phase         float64
	noteFreq      float64
	noteDuration  int
	noteRemaining int
	envelope      float64
}

func (l *lofiState) generate(buf []float64, rng *rand.Rand, tune *tuning) {
	for i := range buf {
		if l.noteRemaining <= 0 {
			l.noteFreq = pentatonic[rng.IntN(len(pentatonic))] / 2
			l.noteDuration = atLeastOne(tune.seconds(uniform(rng, lofiNoteMin, lofiNoteMax)))
			l.noteRemaining = l.noteDuration
			l.phase = 0
			l.envelope = 1
		}

		t := float64(l.noteDuration-l.noteRemaining) / float64(l.noteDuration)
		l.envelope = math.Max(0, 1-t*t)

		s := bipolar(rng) * lofiNoise
		s += math.Sin(l.phase) * l.envelope * lofiFundamental
		s += math.Sin(l.phase*lofiDetune) * l.envelope * lofiHarmonic

		l.phase += tune.phasePerHz * l.noteFreq
		l.noteRemaining--

		buf[i] = s
	}
}
