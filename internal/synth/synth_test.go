package synth

import (
	"errors"
	"math"
	"testing"
)

var testRates = []float64{8000, 22050, 44100, 48000, 96000, 192000}

func TestParseVibe(t *testing.T) {
	tests := []struct {
		input   string
		want    Vibe
		wantErr bool
	}{
		{"white", WhiteNoise, false},
		{"White Noise", WhiteNoise, false},
		{"brown", BrownNoise, false},
		{"BROWN_NOISE", BrownNoise, false},
		{"rain", Rain, false},
		{"  Nature ", Nature, false},
		{"lofi", LoFi, false},
		{"Lo-Fi", LoFi, false},
		{"piano", Piano, false},
		{"thunder", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseVibe(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownVibe) {
					t.Errorf("ParseVibe(%q) error = %v, want ErrUnknownVibe", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVibe(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseVibe(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestVibeStringRoundTrip(t *testing.T) {
	for _, v := range Vibes() {
		got, err := ParseVibe(v.String())
		if err != nil || got != v {
			t.Errorf("ParseVibe(%q) = %v, %v", v.String(), got, err)
		}
		if v.DisplayName() == "" || v.Icon() == "" {
			t.Errorf("vibe %v missing display name or icon", v)
		}
	}
	if Vibe(42).Valid() {
		t.Error("Vibe(42) should not be valid")
	}
}

func TestGeneratorsStayInRange(t *testing.T) {
	for _, v := range Vibes() {
		for _, rate := range testRates {
			s := NewRenderState(v, rate, 7)
			buf := make([]float64, MaxFrames)
			total := int(rate * 3)
			for done := 0; done < total; done += len(buf) {
				s.Generate(buf)
				for i, x := range buf {
					if x < -1 || x > 1 || math.IsNaN(x) {
						t.Fatalf("%v @ %.0f Hz: sample %d = %f out of range", v, rate, done+i, x)
					}
				}
			}
		}
	}
}

func TestVolumeScalesLinearly(t *testing.T) {
	for _, v := range Vibes() {
		quiet := NewRenderState(v, 44100, 99)
		loud := NewRenderState(v, 44100, 99)
		quiet.SetVolume(0.2)
		loud.SetVolume(0.4)

		a := make([]float32, 10000)
		b := make([]float32, 10000)
		quiet.Render(a)
		loud.Render(b)

		for i := range a {
			if b[i] != 2*a[i] {
				t.Fatalf("%v: sample %d: loud %g != 2 * quiet %g", v, i, b[i], a[i])
			}
		}
	}
}

func TestSetVolumeClamps(t *testing.T) {
	s := NewRenderState(WhiteNoise, 44100, 1)
	s.SetVolume(1.7)
	if s.Volume() != 1 {
		t.Errorf("Volume() = %f, want 1", s.Volume())
	}
	s.SetVolume(-0.3)
	if s.Volume() != 0 {
		t.Errorf("Volume() = %f, want 0", s.Volume())
	}
	s.SetVolume(math.NaN())
	if s.Volume() != 0 {
		t.Errorf("Volume() = %f after NaN, want 0", s.Volume())
	}
}

func TestZeroVolumeIsSilent(t *testing.T) {
	s := NewRenderState(Rain, 44100, 3)
	s.SetVolume(0)
	out := make([]float32, 2048)
	s.Render(out)
	for i, x := range out {
		if x != 0 {
			t.Fatalf("sample %d = %g, want 0", i, x)
		}
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	for _, v := range Vibes() {
		s := NewRenderState(v, 48000, 11)
		if !s.Pristine() {
			t.Fatalf("%v: new state not pristine", v)
		}

		first := make([]float32, 5000)
		s.Render(first)
		switch v {
		case BrownNoise, Nature, LoFi, Piano:
			if s.Pristine() {
				t.Errorf("%v: state still pristine after rendering", v)
			}
		}

		s.Reset()
		if !s.Pristine() {
			t.Fatalf("%v: state not pristine after Reset", v)
		}

		again := make([]float32, 5000)
		s.Render(again)
		for i := range first {
			if first[i] != again[i] {
				t.Fatalf("%v: sample %d differs after Reset: %g vs %g", v, i, first[i], again[i])
			}
		}
	}
}

func TestRenderChunksLongRequests(t *testing.T) {
	whole := NewRenderState(Piano, 44100, 5)
	split := NewRenderState(Piano, 44100, 5)

	a := make([]float32, 3*MaxFrames+17)
	whole.Render(a)

	b := make([]float32, len(a))
	split.Render(b[:1000])
	split.Render(b[1000:])

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d: %g vs %g", i, a[i], b[i])
		}
	}
}

func TestRenderDoesNotAllocate(t *testing.T) {
	for _, v := range Vibes() {
		s := NewRenderState(v, 44100, 21)
		out := make([]float32, 512)
		allocs := testing.AllocsPerRun(200, func() {
			s.Render(out)
		})
		if allocs != 0 {
			t.Errorf("%v: Render allocated %.1f times per call", v, allocs)
		}
	}
}

func TestPianoVoiceCountBounded(t *testing.T) {
	for _, rate := range []float64{8000, 44100, 192000} {
		s := NewRenderState(Piano, rate, 13)
		buf := make([]float64, 64)
		most := 0
		total := int(rate * 40)
		for done := 0; done < total; done += len(buf) {
			s.Generate(buf)
			most = max(most, s.piano.count)
		}
		if most >= 50 {
			t.Errorf("%.0f Hz: %d simultaneous piano voices", rate, most)
		}
		if most == 0 {
			t.Errorf("%.0f Hz: no piano voice ever spawned", rate)
		}
	}
}

func TestPianoDropsSilentVoices(t *testing.T) {
	s := NewRenderState(Piano, 44100, 2)
	buf := make([]float64, 1)
	s.Generate(buf)
	if s.piano.count != 1 {
		t.Fatalf("voices after first sample = %d, want 1", s.piano.count)
	}
	v := s.piano.voices[0]
	if v.amplitude < pianoAmpMin*pianoDecay || v.amplitude > pianoAmpMax {
		t.Errorf("amplitude %f outside spawn range", v.amplitude)
	}

	// hold off the next spawn and let the voice die out
	s.piano.cooldown = math.MaxInt32
	long := make([]float64, MaxFrames)
	for range 60 {
		s.Generate(long)
	}
	if s.piano.count != 0 {
		t.Errorf("voices after decay = %d, want 0", s.piano.count)
	}
}

func TestBrownNoiseStaysCentered(t *testing.T) {
	if testing.Short() {
		t.Skip("long run")
	}
	s := NewRenderState(BrownNoise, 44100, 17)
	const total = 10_000_000
	sum := 0.0
	for n := 0; n < total; n++ {
		acc := s.brown.step(s.rng)
		if acc > 1 || acc < -1 {
			t.Fatalf("accumulator %f escaped [-1,1] at sample %d", acc, n)
		}
		sum += acc
	}
	mean := sum / total
	if math.Abs(mean) > 0.02 {
		t.Errorf("long-run accumulator mean = %f, want near 0", mean)
	}
}

func TestRainOneSecond(t *testing.T) {
	s := NewRenderState(Rain, 44100, 42)
	buf := make([]float64, 44100)
	s.Generate(buf)

	floor := rainFloor * rainOutput
	peak := 0.0
	for i, x := range buf {
		if x < -1 || x > 1 {
			t.Fatalf("sample %d = %f out of range", i, x)
		}
		peak = max(peak, math.Abs(x))
	}
	if peak <= floor {
		t.Errorf("peak %f never rose above the noise floor %f: no droplet fired", peak, floor)
	}
}

func TestNatureChirpLifecycle(t *testing.T) {
	s := NewRenderState(Nature, 44100, 8)
	one := make([]float64, 1)
	s.Generate(one)

	n := &s.nature
	if n.chirpRemaining < int(chirpMinSamples)-1 || n.chirpRemaining >= int(chirpMaxSamples) {
		t.Fatalf("chirpRemaining = %d, want within [%v, %v)", n.chirpRemaining, chirpMinSamples-1, chirpMaxSamples)
	}
	startFreq := n.chirpFreq / chirpGlide
	if startFreq < chirpFreqMin || startFreq > chirpFreqMax {
		t.Errorf("chirp started at %f Hz", startFreq)
	}

	rest := make([]float64, n.chirpRemaining)
	s.Generate(rest)
	if n.chirpRemaining != 0 {
		t.Fatalf("chirp still active with %d samples left", n.chirpRemaining)
	}
	if n.chirpFreq <= startFreq {
		t.Errorf("chirp frequency did not glide upward: %f -> %f", startFreq, n.chirpFreq)
	}
	if n.chirpCooldown < int(chirpCooldownMin) || n.chirpCooldown > int(chirpCooldownMax) {
		t.Errorf("cooldown = %d, want within [%v, %v]", n.chirpCooldown, chirpCooldownMin, chirpCooldownMax)
	}
}

func TestLoFiNoteEnvelope(t *testing.T) {
	s := NewRenderState(LoFi, 44100, 4)
	one := make([]float64, 1)
	s.Generate(one)

	l := &s.lofi
	found := false
	for _, f := range pentatonic {
		if l.noteFreq == f/2 {
			found = true
		}
	}
	if !found {
		t.Errorf("note frequency %f not in the halved pentatonic table", l.noteFreq)
	}
	if l.envelope != 1 {
		t.Errorf("envelope at note start = %f, want 1", l.envelope)
	}
	minDur, maxDur := int(lofiNoteMin*44100), int(lofiNoteMax*44100)
	if l.noteDuration < minDur || l.noteDuration > maxDur {
		t.Errorf("note duration %d samples outside [%d, %d]", l.noteDuration, minDur, maxDur)
	}

	prev := l.envelope
	for l.noteRemaining > 0 {
		s.Generate(one)
		if l.envelope > prev {
			t.Fatalf("envelope rose from %f to %f mid-note", prev, l.envelope)
		}
		prev = l.envelope
	}
}

func TestTimingConversion(t *testing.T) {
	ref := newTiming(ReferenceRate)
	if ref.chance(0.001) != 0.001 || ref.factor(0.998) != 0.998 || ref.samples(2000) != 2000 {
		t.Error("reference rate should leave constants unchanged")
	}

	double := newTiming(2 * ReferenceRate)
	if got := double.samples(2000); got != 4000 {
		t.Errorf("samples(2000) at 88.2 kHz = %f, want 4000", got)
	}
	if got := double.factor(0.81); math.Abs(got-0.9) > 1e-12 {
		t.Errorf("factor(0.81) at 88.2 kHz = %f, want 0.9", got)
	}
	// two half-rate chances compound to the reference chance
	p := double.chance(0.001)
	if got := 1 - (1-p)*(1-p); math.Abs(got-0.001) > 1e-12 {
		t.Errorf("compounded chance = %g, want 0.001", got)
	}
}

func TestLimit(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-10, -1},
		{-1.2, -1},
		{-1, -1},
		{-0.9, -0.9},
		{0, 0},
		{0.5, 0.5},
		{0.95, 0.95},
		{1, 1},
		{1.2, 1},
		{10, 1},
	}
	for _, tt := range tests {
		if got := limit(tt.in); got != tt.want {
			t.Errorf("limit(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
