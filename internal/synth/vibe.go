package synth

import (
	"errors"
	"fmt"
	"strings"
)

// Vibe selects which generator algorithm produces the ambience.
type Vibe int

const (
	WhiteNoise Vibe = iota
	BrownNoise
	Rain
	Nature
	LoFi
	Piano
)

// ErrUnknownVibe is returned by ParseVibe for names that match no vibe.
var ErrUnknownVibe = errors.New("unknown vibe")

var vibeInfo = [...]struct {
	key     string
	display string
	icon    string
}{
	WhiteNoise: {"white", "White Noise", "≋"},
	BrownNoise: {"brown", "Brown Noise", "∿"},
	Rain:       {"rain", "Rain", "☂"},
	Nature:     {"nature", "Nature", "❦"},
	LoFi:       {"lofi", "Lo-Fi", "♫"},
	Piano:      {"piano", "Piano", "♩"},
}

// Vibes returns every vibe in display order.
func Vibes() []Vibe {
	return []Vibe{WhiteNoise, BrownNoise, Rain, Nature, LoFi, Piano}
}

// Valid reports whether v names one of the six generators.
func (v Vibe) Valid() bool {
	return v >= WhiteNoise && v <= Piano
}

// String returns the config key for the vibe (e.g. "rain").
func (v Vibe) String() string {
	if !v.Valid() {
		return fmt.Sprintf("vibe(%d)", int(v))
	}
	return vibeInfo[v].key
}

// DisplayName returns the human-readable name shown in the UI.
func (v Vibe) DisplayName() string {
	if !v.Valid() {
		return v.String()
	}
	return vibeInfo[v].display
}

// Icon returns a single glyph used next to the display name.
func (v Vibe) Icon() string {
	if !v.Valid() {
		return "?"
	}
	return vibeInfo[v].icon
}

var nameFolder = strings.NewReplacer(" ", "", "-", "", "_", "")

func foldName(s string) string {
	return nameFolder.Replace(strings.ToLower(strings.TrimSpace(s)))
}

// ParseVibe maps a config key or display name (case-insensitive) to a Vibe.
// "rain", "Rain", "white", "White Noise" and "lo-fi" are all accepted.
func ParseVibe(name string) (Vibe, error) {
	key := foldName(name)
	for _, v := range Vibes() {
		if key == vibeInfo[v].key || key == foldName(vibeInfo[v].display) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVibe, name)
}
