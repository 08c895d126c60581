package clipboard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Danondso/ambience/internal/synth"
)

// DefaultShareVolume is used when a share string carries no volume.
const DefaultShareVolume = 0.5

// Share is a reproducible ambience setting: the same vibe, seed and volume
// render the same audio at the same sample rate.
type Share struct {
	Vibe   synth.Vibe
	Seed   uint64
	Volume float64
}

// String formats the share as "vibe=rain seed=123 volume=0.50".
func (s Share) String() string {
	return fmt.Sprintf("vibe=%s seed=%d volume=%.2f", s.Vibe, s.Seed, s.Volume)
}

// ParseShare reads a string produced by Share.String. Fields may appear in
// any order; vibe is required, seed defaults to 0 (random) and volume to
// DefaultShareVolume.
func ParseShare(text string) (Share, error) {
	sh := Share{Volume: DefaultShareVolume}
	haveVibe := false

	for _, field := range strings.Fields(text) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return Share{}, fmt.Errorf("share field %q: missing '='", field)
		}
		switch strings.ToLower(key) {
		case "vibe":
			v, err := synth.ParseVibe(value)
			if err != nil {
				return Share{}, fmt.Errorf("share: %w", err)
			}
			sh.Vibe = v
			haveVibe = true
		case "seed":
			n, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return Share{}, fmt.Errorf("share seed %q: %w", value, err)
			}
			sh.Seed = n
		case "volume":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return Share{}, fmt.Errorf("share volume %q: %w", value, err)
			}
			sh.Volume = synth.ClampVolume(f)
		default:
			return Share{}, fmt.Errorf("share: unknown field %q", key)
		}
	}

	if !haveVibe {
		return Share{}, errors.New("share: missing vibe")
	}
	return sh, nil
}
