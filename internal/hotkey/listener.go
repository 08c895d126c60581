package hotkey

import (
	"context"
	"sync"
	"time"
)

// Listener watches a single global key and reports presses. Releases and
// auto-repeat are ignored: one physical press toggles playback once.
type Listener interface {
	Start(ctx context.Context, onPress func()) error
	Stop()
	KeyName() string
}

// DefaultDebounce is the minimum gap between two reported presses.
const DefaultDebounce = 250 * time.Millisecond

// Debouncer drops presses that arrive within Window of the last accepted
// one. Some keyboards deliver a second key-down when a key chatters.
type Debouncer struct {
	Window time.Duration

	mu   sync.Mutex
	last time.Time
}

// Accept reports whether a press at now should be acted on.
func (d *Debouncer) Accept(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.last.IsZero() && now.Sub(d.last) < d.Window {
		return false
	}
	d.last = now
	return true
}

// Wrap returns onPress guarded by the debouncer.
func (d *Debouncer) Wrap(onPress func()) func() {
	return func() {
		if onPress != nil && d.Accept(time.Now()) {
			onPress()
		}
	}
}
