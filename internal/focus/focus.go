package focus

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/Danondso/ambience/internal/synth"
)

// Ambience is the part of the engine a focus session drives.
type Ambience interface {
	Start(vibe synth.Vibe)
	Stop()
}

// Chimer plays the session start and end cues.
type Chimer interface {
	PlayStart()
	PlayStop()
}

// Timer runs one focus session at a time: it starts ambience when the
// session begins and, when the session runs out, plays the end chime and
// optionally stops the ambience. It is driven by Tick rather than its own
// goroutine so the caller's clock (the TUI tick) decides when it expires.
type Timer struct {
	mu           sync.Mutex
	ambience     Ambience
	chimes       Chimer
	stopOnFinish bool
	logger       *log.Logger
	now          func() time.Time

	active    bool
	vibe      synth.Vibe
	duration  time.Duration
	ends      time.Time
	completed int
}

// New creates an idle Timer. chimes may be nil.
func New(ambience Ambience, chimes Chimer, stopOnFinish bool, logger *log.Logger) *Timer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Timer{
		ambience:     ambience,
		chimes:       chimes,
		stopOnFinish: stopOnFinish,
		logger:       logger,
		now:          time.Now,
	}
}

// Begin starts a session of length d playing vibe, replacing any session
// in progress.
func (t *Timer) Begin(vibe synth.Vibe, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("invalid focus duration %v", d)
	}
	if !vibe.Valid() {
		return fmt.Errorf("begin focus: %w", synth.ErrUnknownVibe)
	}

	t.mu.Lock()
	t.active = true
	t.vibe = vibe
	t.duration = d
	t.ends = t.now().Add(d)
	t.mu.Unlock()

	if t.chimes != nil {
		t.chimes.PlayStart()
	}
	t.ambience.Start(vibe)
	t.logger.Printf("focus: session started vibe=%s duration=%s", vibe, d)
	return nil
}

// Cancel abandons the current session without a chime. Ambience keeps
// playing.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return
	}
	t.active = false
	t.logger.Printf("focus: session cancelled remaining=%s", t.ends.Sub(t.now()).Round(time.Second))
}

// Tick ends the session if it has run out by now. It reports whether the
// session finished on this call.
func (t *Timer) Tick(now time.Time) bool {
	t.mu.Lock()
	if !t.active || now.Before(t.ends) {
		t.mu.Unlock()
		return false
	}
	t.active = false
	t.completed++
	vibe := t.vibe
	t.mu.Unlock()

	if t.chimes != nil {
		t.chimes.PlayStop()
	}
	if t.stopOnFinish {
		t.ambience.Stop()
	}
	t.logger.Printf("focus: session finished vibe=%s", vibe)
	return true
}

// Active reports whether a session is running.
func (t *Timer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Remaining returns the time left in the session at now, or 0 when idle.
func (t *Timer) Remaining(now time.Time) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return 0
	}
	return max(t.ends.Sub(now), 0)
}

// Progress returns the elapsed fraction of the session in [0,1], or 0 when
// idle.
func (t *Timer) Progress(now time.Time) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return 0
	}
	left := t.ends.Sub(now)
	return min(max(1-float64(left)/float64(t.duration), 0), 1)
}

// Completed returns how many sessions have run to the end.
func (t *Timer) Completed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}
