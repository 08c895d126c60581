package tui

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Danondso/ambience/internal/config"
	"github.com/Danondso/ambience/internal/synth"
)

type fakePlayer struct {
	playing bool
	vibe    synth.Vibe
	volume  float64
	level   float64
	seed    uint64
	starts  []synth.Vibe
	stops   int
	toggles int
}

func (p *fakePlayer) Start(v synth.Vibe) {
	p.playing = true
	p.vibe = v
	p.seed = 42
	p.starts = append(p.starts, v)
}

func (p *fakePlayer) Stop() {
	p.playing = false
	p.stops++
}

func (p *fakePlayer) Toggle(v synth.Vibe) bool {
	p.toggles++
	if p.playing {
		p.Stop()
		return false
	}
	p.Start(v)
	return true
}

func (p *fakePlayer) SetVolume(v float64) { p.volume = synth.ClampVolume(v) }
func (p *fakePlayer) Volume() float64     { return p.volume }
func (p *fakePlayer) IsPlaying() bool     { return p.playing }
func (p *fakePlayer) Level() float64      { return p.level }

func (p *fakePlayer) CurrentVibe() (synth.Vibe, bool) {
	return p.vibe, p.playing
}

func (p *fakePlayer) Seed() uint64 {
	if !p.playing {
		return 0
	}
	return p.seed
}

type fakeFocus struct {
	active   bool
	vibe     synth.Vibe
	duration time.Duration
	expire   bool
	cancels  int
	beginErr error
}

func (f *fakeFocus) Begin(v synth.Vibe, d time.Duration) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	f.active, f.vibe, f.duration = true, v, d
	return nil
}

func (f *fakeFocus) Cancel() {
	f.active = false
	f.cancels++
}

func (f *fakeFocus) Active() bool { return f.active }

func (f *fakeFocus) Remaining(time.Time) time.Duration {
	if !f.active {
		return 0
	}
	return 90 * time.Second
}

func (f *fakeFocus) Progress(time.Time) float64 {
	if !f.active {
		return 0
	}
	return 0.5
}

func (f *fakeFocus) Tick(time.Time) bool {
	if f.active && f.expire {
		f.active = false
		return true
	}
	return false
}

type fakeChimer struct{ starts, stops int }

func (c *fakeChimer) PlayStart() { c.starts++ }
func (c *fakeChimer) PlayStop()  { c.stops++ }

type fakeOutput struct{}

func (fakeOutput) OutputAvailable() bool { return true }
func (fakeOutput) DeviceName() string    { return "Test Speakers" }

func newTestModel() (Model, *fakePlayer, *fakeFocus) {
	cfg := config.Default()
	p := &fakePlayer{volume: 0.5}
	f := &fakeFocus{}
	m := NewModel(cfg, p, f, nil, fakeOutput{}, log.New(io.Discard, "", 0), false)
	return m, p, f
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		updated, _ := m.Update(key(k))
		m = updated.(Model)
	}
	return m
}

func TestInitialState(t *testing.T) {
	m, _, _ := newTestModel()
	if m.Playing {
		t.Error("expected stopped model")
	}
	if m.Selected() != synth.Rain {
		t.Errorf("cursor on %v, want configured vibe rain", m.Selected())
	}
	if m.ThemeName != "Synthwave" {
		t.Errorf("ThemeName = %q, want Synthwave", m.ThemeName)
	}
}

func TestCursorMovementIsBounded(t *testing.T) {
	m, _, _ := newTestModel()
	m = press(t, m, "up", "up", "up", "up", "up")
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d after moving past top, want 0", m.Cursor)
	}
	m = press(t, m, "j", "j", "j", "j", "j", "j", "j", "j")
	if m.Cursor != len(m.Vibes)-1 {
		t.Errorf("Cursor = %d after moving past bottom, want %d", m.Cursor, len(m.Vibes)-1)
	}
}

func TestEnterStartsThenStopsSelected(t *testing.T) {
	m, p, _ := newTestModel()
	m = press(t, m, "down", "enter")
	if !p.playing || p.vibe != synth.Nature {
		t.Fatalf("after enter: playing=%v vibe=%v, want Nature playing", p.playing, p.vibe)
	}
	if !m.Playing || m.Current != synth.Nature || m.Seed != 42 {
		t.Errorf("model not refreshed: %+v", m)
	}

	m = press(t, m, "up", "enter")
	if p.vibe != synth.Rain || !p.playing {
		t.Errorf("enter on another vibe should switch, got %v playing=%v", p.vibe, p.playing)
	}

	m = press(t, m, "enter")
	if p.playing {
		t.Error("enter on the playing vibe should stop it")
	}
	if m.Playing {
		t.Error("model still reports playing")
	}
}

func TestStopKeyCancelsFocus(t *testing.T) {
	m, p, f := newTestModel()
	m = press(t, m, "f")
	if !f.active {
		t.Fatal("f did not start a focus session")
	}
	press(t, m, "s")
	if f.active || f.cancels != 1 {
		t.Errorf("focus active=%v cancels=%d after s", f.active, f.cancels)
	}
	if p.stops != 1 {
		t.Errorf("player stops = %d, want 1", p.stops)
	}
}

func TestVolumeKeys(t *testing.T) {
	m, p, _ := newTestModel()
	m = press(t, m, "+", "+")
	if diff := p.volume - 0.6; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("volume = %f after two steps up, want 0.6", p.volume)
	}
	if m.Volume != p.volume {
		t.Errorf("model volume %f not refreshed to %f", m.Volume, p.volume)
	}
	for i := 0; i < 30; i++ {
		m = press(t, m, "-")
	}
	if p.volume != 0 {
		t.Errorf("volume = %f after many steps down, want 0", p.volume)
	}
}

func TestFocusKeyUsesConfiguredDuration(t *testing.T) {
	m, _, f := newTestModel()
	m.Config.Focus.DurationMin = 10
	m = press(t, m, "down", "f")
	if f.vibe != synth.Nature || f.duration != 10*time.Minute {
		t.Errorf("Begin(%v, %v), want Nature for 10m", f.vibe, f.duration)
	}
	if !m.FocusActive {
		t.Error("model should show an active focus session")
	}

	m = press(t, m, "f")
	if f.active {
		t.Error("second f should cancel the session")
	}
	if m.Notice == "" {
		t.Error("cancel should flash a notice")
	}
}

func TestFocusBeginError(t *testing.T) {
	m, _, f := newTestModel()
	f.beginErr = errors.New("duration must be positive")
	m = press(t, m, "f")
	if m.LastError != "duration must be positive" {
		t.Errorf("LastError = %q", m.LastError)
	}
}

func TestTickCompletesFocus(t *testing.T) {
	m, _, f := newTestModel()
	f.active = true
	f.expire = true
	updated, cmd := m.Update(tickMsg(time.Now()))
	model := updated.(Model)
	if model.FocusActive {
		t.Error("focus should be inactive after expiry tick")
	}
	if model.Notice != "Focus session complete" {
		t.Errorf("Notice = %q", model.Notice)
	}
	if cmd == nil {
		t.Error("expected the next tick to be scheduled")
	}
}

func TestTickRefreshesLevel(t *testing.T) {
	m, p, _ := newTestModel()
	p.level = 0.42
	updated, _ := m.Update(tickMsg(time.Now()))
	if got := updated.(Model).Level; got != 0.42 {
		t.Errorf("Level = %f, want 0.42", got)
	}
}

func TestHotkeyToggle(t *testing.T) {
	m, p, _ := newTestModel()
	c := &fakeChimer{}
	m.Chime = c

	updated, _ := m.Update(HotkeyToggleMsg{})
	m = updated.(Model)
	if !p.playing || p.vibe != synth.Rain {
		t.Fatalf("first press: playing=%v vibe=%v", p.playing, p.vibe)
	}
	updated, _ = m.Update(HotkeyToggleMsg{})
	m = updated.(Model)
	if p.playing || m.Playing {
		t.Error("second press should stop playback")
	}
	if c.starts != 1 || c.stops != 1 {
		t.Errorf("chimes start=%d stop=%d, want 1/1", c.starts, c.stops)
	}
	if p.toggles != 2 {
		t.Errorf("toggles = %d, want 2", p.toggles)
	}
}

func TestHotkeyStopCancelsFocus(t *testing.T) {
	m, p, f := newTestModel()
	m = press(t, m, "enter", "f")
	if !f.active || !p.playing {
		t.Fatalf("focus=%v playing=%v after enter+f", f.active, p.playing)
	}

	updated, _ := m.Update(HotkeyToggleMsg{})
	m = updated.(Model)
	if p.playing || f.active || f.cancels != 1 {
		t.Errorf("playing=%v focus=%v cancels=%d after hotkey stop", p.playing, f.active, f.cancels)
	}
	if m.FocusActive {
		t.Error("model still shows focus after hotkey stop")
	}
}

func TestShareUsesSessionSeed(t *testing.T) {
	m, _, _ := newTestModel()
	if got := m.Share().String(); got != "vibe=rain seed=0 volume=0.50" {
		t.Errorf("idle share = %q", got)
	}
	m = press(t, m, "enter")
	if got := m.Share().String(); got != "vibe=rain seed=42 volume=0.50" {
		t.Errorf("playing share = %q", got)
	}
}

func TestShareCommandCopies(t *testing.T) {
	m, _, _ := newTestModel()
	var copied string
	m.Copy = func(text string) error {
		copied = text
		return nil
	}
	_, cmd := m.Update(key("y"))
	if cmd == nil {
		t.Fatal("expected share command")
	}
	msg := cmd()
	if copied != "vibe=rain seed=0 volume=0.50" {
		t.Errorf("copied %q", copied)
	}
	if n, ok := msg.(NoticeMsg); !ok || !strings.Contains(n.Text, copied) {
		t.Errorf("share returned %#v, want NoticeMsg", msg)
	}

	m.Copy = func(string) error { return errors.New("no clipboard tool") }
	_, cmd = m.Update(key("y"))
	if _, ok := cmd().(ErrorMsg); !ok {
		t.Error("copy failure should produce ErrorMsg")
	}
}

func TestThemeCycleSavesConfig(t *testing.T) {
	m, _, _ := newTestModel()
	m.ConfigPath = t.TempDir() + "/config.toml"

	updated, cmd := m.Update(key("t"))
	m = updated.(Model)
	if m.Config.Theme != "everforest" || m.ThemeName != "Everforest" {
		t.Errorf("theme = %q (%q), want everforest", m.Config.Theme, m.ThemeName)
	}
	if cmd == nil {
		t.Fatal("expected save command")
	}
	if msg := cmd(); msg != nil {
		t.Fatalf("save returned %#v", msg)
	}
	saved, err := config.Load(m.ConfigPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved.Theme != "everforest" {
		t.Errorf("saved theme = %q", saved.Theme)
	}
	applyTheme(LoadTheme("synthwave"))
}

func TestFlashTimeoutOnlyClearsLatest(t *testing.T) {
	m, _, _ := newTestModel()
	updated, _ := m.Update(ErrorMsg{Err: errors.New("first")})
	m = updated.(Model)
	stale := flashTimeoutMsg{seq: m.flashSeq}
	updated, _ = m.Update(NoticeMsg{Text: "second"})
	m = updated.(Model)

	updated, _ = m.Update(stale)
	m = updated.(Model)
	if m.Notice != "second" {
		t.Errorf("stale timeout cleared the newer notice")
	}
	updated, _ = m.Update(flashTimeoutMsg{seq: m.flashSeq})
	m = updated.(Model)
	if m.Notice != "" || m.LastError != "" {
		t.Errorf("latest timeout left %q / %q", m.Notice, m.LastError)
	}
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestModel()
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestViewContents(t *testing.T) {
	m, _, _ := newTestModel()
	view := m.View()
	for _, want := range []string{"AMBIENCE", "Stopped", "Rain", "Brown Noise", "Lo-Fi", "Backend:", "portaudio", "q quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(view, "Debug") {
		t.Error("debug panel shown with no entries")
	}
}

func TestViewPlayingAndFocus(t *testing.T) {
	m, _, _ := newTestModel()
	m = press(t, m, "f")
	m = press(t, m, "enter")
	m.Playing = true
	view := m.View()
	if !strings.Contains(view, "Playing Rain") {
		t.Error("view missing playing badge")
	}
	if !strings.Contains(view, "1:30 left") {
		t.Error("view missing focus countdown")
	}
}

func TestStatusCheckMsgUpdatesModel(t *testing.T) {
	m, _, _ := newTestModel()
	updated, cmd := m.Update(StatusCheckMsg{OutputDetected: true, DeviceName: "Speakers"})
	model := updated.(Model)
	if !model.OutputDetected || model.OutputName != "Speakers" || !model.statusChecked {
		t.Errorf("status not applied: %+v", model)
	}
	if cmd == nil {
		t.Error("expected recheck schedule command")
	}
	if !strings.Contains(model.View(), "Speakers") {
		t.Error("view missing device name")
	}
}

func TestStatusCheckCmdQueriesOutput(t *testing.T) {
	m, _, _ := newTestModel()
	msg := m.statusCheckCmd()().(StatusCheckMsg)
	if !msg.OutputDetected || msg.DeviceName != "Test Speakers" {
		t.Errorf("statusCheckCmd = %+v", msg)
	}
}

func TestDebugLogTruncatesToMax(t *testing.T) {
	m, _, _ := newTestModel()
	for i := 0; i < maxDebugLines+10; i++ {
		entry := DebugEntry{Time: "11:00:00", Category: "debug", Message: fmt.Sprintf("line %d", i)}
		updated, _ := m.Update(DebugLogMsg{Entry: entry})
		m = updated.(Model)
	}
	if len(m.DebugEntries) != maxDebugLines {
		t.Errorf("expected %d debug entries, got %d", maxDebugLines, len(m.DebugEntries))
	}
	if m.DebugEntries[0].Message != "line 10" {
		t.Errorf("expected oldest message to be 'line 10', got %q", m.DebugEntries[0].Message)
	}
	view := m.View()
	if !strings.Contains(view, "Debug") || !strings.Contains(view, "line 59") {
		t.Error("debug panel missing latest entry")
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line     string
		time     string
		category string
		message  string
	}{
		{"[DEBUG] 11:27:53.777842 engine: started rain", "11:27:53.777842", "engine", "started rain"},
		{"[DEBUG] 11:27:53.777842 sink: portaudio stream closed", "11:27:53.777842", "sink", "portaudio stream closed"},
		{"[DEBUG] 09:00:00 hotkey: KEY_F9 (code=67)", "09:00:00", "hotkey", "KEY_F9 (code=67)"},
		{"[DEBUG] 09:00:00 keyboard device: /dev/input/event3", "09:00:00", "hotkey", "keyboard device: /dev/input/event3"},
		{"[DEBUG] 09:00:00 server: listening", "09:00:00", "server", "listening"},
		{"something odd", "", "debug", "something odd"},
	}
	for _, tt := range tests {
		e := parseLine(tt.line)
		if e.Time != tt.time || e.Category != tt.category || e.Message != tt.message {
			t.Errorf("parseLine(%q) = %+v, want {%s %s %s}", tt.line, e, tt.time, tt.category, tt.message)
		}
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{25 * time.Minute, "25:00"},
		{90 * time.Second, "1:30"},
		{500 * time.Millisecond, "0:01"},
		{0, "0:00"},
		{-time.Second, "0:00"},
	}
	for _, tt := range tests {
		if got := formatRemaining(tt.d); got != tt.want {
			t.Errorf("formatRemaining(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestNextThemeCycles(t *testing.T) {
	names := ThemeNames()
	seen := map[string]bool{}
	cur := names[0]
	for range names {
		next := themeKey(NextTheme(cur))
		if seen[next] {
			t.Fatalf("theme %q repeated before cycle completed", next)
		}
		seen[next] = true
		cur = next
	}
	if cur != names[0] {
		t.Errorf("cycle ended at %q, want %q", cur, names[0])
	}
	if LoadTheme("no-such-theme").Name != "Synthwave" {
		t.Error("unknown theme should fall back to synthwave")
	}
}
