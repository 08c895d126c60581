package tui

import (
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Danondso/ambience/internal/clipboard"
	"github.com/Danondso/ambience/internal/config"
	"github.com/Danondso/ambience/internal/synth"
)

// Player is the engine surface the TUI drives.
type Player interface {
	Start(vibe synth.Vibe)
	Stop()
	Toggle(vibe synth.Vibe) bool
	SetVolume(v float64)
	Volume() float64
	IsPlaying() bool
	CurrentVibe() (synth.Vibe, bool)
	Seed() uint64
	Level() float64
}

// FocusTimer is the focus session surface the TUI drives.
type FocusTimer interface {
	Begin(vibe synth.Vibe, d time.Duration) error
	Cancel()
	Active() bool
	Remaining(now time.Time) time.Duration
	Progress(now time.Time) float64
	Tick(now time.Time) bool
}

// Chimer plays the cues for hotkey toggles.
type Chimer interface {
	PlayStart()
	PlayStop()
}

// OutputChecker can report whether an output device is available.
type OutputChecker interface {
	OutputAvailable() bool
	DeviceName() string
}

// Messages sent through the Bubble Tea update loop.

// HotkeyToggleMsg is sent by the global hotkey listener on each press.
type HotkeyToggleMsg struct{}

// ErrorMsg shows an error in the status line for a few seconds.
type ErrorMsg struct {
	Err error
}

// NoticeMsg shows an informational line for a few seconds.
type NoticeMsg struct {
	Text string
}

type flashTimeoutMsg struct {
	seq int
}

type tickMsg time.Time

// StatusCheckMsg carries the result of an output device check.
type StatusCheckMsg struct {
	OutputDetected bool
	DeviceName     string
}

type statusCheckTickMsg struct{}

// DebugEntry is a structured debug log entry.
type DebugEntry struct {
	Time     string // e.g. "11:27:53"
	Category string // e.g. "engine", "sink", "hotkey"
	Message  string
}

// DebugLogMsg carries a structured debug log entry into the TUI.
type DebugLogMsg struct {
	Entry DebugEntry
}

const (
	maxDebugLines  = 50
	volumeStep     = 0.05
	tickInterval   = 100 * time.Millisecond
	flashDuration  = 4 * time.Second
	statusInterval = 30 * time.Second
)

// Model is the Bubble Tea model for the ambience TUI.
type Model struct {
	Config     *config.Config
	ConfigPath string // theme changes are saved here when set
	Player     Player
	Focus      FocusTimer
	Chime      Chimer
	Output     OutputChecker
	Logger     *log.Logger
	DebugMode  bool
	HotkeyName string
	Copy       func(text string) error
	Now        func() time.Time

	Vibes        []synth.Vibe
	Cursor       int
	Playing      bool
	Current      synth.Vibe
	Seed         uint64
	Volume       float64
	Level        float64
	FocusActive  bool
	FocusLeft    time.Duration
	FocusDone    float64
	ThemeName    string
	LastError    string
	Notice       string
	DebugEntries []DebugEntry

	OutputDetected bool
	OutputName     string
	statusChecked  bool
	flashSeq       int
}

// NewModel creates a TUI model. focus, chimes and out may be nil.
func NewModel(cfg *config.Config, p Player, focus FocusTimer, chimes Chimer, out OutputChecker, logger *log.Logger, debug bool) Model {
	m := Model{
		Config:     cfg,
		Player:     p,
		Focus:      focus,
		Chime:      chimes,
		Output:     out,
		Logger:     logger,
		DebugMode:  debug,
		HotkeyName: cfg.Hotkey.Key,
		Copy:       clipboard.Copy,
		Now:        time.Now,
		Vibes:      synth.Vibes(),
		ThemeName:  LoadTheme(cfg.Theme).Name,
	}
	if v, err := synth.ParseVibe(cfg.Audio.Vibe); err == nil {
		m.Cursor = int(v)
	}
	applyTheme(LoadTheme(cfg.Theme))
	return m.refresh()
}

// Selected returns the vibe under the cursor.
func (m Model) Selected() synth.Vibe {
	return m.Vibes[m.Cursor]
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.statusCheckCmd(), tickCmd())
}

// Update handles messages and transitions state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case HotkeyToggleMsg:
		if m.Player.IsPlaying() && m.Focus != nil && m.Focus.Active() {
			m.Focus.Cancel()
		}
		if m.Player.Toggle(m.Selected()) {
			m.Logger.Printf("hotkey: start %s", m.Selected())
			if m.Chime != nil {
				m.Chime.PlayStart()
			}
		} else {
			m.Logger.Printf("hotkey: stop")
			if m.Chime != nil {
				m.Chime.PlayStop()
			}
		}
		return m.refresh(), nil

	case tickMsg:
		var cmd tea.Cmd
		if m.Focus != nil && m.Focus.Tick(time.Time(msg)) {
			m, cmd = m.flash("", "Focus session complete")
		}
		return m.refresh(), tea.Batch(cmd, tickCmd())

	case StatusCheckMsg:
		m.OutputDetected = msg.OutputDetected
		m.OutputName = msg.DeviceName
		m.statusChecked = true
		return m, scheduleStatusRecheck()

	case statusCheckTickMsg:
		return m, m.statusCheckCmd()

	case ErrorMsg:
		m.Logger.Printf("tui: error: %v", msg.Err)
		return m.flash(msg.Err.Error(), "")

	case NoticeMsg:
		return m.flash("", msg.Text)

	case flashTimeoutMsg:
		if msg.seq == m.flashSeq {
			m.LastError = ""
			m.Notice = ""
		}

	case DebugLogMsg:
		m.DebugEntries = append(m.DebugEntries, msg.Entry)
		if len(m.DebugEntries) > maxDebugLines {
			m.DebugEntries = m.DebugEntries[len(m.DebugEntries)-maxDebugLines:]
		}
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}

	case "down", "j":
		if m.Cursor < len(m.Vibes)-1 {
			m.Cursor++
		}

	case "enter", " ":
		if cur, ok := m.Player.CurrentVibe(); ok && cur == m.Selected() {
			m.stopAll()
		} else {
			m.Player.Start(m.Selected())
		}

	case "s":
		m.stopAll()

	case "+", "=":
		m.Player.SetVolume(m.Player.Volume() + volumeStep)

	case "-", "_":
		m.Player.SetVolume(m.Player.Volume() - volumeStep)

	case "f":
		if m.Focus == nil {
			return m, nil
		}
		if m.Focus.Active() {
			m.Focus.Cancel()
			return m.refresh().flash("", "Focus session cancelled")
		}
		d := time.Duration(m.Config.Focus.DurationMin) * time.Minute
		if err := m.Focus.Begin(m.Selected(), d); err != nil {
			return m.flash(err.Error(), "")
		}

	case "t":
		next := NextTheme(m.Config.Theme)
		applyTheme(next)
		m.Config.Theme = themeKey(next)
		m.ThemeName = next.Name
		return m, m.saveConfigCmd()

	case "y":
		return m, m.shareCmd()
	}

	return m.refresh(), nil
}

// stopAll stops playback and abandons any focus session.
func (m Model) stopAll() {
	if m.Focus != nil && m.Focus.Active() {
		m.Focus.Cancel()
	}
	m.Player.Stop()
}

// refresh copies the engine and focus state into the model for View.
func (m Model) refresh() Model {
	m.Playing = m.Player.IsPlaying()
	m.Current, _ = m.Player.CurrentVibe()
	m.Seed = m.Player.Seed()
	m.Volume = m.Player.Volume()
	m.Level = m.Player.Level()
	if m.Focus != nil {
		now := m.Now()
		m.FocusActive = m.Focus.Active()
		m.FocusLeft = m.Focus.Remaining(now)
		m.FocusDone = m.Focus.Progress(now)
	}
	return m
}

// flash sets the error or notice line and schedules its removal. A newer
// flash supersedes the pending timeout of an older one.
func (m Model) flash(errText, notice string) (Model, tea.Cmd) {
	m.flashSeq++
	m.LastError = errText
	m.Notice = notice
	seq := m.flashSeq
	return m, tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashTimeoutMsg{seq: seq}
	})
}

// Share returns the reproducible setting for the current session, or for
// the selected vibe with a random seed when nothing is playing.
func (m Model) Share() clipboard.Share {
	if m.Playing {
		return clipboard.Share{Vibe: m.Current, Seed: m.Seed, Volume: m.Volume}
	}
	return clipboard.Share{Vibe: m.Selected(), Seed: 0, Volume: m.Volume}
}

func (m Model) shareCmd() tea.Cmd {
	text := m.Share().String()
	copyFn := m.Copy
	logger := m.Logger
	return func() tea.Msg {
		if err := copyFn(text); err != nil {
			return ErrorMsg{Err: fmt.Errorf("copy share: %w", err)}
		}
		logger.Printf("clipboard: copied %q", text)
		return NoticeMsg{Text: "Copied: " + text}
	}
}

func (m Model) saveConfigCmd() tea.Cmd {
	if m.ConfigPath == "" {
		return nil
	}
	path := m.ConfigPath
	cfg := *m.Config
	return func() tea.Msg {
		if err := config.Save(path, &cfg); err != nil {
			return ErrorMsg{Err: fmt.Errorf("save theme: %w", err)}
		}
		return nil
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) statusCheckCmd() tea.Cmd {
	out := m.Output
	return func() tea.Msg {
		if out == nil {
			return StatusCheckMsg{}
		}
		return StatusCheckMsg{OutputDetected: out.OutputAvailable(), DeviceName: out.DeviceName()}
	}
}

func scheduleStatusRecheck() tea.Cmd {
	return tea.Tick(statusInterval, func(time.Time) tea.Msg {
		return statusCheckTickMsg{}
	})
}
