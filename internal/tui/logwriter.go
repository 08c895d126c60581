package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// LogWriter is an io.Writer that sends each written line as a DebugLogMsg
// to a Bubble Tea program. Use it as the output for a log.Logger.
type LogWriter struct {
	program *tea.Program
}

// NewLogWriter creates a LogWriter that sends debug lines to the given program.
func NewLogWriter(p *tea.Program) *LogWriter {
	return &LogWriter{program: p}
}

// Write implements io.Writer. The send runs in a goroutine so logging from
// inside a Bubble Tea command cannot deadlock the update loop.
func (w *LogWriter) Write(b []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(b), "\n"), "\n") {
		entry := parseLine(line)
		go w.program.Send(DebugLogMsg{Entry: entry})
	}
	return len(b), nil
}

// parseLine extracts time, category, and message from a log line.
// Expected format: "[DEBUG] HH:MM:SS.micros message text"
func parseLine(line string) DebugEntry {
	msg := strings.TrimPrefix(line, "[DEBUG] ")

	entry := DebugEntry{}
	if len(msg) >= 8 && msg[2] == ':' && msg[5] == ':' {
		if spaceIdx := strings.IndexByte(msg, ' '); spaceIdx > 0 {
			entry.Time = msg[:spaceIdx]
			msg = msg[spaceIdx+1:]
		}
	}

	entry.Category, entry.Message = inferCategory(msg)
	return entry
}

// categories maps a message prefix to its debug panel category. Components
// log as "<component>: ...".
var categories = []struct {
	prefix   string
	category string
}{
	{"engine", "engine"},
	{"sink", "sink"},
	{"portaudio", "sink"},
	{"chime", "chime"},
	{"focus", "focus"},
	{"hotkey", "hotkey"},
	{"keyboard", "hotkey"},
	{"server", "server"},
	{"clipboard", "share"},
	{"config", "config"},
	{"tui", "ui"},
}

// inferCategory determines the log category from the message prefix. The
// "<component>: " prefix is stripped from the message when present.
func inferCategory(msg string) (category, message string) {
	lower := strings.ToLower(msg)
	for _, c := range categories {
		if !strings.HasPrefix(lower, c.prefix) {
			continue
		}
		if rest, ok := strings.CutPrefix(msg[len(c.prefix):], ": "); ok {
			return c.category, rest
		}
		return c.category, msg
	}
	return "debug", msg
}
