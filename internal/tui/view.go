package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// panelWidth is the total outer width of the main panel.
// borderStyle has: border (1+1) = 2, padding (2+2) = 4, total chrome = 6.
// Width() in lipgloss sets width including padding but excluding border.
const panelWidth = 80
const panelWidthForStyle = panelWidth - 2 // passed to borderStyle.Width()
const panelContentWidth = panelWidth - 6  // actual usable text area

// View renders the TUI.
func (m Model) View() string {
	var b strings.Builder

	titleText := "  AMBIENCE  "
	barTotal := panelContentWidth - len(titleText)
	barLeft := barTotal / 2
	barRight := barTotal - barLeft
	title := strings.Repeat("░", barLeft) + titleText + strings.Repeat("░", barRight)
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Status:  "))
	b.WriteString(m.renderBadge())
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Level:   "))
	b.WriteString(m.renderMeter(m.Level, meterStyle))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Volume:  "))
	b.WriteString(m.renderMeter(m.Volume, volumeStyle))
	b.WriteString(dimStyle.Render(fmt.Sprintf(" %3.0f%%", m.Volume*100)))
	b.WriteString("\n")
	if m.FocusActive {
		b.WriteString(labelStyle.Render("Focus:   "))
		b.WriteString(m.renderFocus())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("Vibes:"))
	b.WriteString("\n")
	b.WriteString(m.renderVibeList())
	b.WriteString("\n\n")

	switch {
	case m.LastError != "":
		b.WriteString(errorStyle.Render(truncate("Error: "+m.LastError, panelContentWidth)))
		b.WriteString("\n")
	case m.Notice != "":
		b.WriteString(noticeStyle.Render(truncate(m.Notice, panelContentWidth)))
		b.WriteString("\n")
	}

	keyName := strings.TrimPrefix(m.HotkeyName, "KEY_")
	if keyName != "" {
		b.WriteString(helpStyle.Render(fmt.Sprintf("Hotkey: %s (toggle)", keyName)))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("↑/↓ select  enter play/stop  s stop  +/- volume"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("f focus  t theme  y share  q quit"))

	if m.DebugMode || len(m.DebugEntries) > 0 {
		b.WriteString("\n\n")
		b.WriteString(m.renderDebugPanel())
	}

	return borderStyle.Width(panelWidthForStyle).Render(b.String())
}

func (m Model) renderVibeList() string {
	lines := make([]string, 0, len(m.Vibes))
	for i, v := range m.Vibes {
		cursor := "  "
		if i == m.Cursor {
			cursor = cursorStyle.Render("▸ ")
		}
		name := fmt.Sprintf("%s %s", v.Icon(), v.DisplayName())
		var line string
		switch {
		case m.Playing && v == m.Current:
			line = selectedStyle.Render(name + "  ♪")
		case i == m.Cursor:
			line = bodyStyle.Render(name)
		default:
			line = dimStyle.Render(name)
		}
		lines = append(lines, cursor+line)
	}
	return strings.Join(lines, "\n")
}

const debugPanelMaxLines = 5

// Debug table column widths. Row content must fit within panelContentWidth.
const (
	colTimeWidth     = 15
	colCategoryWidth = 10
	colSepWidth      = 3 // " │ "
	colMsgWidth      = panelContentWidth - colTimeWidth - colCategoryWidth - colSepWidth*2
)

func (m Model) renderDebugPanel() string {
	sep := debugSepStyle.Render(" │ ")
	rule := debugRuleStyle.Render(strings.Repeat("─", panelContentWidth))

	var db strings.Builder
	db.WriteString(debugTitleStyle.Render("Debug"))
	db.WriteString("\n")
	db.WriteString(rule)
	db.WriteString("\n")
	db.WriteString(
		debugHeaderStyle.Width(colTimeWidth).Render("TIME") +
			sep +
			debugHeaderStyle.Width(colCategoryWidth).Render("TYPE") +
			sep +
			debugHeaderStyle.Width(colMsgWidth).Render("MESSAGE"))
	db.WriteString("\n")
	db.WriteString(rule)

	entries := m.DebugEntries
	if len(entries) > debugPanelMaxLines {
		entries = entries[len(entries)-debugPanelMaxLines:]
	}
	for _, entry := range entries {
		db.WriteString("\n")
		db.WriteString(
			debugTimeStyle.Width(colTimeWidth).Render(clip(entry.Time, colTimeWidth)) +
				sep +
				debugCategoryStyle.Width(colCategoryWidth).Render(clip(entry.Category, colCategoryWidth)) +
				sep +
				debugMsgStyle.Width(colMsgWidth).Render(truncate(entry.Message, colMsgWidth)))
	}

	return db.String()
}

const meterWidth = 24

// renderMeter draws v in [0,1] as a bar. The square root spreads quiet
// levels across more cells.
func (m Model) renderMeter(v float64, style lipgloss.Style) string {
	scaled := math.Sqrt(math.Max(0, v))
	filled := min(int(math.Round(scaled*meterWidth)), meterWidth)
	return style.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", meterWidth-filled))
}

func (m Model) renderFocus() string {
	const width = 20
	filled := min(int(math.Round(m.FocusDone*width)), width)
	bar := strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
	return focusBadge.Render(formatRemaining(m.FocusLeft)+" left ") + dimStyle.Render(bar)
}

func (m Model) renderStatusBar() string {
	backend := dimStyle.Render(m.Config.Audio.Backend)
	if !m.statusChecked {
		return dimStyle.Render("Output: ...  Backend: ") + backend
	}
	var out string
	if m.OutputDetected {
		out = statusOkStyle.Render("✓")
		if m.OutputName != "" {
			out += dimStyle.Render(" (" + m.OutputName + ")")
		}
	} else {
		out = statusBadStyle.Render("✗")
	}
	return dimStyle.Render("Output: ") + out +
		dimStyle.Render("  Backend: ") + backend +
		dimStyle.Render("  Theme: "+m.ThemeName)
}

func (m Model) renderBadge() string {
	if !m.Playing {
		return stoppedBadge.Render("● Stopped")
	}
	return playingBadge.Render(fmt.Sprintf("● Playing %s", m.Current.DisplayName())) +
		dimStyle.Render(fmt.Sprintf("  seed %d", m.Seed))
}

// formatRemaining renders d as M:SS, rounding partial seconds up so the
// display reaches 0:00 only when the session ends.
func formatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}
