package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/farelog/internal/tui/theme"
)

// StatusKind selects the color of the status message.
type StatusKind int

// Status kinds.
const (
	StatusInfo StatusKind = iota
	StatusOK
	StatusError
)

// RenderStatusBar renders the bottom status bar: key hints, the latest
// status message and the record count.
func RenderStatusBar(width int, msg string, kind StatusKind, records int) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Width(width)

	msgColor := t.TextMuted
	switch kind {
	case StatusOK:
		msgColor = t.Green
	case StatusError:
		msgColor = t.Red
	}

	left := " [?]help  [tab]switch  [ctrl+c]quit"
	if msg != "" {
		left += "  " + lipgloss.NewStyle().Foreground(msgColor).Render(msg)
	}
	right := fmt.Sprintf("%d records ", records)

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return style.Render(left + fmt.Sprintf("%*s", padding, "") + right)
}
