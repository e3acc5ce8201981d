// Package components provides reusable TUI widgets for the farelog dashboard.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/farelog/internal/tui/theme"
)

// Stat is one labelled figure shown in a metric card.
type Stat struct {
	Label string
	Value string
	Note  string
}

// LayoutRow distributes totalWidth into n widths that sum to exactly totalWidth.
// First items absorb the remainder from integer division.
func LayoutRow(totalWidth, n int) []int {
	if n <= 0 {
		return nil
	}
	base := totalWidth / n
	remainder := totalWidth % n
	widths := make([]int, n)
	for i := range widths {
		widths[i] = base
		if i < remainder {
			widths[i]++
		}
	}
	return widths
}

// MetricCard renders a small card with a label, a value and an optional note.
// outerWidth is the total rendered width including border.
func MetricCard(s Stat, outerWidth int) string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Width(max(outerWidth-2, 10)).
		Padding(0, 1)

	content := lipgloss.NewStyle().Foreground(t.TextMuted).Render(s.Label) + "\n" +
		lipgloss.NewStyle().Foreground(t.TextPrimary).Bold(true).Render(s.Value)
	if s.Note != "" {
		content += "\n" + lipgloss.NewStyle().Foreground(t.TextDim).Render(s.Note)
	}

	return cardStyle.Render(content)
}

// MetricCardRow renders stats side by side; the cards sum to totalWidth.
func MetricCardRow(stats []Stat, totalWidth int) string {
	if len(stats) == 0 {
		return ""
	}

	widths := LayoutRow(totalWidth, len(stats))
	rendered := make([]string, len(stats))
	for i, s := range stats {
		rendered[i] = MetricCard(s, widths[i])
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// ContentCard renders a bordered content card with an optional title.
func ContentCard(title, body string, outerWidth int, focused bool) string {
	t := theme.Active

	border := t.Border
	if focused {
		border = t.BorderAccent
	}
	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(max(outerWidth-2, 10)).
		Padding(0, 1)

	content := ""
	if title != "" {
		content = lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Render(title) + "\n"
	}
	return cardStyle.Render(content + body)
}

// CardInnerWidth returns the usable text width inside a ContentCard
// given its outer width (subtracts border + padding).
func CardInnerWidth(outerWidth int) int {
	return max(outerWidth-4, 10)
}

// Bar is one labelled amount in a SpendBars chart.
type Bar struct {
	Label  string
	Value  float64
	Amount string // preformatted value shown after the bar
}

// SpendBars renders one horizontal bar per entry, scaled to the largest
// value, within width cells.
func SpendBars(bars []Bar, width int) string {
	if len(bars) == 0 {
		return ""
	}
	t := theme.Active

	labelW, amountW := 0, 0
	peak := 0.0
	for _, b := range bars {
		labelW = max(labelW, lipgloss.Width(b.Label))
		amountW = max(amountW, lipgloss.Width(b.Amount))
		peak = max(peak, b.Value)
	}
	if peak <= 0 {
		peak = 1
	}
	barW := max(width-labelW-amountW-2, 1)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	barStyle := lipgloss.NewStyle().Foreground(t.Green)
	amountStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)

	lines := make([]string, len(bars))
	for i, b := range bars {
		n := int(b.Value / peak * float64(barW))
		if n < 1 && b.Value > 0 {
			n = 1
		}
		lines[i] = fmt.Sprintf("%s %s%s %s",
			labelStyle.Render(padRight(b.Label, labelW)),
			barStyle.Render(strings.Repeat("█", n)),
			strings.Repeat(" ", barW-n),
			amountStyle.Render(b.Amount))
	}
	return strings.Join(lines, "\n")
}

func padRight(s string, w int) string {
	if gap := w - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
