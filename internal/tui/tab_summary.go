package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/farelog/internal/cli"
	"github.com/theirongolddev/farelog/internal/expense"
	"github.com/theirongolddev/farelog/internal/pipeline"
	"github.com/theirongolddev/farelog/internal/tui/components"
	"github.com/theirongolddev/farelog/internal/tui/theme"
)

func (a App) updateSummary(key string) App {
	switch key {
	case "j", "down":
		a.summaryScroll++
	case "k", "up":
		a.summaryScroll = max(a.summaryScroll-1, 0)
	case "g":
		a.summaryScroll = 0
	}
	return a
}

func (a App) renderSummaryTab(cw, h int) string {
	history := a.svc.History()
	if len(history) == 0 {
		muted := lipgloss.NewStyle().Foreground(theme.Active.TextMuted)
		return components.ContentCard("Summary", muted.Render(expense.MsgNoHistory), cw, false)
	}

	summaries := pipeline.AggregateEmployees(history)

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Stat{
		{Label: "Expenses", Value: cli.FormatNumber(int64(len(history)))},
		{Label: "Employees", Value: cli.FormatNumber(int64(len(summaries)))},
		{Label: "Grand Total", Value: cli.FormatFare(pipeline.Total(history), a.symbol)},
	}, cw))

	inner := components.CardInnerWidth(cw)
	for _, s := range summaries {
		bars := make([]components.Bar, len(s.Months))
		for i, mg := range s.Months {
			bars[i] = components.Bar{
				Label:  mg.Month,
				Value:  mg.Total.InexactFloat64(),
				Amount: cli.FormatFare(mg.Total, a.symbol),
			}
		}
		title := s.Employee + "  " + cli.FormatTrips(s.Trips) + "  " + cli.FormatFare(s.Total, a.symbol)
		b.WriteString("\n")
		b.WriteString(components.ContentCard(title, components.SpendBars(bars, inner), cw, false))
	}

	lines := strings.Split(b.String(), "\n")
	scroll := min(a.summaryScroll, max(len(lines)-h, 0))
	return strings.Join(lines[scroll:], "\n")
}
