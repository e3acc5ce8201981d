package tui

import (
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/farelog/internal/cli"
	"github.com/theirongolddev/farelog/internal/expense"
	"github.com/theirongolddev/farelog/internal/model"
	"github.com/theirongolddev/farelog/internal/pipeline"
	"github.com/theirongolddev/farelog/internal/tui/components"
	"github.com/theirongolddev/farelog/internal/tui/theme"
)

// historyOverhead is the tab bar, card border, title and filter line.
const historyOverhead = 7

func newHistoryTable() table.Model {
	t := table.New(
		table.WithColumns(historyColumns(100)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(historyStyles())
	return t
}

func historyStyles() table.Styles {
	th := theme.Active
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(th.Border).
		BorderBottom(true).
		Bold(true).
		Foreground(th.Accent)
	s.Selected = s.Selected.
		Foreground(th.TextPrimary).
		Background(th.SurfaceHover).
		Bold(false)
	return s
}

// historyColumns sizes the canonical columns to width. Fare and Date are
// fixed; the remaining space is split between the text columns.
func historyColumns(width int) []table.Column {
	const fareW, dateW, monthW = 10, 10, 9
	flex := max((width-fareW-dateW-monthW-2*len(model.Columns))/3, 8)

	widths := map[string]int{
		"Employee":    flex,
		"Source":      flex,
		"Destination": flex,
		"Fare":        fareW,
		"Date":        dateW,
		"Month":       monthW,
	}
	cols := make([]table.Column, len(model.Columns))
	for i, name := range model.Columns {
		cols[i] = table.Column{Title: name, Width: widths[name]}
	}
	return cols
}

// refreshHistory rebuilds the table rows from the session history.
func (a *App) refreshHistory() {
	history := pipeline.FilterByEmployee(a.svc.History(), a.employeeFilter)

	rows := make([]table.Row, len(history))
	for i, e := range history {
		rows[i] = table.Row{
			e.Employee,
			e.Source,
			e.Destination,
			cli.FormatFare(e.Fare, a.symbol),
			e.DateString(),
			e.Month,
		}
	}
	a.history.SetRows(rows)
	if c := a.history.Cursor(); c >= len(rows) || c < 0 {
		a.history.SetCursor(max(len(rows)-1, 0))
	}
}

func (a *App) resizeHistory() {
	w := components.CardInnerWidth(a.contentWidth())
	a.history.SetColumns(historyColumns(w))
	a.history.SetWidth(w)
	a.history.SetHeight(max(a.height-historyOverhead-1, minContentHeight))
}

// cycleEmployeeFilter steps through All and each employee in first-seen order.
func (a *App) cycleEmployeeFilter() {
	names := pipeline.Employees(a.svc.History())
	next := ""
	if a.employeeFilter == "" {
		if len(names) > 0 {
			next = names[0]
		}
	} else {
		for i, n := range names {
			if n == a.employeeFilter && i+1 < len(names) {
				next = names[i+1]
				break
			}
		}
	}
	a.employeeFilter = next
	a.history.SetCursor(0)
	a.refreshHistory()
}

func (a App) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "e" {
		a.cycleEmployeeFilter()
		return a, nil
	}
	var cmd tea.Cmd
	a.history, cmd = a.history.Update(msg)
	return a, cmd
}

func (a App) renderHistoryTab(cw int) string {
	t := theme.Active

	if a.svc.Len() == 0 {
		muted := lipgloss.NewStyle().Foreground(t.TextMuted)
		return components.ContentCard("History", muted.Render(expense.MsgNoHistory), cw, false)
	}

	filter := "All employees"
	if a.employeeFilter != "" {
		filter = a.employeeFilter
	}
	filterLine := lipgloss.NewStyle().Foreground(t.TextDim).Render("Filter: ") +
		lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Render(filter) +
		lipgloss.NewStyle().Foreground(t.TextDim).Render("  [e] cycle")

	return components.ContentCard("History", filterLine+"\n"+a.history.View(), cw, true)
}
