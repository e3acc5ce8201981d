// Package tui provides the interactive Bubble Tea dashboard for farelog.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/farelog/internal/config"
	"github.com/theirongolddev/farelog/internal/expense"
	"github.com/theirongolddev/farelog/internal/fare"
	"github.com/theirongolddev/farelog/internal/tui/components"
	"github.com/theirongolddev/farelog/internal/tui/theme"
)

const (
	tabAdd = iota
	tabHistory
	tabSummary
)

const (
	minTerminalWidth = 60
	maxContentWidth  = 140
	minContentHeight = 5
)

// Options configures a dashboard session.
type Options struct {
	Fares          *fare.Table
	Expenses       *expense.Service
	CurrencySymbol string
	// NeedSetup shows the setup wizard before the dashboard.
	NeedSetup bool
	Now       func() time.Time
}

// App is the root Bubble Tea model.
type App struct {
	fares  *fare.Table
	svc    *expense.Service
	symbol string
	now    func() time.Time

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	status     string
	statusKind components.StatusKind

	// Add tab (huh form); values are pointer-held so copies of App share them
	form *huh.Form
	vals *AddValues

	// History tab
	history        table.Model
	employeeFilter string

	// Summary tab
	summaryScroll int

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *SetupValues
	needSetup bool
}

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	a := App{
		fares:     opts.Fares,
		svc:       opts.Expenses,
		symbol:    opts.CurrencySymbol,
		now:       opts.Now,
		needSetup: opts.NeedSetup,
		history:   newHistoryTable(),
	}
	a.resetForm("", "")
	a.refreshHistory()

	if a.needSetup {
		cfg, _ := config.Load()
		a.setupVals = SetupValuesFrom(cfg)
		a.setupForm = NewSetupForm(a.setupVals)
	}
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnableMouseCellMotion}
	if a.needSetup && a.setupForm != nil {
		cmds = append(cmds, a.setupForm.Init())
	} else {
		cmds = append(cmds, a.form.Init())
	}
	return tea.Batch(cmds...)
}

// resetForm starts a fresh add-expense form, keeping employee and date.
func (a *App) resetForm(employee, date string) {
	a.vals = NewAddValues(a.now())
	a.vals.Employee = employee
	if date != "" {
		a.vals.Date = date
	}
	a.form = NewAddForm(a.fares, a.vals)
	if a.width > 0 {
		a.form = a.form.WithWidth(min(a.width, maxContentWidth) - 4)
	}
}

func (a *App) setStatus(kind components.StatusKind, format string, args ...any) {
	a.status = fmt.Sprintf(format, args...)
	a.statusKind = kind
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		a.form = a.form.WithWidth(min(a.width, maxContentWidth) - 4)
		a.resizeHistory()
		return a, nil

	case tea.MouseMsg:
		if a.showHelp || (a.needSetup && a.setupForm != nil) {
			return a, nil
		}
		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := components.TabAtX(msg.X); tab >= 0 {
				return a.switchTab(tab)
			}
		}
		if a.activeTab == tabHistory {
			var cmd tea.Cmd
			a.history, cmd = a.history.Update(msg)
			return a, cmd
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()

		// Global: quit
		if key == "ctrl+c" {
			return a, tea.Quit
		}

		// First-run setup wizard intercepts all keys
		if a.needSetup && a.setupForm != nil {
			return a.updateSetupForm(msg)
		}

		// Help toggle / dismiss
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		// The add form owns the keyboard; esc leaves it.
		if a.activeTab == tabAdd {
			if key == "esc" {
				return a.switchTab(tabHistory)
			}
			return a.updateForm(msg)
		}

		switch key {
		case "?":
			a.showHelp = true
			return a, nil
		case "q":
			return a, tea.Quit
		case "tab", "right":
			return a.switchTab((a.activeTab + 1) % len(components.Tabs))
		case "shift+tab", "left":
			return a.switchTab((a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs))
		case "r":
			if err := a.svc.Reload(); err != nil {
				a.setStatus(components.StatusError, "reload failed: %v", err)
			} else {
				a.setStatus(components.StatusInfo, "Reloaded %d records", a.svc.Len())
			}
			a.refreshHistory()
			return a, nil
		}
		if len(msg.Runes) == 1 {
			if tab := components.TabIdxByKey(msg.Runes[0]); tab >= 0 {
				return a.switchTab(tab)
			}
		}

		switch a.activeTab {
		case tabHistory:
			return a.updateHistory(msg)
		case tabSummary:
			return a.updateSummary(key), nil
		}
		return a, nil
	}

	// Forward unhandled messages (cursor blinks, etc.) to the focused form.
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.activeTab == tabAdd {
		return a.updateForm(msg)
	}
	return a, nil
}

func (a App) switchTab(tab int) (tea.Model, tea.Cmd) {
	a.activeTab = tab
	if tab == tabAdd {
		return a, a.form.Init()
	}
	return a, nil
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		rec, err := a.vals.Submit(a.svc)
		employee, date := a.vals.Employee, a.vals.Date
		if err != nil {
			if msg, ok := expense.UserMessage(err); ok {
				a.setStatus(components.StatusError, "%s", msg)
			} else {
				a.setStatus(components.StatusError, "%v", err)
			}
		} else {
			a.setStatus(components.StatusOK, "Added %s %s → %s %s%s",
				rec.Employee, rec.Source, rec.Destination, a.symbol, rec.Fare.StringFixed(2))
			a.refreshHistory()
		}
		a.resetForm(employee, date)
		return a, a.form.Init()

	case huh.StateAborted:
		a.resetForm("", "")
		return a.switchTab(tabHistory)
	}

	return a, cmd
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		cfg, _ := config.Load()
		cfg = a.setupVals.Apply(cfg)
		theme.SetActive(cfg.Appearance.Theme)
		a.history.SetStyles(historyStyles())
		if err := config.Save(cfg); err != nil {
			a.setStatus(components.StatusError, "Could not save config: %v", err)
		} else {
			a.setStatus(components.StatusOK, "Saved %s; file changes apply on next start", config.ConfigPath())
		}
		a.needSetup = false
		a.setupForm = nil
		return a, a.form.Init()

	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, a.form.Init()
	}

	return a, cmd
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  farelog needs at least %d columns.\n",
			a.width, minTerminalWidth)
	}

	if a.needSetup && a.setupForm != nil {
		return a.setupForm.View()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewMain() string {
	w := a.width
	cw := a.contentWidth()

	header := components.RenderTabBar(a.activeTab, w)
	statusBar := components.RenderStatusBar(w, a.status, a.statusKind, a.svc.Len())

	contentH := max(a.height-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch a.activeTab {
	case tabAdd:
		content = a.renderAddTab(cw)
	case tabHistory:
		content = a.renderHistoryTab(cw)
	case tabSummary:
		content = a.renderSummaryTab(cw, contentH)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

func (a App) renderAddTab(cw int) string {
	return components.ContentCard("Record a trip", a.form.View(), cw, true)
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	bindings := []struct{ key, desc string }{
		{"a h s", "Jump to tab"},
		{"tab ← →", "Previous / Next tab"},
		{"esc", "Leave the add form"},
		{"j k", "Navigate history / scroll summary"},
		{"e", "Cycle employee filter (history)"},
		{"r", "Reload history from disk"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}
	for _, bind := range bindings {
		fmt.Fprintf(&b, "  %s  %s\n",
			keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
			descStyle.Render(bind.desc))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()))
}

// ─── Helpers ────────────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}
