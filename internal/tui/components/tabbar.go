package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/farelog/internal/tui/theme"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int // position of the shortcut letter in the name
}

// Tabs defines all available tabs.
var Tabs = []Tab{
	{Name: "Add", Key: 'a', KeyPos: 0},
	{Name: "History", Key: 'h', KeyPos: 0},
	{Name: "Summary", Key: 's', KeyPos: 0},
}

const tabSeparator = "  "

// RenderTabBar renders the tab bar with the given active index.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true).
		Underline(true)

	inactiveStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true)

	dimKeyStyle := lipgloss.NewStyle().
		Foreground(t.TextDim)

	parts := make([]string, 0, len(Tabs))
	for i, tab := range Tabs {
		if i == activeIdx {
			parts = append(parts, " "+activeStyle.Render(tab.Name)+" ")
			continue
		}
		before := tab.Name[:tab.KeyPos]
		key := string(tab.Name[tab.KeyPos])
		after := tab.Name[tab.KeyPos+1:]
		parts = append(parts, inactiveStyle.Render(before)+
			dimKeyStyle.Render("[")+keyStyle.Render(key)+dimKeyStyle.Render("]")+
			inactiveStyle.Render(after))
	}

	bar := " " + strings.Join(parts, tabSeparator)
	return lipgloss.NewStyle().Width(width).Render(bar)
}

// TabWidth returns the rendered width of tab i. The active tab is padded by
// a space on each side and inactive tabs wrap their key in brackets, so both
// add two cells.
func TabWidth(i int) int {
	return len(Tabs[i].Name) + 2
}

// TabAtX returns the tab index under column x, or -1.
func TabAtX(x int) int {
	pos := 1 // leading space
	for i := range Tabs {
		w := TabWidth(i)
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + len(tabSeparator)
	}
	return -1
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
