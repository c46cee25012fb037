package theme

import (
	"time"

	"github.com/charmbracelet/lipgloss"
)

// DueSoonWindow is how close a date has to be before it is highlighted
// as imminent.
var DueSoonWindow = 7 * 24 * time.Hour

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// DimmedStyle de-emphasizes completed items.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Strikethrough(true)

// OverdueStyle marks deadlines that have already passed.
var OverdueStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// GatedBadgeStyle marks sub-deadlines hidden behind an unfired trigger.
var GatedBadgeStyle = lipgloss.NewStyle().
	Foreground(ColorMagenta)

// TemplateBadgeStyle marks projects that were instantiated from a template.
var TemplateBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorBlue)

// DueDateStyle renders plain due dates.
var DueDateStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// DueStyle returns a color-coded style for a deadline date relative to now:
// red once passed, orange inside DueSoonWindow, blue otherwise.
func DueStyle(date time.Time, completed bool) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch {
	case completed:
		return base.Bold(false).Foreground(ColorGray)
	case date.Before(time.Now()):
		return base.Foreground(ColorRed)
	case time.Until(date) <= DueSoonWindow:
		return base.Foreground(ColorOrange)
	default:
		return base.Foreground(ColorBlue)
	}
}

// TriggerStyle returns a color-coded style for a trigger's pending/fired state.
func TriggerStyle(fired bool) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	if fired {
		return base.Foreground(ColorGreen)
	}
	return base.Foreground(ColorYellow)
}

// ProgressStyle returns a color-coded style for a done/total completion ratio.
func ProgressStyle(done, total int) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch {
	case total == 0:
		return base.Foreground(ColorGray)
	case done == total:
		return base.Foreground(ColorGreen)
	case done > 0:
		return base.Foreground(ColorYellow)
	default:
		return base.Foreground(ColorGray)
	}
}
