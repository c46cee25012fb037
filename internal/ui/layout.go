package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/deadline-tracker/internal/theme"
)

// Layout manages the terminal frame dimensions: a one-line header, the
// content area, and a one-line status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout for the given terminal dimensions.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// RenderHeader renders the top bar with the application title on the left
// and a short status (reminder scan state, unread count) on the right.
func (l Layout) RenderHeader(title, status string) string {
	left := theme.HeaderStyle.Render(title)
	right := theme.HeaderStyle.Align(lipgloss.Right).Render(status)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, l.fill(theme.HeaderStyle, left, right), right)
}

// RenderStatusBar renders the bottom bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, l.fill(theme.StatusBarStyle, rendered))
}

// RenderWithFrame vertically joins the header, content, and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// fill renders a styled filler segment spanning the width not taken by
// the given rendered fragments, so bar backgrounds extend edge to edge.
func (l Layout) fill(barStyle lipgloss.Style, rendered ...string) string {
	gap := l.Width
	for _, r := range rendered {
		gap -= lipgloss.Width(r)
	}
	if gap < 0 {
		gap = 0
	}

	return barStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(barStyle.GetBackground()).
			Render(""),
	)
}
