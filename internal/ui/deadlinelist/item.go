package deadlinelist

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/deadline-tracker/internal/model"
	"github.com/nhle/deadline-tracker/internal/theme"
)

// ProjectItem wraps a model.Project so it can be used in a bubbles/list.
type ProjectItem struct {
	Project model.Project
}

// FilterValue returns the string used for fuzzy filtering.
func (i ProjectItem) FilterValue() string { return i.Project.Title }

// Title returns the project title for the list.
func (i ProjectItem) Title() string { return i.Project.Title }

// Description returns a short summary line for the list.
func (i ProjectItem) Description() string {
	done, total := i.Project.Progress()
	return fmt.Sprintf("%d/%d | due %s", done, total, i.Project.FinalDeadline.Format("Jan 02"))
}

// ItemDelegate implements list.ItemDelegate for rendering project rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single project line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	pi, ok := item.(ProjectItem)
	if !ok {
		return
	}

	p := pi.Project
	isSelected := index == m.Index()

	var prefix string
	if p.Completed {
		prefix = "✓"
	} else {
		prefix = "○"
	}

	done, total := p.Progress()
	progress := theme.ProgressStyle(done, total).Render(fmt.Sprintf("%d/%d", done, total))

	templateBadge := ""
	if p.TemplateID != nil {
		name := p.TemplateName
		if name == "" {
			name = "template"
		}
		templateBadge = theme.TemplateBadgeStyle.Render(" [" + name + "]")
	}

	deadline := theme.DueStyle(p.FinalDeadline, p.Completed).
		Render(" " + p.FinalDeadline.Format("Jan 02"))

	nextStr := ""
	if next := nextPendingSubDeadline(p); next != nil {
		nextStr = theme.DueDateStyle.Render(
			fmt.Sprintf("  next: %s %s", next.Title, next.Date.Format("Jan 02")),
		)
	}

	overdueStr := ""
	if !p.Completed && p.FinalDeadline.Before(time.Now()) {
		overdueStr = theme.OverdueStyle.Render(" OVERDUE")
	}

	line := fmt.Sprintf(
		"%s %s %s%s%s%s%s",
		prefix, progress, p.Title, templateBadge, deadline, overdueStr, nextStr,
	)

	if p.Completed {
		line = theme.DimmedStyle.Render(line)
	}

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// nextPendingSubDeadline returns the earliest un-completed sub-deadline,
// relying on the stored date order.
func nextPendingSubDeadline(p model.Project) *model.SubDeadline {
	for i := range p.SubDeadlines {
		if !p.SubDeadlines[i].Completed {
			return &p.SubDeadlines[i]
		}
	}
	return nil
}
