package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/deadline-tracker/internal/keys"
	"github.com/nhle/deadline-tracker/internal/model"
	"github.com/nhle/deadline-tracker/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// ProjectDetail is the display snapshot for one project: the project with
// its sub-deadlines, its triggers, and the per-sub-deadline gate state.
type ProjectDetail struct {
	Project  model.Project
	Triggers []model.Trigger

	// Visible maps sub-deadline IDs to their gate state. Sub-deadlines
	// mapped to false are hidden behind an unfired trigger.
	Visible map[string]bool
}

// DetailLoadedMsg carries a freshly built project snapshot.
type DetailLoadedMsg struct {
	Detail *ProjectDetail
}

// ToggleSubDeadlineMsg asks the parent to flip a sub-deadline's completion.
type ToggleSubDeadlineMsg struct {
	ProjectID     string
	SubDeadlineID string
}

// ToggleTriggerMsg asks the parent to fire or un-fire a trigger.
type ToggleTriggerMsg struct {
	ProjectID string
	TriggerID string
}

// SaveAsTemplateMsg asks the parent to derive a reusable template from
// the project.
type SaveAsTemplateMsg struct {
	ProjectID string
	Name      string
}

type detailMode int

const (
	modeView detailMode = iota
	modeTemplateName
)

// rowKind distinguishes cursor rows in the combined trigger/sub-deadline list.
type rowKind int

const (
	rowTrigger rowKind = iota
	rowSubDeadline
)

type row struct {
	kind rowKind
	id   string
}

type formBindings struct {
	templateName string
}

// Model is the project detail view component.
type Model struct {
	detail    *ProjectDetail
	mode      detailMode
	cursor    int
	keys      *keys.KeyMap
	form      *huh.Form
	fb        *formBindings
	statusMsg string
	loading   bool
	width     int
	height    int
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		keys:   k,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DetailLoadedMsg:
		m.detail = msg.Detail
		m.loading = false
		if m.cursor >= len(m.rows()) {
			m.cursor = 0
		}
		return m, nil

	case tea.KeyMsg:
		if m.mode == modeTemplateName {
			return m.updateTemplateForm(msg)
		}
		return m.handleViewKey(msg)
	}

	if m.mode == modeTemplateName {
		return m.updateTemplateForm(msg)
	}
	return m, nil
}

func (m Model) handleViewKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	rows := m.rows()

	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return BackMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(rows) > 0 {
			m.cursor = (m.cursor + 1) % len(rows)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(rows) > 0 {
			m.cursor--
			if m.cursor < 0 {
				m.cursor = len(rows) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleComplete):
		if m.detail == nil || m.cursor >= len(rows) {
			return m, nil
		}
		r := rows[m.cursor]
		if r.kind != rowSubDeadline {
			return m, nil
		}
		projectID := m.detail.Project.ID
		return m, func() tea.Msg {
			return ToggleSubDeadlineMsg{ProjectID: projectID, SubDeadlineID: r.id}
		}

	case key.Matches(msg, m.keys.FireTrigger):
		if m.detail == nil || m.cursor >= len(rows) {
			return m, nil
		}
		r := rows[m.cursor]
		if r.kind != rowTrigger {
			return m, nil
		}
		projectID := m.detail.Project.ID
		return m, func() tea.Msg {
			return ToggleTriggerMsg{ProjectID: projectID, TriggerID: r.id}
		}

	case msg.String() == "s":
		if m.detail == nil {
			return m, nil
		}
		m.fb.templateName = m.detail.Project.Title
		m.form = m.buildTemplateForm()
		m.mode = modeTemplateName
		return m, m.form.Init()
	}

	return m, nil
}

func (m Model) buildTemplateForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Template name").
				Placeholder("Monthly Video").
				Value(&m.fb.templateName).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
		),
	).WithWidth(m.width - 4).WithHeight(7)
}

func (m Model) updateTemplateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		m.mode = modeView
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		m.mode = modeView
		projectID := m.detail.Project.ID
		name := strings.TrimSpace(m.fb.templateName)
		return m, func() tea.Msg {
			return SaveAsTemplateMsg{ProjectID: projectID, Name: name}
		}
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeView
		return m, nil
	}
	return m, cmd
}

// rows builds the flat cursor list: triggers first, then visible
// sub-deadlines.
func (m Model) rows() []row {
	if m.detail == nil {
		return nil
	}
	var rows []row
	for _, t := range m.detail.Triggers {
		rows = append(rows, row{kind: rowTrigger, id: t.ID})
	}
	for _, sub := range m.detail.Project.SubDeadlines {
		if m.detail.Visible[sub.ID] {
			rows = append(rows, row{kind: rowSubDeadline, id: sub.ID})
		}
	}
	return rows
}

// View renders the detail view.
func (m Model) View() string {
	if m.loading {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Loading project...")
	}

	if m.detail == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No project selected")
	}

	if m.mode == modeTemplateName && m.form != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(m.renderContent())
}

func (m Model) renderContent() string {
	p := m.detail.Project
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(p.Title))

	done, total := p.Progress()
	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	deadlineLine := fmt.Sprintf(
		"%s %s   %s %s",
		metaStyle.Render("Final deadline:"),
		theme.DueStyle(p.FinalDeadline, p.Completed).Render(p.FinalDeadline.Format("Mon, Jan 2 2006")),
		metaStyle.Render("Progress:"),
		theme.ProgressStyle(done, total).Render(fmt.Sprintf("%d/%d", done, total)),
	)
	sections = append(sections, deadlineLine)

	if p.TemplateName != "" {
		sections = append(sections, fmt.Sprintf(
			"%s %s",
			metaStyle.Render("Template:"),
			theme.TemplateBadgeStyle.Render(p.TemplateName),
		))
	}

	rows := m.rows()
	cursorSet := make(map[string]bool)
	if m.cursor < len(rows) {
		cursorSet[rows[m.cursor].id] = true
	}

	if len(m.detail.Triggers) > 0 {
		sections = append(sections, "")
		sections = append(sections, titleStyle.Render("Triggers"))
		for _, t := range m.detail.Triggers {
			sections = append(sections, m.renderTrigger(t, cursorSet[t.ID]))
		}
	}

	sections = append(sections, "")
	sections = append(sections, titleStyle.Render("Sub-deadlines"))

	hidden := 0
	for _, sub := range p.SubDeadlines {
		if !m.detail.Visible[sub.ID] {
			hidden++
			continue
		}
		sections = append(sections, m.renderSubDeadline(sub, cursorSet[sub.ID]))
	}
	if len(p.SubDeadlines) == 0 {
		sections = append(sections, theme.HelpStyle.Render("  none"))
	}
	if hidden > 0 {
		sections = append(sections, theme.GatedBadgeStyle.Render(
			fmt.Sprintf("  … %d waiting on triggers", hidden),
		))
	}

	if m.statusMsg != "" {
		sections = append(sections, "")
		sections = append(sections, theme.HelpStyle.Render(m.statusMsg))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTrigger(t model.Trigger, selected bool) string {
	state := "pending"
	if t.IsActive {
		state = "fired"
	}
	badge := theme.TriggerStyle(t.IsActive).Render(state)

	due := ""
	if t.DueDate != nil {
		due = theme.DueDateStyle.Render(" expected " + t.DueDate.Format("Jan 02"))
		if !t.IsActive && t.DueDate.Before(time.Now()) {
			due += theme.OverdueStyle.Render(" LATE")
		}
	}

	line := fmt.Sprintf("%s %s%s", badge, t.Name, due)
	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

func (m Model) renderSubDeadline(sub model.SubDeadline, selected bool) string {
	var prefix string
	if sub.Completed {
		prefix = "✓"
	} else {
		prefix = "○"
	}

	date := theme.DueStyle(sub.Date, sub.Completed).Render(sub.Date.Format("Jan 02"))

	overdue := ""
	if sub.IsOverdue() {
		overdue = theme.OverdueStyle.Render(" OVERDUE")
	}

	line := fmt.Sprintf("%s %s %s%s", prefix, date, sub.Title, overdue)
	if sub.Completed {
		line = theme.DimmedStyle.Render(line)
	}
	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// SetDetail replaces the displayed snapshot.
func (m *Model) SetDetail(d *ProjectDetail) {
	m.detail = d
	m.loading = false
	if m.cursor >= len(m.rows()) {
		m.cursor = 0
	}
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SetStatus sets a transient status line shown under the content.
func (m *Model) SetStatus(msg string) {
	m.statusMsg = msg
}

// CurrentProjectID returns the displayed project's ID.
func (m Model) CurrentProjectID() string {
	if m.detail == nil {
		return ""
	}
	return m.detail.Project.ID
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
