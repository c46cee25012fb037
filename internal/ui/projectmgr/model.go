package projectmgr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/deadline-tracker/internal/keys"
	"github.com/nhle/deadline-tracker/internal/model"
	"github.com/nhle/deadline-tracker/internal/store"
	"github.com/nhle/deadline-tracker/internal/theme"
)

// ProjectListCloseMsg signals the parent to close the project manager.
type ProjectListCloseMsg struct{}

// ProjectSubmittedMsg asks the parent to create or update a project.
type ProjectSubmittedMsg struct {
	ID            string // empty for a new project
	Title         string
	FinalDeadline time.Time
}

// ProjectDeleteMsg asks the parent to delete a project.
type ProjectDeleteMsg struct {
	ID string
}

type projectMode int

const (
	modeList projectMode = iota
	modeForm
	modeConfirmDelete
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title    string
	deadline string
	confirm  bool
}

type projectsLoadedMsg struct {
	projects []model.Project
}

// Model is the Bubble Tea model for manual project management.
type Model struct {
	mode        projectMode
	store       store.Store
	keys        *keys.KeyMap
	projects    []model.Project
	selectedIdx int
	editingID   string
	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a new project manager model.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:  modeList,
		store: s,
		keys:  k,
		fb:    &formBindings{},
		width: width, height: height,
	}
}

// Init loads projects from the store.
func (m Model) Init() tea.Cmd {
	return m.loadProjects()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case projectsLoadedMsg:
		m.projects = msg.projects
		if m.selectedIdx >= len(m.projects) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.projects) - 1
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveForm(msg)
}

// SetStatus sets a transient status line and refreshes the listing.
// The parent calls this after applying a submitted change.
func (m *Model) SetStatus(msg string) tea.Cmd {
	m.statusMsg = msg
	m.mode = modeList
	return m.loadProjects()
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeList:
		return m.handleListKey(msg)
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return ProjectListCloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.projects) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.projects)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.projects) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.projects) - 1
			}
		}
		return m, nil

	case msg.String() == "n":
		m.editingID = ""
		m.fb.title = ""
		m.fb.deadline = ""
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case msg.String() == "e":
		if len(m.projects) == 0 {
			return m, nil
		}
		p := m.projects[m.selectedIdx]
		m.editingID = p.ID
		m.fb.title = p.Title
		m.fb.deadline = p.FinalDeadline.Format("2006-01-02")
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case msg.String() == "d":
		if len(m.projects) == 0 {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("Project title").
				Value(&m.fb.title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Final deadline").
				Placeholder("YYYY-MM-DD").
				Value(&m.fb.deadline).
				Validate(validateDate),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConfirmForm() *huh.Form {
	title := ""
	if m.selectedIdx < len(m.projects) {
		title = m.projects[m.selectedIdx].Title
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete project %q?", title)).
				Description("Its sub-deadlines and triggers are removed with it.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		m.mode = modeList
		return m, m.submit()
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	if m.confirmForm.State == huh.StateCompleted {
		if m.fb.confirm {
			id := m.projects[m.selectedIdx].ID
			m.mode = modeList
			return m, func() tea.Msg { return ProjectDeleteMsg{ID: id} }
		}
		m.mode = modeList
		return m, nil
	}
	if m.confirmForm.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) submit() tea.Cmd {
	deadline, err := time.Parse("2006-01-02", strings.TrimSpace(m.fb.deadline))
	if err != nil {
		return nil
	}
	id := m.editingID
	title := strings.TrimSpace(m.fb.title)
	return func() tea.Msg {
		return ProjectSubmittedMsg{ID: id, Title: title, FinalDeadline: deadline}
	}
}

// View renders the project manager.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return m.viewForm(m.form)
	case modeConfirmDelete:
		return m.viewForm(m.confirmForm)
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Projects"))
	b.WriteString("\n\n")

	if len(m.projects) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No projects yet. Press 'n' to create one."))
	} else {
		for i, p := range m.projects {
			label := fmt.Sprintf(
				"%s  due %s",
				p.Title,
				p.FinalDeadline.Format("2006-01-02"),
			)
			if p.TemplateName != "" {
				label += "  [" + p.TemplateName + "]"
			}
			if p.Completed {
				label += " (done)"
			}

			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"n new | e edit | d delete | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(f.View())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func (m Model) loadProjects() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		projects, err := s.GetProjects(context.Background())
		if err != nil {
			return projectsLoadedMsg{projects: nil}
		}
		return projectsLoadedMsg{projects: projects}
	}
}

func validateDate(s string) error {
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("invalid date, use YYYY-MM-DD")
	}
	return nil
}
