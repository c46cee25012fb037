package instantiateform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/deadline-tracker/internal/model"
	"github.com/nhle/deadline-tracker/internal/theme"
)

// InstantiateMsg is dispatched when the user submits the form.
type InstantiateMsg struct {
	TemplateID string
	Title      string
	Anchor     time.Time
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	templateID string
	title      string
	anchor     string
}

// Model is the Bubble Tea model for instantiating a template into a
// concrete project.
type Model struct {
	form      *huh.Form
	fb        *formBindings
	templates []model.Template
	width     int
	height    int
}

// New creates a new instantiate form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// SetTemplates sets the available templates for the selector.
func (m *Model) SetTemplates(templates []model.Template) {
	m.templates = templates
}

// Start initializes the form for a fresh instantiation.
func (m *Model) Start() tea.Cmd {
	m.fb.templateID = ""
	if len(m.templates) > 0 {
		m.fb.templateID = m.templates[0].ID
	}
	m.fb.title = ""
	m.fb.anchor = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the instantiate form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the instantiate form.
func (m Model) View() string {
	if len(m.templates) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No templates yet.\n\nPress t to create one first.")
	}

	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("New Project from Template") + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	opts := make([]huh.Option[string], len(m.templates))
	for i, tpl := range m.templates {
		opts[i] = huh.NewOption(tpl.Name, tpl.ID)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Template").
				Options(opts...).
				Value(&m.fb.templateID),
			huh.NewInput().
				Title("Project title").
				Placeholder("April Video").
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
				Value(&m.fb.anchor).
				Validate(func(s string) error {
					if _, err := time.Parse("2006-01-02", strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("invalid date, use YYYY-MM-DD")
					}
					return nil
				}),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	anchor, err := time.Parse("2006-01-02", strings.TrimSpace(m.fb.anchor))
	if err != nil {
		return func() tea.Msg { return CancelMsg{} }
	}

	templateID := m.fb.templateID
	title := strings.TrimSpace(m.fb.title)
	return func() tea.Msg {
		return InstantiateMsg{TemplateID: templateID, Title: title, Anchor: anchor}
	}
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
