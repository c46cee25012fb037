package deadlinelist

import (
	"context"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/deadline-tracker/internal/keys"
	"github.com/nhle/deadline-tracker/internal/model"
	"github.com/nhle/deadline-tracker/internal/store"
	"github.com/nhle/deadline-tracker/internal/theme"
)

// ProjectsLoadedMsg is sent when projects have been loaded from the store.
type ProjectsLoadedMsg struct {
	Projects []model.Project
}

// SelectedProjectMsg is sent when the user opens a project.
type SelectedProjectMsg struct {
	ProjectID string
}

// Model is the main project deadline list view.
type Model struct {
	list          list.Model
	store         store.Store
	keys          *keys.KeyMap
	projects      []model.Project
	query         string
	showCompleted bool
	searchMode    bool
	searchInput   textinput.Model
	width         int
	height        int
}

// New creates a new deadline list model.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Deadlines"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search projects..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		store:       s,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the initial set of projects.
func (m Model) Init() tea.Cmd {
	return m.LoadProjects()
}

// Update handles messages for the deadline list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ProjectsLoadedMsg:
		m.projects = msg.Projects
		return m, m.applyFilter()

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.query = strings.TrimSpace(m.searchInput.Value())
		return m, m.applyFilter()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.query = ""
		return m, m.applyFilter()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(ProjectItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedProjectMsg{ProjectID: item.Project.ID}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.ShowCompleted):
		m.showCompleted = !m.showCompleted
		return m, m.applyFilter()
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// SelectedProjectID returns the ID of the currently focused project.
func (m Model) SelectedProjectID() (string, bool) {
	item, ok := m.list.SelectedItem().(ProjectItem)
	if !ok {
		return "", false
	}
	return item.Project.ID, true
}

// View renders the deadline list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.query != "" {
		return style.Render("No matching projects.\nPress / to change the search.")
	}

	return style.Render(
		"No projects yet.\n\n" +
			"Press p to create one, or i to instantiate a template.",
	)
}

// LoadProjects returns a tea.Cmd that reloads all projects from the store.
func (m Model) LoadProjects() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		projects, err := s.GetProjects(context.Background())
		if err != nil {
			return ProjectsLoadedMsg{Projects: nil}
		}
		return ProjectsLoadedMsg{Projects: projects}
	}
}

// applyFilter rebuilds the visible items from the loaded projects,
// soonest final deadline first.
func (m *Model) applyFilter() tea.Cmd {
	filtered := make([]model.Project, 0, len(m.projects))
	query := strings.ToLower(m.query)
	for _, p := range m.projects {
		if p.Completed && !m.showCompleted {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Title), query) {
			continue
		}
		filtered = append(filtered, p)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if !filtered[i].FinalDeadline.Equal(filtered[j].FinalDeadline) {
			return filtered[i].FinalDeadline.Before(filtered[j].FinalDeadline)
		}
		return filtered[i].Title < filtered[j].Title
	})

	items := make([]list.Item, len(filtered))
	for i, p := range filtered {
		items[i] = ProjectItem{Project: p}
	}
	return m.list.SetItems(items)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
