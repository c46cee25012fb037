package app

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/deadline-tracker/internal/engine"
	"github.com/nhle/deadline-tracker/internal/keys"
	"github.com/nhle/deadline-tracker/internal/model"
	"github.com/nhle/deadline-tracker/internal/remind"
	"github.com/nhle/deadline-tracker/internal/store"
	"github.com/nhle/deadline-tracker/internal/ui"
	"github.com/nhle/deadline-tracker/internal/ui/deadlinelist"
	"github.com/nhle/deadline-tracker/internal/ui/detail"
	helpview "github.com/nhle/deadline-tracker/internal/ui/help"
	"github.com/nhle/deadline-tracker/internal/ui/instantiateform"
	"github.com/nhle/deadline-tracker/internal/ui/projectmgr"
	"github.com/nhle/deadline-tracker/internal/ui/templatemgr"
)

// stateLoadedMsg carries the engine state loaded at startup.
type stateLoadedMsg struct {
	state *engine.State
	err   error
}

// unreadCountMsg carries the number of unread notifications to the UI.
type unreadCountMsg struct {
	count int
}

// persistedMsg reports the outcome of a persistence command.
type persistedMsg struct {
	err error
}

// backupDoneMsg reports the outcome of a snapshot write.
type backupDoneMsg struct {
	path string
	err  error
}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewProjects
	ViewTemplates
	ViewInstantiate
	ViewHelp
)

// Model is the root Bubble Tea model that manages view routing, layout,
// the in-memory engine state, and access to the persistence layer.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	store        store.Store
	cfg          *model.AppConfig
	engine       *engine.Engine
	keys         *keys.KeyMap
	deadlineList deadlinelist.Model
	detailView   detail.Model
	helpView     helpview.Model
	projectView  projectmgr.Model
	templateView templatemgr.Model
	instantiate  instantiateform.Model
	scanner      *remind.Scanner
	ready        bool
	unreadCount  int
	statusMsg    string
}

// New creates a new root application model over the given store.
func New(s store.Store, cfg *model.AppConfig) Model {
	k := keys.DefaultKeyMap()

	interval := time.Duration(cfg.Reminder.ScanIntervalSec) * time.Second
	scanner := remind.New(s, interval, cfg.Reminder.WindowDays)

	return Model{
		currentView:  ViewList,
		store:        s,
		cfg:          cfg,
		keys:         k,
		deadlineList: deadlinelist.New(s, k, 80, 24),
		detailView:   detail.New(k, 80, 24),
		helpView:     helpview.New(k, 80, 24),
		projectView:  projectmgr.New(s, k, 80, 24),
		templateView: templatemgr.New(s, k, 80, 24),
		instantiate:  instantiateform.New(80, 24),
		scanner:      scanner,
	}
}

// Init loads the engine state and the initial project list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadState(),
		m.deadlineList.Init(),
		m.fetchUnreadCount(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.deadlineList.SetSize(contentWidth, contentHeight)
		m.detailView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.projectView.SetSize(contentWidth, contentHeight)
		m.templateView.SetSize(contentWidth, contentHeight)
		m.instantiate.SetSize(contentWidth, contentHeight)
		// Forward to the active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case stateLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("load failed: %v", msg.err)
			return m, nil
		}
		m.engine = engine.New(msg.state)
		return m, m.scanner.Start()

	case remind.ScanResultMsg:
		if msg.Error == nil && msg.NewReminders > 0 {
			m.statusMsg = fmt.Sprintf("%d new reminders", msg.NewReminders)
		}
		return m, tea.Batch(
			m.scanner.WaitForNextResult(),
			m.fetchUnreadCount(),
		)

	case unreadCountMsg:
		m.unreadCount = msg.count
		return m, nil

	case persistedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("save failed: %v", msg.err)
		}
		return m, nil

	case backupDoneMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("backup failed: %v", msg.err)
		} else {
			m.statusMsg = "backup written to " + msg.path
		}
		return m, nil

	case deadlinelist.SelectedProjectMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.openDetail(msg.ProjectID)
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewList
		return m, m.deadlineList.LoadProjects()

	case detail.ToggleSubDeadlineMsg:
		return m.handleToggleSubDeadline(msg)

	case detail.ToggleTriggerMsg:
		return m.handleToggleTrigger(msg)

	case detail.SaveAsTemplateMsg:
		return m.handleSaveAsTemplate(msg)

	case projectmgr.ProjectListCloseMsg:
		m.currentView = ViewList
		return m, m.deadlineList.LoadProjects()

	case projectmgr.ProjectSubmittedMsg:
		return m.handleProjectSubmitted(msg)

	case projectmgr.ProjectDeleteMsg:
		return m.handleProjectDelete(msg)

	case templatemgr.TemplateListCloseMsg:
		m.currentView = ViewList
		return m, m.deadlineList.LoadProjects()

	case templatemgr.TemplateSavedMsg:
		return m.handleTemplateSaved(msg)

	case templatemgr.TemplateDeleteMsg:
		return m.handleTemplateDelete(msg)

	case instantiateform.InstantiateMsg:
		return m.handleInstantiate(msg)

	case instantiateform.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case tea.KeyMsg:
		if next, cmd, handled := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work regardless of the focused view.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		m.scanner.Stop()
		return m, tea.Quit, true

	case "q":
		if m.currentView == ViewList {
			m.scanner.Stop()
			return m, tea.Quit, true
		}

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		if m.currentView == ViewList {
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil, true
		}

	case "p":
		if m.currentView == ViewList {
			m.previousView = m.currentView
			m.currentView = ViewProjects
			return m, m.projectView.Init(), true
		}

	case "t":
		if m.currentView == ViewList {
			m.previousView = m.currentView
			m.currentView = ViewTemplates
			return m, m.templateView.Init(), true
		}

	case "i":
		if m.currentView == ViewList && m.engine != nil {
			m.previousView = m.currentView
			m.currentView = ViewInstantiate
			m.instantiate.SetTemplates(m.sortedTemplates())
			return m, m.instantiate.Start(), true
		}

	case "r":
		if m.currentView == ViewList {
			return m, m.deadlineList.LoadProjects(), true
		}

	case "b":
		if m.currentView == ViewList {
			m.statusMsg = "writing backup..."
			return m, m.runBackup(), true
		}
	}

	return m, nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.deadlineList, cmd = m.deadlineList.Update(msg)
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewProjects:
		m.projectView, cmd = m.projectView.Update(msg)
	case ViewTemplates:
		m.templateView, cmd = m.templateView.Update(msg)
	case ViewInstantiate:
		m.instantiate, cmd = m.instantiate.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	headerTitle := "Deadlines"
	if m.unreadCount > 0 {
		headerTitle = fmt.Sprintf("Deadlines [%d new]", m.unreadCount)
	}
	header := m.layout.RenderHeader(headerTitle, m.scanStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.deadlineList.View()
	case ViewDetail:
		return m.detailView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewProjects:
		return m.projectView.View()
	case ViewTemplates:
		return m.templateView.View()
	case ViewInstantiate:
		return m.instantiate.View()
	default:
		return ""
	}
}

// scanStatus returns a short string describing the reminder scanner state.
func (m Model) scanStatus() string {
	if m.engine == nil {
		return "loading"
	}
	return "idle"
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.statusMsg != "" && m.currentView == ViewList {
		return m.statusMsg
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewDetail:
		return "esc back | j/k move | x toggle done | f fire trigger | s save as template"
	case ViewProjects:
		return "n new | e edit | d delete | esc back"
	case ViewTemplates:
		return "n new | r rename | d delete | enter definitions | esc back"
	case ViewInstantiate:
		return "enter submit | esc cancel"
	default:
		return "q quit | ? help | p projects | t templates | i instantiate | b backup"
	}
}
