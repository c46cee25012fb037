package app

import (
	"context"
	"sort"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/deadline-tracker/internal/backup"
	"github.com/nhle/deadline-tracker/internal/engine"
	"github.com/nhle/deadline-tracker/internal/model"
	"github.com/nhle/deadline-tracker/internal/ui/detail"
	"github.com/nhle/deadline-tracker/internal/ui/instantiateform"
	"github.com/nhle/deadline-tracker/internal/ui/projectmgr"
	"github.com/nhle/deadline-tracker/internal/ui/templatemgr"
)

// Reads go through async tea.Cmds. Mutations run inline in Update: the
// engine state is owned by the Bubble Tea goroutine, so applying the
// change and persisting it before the next message keeps the two in step.

// loadState returns a command that reads the full engine state.
func (m Model) loadState() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		state, err := s.LoadState(context.Background())
		return stateLoadedMsg{state: state, err: err}
	}
}

// fetchUnreadCount returns a command that counts unread notifications.
func (m Model) fetchUnreadCount() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		notifications, err := s.GetUnreadNotifications(context.Background())
		if err != nil {
			return unreadCountMsg{count: 0}
		}
		return unreadCountMsg{count: len(notifications)}
	}
}

// openDetail builds a display snapshot for the project and hands it to
// the detail view.
func (m *Model) openDetail(projectID string) {
	if m.engine == nil {
		return
	}
	state := m.engine.State()
	project, ok := state.Projects[projectID]
	if !ok {
		m.detailView.SetDetail(nil)
		return
	}

	var triggers []model.Trigger
	for _, trg := range state.TriggersForProject(projectID) {
		triggers = append(triggers, *trg)
	}

	visible := make(map[string]bool, len(project.SubDeadlines))
	for _, sub := range project.SubDeadlines {
		visible[sub.ID] = m.engine.IsSubDeadlineActive(sub)
	}

	m.detailView.SetDetail(&detail.ProjectDetail{
		Project:  cloneProject(project),
		Triggers: triggers,
		Visible:  visible,
	})
}

func (m Model) handleToggleSubDeadline(msg detail.ToggleSubDeadlineMsg) (tea.Model, tea.Cmd) {
	if m.engine == nil {
		return m, nil
	}
	if !m.engine.ToggleCompletion(msg.ProjectID, msg.SubDeadlineID) {
		return m, nil
	}

	// Finishing the last sub-deadline completes the project; re-opening
	// one re-opens it.
	project := m.engine.State().Projects[msg.ProjectID]
	m.engine.SetProjectCompleted(msg.ProjectID, project.IsFullyCompleted())

	err := m.store.SaveProject(context.Background(), cloneProject(project))
	m.openDetail(msg.ProjectID)
	return m, reportPersisted(err)
}

func (m Model) handleToggleTrigger(msg detail.ToggleTriggerMsg) (tea.Model, tea.Cmd) {
	if m.engine == nil {
		return m, nil
	}
	trg, ok := m.engine.State().Triggers[msg.TriggerID]
	if !ok {
		return m, nil
	}

	if trg.IsActive {
		m.engine.DeactivateTrigger(msg.TriggerID)
	} else {
		m.engine.ActivateTrigger(msg.TriggerID)
	}

	err := m.store.SaveTrigger(context.Background(), *trg)
	m.openDetail(msg.ProjectID)
	return m, reportPersisted(err)
}

func (m Model) handleSaveAsTemplate(msg detail.SaveAsTemplateMsg) (tea.Model, tea.Cmd) {
	if m.engine == nil {
		return m, nil
	}
	project, ok := m.engine.State().Projects[msg.ProjectID]
	if !ok {
		return m, nil
	}

	tpl, err := m.engine.TemplateFromProject(project, msg.Name)
	if err != nil {
		m.detailView.SetStatus(err.Error())
		return m, nil
	}

	saveErr := m.store.SaveTemplate(context.Background(), *tpl)
	m.detailView.SetStatus("template " + tpl.Name + " created")
	return m, reportPersisted(saveErr)
}

func (m Model) handleProjectSubmitted(msg projectmgr.ProjectSubmittedMsg) (tea.Model, tea.Cmd) {
	if m.engine == nil {
		return m, nil
	}

	var project *model.Project
	if msg.ID == "" {
		project = m.engine.CreateProject(msg.Title, msg.FinalDeadline)
	} else {
		if !m.engine.UpdateProjectBasics(msg.ID, msg.Title, msg.FinalDeadline) {
			return m, nil
		}
		project = m.engine.State().Projects[msg.ID]
	}

	err := m.store.SaveProject(context.Background(), cloneProject(project))
	status := "Project saved"
	if err != nil {
		status = "Save failed: " + err.Error()
	}
	return m, m.projectView.SetStatus(status)
}

func (m Model) handleProjectDelete(msg projectmgr.ProjectDeleteMsg) (tea.Model, tea.Cmd) {
	if m.engine == nil || !m.engine.DeleteProject(msg.ID) {
		return m, nil
	}
	err := m.store.DeleteProject(context.Background(), msg.ID)
	status := "Project deleted"
	if err != nil {
		status = "Delete failed: " + err.Error()
	}
	return m, m.projectView.SetStatus(status)
}

// handleTemplateSaved is the template-edit pipeline: diff the incoming
// version against the one in the state, register the new version, and
// propagate the delta into every project instantiated from it.
func (m Model) handleTemplateSaved(msg templatemgr.TemplateSavedMsg) (tea.Model, tea.Cmd) {
	if m.engine == nil {
		return m, nil
	}
	state := m.engine.State()
	tpl := msg.Template
	old := state.Templates[tpl.ID]

	if old == nil {
		if err := m.engine.AddTemplate(&tpl); err != nil {
			return m, m.templateView.SetStatus(err.Error())
		}
		err := m.store.SaveTemplate(context.Background(), tpl)
		status := "Template created"
		if err != nil {
			status = "Save failed: " + err.Error()
		}
		return m, m.templateView.SetStatus(status)
	}

	delta := engine.Diff(old, &tpl)
	renamed := old.Name != tpl.Name

	if err := m.engine.AddTemplate(&tpl); err != nil {
		return m, m.templateView.SetStatus(err.Error())
	}
	result := m.engine.Synchronize(delta, tpl.ID)

	if renamed {
		for id, project := range state.Projects {
			if project.TemplateID != nil && *project.TemplateID == tpl.ID {
				project.TemplateName = tpl.Name
				result.DirtyProjectIDs = appendUnique(result.DirtyProjectIDs, id)
			}
		}
	}

	err := m.store.SaveTemplate(context.Background(), tpl)
	if err == nil {
		err = m.store.SaveSyncResult(context.Background(), state, result)
	}

	status := "Template saved"
	if len(result.DirtyProjectIDs) > 0 {
		status = "Template saved, " + countProjects(len(result.DirtyProjectIDs)) + " updated"
	}
	if err != nil {
		status = "Save failed: " + err.Error()
	}
	return m, m.templateView.SetStatus(status)
}

func (m Model) handleTemplateDelete(msg templatemgr.TemplateDeleteMsg) (tea.Model, tea.Cmd) {
	if m.engine == nil {
		return m, nil
	}
	state := m.engine.State()
	detached := m.engine.DeleteTemplate(msg.ID)

	err := m.store.DeleteTemplate(context.Background(), msg.ID)
	for _, projectID := range detached {
		if err != nil {
			break
		}
		err = m.store.SaveProject(context.Background(), cloneProject(state.Projects[projectID]))
		for _, trg := range state.TriggersForProject(projectID) {
			if err != nil {
				break
			}
			err = m.store.SaveTrigger(context.Background(), *trg)
		}
	}

	status := "Template deleted"
	if len(detached) > 0 {
		status = "Template deleted, " + countProjects(len(detached)) + " detached"
	}
	if err != nil {
		status = "Delete failed: " + err.Error()
	}
	return m, m.templateView.SetStatus(status)
}

func (m Model) handleInstantiate(msg instantiateform.InstantiateMsg) (tea.Model, tea.Cmd) {
	if m.engine == nil {
		return m, nil
	}
	tpl, ok := m.engine.State().Templates[msg.TemplateID]
	if !ok {
		m.currentView = ViewList
		return m, m.deadlineList.LoadProjects()
	}

	project, triggers := m.engine.Instantiate(tpl, msg.Title, msg.Anchor)

	created := make([]model.Trigger, 0, len(triggers))
	for _, trg := range triggers {
		created = append(created, *trg)
	}
	err := m.store.SaveInstantiation(context.Background(), cloneProject(project), created)

	m.currentView = ViewList
	if err != nil {
		m.statusMsg = "save failed: " + err.Error()
	} else {
		m.statusMsg = "created " + project.Title + " from " + tpl.Name
	}
	return m, m.deadlineList.LoadProjects()
}

// runBackup returns a command that snapshots every collection into the
// configured backup directory, sealing the archive when encryption is on.
func (m Model) runBackup() tea.Cmd {
	s := m.store
	cfg := m.cfg
	return func() tea.Msg {
		snap, err := backup.Take(context.Background(), s)
		if err != nil {
			return backupDoneMsg{err: err}
		}

		var key []byte
		if cfg.Backup.Encrypt {
			key, err = backup.ArchiveKey()
			if err != nil {
				return backupDoneMsg{err: err}
			}
		}

		path, err := snap.Write(cfg.Backup.Dir, key)
		return backupDoneMsg{path: path, err: err}
	}
}

// sortedTemplates returns the state's templates in name order for the
// instantiate selector.
func (m Model) sortedTemplates() []model.Template {
	if m.engine == nil {
		return nil
	}
	state := m.engine.State()
	templates := make([]model.Template, 0, len(state.Templates))
	for _, tpl := range state.Templates {
		templates = append(templates, *tpl)
	}
	sort.Slice(templates, func(i, j int) bool {
		return templates[i].Name < templates[j].Name
	})
	return templates
}

// cloneProject deep-copies a project so async renders never alias
// engine-owned slices.
func cloneProject(p *model.Project) model.Project {
	out := *p
	out.SubDeadlines = make([]model.SubDeadline, len(p.SubDeadlines))
	copy(out.SubDeadlines, p.SubDeadlines)
	return out
}

func reportPersisted(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	return func() tea.Msg { return persistedMsg{err: err} }
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func countProjects(n int) string {
	if n == 1 {
		return "1 project"
	}
	return strconv.Itoa(n) + " projects"
}
