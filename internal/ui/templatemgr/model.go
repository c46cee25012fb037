package templatemgr

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/google/uuid"

	"github.com/nhle/deadline-tracker/internal/keys"
	"github.com/nhle/deadline-tracker/internal/model"
	"github.com/nhle/deadline-tracker/internal/store"
	"github.com/nhle/deadline-tracker/internal/theme"
)

// TemplateListCloseMsg signals the parent to close the template manager.
type TemplateListCloseMsg struct{}

// TemplateSavedMsg asks the parent to apply an edited template: persist
// it and propagate the change into every linked project.
type TemplateSavedMsg struct {
	Template model.Template
}

// TemplateDeleteMsg asks the parent to delete a template. Linked projects
// survive and become manual.
type TemplateDeleteMsg struct {
	ID string
}

type templateMode int

const (
	modeTemplates templateMode = iota
	modeDefinitions
	modeNameForm
	modeSubForm
	modeTriggerForm
	modeConfirmDelete
)

// defRow addresses one definition row in the combined definitions cursor:
// trigger definitions first, then sub-deadline definitions.
type defRow struct {
	isTrigger bool
	index     int
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	name      string
	title     string
	amount    string
	unit      model.OffsetUnit
	before    bool
	triggerID string // gate link; empty means ungated
	confirm   bool
}

type templatesLoadedMsg struct {
	templates []model.Template
}

// Model is the Bubble Tea model for template management. Every applied
// definition change is reported to the parent, which diffs it against
// the stored version and propagates the delta into instantiated projects.
type Model struct {
	mode        templateMode
	store       store.Store
	keys        *keys.KeyMap
	templates   []model.Template
	selectedIdx int
	defIdx      int
	editing     *model.Template // deep copy being edited in definitions mode
	editingDef  string          // ID of the definition being edited, empty for new
	isNewName   bool
	form        *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a new template manager model.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:  modeTemplates,
		store: s,
		keys:  k,
		fb:    &formBindings{},
		width: width, height: height,
	}
}

// Init loads templates from the store.
func (m Model) Init() tea.Cmd {
	return m.loadTemplates()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case templatesLoadedMsg:
		m.templates = msg.templates
		if m.selectedIdx >= len(m.templates) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.templates) - 1
		}
		// Refresh the editing copy so definitions mode shows applied state.
		if m.editing != nil {
			for i := range m.templates {
				if m.templates[i].ID == m.editing.ID {
					tpl := cloneTemplate(m.templates[i])
					m.editing = &tpl
				}
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveForm(msg)
}

// SetStatus sets a transient status line and refreshes the listing.
func (m *Model) SetStatus(msg string) tea.Cmd {
	m.statusMsg = msg
	return m.loadTemplates()
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeTemplates:
		return m.handleTemplatesKey(msg)
	case modeDefinitions:
		return m.handleDefinitionsKey(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	default:
		return m.updateForm(msg)
	}
}

func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case modeNameForm, modeSubForm, modeTriggerForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleTemplatesKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return TemplateListCloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.templates) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.templates)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.templates) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.templates) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if len(m.templates) == 0 {
			return m, nil
		}
		tpl := cloneTemplate(m.templates[m.selectedIdx])
		m.editing = &tpl
		m.defIdx = 0
		m.mode = modeDefinitions
		return m, nil

	case msg.String() == "n":
		m.isNewName = true
		m.fb.name = ""
		m.form = m.buildNameForm()
		m.mode = modeNameForm
		return m, m.form.Init()

	case msg.String() == "r":
		if len(m.templates) == 0 {
			return m, nil
		}
		m.isNewName = false
		m.fb.name = m.templates[m.selectedIdx].Name
		m.form = m.buildNameForm()
		m.mode = modeNameForm
		return m, m.form.Init()

	case msg.String() == "d":
		if len(m.templates) == 0 {
			return m, nil
		}
		m.fb.confirm = false
		m.form = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.form.Init()
	}
	return m, nil
}

func (m Model) handleDefinitionsKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	rows := m.defRows()

	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = modeTemplates
		m.editing = nil
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if len(rows) > 0 {
			m.defIdx = (m.defIdx + 1) % len(rows)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(rows) > 0 {
			m.defIdx--
			if m.defIdx < 0 {
				m.defIdx = len(rows) - 1
			}
		}
		return m, nil

	case msg.String() == "n":
		m.editingDef = ""
		m.fb.title = ""
		m.fb.amount = "7"
		m.fb.unit = model.OffsetUnitDays
		m.fb.before = true
		m.fb.triggerID = ""
		m.form = m.buildSubForm()
		m.mode = modeSubForm
		return m, m.form.Init()

	case msg.String() == "t":
		m.editingDef = ""
		m.fb.name = ""
		m.fb.amount = "14"
		m.fb.unit = model.OffsetUnitDays
		m.fb.before = true
		m.form = m.buildTriggerForm()
		m.mode = modeTriggerForm
		return m, m.form.Init()

	case msg.String() == "e":
		if m.defIdx >= len(rows) {
			return m, nil
		}
		return m.startEditDefinition(rows[m.defIdx])

	case msg.String() == "d":
		if m.defIdx >= len(rows) {
			return m, nil
		}
		m.deleteDefinition(rows[m.defIdx])
		return m, m.emitSaved()
	}
	return m, nil
}

func (m Model) startEditDefinition(r defRow) (Model, tea.Cmd) {
	if r.isTrigger {
		def := m.editing.Triggers[r.index]
		m.editingDef = def.ID
		m.fb.name = def.Name
		m.fb.amount = strconv.Itoa(def.Offset.Amount)
		m.fb.unit = def.Offset.Unit
		m.fb.before = def.Offset.Before
		m.form = m.buildTriggerForm()
		m.mode = modeTriggerForm
		return m, m.form.Init()
	}

	def := m.editing.SubDeadlines[r.index]
	m.editingDef = def.ID
	m.fb.title = def.Title
	m.fb.amount = strconv.Itoa(def.Offset.Amount)
	m.fb.unit = def.Offset.Unit
	m.fb.before = def.Offset.Before
	if def.TemplateTriggerID != nil {
		m.fb.triggerID = *def.TemplateTriggerID
	} else {
		m.fb.triggerID = ""
	}
	m.form = m.buildSubForm()
	m.mode = modeSubForm
	return m, m.form.Init()
}

// deleteDefinition removes the addressed definition from the editing copy.
func (m *Model) deleteDefinition(r defRow) {
	if r.isTrigger {
		id := m.editing.Triggers[r.index].ID
		m.editing.Triggers = append(
			m.editing.Triggers[:r.index],
			m.editing.Triggers[r.index+1:]...,
		)
		// Unlink sub-deadline definitions gated on the removed trigger.
		for i := range m.editing.SubDeadlines {
			link := m.editing.SubDeadlines[i].TemplateTriggerID
			if link != nil && *link == id {
				m.editing.SubDeadlines[i].TemplateTriggerID = nil
			}
		}
	} else {
		m.editing.SubDeadlines = append(
			m.editing.SubDeadlines[:r.index],
			m.editing.SubDeadlines[r.index+1:]...,
		)
	}
	if m.defIdx > 0 {
		m.defIdx--
	}
}

func (m Model) buildNameForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Template name").
				Placeholder("Monthly Video").
				Value(&m.fb.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConfirmForm() *huh.Form {
	name := ""
	if m.selectedIdx < len(m.templates) {
		name = m.templates[m.selectedIdx].Name
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete template %q?", name)).
				Description("Projects made from it keep their deadlines and become manual.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildSubForm() *huh.Form {
	gateOpts := []huh.Option[string]{huh.NewOption("None", "")}
	for _, trg := range m.editing.Triggers {
		gateOpts = append(gateOpts, huh.NewOption(trg.Name, trg.ID))
	}

	fields := []huh.Field{
		huh.NewInput().
			Title("Title").
			Placeholder("Script due").
			Value(&m.fb.title).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("title is required")
				}
				return nil
			}),
	}
	fields = append(fields, m.offsetFields()...)
	fields = append(fields,
		huh.NewSelect[string]().
			Title("Visible after trigger").
			Options(gateOpts...).
			Value(&m.fb.triggerID),
	)

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildTriggerForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Trigger name").
			Placeholder("Assets received").
			Value(&m.fb.name).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("name is required")
				}
				return nil
			}),
	}
	fields = append(fields, m.offsetFields()...)

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) offsetFields() []huh.Field {
	return []huh.Field{
		huh.NewInput().
			Title("Offset amount").
			Placeholder("7").
			Value(&m.fb.amount).
			Validate(func(s string) error {
				n, err := strconv.Atoi(strings.TrimSpace(s))
				if err != nil || n <= 0 {
					return fmt.Errorf("enter a positive whole number")
				}
				return nil
			}),
		huh.NewSelect[model.OffsetUnit]().
			Title("Unit").
			Options(
				huh.NewOption("days", model.OffsetUnitDays),
				huh.NewOption("weeks", model.OffsetUnitWeeks),
				huh.NewOption("months", model.OffsetUnitMonths),
			).
			Value(&m.fb.unit),
		huh.NewSelect[bool]().
			Title("Direction").
			Options(
				huh.NewOption("before final deadline", true),
				huh.NewOption("after final deadline", false),
			).
			Value(&m.fb.before),
	}
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
		return m.handleFormSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m.closeForm()
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		m.mode = modeTemplates
		if m.fb.confirm {
			id := m.templates[m.selectedIdx].ID
			return m, func() tea.Msg { return TemplateDeleteMsg{ID: id} }
		}
		return m, nil
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeTemplates
		return m, nil
	}
	return m, cmd
}

func (m Model) handleFormSubmit() (Model, tea.Cmd) {
	switch m.mode {
	case modeNameForm:
		m.mode = modeTemplates
		name := strings.TrimSpace(m.fb.name)
		if m.isNewName {
			tpl := model.Template{ID: uuid.New().String(), Name: name}
			return m, func() tea.Msg { return TemplateSavedMsg{Template: tpl} }
		}
		tpl := cloneTemplate(m.templates[m.selectedIdx])
		tpl.Name = name
		return m, func() tea.Msg { return TemplateSavedMsg{Template: tpl} }

	case modeSubForm:
		m.mode = modeDefinitions
		m.applySubForm()
		return m, m.emitSaved()

	case modeTriggerForm:
		m.mode = modeDefinitions
		m.applyTriggerForm()
		return m, m.emitSaved()
	}
	return m.closeForm()
}

func (m Model) closeForm() (Model, tea.Cmd) {
	switch m.mode {
	case modeNameForm, modeConfirmDelete:
		m.mode = modeTemplates
	default:
		m.mode = modeDefinitions
	}
	return m, nil
}

func (m *Model) applySubForm() {
	offset := m.formOffset()
	title := strings.TrimSpace(m.fb.title)

	var link *string
	if m.fb.triggerID != "" {
		id := m.fb.triggerID
		link = &id
	}

	if m.editingDef == "" {
		m.editing.SubDeadlines = append(m.editing.SubDeadlines, model.TemplateSubDeadline{
			ID:                uuid.New().String(),
			TemplateID:        m.editing.ID,
			Title:             title,
			Offset:            offset,
			TemplateTriggerID: link,
		})
		return
	}

	for i := range m.editing.SubDeadlines {
		if m.editing.SubDeadlines[i].ID == m.editingDef {
			m.editing.SubDeadlines[i].Title = title
			m.editing.SubDeadlines[i].Offset = offset
			m.editing.SubDeadlines[i].TemplateTriggerID = link
		}
	}
}

func (m *Model) applyTriggerForm() {
	offset := m.formOffset()
	name := strings.TrimSpace(m.fb.name)

	if m.editingDef == "" {
		m.editing.Triggers = append(m.editing.Triggers, model.TemplateTrigger{
			ID:         uuid.New().String(),
			TemplateID: m.editing.ID,
			Name:       name,
			Offset:     offset,
		})
		return
	}

	for i := range m.editing.Triggers {
		if m.editing.Triggers[i].ID == m.editingDef {
			m.editing.Triggers[i].Name = name
			m.editing.Triggers[i].Offset = offset
		}
	}
}

func (m Model) formOffset() model.TimeOffset {
	amount, _ := strconv.Atoi(strings.TrimSpace(m.fb.amount))
	return model.TimeOffset{
		Amount: amount,
		Unit:   m.fb.unit,
		Before: m.fb.before,
	}
}

func (m Model) emitSaved() tea.Cmd {
	tpl := cloneTemplate(*m.editing)
	return func() tea.Msg { return TemplateSavedMsg{Template: tpl} }
}

// defRows builds the definitions cursor list: triggers first, then
// sub-deadlines.
func (m Model) defRows() []defRow {
	if m.editing == nil {
		return nil
	}
	var rows []defRow
	for i := range m.editing.Triggers {
		rows = append(rows, defRow{isTrigger: true, index: i})
	}
	for i := range m.editing.SubDeadlines {
		rows = append(rows, defRow{isTrigger: false, index: i})
	}
	return rows
}

// View renders the template manager.
func (m Model) View() string {
	switch m.mode {
	case modeTemplates:
		return m.viewTemplates()
	case modeDefinitions:
		return m.viewDefinitions()
	default:
		if m.form == nil {
			return ""
		}
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}
}

func (m Model) viewTemplates() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Templates"))
	b.WriteString("\n\n")

	if len(m.templates) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No templates yet. Press 'n' to create one."))
	} else {
		for i, tpl := range m.templates {
			label := fmt.Sprintf(
				"%s  (%d sub-deadlines, %d triggers)",
				tpl.Name, len(tpl.SubDeadlines), len(tpl.Triggers),
			)
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
		"n new | r rename | d delete | enter edit definitions | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) viewDefinitions() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Template: " + m.editing.Name))
	b.WriteString("\n\n")

	rows := m.defRows()
	if len(rows) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No definitions yet. Press 'n' for a sub-deadline, 't' for a trigger."))
		b.WriteString("\n")
	}

	for i, r := range rows {
		var label string
		if r.isTrigger {
			def := m.editing.Triggers[r.index]
			label = fmt.Sprintf("⚡ %s (expected %s)", def.Name, def.Offset.String())
		} else {
			def := m.editing.SubDeadlines[r.index]
			label = fmt.Sprintf("• %s (%s)", def.Title, def.Offset.String())
			if def.TemplateTriggerID != nil {
				if trg := m.editing.TriggerByID(*def.TemplateTriggerID); trg != nil {
					label += theme.GatedBadgeStyle.Render(" (after " + trg.Name + ")")
				}
			}
		}

		if i == m.defIdx {
			b.WriteString(theme.SelectedItemStyle.Render(label))
		} else {
			b.WriteString(theme.ListItemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"n new sub-deadline | t new trigger | e edit | d delete | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
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

func (m Model) loadTemplates() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		templates, err := s.GetTemplates(context.Background())
		if err != nil {
			return templatesLoadedMsg{templates: nil}
		}
		return templatesLoadedMsg{templates: templates}
	}
}

// cloneTemplate deep-copies a template so edits never alias the loaded slice.
func cloneTemplate(tpl model.Template) model.Template {
	out := tpl
	out.SubDeadlines = make([]model.TemplateSubDeadline, len(tpl.SubDeadlines))
	for i, def := range tpl.SubDeadlines {
		out.SubDeadlines[i] = def
		if def.TemplateTriggerID != nil {
			id := *def.TemplateTriggerID
			out.SubDeadlines[i].TemplateTriggerID = &id
		}
	}
	out.Triggers = make([]model.TemplateTrigger, len(tpl.Triggers))
	copy(out.Triggers, tpl.Triggers)
	return out
}
