package engine

import (
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/deadline-tracker/internal/model"
)

// newTestEngine returns an engine over a fresh state with warnings
// silenced.
func newTestEngine() *Engine {
	e := New(NewState())
	e.SetLogger(log.New(io.Discard, "", 0))
	return e
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func days(n int, before bool) model.TimeOffset {
	return model.TimeOffset{Amount: n, Unit: model.OffsetUnitDays, Before: before}
}

// videoTemplate builds the template used across tests: one trigger
// "Assets Received" due 14 days before the deadline, one gated
// sub-deadline "Edit" and one ungated sub-deadline "Script".
func videoTemplate() *model.Template {
	tpl := &model.Template{
		ID:   uuid.New().String(),
		Name: "Monthly Video",
	}
	trigger := model.TemplateTrigger{
		ID:         uuid.New().String(),
		TemplateID: tpl.ID,
		Name:       "Assets Received",
		Offset:     days(14, true),
	}
	tpl.Triggers = []model.TemplateTrigger{trigger}
	tpl.SubDeadlines = []model.TemplateSubDeadline{
		{
			ID:         uuid.New().String(),
			TemplateID: tpl.ID,
			Title:      "Script",
			Offset:     days(7, true),
		},
		{
			ID:                uuid.New().String(),
			TemplateID:        tpl.ID,
			Title:             "Edit",
			Offset:            days(3, true),
			TemplateTriggerID: &trigger.ID,
		},
	}
	return tpl
}

// cloneTemplate deep-copies a template so tests can hold a pre-edit value
// while mutating the stored one, the same way callers feed Diff.
func cloneTemplate(tpl *model.Template) *model.Template {
	out := *tpl
	out.SubDeadlines = make([]model.TemplateSubDeadline, len(tpl.SubDeadlines))
	for i, def := range tpl.SubDeadlines {
		out.SubDeadlines[i] = def
		if def.TemplateTriggerID != nil {
			id := *def.TemplateTriggerID
			out.SubDeadlines[i].TemplateTriggerID = &id
		}
	}
	out.Triggers = append([]model.TemplateTrigger(nil), tpl.Triggers...)
	return &out
}
