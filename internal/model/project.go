package model

import (
	"sort"
	"time"
)

// Project is a deadline container: a final deadline plus the sub-deadlines
// leading up to it. Projects instantiated from a template carry the
// template's ID and a cached copy of its name; manually created projects
// leave both empty and are never touched by template synchronization.
type Project struct {
	ID            string    `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	FinalDeadline time.Time `json:"final_deadline" db:"final_deadline"`

	// Completed marks special container projects done regardless of
	// their sub-deadlines.
	Completed bool `json:"completed" db:"completed"`

	TemplateID   *string `json:"template_id,omitempty" db:"template_id"`
	TemplateName string  `json:"template_name,omitempty" db:"template_name"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// SubDeadlines is populated by queries that join with sub_deadlines,
	// ordered ascending by date.
	SubDeadlines []SubDeadline `json:"sub_deadlines,omitempty" db:"-"`
}

// SubDeadline is a dated step inside a project. When derived from a
// template it remembers which definition produced it; when gated it
// references the trigger that controls its visibility.
type SubDeadline struct {
	ID          string     `json:"id" db:"id"`
	ProjectID   string     `json:"project_id" db:"project_id"`
	Title       string     `json:"title" db:"title"`
	Date        time.Time  `json:"date" db:"date"`
	Completed   bool       `json:"completed" db:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`

	// TemplateSubDeadlineID links back to the template definition this
	// step was materialized from; nil for manually added steps.
	TemplateSubDeadlineID *string `json:"template_sub_deadline_id,omitempty" db:"template_sub_deadline_id"`

	// TriggerID gates this step behind a trigger; nil means always active.
	TriggerID *string `json:"trigger_id,omitempty" db:"trigger_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsFullyCompleted reports whether the project is done: either flagged
// explicitly, or it has at least one sub-deadline and all are completed.
func (p *Project) IsFullyCompleted() bool {
	if p.Completed {
		return true
	}
	if len(p.SubDeadlines) == 0 {
		return false
	}
	for _, sub := range p.SubDeadlines {
		if !sub.Completed {
			return false
		}
	}
	return true
}

// Progress returns the number of completed sub-deadlines and the total.
func (p *Project) Progress() (done, total int) {
	for _, sub := range p.SubDeadlines {
		if sub.Completed {
			done++
		}
	}
	return done, len(p.SubDeadlines)
}

// SortSubDeadlines orders the project's sub-deadlines ascending by date,
// breaking ties by title so the order is stable across runs.
func (p *Project) SortSubDeadlines() {
	sort.SliceStable(p.SubDeadlines, func(i, j int) bool {
		a, b := p.SubDeadlines[i], p.SubDeadlines[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Title < b.Title
	})
}

// SubDeadlineByID returns a pointer into the project's sub-deadline slice,
// or nil if no sub-deadline has the given ID.
func (p *Project) SubDeadlineByID(id string) *SubDeadline {
	for i := range p.SubDeadlines {
		if p.SubDeadlines[i].ID == id {
			return &p.SubDeadlines[i]
		}
	}
	return nil
}

// IsOverdue reports whether the sub-deadline's date has passed without
// completion.
func (s SubDeadline) IsOverdue() bool {
	return !s.Completed && s.Date.Before(time.Now())
}
