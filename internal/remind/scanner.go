// Package remind scans the deadline collections in the background and
// generates notification records for upcoming or overdue work. Gated
// sub-deadlines never produce reminders while hidden: the scanner derives
// activation through the engine instead of caching it.
package remind

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/deadline-tracker/internal/engine"
	"github.com/nhle/deadline-tracker/internal/model"
	"github.com/nhle/deadline-tracker/internal/store"
)

// ScanResultMsg is a tea.Msg sent when a reminder scan completes.
type ScanResultMsg struct {
	NewReminders int
	Error        error
}

// dedupeHours is how long a reminder for a given entity suppresses
// further reminders for it.
const dedupeHours = 24

// scanTimeout is the maximum time allowed for a single scan.
const scanTimeout = 30 * time.Second

// Scanner periodically walks all projects and triggers, creating
// notifications for active, un-completed sub-deadlines and pending
// triggers due within the configured window.
type Scanner struct {
	store      store.Store
	interval   time.Duration
	windowDays int

	resultCh chan ScanResultMsg
	stopCh   chan struct{}
	mu       gosync.Mutex
	running  bool
}

// New creates a Scanner over the given store.
func New(s store.Store, interval time.Duration, windowDays int) *Scanner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if windowDays <= 0 {
		windowDays = 7
	}
	return &Scanner{
		store:      s,
		interval:   interval,
		windowDays: windowDays,
		resultCh:   make(chan ScanResultMsg, 16),
		stopCh:     make(chan struct{}),
	}
}

// Start returns a tea.Cmd that starts the scan loop and subscribes to
// results. The returned command waits on the result channel and returns
// ScanResultMsg messages to the Bubble Tea runtime.
func (s *Scanner) Start() tea.Cmd {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	go s.loop()

	return s.waitForResult()
}

// Stop halts the scan loop.
func (s *Scanner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
}

// WaitForNextResult returns a tea.Cmd that waits for the next scan
// result. Call after processing a ScanResultMsg to keep listening.
func (s *Scanner) WaitForNextResult() tea.Cmd {
	return s.waitForResult()
}

func (s *Scanner) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runScan()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.runScan()
		}
	}
}

func (s *Scanner) runScan() {
	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	count, err := s.ScanOnce(ctx)
	s.sendResult(ScanResultMsg{NewReminders: count, Error: err})
}

// ScanOnce performs a single scan pass, returning how many new reminders
// were created.
func (s *Scanner) ScanOnce(ctx context.Context) (int, error) {
	state, err := s.store.LoadState(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading state for reminder scan: %w", err)
	}

	e := engine.New(state)
	horizon := time.Now().AddDate(0, 0, s.windowDays)
	created := 0

	for _, project := range state.Projects {
		if project.IsFullyCompleted() {
			continue
		}
		for _, sub := range project.SubDeadlines {
			if sub.Completed || sub.Date.After(horizon) {
				continue
			}
			if !e.IsSubDeadlineActive(sub) {
				continue
			}
			ok, err := s.remind(ctx, project, sub.ID, subDeadlineMessage(project, sub))
			if err != nil {
				return created, err
			}
			if ok {
				created++
			}
		}

		for _, trg := range state.TriggersForProject(project.ID) {
			if trg.IsActive || trg.DueDate == nil || trg.DueDate.After(horizon) {
				continue
			}
			msg := fmt.Sprintf("%s: waiting on %q (due %s)",
				project.Title, trg.Name, trg.DueDate.Format("Jan 2"))
			ok, err := s.remind(ctx, project, trg.ID, msg)
			if err != nil {
				return created, err
			}
			if ok {
				created++
			}
		}
	}

	return created, nil
}

// remind creates a notification for the entity unless one was already
// generated inside the dedupe window.
func (s *Scanner) remind(ctx context.Context, project *model.Project, entityID, message string) (bool, error) {
	seen, err := s.store.HasNotificationForEntity(ctx, entityID, dedupeHours)
	if err != nil {
		return false, err
	}
	if seen {
		return false, nil
	}

	err = s.store.CreateNotification(ctx, model.Notification{
		ProjectID: project.ID,
		EntityID:  entityID,
		Message:   message,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func subDeadlineMessage(project *model.Project, sub model.SubDeadline) string {
	if sub.IsOverdue() {
		return fmt.Sprintf("%s: %q is overdue (was due %s)",
			project.Title, sub.Title, sub.Date.Format("Jan 2"))
	}
	return fmt.Sprintf("%s: %q due %s",
		project.Title, sub.Title, sub.Date.Format("Jan 2"))
}

func (s *Scanner) sendResult(msg ScanResultMsg) {
	select {
	case s.resultCh <- msg:
	default:
		// Drop if the channel is full to avoid blocking the scanner
	}
}

func (s *Scanner) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-s.resultCh
		if !ok {
			return nil
		}
		return result
	}
}
