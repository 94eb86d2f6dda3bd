package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/notexe/rimix/internal/reminder"
)

// Source supplies the reminders a tick scans.
type Source interface {
	List(ctx context.Context) ([]reminder.Reminder, error)
}

// Fired describes a reminder whose due instant was just detected.
type Fired struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DueAt       time.Time `json:"due_at"`
}

// Scheduler polls a Source and fires reminders whose due instant lies within
// the window around the current time.
type Scheduler struct {
	source   Source
	tracker  *Tracker
	dispatch func(Fired)
	clock    Clock
	logger   *log.Logger

	tickMu sync.Mutex

	mu       sync.RWMutex
	interval time.Duration
	window   time.Duration
	loc      *time.Location
	reset    chan time.Duration
}

// NewScheduler creates a scheduler. dispatch is called once per newly due
// reminder, on the ticking goroutine, and must not block.
func NewScheduler(source Source, tracker *Tracker, dispatch func(Fired), clock Clock, settings Settings, logger *log.Logger) *Scheduler {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		source:   source,
		tracker:  tracker,
		dispatch: dispatch,
		clock:    clock,
		logger:   logger,
		interval: settings.TickInterval,
		window:   settings.DueWindow,
		loc:      settings.location(),
		reset:    make(chan time.Duration, 1),
	}
}

// Run ticks immediately, then every interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	interval := s.Interval()
	if interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %s", interval)
	}

	s.logger.Printf("[scheduler] Started. Interval: %s", interval)

	s.Tick(ctx, s.clock.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Println("[scheduler] Shutting down...")
			return nil
		case d := <-s.reset:
			ticker.Reset(d)
			s.logger.Printf("[scheduler] Interval changed to %s", d)
		case <-ticker.C:
			s.Tick(ctx, s.clock.Now())
		}
	}
}

// Tick scans the source once at now and returns how many reminders fired.
// A failing source is logged and the tick is skipped.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) int {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	reminders, err := s.source.List(ctx)
	if err != nil {
		s.logger.Printf("[scheduler] Error: failed to list reminders, skipping tick: %v", err)
		return 0
	}

	s.mu.RLock()
	window, loc := s.window, s.loc
	s.mu.RUnlock()

	fired := 0
	for _, r := range reminders {
		if r.Completed {
			continue
		}

		due, ok := r.DueAt(loc)
		if !ok {
			continue
		}

		delta := now.Sub(due)
		if delta < 0 {
			delta = -delta
		}
		if delta > window {
			continue
		}

		if !s.tracker.TryMark(r.ID) {
			continue
		}

		s.logger.Printf("[scheduler] Reminder %s due at %s: %q", r.ID, due.Format(time.RFC3339), r.Title)
		s.dispatch(Fired{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			DueAt:       due,
		})
		fired++
	}

	return fired
}

// Interval returns the current polling period.
func (s *Scheduler) Interval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.interval
}

// Configure applies new interval, window and location. A running loop picks
// up an interval change on its next select.
func (s *Scheduler) Configure(settings Settings) {
	s.mu.Lock()
	changed := settings.TickInterval > 0 && settings.TickInterval != s.interval
	if settings.TickInterval > 0 {
		s.interval = settings.TickInterval
	}
	s.window = settings.DueWindow
	s.loc = settings.location()
	s.mu.Unlock()

	if !changed {
		return
	}

	// Keep only the latest pending interval.
	select {
	case <-s.reset:
	default:
	}
	select {
	case s.reset <- settings.TickInterval:
	default:
	}
}
