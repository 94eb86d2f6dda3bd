package engine

import (
	"sync"
	"time"
)

// Tracker remembers which reminders have already fired so each due event
// alerts at most once. Entries expire after the cooldown, which lets a
// reminder that was rescheduled fire again.
type Tracker struct {
	clock    Clock
	cooldown time.Duration

	mu      sync.Mutex
	records map[string]*fireRecord
}

type fireRecord struct {
	firedAt time.Time
	timer   Timer
}

// NewTracker creates an empty tracker.
func NewTracker(clock Clock, cooldown time.Duration) *Tracker {
	if clock == nil {
		clock = SystemClock()
	}
	return &Tracker{
		clock:    clock,
		cooldown: cooldown,
		records:  make(map[string]*fireRecord),
	}
}

// Mark records id as fired now. Marking an id that is already marked is a
// no-op and does not extend its cooldown.
func (t *Tracker) Mark(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.markLocked(id)
}

// TryMark marks id and reports true, or reports false if id was already
// marked. The check and the insert happen under one lock.
func (t *Tracker) TryMark(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.records[id]; ok {
		return false
	}
	t.markLocked(id)
	return true
}

func (t *Tracker) markLocked(id string) {
	if _, ok := t.records[id]; ok {
		return
	}

	rec := &fireRecord{firedAt: t.clock.Now()}
	rec.timer = t.clock.AfterFunc(t.cooldown, func() {
		t.expire(id, rec)
	})
	t.records[id] = rec
}

// expire drops the record only if it is still the one the timer was armed
// for; a Clear followed by a fresh mark must not be undone by a stale timer.
func (t *Tracker) expire(id string, rec *fireRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.records[id] == rec {
		delete(t.records, id)
	}
}

// IsMarked reports whether id is in the fire record.
func (t *Tracker) IsMarked(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.records[id]
	return ok
}

// FiredAt returns when id was marked.
func (t *Tracker) FiredAt(id string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[id]
	if !ok {
		return time.Time{}, false
	}
	return rec.firedAt, true
}

// Clear removes id and cancels its pending expiry.
func (t *Tracker) Clear(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if rec, ok := t.records[id]; ok {
		rec.timer.Stop()
		delete(t.records, id)
	}
}

// Len returns the number of marked ids.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// Stop cancels every pending expiry and empties the record.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, rec := range t.records {
		rec.timer.Stop()
		delete(t.records, id)
	}
}
