package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/notexe/rimix/internal/reminder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type firedLog struct {
	mu    sync.Mutex
	fired []Fired
}

func (l *firedLog) dispatch(f Fired) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fired = append(l.fired, f)
}

func (l *firedLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fired)
}

func testSettings() Settings {
	s := DefaultSettings()
	s.Location = time.UTC
	return s
}

func newTestScheduler(src Source, clock *fakeClock) (*Scheduler, *Tracker, *firedLog) {
	settings := testSettings()
	tracker := NewTracker(clock, settings.FireCooldown)
	log := &firedLog{}
	return NewScheduler(src, tracker, log.dispatch, clock, settings, discardLogger), tracker, log
}

func TestScheduler_FiresAtMostOncePerDueEvent(t *testing.T) {
	due := t0
	clock := newFakeClock(due.Add(-6 * time.Second))
	src := &fakeSource{}
	src.set(at("r1", due))
	s, _, log := newTestScheduler(src, clock)
	ctx := context.Background()

	offsets := []time.Duration{-6 * time.Second, -time.Second, 4 * time.Second, 9 * time.Second}
	var perTick []int
	for _, off := range offsets {
		now := due.Add(off)
		clock.Set(now)
		perTick = append(perTick, s.Tick(ctx, now))
	}

	assert.Equal(t, []int{0, 1, 0, 0}, perTick)
	require.Equal(t, 1, log.count())
	assert.Equal(t, "r1", log.fired[0].ID)
	assert.True(t, due.Equal(log.fired[0].DueAt))
}

func TestScheduler_WindowBoundaryIsInclusive(t *testing.T) {
	due := t0
	clock := newFakeClock(due)
	src := &fakeSource{}
	src.set(at("early", due.Add(5*time.Second)), at("late", due.Add(-5*time.Second)), at("outside", due.Add(-6*time.Second)))
	s, _, log := newTestScheduler(src, clock)

	assert.Equal(t, 2, s.Tick(context.Background(), due))
	assert.Equal(t, 2, log.count())
}

func TestScheduler_RefiresAfterCooldownWhenRescheduled(t *testing.T) {
	due := t0
	clock := newFakeClock(due)
	src := &fakeSource{}
	src.set(at("r1", due))
	s, tracker, log := newTestScheduler(src, clock)
	ctx := context.Background()

	require.Equal(t, 1, s.Tick(ctx, due))

	clock.Set(due.Add(61 * time.Second))
	assert.False(t, tracker.IsMarked("r1"))

	rescheduled := due.Add(120 * time.Second)
	src.set(at("r1", rescheduled))
	clock.Set(rescheduled)
	assert.Equal(t, 1, s.Tick(ctx, rescheduled))
	assert.Equal(t, 2, log.count())
}

func TestScheduler_MarkedReminderInsideCooldownIsSkipped(t *testing.T) {
	due := t0
	clock := newFakeClock(due)
	src := &fakeSource{}
	src.set(at("r1", due))
	s, _, log := newTestScheduler(src, clock)
	ctx := context.Background()

	require.Equal(t, 1, s.Tick(ctx, due))

	// Rescheduled to 30s later, still inside the 60s cooldown.
	soon := due.Add(30 * time.Second)
	src.set(at("r1", soon))
	clock.Set(soon)
	assert.Equal(t, 0, s.Tick(ctx, soon))
	assert.Equal(t, 1, log.count())
}

func TestScheduler_IneligibleRemindersNeverFire(t *testing.T) {
	clock := newFakeClock(t0)
	src := &fakeSource{}
	src.set(
		reminder.Reminder{ID: "no-date", Title: "x", Time: "09:00"},
		reminder.Reminder{ID: "no-time", Title: "x", Date: "2026-03-14"},
		reminder.Reminder{ID: "bad-date", Title: "x", Date: "not a date", Time: "09:00"},
		reminder.Reminder{ID: "bad-time", Title: "x", Date: "2026-03-14", Time: "25:61"},
		reminder.Reminder{ID: "empty"},
	)
	s, tracker, log := newTestScheduler(src, clock)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		now := t0.Add(time.Duration(i) * time.Second)
		assert.NotPanics(t, func() { s.Tick(ctx, now) })
	}

	assert.Equal(t, 0, log.count())
	assert.Equal(t, 0, tracker.Len())
	assert.Equal(t, 1000, src.calls)
}

func TestScheduler_CompletedRemindersNeverFire(t *testing.T) {
	clock := newFakeClock(t0)
	done := at("done", t0)
	done.Completed = true
	src := &fakeSource{}
	src.set(done)
	s, tracker, log := newTestScheduler(src, clock)

	assert.Equal(t, 0, s.Tick(context.Background(), t0))
	assert.Equal(t, 0, log.count())
	assert.False(t, tracker.IsMarked("done"))
}

func TestScheduler_ListErrorSkipsTick(t *testing.T) {
	clock := newFakeClock(t0)
	src := &fakeSource{err: errBoom}
	s, _, log := newTestScheduler(src, clock)

	assert.NotPanics(t, func() {
		assert.Equal(t, 0, s.Tick(context.Background(), t0))
	})
	assert.Equal(t, 0, log.count())
}

func TestScheduler_ConcurrentTicksFireOnce(t *testing.T) {
	clock := newFakeClock(t0)
	src := &fakeSource{}
	src.set(at("r1", t0))
	s, _, log := newTestScheduler(src, clock)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Tick(context.Background(), t0)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, log.count())
}

func TestScheduler_UsesConfiguredLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	clock := newFakeClock(t0)
	src := &fakeSource{}
	// 18:00 in Tokyo is 09:00 UTC.
	src.set(reminder.Reminder{ID: "tz", Title: "x", Date: "2026-03-14", Time: "18:00"})
	s, _, log := newTestScheduler(src, clock)

	assert.Equal(t, 0, s.Tick(context.Background(), t0))

	settings := testSettings()
	settings.Location = tokyo
	s.Configure(settings)
	assert.Equal(t, 1, s.Tick(context.Background(), t0))
	assert.Equal(t, 1, log.count())
}

func TestScheduler_RunTicksImmediatelyAndStops(t *testing.T) {
	clock := newFakeClock(t0)
	src := &fakeSource{}
	src.set(at("r1", t0))
	s, _, log := newTestScheduler(src, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return log.count() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
