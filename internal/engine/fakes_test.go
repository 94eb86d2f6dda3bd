package engine

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/notexe/rimix/internal/reminder"
)

var discardLogger = log.New(io.Discard, "", 0)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Set moves the clock to now and runs every timer that came due.
func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func (c *fakeClock) Advance(d time.Duration) {
	c.Set(c.Now().Add(d))
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

type fakeSource struct {
	mu    sync.Mutex
	items []reminder.Reminder
	err   error
	calls int
}

func (s *fakeSource) List(context.Context) ([]reminder.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]reminder.Reminder, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *fakeSource) set(items ...reminder.Reminder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
}

// at builds a reminder due at t, formatted in t's location.
func at(id string, t time.Time) reminder.Reminder {
	return reminder.Reminder{
		ID:       id,
		Title:    "reminder " + id,
		Date:     t.Format(reminder.DateLayout),
		Time:     t.Format("15:04:05"),
		Priority: reminder.PriorityMedium,
	}
}

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

type fakeChime struct {
	rec   *recorder
	panic bool
	err   error
}

func (c *fakeChime) Chime(context.Context) error {
	c.rec.record(ChannelChime)
	if c.panic {
		panic("chime synth exploded")
	}
	return c.err
}

type fakeVibrator struct {
	rec     *recorder
	can     bool
	err     error
	pattern []time.Duration
}

func (v *fakeVibrator) CanVibrate() bool { return v.can }

func (v *fakeVibrator) Vibrate(_ context.Context, pattern []time.Duration) error {
	v.rec.record(ChannelHaptic)
	v.pattern = pattern
	return v.err
}

type fakeSpeaker struct {
	rec         *recorder
	err         error
	text        string
	hadDeadline bool
}

func (s *fakeSpeaker) Speak(ctx context.Context, text string) error {
	s.rec.record(ChannelSpeech)
	s.text = text
	_, s.hadDeadline = ctx.Deadline()
	return s.err
}

type fakeNotifier struct {
	rec        *recorder
	permission Permission
	requested  int
	title      string
	body       string
}

func (n *fakeNotifier) Permission() Permission { return n.permission }

func (n *fakeNotifier) RequestPermission(context.Context) (Permission, error) {
	n.requested++
	return n.permission, nil
}

func (n *fakeNotifier) Notify(_ context.Context, title, body string) error {
	n.rec.record(ChannelNotification)
	n.title = title
	n.body = body
	return nil
}

type fakeSounder struct {
	mu      sync.Mutex
	created int
	running int
	err     error
}

type fakeLoop struct {
	s    *fakeSounder
	once sync.Once
}

func (s *fakeSounder) StartLoop() (Loop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.created++
	s.running++
	return &fakeLoop{s: s}, nil
}

func (s *fakeSounder) counts() (created, running int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.created, s.running
}

func (l *fakeLoop) Stop() {
	l.once.Do(func() {
		l.s.mu.Lock()
		defer l.s.mu.Unlock()
		l.s.running--
	})
}

var errBoom = errors.New("boom")
