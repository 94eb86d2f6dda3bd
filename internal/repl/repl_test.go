package repl

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/notexe/rimix/internal/app"
	"github.com/notexe/rimix/internal/config"
	"github.com/notexe/rimix/internal/engine"
	"github.com/notexe/rimix/internal/reminder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *safeBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

func newTestREPL(t *testing.T, configPath string) (*REPL, *safeBuffer) {
	t.Helper()
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Store.Path = filepath.Join(t.TempDir(), "reminders.db")
	cfg.Engine.Timezone = "UTC"
	cfg.UI.ColoredOutput = false
	require.NoError(t, cfg.Validate())

	a, err := app.New(cfg, configPath, log.New(io.Discard, "", 0), app.Options{
		Capabilities: &engine.Capabilities{},
		Engine:       engine.Options{Sync: true},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	out := &safeBuffer{}
	r := newREPL(a, strings.NewReader(""), out)
	t.Cleanup(r.timers.stopAll)
	return r, out
}

func onlyReminder(t *testing.T, r *REPL) reminder.Reminder {
	t.Helper()
	items, err := r.app.Store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	return items[0]
}

func TestREPL_AddFromText(t *testing.T) {
	r, out := newTestREPL(t, "")
	ctx := context.Background()

	assert.False(t, r.handleInput(ctx, "Dentist 2026-10-20 14:30 !high #health"))

	rem := onlyReminder(t, r)
	assert.Equal(t, "Dentist", rem.Title)
	assert.Equal(t, "2026-10-20", rem.Date)
	assert.Equal(t, "14:30", rem.Time)
	assert.Equal(t, reminder.PriorityHigh, rem.Priority)
	assert.Equal(t, "health", rem.Category)
	assert.Contains(t, out.String(), "Added")
	assert.NotContains(t, out.String(), "Needs a date and time")

	out.Reset()
	r.handleInput(ctx, "/add water the plants")
	assert.Contains(t, out.String(), "Needs a date and time")

	out.Reset()
	r.handleInput(ctx, "/add")
	assert.Contains(t, out.String(), "usage: /add")
}

func TestREPL_ListDoneUndoDelete(t *testing.T) {
	r, out := newTestREPL(t, "")
	ctx := context.Background()

	r.handleInput(ctx, "Pay rent 2026-11-01 09:00")
	rem := onlyReminder(t, r)
	short := rem.ID[:6]

	out.Reset()
	r.handleInput(ctx, "/list")
	assert.Contains(t, out.String(), "Pending")
	assert.Contains(t, out.String(), "Pay rent")

	r.handleInput(ctx, "/done "+short)
	assert.True(t, onlyReminder(t, r).Completed)

	out.Reset()
	r.handleInput(ctx, "/list")
	assert.Contains(t, out.String(), "No reminders.")

	out.Reset()
	r.handleInput(ctx, "/list done")
	assert.Contains(t, out.String(), "Pay rent")

	r.handleInput(ctx, "/undo "+short)
	assert.False(t, onlyReminder(t, r).Completed)

	r.handleInput(ctx, "/toggle "+short)
	assert.True(t, onlyReminder(t, r).Completed)

	out.Reset()
	r.handleInput(ctx, "/delete "+short)
	assert.Contains(t, out.String(), "Deleted Pay rent")

	items, err := r.app.Store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	out.Reset()
	r.handleInput(ctx, "/done zzzz")
	assert.Contains(t, out.String(), "Error:")
}

func TestREPL_DonePicksFromList(t *testing.T) {
	r, out := newTestREPL(t, "")
	ctx := context.Background()

	r.handleInput(ctx, "Only one 2026-11-01 09:00")
	r.in = strings.NewReader("1\n")

	r.handleInput(ctx, "/done")
	assert.True(t, onlyReminder(t, r).Completed)
	assert.Contains(t, out.String(), "[1] Only one  (2026-11-01 09:00)")

	out.Reset()
	r.handleInput(ctx, "/done")
	assert.Contains(t, out.String(), "no reminders to choose from")

	r.in = strings.NewReader("\n")
	out.Reset()
	r.handleInput(ctx, "/delete")
	assert.Contains(t, out.String(), "Cancelled.")
	onlyReminder(t, r)
}

func TestREPL_Edit(t *testing.T) {
	r, out := newTestREPL(t, "")
	ctx := context.Background()

	r.handleInput(ctx, "Call 2026-10-20 18:00")
	rem := onlyReminder(t, r)

	r.handleInput(ctx, `/edit `+rem.ID[:8]+` title="Call mom" time= priority=high`)
	rem = onlyReminder(t, r)
	assert.Equal(t, "Call mom", rem.Title)
	assert.Empty(t, rem.Time)
	assert.Equal(t, "2026-10-20", rem.Date)
	assert.Equal(t, reminder.PriorityHigh, rem.Priority)

	out.Reset()
	r.handleInput(ctx, "/edit "+rem.ID+" date=tomorrow")
	assert.Contains(t, out.String(), reminder.ErrInvalidDate.Error())

	out.Reset()
	r.handleInput(ctx, "/edit "+rem.ID+" colour=red")
	assert.Contains(t, out.String(), "unknown field: colour")
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a b  c", []string{"a", "b", "c"}},
		{`id title="Call mom" time=`, []string{"id", "title=Call mom", "time="}},
		{`x 'it''s'`, []string{"x", "its"}},
		{`title=""`, []string{"title="}},
	}
	for _, tt := range tests {
		got, err := splitArgs(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := splitArgs(`title="open`)
	assert.Error(t, err)
}

func TestREPL_SwitchesPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	r, out := newTestREPL(t, path)
	ctx := context.Background()

	assert.True(t, r.app.Engine.Settings().Speech)
	r.handleInput(ctx, "/speech off")
	assert.False(t, r.app.Engine.Settings().Speech)
	assert.Contains(t, out.String(), "speech off.")

	saved, err := config.Load(path)
	require.NoError(t, err)
	assert.False(t, saved.Engine.SpeechEnabled)

	out.Reset()
	r.handleInput(ctx, "/speech")
	assert.Contains(t, out.String(), "speech is off.")

	out.Reset()
	r.handleInput(ctx, "/chime maybe")
	assert.Contains(t, out.String(), "usage: /chime on|off")

	out.Reset()
	r.handleInput(ctx, "/notify on")
	assert.Contains(t, out.String(), "Desktop notifications are denied")
	assert.True(t, r.app.Engine.Settings().Notifications)
}

func TestREPL_Alarm(t *testing.T) {
	r, out := newTestREPL(t, "")
	ctx := context.Background()

	r.handleInput(ctx, "/alarm on")
	assert.True(t, r.app.Engine.AlarmState().Armed)
	assert.True(t, r.config().Alarm.Enabled)

	out.Reset()
	r.handleInput(ctx, "/alarm")
	assert.Contains(t, out.String(), "alarm: on")

	out.Reset()
	r.handleInput(ctx, "/alarm dismiss")
	assert.Contains(t, out.String(), "No alarm is sounding.")

	r.handleInput(ctx, "/alarm off")
	assert.False(t, r.app.Engine.AlarmState().Armed)

	out.Reset()
	r.handleInput(ctx, "/alarm loud")
	assert.Contains(t, out.String(), "usage: /alarm")
}

func TestREPL_TimerFiresThroughEngine(t *testing.T) {
	r, out := newTestREPL(t, "")
	ctx := context.Background()

	fired, cancel := r.app.Engine.Subscribe(4)
	defer cancel()

	r.handleInput(ctx, "/timer 20ms Tea")
	assert.Contains(t, out.String(), "[1] ⏱ Tea")

	select {
	case f := <-fired:
		assert.Equal(t, "timer-1", f.ID)
		assert.Equal(t, "Tea", f.Title)
		assert.Equal(t, "Timer finished", f.Description)
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
	assert.Empty(t, r.timers.list())
}

func TestREPL_TimerListCancel(t *testing.T) {
	r, out := newTestREPL(t, "")
	ctx := context.Background()

	r.handleInput(ctx, "/timer 10")
	r.handleInput(ctx, "/timer 1h Laundry")

	out.Reset()
	r.handleInput(ctx, "/timer list")
	listing := out.String()
	assert.Contains(t, listing, "[1] ⏱ Timer 1")
	assert.Contains(t, listing, "[2] ⏱ Laundry")
	assert.Less(t, strings.Index(listing, "Timer 1"), strings.Index(listing, "Laundry"))

	r.handleInput(ctx, "/timer cancel 1")
	assert.Len(t, r.timers.list(), 1)

	out.Reset()
	r.handleInput(ctx, "/timer cancel 1")
	assert.Contains(t, out.String(), "no timer 1")

	out.Reset()
	r.handleInput(ctx, "/timer soon")
	assert.Contains(t, out.String(), "invalid duration")
}

func TestParseCountdown(t *testing.T) {
	d, err := parseCountdown("5")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, d)

	d, err = parseCountdown("1h30m")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)

	_, err = parseCountdown("0")
	assert.Error(t, err)
	_, err = parseCountdown("-5s")
	assert.Error(t, err)
}

func TestREPL_ToastsForFired(t *testing.T) {
	r, out := newTestREPL(t, "")

	stop := r.watchFired()
	r.app.Engine.Fire(engine.Fired{ID: "x", Title: "Stand up"})

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "⏰ Stand up")
	}, 2*time.Second, 10*time.Millisecond)
	assert.NotContains(t, out.String(), "fired at")
	stop()

	cfg := *r.config()
	cfg.UI.ShowTimestamps = true
	require.NoError(t, r.app.Apply(&cfg))
	r.now = func() time.Time { return time.Date(2026, 10, 15, 9, 30, 5, 0, time.UTC) }

	stop = r.watchFired()
	defer stop()
	r.app.Engine.Fire(engine.Fired{ID: "y", Title: "Drink water"})
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "fired at 09:30:05")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestREPL_MiscCommands(t *testing.T) {
	r, out := newTestREPL(t, "")
	ctx := context.Background()

	r.handleInput(ctx, "/help")
	assert.Contains(t, out.String(), "/timer <dur> [label]")

	out.Reset()
	r.handleInput(ctx, "/settings")
	assert.Contains(t, out.String(), "speech")
	assert.Contains(t, out.String(), "plain")

	out.Reset()
	r.handleInput(ctx, "/check")
	assert.Contains(t, out.String(), "0 reminder(s) fired")

	out.Reset()
	r.handleInput(ctx, "/bogus")
	assert.Contains(t, out.String(), "unknown command: /bogus")

	assert.True(t, r.handleInput(ctx, "/quit"))
}

func TestREPL_Import(t *testing.T) {
	r, out := newTestREPL(t, "")
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("Renew passport 2030-01-10 10:00 #admin\nbring photos"), 0o644))

	r.handleInput(ctx, "/import "+path)
	rem := onlyReminder(t, r)
	assert.Equal(t, "Renew passport", rem.Title)
	assert.Equal(t, "bring photos", rem.Description)
	assert.Contains(t, out.String(), "Imported")
}
