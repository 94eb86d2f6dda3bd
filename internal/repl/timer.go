package repl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/notexe/rimix/internal/engine"
)

type countdown struct {
	id       int
	label    string
	deadline time.Time
	timer    *time.Timer
}

// timers tracks running countdowns by a small sequential number.
type timers struct {
	mu     sync.Mutex
	next   int
	active map[int]*countdown
}

func newTimers() *timers {
	return &timers{active: make(map[int]*countdown)}
}

func (t *timers) start(d time.Duration, label string, now time.Time, fire func(countdown)) countdown {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	c := &countdown{id: t.next, label: label, deadline: now.Add(d)}
	if c.label == "" {
		c.label = fmt.Sprintf("Timer %d", c.id)
	}

	id := c.id
	c.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		done, ok := t.active[id]
		delete(t.active, id)
		t.mu.Unlock()
		if ok {
			fire(*done)
		}
	})
	t.active[id] = c
	return *c
}

func (t *timers) cancel(id int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.active[id]
	if !ok {
		return false
	}
	c.timer.Stop()
	delete(t.active, id)
	return true
}

func (t *timers) list() []countdown {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]countdown, 0, len(t.active))
	for _, c := range t.active {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].deadline.Before(out[j].deadline) })
	return out
}

func (t *timers) stopAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, c := range t.active {
		c.timer.Stop()
		delete(t.active, id)
	}
}

// parseCountdown reads a Go duration ("90s", "1h30m") or a bare number of
// minutes.
func parseCountdown(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("timer must be positive")
		}
		return time.Duration(n) * time.Minute, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q (try 10m or 1h30m)", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("timer must be positive")
	}
	return d, nil
}

func (r *REPL) handleTimer(args string) error {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return fmt.Errorf("usage: /timer <duration> [label] | list | cancel <n>")
	}

	switch strings.ToLower(fields[0]) {
	case "list", "ls":
		running := r.timers.list()
		if len(running) == 0 {
			r.displayInfo("No timers running.")
			return nil
		}
		now := r.now()
		for _, c := range running {
			r.println(fmt.Sprintf("  [%d] %s", c.id, r.formatter.FormatCountdown(c.label, c.deadline.Sub(now))))
		}
		r.println("")
		return nil

	case "cancel", "stop":
		if len(fields) < 2 {
			return fmt.Errorf("usage: /timer cancel <n>")
		}
		id, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("invalid timer number: %s", fields[1])
		}
		if !r.timers.cancel(id) {
			return fmt.Errorf("no timer %d", id)
		}
		r.displaySystem(fmt.Sprintf("Timer %d cancelled.", id))
		return nil
	}

	d, err := parseCountdown(fields[0])
	if err != nil {
		return err
	}

	c := r.timers.start(d, strings.Join(fields[1:], " "), r.now(), r.timerDone)
	r.displaySystem(fmt.Sprintf("[%d] %s", c.id, r.formatter.FormatCountdown(c.label, d)))
	return nil
}

// timerDone alerts through the engine like a due reminder, so the alarm
// and every enabled channel go off.
func (r *REPL) timerDone(c countdown) {
	r.app.Engine.Fire(engine.Fired{
		ID:          fmt.Sprintf("timer-%d", c.id),
		Title:       c.label,
		Description: "Timer finished",
		DueAt:       c.deadline,
	})
}
