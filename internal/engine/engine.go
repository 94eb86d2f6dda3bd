package engine

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/notexe/rimix/internal/reminder"
)

var (
	ErrRunning = errors.New("engine already running")
	ErrStopped = errors.New("engine stopped")
)

// Options tune how an Engine is built. The zero value is production-ready.
type Options struct {
	Clock  Clock
	Logger *log.Logger
	// Sync runs each dispatch on the caller's goroutine.
	Sync bool
	// OnAlarmDismissed is called once each time a sounding alarm is dismissed.
	OnAlarmDismissed func()
}

// Engine owns the scheduler, fire record, dispatcher and alarm for one
// reminder source.
type Engine struct {
	clock  Clock
	logger *log.Logger

	tracker    *Tracker
	alarm      *Alarm
	dispatcher *Dispatcher
	scheduler  *Scheduler

	settingsMu sync.RWMutex
	settings   Settings

	subMu   sync.Mutex
	subs    map[int]chan Fired
	nextSub int

	runMu   sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

// New builds an engine over source. If caps.Alarm is set the alarm is armed.
func New(source Source, caps Capabilities, settings Settings, opts Options) (*Engine, error) {
	if source == nil {
		return nil, errors.New("reminder source is required")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	e := &Engine{
		clock:    clock,
		logger:   logger,
		settings: settings,
		subs:     make(map[int]chan Fired),
	}

	e.tracker = NewTracker(clock, settings.FireCooldown)
	e.alarm = NewAlarm(logger)
	if caps.Alarm != nil {
		e.alarm.Arm(caps.Alarm)
	}

	e.dispatcher = NewDispatcher(caps, e.alarm, settings, !opts.Sync, logger)
	e.dispatcher.OnAlarmDismiss(func() {
		logger.Println("[alarm] Dismissed")
		if opts.OnAlarmDismissed != nil {
			opts.OnAlarmDismissed()
		}
	})

	e.scheduler = NewScheduler(source, e.tracker, e.fire, clock, settings, logger)

	return e, nil
}

// Start launches the polling loop. It returns immediately.
func (e *Engine) Start(ctx context.Context) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if e.stopped {
		return ErrStopped
	}
	if e.cancel != nil {
		return ErrRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	e.cancel = cancel
	e.done = done

	go func() {
		defer close(done)
		if err := e.scheduler.Run(runCtx); err != nil {
			e.logger.Printf("[engine] Error: scheduler stopped: %v", err)
		}
	}()

	e.logger.Println("[engine] Started")
	return nil
}

// Stop halts polling, cancels every pending cooldown, tears the alarm down
// and waits for in-flight dispatches. The engine cannot be restarted.
func (e *Engine) Stop() {
	e.runMu.Lock()
	if e.stopped {
		e.runMu.Unlock()
		return
	}
	e.stopped = true
	cancel, done := e.cancel, e.done
	e.runMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	e.tracker.Stop()
	e.alarm.Cleanup()
	e.dispatcher.Close()
	// Dispatch goroutines may have restarted the alarm before Close returned.
	e.alarm.Cleanup()

	e.subMu.Lock()
	for id, ch := range e.subs {
		close(ch)
		delete(e.subs, id)
	}
	e.subMu.Unlock()

	e.logger.Println("[engine] Stopped")
}

// Tick runs one detection pass at now, outside the polling loop.
func (e *Engine) Tick(ctx context.Context, now time.Time) int {
	return e.scheduler.Tick(ctx, now)
}

// Check runs one detection pass at the current time.
func (e *Engine) Check(ctx context.Context) int {
	return e.scheduler.Tick(ctx, e.clock.Now())
}

// Fire alerts for f directly, bypassing detection and the fire record.
// Used for countdown timers.
func (e *Engine) Fire(f Fired) {
	e.fire(f)
}

func (e *Engine) fire(f Fired) {
	e.publish(f)
	e.dispatcher.Dispatch(f)
}

// Subscribe returns a channel receiving every fired reminder. Slow
// subscribers miss events rather than block detection. The channel is closed
// by cancel or by Stop.
func (e *Engine) Subscribe(buffer int) (<-chan Fired, func()) {
	ch := make(chan Fired, buffer)

	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch
	e.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			e.subMu.Lock()
			defer e.subMu.Unlock()
			if c, ok := e.subs[id]; ok {
				close(c)
				delete(e.subs, id)
			}
		})
	}
	return ch, cancel
}

func (e *Engine) publish(f Fired) {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	for _, ch := range e.subs {
		select {
		case ch <- f:
		default:
			e.logger.Printf("[engine] Subscriber full, dropped event for %s", f.ID)
		}
	}
}

// Forget clears the fire record for id.
func (e *Engine) Forget(id string) {
	e.tracker.Clear(id)
}

// IsFired reports whether id is inside its cooldown.
func (e *Engine) IsFired(id string) bool {
	return e.tracker.IsMarked(id)
}

// HandleChange keeps the fire record in step with store writes. It is meant
// to be registered with reminder.Store.OnChange.
func (e *Engine) HandleChange(c reminder.Change) {
	switch c.Kind {
	case reminder.ChangeCompleted, reminder.ChangeDeleted:
		e.Forget(c.Reminder.ID)
	}
}

// AlarmState returns the current alarm state.
func (e *Engine) AlarmState() AlarmState {
	return e.alarm.State()
}

// DismissAlarm silences a sounding alarm. It reports whether one was sounding.
func (e *Engine) DismissAlarm() bool {
	if !e.alarm.State().Sounding {
		return false
	}
	e.alarm.Dismiss()
	return true
}

// ArmAlarm sets the custom alarm sound; nil disarms it.
func (e *Engine) ArmAlarm(sounder Sounder) {
	e.alarm.Arm(sounder)
}

// Settings returns the active settings.
func (e *Engine) Settings() Settings {
	e.settingsMu.RLock()
	defer e.settingsMu.RUnlock()
	return e.settings
}

// UpdateSettings applies new settings. FireCooldown is kept from New.
func (e *Engine) UpdateSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	e.settingsMu.Lock()
	s.FireCooldown = e.settings.FireCooldown
	e.settings = s
	e.settingsMu.Unlock()

	e.dispatcher.SetSettings(s)
	e.scheduler.Configure(s)
	return nil
}
