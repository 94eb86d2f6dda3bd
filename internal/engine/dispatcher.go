package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

var errNotPermitted = errors.New("notification permission not granted")

// Channel names used in logs.
const (
	ChannelAlarm        = "alarm"
	ChannelChime        = "chime"
	ChannelHaptic       = "haptic"
	ChannelSpeech       = "speech"
	ChannelNotification = "notification"
)

// Dispatcher fans a fired reminder out to the alert channels. Every channel
// attempt is isolated: an error or panic in one never stops the next.
type Dispatcher struct {
	caps   Capabilities
	alarm  *Alarm
	logger *log.Logger
	async  bool

	// onAlarmDismiss is handed to Alarm.Start.
	onAlarmDismiss func()

	mu       sync.RWMutex
	settings Settings
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher. If async is true each Dispatch runs its
// channel sequence on its own goroutine.
func NewDispatcher(caps Capabilities, alarm *Alarm, settings Settings, async bool, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	if alarm == nil {
		alarm = NewAlarm(logger)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		caps:     caps,
		alarm:    alarm,
		logger:   logger,
		async:    async,
		settings: settings,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetSettings replaces the channel toggles and timeout.
func (d *Dispatcher) SetSettings(s Settings) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.settings = s
}

// OnAlarmDismiss sets the handler passed to the alarm when it starts.
func (d *Dispatcher) OnAlarmDismiss(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onAlarmDismiss = fn
}

// Dispatch alerts the user about f. It never blocks on a channel when async.
func (d *Dispatcher) Dispatch(f Fired) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Printf("[notify] Dispatcher closed, dropping alert for %s", f.ID)
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	if !d.async {
		defer d.wg.Done()
		d.run(f)
		return
	}

	go func() {
		defer d.wg.Done()
		d.run(f)
	}()
}

func (d *Dispatcher) run(f Fired) {
	d.mu.RLock()
	s := d.settings
	onDismiss := d.onAlarmDismiss
	d.mu.RUnlock()

	timeout := s.ChannelTimeout
	if timeout <= 0 {
		timeout = DefaultChannelTimeout
	}

	// The custom alarm replaces the chime.
	if d.alarm.Armed() {
		d.attempt(ChannelAlarm, f, timeout, func(context.Context) error {
			d.alarm.Start(onDismiss)
			return nil
		})
	} else if s.AmbientChime {
		d.attempt(ChannelChime, f, timeout, func(ctx context.Context) error {
			if d.caps.Chime == nil {
				return ErrUnavailable
			}
			return d.caps.Chime.Chime(ctx)
		})
	}

	if s.Vibration {
		d.attempt(ChannelHaptic, f, timeout, func(ctx context.Context) error {
			if d.caps.Vibrator == nil || !d.caps.Vibrator.CanVibrate() {
				return ErrUnavailable
			}
			return d.caps.Vibrator.Vibrate(ctx, VibrationPattern)
		})
	}

	if s.Speech {
		d.attempt(ChannelSpeech, f, timeout, func(ctx context.Context) error {
			if d.caps.Speaker == nil {
				return ErrUnavailable
			}
			return d.caps.Speaker.Speak(ctx, announcement(f))
		})
	}

	if s.Notifications {
		d.attempt(ChannelNotification, f, timeout, func(ctx context.Context) error {
			if d.caps.Notifier == nil {
				return ErrUnavailable
			}
			if d.caps.Notifier.Permission() != PermissionGranted {
				return errNotPermitted
			}
			return d.caps.Notifier.Notify(ctx, f.Title, notificationBody(f))
		})
	}
}

// attempt runs one channel under its own timeout and swallows any failure.
func (d *Dispatcher) attempt(channel string, f Fired, timeout time.Duration, fn func(ctx context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Printf("[notify] panic in %s channel for %s: %v", channel, f.ID, r)
		}
	}()

	ctx, cancel := context.WithTimeout(d.ctx, timeout)
	defer cancel()

	err := fn(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnavailable), errors.Is(err, errNotPermitted):
		d.logger.Printf("[notify] %s channel skipped for %s: %v", channel, f.ID, err)
	default:
		d.logger.Printf("[notify] Error: %s channel failed for %s: %v", channel, f.ID, err)
	}
}

// Close cancels in-flight channel attempts and waits for them to return.
// Later Dispatch calls are dropped.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
}

// Wait blocks until in-flight async dispatches finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func announcement(f Fired) string {
	text := fmt.Sprintf("Reminder: %s", f.Title)
	if desc := strings.TrimSpace(f.Description); desc != "" {
		text += ". " + desc
	}
	return text
}

func notificationBody(f Fired) string {
	if desc := strings.TrimSpace(f.Description); desc != "" {
		return desc
	}
	if f.DueAt.IsZero() {
		return "Reminder"
	}
	return "Due at " + f.DueAt.Format("15:04")
}
