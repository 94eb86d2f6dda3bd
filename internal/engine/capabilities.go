package engine

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned by a capability the host cannot provide.
var ErrUnavailable = errors.New("capability unavailable")

// Chimer plays the short ambient chime.
type Chimer interface {
	Chime(ctx context.Context) error
}

// Vibrator produces a haptic pulse pattern (on, off, on, ...).
type Vibrator interface {
	CanVibrate() bool
	Vibrate(ctx context.Context, pattern []time.Duration) error
}

// Speaker reads text aloud.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Permission is the state of the user's consent to system notifications.
type Permission int

const (
	PermissionDefault Permission = iota
	PermissionGranted
	PermissionDenied
)

func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	}
	return "default"
}

// Notifier posts system notifications. RequestPermission is only called from
// user-initiated settings changes, never while firing.
type Notifier interface {
	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)
	Notify(ctx context.Context, title, body string) error
}

// Capabilities are the host channels available to the dispatcher.
// Nil members are treated as unavailable.
type Capabilities struct {
	Chime    Chimer
	Vibrator Vibrator
	Speaker  Speaker
	Notifier Notifier
	// Alarm is armed on the engine's alarm when non-nil.
	Alarm Sounder
}

// VibrationPattern is the pulse pattern used for every fired reminder.
var VibrationPattern = []time.Duration{
	200 * time.Millisecond,
	100 * time.Millisecond,
	200 * time.Millisecond,
}
