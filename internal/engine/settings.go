package engine

import (
	"fmt"
	"time"
)

// Default engine settings.
const (
	DefaultTickInterval   = 5 * time.Second
	DefaultDueWindow      = 5 * time.Second
	DefaultFireCooldown   = 60 * time.Second
	DefaultChannelTimeout = 10 * time.Second
)

// Settings configures the engine. Channel toggles may change at runtime via
// Engine.UpdateSettings; the cooldown is fixed for the life of the engine.
type Settings struct {
	TickInterval   time.Duration
	DueWindow      time.Duration
	FireCooldown   time.Duration
	ChannelTimeout time.Duration

	AmbientChime  bool
	Notifications bool
	Vibration     bool
	Speech        bool

	// Location is used to interpret reminder dates and times. Nil means time.Local.
	Location *time.Location
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		TickInterval:   DefaultTickInterval,
		DueWindow:      DefaultDueWindow,
		FireCooldown:   DefaultFireCooldown,
		ChannelTimeout: DefaultChannelTimeout,
		Speech:         true,
		Location:       time.Local,
	}
}

// Validate rejects durations the engine cannot run with.
func (s Settings) Validate() error {
	if s.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", s.TickInterval)
	}
	if s.DueWindow < 0 {
		return fmt.Errorf("due window must not be negative, got %s", s.DueWindow)
	}
	if s.FireCooldown <= 0 {
		return fmt.Errorf("fire cooldown must be positive, got %s", s.FireCooldown)
	}
	if s.ChannelTimeout <= 0 {
		return fmt.Errorf("channel timeout must be positive, got %s", s.ChannelTimeout)
	}
	return nil
}

func (s Settings) location() *time.Location {
	if s.Location == nil {
		return time.Local
	}
	return s.Location
}
