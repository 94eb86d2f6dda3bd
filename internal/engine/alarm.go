package engine

import (
	"log"
	"sync"
)

// Sounder produces the looping custom alarm sound.
type Sounder interface {
	StartLoop() (Loop, error)
}

// Loop is a running alarm sound.
type Loop interface {
	Stop()
}

// AlarmState is a snapshot for rendering a dismiss control.
type AlarmState struct {
	Armed    bool `json:"armed"`
	Sounding bool `json:"sounding"`
}

// Alarm is a two-state machine (idle, sounding) around a looping sound.
// At most one loop is ever running.
type Alarm struct {
	logger *log.Logger

	mu        sync.Mutex
	sounder   Sounder
	sounding  bool
	loop      Loop
	onDismiss func()
}

// NewAlarm creates an idle, unarmed alarm.
func NewAlarm(logger *log.Logger) *Alarm {
	if logger == nil {
		logger = log.Default()
	}
	return &Alarm{logger: logger}
}

// Arm configures the custom alarm sound. Arming with nil disarms.
func (a *Alarm) Arm(sounder Sounder) {
	if sounder == nil {
		a.Disarm()
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sounder = sounder
}

// Disarm removes the custom alarm sound, tearing down a sounding loop first.
func (a *Alarm) Disarm() {
	a.Cleanup()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sounder = nil
}

// Armed reports whether a custom alarm sound is configured.
func (a *Alarm) Armed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sounder != nil
}

// Start moves idle to sounding, starts the loop and stores onDismiss.
// It is a no-op while already sounding. A loop that fails to start leaves
// the alarm sounding so the user can still dismiss it.
func (a *Alarm) Start(onDismiss func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sounding {
		return
	}

	a.sounding = true
	a.onDismiss = onDismiss

	if a.sounder == nil {
		return
	}

	loop, err := a.sounder.StartLoop()
	if err != nil {
		a.logger.Printf("[alarm] Error: failed to start alarm loop: %v", err)
		return
	}
	a.loop = loop
}

// Dismiss stops a sounding alarm and invokes its dismiss handler once.
// Dismissing an idle alarm does nothing.
func (a *Alarm) Dismiss() {
	a.mu.Lock()
	if !a.sounding {
		a.mu.Unlock()
		return
	}
	onDismiss := a.onDismiss
	a.resetLocked()
	a.mu.Unlock()

	if onDismiss != nil {
		onDismiss()
	}
}

// Cleanup unconditionally stops any loop and returns to idle without
// invoking the dismiss handler. Safe to call from any state.
func (a *Alarm) Cleanup() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resetLocked()
}

func (a *Alarm) resetLocked() {
	if a.loop != nil {
		a.loop.Stop()
		a.loop = nil
	}
	a.sounding = false
	a.onDismiss = nil
}

// State returns the current alarm state.
func (a *Alarm) State() AlarmState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return AlarmState{Armed: a.sounder != nil, Sounding: a.sounding}
}
