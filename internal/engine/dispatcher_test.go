package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allChannels() Settings {
	s := testSettings()
	s.AmbientChime = true
	s.Vibration = true
	s.Speech = true
	s.Notifications = true
	return s
}

var sampleFired = Fired{ID: "r1", Title: "Take pills", Description: "with water", DueAt: t0}

func TestDispatcher_ChannelOrder(t *testing.T) {
	rec := &recorder{}
	caps := Capabilities{
		Chime:    &fakeChime{rec: rec},
		Vibrator: &fakeVibrator{rec: rec, can: true},
		Speaker:  &fakeSpeaker{rec: rec},
		Notifier: &fakeNotifier{rec: rec, permission: PermissionGranted},
	}
	d := NewDispatcher(caps, nil, allChannels(), false, discardLogger)

	d.Dispatch(sampleFired)

	assert.Equal(t, []string{ChannelChime, ChannelHaptic, ChannelSpeech, ChannelNotification}, rec.list())
}

func TestDispatcher_FailingChannelDoesNotStopOthers(t *testing.T) {
	tests := []struct {
		name  string
		chime *fakeChime
	}{
		{name: "panic", chime: &fakeChime{panic: true}},
		{name: "error", chime: &fakeChime{err: errBoom}},
		{name: "unavailable", chime: &fakeChime{err: ErrUnavailable}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			tt.chime.rec = rec
			speaker := &fakeSpeaker{rec: rec}
			notifier := &fakeNotifier{rec: rec, permission: PermissionGranted}

			s := allChannels()
			s.Vibration = false
			d := NewDispatcher(Capabilities{Chime: tt.chime, Speaker: speaker, Notifier: notifier}, nil, s, false, discardLogger)

			assert.NotPanics(t, func() { d.Dispatch(sampleFired) })
			assert.Equal(t, []string{ChannelChime, ChannelSpeech, ChannelNotification}, rec.list())
		})
	}
}

func TestDispatcher_AlarmReplacesChime(t *testing.T) {
	rec := &recorder{}
	sounder := &fakeSounder{}
	alarm := NewAlarm(discardLogger)
	alarm.Arm(sounder)

	s := allChannels()
	s.Speech = false
	s.Vibration = false
	s.Notifications = false
	d := NewDispatcher(Capabilities{Chime: &fakeChime{rec: rec}}, alarm, s, false, discardLogger)

	d.Dispatch(sampleFired)
	d.Dispatch(sampleFired)

	assert.Empty(t, rec.list())
	created, running := sounder.counts()
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, running)
	assert.True(t, alarm.State().Sounding)
}

func TestDispatcher_ChimeOnlyWhenAmbientEnabled(t *testing.T) {
	rec := &recorder{}
	s := testSettings()
	s.Speech = false
	d := NewDispatcher(Capabilities{Chime: &fakeChime{rec: rec}}, nil, s, false, discardLogger)

	d.Dispatch(sampleFired)
	assert.Empty(t, rec.list())

	s.AmbientChime = true
	d.SetSettings(s)
	d.Dispatch(sampleFired)
	assert.Equal(t, []string{ChannelChime}, rec.list())
}

func TestDispatcher_NotificationRequiresGrantedPermission(t *testing.T) {
	for _, perm := range []Permission{PermissionDefault, PermissionDenied} {
		t.Run(perm.String(), func(t *testing.T) {
			rec := &recorder{}
			notifier := &fakeNotifier{rec: rec, permission: perm}
			s := testSettings()
			s.Speech = false
			s.Notifications = true
			d := NewDispatcher(Capabilities{Notifier: notifier}, nil, s, false, discardLogger)

			d.Dispatch(sampleFired)

			assert.Empty(t, rec.list())
			assert.Equal(t, 0, notifier.requested, "permission must never be requested while firing")
		})
	}
}

func TestDispatcher_NotificationContent(t *testing.T) {
	rec := &recorder{}
	notifier := &fakeNotifier{rec: rec, permission: PermissionGranted}
	s := testSettings()
	s.Speech = false
	s.Notifications = true
	d := NewDispatcher(Capabilities{Notifier: notifier}, nil, s, false, discardLogger)

	d.Dispatch(sampleFired)
	assert.Equal(t, "Take pills", notifier.title)
	assert.Equal(t, "with water", notifier.body)

	d.Dispatch(Fired{ID: "r2", Title: "Stand up", DueAt: t0})
	assert.Equal(t, "Due at 09:00", notifier.body)
}

func TestDispatcher_HapticNeedsCapableHost(t *testing.T) {
	rec := &recorder{}
	vib := &fakeVibrator{rec: rec, can: false}
	s := testSettings()
	s.Speech = false
	s.Vibration = true
	d := NewDispatcher(Capabilities{Vibrator: vib}, nil, s, false, discardLogger)

	d.Dispatch(sampleFired)
	assert.Empty(t, rec.list())

	vib.can = true
	d.Dispatch(sampleFired)
	assert.Equal(t, []string{ChannelHaptic}, rec.list())
	assert.Equal(t, VibrationPattern, vib.pattern)
}

func TestDispatcher_SpeechAnnouncementAndTimeout(t *testing.T) {
	rec := &recorder{}
	speaker := &fakeSpeaker{rec: rec}
	d := NewDispatcher(Capabilities{Speaker: speaker}, nil, testSettings(), false, discardLogger)

	d.Dispatch(sampleFired)

	assert.Equal(t, "Reminder: Take pills. with water", speaker.text)
	assert.True(t, speaker.hadDeadline)
}

func TestDispatcher_MissingCapabilitiesAreSkipped(t *testing.T) {
	d := NewDispatcher(Capabilities{}, nil, allChannels(), false, discardLogger)
	assert.NotPanics(t, func() { d.Dispatch(sampleFired) })
}

type blockingSpeaker struct {
	started chan struct{}
}

func (b *blockingSpeaker) Speak(ctx context.Context, _ string) error {
	close(b.started)
	<-ctx.Done()
	return ctx.Err()
}

func TestDispatcher_AsyncCloseCancelsInFlight(t *testing.T) {
	speaker := &blockingSpeaker{started: make(chan struct{})}
	s := testSettings()
	s.ChannelTimeout = time.Hour
	d := NewDispatcher(Capabilities{Speaker: speaker}, nil, s, true, discardLogger)

	d.Dispatch(sampleFired)
	<-speaker.started

	closed := make(chan struct{})
	go func() {
		d.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close did not cancel the in-flight attempt")
	}

	rec := &recorder{}
	d.caps.Chime = &fakeChime{rec: rec}
	s.AmbientChime = true
	d.SetSettings(s)
	d.Dispatch(sampleFired)
	require.Empty(t, rec.list())
}
