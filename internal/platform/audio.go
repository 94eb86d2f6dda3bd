package platform

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/notexe/rimix/internal/engine"
)

const pollInterval = 10 * time.Millisecond

// Audio plays synthesized chimes and looping alarm sounds through a single
// lazily created oto context.
type Audio struct {
	logger *log.Logger
	chime  []byte

	once    sync.Once
	ctx     *oto.Context
	initErr error
}

// NewAudio creates an audio output. The device is opened on first use.
func NewAudio(logger *log.Logger) *Audio {
	if logger == nil {
		logger = log.Default()
	}
	return &Audio{
		logger: logger,
		chime:  Synthesize(ChimeTones),
	}
}

func (a *Audio) context() (*oto.Context, error) {
	a.once.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   SampleRate,
			ChannelCount: ChannelCount,
			Format:       oto.FormatSignedInt16LE,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			a.initErr = fmt.Errorf("failed to initialize audio context: %w", err)
			a.logger.Printf("[audio] %v", a.initErr)
			return
		}

		// Wait for the hardware audio devices to be ready
		<-readyChan

		a.ctx = ctx
		a.logger.Println("[audio] Audio context initialized")
	})

	if a.initErr != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrUnavailable, a.initErr)
	}
	return a.ctx, nil
}

// Chime plays the two-tone ambient chime and waits for it to finish.
func (a *Audio) Chime(ctx context.Context) error {
	otoCtx, err := a.context()
	if err != nil {
		return err
	}

	player := otoCtx.NewPlayer(bytes.NewReader(a.chime))
	player.Play()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			_ = player.Close()
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}

	return player.Close()
}

// AlarmSound is a looping sound for the custom alarm.
type AlarmSound struct {
	audio *Audio
	pcm   []byte
	gap   time.Duration
}

// Alarm returns a Sounder that loops pcm with gap between cycles.
// Nil pcm uses the built-in alarm pattern.
func (a *Audio) Alarm(pcm []byte, gap time.Duration) *AlarmSound {
	if pcm == nil {
		pcm = Synthesize(AlarmTones)
	}
	return &AlarmSound{audio: a, pcm: pcm, gap: gap}
}

// StartLoop starts playback and returns the handle that stops it.
func (s *AlarmSound) StartLoop() (engine.Loop, error) {
	otoCtx, err := s.audio.context()
	if err != nil {
		return nil, err
	}

	p := &Player{
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   s.audio.logger,
	}

	// Play the sound in a goroutine so it doesn't block
	go p.playLoop(otoCtx, s.pcm, s.gap)

	return p, nil
}

// Player manages alarm sound playback with cancellation support
type Player struct {
	stopChan chan struct{}
	done     chan struct{}
	logger   *log.Logger

	mu      sync.Mutex
	stopped bool
}

func (p *Player) playLoop(otoCtx *oto.Context, pcm []byte, gap time.Duration) {
	defer close(p.done)

	// Loop the alarm sound until stopped
	for {
		// Create a new player for each loop iteration
		player := otoCtx.NewPlayer(bytes.NewReader(pcm))
		player.Play()

		for player.IsPlaying() {
			select {
			case <-p.stopChan:
				player.Pause()
				_ = player.Close()
				return
			case <-time.After(pollInterval):
			}
		}

		if err := player.Close(); err != nil {
			p.logger.Printf("[audio] Failed to close audio player: %v", err)
		}

		select {
		case <-p.stopChan:
			return
		case <-time.After(gap):
		}
	}
}

// Stop stops the audio playback and waits for the loop to exit.
func (p *Player) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.stopChan)
	p.mu.Unlock()

	<-p.done
	p.logger.Println("[audio] Alarm playback stopped")
}
