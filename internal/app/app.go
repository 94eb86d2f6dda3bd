package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/notexe/rimix/internal/config"
	"github.com/notexe/rimix/internal/engine"
	"github.com/notexe/rimix/internal/extract"
	"github.com/notexe/rimix/internal/platform"
	"github.com/notexe/rimix/internal/reminder"
)

// AppName is used for desktop notifications.
const AppName = "rimix"

// App wires the store, host capabilities, engine and extractor for one
// config file. Both binaries run on top of it.
type App struct {
	ConfigPath string
	Logger     *log.Logger

	Store     *reminder.Store
	Engine    *engine.Engine
	Extractor extract.Extractor
	Importer  *extract.Importer
	Notifier  engine.Notifier

	audio *platform.Audio

	mu  sync.RWMutex
	cfg *config.Config

	closeExtractor func() error
}

// Options override host capabilities, mostly for tests.
type Options struct {
	Capabilities *engine.Capabilities
	Engine       engine.Options
}

// New opens the store and builds the engine. cfg must already be validated.
func New(cfg *config.Config, configPath string, logger *log.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = log.Default()
	}

	a := &App{
		ConfigPath: configPath,
		Logger:     logger,
		cfg:        cfg,
		audio:      platform.NewAudio(logger),
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store dir: %w", err)
	}

	store, err := reminder.NewStore(cfg.Store.Path, logger)
	if err != nil {
		return nil, err
	}
	a.Store = store

	var caps engine.Capabilities
	if opts.Capabilities != nil {
		caps = *opts.Capabilities
	} else {
		caps = a.hostCapabilities()
	}
	caps.Alarm = nil
	a.Notifier = caps.Notifier

	engOpts := opts.Engine
	if engOpts.Logger == nil {
		engOpts.Logger = logger
	}

	eng, err := engine.New(store, caps, cfg.EngineSettings(), engOpts)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	a.Engine = eng
	store.OnChange(eng.HandleChange)

	if err := a.applyAlarm(cfg); err != nil {
		logger.Printf("[alarm] Warning: %v", err)
	}

	ex, closeEx, err := extract.New(cfg, logger)
	if err != nil {
		eng.Stop()
		store.Close()
		return nil, err
	}
	a.Extractor = ex
	a.closeExtractor = closeEx

	loc, _ := cfg.Location()
	a.Importer = &extract.Importer{Extractor: ex, Location: loc, Logger: logger}

	return a, nil
}

func (a *App) hostCapabilities() engine.Capabilities {
	caps := engine.Capabilities{
		Chime:    a.audio,
		Vibrator: platform.NewBellVibrator(os.Stdout),
		Notifier: platform.NewDesktopNotifier(AppName, a.Logger),
	}
	// A nil *CommandSpeaker must not become a non-nil interface.
	if sp := platform.DetectSpeaker(); sp != nil {
		caps.Speaker = sp
	}
	return caps
}

// Config returns the active configuration.
func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// Start launches the engine and, when a config path is set, the config
// watcher. Notification permission is probed here if notifications are on.
func (a *App) Start(ctx context.Context) error {
	cfg := a.Config()

	if cfg.Engine.NotificationsEnabled {
		a.RequestNotifications(ctx)
	}

	if err := a.Engine.Start(ctx); err != nil {
		return err
	}

	if a.ConfigPath == "" {
		return nil
	}
	if err := config.Watch(ctx, a.ConfigPath, a.Logger, func(next *config.Config) {
		if err := a.Apply(next); err != nil {
			a.Logger.Printf("[config] Error: %v", err)
		}
	}); err != nil {
		a.Logger.Printf("[config] Warning: live reload disabled: %v", err)
	}

	return nil
}

// Apply switches to a reloaded configuration: channel toggles, timing and
// the alarm sound. The store and extractor are not rebuilt.
func (a *App) Apply(next *config.Config) error {
	if err := a.Engine.UpdateSettings(next.EngineSettings()); err != nil {
		return fmt.Errorf("failed to apply engine settings: %w", err)
	}

	prev := a.Config()
	alarmChanged := prev.Alarm != next.Alarm

	a.mu.Lock()
	a.cfg = next
	a.mu.Unlock()

	if alarmChanged {
		return a.applyAlarm(next)
	}
	return nil
}

func (a *App) applyAlarm(cfg *config.Config) error {
	if !cfg.Alarm.Enabled {
		a.Engine.ArmAlarm(nil)
		return nil
	}

	sounder, err := a.AlarmSound(cfg)
	if err != nil {
		a.Engine.ArmAlarm(nil)
		return err
	}
	a.Engine.ArmAlarm(sounder)
	return nil
}

// AlarmSound builds the looping alarm from alarm.sound_file, or the
// synthesized pattern when none is set.
func (a *App) AlarmSound(cfg *config.Config) (engine.Sounder, error) {
	if cfg.Alarm.SoundFile == "" {
		return a.audio.Alarm(nil, cfg.AlarmInterval()), nil
	}

	pcm, err := platform.LoadWAV(cfg.Alarm.SoundFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load alarm sound: %w", err)
	}
	return a.audio.Alarm(pcm, cfg.AlarmInterval()), nil
}

// RequestNotifications asks for notification permission. Denial is logged
// and reported, never retried automatically.
func (a *App) RequestNotifications(ctx context.Context) engine.Permission {
	if a.Notifier == nil {
		return engine.PermissionDenied
	}

	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	perm, err := a.Notifier.RequestPermission(reqCtx)
	if err != nil && !errors.Is(err, engine.ErrUnavailable) {
		a.Logger.Printf("[notify] Permission request failed: %v", err)
	}
	a.Logger.Printf("[notify] Permission: %s", perm)
	return perm
}

// Close stops the engine, then releases the extractor and store.
func (a *App) Close() error {
	a.Engine.Stop()

	var errs []error
	if a.closeExtractor != nil {
		if err := a.closeExtractor(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
