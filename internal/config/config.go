package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/notexe/rimix/internal/engine"
)

// Extractor provider constants (duplicated from api package to avoid import cycle)
const (
	ProviderPlain    = "plain"
	ProviderDeepSeek = "deepseek"
	ProviderOllama   = "ollama"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// nesting levels: RIMIX_ENGINE__TICK_INTERVAL_MS sets engine.tick_interval_ms.
const EnvPrefix = "RIMIX_"

type Config struct {
	Engine  EngineConfig  `koanf:"engine"`
	Alarm   AlarmConfig   `koanf:"alarm"`
	Store   StoreConfig   `koanf:"store"`
	HTTP    HTTPConfig    `koanf:"http"`
	Extract ExtractConfig `koanf:"extract"`
	UI      UIConfig      `koanf:"ui"`
	Log     LogConfig     `koanf:"log"`
}

type EngineConfig struct {
	TickIntervalMs       int    `koanf:"tick_interval_ms"`
	DueWindowMs          int    `koanf:"due_window_ms"`
	FireCooldownMs       int    `koanf:"fire_cooldown_ms"`
	ChannelTimeoutMs     int    `koanf:"channel_timeout_ms"`
	AmbientChimeEnabled  bool   `koanf:"ambient_chime_enabled"`
	NotificationsEnabled bool   `koanf:"notifications_enabled"`
	VibrationEnabled     bool   `koanf:"vibration_enabled"`
	SpeechEnabled        bool   `koanf:"speech_enabled"`
	Timezone             string `koanf:"timezone"` // IANA name; empty means local time
}

type AlarmConfig struct {
	Enabled    bool   `koanf:"enabled"`
	SoundFile  string `koanf:"sound_file"`  // 44.1kHz stereo 16-bit WAV; empty uses the built-in pattern
	IntervalMs int    `koanf:"interval_ms"` // Pause between loop cycles
}

type StoreConfig struct {
	Path string `koanf:"path"`
}

type HTTPConfig struct {
	Addr               string   `koanf:"addr"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

type ExtractConfig struct {
	Provider string         `koanf:"provider"`
	DeepSeek DeepSeekConfig `koanf:"deepseek"`
	Ollama   OllamaConfig   `koanf:"ollama"`
	Model    ModelConfig    `koanf:"model"`
}

type DeepSeekConfig struct {
	APIKey  string `koanf:"api_key"`
	Timeout int    `koanf:"timeout"` // Seconds
}

type OllamaConfig struct {
	BaseURL string `koanf:"base_url"`
	Timeout int    `koanf:"timeout"`
}

type ModelConfig struct {
	Name        string  `koanf:"name"`
	MaxTokens   int     `koanf:"max_tokens"`
	Temperature float64 `koanf:"temperature"`
}

type UIConfig struct {
	ColoredOutput  bool `koanf:"colored_output"`
	ShowTimestamps bool `koanf:"show_timestamps"`
}

type LogConfig struct {
	File string `koanf:"file"`
}

// Load reads defaults, the YAML file at configPath (if present), a .env file
// in the working directory, then RIMIX_* environment variables.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		configPath = ExpandPath(configPath)

		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	// A missing .env is fine.
	_ = godotenv.Load()

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// Handle DEEPSEEK_API_KEY environment variable
	if apiKey := os.Getenv("DEEPSEEK_API_KEY"); apiKey != "" && k.String("extract.deepseek.api_key") == "" {
		_ = k.Set("extract.deepseek.api_key", apiKey)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Store.Path = ExpandPath(cfg.Store.Path)
	cfg.Alarm.SoundFile = ExpandPath(cfg.Alarm.SoundFile)
	cfg.Log.File = ExpandPath(cfg.Log.File)

	return &cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

func (c *Config) Validate() error {
	positive := map[string]int{
		"engine.tick_interval_ms":   c.Engine.TickIntervalMs,
		"engine.fire_cooldown_ms":   c.Engine.FireCooldownMs,
		"engine.channel_timeout_ms": c.Engine.ChannelTimeoutMs,
	}
	for name, v := range positive {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	if c.Engine.DueWindowMs < 0 {
		return fmt.Errorf("engine.due_window_ms must not be negative, got %d", c.Engine.DueWindowMs)
	}
	if c.Alarm.IntervalMs < 0 {
		return fmt.Errorf("alarm.interval_ms must not be negative, got %d", c.Alarm.IntervalMs)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	switch c.Extract.Provider {
	case ProviderPlain, ProviderOllama:
	case ProviderDeepSeek:
		if c.Extract.DeepSeek.APIKey == "" {
			return fmt.Errorf("DeepSeek API key is required (set DEEPSEEK_API_KEY or add to config file)")
		}
	default:
		return fmt.Errorf("unknown extract provider: %s (supported: %s, %s, %s)",
			c.Extract.Provider, ProviderPlain, ProviderDeepSeek, ProviderOllama)
	}

	if c.Extract.Provider != ProviderPlain {
		if c.Extract.Model.Name == "" {
			return fmt.Errorf("model name is required")
		}
		if c.Extract.Model.MaxTokens <= 0 {
			return fmt.Errorf("max_tokens must be positive")
		}
		if c.Extract.Model.Temperature < 0 || c.Extract.Model.Temperature > 2 {
			return fmt.Errorf("temperature must be between 0 and 2")
		}
	}

	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}

	return nil
}

// Location resolves engine.timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Engine.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Engine.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid engine.timezone %q: %w", c.Engine.Timezone, err)
	}
	return loc, nil
}

// EngineSettings converts the engine section. Call Validate first.
func (c *Config) EngineSettings() engine.Settings {
	loc, err := c.Location()
	if err != nil {
		loc = time.Local
	}
	return engine.Settings{
		TickInterval:   ms(c.Engine.TickIntervalMs),
		DueWindow:      ms(c.Engine.DueWindowMs),
		FireCooldown:   ms(c.Engine.FireCooldownMs),
		ChannelTimeout: ms(c.Engine.ChannelTimeoutMs),
		AmbientChime:   c.Engine.AmbientChimeEnabled,
		Notifications:  c.Engine.NotificationsEnabled,
		Vibration:      c.Engine.VibrationEnabled,
		Speech:         c.Engine.SpeechEnabled,
		Location:       loc,
	}
}

// AlarmInterval is the pause between alarm loop cycles.
func (c *Config) AlarmInterval() time.Duration {
	return ms(c.Alarm.IntervalMs)
}

// ProviderConfig contains provider-specific configuration for the API package.
type ProviderConfig struct {
	Type     string
	DeepSeek DeepSeekConfig
	Ollama   OllamaConfig
	Model    ModelSettings
}

// ModelSettings contains model parameters used by all providers.
type ModelSettings struct {
	Name        string
	MaxTokens   int
	Temperature float64
}

// GetProviderConfig returns the provider configuration for the API package.
func (c *Config) GetProviderConfig() *ProviderConfig {
	return &ProviderConfig{
		Type:     c.Extract.Provider,
		DeepSeek: c.Extract.DeepSeek,
		Ollama:   c.Extract.Ollama,
		Model: ModelSettings{
			Name:        c.Extract.Model.Name,
			MaxTokens:   c.Extract.Model.MaxTokens,
			Temperature: c.Extract.Model.Temperature,
		},
	}
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// ExpandPath replaces a leading ~/ with the home directory.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}

	return path
}
