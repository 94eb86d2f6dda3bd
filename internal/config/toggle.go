package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Toggles maps the short names used by the REPL to config keys.
var Toggles = map[string]string{
	"chime":   "engine.ambient_chime_enabled",
	"notify":  "engine.notifications_enabled",
	"vibrate": "engine.vibration_enabled",
	"speech":  "engine.speech_enabled",
	"alarm":   "alarm.enabled",
}

// ToggleKey resolves a short toggle name.
func ToggleKey(name string) (string, bool) {
	key, ok := Toggles[strings.ToLower(strings.TrimSpace(name))]
	return key, ok
}

// ToggleNames lists the short toggle names, sorted.
func ToggleNames() []string {
	names := make([]string, 0, len(Toggles))
	for name := range Toggles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetToggle persists a boolean toggle into the YAML file at configPath,
// keeping every other key in the file.
func SetToggle(configPath, key string, value bool) error {
	known := false
	for _, k := range Toggles {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown toggle: %s", key)
	}

	path := ExpandPath(configPath)
	k := koanf.New(".")

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	out, err := k.Marshal(yaml.Parser())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace config file: %w", err)
	}

	return nil
}

// ApplyToggle sets the field behind a toggle key on c.
func (c *Config) ApplyToggle(key string, value bool) error {
	switch key {
	case Toggles["chime"]:
		c.Engine.AmbientChimeEnabled = value
	case Toggles["notify"]:
		c.Engine.NotificationsEnabled = value
	case Toggles["vibrate"]:
		c.Engine.VibrationEnabled = value
	case Toggles["speech"]:
		c.Engine.SpeechEnabled = value
	case Toggles["alarm"]:
		c.Alarm.Enabled = value
	default:
		return fmt.Errorf("unknown toggle: %s", key)
	}
	return nil
}

// ToggleValues reports every toggle by short name.
func (c *Config) ToggleValues() map[string]bool {
	return map[string]bool{
		"chime":   c.Engine.AmbientChimeEnabled,
		"notify":  c.Engine.NotificationsEnabled,
		"vibrate": c.Engine.VibrationEnabled,
		"speech":  c.Engine.SpeechEnabled,
		"alarm":   c.Alarm.Enabled,
	}
}
