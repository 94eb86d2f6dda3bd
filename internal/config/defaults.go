package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"engine": map[string]interface{}{
			"tick_interval_ms":      5000,
			"due_window_ms":         5000,
			"fire_cooldown_ms":      60000,
			"channel_timeout_ms":    10000,
			"ambient_chime_enabled": false,
			"notifications_enabled": false,
			"vibration_enabled":     false,
			"speech_enabled":        true,
			"timezone":              "",
		},
		"alarm": map[string]interface{}{
			"enabled":     false,
			"sound_file":  "",
			"interval_ms": 800,
		},
		"store": map[string]interface{}{
			"path": "~/.rimix/reminders.db",
		},
		"http": map[string]interface{}{
			"addr":                 ":8080",
			"cors_allowed_origins": []string{"*"},
		},
		"extract": map[string]interface{}{
			"provider": "plain",
			"deepseek": map[string]interface{}{
				"api_key": "",
				"timeout": 60,
			},
			"ollama": map[string]interface{}{
				"base_url": "http://localhost:11434",
				"timeout":  120,
			},
			"model": map[string]interface{}{
				"name":        "deepseek-chat",
				"max_tokens":  512,
				"temperature": 0.2,
			},
		},
		"ui": map[string]interface{}{
			"colored_output":  true,
			"show_timestamps": false,
		},
		"log": map[string]interface{}{
			"file": "~/.rimix/rimix.log",
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}

func GetDefaultConfigPath() string {
	return "~/.rimix/config.yaml"
}
