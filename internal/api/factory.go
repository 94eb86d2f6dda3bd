package api

import (
	"fmt"
	"strings"

	"github.com/notexe/rimix/internal/config"
)

// NewProvider builds the provider named by cfg.Type.
func NewProvider(cfg *config.ProviderConfig) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case config.ProviderDeepSeek:
		return NewDeepSeekProvider(cfg.DeepSeek)
	case config.ProviderOllama:
		return NewOllamaProvider(cfg.Ollama)
	case config.ProviderPlain, "":
		return nil, ErrNoProvider
	}

	return nil, fmt.Errorf("unknown extract provider %q (supported: %s, %s, %s)",
		cfg.Type, config.ProviderPlain, config.ProviderDeepSeek, config.ProviderOllama)
}
