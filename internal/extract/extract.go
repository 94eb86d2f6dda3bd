package extract

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/notexe/rimix/internal/api"
	"github.com/notexe/rimix/internal/config"
	"github.com/notexe/rimix/internal/reminder"
)

// Extractor turns free-form text into a reminder draft.
type Extractor interface {
	Extract(ctx context.Context, input string) (reminder.Draft, error)
}

// New builds the extractor selected by extract.provider. Any provider other
// than plain is backed by the LLM and falls back to plain parsing on failure.
func New(cfg *config.Config, logger *log.Logger) (Extractor, func() error, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	plain := &PlainExtractor{Location: loc}

	provider, err := api.NewProvider(cfg.GetProviderConfig())
	if errors.Is(err, api.ErrNoProvider) {
		return plain, func() error { return nil }, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create provider: %w", err)
	}

	llm := NewLLMExtractor(provider, cfg.GetProviderConfig().Model, logger)
	llm.Location = loc
	llm.Fallback = plain

	return llm, provider.Close, nil
}

func now(loc *time.Location, clock func() time.Time) time.Time {
	if loc == nil {
		loc = time.Local
	}
	if clock == nil {
		return time.Now().In(loc)
	}
	return clock().In(loc)
}
