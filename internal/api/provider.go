package api

import (
	"context"
	"errors"
)

var (
	// ErrNoProvider is returned for the plain extractor, which runs without a model.
	ErrNoProvider = errors.New("plain extraction does not use a model provider")

	ErrEmptyCompletion = errors.New("model returned an empty completion")
)

// Provider completes extraction prompts against a hosted or local model.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)

	// Name is used in log lines, e.g. "deepseek".
	Name() string

	Close() error
}
