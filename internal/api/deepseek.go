package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-deepseek/deepseek"
	"github.com/go-deepseek/deepseek/request"
	"github.com/notexe/rimix/internal/config"
)

// DeepSeekProvider completes prompts with the DeepSeek chat API.
type DeepSeekProvider struct {
	client  deepseek.Client
	timeout time.Duration
}

func NewDeepSeekProvider(cfg config.DeepSeekConfig) (*DeepSeekProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("DeepSeek API key is required")
	}

	client, err := deepseek.NewClient(cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create DeepSeek client: %w", err)
	}

	return &DeepSeekProvider{
		client:  client,
		timeout: time.Duration(cfg.Timeout) * time.Second,
	}, nil
}

func (p *DeepSeekProvider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	system := req.System
	if req.JSON {
		system = strings.TrimSpace(system + "\nReturn raw JSON only, no markdown formatting.")
	}

	messages := []*request.Message{{Role: "user", Content: req.Prompt}}
	if system != "" {
		messages = append([]*request.Message{{Role: "system", Content: system}}, messages...)
	}

	var temp *float32
	if req.Temperature > 0 {
		t := float32(req.Temperature)
		temp = &t
	}

	resp, err := p.client.CallChatCompletionsChat(ctx, &request.ChatCompletionsRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: temp,
	})
	if err != nil {
		return nil, fmt.Errorf("DeepSeek API request failed: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyCompletion
	}

	choice := resp.Choices[0]
	return &Completion{
		Text:         choice.Message.Content,
		FinishReason: choice.FinishReason,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

func (p *DeepSeekProvider) Name() string {
	return config.ProviderDeepSeek
}

func (p *DeepSeekProvider) Close() error {
	return nil
}
