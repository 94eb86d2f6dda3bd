package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/notexe/rimix/internal/api"
	"github.com/notexe/rimix/internal/config"
	"github.com/notexe/rimix/internal/reminder"
)

// LLMExtractor asks a model to structure the input as JSON.
type LLMExtractor struct {
	provider api.Provider
	model    config.ModelSettings
	logger   *log.Logger

	Location *time.Location
	Now      func() time.Time

	// Fallback handles the input when the provider fails or returns
	// something unusable. Nil means the error is returned.
	Fallback Extractor
}

func NewLLMExtractor(provider api.Provider, model config.ModelSettings, logger *log.Logger) *LLMExtractor {
	if logger == nil {
		logger = log.Default()
	}
	return &LLMExtractor{
		provider: provider,
		model:    model,
		logger:   logger,
	}
}

func (e *LLMExtractor) Extract(ctx context.Context, input string) (reminder.Draft, error) {
	d, err := e.extract(ctx, input)
	if err == nil {
		return d, nil
	}
	if e.Fallback == nil || ctx.Err() != nil {
		return reminder.Draft{}, err
	}

	e.logger.Printf("[extract] %s failed, using fallback: %v", e.provider.Name(), err)
	return e.Fallback.Extract(ctx, input)
}

func (e *LLMExtractor) extract(ctx context.Context, input string) (reminder.Draft, error) {
	resp, err := e.provider.Complete(ctx, api.CompletionRequest{
		System:      buildExtractPrompt(now(e.Location, e.Now)),
		Prompt:      input,
		Model:       e.model.Name,
		MaxTokens:   e.model.MaxTokens,
		Temperature: e.model.Temperature,
		JSON:        true,
	})
	if err != nil {
		return reminder.Draft{}, fmt.Errorf("failed to complete prompt: %w", err)
	}

	d, err := parseDraft(resp.Text)
	if err != nil {
		return reminder.Draft{}, fmt.Errorf("parse extract response: %w", err)
	}

	e.logger.Printf("[extract] %s: %d in / %d out tokens",
		e.provider.Name(), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	return d, nil
}

func buildExtractPrompt(today time.Time) string {
	var sb strings.Builder

	sb.WriteString("You turn a short note into a reminder.\n")
	sb.WriteString(fmt.Sprintf("Today is %s (%s).\n\n", today.Format(reminder.DateLayout), today.Weekday()))
	sb.WriteString("Respond with ONLY a JSON object with these keys:\n")
	sb.WriteString("  title: short imperative title\n")
	sb.WriteString("  description: any remaining detail, or \"\"\n")
	sb.WriteString("  date: YYYY-MM-DD, or \"\" if no day is mentioned\n")
	sb.WriteString("  time: HH:MM in 24-hour time, or \"\" if no time is mentioned\n")
	sb.WriteString("  priority: one of low, medium, high\n")
	sb.WriteString("  category: one word such as Personal, Work, Health\n")
	sb.WriteString("Resolve relative days against today. Do not invent a time.\n")

	return sb.String()
}

// parseDraft reads the first JSON object in the response. Fields that do not
// validate are dropped so the draft's defaults apply.
func parseDraft(content string) (reminder.Draft, error) {
	content = cleanCodeFence(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end <= start {
		return reminder.Draft{}, fmt.Errorf("no JSON object found in response")
	}

	var d reminder.Draft
	if err := json.Unmarshal([]byte(content[start:end+1]), &d); err != nil {
		return reminder.Draft{}, fmt.Errorf("invalid JSON: %w", err)
	}

	if strings.TrimSpace(d.Title) == "" {
		return reminder.Draft{}, fmt.Errorf("response has no title")
	}

	d.Priority = strings.ToLower(strings.TrimSpace(d.Priority))
	if !reminder.ValidPriority(d.Priority) {
		d.Priority = ""
	}
	if d.Date != "" {
		if _, err := time.Parse(reminder.DateLayout, d.Date); err != nil {
			d.Date = ""
		}
	}
	if d.Time != "" {
		if (reminder.Reminder{Title: d.Title, Priority: reminder.PriorityMedium, Time: d.Time}).Validate() != nil {
			d.Time = ""
		}
	}

	return d, nil
}

func cleanCodeFence(content string) string {
	content = strings.TrimSpace(content)

	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")

	content = strings.TrimSuffix(content, "```")

	return strings.TrimSpace(content)
}
