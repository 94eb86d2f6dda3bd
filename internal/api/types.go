package api

// CompletionRequest is a single-turn prompt: extraction never needs history.
type CompletionRequest struct {
	System      string
	Prompt      string
	Model       string
	MaxTokens   int
	Temperature float64
	// JSON asks the provider to constrain output to a JSON object.
	JSON bool
}

type Completion struct {
	Text         string
	FinishReason string
	Usage        Usage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
}
