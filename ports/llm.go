package ports

import (
	"context"

	"excelytics/models"
)

// LLMClient interface for LLM providers
type LLMClient interface {
	ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error)

	// ChatCompletionWithUsage also reports token usage when the provider
	// returns it.
	ChatCompletionWithUsage(ctx context.Context, model string, prompt string, maxTokens int) (*models.LLMResponse, error)
}
