package models

import (
	"time"

	"excelytics/domain/core"
)

// LLMUsage represents a single LLM API call's token usage
type LLMUsage struct {
	ID               core.ID   `json:"id" db:"id"`
	UserID           core.ID   `json:"user_id" db:"user_id"`
	FileID           core.ID   `json:"file_id,omitempty" db:"file_id"`
	Provider         string    `json:"provider" db:"provider"`
	Model            string    `json:"model" db:"model"`
	OperationType    string    `json:"operation_type" db:"operation_type"`
	PromptTokens     int       `json:"prompt_tokens" db:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens" db:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens" db:"total_tokens"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// UsageData represents raw usage data from LLM provider APIs
type UsageData struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
	Provider         string `json:"provider"`
}

// LLMResponse represents an LLM response with usage data
type LLMResponse struct {
	Content string
	Usage   *UsageData
}

// Operation types for categorization
const (
	OpFileInsights = "file_insights"
)
