package ports

import (
	"context"
	"time"

	"excelytics/domain/core"
	"excelytics/models"
)

// LLMUsageRepository defines the interface for LLM usage data operations
type LLMUsageRepository interface {
	// Record usage for an LLM call
	RecordUsage(ctx context.Context, usage *models.LLMUsage) error

	// Get total token counts for a user in a period
	GetTotalTokens(ctx context.Context, userID core.ID, start, end time.Time) (int, error)

	// Get total token counts across all users in a period
	GetTotalTokensAll(ctx context.Context, start, end time.Time) (int, error)
}
