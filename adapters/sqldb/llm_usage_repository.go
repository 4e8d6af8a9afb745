package sqldb

import (
	"context"
	"time"

	"excelytics/domain/core"
	"excelytics/internal/errors"
	"excelytics/models"
	"excelytics/ports"

	"github.com/jmoiron/sqlx"
)

// LLMUsageRepositoryImpl implements LLMUsageRepository over sqlx
type LLMUsageRepositoryImpl struct {
	db *sqlx.DB
}

// NewLLMUsageRepository creates a new LLM usage repository
func NewLLMUsageRepository(db *sqlx.DB) ports.LLMUsageRepository {
	return &LLMUsageRepositoryImpl{db: db}
}

// RecordUsage records LLM usage for an API call
func (r *LLMUsageRepositoryImpl) RecordUsage(ctx context.Context, usage *models.LLMUsage) error {
	if usage.ID.IsEmpty() {
		usage.ID = core.NewID()
	}
	if usage.CreatedAt.IsZero() {
		usage.CreatedAt = utcNow()
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO llm_usage (
			id, user_id, file_id, provider, model, operation_type,
			prompt_tokens, completion_tokens, total_tokens, created_at
		) VALUES (
			:id, :user_id, :file_id, :provider, :model, :operation_type,
			:prompt_tokens, :completion_tokens, :total_tokens, :created_at
		)
	`, usage)
	if err != nil {
		return errors.DatabaseError("failed to record llm usage", err)
	}
	return nil
}

// GetTotalTokens returns total tokens used by a user in a period
func (r *LLMUsageRepositoryImpl) GetTotalTokens(ctx context.Context, userID core.ID, start, end time.Time) (int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, r.db.Rebind(`
		SELECT COALESCE(SUM(total_tokens), 0)
		FROM llm_usage
		WHERE user_id = ? AND created_at >= ? AND created_at <= ?
	`), userID, start.UTC(), end.UTC())
	if err != nil {
		return 0, errors.DatabaseError("failed to sum llm usage", err)
	}
	return total, nil
}

// GetTotalTokensAll returns total tokens used by everyone in a period
func (r *LLMUsageRepositoryImpl) GetTotalTokensAll(ctx context.Context, start, end time.Time) (int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, r.db.Rebind(`
		SELECT COALESCE(SUM(total_tokens), 0)
		FROM llm_usage
		WHERE created_at >= ? AND created_at <= ?
	`), start.UTC(), end.UTC())
	if err != nil {
		return 0, errors.DatabaseError("failed to sum llm usage", err)
	}
	return total, nil
}
