// Package usage records LLM token consumption per user.
package usage

import (
	"context"
	"sync"
	"time"

	"excelytics/domain/core"
	"excelytics/internal/logging"
	"excelytics/models"
	"excelytics/ports"
)

const persistTimeout = 5 * time.Second

// Service handles LLM usage tracking and persistence
type Service struct {
	repo ports.LLMUsageRepository
	wg   sync.WaitGroup
}

// NewService creates a new usage service
func NewService(repo ports.LLMUsageRepository) *Service {
	return &Service{repo: repo}
}

// RecordUsage persists usage in the background with a single attempt.
// Tracking problems are logged and never reach the caller.
func (s *Service) RecordUsage(userID, fileID core.ID, operationType string, usage *models.UsageData) {
	log := logging.Component("usage")
	if usage == nil {
		return
	}
	if usage.PromptTokens < 0 || usage.CompletionTokens < 0 || usage.TotalTokens < 0 {
		log.Warn().Interface("usage", usage).Msg("invalid token counts")
		return
	}

	record := &models.LLMUsage{
		UserID:           userID,
		FileID:           fileID,
		Provider:         usage.Provider,
		Model:            usage.Model,
		OperationType:    operationType,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		CreatedAt:        time.Now().UTC(),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.repo.RecordUsage(ctx, record); err != nil {
			log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to persist llm usage")
		}
	}()
}

// TokensSince sums every user's tokens from since until now.
func (s *Service) TokensSince(ctx context.Context, since time.Time) (int, error) {
	return s.repo.GetTotalTokensAll(ctx, since, time.Now().UTC())
}

// Wait blocks until pending writes finish.
func (s *Service) Wait() {
	s.wg.Wait()
}
