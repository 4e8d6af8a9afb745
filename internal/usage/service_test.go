package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"excelytics/domain/core"
	"excelytics/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockUsageRepo struct {
	mock.Mock
}

func (m *mockUsageRepo) RecordUsage(ctx context.Context, usage *models.LLMUsage) error {
	return m.Called(ctx, usage).Error(0)
}

func (m *mockUsageRepo) GetTotalTokens(ctx context.Context, userID core.ID, start, end time.Time) (int, error) {
	args := m.Called(ctx, userID, start, end)
	return args.Int(0), args.Error(1)
}

func (m *mockUsageRepo) GetTotalTokensAll(ctx context.Context, start, end time.Time) (int, error) {
	args := m.Called(ctx, start, end)
	return args.Int(0), args.Error(1)
}

func TestRecordUsagePersistsOnce(t *testing.T) {
	repo := &mockUsageRepo{}
	repo.On("RecordUsage", mock.Anything, mock.MatchedBy(func(u *models.LLMUsage) bool {
		return u.UserID == "u1" && u.FileID == "f1" && u.TotalTokens == 30 && u.OperationType == models.OpFileInsights
	})).Return(errors.New("db down")).Once()

	s := NewService(repo)
	s.RecordUsage("u1", "f1", models.OpFileInsights, &models.UsageData{PromptTokens: 20, CompletionTokens: 10, TotalTokens: 30, Provider: "openai", Model: "m"})
	s.Wait()

	repo.AssertNumberOfCalls(t, "RecordUsage", 1)
}

func TestRecordUsageSkipsInvalid(t *testing.T) {
	repo := &mockUsageRepo{}
	s := NewService(repo)
	s.RecordUsage("u1", "f1", models.OpFileInsights, nil)
	s.RecordUsage("u1", "f1", models.OpFileInsights, &models.UsageData{TotalTokens: -1})
	s.Wait()
	repo.AssertNotCalled(t, "RecordUsage", mock.Anything, mock.Anything)
}

func TestTokensSince(t *testing.T) {
	repo := &mockUsageRepo{}
	since := time.Now().Add(-time.Hour)
	repo.On("GetTotalTokensAll", mock.Anything, since, mock.AnythingOfType("time.Time")).Return(99, nil)

	n, err := NewService(repo).TokensSince(context.Background(), since)
	assert.NoError(t, err)
	assert.Equal(t, 99, n)
}
