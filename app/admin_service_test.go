package app

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"
	"time"

	"excelytics/internal/errors"
	"excelytics/internal/logging"
	"excelytics/internal/usage"
	"excelytics/models"
	"excelytics/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, f *fixture, actor models.Actor) {
	t.Helper()
	require.NoError(t, f.users.CreateUser(context.Background(), &models.User{
		ID:           actor.UserID,
		Email:        actor.UserID.String() + "@example.com",
		Name:         actor.UserID.String(),
		PasswordHash: "x",
		Role:         actor.Role,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}))
}

func newAdminFixture(t *testing.T) (*fixture, *AdminService) {
	f := newFixture(t)
	for _, a := range []models.Actor{alice, bob, root} {
		seedUser(t, f, a)
	}
	return f, NewAdminService(f.users, f.files, usage.NewService(f.usage), f.cache)
}

func TestAdminRequiresAdminRole(t *testing.T) {
	_, svc := newAdminFixture(t)
	ctx := context.Background()

	_, err := svc.ListUsers(ctx, alice)
	assert.True(t, errors.IsForbidden(err))
	_, err = svc.Stats(ctx, alice)
	assert.True(t, errors.IsForbidden(err))
	assert.True(t, errors.IsForbidden(svc.DeleteUser(ctx, alice, bob.UserID)))
}

func TestAdminUpdateUser(t *testing.T) {
	_, svc := newAdminFixture(t)
	ctx := context.Background()

	inactive := false
	u, err := svc.UpdateUser(ctx, root, alice.UserID, models.UserUpdate{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, u.IsActive)

	admin := models.RoleAdmin
	u, err = svc.UpdateUser(ctx, root, bob.UserID, models.UserUpdate{Role: &admin})
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())

	bogus := models.Role("owner")
	_, err = svc.UpdateUser(ctx, root, bob.UserID, models.UserUpdate{Role: &bogus})
	assert.True(t, errors.IsValidation(err))

	_, err = svc.UpdateUser(ctx, root, root.UserID, models.UserUpdate{IsActive: &inactive})
	assert.Equal(t, errors.CodeConflict, errors.GetCode(err))
}

func TestAdminDeleteUserRemovesFiles(t *testing.T) {
	f, svc := newAdminFixture(t)
	ctx := context.Background()
	file := f.uploadStaff(t, alice)
	kept := f.uploadStaff(t, bob)
	require.NoError(t, f.cache.Set(ctx, insightCacheKey(file.ID), []byte(`{}`), 0))

	require.NoError(t, svc.DeleteUser(ctx, root, alice.UserID))

	_, err := f.files.Get(ctx, file.ID)
	assert.True(t, errors.IsNotFound(err))
	_, err = f.files.Get(ctx, kept.ID)
	assert.NoError(t, err)
	_, err = f.users.GetUserByID(ctx, alice.UserID)
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, 0, f.cache.Len())

	assert.True(t, errors.IsNotFound(svc.DeleteUser(ctx, root, alice.UserID)))
	assert.Equal(t, errors.CodeConflict, errors.GetCode(svc.DeleteUser(ctx, root, root.UserID)))
}

func TestAdminStats(t *testing.T) {
	f, svc := newAdminFixture(t)
	ctx := context.Background()
	f.uploadStaff(t, alice)
	f.uploadStaff(t, bob)
	require.NoError(t, f.usage.RecordUsage(ctx, &models.LLMUsage{
		UserID: alice.UserID, Model: "m", Provider: "openai", OperationType: models.OpFileInsights,
		PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15, CreatedAt: time.Now().UTC(),
	}))

	stats, err := svc.Stats(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Users)
	assert.Equal(t, 1, stats.Admins)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, int64(6), stats.TotalRows)
	assert.Len(t, stats.UploadsPerDay, 14)
	assert.Equal(t, 2, stats.UploadsPerDay[13].Count)
	assert.Equal(t, 15, stats.LLMTokens30d)
}

type brokenDeleteCache struct {
	ports.Cache
}

func (brokenDeleteCache) Delete(context.Context, string) error {
	return stderrors.New("cache unavailable")
}

func TestAdminDeleteUserLogsEvictionFailure(t *testing.T) {
	f, _ := newAdminFixture(t)
	file := f.uploadStaff(t, alice)
	svc := NewAdminService(f.users, f.files, usage.NewService(f.usage), brokenDeleteCache{Cache: f.cache})

	var buf bytes.Buffer
	ctx := logging.WithContext(context.Background(), zerolog.New(&buf))

	require.NoError(t, svc.DeleteUser(ctx, root, alice.UserID))
	assert.Contains(t, buf.String(), "failed to drop cached insight")
	assert.Contains(t, buf.String(), file.ID.String())

	_, err := f.files.Get(ctx, file.ID)
	assert.True(t, errors.IsNotFound(err))
}
