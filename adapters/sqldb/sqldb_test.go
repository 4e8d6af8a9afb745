package sqldb

import (
	"context"
	"testing"
	"time"

	"excelytics/domain/core"
	"excelytics/domain/table"
	"excelytics/internal/errors"
	"excelytics/internal/migration"
	"excelytics/models"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(context.Background(), "sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleFile(owner core.ID) *models.StoredFile {
	return &models.StoredFile{
		OwnerID:      owner,
		OriginalName: "staff.csv",
		Size:         64,
		MimeType:     "text/csv",
		Columns:      []string{"name", "score", "dept"},
		Rows: []table.Row{
			{table.Text("Alice"), table.Number(91, ""), table.Text("Sales")},
			{table.Text("Bob"), table.Empty(), table.Text("Ops")},
		},
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, migration.NewRunner().Run(context.Background(), db))
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), "sqlite3", "")
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestFileRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewFileRepository(openTestDB(t))

	f := sampleFile("owner-1")
	require.NoError(t, repo.Create(ctx, f))
	require.False(t, f.ID.IsEmpty())
	require.False(t, f.UploadedAt.IsZero())

	got, err := repo.Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, f.Columns, got.Columns)
	assert.True(t, f.Table().Equal(got.Table()))
	assert.Equal(t, "staff.csv", got.OriginalName)
	assert.Equal(t, int64(64), got.Size)
	assert.WithinDuration(t, f.UploadedAt, got.UploadedAt, time.Second)
}

func TestFileRepositoryNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewFileRepository(openTestDB(t))

	_, err := repo.Get(ctx, core.NewID())
	assert.True(t, errors.IsNotFound(err))
	assert.True(t, errors.IsNotFound(repo.Delete(ctx, core.NewID())))
}

func TestFileRepositoryDuplicateID(t *testing.T) {
	ctx := context.Background()
	repo := NewFileRepository(openTestDB(t))

	f := sampleFile("owner-1")
	require.NoError(t, repo.Create(ctx, f))
	dup := sampleFile("owner-1")
	dup.ID = f.ID
	assert.Equal(t, errors.CodeConflict, errors.GetCode(repo.Create(ctx, dup)))
}

func TestFileRepositoryListAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewFileRepository(openTestDB(t))

	first := sampleFile("a")
	first.UploadedAt = time.Now().UTC().Add(-time.Hour)
	second := sampleFile("a")
	other := sampleFile("b")
	for _, f := range []*models.StoredFile{first, second, other} {
		require.NoError(t, repo.Create(ctx, f))
	}

	list, err := repo.ListByOwner(ctx, "a")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, 2, list[0].RowCount)
	assert.Equal(t, []string{"name", "score", "dept"}, list[0].Columns)

	require.NoError(t, repo.Delete(ctx, first.ID))
	_, err = repo.Get(ctx, first.ID)
	assert.True(t, errors.IsNotFound(err))

	n, err := repo.DeleteByOwner(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.Get(ctx, other.ID)
	assert.NoError(t, err)
}

func TestFileRepositoryStats(t *testing.T) {
	ctx := context.Background()
	repo := NewFileRepository(openTestDB(t))

	old := sampleFile("a")
	old.UploadedAt = time.Now().UTC().AddDate(0, 0, -30)
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, sampleFile("a")))
	require.NoError(t, repo.Create(ctx, sampleFile("b")))

	since := time.Now().UTC().AddDate(0, 0, -13)
	stats, err := repo.Stats(ctx, since)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Files)
	assert.Equal(t, int64(6), stats.TotalRows)
	assert.Equal(t, int64(192), stats.StorageBytes)
	require.Len(t, stats.UploadsPerDay, 14)
	last := stats.UploadsPerDay[len(stats.UploadsPerDay)-1]
	assert.Equal(t, time.Now().UTC().Format(time.DateOnly), last.Day)
	assert.Equal(t, 2, last.Count)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))

	u := &models.User{Email: " Ann@Example.com", Name: "Ann", PasswordHash: "hash", IsActive: true}
	require.NoError(t, repo.CreateUser(ctx, u))
	assert.Equal(t, models.RoleUser, u.Role)

	got, err := repo.GetUserByEmail(ctx, "ANN@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, got.IsActive)
	assert.Nil(t, got.LastLoginAt)

	err = repo.CreateUser(ctx, &models.User{Email: "ann@example.com", PasswordHash: "x"})
	assert.Equal(t, errors.CodeConflict, errors.GetCode(err))

	require.NoError(t, repo.TouchLastLogin(ctx, u.ID))
	got, err = repo.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastLoginAt)

	inactive := false
	admin := models.RoleAdmin
	updated, err := repo.UpdateUser(ctx, u.ID, models.UserUpdate{IsActive: &inactive, Role: &admin})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, models.RoleAdmin, updated.Role)

	bad := models.Role("root")
	_, err = repo.UpdateUser(ctx, u.ID, models.UserUpdate{Role: &bad})
	assert.True(t, errors.IsValidation(err))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.UserStats{Users: 1, ActiveUsers: 0, Admins: 1}, *stats)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	require.NoError(t, repo.DeleteUser(ctx, u.ID))
	_, err = repo.GetUserByID(ctx, u.ID)
	assert.True(t, errors.IsNotFound(err))
	assert.True(t, errors.IsNotFound(repo.DeleteUser(ctx, u.ID)))
	_, err = repo.UpdateUser(ctx, u.ID, models.UserUpdate{IsActive: &inactive})
	assert.True(t, errors.IsNotFound(err))
}

func TestLLMUsageRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewLLMUsageRepository(openTestDB(t))

	for _, n := range []int{100, 250} {
		require.NoError(t, repo.RecordUsage(ctx, &models.LLMUsage{
			UserID: "u1", Provider: "openai", Model: "gpt-4o-mini",
			OperationType: models.OpFileInsights, TotalTokens: n,
		}))
	}
	require.NoError(t, repo.RecordUsage(ctx, &models.LLMUsage{
		UserID: "u2", Provider: "openai", Model: "gpt-4o-mini",
		OperationType: models.OpFileInsights, TotalTokens: 5,
		CreatedAt: time.Now().UTC().AddDate(0, 0, -40),
	}))

	end := time.Now().UTC().Add(time.Minute)
	start := end.AddDate(0, 0, -30)
	total, err := repo.GetTotalTokens(ctx, "u1", start, end)
	require.NoError(t, err)
	assert.Equal(t, 350, total)

	all, err := repo.GetTotalTokensAll(ctx, start, end)
	require.NoError(t, err)
	assert.Equal(t, 350, all)
}

func TestBucketByDay(t *testing.T) {
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)
	got := bucketByDay([]time.Time{
		time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 3, 1, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 3, 2, 0, 0, 0, time.UTC),
	}, since, now)
	assert.Equal(t, []models.DailyCount{
		{Day: "2026-03-01", Count: 1},
		{Day: "2026-03-02", Count: 0},
		{Day: "2026-03-03", Count: 2},
	}, got)
}
