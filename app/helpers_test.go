package app

import (
	"context"
	"strings"
	"testing"

	"excelytics/adapters/cache"
	"excelytics/adapters/sqldb"
	"excelytics/ai"
	"excelytics/domain/core"
	"excelytics/internal/upload"
	"excelytics/models"
	"excelytics/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const staffCSV = "name,score,dept\nAlice,91,Sales\n,,\nBob,78,Ops\nCarol,85,Sales\n"

var (
	alice = models.Actor{UserID: "user-a", Role: models.RoleUser}
	bob   = models.Actor{UserID: "user-b", Role: models.RoleUser}
	root  = models.Actor{UserID: "admin-1", Role: models.RoleAdmin}
)

type fixture struct {
	users ports.UserRepository
	files ports.FileRepository
	usage ports.LLMUsageRepository
	cache *cache.MemoryCache
	svc   *FileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sqldb.Open(context.Background(), "sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		users: sqldb.NewUserRepository(db),
		files: sqldb.NewFileRepository(db),
		usage: sqldb.NewLLMUsageRepository(db),
		cache: cache.NewMemoryCache(16),
	}
	f.svc = NewFileService(f.files, upload.NewGate(upload.DefaultMaxBytes), upload.NewStager(t.TempDir(), upload.DefaultMaxBytes), f.cache)
	return f
}

func csvUpload(body string) Upload {
	return Upload{Name: "staff.csv", Size: int64(len(body)), MimeType: upload.MimeCSV, Body: strings.NewReader(body)}
}

func (f *fixture) uploadStaff(t *testing.T, actor models.Actor) *models.StoredFile {
	t.Helper()
	file, err := f.svc.Upload(context.Background(), actor, csvUpload(staffCSV))
	require.NoError(t, err)
	return file
}

func newPromptBuilder() *ai.InsightPromptBuilder {
	return ai.NewInsightPromptBuilder(ai.NewPromptManager(""))
}

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error) {
	args := m.Called(ctx, model, prompt, maxTokens)
	return args.String(0), args.Error(1)
}

func (m *mockLLM) ChatCompletionWithUsage(ctx context.Context, model string, prompt string, maxTokens int) (*models.LLMResponse, error) {
	args := m.Called(ctx, model, prompt, maxTokens)
	resp, _ := args.Get(0).(*models.LLMResponse)
	return resp, args.Error(1)
}

type recordedUsage struct {
	userID, fileID core.ID
	op             string
	usage          *models.UsageData
}

type usageSpy struct {
	calls []recordedUsage
}

func (s *usageSpy) RecordUsage(userID, fileID core.ID, op string, usage *models.UsageData) {
	s.calls = append(s.calls, recordedUsage{userID, fileID, op, usage})
}
