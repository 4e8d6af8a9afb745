package app

import (
	"context"
	"io"
	"time"

	"excelytics/adapters/excel"
	"excelytics/domain/chart"
	"excelytics/domain/core"
	"excelytics/domain/table"
	"excelytics/internal/errors"
	"excelytics/internal/logging"
	"excelytics/internal/metrics"
	"excelytics/internal/upload"
	"excelytics/models"
	"excelytics/ports"
)

// Upload is one file received from a client.
type Upload struct {
	Name     string
	Size     int64
	MimeType string
	Body     io.Reader
}

// FileService turns uploads into stored tables and serves them back to
// their owners.
type FileService struct {
	files  ports.FileRepository
	gate   *upload.Gate
	stager *upload.Stager
	cache  ports.Cache
	now    func() time.Time
}

// NewFileService creates a file service. cache may be nil.
func NewFileService(files ports.FileRepository, gate *upload.Gate, stager *upload.Stager, cache ports.Cache) *FileService {
	return &FileService{
		files:  files,
		gate:   gate,
		stager: stager,
		cache:  cache,
		now:    time.Now,
	}
}

// Upload validates, normalizes and persists a spreadsheet. Nothing is
// stored when any step fails, and the staged copy is always removed.
func (s *FileService) Upload(ctx context.Context, actor models.Actor, up Upload) (*models.StoredFile, error) {
	if actor.UserID.IsEmpty() {
		return nil, errors.Unauthorized("authentication required")
	}

	t, size, err := s.normalize(ctx, up)
	if err != nil {
		return nil, err
	}

	file := &models.StoredFile{
		ID:           core.NewID(),
		OwnerID:      actor.UserID,
		OriginalName: up.Name,
		Size:         size,
		MimeType:     up.MimeType,
		Columns:      t.Columns,
		Rows:         t.Rows,
		UploadedAt:   s.now().UTC(),
	}
	if err := s.files.Create(ctx, file); err != nil {
		metrics.RecordUpload("failed", size)
		return nil, errors.Wrap(err, "failed to store file")
	}

	metrics.RecordUpload("stored", size)
	log := logging.Ctx(ctx)
	log.Info().
		Str("file_id", file.ID.String()).
		Str("owner_id", file.OwnerID.String()).
		Int("columns", len(file.Columns)).
		Int("rows", len(file.Rows)).
		Msg("file stored")
	return file, nil
}

// Preview runs the same gate and normalizer as Upload without storing
// anything.
func (s *FileService) Preview(ctx context.Context, up Upload) (*table.Table, error) {
	t, size, err := s.normalize(ctx, up)
	if err != nil {
		return nil, err
	}
	metrics.RecordUpload("previewed", size)
	return t, nil
}

func (s *FileService) normalize(ctx context.Context, up Upload) (*table.Table, int64, error) {
	header := upload.FileHeader{Name: up.Name, Size: up.Size, MimeType: up.MimeType}
	if err := s.gate.Validate(header); err != nil {
		metrics.RecordUpload("rejected", up.Size)
		return nil, 0, err
	}

	staged, err := s.stager.Stage(ctx, up.Body, up.Name)
	if err != nil {
		if errors.IsValidation(err) {
			metrics.RecordUpload("rejected", up.Size)
		} else {
			metrics.RecordUpload("failed", up.Size)
		}
		return nil, 0, err
	}
	defer s.stager.Remove(staged)

	data, err := s.stager.Read(staged)
	if err != nil {
		metrics.RecordUpload("failed", staged.Size)
		return nil, 0, err
	}

	start := time.Now()
	t, err := excel.Normalize(data)
	metrics.RecordNormalize(string(excel.DetectFormat(data)), time.Since(start))
	if err != nil {
		metrics.RecordUpload("unparseable", staged.Size)
		return nil, 0, err
	}
	return t, staged.Size, nil
}

// Get returns a file the actor may read.
func (s *FileService) Get(ctx context.Context, actor models.Actor, id core.ID) (*models.StoredFile, error) {
	file, err := s.files.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(file.OwnerID) {
		return nil, errors.Forbidden("you do not have access to this file")
	}
	return file, nil
}

// List returns ownerID's files, newest first. An empty ownerID means the
// actor's own files; only admins may list someone else's.
func (s *FileService) List(ctx context.Context, actor models.Actor, ownerID core.ID) ([]models.StoredFileSummary, error) {
	if ownerID.IsEmpty() {
		ownerID = actor.UserID
	}
	if !actor.CanAccess(ownerID) {
		return nil, errors.Forbidden("you may only list your own files")
	}
	files, err := s.files.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []models.StoredFileSummary{}
	}
	return files, nil
}

// Delete removes a file the actor may access and drops its cached insight.
func (s *FileService) Delete(ctx context.Context, actor models.Actor, id core.ID) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.files.Delete(ctx, id); err != nil {
		return err
	}
	s.forgetInsight(ctx, id)

	log := logging.Ctx(ctx)
	log.Info().Str("file_id", id.String()).Str("actor_id", actor.UserID.String()).Msg("file deleted")
	return nil
}

// Chart projects a stored file onto a chart.
func (s *FileService) Chart(ctx context.Context, actor models.Actor, id core.ID, req chart.Request) (*chart.Projection, error) {
	file, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return chart.Project(file.Table(), req)
}

func (s *FileService) forgetInsight(ctx context.Context, id core.ID) {
	evictInsight(ctx, s.cache, id)
}

// evictInsight drops a cached insight. Failures are logged; the entry
// expires on its own.
func evictInsight(ctx context.Context, cache ports.Cache, id core.ID) {
	if cache == nil {
		return
	}
	if err := cache.Delete(ctx, insightCacheKey(id)); err != nil {
		log := logging.Ctx(ctx)
		log.Warn().Err(err).Str("file_id", id.String()).Msg("failed to drop cached insight")
	}
}

func insightCacheKey(id core.ID) string {
	return "insight:" + id.String()
}
