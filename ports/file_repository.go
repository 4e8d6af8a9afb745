package ports

import (
	"context"
	"time"

	"excelytics/domain/core"
	"excelytics/models"
)

// FileRepository persists normalized uploads. Each Create is a single
// record-level write.
type FileRepository interface {
	Create(ctx context.Context, file *models.StoredFile) error
	// Get returns a NotFound error when no file has the id.
	Get(ctx context.Context, id core.ID) (*models.StoredFile, error)
	ListByOwner(ctx context.Context, ownerID core.ID) ([]models.StoredFileSummary, error)
	// Delete returns a NotFound error when no file has the id.
	Delete(ctx context.Context, id core.ID) error
	DeleteByOwner(ctx context.Context, ownerID core.ID) (int64, error)
	Stats(ctx context.Context, since time.Time) (*models.FileStats, error)
}
