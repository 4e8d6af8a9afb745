package sqldb

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"excelytics/domain/core"
	"excelytics/domain/table"
	"excelytics/internal/errors"
	"excelytics/models"
	"excelytics/ports"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
)

// FileRepositoryImpl implements FileRepository over sqlx
type FileRepositoryImpl struct {
	db *sqlx.DB
}

// NewFileRepository creates a new file repository
func NewFileRepository(db *sqlx.DB) ports.FileRepository {
	return &FileRepositoryImpl{db: db}
}

type fileRow struct {
	ID           core.ID   `db:"id"`
	OwnerID      core.ID   `db:"owner_id"`
	OriginalName string    `db:"original_name"`
	Size         int64     `db:"size"`
	MimeType     string    `db:"mime_type"`
	ColumnsJSON  string    `db:"columns_json"`
	RowsJSON     string    `db:"rows_json"`
	RowCount     int       `db:"row_count"`
	UploadedAt   time.Time `db:"uploaded_at"`
}

func (r fileRow) toModel() (*models.StoredFile, error) {
	f := &models.StoredFile{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		OriginalName: r.OriginalName,
		Size:         r.Size,
		MimeType:     r.MimeType,
		UploadedAt:   r.UploadedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(r.ColumnsJSON), &f.Columns); err != nil {
		return nil, fmt.Errorf("failed to decode columns of file %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.RowsJSON), &f.Rows); err != nil {
		return nil, fmt.Errorf("failed to decode rows of file %s: %w", r.ID, err)
	}
	// Rows are stored positionally; keep them rectangular even if the
	// stored document was written by an older build.
	f.Rows = table.New(f.Columns, f.Rows).Rows
	return f, nil
}

// Create inserts a file in one statement.
func (r *FileRepositoryImpl) Create(ctx context.Context, file *models.StoredFile) error {
	if file.ID.IsEmpty() {
		file.ID = core.NewID()
	}
	if file.UploadedAt.IsZero() {
		file.UploadedAt = utcNow()
	}
	cols, err := json.Marshal(file.Columns)
	if err != nil {
		return fmt.Errorf("failed to encode columns: %w", err)
	}
	rows := file.Rows
	if rows == nil {
		rows = []table.Row{}
	}
	rowsJSON, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode rows: %w", err)
	}

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO files (id, owner_id, original_name, size, mime_type, columns_json, rows_json, row_count, uploaded_at)
		VALUES (:id, :owner_id, :original_name, :size, :mime_type, :columns_json, :rows_json, :row_count, :uploaded_at)
	`, fileRow{
		ID:           file.ID,
		OwnerID:      file.OwnerID,
		OriginalName: file.OriginalName,
		Size:         file.Size,
		MimeType:     file.MimeType,
		ColumnsJSON:  string(cols),
		RowsJSON:     string(rowsJSON),
		RowCount:     len(file.Rows),
		UploadedAt:   file.UploadedAt,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Conflict(fmt.Sprintf("file %s already exists", file.ID))
		}
		return errors.DatabaseError("failed to insert file", err)
	}
	return nil
}

// Get loads a file with its rows.
func (r *FileRepositoryImpl) Get(ctx context.Context, id core.ID) (*models.StoredFile, error) {
	var row fileRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`
		SELECT id, owner_id, original_name, size, mime_type, columns_json, rows_json, row_count, uploaded_at
		FROM files
		WHERE id = ?
	`), id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("file")
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to get file", err)
	}
	return row.toModel()
}

// ListByOwner returns summaries, newest first.
func (r *FileRepositoryImpl) ListByOwner(ctx context.Context, ownerID core.ID) ([]models.StoredFileSummary, error) {
	var rows []fileRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT id, owner_id, original_name, size, mime_type, columns_json, '' AS rows_json, row_count, uploaded_at
		FROM files
		WHERE owner_id = ?
		ORDER BY uploaded_at DESC, id DESC
	`), ownerID)
	if err != nil {
		return nil, errors.DatabaseError("failed to list files", err)
	}

	out := make([]models.StoredFileSummary, 0, len(rows))
	for _, row := range rows {
		s := models.StoredFileSummary{
			ID:           row.ID,
			OwnerID:      row.OwnerID,
			OriginalName: row.OriginalName,
			Size:         row.Size,
			RowCount:     row.RowCount,
			UploadedAt:   row.UploadedAt.UTC(),
		}
		if err := json.Unmarshal([]byte(row.ColumnsJSON), &s.Columns); err != nil {
			return nil, fmt.Errorf("failed to decode columns of file %s: %w", row.ID, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// Delete removes a file permanently.
func (r *FileRepositoryImpl) Delete(ctx context.Context, id core.ID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM files WHERE id = ?`), id)
	if err != nil {
		return errors.DatabaseError("failed to delete file", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.DatabaseError("failed to delete file", err)
	}
	if n == 0 {
		return errors.NotFound("file")
	}
	return nil
}

// DeleteByOwner removes every file of a user and returns how many went.
func (r *FileRepositoryImpl) DeleteByOwner(ctx context.Context, ownerID core.ID) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM files WHERE owner_id = ?`), ownerID)
	if err != nil {
		return 0, errors.DatabaseError("failed to delete files", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.DatabaseError("failed to delete files", err)
	}
	return n, nil
}

// Stats aggregates the store. Uploads are bucketed by UTC day for every
// day from since to today, including days without uploads.
func (r *FileRepositoryImpl) Stats(ctx context.Context, since time.Time) (*models.FileStats, error) {
	stats := &models.FileStats{}
	err := r.db.QueryRowxContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(row_count), 0), COALESCE(SUM(size), 0)
		FROM files
	`).Scan(&stats.Files, &stats.TotalRows, &stats.StorageBytes)
	if err != nil {
		return nil, errors.DatabaseError("failed to aggregate files", err)
	}

	since = since.UTC().Truncate(24 * time.Hour)
	var uploadedAt []time.Time
	err = r.db.SelectContext(ctx, &uploadedAt, r.db.Rebind(`
		SELECT uploaded_at FROM files WHERE uploaded_at >= ?
	`), since)
	if err != nil {
		return nil, errors.DatabaseError("failed to aggregate uploads", err)
	}
	stats.UploadsPerDay = bucketByDay(uploadedAt, since, utcNow())
	return stats, nil
}

func bucketByDay(times []time.Time, since, now time.Time) []models.DailyCount {
	counts := make(map[string]int)
	for _, t := range times {
		counts[t.UTC().Format(time.DateOnly)]++
	}
	var out []models.DailyCount
	for d := since; !d.After(now); d = d.AddDate(0, 0, 1) {
		day := d.Format(time.DateOnly)
		out = append(out, models.DailyCount{Day: day, Count: counts[day]})
	}
	return out
}
