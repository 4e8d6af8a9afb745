package models

import (
	"bytes"
	"time"

	"excelytics/domain/core"
	"excelytics/domain/table"

	"github.com/goccy/go-json"
)

// StoredFile is one uploaded spreadsheet after normalization.
type StoredFile struct {
	ID           core.ID     `json:"id"`
	OwnerID      core.ID     `json:"owner_id"`
	OriginalName string      `json:"original_name"`
	Size         int64       `json:"size"`
	MimeType     string      `json:"mime_type"`
	Columns      []string    `json:"columns"`
	Rows         []table.Row `json:"-"`
	UploadedAt   time.Time   `json:"uploaded_at"`
}

// Table returns the file contents as a table.
func (f *StoredFile) Table() *table.Table {
	return table.New(f.Columns, f.Rows)
}

// Summary strips the rows.
func (f *StoredFile) Summary() StoredFileSummary {
	return StoredFileSummary{
		ID:           f.ID,
		OwnerID:      f.OwnerID,
		OriginalName: f.OriginalName,
		Columns:      f.Columns,
		Size:         f.Size,
		RowCount:     len(f.Rows),
		UploadedAt:   f.UploadedAt,
	}
}

type storedFileMeta StoredFile

// MarshalJSON adds rows as objects keyed by column name.
func (f *StoredFile) MarshalJSON() ([]byte, error) {
	meta, err := json.Marshal((*storedFileMeta)(f))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Write(meta[:len(meta)-1])
	buf.WriteString(`,"rows":`)
	if err := table.WriteRowObjects(&buf, f.Columns, f.Rows); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// StoredFileSummary is the listing form of a StoredFile.
type StoredFileSummary struct {
	ID           core.ID   `json:"id" db:"id"`
	OwnerID      core.ID   `json:"owner_id" db:"owner_id"`
	OriginalName string    `json:"original_name" db:"original_name"`
	Columns      []string  `json:"columns" db:"-"`
	Size         int64     `json:"size" db:"size"`
	RowCount     int       `json:"row_count" db:"row_count"`
	UploadedAt   time.Time `json:"uploaded_at" db:"uploaded_at"`
}
