package models

import (
	"time"

	"excelytics/domain/core"
)

// Insight is generated prose about a stored file.
type Insight struct {
	FileID      core.ID   `json:"file_id"`
	Text        string    `json:"text"`
	HTML        string    `json:"html"`
	Model       string    `json:"model"`
	SampledRows int       `json:"sampled_rows"`
	GeneratedAt time.Time `json:"generated_at"`
	Cached      bool      `json:"cached"`
}
