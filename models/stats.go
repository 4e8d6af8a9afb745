package models

// DailyCount is a number of events on one calendar day (UTC, YYYY-MM-DD).
type DailyCount struct {
	Day   string `json:"day" db:"day"`
	Count int    `json:"count" db:"count"`
}

// FileStats aggregates the file store.
type FileStats struct {
	Files         int          `json:"files"`
	TotalRows     int64        `json:"total_rows"`
	StorageBytes  int64        `json:"storage_bytes"`
	UploadsPerDay []DailyCount `json:"uploads_per_day"`
}

// UserStats aggregates accounts.
type UserStats struct {
	Users       int `json:"users"`
	ActiveUsers int `json:"active_users"`
	Admins      int `json:"admins"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	UserStats
	FileStats
	LLMTokens30d int `json:"llm_tokens_30d"`
}
