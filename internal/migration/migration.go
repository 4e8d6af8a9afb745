package migration

import (
	"context"
	"fmt"

	"excelytics/internal/errors"

	"github.com/jmoiron/sqlx"
)

// MigrationRunner creates the schema with idempotent DDL. It speaks both
// PostgreSQL and SQLite; the dialect is taken from the driver name.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the schema version the runner creates
func (r *MigrationRunner) Version() string {
	return r.version
}

type dialect struct {
	timestamp string
	bigint    string
}

func dialectFor(db *sqlx.DB) (dialect, error) {
	switch db.DriverName() {
	case "postgres", "pgx":
		return dialect{timestamp: "TIMESTAMP WITH TIME ZONE", bigint: "BIGINT"}, nil
	case "sqlite3", "sqlite":
		return dialect{timestamp: "TIMESTAMP", bigint: "INTEGER"}, nil
	default:
		return dialect{}, errors.ConfigInvalid(fmt.Sprintf("unsupported database driver %q", db.DriverName()))
	}
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	d, err := dialectFor(db)
	if err != nil {
		return err
	}

	if err := r.createUsersTable(ctx, db, d); err != nil {
		return errors.Wrap(err, "failed to create users table")
	}

	if err := r.createFilesTable(ctx, db, d); err != nil {
		return errors.Wrap(err, "failed to create files table")
	}

	if err := r.createLLMUsageTable(ctx, db, d); err != nil {
		return errors.Wrap(err, "failed to create llm_usage table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createUsersTable(ctx context.Context, db *sqlx.DB, d dialect) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL DEFAULT '',
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(16) NOT NULL DEFAULT 'user',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at %[1]s NOT NULL,
			last_login_at %[1]s
		)
	`, d.timestamp))
	return err
}

func (r *MigrationRunner) createFilesTable(ctx context.Context, db *sqlx.DB, d dialect) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS files (
			id VARCHAR(36) PRIMARY KEY,
			owner_id VARCHAR(36) NOT NULL,
			original_name VARCHAR(512) NOT NULL,
			size %[2]s NOT NULL,
			mime_type VARCHAR(128) NOT NULL,
			columns_json TEXT NOT NULL,
			rows_json TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			uploaded_at %[1]s NOT NULL
		)
	`, d.timestamp, d.bigint))
	return err
}

func (r *MigrationRunner) createLLMUsageTable(ctx context.Context, db *sqlx.DB, d dialect) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS llm_usage (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			file_id VARCHAR(36) NOT NULL DEFAULT '',
			provider VARCHAR(50) NOT NULL,
			model VARCHAR(100) NOT NULL,
			operation_type VARCHAR(50) NOT NULL,
			prompt_tokens INTEGER NOT NULL DEFAULT 0,
			completion_tokens INTEGER NOT NULL DEFAULT 0,
			total_tokens INTEGER NOT NULL DEFAULT 0,
			created_at %[1]s NOT NULL
		)
	`, d.timestamp))
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_files_owner_id ON files(owner_id)",
		"CREATE INDEX IF NOT EXISTS idx_files_uploaded_at ON files(uploaded_at)",
		"CREATE INDEX IF NOT EXISTS idx_llm_usage_user_id ON llm_usage(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_llm_usage_created_at ON llm_usage(created_at)",
	}

	for _, indexSQL := range indexes {
		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
