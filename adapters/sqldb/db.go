// Package sqldb holds the sqlx repositories. The same queries run on
// PostgreSQL in production and SQLite in development and tests; every
// statement is written with ? placeholders and rebound for the driver.
package sqldb

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"excelytics/internal/errors"
	"excelytics/internal/migration"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Open connects, pings and migrates the database.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}
	if driver == "sqlite3" {
		// One connection keeps ":memory:" databases alive and serializes writes.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}
	return db, nil
}

// isUniqueViolation recognizes duplicate-key errors from either driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if stderrors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
