// Package store persists the local state that outlives a session: recurring
// job definitions, the executed-order history, and (opt-in) credentials.
// Everything lives in one SQLite database migrated with goose.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/bmaret/boursomate/internal/dbx"
	"github.com/bmaret/boursomate/internal/store/migrations"
)

// Stores bundles the repositories bound to one database.
type Stores struct {
	Jobs        *SQLiteJobStore
	Orders      *SQLiteOrderStore
	Credentials *SQLiteCredentialStore

	db *sql.DB
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the SQLite database at dsn, applies pending migrations
// and returns the repositories.
func InitDatabase(ctx context.Context, dsn string) (*Stores, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Stores{
		Jobs:        NewSQLiteJobStore(db),
		Orders:      NewSQLiteOrderStore(db),
		Credentials: NewSQLiteCredentialStore(db),
		db:          db,
	}, nil
}

func (s *Stores) Close() error {
	return s.db.Close()
}

// Purge wipes all local state in one transaction: jobs, order history and
// stored credentials.
func (s *Stores) Purge(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, table := range []string{"orders", "jobs", "credentials"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("purging %s: %w", table, err)
			}
		}
		return nil
	})
}
