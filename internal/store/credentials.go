package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bmaret/boursomate/internal/dbx"
	"github.com/bmaret/boursomate/internal/models"
)

// ErrNoCredentials means nothing has been stored yet.
var ErrNoCredentials = errors.New("no stored credentials")

// SQLiteCredentialStore persists login credentials as a single row. The
// client id is always stored after a successful login; the password only
// when the user explicitly opts in.
type SQLiteCredentialStore struct {
	db dbx.DBTX
}

func NewSQLiteCredentialStore(db dbx.DBTX) *SQLiteCredentialStore {
	return &SQLiteCredentialStore{db: db}
}

// Save stores the client id and, when savePassword is set, the password.
// Opting out wipes any previously stored password.
func (s *SQLiteCredentialStore) Save(ctx context.Context, creds models.Credentials, savePassword bool) error {
	var password sql.NullString
	if savePassword {
		password = sql.NullString{String: creds.Password, Valid: true}
	}

	query := `INSERT INTO credentials (id, client_id, password) VALUES (1, ?, ?)
			ON CONFLICT(id) DO UPDATE SET client_id = excluded.client_id,
				password = excluded.password
	`
	if _, err := s.db.ExecContext(ctx, query, creds.ClientID, password); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

// Load returns the stored credentials. Password is empty unless the user
// opted in to storing it.
func (s *SQLiteCredentialStore) Load(ctx context.Context) (models.Credentials, error) {
	row := s.db.QueryRowContext(ctx, `SELECT client_id, password FROM credentials WHERE id=1`)

	var (
		creds    models.Credentials
		password sql.NullString
	)
	if err := row.Scan(&creds.ClientID, &password); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Credentials{}, ErrNoCredentials
		}
		return models.Credentials{}, fmt.Errorf("failed to load credentials: %w", err)
	}
	creds.Password = password.String
	return creds, nil
}

// Clear removes the stored row entirely.
func (s *SQLiteCredentialStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE id=1`); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
