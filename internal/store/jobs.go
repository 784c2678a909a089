package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bmaret/boursomate/internal/dbx"
	"github.com/bmaret/boursomate/internal/dca"
)

// SQLiteJobStore implements dca.JobStore using a DBTX (either *sql.DB or
// *sql.Tx).
type SQLiteJobStore struct {
	db dbx.DBTX
}

func NewSQLiteJobStore(db dbx.DBTX) *SQLiteJobStore {
	return &SQLiteJobStore{db: db}
}

// SaveJob upserts a job by id. A colliding id replaces the stored row, which
// makes re-submitting an identical definition idempotent.
func (s *SQLiteJobStore) SaveJob(ctx context.Context, job dca.Job) error {
	query := `INSERT INTO jobs (id, frequency, day, symbol, account_id, side, amount, quantity, last_run)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET frequency = excluded.frequency,
				day = excluded.day,
				symbol = excluded.symbol,
				account_id = excluded.account_id,
				side = excluded.side,
				amount = excluded.amount,
				quantity = excluded.quantity,
				last_run = excluded.last_run
	`

	var amount sql.NullString
	if a, ok := job.Order.Size.Amount(); ok {
		amount = sql.NullString{String: a.String(), Valid: true}
	}
	var quantity sql.NullInt64
	if q, ok := job.Order.Size.Quantity(); ok {
		quantity = sql.NullInt64{Int64: q, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		job.ID, string(job.Schedule.Freq), job.Schedule.Day,
		job.Order.Symbol, job.Order.AccountID, job.Order.Side,
		amount, quantity, job.LastRun)
	if err != nil {
		return fmt.Errorf("failed to upsert job: %w", err)
	}
	return nil
}

// ListJobs returns every stored job.
func (s *SQLiteJobStore) ListJobs(ctx context.Context) ([]dca.Job, error) {
	query := `SELECT id, frequency, day, symbol, account_id, side, amount, quantity, last_run FROM jobs ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select jobs: %w", err)
	}
	defer rows.Close()

	var result []dca.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanJob(rows *sql.Rows) (dca.Job, error) {
	var (
		job      dca.Job
		freq     string
		amount   sql.NullString
		quantity sql.NullInt64
	)
	if err := rows.Scan(&job.ID, &freq, &job.Schedule.Day,
		&job.Order.Symbol, &job.Order.AccountID, &job.Order.Side,
		&amount, &quantity, &job.LastRun); err != nil {
		return dca.Job{}, err
	}
	job.Schedule.Freq = dca.Frequency(freq)

	switch {
	case amount.Valid:
		a, err := decimal.NewFromString(amount.String)
		if err != nil {
			return dca.Job{}, fmt.Errorf("corrupt amount for job %s: %w", job.ID, err)
		}
		job.Order.Size = dca.AmountOf(a)
	case quantity.Valid:
		job.Order.Size = dca.SharesOf(quantity.Int64)
	default:
		return dca.Job{}, fmt.Errorf("job %s has neither amount nor quantity", job.ID)
	}
	return job, nil
}

// DeleteJob removes a job. It expects exactly one row to be affected.
func (s *SQLiteJobStore) DeleteJob(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
	return nil
}
