package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bmaret/boursomate/internal/dbx"
	"github.com/bmaret/boursomate/internal/models"
)

// SQLiteOrderStore keeps the local order history. The brokerage only retains
// orders for a year; this archive has no retention limit.
type SQLiteOrderStore struct {
	db dbx.DBTX
}

func NewSQLiteOrderStore(db dbx.DBTX) *SQLiteOrderStore {
	return &SQLiteOrderStore{db: db}
}

// RecordOrder appends an executed order. Replaying the same order id
// overwrites the row, so re-recording after a partial failure is safe.
func (s *SQLiteOrderStore) RecordOrder(ctx context.Context, order models.PlacedOrder) error {
	query := `INSERT INTO orders (id, price, symbol, account_id, quantity, side, placed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET price = excluded.price,
				symbol = excluded.symbol,
				account_id = excluded.account_id,
				quantity = excluded.quantity,
				side = excluded.side,
				placed_at = excluded.placed_at
	`
	_, err := s.db.ExecContext(ctx, query,
		order.ID, order.Price.String(), order.Symbol, order.AccountID,
		order.Quantity, order.Side, order.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to record order: %w", err)
	}
	return nil
}

// ListOrders returns the order history, newest first.
func (s *SQLiteOrderStore) ListOrders(ctx context.Context) ([]models.PlacedOrder, error) {
	query := `SELECT id, price, symbol, account_id, quantity, side, placed_at FROM orders ORDER BY placed_at DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}
	defer rows.Close()

	var result []models.PlacedOrder
	for rows.Next() {
		var (
			order models.PlacedOrder
			price string
		)
		if err := rows.Scan(&order.ID, &price, &order.Symbol, &order.AccountID,
			&order.Quantity, &order.Side, &order.Timestamp); err != nil {
			return nil, err
		}
		order.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("corrupt price for order %s: %w", order.ID, err)
		}
		result = append(result, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
