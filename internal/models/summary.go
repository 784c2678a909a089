package models

import "github.com/shopspring/decimal"

// SummaryValue is a backend numeric with formatting metadata: the real value
// is Value / 10^Decimals. All arithmetic must go through Decimal().
type SummaryValue struct {
	Value    int64 `json:"value"`
	Decimals int32 `json:"decimals"`
}

// Decimal converts the pair into its actual value.
func (v SummaryValue) Decimal() decimal.Decimal {
	return decimal.New(v.Value, -v.Decimals)
}

// Position is one open position reported by the trading summary.
type Position struct {
	Symbol      string       `json:"symbol"`
	Label       string       `json:"label"`
	Quantity    SummaryValue `json:"quantity"`
	BuyingPrice SummaryValue `json:"buyingPrice"`
}

// Summary item tags used by the trading-summary endpoint.
const (
	SummaryItemAccount   = "account"
	SummaryItemPositions = "positions"
)

// SummaryItem is one entry of a trading summary: either the account block
// (cash balance) or the positions block.
type SummaryItem struct {
	ID        string        `json:"id"`
	Cash      *SummaryValue `json:"cash,omitempty"`
	Positions []Position    `json:"positions,omitempty"`
}

// PlacedOrder is an order accepted by the backend, kept in the local history
// (the brokerage only retains orders for a year).
type PlacedOrder struct {
	ID        string          `json:"id"`
	Price     decimal.Decimal `json:"price"`
	Symbol    string          `json:"symbol"`
	AccountID string          `json:"account"`
	Quantity  int64           `json:"quantity"`
	Side      string          `json:"side"`
	Timestamp int64           `json:"timestamp,omitempty"`
}
