package models

import (
	"github.com/shopspring/decimal"
)

// PricePoint is one end-of-day quote of an instrument.
type PricePoint struct {
	Date   int64 `json:"date"` // epoch seconds
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

// PriceHistory is the parsed quote series of one instrument, newest last.
// It is replaced wholesale on each fetch.
type PriceHistory struct {
	Symbol string
	Name   string
	Quotes []PricePoint
}

// LatestClose returns the close of the most recent quote. ok is false when
// there is no history at all; callers must treat that as "price unknown",
// never as zero.
func (h PriceHistory) LatestClose() (price decimal.Decimal, ok bool) {
	if len(h.Quotes) == 0 {
		return decimal.Zero, false
	}
	return h.Quotes[len(h.Quotes)-1].Close, true
}

// FindHistory returns the history for symbol, if any.
func FindHistory(histories []PriceHistory, symbol string) (PriceHistory, bool) {
	for _, h := range histories {
		if h.Symbol == symbol {
			return h, true
		}
	}
	return PriceHistory{}, false
}
