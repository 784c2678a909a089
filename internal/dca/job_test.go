package dca

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bmaret/boursomate/internal/models"
)

func amountOrder(symbol, account string, amount string) OrderSpec {
	return OrderSpec{
		Symbol:    symbol,
		AccountID: account,
		Side:      SideBuy,
		Size:      AmountOf(decimal.RequireFromString(amount)),
	}
}

func sharesOrder(symbol, account string, qty int64) OrderSpec {
	return OrderSpec{
		Symbol:    symbol,
		AccountID: account,
		Side:      SideBuy,
		Size:      SharesOf(qty),
	}
}

func historyWithClose(symbol, close string) models.PriceHistory {
	return models.PriceHistory{
		Symbol: symbol,
		Quotes: []models.PricePoint{
			{Date: 1, Close: decimal.RequireFromString("95.00")},
			{Date: 2, Close: decimal.RequireFromString(close)},
		},
	}
}

func TestNewJob_DeterministicID(t *testing.T) {
	a, err := NewJob(Schedule{Freq: Monthly, Day: 1}, amountOrder("1rTCW8", "pea-1", "50"))
	require.NoError(t, err)
	b, err := NewJob(Schedule{Freq: Monthly, Day: 1}, amountOrder("1rTCW8", "pea-1", "50"))
	require.NoError(t, err)

	require.Equal(t, "monthlyorder_buy_50_1rTCW8", a.ID)
	require.Equal(t, a.ID, b.ID, "identical definitions collide by design")

	c, err := NewJob(Schedule{Freq: Weekly, Day: 1}, sharesOrder("1rTCW8", "pea-1", 3))
	require.NoError(t, err)
	require.Equal(t, "weeklyorder_buy_3_1rTCW8", c.ID)
}

func TestNewJob_SizeExactlyOne(t *testing.T) {
	_, err := NewJob(Schedule{Freq: Daily}, OrderSpec{
		Symbol: "1rTCW8", AccountID: "pea-1", Side: SideBuy,
	})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "size", verr.Field)
}

func TestOrderSize_JSONRoundTrip(t *testing.T) {
	spec := amountOrder("1rTCW8", "pea-1", "50")
	raw, err := json.Marshal(spec)
	require.NoError(t, err)

	var back OrderSpec
	require.NoError(t, json.Unmarshal(raw, &back))
	amount, ok := back.Size.Amount()
	require.True(t, ok)
	require.True(t, amount.Equal(decimal.RequireFromString("50")))

	require.Error(t, json.Unmarshal([]byte(`{"amount":"50","quantity":3}`), &back.Size),
		"both variants set must not decode")
	require.Error(t, json.Unmarshal([]byte(`{}`), &back.Size),
		"neither variant set must not decode")
}

func TestEstimateCost(t *testing.T) {
	histories := []models.PriceHistory{historyWithClose("1rTCW8", "100.00")}

	byAmount, err := NewJob(Schedule{Freq: Daily}, amountOrder("1rTCW8", "pea-1", "50"))
	require.NoError(t, err)
	est := EstimateCost(byAmount, nil)
	require.True(t, est.Known, "amount-sized jobs never need price history")
	require.True(t, est.Cost.Equal(decimal.RequireFromString("50")))

	byShares, err := NewJob(Schedule{Freq: Daily}, sharesOrder("1rTCW8", "pea-1", 3))
	require.NoError(t, err)
	est = EstimateCost(byShares, histories)
	require.True(t, est.Known)
	require.True(t, est.Cost.Equal(decimal.RequireFromString("300.00")))

	est = EstimateCost(byShares, nil)
	require.False(t, est.Known, "missing history is unknown, never zero")
}

func TestCheckBalance(t *testing.T) {
	cash := decimal.RequireFromString("299.99")
	accounts := []models.Account{
		{ID: "pea-1", Kind: models.KindTrading, CashBalance: &cash},
		{ID: "bank-1", Kind: models.KindBanking},
	}

	job, err := NewJob(Schedule{Freq: Daily}, sharesOrder("1rTCW8", "pea-1", 3))
	require.NoError(t, err)

	known := CostEstimate{Cost: decimal.RequireFromString("300.00"), Known: true}
	require.Equal(t, SufficiencyInsufficient, CheckBalance(job, accounts, known))

	cheaper := CostEstimate{Cost: decimal.RequireFromString("299.99"), Known: true}
	require.Equal(t, SufficiencyOK, CheckBalance(job, accounts, cheaper))

	require.Equal(t, SufficiencyUnknown, CheckBalance(job, accounts, CostEstimate{}))

	elsewhere := job
	elsewhere.Order.AccountID = "bank-1"
	require.Equal(t, SufficiencyUnknown, CheckBalance(elsewhere, accounts, known),
		"no resolvable cash balance reads unknown")
}

func TestAnnotate(t *testing.T) {
	cash := decimal.RequireFromString("1000")
	accounts := []models.Account{{ID: "pea-1", Kind: models.KindTrading, CashBalance: &cash}}
	histories := []models.PriceHistory{historyWithClose("1rTCW8", "100.00")}

	job, err := NewJob(Schedule{Freq: Weekly, Day: 1}, sharesOrder("1rTCW8", "pea-1", 3))
	require.NoError(t, err)

	got := Annotate([]Job{job}, accounts, histories, time.UnixMilli(1_700_000_000_000))
	require.Len(t, got, 1)
	require.True(t, got[0].Cost.Known)
	require.Equal(t, SufficiencyOK, got[0].Sufficiency)
	require.Equal(t, "due now", got[0].NextRunLabel)
}
