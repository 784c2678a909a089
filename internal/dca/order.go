package dca

import (
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/bmaret/boursomate/internal/models"
)

// Order sides as the backend spells them.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

var errSizeExactlyOne = &models.ValidationError{
	Field:  "size",
	Reason: "exactly one of amount or quantity must be set",
}

// OrderSize holds exactly one of a currency amount or a share quantity.
// The zero value is invalid; construct through AmountOf or SharesOf.
type OrderSize struct {
	amount   *decimal.Decimal
	quantity *int64
}

// AmountOf sizes an order by currency amount.
func AmountOf(amount decimal.Decimal) OrderSize {
	return OrderSize{amount: &amount}
}

// SharesOf sizes an order by share count.
func SharesOf(quantity int64) OrderSize {
	return OrderSize{quantity: &quantity}
}

func (s OrderSize) Amount() (decimal.Decimal, bool) {
	if s.amount == nil {
		return decimal.Zero, false
	}
	return *s.amount, true
}

func (s OrderSize) Quantity() (int64, bool) {
	if s.quantity == nil {
		return 0, false
	}
	return *s.quantity, true
}

func (s OrderSize) Validate() error {
	if (s.amount == nil) == (s.quantity == nil) {
		return errSizeExactlyOne
	}
	return nil
}

// String renders the size the way job ids encode it: the bare number,
// whichever variant is set.
func (s OrderSize) String() string {
	if s.amount != nil {
		return s.amount.String()
	}
	if s.quantity != nil {
		return decimal.NewFromInt(*s.quantity).String()
	}
	return ""
}

type orderSizeJSON struct {
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Quantity *int64           `json:"quantity,omitempty"`
}

func (s OrderSize) MarshalJSON() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(orderSizeJSON{Amount: s.amount, Quantity: s.quantity})
}

func (s *OrderSize) UnmarshalJSON(data []byte) error {
	var raw orderSizeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded := OrderSize{amount: raw.Amount, quantity: raw.Quantity}
	if err := decoded.Validate(); err != nil {
		return err
	}
	*s = decoded
	return nil
}

// OrderSpec is the order a job places on each run.
type OrderSpec struct {
	Symbol    string    `json:"symbol"`
	AccountID string    `json:"account"`
	Side      string    `json:"side"`
	Size      OrderSize `json:"size"`
}

func (o OrderSpec) Validate() error {
	if o.Symbol == "" {
		return &models.ValidationError{Field: "symbol", Reason: "symbol is required"}
	}
	if o.AccountID == "" {
		return &models.ValidationError{Field: "account", Reason: "account is required"}
	}
	if o.Side != SideBuy && o.Side != SideSell {
		return &models.ValidationError{Field: "side", Reason: "side must be buy or sell"}
	}
	return o.Size.Validate()
}

// ErrAmountBelowPrice means an amount-sized order cannot buy a single share.
var ErrAmountBelowPrice = errors.New("amount is below the price of one share")

// SharesForAmount converts a currency amount into a whole share count at the
// given price, rounding down.
func SharesForAmount(amount, price decimal.Decimal) (int64, error) {
	if price.IsZero() || price.IsNegative() {
		return 0, errors.New("price must be positive")
	}
	qty := amount.Div(price).IntPart()
	if qty < 1 {
		return 0, ErrAmountBelowPrice
	}
	return qty, nil
}
