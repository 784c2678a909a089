// Package models holds the data types shared between the session core, the
// transfer engine, the DCA model and the brokerage adapter.
package models

import "github.com/shopspring/decimal"

// AccountKind is the brokerage-side account classification. It is a trusted
// field reported by the backend, never inferred from the account name.
type AccountKind string

const (
	KindBanking AccountKind = "Banking"
	KindSavings AccountKind = "Savings"
	KindTrading AccountKind = "Trading"
	KindLoans   AccountKind = "Loans"
)

// Label returns the human label used for incognito placeholder names.
func (k AccountKind) Label() string {
	switch k {
	case KindLoans:
		return "Loan"
	default:
		return string(k)
	}
}

// Account is one entry of the account list owned by the session coordinator.
// Balance is expressed in minor currency units (cents).
//
// CashBalance is the available cash of a Trading account in major currency
// units; it is only present after a successful trading-summary merge and is
// nil for every other account.
type Account struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Kind        AccountKind      `json:"kind"`
	Balance     int64            `json:"balance"`
	CashBalance *decimal.Decimal `json:"cash_balance,omitempty"`
	BankName    string           `json:"bank_name"`
}

// Credentials are the login inputs: both are numeric strings, the client id
// is 7 or 8 digits and the password exactly 8. They are kept in memory only.
type Credentials struct {
	ClientID string
	Password string
}

// Validate reports whether the credentials have the shape the backend
// accepts. It is a form-level check; the backend has the final word.
func (c Credentials) Validate() error {
	if n := len(c.ClientID); n < 7 || n > 8 || !digitsOnly(c.ClientID) {
		return &ValidationError{Field: "client_id", Reason: "client id must be 7 or 8 digits"}
	}
	if len(c.Password) != 8 || !digitsOnly(c.Password) {
		return &ValidationError{Field: "password", Reason: "password must be exactly 8 digits"}
	}
	return nil
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
