package models

import (
	"github.com/shopspring/decimal"
)

// Transfer limits enforced locally before a request ever reaches the
// backend. The backend applies its own ledger-side checks on top.
const (
	MinTransferAmount = "10.00"
	MaxReasonLength   = 50
	TransferSteps     = 10
)

// TransferRequest is a single transfer in preparation or in flight.
// Step tracks the backend progress protocol, 0 meaning "not submitted".
type TransferRequest struct {
	SourceID string
	TargetID string
	Amount   decimal.Decimal
	Reason   string
	Step     int
}

// ParseTransferAmount validates a user-entered amount: a decimal number of
// at least 10.00 with at most two decimal places.
func ParseTransferAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "not a number"}
	}
	if d.Exponent() < -2 {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "maximum 2 decimal places allowed"}
	}
	if d.LessThan(decimal.RequireFromString(MinTransferAmount)) {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "amount must be at least 10.00"}
	}
	return d, nil
}

// ValidateTransferReason checks the optional transfer reason length.
func ValidateTransferReason(s string) error {
	if len(s) > MaxReasonLength {
		return &ValidationError{Field: "reason", Reason: "reason must be 50 characters or less"}
	}
	return nil
}

// Validate re-checks a built request before submission.
func (r *TransferRequest) Validate() error {
	if r.SourceID == "" || r.TargetID == "" || r.SourceID == r.TargetID {
		return &ValidationError{Field: "accounts", Reason: "source and target must be distinct accounts"}
	}
	if _, err := ParseTransferAmount(r.Amount.String()); err != nil {
		return err
	}
	return ValidateTransferReason(r.Reason)
}

// TransferStepLabel returns the display label of a progress step in [1,10].
func TransferStepLabel(step int) string {
	switch step {
	case 1:
		return "Validating transfer"
	case 2:
		return "Initializing transfer (1)"
	case 3:
		return "Initializing transfer (2)"
	case 4:
		return "Setting sending account"
	case 5:
		return "Setting destination account"
	case 6:
		return "Configuring amount"
	case 7:
		return "Validating beneficiary"
	case 8:
		return "Setting transfer reason"
	case 9:
		return "Confirming transfer"
	case 10:
		return "Completing transfer"
	default:
		return ""
	}
}
