// Package broker defines the contract the core requires from the brokerage
// backend, the shared error taxonomy, and an HTTP implementation of it.
// The session coordinator, transfer executor and DCA runner only ever see
// the Client interface.
package broker

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/bmaret/boursomate/internal/models"
)

// TransferEvent is one element of the progress sequence produced by
// TransferFunds. Events with Err == nil and Done == false carry a progress
// step in [1,10]. The sequence is finite and non-restartable: a Done or Err
// event is terminal and the channel is closed right after it.
type TransferEvent struct {
	Step int
	Done bool
	Err  error
}

// Client is the brokerage service adapter.
//
// Every call suspends on the network and honors ctx cancellation. Failures
// are reported through the sentinel errors of this package so callers can
// classify them with errors.Is.
type Client interface {
	Close() error

	// Authenticate performs the login. It returns ErrInvalidCredentials,
	// ErrMfaRequired when a challenge must be answered first, or
	// ErrUnavailable for transport-level trouble.
	Authenticate(ctx context.Context, clientID, password string) error

	// ListMfaChallenges returns the outstanding challenges, oldest first.
	ListMfaChallenges(ctx context.Context) ([]models.MfaChallenge, error)

	// SubmitMfaResponse answers a challenge with a one-time code. A chained
	// challenge surfaces as ErrMfaRequired again.
	SubmitMfaResponse(ctx context.Context, challenge models.MfaChallenge, code string) error

	// PollMfaStatus checks an out-of-band challenge (push, QR pairing).
	// A *QrCodeError carries pairing data to display; it is not terminal.
	PollMfaStatus(ctx context.Context) (models.MfaPollStatus, error)

	GetAccounts(ctx context.Context) ([]models.Account, error)
	GetTradingSummary(ctx context.Context, accountID string) ([]models.SummaryItem, error)
	GetPriceHistory(ctx context.Context, symbol string, lengthDays int) (models.PriceHistory, error)

	// InstrumentQuote returns the latest traded price for symbol.
	InstrumentQuote(ctx context.Context, symbol string) (decimal.Decimal, error)
	IsMarketOpen(ctx context.Context, symbol string) (bool, error)

	// TransferFunds submits a transfer and returns its progress sequence.
	// The returned channel is owned by the adapter and closed after the
	// terminal event; callers must drain it until then or cancel ctx.
	TransferFunds(ctx context.Context, sourceID, targetID string, amount decimal.Decimal, reason string) (<-chan TransferEvent, error)

	PlaceOrder(ctx context.Context, side, symbol, accountID string, quantity int64) (models.PlacedOrder, error)
}
