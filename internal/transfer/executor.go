package transfer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bmaret/boursomate/internal/broker"
	"github.com/bmaret/boursomate/internal/logging"
	"github.com/bmaret/boursomate/internal/models"
)

var (
	// ErrSubmissionInFlight guards against double submission and against
	// closing the dialog while the backend is still working.
	ErrSubmissionInFlight = errors.New("a transfer submission is in flight")

	// ErrNoRequest means no (source, target) pair has been prepared.
	ErrNoRequest = errors.New("no transfer request prepared")
)

// Refresher re-fetches the account list after a completed transfer. Balances
// are never adjusted locally: the ledger of record is the backend, and local
// arithmetic would drift from it.
type Refresher interface {
	RefreshAccounts(ctx context.Context) error
}

// Executor drives one transfer request through validation, submission and
// the 10-step progress protocol. At most one submission is in flight per
// executor; a second Submit while busy is rejected.
type Executor struct {
	client    broker.Client
	refresher Refresher
	log       logging.Logger

	mu       sync.Mutex
	req      *models.TransferRequest
	inFlight bool
}

func NewExecutor(client broker.Client, refresher Refresher, log logging.Logger) *Executor {
	return &Executor{client: client, refresher: refresher, log: log}
}

// Prepare installs a fresh request for the given pair, replacing any request
// that is not currently in flight.
func (e *Executor) Prepare(source, target models.Account) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight {
		return ErrSubmissionInFlight
	}
	e.req = &models.TransferRequest{SourceID: source.ID, TargetID: target.ID}
	return nil
}

// Request returns a copy of the current request, if any. On a failed
// submission the request survives with its amount and reason, so a retry
// starts pre-filled.
func (e *Executor) Request() (models.TransferRequest, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.req == nil {
		return models.TransferRequest{}, false
	}
	return *e.req, true
}

// Step is the progress step to display, 0 before the first event.
func (e *Executor) Step() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.req == nil {
		return 0
	}
	return e.req.Step
}

func (e *Executor) InFlight() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inFlight
}

// CanClose reports whether the transfer dialog may be dismissed.
func (e *Executor) CanClose() bool {
	return !e.InFlight()
}

// Close discards the current request. It fails while a submission is in
// flight; a request being worked on cannot be abandoned from the UI.
func (e *Executor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight {
		return ErrSubmissionInFlight
	}
	e.req = nil
	return nil
}

// Submit validates the entered amount and reason, then submits the prepared
// request and consumes its progress sequence until the terminal event.
//
// Progress is clamped monotonically non-decreasing for display: a step lower
// than one already shown is ignored, a skipped step simply makes the display
// jump. On success the request is cleared and the account list refreshed.
// On failure the request is kept (amount and reason intact) and the step
// reset to 0 so the dialog can offer a retry.
func (e *Executor) Submit(ctx context.Context, amount, reason string) error {
	e.mu.Lock()
	if e.req == nil {
		e.mu.Unlock()
		return ErrNoRequest
	}
	if e.inFlight {
		e.mu.Unlock()
		return ErrSubmissionInFlight
	}

	amt, err := models.ParseTransferAmount(amount)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	e.req.Amount = amt
	e.req.Reason = reason
	if err := e.req.Validate(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.req.Step = 0
	req := *e.req
	e.inFlight = true
	e.mu.Unlock()

	err = e.run(ctx, req)

	e.mu.Lock()
	e.inFlight = false
	if err != nil {
		if e.req != nil {
			e.req.Step = 0
		}
		e.mu.Unlock()
		return err
	}
	e.req = nil
	e.mu.Unlock()

	e.log.Info(ctx, "transfer completed", "source", req.SourceID, "target", req.TargetID, "amount", req.Amount)
	if err := e.refresher.RefreshAccounts(ctx); err != nil {
		// Non-fatal: the transfer went through, only the display is stale.
		e.log.Warn(ctx, "account refresh after transfer failed", "error", err)
	}
	return nil
}

func (e *Executor) run(ctx context.Context, req models.TransferRequest) error {
	events, err := e.client.TransferFunds(ctx, req.SourceID, req.TargetID, req.Amount, req.Reason)
	if err != nil {
		return err
	}

	for ev := range events {
		switch {
		case ev.Err != nil:
			return ev.Err
		case ev.Done:
			return nil
		default:
			e.advance(ev.Step)
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: progress stream ended without result", broker.ErrUnavailable)
}

func (e *Executor) advance(step int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.req != nil && step > e.req.Step {
		e.req.Step = step
	}
}
