package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/bmaret/boursomate/internal/accounts"
	"github.com/bmaret/boursomate/internal/broker"
	"github.com/bmaret/boursomate/internal/logging"
	"github.com/bmaret/boursomate/internal/models"
)

// ErrNotReady is returned by operations that need a fully bootstrapped
// session.
var ErrNotReady = errors.New("session is not ready")

// ErrNoMfaPending is returned when an MFA response arrives outside the MFA
// sub-state.
var ErrNoMfaPending = errors.New("no mfa challenge pending")

// Coordinator owns the session state machine and the shared account list.
// All mutations of the list go through it; readers get copies.
type Coordinator struct {
	client broker.Client
	log    logging.Logger

	mu        sync.Mutex
	state     State
	lastErr   string
	clientID  string
	challenge *models.MfaChallenge
	accts     []models.Account
	positions map[string][]models.Position
	histories []models.PriceHistory
	listeners []func(State)

	// refreshMu serializes account refreshes so a slow fetch can never
	// overwrite a fresher list.
	refreshMu sync.Mutex
}

func NewCoordinator(client broker.Client, log logging.Logger) *Coordinator {
	return &Coordinator{
		client:    client,
		log:       log,
		positions: map[string][]models.Position{},
	}
}

// OnStateChange registers a listener invoked after every state transition.
// Listeners run outside the coordinator lock and must not block.
func (c *Coordinator) OnStateChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Coordinator) setState(state State, errMsg string) {
	c.mu.Lock()
	c.state = state
	c.lastErr = errMsg
	listeners := make([]func(State), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the message of the last failed transition, empty when none.
func (c *Coordinator) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// PrefillClientID is the client id to pre-fill after an invalid-credentials
// failure. Empty after any other reset.
func (c *Coordinator) PrefillClientID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clientID
}

// Accounts returns a copy of the current account list in display order.
func (c *Coordinator) Accounts() []models.Account {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Account, len(c.accts))
	copy(out, c.accts)
	return out
}

// Positions returns the open positions of a trading account from the last
// summary fetch.
func (c *Coordinator) Positions(accountID string) []models.Position {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positions[accountID]
}

// PriceHistories returns the price series fetched so far.
func (c *Coordinator) PriceHistories() []models.PriceHistory {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.PriceHistory, len(c.histories))
	copy(out, c.histories)
	return out
}

// Challenge returns the currently active MFA challenge, if any.
func (c *Coordinator) Challenge() (models.MfaChallenge, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.challenge == nil {
		return models.MfaChallenge{}, false
	}
	return *c.challenge, true
}

// Start runs the login flow with the given credentials. It either reaches
// Ready, stops in MfaPending awaiting SubmitMfa, or resets to Uninitiated
// with a classified error. Failures after authentication keep the session
// in Authenticated so the data fetch can be retried.
func (c *Coordinator) Start(ctx context.Context, creds models.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	c.clientID = creds.ClientID
	c.mu.Unlock()
	c.setState(StateAuthenticating, "")

	err := c.client.Authenticate(ctx, creds.ClientID, creds.Password)
	switch {
	case err == nil:
		return c.finishLogin(ctx)
	case errors.Is(err, broker.ErrMfaRequired):
		return c.enterMfa(ctx)
	case errors.Is(err, broker.ErrInvalidCredentials):
		// Keep the client id so the form pre-fills for correction.
		c.setState(StateUninitiated, err.Error())
		return err
	default:
		c.resetOnFailure(err)
		return err
	}
}

// enterMfa fetches the outstanding challenges and arms the newest one. An
// empty list means the backend demands MFA but offers no way to answer it;
// that is fatal to the attempt.
func (c *Coordinator) enterMfa(ctx context.Context) error {
	challenges, err := c.client.ListMfaChallenges(ctx)
	if err != nil {
		c.resetOnFailure(err)
		return err
	}
	if len(challenges) == 0 {
		err := broker.ErrMfaExhausted
		c.resetOnFailure(err)
		return err
	}

	current := challenges[len(challenges)-1]
	c.mu.Lock()
	c.challenge = &current
	c.mu.Unlock()
	c.log.Info(ctx, "mfa challenge received", "type", current.Type)
	c.setState(StateMfaPending, "")
	return nil
}

// SubmitMfa answers the current challenge with a one-time code. A chained
// challenge keeps the session in MfaPending with the newest challenge armed;
// chains are unbounded, only the user can abandon them.
func (c *Coordinator) SubmitMfa(ctx context.Context, code string) error {
	c.mu.Lock()
	if c.state != StateMfaPending || c.challenge == nil {
		c.mu.Unlock()
		return ErrNoMfaPending
	}
	challenge := *c.challenge
	c.mu.Unlock()

	err := c.client.SubmitMfaResponse(ctx, challenge, code)
	switch {
	case err == nil:
		c.mu.Lock()
		c.challenge = nil
		c.mu.Unlock()
		return c.finishLogin(ctx)
	case errors.Is(err, broker.ErrMfaRequired):
		c.log.Info(ctx, "chained mfa challenge", "previous", challenge.Type)
		return c.enterMfa(ctx)
	default:
		// The challenge survives a wrong code; the user retries.
		c.setState(StateMfaPending, err.Error())
		return err
	}
}

// ConfirmMfa completes an out-of-band challenge (push, QR pairing) after a
// positive poll. The backend already considers the login confirmed; this
// drops the challenge and runs the data-fetch phases.
func (c *Coordinator) ConfirmMfa(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateMfaPending {
		c.mu.Unlock()
		return ErrNoMfaPending
	}
	c.challenge = nil
	c.mu.Unlock()
	return c.finishLogin(ctx)
}

// finishLogin runs the post-authentication data fetches. The account fetch
// is retried on transient failures; data-fetch errors never roll the state
// machine backward. A persistent fetch failure leaves the session in
// Authenticated with the error recorded, and RefreshAccounts completes the
// bootstrap on a later attempt.
func (c *Coordinator) finishLogin(ctx context.Context) error {
	c.setState(StateAuthenticated, "")

	var fetched []models.Account
	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		fetched, err = c.client.GetAccounts(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		// Authentication stands; the user retries the fetch without a new
		// login or another MFA chain.
		c.setState(StateAuthenticated, fmt.Errorf("fetching accounts: %w", err).Error())
		return err
	}

	c.mu.Lock()
	c.accts = accounts.SortForDisplay(fetched)
	c.mu.Unlock()
	c.setState(StateDataFetched, "")

	if err := c.fetchSummaries(ctx); err != nil {
		c.log.Warn(ctx, "trading summary fetch failed", "error", err)
	}
	c.setState(StateReady, "")
	return nil
}

// fetchSummaries pulls the trading summary of every trading account
// concurrently and merges cash balances into the list.
func (c *Coordinator) fetchSummaries(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, a := range c.Accounts() {
		if a.Kind != models.KindTrading {
			continue
		}
		accountID := a.ID
		g.Go(func() error {
			items, err := c.client.GetTradingSummary(ctx, accountID)
			if err != nil {
				return fmt.Errorf("summary for %s: %w", accountID, err)
			}
			c.MergeTradingSummary(accountID, items)
			return nil
		})
	}
	return g.Wait()
}

// MergeTradingSummary applies one summary fetch to the shared list: the cash
// balance is merged by account id, the positions replaced wholesale.
func (c *Coordinator) MergeTradingSummary(accountID string, items []models.SummaryItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range items {
		switch item.ID {
		case models.SummaryItemAccount:
			if item.Cash != nil {
				c.accts = accounts.MergeCashBalance(c.accts, accountID, item.Cash.Decimal())
			}
		case models.SummaryItemPositions:
			c.positions[accountID] = item.Positions
		}
	}
}

// RefreshAccounts re-fetches the account list and its trading summaries.
// Refreshes are serialized: a second caller waits for the first, then runs
// its own fetch, so the newest fetch always wins. Callable from Authenticated
// onward; a bootstrap stalled on a failed account fetch completes through it.
func (c *Coordinator) RefreshAccounts(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if c.State() < StateAuthenticated {
		return ErrNotReady
	}

	fetched, err := c.client.GetAccounts(ctx)
	if err != nil {
		// Non-fatal: the previous list stays on display.
		return fmt.Errorf("refreshing accounts: %w", err)
	}

	c.mu.Lock()
	c.accts = accounts.SortForDisplay(fetched)
	c.mu.Unlock()
	if c.State() < StateDataFetched {
		c.setState(StateDataFetched, "")
	}

	if err := c.fetchSummaries(ctx); err != nil {
		c.log.Warn(ctx, "trading summary refresh failed", "error", err)
	}
	if c.State() < StateReady {
		c.setState(StateReady, "")
	}
	return nil
}

// FetchPriceHistories loads the price series of the given symbols
// concurrently and replaces the cached set. Missing series are tolerated;
// cost estimation treats them as unknown.
func (c *Coordinator) FetchPriceHistories(ctx context.Context, symbols []string, lengthDays int) error {
	histories := make([]models.PriceHistory, len(symbols))
	g, ctx := errgroup.WithContext(ctx)
	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			h, err := c.client.GetPriceHistory(ctx, symbol, lengthDays)
			if err != nil {
				return fmt.Errorf("history for %s: %w", symbol, err)
			}
			histories[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c.mu.Lock()
	c.histories = histories
	c.mu.Unlock()
	return nil
}

// Reset drops the session back to credential entry, clearing everything
// including the pre-fill id. Used for explicit logout.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	c.clientID = ""
	c.challenge = nil
	c.accts = nil
	c.positions = map[string][]models.Position{}
	c.histories = nil
	c.mu.Unlock()
	c.setState(StateUninitiated, "")
}

func (c *Coordinator) resetOnFailure(err error) {
	c.mu.Lock()
	c.clientID = ""
	c.challenge = nil
	c.mu.Unlock()
	c.setState(StateUninitiated, err.Error())
}
