package broker

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bmaret/boursomate/internal/logging"
	"github.com/bmaret/boursomate/internal/models"
)

// HTTPClient talks to the brokerage web API over HTTPS/JSON. The exact wire
// format is an implementation detail of this type; nothing outside the
// package depends on it.
type HTTPClient struct {
	baseURL string
	hc      *http.Client
	log     logging.Logger

	accessToken string
	tokenExpiry time.Time
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(baseURL string, log logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

func (c *HTTPClient) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}

// apiError is the JSON error envelope of the backend.
type apiError struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
	// Correlation id, echoed back by the gateway in error reports.
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return c.mapError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// mapError classifies an HTTP failure into the adapter taxonomy.
func (c *HTTPClient) mapError(resp *http.Response) error {
	var ae apiError
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = json.Unmarshal(data, &ae)

	msg := ae.Message
	if msg == "" {
		msg = resp.Status
	}

	switch ae.Code {
	case "invalid_credentials":
		return ErrInvalidCredentials
	case "mfa_required":
		return ErrMfaRequired
	case "transfer_rejected":
		return fmt.Errorf("%w: %s", ErrTransferRejected, msg)
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusServiceUnavailable {
		return fmt.Errorf("%w: %s", ErrUnavailable, msg)
	}
	return fmt.Errorf("brokerage error: %s", msg)
}

func (c *HTTPClient) Authenticate(ctx context.Context, clientID, password string) error {
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	payload := map[string]string{"client_id": clientID, "password": password}
	if err := c.do(ctx, http.MethodPost, "/session/login", payload, &resp); err != nil {
		return err
	}

	c.accessToken = resp.AccessToken
	c.tokenExpiry = tokenExpiry(resp.AccessToken)
	if !c.tokenExpiry.IsZero() {
		c.log.Debug(ctx, "session token acquired", "expires", c.tokenExpiry)
	}
	return nil
}

// tokenExpiry reads the exp claim of the session JWT without verifying the
// signature; the token is only inspected, never trusted locally.
func tokenExpiry(token string) time.Time {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func (c *HTTPClient) ListMfaChallenges(ctx context.Context) ([]models.MfaChallenge, error) {
	var challenges []models.MfaChallenge
	if err := c.do(ctx, http.MethodGet, "/session/mfa", nil, &challenges); err != nil {
		return nil, err
	}
	return challenges, nil
}

func (c *HTTPClient) SubmitMfaResponse(ctx context.Context, challenge models.MfaChallenge, code string) error {
	payload := map[string]string{
		"otp_id": challenge.ID,
		"token":  challenge.Token,
		"code":   code,
	}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(ctx, http.MethodPost, "/session/mfa/verify", payload, &resp); err != nil {
		return err
	}
	if resp.AccessToken != "" {
		c.accessToken = resp.AccessToken
		c.tokenExpiry = tokenExpiry(resp.AccessToken)
	}
	return nil
}

func (c *HTTPClient) PollMfaStatus(ctx context.Context) (models.MfaPollStatus, error) {
	var resp struct {
		Status    string `json:"status"`
		QrPayload string `json:"qr_payload"`
	}
	if err := c.do(ctx, http.MethodGet, "/session/mfa/status", nil, &resp); err != nil {
		return models.MfaPending, err
	}
	switch resp.Status {
	case "confirmed":
		return models.MfaConfirmed, nil
	case "pending":
		return models.MfaPending, nil
	case "qr_code":
		data, err := base64.StdEncoding.DecodeString(resp.QrPayload)
		if err != nil {
			return models.MfaPending, fmt.Errorf("malformed qr payload: %w", err)
		}
		return models.MfaPending, &QrCodeError{Payload: data}
	default:
		return models.MfaPending, fmt.Errorf("unknown mfa status %q", resp.Status)
	}
}

func (c *HTTPClient) GetAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	if err := c.do(ctx, http.MethodGet, "/accounts", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (c *HTTPClient) GetTradingSummary(ctx context.Context, accountID string) ([]models.SummaryItem, error) {
	var items []models.SummaryItem
	path := "/accounts/" + url.PathEscape(accountID) + "/trading-summary"
	if err := c.do(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetPriceHistory fetches the end-of-day quote series. The payload nests the
// series under a legacy envelope, so it is unpacked with jsonpath instead of
// a struct mirror.
func (c *HTTPClient) GetPriceHistory(ctx context.Context, symbol string, lengthDays int) (models.PriceHistory, error) {
	var jobj any
	path := fmt.Sprintf("/quotes/%s?length=%d", url.PathEscape(symbol), lengthDays)
	if err := c.do(ctx, http.MethodGet, path, nil, &jobj); err != nil {
		return models.PriceHistory{}, err
	}

	history := models.PriceHistory{Symbol: symbol}
	if v, err := jsonpath.Get("$.d.SymbolId", jobj); err == nil {
		if s, ok := v.(string); ok {
			history.Symbol = s
		}
	}
	if v, err := jsonpath.Get("$.d.Name", jobj); err == nil {
		if s, ok := v.(string); ok {
			history.Name = s
		}
	}

	tab, err := jsonpath.Get("$.d.QuoteTab", jobj)
	if err != nil {
		return models.PriceHistory{}, fmt.Errorf("malformed quote series for %s: %w", symbol, err)
	}
	rows, ok := tab.([]any)
	if !ok {
		return models.PriceHistory{}, fmt.Errorf("malformed quote series for %s: QuoteTab is not a list", symbol)
	}

	for _, row := range rows {
		m, ok := row.(map[string]any)
		if !ok {
			continue
		}
		history.Quotes = append(history.Quotes, models.PricePoint{
			Date:   int64(num(m["d"])),
			Open:   decimal.NewFromFloat(num(m["o"])),
			High:   decimal.NewFromFloat(num(m["h"])),
			Low:    decimal.NewFromFloat(num(m["l"])),
			Close:  decimal.NewFromFloat(num(m["c"])),
			Volume: int64(num(m["v"])),
		})
	}
	return history, nil
}

func num(v any) float64 {
	f, _ := v.(float64)
	return f
}

func (c *HTTPClient) InstrumentQuote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var resp struct {
		Last float64 `json:"last"`
	}
	if err := c.do(ctx, http.MethodGet, "/instruments/"+url.PathEscape(symbol), nil, &resp); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromFloat(resp.Last), nil
}

func (c *HTTPClient) IsMarketOpen(ctx context.Context, symbol string) (bool, error) {
	var resp struct {
		Open bool `json:"open"`
	}
	if err := c.do(ctx, http.MethodGet, "/instruments/"+url.PathEscape(symbol)+"/market", nil, &resp); err != nil {
		return false, err
	}
	return resp.Open, nil
}

// TransferFunds submits the transfer and streams its progress. The backend
// answers with newline-delimited JSON events; each line is forwarded on the
// returned channel, which is closed after the terminal event.
func (c *HTTPClient) TransferFunds(ctx context.Context, sourceID, targetID string, amount decimal.Decimal, reason string) (<-chan TransferEvent, error) {
	payload := map[string]any{
		"source_account_id": sourceID,
		"target_account_id": targetID,
		"amount":            amount.String(),
		"reason":            reason,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transfers", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, c.mapError(resp)
	}

	events := make(chan TransferEvent)
	go c.consumeTransferStream(ctx, resp.Body, events)
	return events, nil
}

func (c *HTTPClient) consumeTransferStream(ctx context.Context, body io.ReadCloser, events chan<- TransferEvent) {
	defer close(events)
	defer body.Close()

	// Unblock the scanner when the caller cancels.
	stop := context.AfterFunc(ctx, func() { body.Close() })
	defer stop()

	type line struct {
		Step  int    `json:"step"`
		Done  bool   `json:"done"`
		Error string `json:"error"`
	}

	send := func(ev TransferEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var l line
		if err := json.Unmarshal(raw, &l); err != nil {
			send(TransferEvent{Err: fmt.Errorf("malformed transfer event: %w", err)})
			return
		}
		switch {
		case l.Error != "":
			send(TransferEvent{Err: fmt.Errorf("%w: %s", ErrTransferRejected, l.Error)})
			return
		case l.Done:
			send(TransferEvent{Done: true})
			return
		default:
			if !send(TransferEvent{Step: l.Step}) {
				return
			}
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		send(TransferEvent{Err: fmt.Errorf("%w: %v", ErrUnavailable, err)})
	}
}

func (c *HTTPClient) PlaceOrder(ctx context.Context, side, symbol, accountID string, quantity int64) (models.PlacedOrder, error) {
	payload := map[string]any{
		"side":     side,
		"symbol":   symbol,
		"account":  accountID,
		"quantity": quantity,
	}
	var order models.PlacedOrder
	if err := c.do(ctx, http.MethodPost, "/orders", payload, &order); err != nil {
		return models.PlacedOrder{}, err
	}
	return order, nil
}
