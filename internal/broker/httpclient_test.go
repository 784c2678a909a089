package broker

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bmaret/boursomate/internal/logging"
	"github.com/bmaret/boursomate/internal/models"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()})
	s, err := tok.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return s
}

func TestAuthenticate_SetsBearerTokenAndExpiry(t *testing.T) {
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	token := signedToken(t, exp)

	var sawAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/session/login":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"` + token + `"}`))
		case "/accounts":
			sawAuth = r.Header.Get("Authorization")
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	defer ts.Close()

	c := NewHTTPClient(ts.URL, testLogger())
	require.NoError(t, c.Authenticate(context.Background(), "12345678", "87654321"))
	require.Equal(t, exp.Unix(), c.tokenExpiry.Unix())

	_, err := c.GetAccounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer "+token, sawAuth)
}

func TestAuthenticate_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"invalid credentials", http.StatusUnauthorized, `{"error":"invalid_credentials"}`, ErrInvalidCredentials},
		{"mfa required", http.StatusForbidden, `{"error":"mfa_required"}`, ErrMfaRequired},
		{"server down", http.StatusBadGateway, `{"message":"upstream"}`, ErrUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer ts.Close()

			c := NewHTTPClient(ts.URL, testLogger())
			err := c.Authenticate(context.Background(), "12345678", "87654321")
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestGetPriceHistory_ParsesEnvelope(t *testing.T) {
	payload := `{"d":{"SymbolId":"1rTCW8","Name":"AMUNDI ETF","QuoteTab":[
		{"d":1738540800,"o":99.5,"h":101,"l":99,"c":100.25,"v":1200},
		{"d":1738627200,"o":100.3,"h":102,"l":100,"c":101.5,"v":900}
	]}}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/quotes/1rTCW8", r.URL.Path)
		require.Equal(t, "30", r.URL.Query().Get("length"))
		_, _ = w.Write([]byte(payload))
	}))
	defer ts.Close()

	c := NewHTTPClient(ts.URL, testLogger())
	h, err := c.GetPriceHistory(context.Background(), "1rTCW8", 30)
	require.NoError(t, err)
	require.Equal(t, "1rTCW8", h.Symbol)
	require.Equal(t, "AMUNDI ETF", h.Name)
	require.Len(t, h.Quotes, 2)

	latest, ok := h.LatestClose()
	require.True(t, ok)
	require.Equal(t, "101.5", latest.String())
}

func TestTransferFunds_StreamsProgress(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transfers", r.URL.Path)
		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = w.Write([]byte("{\"step\":1}\n{\"step\":4}\n{\"step\":10}\n{\"done\":true}\n"))
	}))
	defer ts.Close()

	c := NewHTTPClient(ts.URL, testLogger())
	events, err := c.TransferFunds(context.Background(), "src", "dst", mustDecimal(t, "25.00"), "savings")
	require.NoError(t, err)

	var steps []int
	var done bool
	for ev := range events {
		require.NoError(t, ev.Err)
		if ev.Done {
			done = true
			continue
		}
		steps = append(steps, ev.Step)
	}
	require.True(t, done)
	require.Equal(t, []int{1, 4, 10}, steps)
}

func TestTransferFunds_RejectionSurfacesRawMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{\"step\":1}\n{\"error\":\"insufficient funds\"}\n"))
	}))
	defer ts.Close()

	c := NewHTTPClient(ts.URL, testLogger())
	events, err := c.TransferFunds(context.Background(), "src", "dst", mustDecimal(t, "25.00"), "")
	require.NoError(t, err)

	var last TransferEvent
	for ev := range events {
		last = ev
	}
	require.ErrorIs(t, last.Err, ErrTransferRejected)
	require.Contains(t, last.Err.Error(), "insufficient funds")
}

func TestPollMfaStatus(t *testing.T) {
	qr := base64.StdEncoding.EncodeToString([]byte("pair-me"))
	responses := []string{
		`{"status":"pending"}`,
		`{"status":"qr_code","qr_payload":"` + qr + `"}`,
		`{"status":"confirmed"}`,
	}
	var i int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(responses[i]))
		i++
	}))
	defer ts.Close()

	c := NewHTTPClient(ts.URL, testLogger())
	ctx := context.Background()

	st, err := c.PollMfaStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, models.MfaPending, st)

	_, err = c.PollMfaStatus(ctx)
	var qe *QrCodeError
	require.ErrorAs(t, err, &qe)
	require.Equal(t, []byte("pair-me"), qe.Payload)

	st, err = c.PollMfaStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, models.MfaConfirmed, st)
}
