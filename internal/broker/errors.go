package broker

import (
	"errors"
	"fmt"
)

// Sentinel errors of the adapter contract. Callers match them with
// errors.Is; anything else is a plain adapter failure whose message is
// surfaced raw.
var (
	ErrInvalidCredentials = errors.New("invalid client id or password")
	ErrMfaRequired        = errors.New("mfa required")
	ErrMfaExhausted       = errors.New("mfa required but no challenge available")
	ErrUnavailable        = errors.New("brokerage unavailable")
	ErrTransferRejected   = errors.New("transfer rejected")
	ErrMarketClosed       = errors.New("market is closed")
)

// QrCodeError is returned by PollMfaStatus when the backend hands out a QR
// pairing payload. It is informational: the caller displays the code and
// keeps polling.
type QrCodeError struct {
	Payload []byte
}

func (e *QrCodeError) Error() string {
	return fmt.Sprintf("qr code pairing requested (%d bytes)", len(e.Payload))
}
