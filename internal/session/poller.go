package session

import (
	"context"
	"errors"
	"time"

	"github.com/bmaret/boursomate/internal/broker"
	"github.com/bmaret/boursomate/internal/logging"
	"github.com/bmaret/boursomate/internal/models"
)

// Poller watches an out-of-band MFA challenge (push confirmation or QR
// pairing) at a fixed interval. Polls are strictly sequential: a new tick
// is only acted on after the previous poll returned.
type Poller struct {
	client   broker.Client
	log      logging.Logger
	interval time.Duration

	// OnQrCode is called with the pairing payload when the backend hands
	// one out. The payload is informational; polling continues.
	OnQrCode func(payload []byte)
}

func NewPoller(client broker.Client, log logging.Logger, interval time.Duration) *Poller {
	return &Poller{client: client, log: log, interval: interval}
}

// Wait polls until the challenge is confirmed, ctx is cancelled, or the
// adapter fails. Cancelling ctx is the dismissal path; it stops the loop
// immediately with ctx.Err() and leaves no timer behind.
func (p *Poller) Wait(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			status, err := p.client.PollMfaStatus(ctx)
			if err != nil {
				var qr *broker.QrCodeError
				if errors.As(err, &qr) {
					p.log.Debug(ctx, "qr pairing payload received", "bytes", len(qr.Payload))
					if p.OnQrCode != nil {
						p.OnQrCode(qr.Payload)
					}
					continue
				}
				return err
			}
			if status == models.MfaConfirmed {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
