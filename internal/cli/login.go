package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bmaret/boursomate/internal/models"
	"github.com/bmaret/boursomate/internal/session"
	"github.com/bmaret/boursomate/internal/store"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword
var getConfirm = GetConfirm

// mfaPollTimeout bounds how long an out-of-band challenge is polled before
// giving up.
const mfaPollTimeout = 2 * time.Minute

// Login runs the interactive login flow: credential entry (pre-filled from
// the store or from a failed attempt), the MFA cycle including chained
// challenges, and the opt-in credential save once the session is ready.
func (a *App) Login(ctx context.Context) error {
	if a.isReady() {
		fmt.Println("Already logged in.")
		return nil
	}

	creds, stored, err := a.promptCredentials(ctx)
	if err != nil {
		return err
	}

	if err := a.session.Start(ctx, creds); err != nil {
		return err
	}

	for a.session.State() == session.StateMfaPending {
		if err := a.resolveMfa(ctx); err != nil {
			return err
		}
	}

	if !a.isReady() {
		return fmt.Errorf("login did not complete: %s", a.session.State())
	}

	fmt.Println("Success!")
	if !stored {
		a.offerCredentialSave(ctx, creds)
	}
	return nil
}

// promptCredentials collects the client id and password, preferring the
// pre-fill id from a failed attempt, then the stored credentials. The second
// return value reports whether a stored password was used as-is.
func (a *App) promptCredentials(ctx context.Context) (models.Credentials, bool, error) {
	prefill := a.session.PrefillClientID()

	saved, err := a.stores.Credentials.Load(ctx)
	if err != nil && !errors.Is(err, store.ErrNoCredentials) {
		a.log.Warn(ctx, "loading stored credentials failed", "error", err)
	}
	if prefill == "" {
		prefill = saved.ClientID
	}

	prompt := "Enter client id"
	if prefill != "" {
		prompt = fmt.Sprintf("Enter client id (empty keeps %s)", prefill)
	}
	clientID, err := getSimpleText(a.reader, prompt, os.Stdout)
	if err != nil {
		return models.Credentials{}, false, err
	}
	if clientID == "" {
		clientID = prefill
	}

	if clientID == saved.ClientID && saved.Password != "" {
		fmt.Println("Using stored password.")
		return models.Credentials{ClientID: clientID, Password: saved.Password}, true, nil
	}

	password, err := getPassword(os.Stdout, "Enter password")
	if err != nil {
		return models.Credentials{}, false, err
	}
	return models.Credentials{ClientID: clientID, Password: string(password)}, false, nil
}

// resolveMfa handles the currently armed challenge: out-of-band types are
// polled until confirmation, the rest prompt for a one-time code. A chained
// challenge leaves the session in MfaPending and the caller loops.
func (a *App) resolveMfa(ctx context.Context) error {
	challenge, ok := a.session.Challenge()
	if !ok {
		return session.ErrNoMfaPending
	}
	fmt.Printf("MFA required (%s).\n", challenge.Type)

	switch challenge.Type {
	case "push", "app", "webtoapp":
		return a.waitForOutOfBand(ctx)
	default:
		code, err := getSimpleText(a.reader, "Enter the one-time code", os.Stdout)
		if err != nil {
			return err
		}
		if err := a.session.SubmitMfa(ctx, code); err != nil {
			fmt.Println("Code rejected:", err)
			if a.session.State() != session.StateMfaPending {
				return err
			}
		}
		return nil
	}
}

func (a *App) waitForOutOfBand(ctx context.Context) error {
	fmt.Println("Confirm the login in your app; waiting...")

	poller := session.NewPoller(a.client, a.log, a.config.MfaPollInterval)
	poller.OnQrCode = func(payload []byte) {
		fmt.Println("Scan this pairing code with your app:")
		fmt.Println(base64.StdEncoding.EncodeToString(payload))
	}

	pollCtx, cancel := context.WithTimeout(ctx, mfaPollTimeout)
	defer cancel()
	if err := poller.Wait(pollCtx); err != nil {
		return fmt.Errorf("mfa confirmation: %w", err)
	}
	return a.session.ConfirmMfa(ctx)
}

func (a *App) offerCredentialSave(ctx context.Context, creds models.Credentials) {
	savePassword, err := getConfirm(a.reader, "Remember password for next time?", os.Stdout)
	if err != nil {
		return
	}
	if err := a.stores.Credentials.Save(ctx, creds, savePassword); err != nil {
		a.log.Warn(ctx, "saving credentials failed", "error", err)
	}
}

// Logout resets the session and optionally purges all local state.
func (a *App) Logout(ctx context.Context) {
	a.session.Reset()
	fmt.Println("Logged out.")

	purge, err := getConfirm(a.reader, "Also wipe local data (jobs, orders, credentials)?", os.Stdout)
	if err != nil || !purge {
		return
	}
	if err := a.stores.Purge(ctx); err != nil {
		fmt.Println("Purge failed:", err)
		return
	}
	fmt.Println("Local data wiped.")
}
