package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/bmaret/boursomate/internal/accounts"
	"github.com/bmaret/boursomate/internal/models"
	"github.com/bmaret/boursomate/internal/transfer"
)

// runTransfer drives one interactive transfer: two-click account selection,
// amount/reason entry, submission with live progress, and a balance refresh
// on success (done by the executor).
func (a *App) runTransfer(ctx context.Context) {
	if !a.requireReady() {
		return
	}

	list := a.session.Accounts()
	a.selector = transfer.Selector{}

	req := a.pickAccounts(list)
	if req == nil {
		fmt.Println("Transfer cancelled.")
		return
	}

	if err := a.executor.Prepare(req.Source, req.Target); err != nil {
		fmt.Println("Cannot start transfer:", err)
		return
	}

	amount, err := getSimpleText(a.reader, "Amount (min 10.00)", os.Stdout)
	if err != nil {
		return
	}
	reason, err := getSimpleText(a.reader, "Reason (optional)", os.Stdout)
	if err != nil {
		return
	}

	stop := a.startProgressPrinter()
	err = a.executor.Submit(ctx, amount, reason)
	stop()

	if err != nil {
		fmt.Println("Transfer failed:", err)
		if _, pending := a.executor.Request(); pending {
			fmt.Println("Amount and reason are kept; run 'transfer' again to retry.")
		}
		return
	}
	fmt.Println("Transfer complete.")
}

// pickAccounts runs the two-click selection loop. Entering 0 cancels; a
// cancel while armed first disarms.
func (a *App) pickAccounts(list []models.Account) *transfer.Requested {
	for {
		if armed, ok := a.selector.Armed(); ok {
			fmt.Printf("Source: %s. Pick a target (0 to cancel):\n",
				accounts.DisplayName(armed, list, a.config.Incognito))
		} else {
			fmt.Println("Pick a source account (0 to cancel):")
		}

		for i, acc := range list {
			marker := "  "
			if !a.selector.IsClickable(acc, list) {
				marker = " -"
			}
			fmt.Printf("%s%2d. %-30s %s\n", marker, i+1,
				accounts.DisplayName(acc, list, a.config.Incognito), acc.Kind)
		}

		input, err := getSimpleText(a.reader, "Account number", os.Stdout)
		if err != nil {
			return nil
		}
		idx, err := strconv.Atoi(input)
		if err != nil || idx < 0 || idx > len(list) {
			fmt.Println("Not a valid number.")
			continue
		}
		if idx == 0 {
			return nil
		}

		picked := list[idx-1]
		if !a.selector.IsClickable(picked, list) {
			fmt.Println("That account cannot be selected here.")
			continue
		}
		if req := a.selector.Click(picked, list); req != nil {
			return req
		}
	}
}

// startProgressPrinter echoes progress step labels while a submission runs.
// The returned function stops it.
func (a *App) startProgressPrinter() func() {
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()

		last := 0
		for {
			select {
			case <-ticker.C:
				if step := a.executor.Step(); step > last {
					last = step
					fmt.Printf("[%d/%d] %s\n", step, models.TransferSteps, models.TransferStepLabel(step))
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}
