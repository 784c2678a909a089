package cli

import (
	"context"
	"fmt"

	"github.com/bmaret/boursomate/internal/accounts"
	"github.com/bmaret/boursomate/internal/session"
)

func (a *App) listAccounts(ctx context.Context) {
	if !a.requireReady() {
		return
	}

	list := a.session.Accounts()
	if len(list) == 0 {
		fmt.Println("No accounts.")
		return
	}

	for i, acc := range list {
		name := accounts.DisplayName(acc, list, a.config.Incognito)
		line := fmt.Sprintf("%2d. %-30s %-8s %12s", i+1, name, acc.Kind, accounts.FormatBalance(acc.Balance))
		if acc.CashBalance != nil {
			line += fmt.Sprintf("  (cash: %s)", acc.CashBalance.StringFixed(2))
		}
		fmt.Println(line)
	}
	fmt.Printf("Total: %s\n", accounts.FormatBalance(accounts.TotalBalance(list)))
}

// refreshAccounts works from Authenticated onward so a login whose account
// fetch failed can be completed without re-entering credentials.
func (a *App) refreshAccounts(ctx context.Context) {
	if a.session.State() < session.StateAuthenticated {
		fmt.Println("Not logged in. Use 'login' first.")
		return
	}
	if err := a.session.RefreshAccounts(ctx); err != nil {
		fmt.Println("Refresh failed:", err)
		return
	}
	a.listAccounts(ctx)
}

func (a *App) listOrders(ctx context.Context) {
	if !a.requireReady() {
		return
	}

	orders, err := a.stores.Orders.ListOrders(ctx)
	if err != nil {
		fmt.Println("Listing orders failed:", err)
		return
	}
	if len(orders) == 0 {
		fmt.Println("No orders recorded.")
		return
	}
	for _, o := range orders {
		fmt.Printf("%-12s %-4s %4d x %-8s @ %s\n", o.ID, o.Side, o.Quantity, o.Symbol, o.Price.StringFixed(2))
	}
}
