package cli

import (
	"context"
	"fmt"
	"strings"
)

func (a *App) getStatus() string {
	s := a.session.State().String()
	if a.config.Incognito {
		s += " incognito"
	}
	return fmt.Sprintf("(%s)", s)
}

func (a *App) Root(ctx context.Context) {
	fmt.Println("Welcome to boursomate (type 'help' for commands)")

	if err := a.Login(ctx); err != nil {
		fmt.Println("Login failed:", err)
	}
	if a.isReady() {
		a.confirmDueJobs(ctx)
	}

	for {
		fmt.Printf("bmate %s> ", a.getStatus())
		line, err := a.reader.ReadString('\n')
		if err != nil {
			break
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isReady() {
				fmt.Println("Available commands: accounts, refresh, transfer, dca, orders, logout, exit")
				fmt.Println("  dca subcommands: list, add, delete <id>, run <id>")
			} else {
				fmt.Println("Available commands: login, exit")
			}
		case "login":
			if err := a.Login(ctx); err != nil {
				fmt.Println("Login failed:", err)
			} else if a.isReady() {
				a.confirmDueJobs(ctx)
			}
		case "accounts":
			a.listAccounts(ctx)
		case "refresh":
			a.refreshAccounts(ctx)
		case "transfer":
			a.runTransfer(ctx)
		case "dca":
			a.dcaCommand(ctx, args)
		case "orders":
			a.listOrders(ctx)
		case "logout":
			a.Logout(ctx)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}
}

func (a *App) requireReady() bool {
	if !a.isReady() {
		fmt.Println("Not logged in. Use 'login' first.")
		return false
	}
	return true
}
