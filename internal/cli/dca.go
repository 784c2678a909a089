package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bmaret/boursomate/internal/dca"
	"github.com/bmaret/boursomate/internal/models"
)

func (a *App) dcaCommand(ctx context.Context, args []string) {
	if !a.requireReady() {
		return
	}
	if len(args) == 0 {
		args = []string{"list"}
	}

	switch args[0] {
	case "list":
		a.listJobs(ctx)
	case "add":
		a.addJob(ctx)
	case "delete":
		if len(args) < 2 {
			fmt.Println("Usage: dca delete <id>")
			return
		}
		if err := a.runner.Delete(ctx, args[1]); err != nil {
			fmt.Println("Delete failed:", err)
			return
		}
		fmt.Println("Deleted.")
	case "run":
		if len(args) < 2 {
			fmt.Println("Usage: dca run <id>")
			return
		}
		job, ok := a.findJob(ctx, args[1])
		if !ok {
			fmt.Println("No such job:", args[1])
			return
		}
		a.runJob(ctx, job)
	default:
		fmt.Println("Usage: dca [list|add|delete <id>|run <id>]")
	}
}

func (a *App) findJob(ctx context.Context, id string) (dca.Job, bool) {
	jobs, err := a.runner.List(ctx)
	if err != nil {
		fmt.Println("Listing jobs failed:", err)
		return dca.Job{}, false
	}
	for _, job := range jobs {
		if job.ID == id {
			return job, true
		}
	}
	return dca.Job{}, false
}

func (a *App) listJobs(ctx context.Context) {
	jobs, err := a.runner.List(ctx)
	if err != nil {
		fmt.Println("Listing jobs failed:", err)
		return
	}
	if len(jobs) == 0 {
		fmt.Println("No recurring jobs.")
		return
	}

	// Cost estimation for quantity-sized jobs needs fresh price history.
	var symbols []string
	for _, job := range jobs {
		if _, ok := job.Order.Size.Quantity(); ok {
			symbols = append(symbols, job.Order.Symbol)
		}
	}
	if len(symbols) > 0 {
		if err := a.session.FetchPriceHistories(ctx, symbols, a.config.QuoteLengthDays); err != nil {
			a.log.Warn(ctx, "price history fetch failed", "error", err)
		}
	}

	annotated := dca.Annotate(jobs, a.session.Accounts(), a.session.PriceHistories(), time.Now())
	for _, j := range annotated {
		cost := "cost unknown"
		if j.Cost.Known {
			cost = "~" + j.Cost.Cost.StringFixed(2) + " EUR"
		}
		fmt.Printf("%-40s %-12s %-14s %-12s next: %s\n",
			j.ID, j.Schedule, cost, j.Sufficiency, j.NextRunLabel)
	}
}

func (a *App) addJob(ctx context.Context) {
	schedule, err := a.promptSchedule()
	if err != nil {
		return
	}

	symbol, err := getSimpleText(a.reader, "Symbol", os.Stdout)
	if err != nil {
		return
	}

	account, ok := a.pickTradingAccount()
	if !ok {
		return
	}

	size, err := a.promptOrderSize()
	if err != nil {
		return
	}

	job, err := a.runner.Add(ctx, schedule, dca.OrderSpec{
		Symbol:    symbol,
		AccountID: account.ID,
		Side:      dca.SideBuy,
		Size:      size,
	})
	if err != nil {
		fmt.Println("Creating job failed:", err)
		return
	}
	fmt.Println("Job saved:", job.ID)
}

func (a *App) promptSchedule() (dca.Schedule, error) {
	freq, err := getSimpleText(a.reader, "Frequency (daily/weekly/monthly)", os.Stdout)
	if err != nil {
		return dca.Schedule{}, err
	}
	schedule := dca.Schedule{Freq: dca.Frequency(freq)}
	if schedule.Freq != dca.Daily {
		schedule.Day = 1
	}
	if err := schedule.Validate(); err != nil {
		fmt.Println(err)
		return dca.Schedule{}, err
	}
	return schedule, nil
}

func (a *App) pickTradingAccount() (models.Account, bool) {
	list := a.session.Accounts()
	var trading []models.Account
	for _, acc := range list {
		if acc.Kind == models.KindTrading {
			trading = append(trading, acc)
		}
	}
	if len(trading) == 0 {
		fmt.Println("No trading accounts available.")
		return models.Account{}, false
	}
	if len(trading) == 1 {
		return trading[0], true
	}

	fmt.Println("Pick a trading account:")
	for i, acc := range trading {
		fmt.Printf("%2d. %s\n", i+1, acc.Name)
	}
	input, err := getSimpleText(a.reader, "Account number", os.Stdout)
	if err != nil {
		return models.Account{}, false
	}
	idx, err := strconv.Atoi(input)
	if err != nil || idx < 1 || idx > len(trading) {
		fmt.Println("Not a valid number.")
		return models.Account{}, false
	}
	return trading[idx-1], true
}

func (a *App) promptOrderSize() (dca.OrderSize, error) {
	input, err := getSimpleText(a.reader, "Amount in EUR (empty to size by shares)", os.Stdout)
	if err != nil {
		return dca.OrderSize{}, err
	}
	if input != "" {
		amount, err := decimal.NewFromString(input)
		if err != nil {
			fmt.Println("Not a valid amount.")
			return dca.OrderSize{}, err
		}
		return dca.AmountOf(amount), nil
	}

	input, err = getSimpleText(a.reader, "Number of shares", os.Stdout)
	if err != nil {
		return dca.OrderSize{}, err
	}
	qty, err := strconv.ParseInt(input, 10, 64)
	if err != nil || qty < 1 {
		fmt.Println("Not a valid share count.")
		return dca.OrderSize{}, fmt.Errorf("invalid share count %q", input)
	}
	return dca.SharesOf(qty), nil
}

func (a *App) runJob(ctx context.Context, job dca.Job) {
	placed, err := a.runner.Run(ctx, job)
	if err != nil {
		fmt.Println("Run failed:", err)
		return
	}
	fmt.Printf("Order placed: %s (%d x %s @ %s)\n",
		placed.ID, placed.Quantity, placed.Symbol, placed.Price.StringFixed(2))
}

// confirmDueJobs runs once after login: every stored job whose next run has
// passed is offered for an immediate run or an explicit skip.
func (a *App) confirmDueJobs(ctx context.Context) {
	due, err := a.runner.DueJobs(ctx)
	if err != nil {
		a.log.Warn(ctx, "checking due jobs failed", "error", err)
		return
	}

	for _, job := range due {
		run, err := getConfirm(a.reader, fmt.Sprintf("Job %s is due. Run it now?", job.ID), os.Stdout)
		if err != nil {
			return
		}
		if !run {
			fmt.Println("Skipped.")
			continue
		}
		a.runJob(ctx, job)
	}
}
