package dca

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bmaret/boursomate/internal/models"
)

// Job is one recurring purchase. LastRun is epoch milliseconds, 0 for a job
// that has never executed.
type Job struct {
	ID       string    `json:"id"`
	Schedule Schedule  `json:"schedule"`
	Order    OrderSpec `json:"order"`
	LastRun  int64     `json:"lastRun"`
}

// NewJob validates schedule and order and derives the job id. The id is a
// pure function of the definition, so re-submitting an identical form yields
// the same id and the save becomes an idempotent replacement.
func NewJob(schedule Schedule, order OrderSpec) (Job, error) {
	if err := schedule.Validate(); err != nil {
		return Job{}, err
	}
	if err := order.Validate(); err != nil {
		return Job{}, err
	}
	return Job{
		ID:       jobID(schedule, order),
		Schedule: schedule,
		Order:    order,
	}, nil
}

func jobID(schedule Schedule, order OrderSpec) string {
	return fmt.Sprintf("%sorder_%s_%s_%s", schedule.Freq, order.Side, order.Size, order.Symbol)
}

// CostEstimate is the estimated cost of one run. Known is false when no
// price is available to convert a share quantity; that is never reported
// as a zero cost.
type CostEstimate struct {
	Cost  decimal.Decimal
	Known bool
}

// EstimateCost prices one run of the job. Amount-sized orders cost their
// amount; quantity-sized orders cost quantity times the latest close from
// the symbol's price history.
func EstimateCost(job Job, histories []models.PriceHistory) CostEstimate {
	if amount, ok := job.Order.Size.Amount(); ok {
		return CostEstimate{Cost: amount, Known: true}
	}
	qty, ok := job.Order.Size.Quantity()
	if !ok {
		return CostEstimate{}
	}
	history, ok := models.FindHistory(histories, job.Order.Symbol)
	if !ok {
		return CostEstimate{}
	}
	latest, ok := history.LatestClose()
	if !ok {
		return CostEstimate{}
	}
	return CostEstimate{Cost: latest.Mul(decimal.NewFromInt(qty)), Known: true}
}

// Sufficiency of the target account's cash balance for one run.
type Sufficiency int

const (
	// SufficiencyUnknown: the cost is indeterminate or the account has no
	// resolvable cash balance. Never treated as sufficient.
	SufficiencyUnknown Sufficiency = iota
	SufficiencyOK
	SufficiencyInsufficient
)

func (s Sufficiency) String() string {
	switch s {
	case SufficiencyOK:
		return "ok"
	case SufficiencyInsufficient:
		return "insufficient"
	default:
		return "unknown"
	}
}

// CheckBalance compares the job's estimated cost against the cash balance of
// its target account.
func CheckBalance(job Job, accounts []models.Account, estimate CostEstimate) Sufficiency {
	if !estimate.Known {
		return SufficiencyUnknown
	}
	for _, a := range accounts {
		if a.ID != job.Order.AccountID {
			continue
		}
		if a.Kind != models.KindTrading || a.CashBalance == nil {
			return SufficiencyUnknown
		}
		if a.CashBalance.LessThan(estimate.Cost) {
			return SufficiencyInsufficient
		}
		return SufficiencyOK
	}
	return SufficiencyUnknown
}

// Annotated decorates a job with everything the list view needs.
type Annotated struct {
	Job
	Cost         CostEstimate
	Sufficiency  Sufficiency
	NextRunLabel string
}

// Annotate derives per-job cost, sufficiency and next-run annotations.
func Annotate(jobs []Job, accounts []models.Account, histories []models.PriceHistory, now time.Time) []Annotated {
	out := make([]Annotated, 0, len(jobs))
	for _, job := range jobs {
		estimate := EstimateCost(job, histories)
		out = append(out, Annotated{
			Job:          job,
			Cost:         estimate,
			Sufficiency:  CheckBalance(job, accounts, estimate),
			NextRunLabel: job.Schedule.NextRunLabel(job.LastRun, now),
		})
	}
	return out
}
