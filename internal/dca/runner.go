package dca

import (
	"context"
	"fmt"
	"time"

	"github.com/bmaret/boursomate/internal/broker"
	"github.com/bmaret/boursomate/internal/logging"
	"github.com/bmaret/boursomate/internal/models"
)

// JobStore persists the job list. SaveJob is an upsert keyed by job id, so
// re-adding an identical definition replaces rather than duplicates.
type JobStore interface {
	ListJobs(ctx context.Context) ([]Job, error)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, id string) error
}

// OrderRecorder appends executed orders to the local history. The brokerage
// only retains orders for a year, hence the local copy.
type OrderRecorder interface {
	RecordOrder(ctx context.Context, order models.PlacedOrder) error
}

// Runner executes recurring jobs against the brokerage adapter.
type Runner struct {
	client broker.Client
	store  JobStore
	orders OrderRecorder
	log    logging.Logger
	now    func() time.Time
}

func NewRunner(client broker.Client, store JobStore, orders OrderRecorder, log logging.Logger) *Runner {
	return &Runner{client: client, store: store, orders: orders, log: log, now: time.Now}
}

// Add persists a job definition, replacing any job with the same id.
func (r *Runner) Add(ctx context.Context, schedule Schedule, order OrderSpec) (Job, error) {
	job, err := NewJob(schedule, order)
	if err != nil {
		return Job{}, err
	}
	if err := r.store.SaveJob(ctx, job); err != nil {
		return Job{}, fmt.Errorf("saving job %s: %w", job.ID, err)
	}
	return job, nil
}

func (r *Runner) Delete(ctx context.Context, id string) error {
	return r.store.DeleteJob(ctx, id)
}

func (r *Runner) List(ctx context.Context) ([]Job, error) {
	return r.store.ListJobs(ctx)
}

// DueJobs returns the stored jobs whose next run has passed.
func (r *Runner) DueJobs(ctx context.Context) ([]Job, error) {
	jobs, err := r.store.ListJobs(ctx)
	if err != nil {
		return nil, err
	}
	now := r.now()
	var due []Job
	for _, job := range jobs {
		if job.Schedule.Due(job.LastRun, now) {
			due = append(due, job)
		}
	}
	return due, nil
}

// Run executes one job now: checks the market is open, resolves the share
// quantity, places the order, records it in the local history and advances
// the job's last-run timestamp.
//
// The last-run update happens only after a successfully placed order, so a
// failed run stays due and is retried on the next trigger.
func (r *Runner) Run(ctx context.Context, job Job) (models.PlacedOrder, error) {
	open, err := r.client.IsMarketOpen(ctx, job.Order.Symbol)
	if err != nil {
		return models.PlacedOrder{}, fmt.Errorf("checking market for %s: %w", job.Order.Symbol, err)
	}
	if !open {
		return models.PlacedOrder{}, fmt.Errorf("%w: %s", broker.ErrMarketClosed, job.Order.Symbol)
	}

	qty, err := r.resolveQuantity(ctx, job)
	if err != nil {
		return models.PlacedOrder{}, err
	}

	placed, err := r.client.PlaceOrder(ctx, job.Order.Side, job.Order.Symbol, job.Order.AccountID, qty)
	if err != nil {
		return models.PlacedOrder{}, fmt.Errorf("placing order for job %s: %w", job.ID, err)
	}
	r.log.Info(ctx, "order placed", "job", job.ID, "symbol", placed.Symbol, "quantity", placed.Quantity, "price", placed.Price)

	if err := r.orders.RecordOrder(ctx, placed); err != nil {
		// The order went through; only the local history is incomplete.
		r.log.Warn(ctx, "recording order failed", "order", placed.ID, "error", err)
	}

	job.LastRun = r.now().UnixMilli()
	if err := r.store.SaveJob(ctx, job); err != nil {
		return placed, fmt.Errorf("updating job %s after run: %w", job.ID, err)
	}
	return placed, nil
}

func (r *Runner) resolveQuantity(ctx context.Context, job Job) (int64, error) {
	if qty, ok := job.Order.Size.Quantity(); ok {
		return qty, nil
	}
	amount, ok := job.Order.Size.Amount()
	if !ok {
		return 0, errSizeExactlyOne
	}
	price, err := r.client.InstrumentQuote(ctx, job.Order.Symbol)
	if err != nil {
		return 0, fmt.Errorf("quoting %s: %w", job.Order.Symbol, err)
	}
	qty, err := SharesForAmount(amount, price)
	if err != nil {
		return 0, fmt.Errorf("sizing order for %s at %s: %w", job.Order.Symbol, price, err)
	}
	return qty, nil
}
