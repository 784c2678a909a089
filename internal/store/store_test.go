package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmaret/boursomate/internal/dca"
	"github.com/bmaret/boursomate/internal/models"
)

func setupStores(t *testing.T) *Stores {
	t.Helper()
	stores, err := InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = stores.Close() })
	return stores
}

func monthlyJob(t *testing.T, amount string) dca.Job {
	t.Helper()
	job, err := dca.NewJob(
		dca.Schedule{Freq: dca.Monthly, Day: 1},
		dca.OrderSpec{
			Symbol:    "1rTCW8",
			AccountID: "pea-1",
			Side:      dca.SideBuy,
			Size:      dca.AmountOf(decimal.RequireFromString(amount)),
		},
	)
	require.NoError(t, err)
	return job
}

func TestJobStore_SaveAndList(t *testing.T) {
	stores := setupStores(t)
	ctx := context.Background()

	job := monthlyJob(t, "50")
	job.LastRun = 1_700_000_000_000
	require.NoError(t, stores.Jobs.SaveJob(ctx, job))

	got, err := stores.Jobs.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, job.ID, got[0].ID)
	assert.Equal(t, dca.Monthly, got[0].Schedule.Freq)
	assert.Equal(t, 1, got[0].Schedule.Day)
	assert.Equal(t, int64(1_700_000_000_000), got[0].LastRun)

	amount, ok := got[0].Order.Size.Amount()
	require.True(t, ok)
	assert.True(t, amount.Equal(decimal.RequireFromString("50")))
}

func TestJobStore_UpsertReplaces(t *testing.T) {
	stores := setupStores(t)
	ctx := context.Background()

	job := monthlyJob(t, "50")
	require.NoError(t, stores.Jobs.SaveJob(ctx, job))

	job.LastRun = 42
	require.NoError(t, stores.Jobs.SaveJob(ctx, job))

	got, err := stores.Jobs.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(42), got[0].LastRun)
}

func TestJobStore_QuantityVariantRoundTrips(t *testing.T) {
	stores := setupStores(t)
	ctx := context.Background()

	job, err := dca.NewJob(
		dca.Schedule{Freq: dca.Weekly, Day: 1},
		dca.OrderSpec{Symbol: "1rTCW8", AccountID: "pea-1", Side: dca.SideBuy, Size: dca.SharesOf(3)},
	)
	require.NoError(t, err)
	require.NoError(t, stores.Jobs.SaveJob(ctx, job))

	got, err := stores.Jobs.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)

	qty, ok := got[0].Order.Size.Quantity()
	require.True(t, ok)
	assert.Equal(t, int64(3), qty)
	_, hasAmount := got[0].Order.Size.Amount()
	assert.False(t, hasAmount)
}

func TestJobStore_Delete(t *testing.T) {
	stores := setupStores(t)
	ctx := context.Background()

	job := monthlyJob(t, "50")
	require.NoError(t, stores.Jobs.SaveJob(ctx, job))
	require.NoError(t, stores.Jobs.DeleteJob(ctx, job.ID))

	got, err := stores.Jobs.ListJobs(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.Error(t, stores.Jobs.DeleteJob(ctx, job.ID), "deleting a missing job fails loudly")
}

func TestOrderStore_RecordAndList(t *testing.T) {
	stores := setupStores(t)
	ctx := context.Background()

	older := models.PlacedOrder{
		ID: "ord-1", Price: decimal.RequireFromString("101.50"),
		Symbol: "1rTCW8", AccountID: "pea-1", Quantity: 3, Side: "buy", Timestamp: 100,
	}
	newer := models.PlacedOrder{
		ID: "ord-2", Price: decimal.RequireFromString("99.00"),
		Symbol: "1rTCW8", AccountID: "pea-1", Quantity: 1, Side: "buy", Timestamp: 200,
	}
	require.NoError(t, stores.Orders.RecordOrder(ctx, older))
	require.NoError(t, stores.Orders.RecordOrder(ctx, newer))

	got, err := stores.Orders.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ord-2", got[0].ID, "newest first")
	assert.True(t, got[1].Price.Equal(older.Price))
}

func TestCredentialStore_PasswordOptIn(t *testing.T) {
	stores := setupStores(t)
	ctx := context.Background()

	_, err := stores.Credentials.Load(ctx)
	require.ErrorIs(t, err, ErrNoCredentials)

	creds := models.Credentials{ClientID: "12345678", Password: "87654321"}
	require.NoError(t, stores.Credentials.Save(ctx, creds, false))

	got, err := stores.Credentials.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "12345678", got.ClientID)
	assert.Empty(t, got.Password, "password stored only on opt-in")

	require.NoError(t, stores.Credentials.Save(ctx, creds, true))
	got, err = stores.Credentials.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "87654321", got.Password)

	// Saving again without opt-in wipes the stored password.
	require.NoError(t, stores.Credentials.Save(ctx, creds, false))
	got, err = stores.Credentials.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Password)
}

func TestStores_Purge(t *testing.T) {
	stores := setupStores(t)
	ctx := context.Background()

	require.NoError(t, stores.Jobs.SaveJob(ctx, monthlyJob(t, "50")))
	require.NoError(t, stores.Credentials.Save(ctx, models.Credentials{ClientID: "12345678", Password: "87654321"}, true))

	require.NoError(t, stores.Purge(ctx))

	jobs, err := stores.Jobs.ListJobs(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)
	_, err = stores.Credentials.Load(ctx)
	assert.ErrorIs(t, err, ErrNoCredentials)
}
