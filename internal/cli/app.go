// Package cli is the interactive REPL surface of boursomate: login and MFA
// prompts, account listing, interactive transfers and recurring-job
// management.
package cli

import (
	"bufio"
	"context"
	"os"
	"path/filepath"

	"github.com/bmaret/boursomate/internal/broker"
	"github.com/bmaret/boursomate/internal/config"
	"github.com/bmaret/boursomate/internal/dca"
	"github.com/bmaret/boursomate/internal/logging"
	"github.com/bmaret/boursomate/internal/session"
	"github.com/bmaret/boursomate/internal/store"
	"github.com/bmaret/boursomate/internal/transfer"
)

type App struct {
	config   *config.Config
	log      logging.Logger
	client   broker.Client
	session  *session.Coordinator
	executor *transfer.Executor
	selector transfer.Selector
	runner   *dca.Runner
	stores   *store.Stores
	reader   *bufio.Reader
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	if err := os.MkdirAll(c.DataDir, 0o700); err != nil {
		return nil, err
	}

	stores, err := store.InitDatabase(ctx, filepath.Join(c.DataDir, "boursomate.db"))
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	client := broker.NewHTTPClient(c.Endpoint, log)
	coordinator := session.NewCoordinator(client, log)

	return &App{
		config:   c,
		log:      log,
		client:   client,
		session:  coordinator,
		executor: transfer.NewExecutor(client, coordinator, log),
		runner:   dca.NewRunner(client, stores.Jobs, stores.Orders, log),
		stores:   stores,
		reader:   bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer func() {
		_ = a.client.Close()
		_ = a.stores.Close()
	}()
	a.Root(ctx)
}

func (a *App) isReady() bool {
	return a.session.State() == session.StateReady
}
