package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/bmaret/boursomate/internal/buildinfo"
	"github.com/bmaret/boursomate/internal/cli"
	"github.com/bmaret/boursomate/internal/config"
	"github.com/bmaret/boursomate/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	level := slog.LevelInfo
	if cfg.DevMode {
		level = slog.LevelDebug
	}
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	app, err := cli.NewApp(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "startup failed", "error", err)
		os.Exit(1)
	}

	app.Run(ctx)
}
