package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	app := &cli.App{
		Name:  "listingd",
		Usage: "aggregate listing details, prices and page metadata",
		Commands: []*cli.Command{
			serveCommand(cfg),
			lookupCommand(cfg),
			exportCommand(cfg),
		},
		DefaultCommand: "serve",
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		slog.Error("listingd failed", "error", err)
		stop()
		os.Exit(1)
	}
}
