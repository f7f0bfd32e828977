package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/api"
	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/config"
	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/history"
	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/listing"
	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/obs"
	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/worker"
)

func serveCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Usage: "listen port", Value: cfg.HTTPPort},
		},
		Action: func(c *cli.Context) error {
			return serve(c.Context, cfg, c.String("port"))
		},
	}
}

func serve(ctx context.Context, cfg config.Config, port string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := obs.NewMetrics(reg)

	pool, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}

	var (
		recorder listing.Recorder
		lister   api.HistoryLister
	)
	if pool != nil {
		defer pool.Close()
		repo := history.NewPgRepository(pool)
		recorder, lister = repo, repo
	} else {
		slog.Info("DATABASE_URL not set, lookup history disabled")
	}

	svc, err := newListingService(cfg, metrics, recorder)
	if err != nil {
		return err
	}

	if cfg.CacheSweepInterval > 0 {
		go worker.NewSweepWorker(svc, cfg.CacheSweepInterval, metrics).Run(ctx)
	}

	srv := api.NewServer(port, api.NewHandler(svc, lister, cfg.DefaultCurrency), metrics)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
