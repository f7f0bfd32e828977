package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/config"
	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/database"
	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/history"
	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/listing"
	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/obs"
	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/provider"
	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/scrape"
)

// openHistory connects to the lookup history store. It returns a nil pool
// when DATABASE_URL is unset.
func openHistory(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(ctx, pool, history.Migrations()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return pool, nil
}

func newListingService(cfg config.Config, metrics *obs.Metrics, recorder listing.Recorder) (*listing.Service, error) {
	client := provider.NewClient(cfg.ProviderURL, cfg.ProviderDomain, cfg.ProviderTimeout)
	scraper := scrape.NewScraper(cfg.ScrapeTimeout)

	return listing.NewService(client, scraper, listing.Options{
		CacheTTL:         cfg.CacheTTL,
		DetailsCacheSize: cfg.DetailsCacheSize,
		Metrics:          metrics,
		History:          recorder,
	})
}
