// Command loader runs one load cycle: it fetches recent water levels for
// every catalog station from the CHS and NOAA web services, cleans and
// resamples them, and appends them to the database.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chsadapter "github.com/glslr/levels-etl/internal/adapter/chs"
	httpadapter "github.com/glslr/levels-etl/internal/adapter/http"
	noaaadapter "github.com/glslr/levels-etl/internal/adapter/noaa"
	"github.com/glslr/levels-etl/internal/adapter/postgres"
	"github.com/glslr/levels-etl/internal/catalog"
	"github.com/glslr/levels-etl/internal/config"
	"github.com/glslr/levels-etl/internal/domain"
	"github.com/glslr/levels-etl/internal/observability"
	"github.com/glslr/levels-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	cat, err := catalog.Bootstrap(ctx, store, cfg.StationsCSV, logger)
	if err != nil {
		logger.Error("failed to load station catalog", "error", err)
		os.Exit(1)
	}

	// The local-to-UTC offset is captured once at startup and reused for
	// every conversion in this run.
	normalizer := domain.NewNormalizer(domain.StartupUTCOffset(time.Now()))

	p := pipeline.New(map[domain.Provider]pipeline.Fetcher{
		domain.ProviderCHS:  chsadapter.NewClient(cfg.CHSBaseURL, cfg.FetchTimeout, normalizer, logger, metrics),
		domain.ProviderNOAA: noaaadapter.NewClient(cfg.NOAABaseURL, cfg.FetchTimeout, logger, metrics),
	}, store, logger, metrics, cfg.FetchTimeout)

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, store, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	end := time.Now()
	start := end.AddDate(0, 0, -cfg.LookbackDays)
	logger.Info("starting load run",
		"stations", cat.Len(),
		"timestep", cfg.Timestep,
		"lookback_days", cfg.LookbackDays,
	)

	results := p.Run(ctx, cat, start, end, cfg.Timestep)
	for outcome, n := range pipeline.Summary(results) {
		logger.Info("run summary", "outcome", string(outcome), "stations", n)
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}
	logger.Info("run complete")
}
