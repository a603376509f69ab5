// Command backfill loads a historical date range of water levels, optionally
// for a single station. It shares the loader's pipeline but takes its range
// from flags instead of the lookback window.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	chsadapter "github.com/glslr/levels-etl/internal/adapter/chs"
	noaaadapter "github.com/glslr/levels-etl/internal/adapter/noaa"
	"github.com/glslr/levels-etl/internal/adapter/postgres"
	"github.com/glslr/levels-etl/internal/catalog"
	"github.com/glslr/levels-etl/internal/config"
	"github.com/glslr/levels-etl/internal/domain"
	"github.com/glslr/levels-etl/internal/observability"
	"github.com/glslr/levels-etl/internal/pipeline"
)

func main() {
	var (
		startFlag   = flag.String("start", "", "range start, YYYY-MM-DD (required)")
		endFlag     = flag.String("end", "", "range end, YYYY-MM-DD (required)")
		stepFlag    = flag.String("timestep", "", "override configured timestep")
		stationFlag = flag.String("station", "", "backfill only this station id")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	start, end, err := parseRange(*startFlag, *endFlag)
	if err != nil {
		logger.Error("invalid range", "error", err)
		os.Exit(2)
	}

	step := cfg.Timestep
	if *stepFlag != "" {
		step = domain.Timestep(*stepFlag)
		switch step {
		case domain.TimestepDefault, domain.TimestepHourly, domain.TimestepDaily, domain.Timestep15Min:
		default:
			logger.Error("invalid timestep", "timestep", *stepFlag)
			os.Exit(2)
		}
	}

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
	if *stationFlag != "" {
		cat = filterStation(cat, *stationFlag)
		if cat.Len() == 0 {
			logger.Error("station not in catalog", "station", *stationFlag)
			os.Exit(2)
		}
	}

	normalizer := domain.NewNormalizer(domain.StartupUTCOffset(time.Now()))

	p := pipeline.New(map[domain.Provider]pipeline.Fetcher{
		domain.ProviderCHS:  chsadapter.NewClient(cfg.CHSBaseURL, cfg.FetchTimeout, normalizer, logger, metrics),
		domain.ProviderNOAA: noaaadapter.NewClient(cfg.NOAABaseURL, cfg.FetchTimeout, logger, metrics),
	}, store, logger, metrics, cfg.FetchTimeout)

	logger.Info("starting backfill",
		"stations", cat.Len(),
		"start", start.Format("2006-01-02"),
		"end", end.Format("2006-01-02"),
		"timestep", step,
	)

	results := p.Run(ctx, cat, start, end, step)
	for outcome, n := range pipeline.Summary(results) {
		logger.Info("backfill summary", "outcome", string(outcome), "stations", n)
	}

	if counts := pipeline.Summary(results); counts[pipeline.OutcomeUpstreamError] > 0 {
		os.Exit(1)
	}
}

func parseRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	if startRaw == "" || endRaw == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("-start and -end are required")
	}
	start, err := time.Parse("2006-01-02", startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse -start: %w", err)
	}
	end, err := time.Parse("2006-01-02", endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse -end: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("-end is before -start")
	}
	return start, end, nil
}

func filterStation(cat domain.Catalog, id string) domain.Catalog {
	var out domain.Catalog
	for _, stn := range cat.Stations {
		if stn.ID == id {
			out.Stations = append(out.Stations, stn)
		}
	}
	return out
}
