// Package pipeline orchestrates the per-station fetch, clean, resample, and
// store cycle for a load run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/glslr/levels-etl/internal/domain"
	"github.com/glslr/levels-etl/internal/observability"
)

// Fetcher retrieves a cleaned, resampled series for one station. A provider
// adapter implements this per upstream service.
type Fetcher interface {
	Fetch(ctx context.Context, stn domain.Station, start, end time.Time, step domain.Timestep) (*domain.Series, error)
}

// Store persists fetched series.
type Store interface {
	EnsureStationTable(ctx context.Context, stationID string) error
	AppendSeries(ctx context.Context, stationID string, series *domain.Series) (int, error)
}

// Outcome classifies how one station's fetch ended.
type Outcome string

const (
	OutcomeStored         Outcome = "stored"
	OutcomeNoData         Outcome = "no_data"
	OutcomeInvalidStation Outcome = "invalid_station"
	OutcomeUpstreamError  Outcome = "upstream_error"
)

// StationResult is the per-station record of a run. One station's failure
// never aborts the batch; callers inspect results instead of errors.
type StationResult struct {
	Station domain.Station
	Outcome Outcome
	Rows    int
	Err     error
}

// Pipeline runs the load cycle across a station catalog.
type Pipeline struct {
	fetchers     map[domain.Provider]Fetcher
	store        Store
	logger       *slog.Logger
	metrics      *observability.Metrics
	fetchTimeout time.Duration
	processed    atomic.Bool
}

// New creates a Pipeline. fetchTimeout bounds one station's complete
// windowed fetch; zero disables the bound.
func New(fetchers map[domain.Provider]Fetcher, store Store, logger *slog.Logger, metrics *observability.Metrics, fetchTimeout time.Duration) *Pipeline {
	return &Pipeline{
		fetchers:     fetchers,
		store:        store,
		logger:       logger,
		metrics:      metrics,
		fetchTimeout: fetchTimeout,
	}
}

// CheckReadiness returns nil once the run has processed at least one station.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.processed.Load() {
		return errors.New("no station processed yet")
	}
	return nil
}

// Run fetches and stores every catalog station sequentially over
// [start, end] at the given timestep. Stations are independent: each gets
// its own result and the batch continues past failures. Run returns early
// only when the context is cancelled.
func (p *Pipeline) Run(ctx context.Context, cat domain.Catalog, start, end time.Time, step domain.Timestep) []StationResult {
	p.metrics.RunActive.Set(1)
	defer p.metrics.RunActive.Set(0)

	results := make([]StationResult, 0, cat.Len())
	for i, stn := range cat.Stations {
		if ctx.Err() != nil {
			p.logger.Info("run cancelled", "reason", ctx.Err(), "stations_done", i)
			return results
		}

		p.logger.Info("fetching station",
			"station", stn.ID,
			"name", stn.Name,
			"provider", stn.Provider,
			"position", fmt.Sprintf("%d/%d", i+1, cat.Len()),
		)

		res := p.processStation(ctx, stn, start, end, step)
		results = append(results, res)
		p.processed.Store(true)
		p.metrics.StationsProcessed.WithLabelValues(string(stn.Provider), string(res.Outcome)).Inc()

		switch res.Outcome {
		case OutcomeStored:
			p.logger.Info("station stored", "station", stn.ID, "rows", res.Rows)
		case OutcomeNoData:
			p.logger.Warn("no data for station", "station", stn.ID, "name", stn.Name)
		default:
			p.logger.Warn("station failed", "station", stn.ID, "outcome", res.Outcome, "error", res.Err)
		}
	}
	return results
}

func (p *Pipeline) processStation(ctx context.Context, stn domain.Station, start, end time.Time, step domain.Timestep) StationResult {
	res := StationResult{Station: stn}

	fetcher, ok := p.fetchers[stn.Provider]
	if !ok {
		res.Outcome = OutcomeInvalidStation
		res.Err = fmt.Errorf("no fetcher for provider %q", stn.Provider)
		return res
	}

	fetchCtx := ctx
	if p.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, p.fetchTimeout)
		defer cancel()
	}

	timer := time.Now()
	series, err := fetcher.Fetch(fetchCtx, stn, start, end, step)
	p.metrics.FetchDuration.WithLabelValues(string(stn.Provider)).Observe(time.Since(timer).Seconds())

	switch {
	case errors.Is(err, domain.ErrInvalidStationID):
		res.Outcome = OutcomeInvalidStation
		res.Err = err
		return res
	case errors.Is(err, domain.ErrStationUnavailable):
		res.Outcome = OutcomeNoData
		res.Err = err
		return res
	case err != nil:
		res.Outcome = OutcomeUpstreamError
		res.Err = err
		return res
	}

	if series.Len() == 0 {
		res.Outcome = OutcomeNoData
		return res
	}

	if err := p.store.EnsureStationTable(ctx, stn.ID); err != nil {
		res.Outcome = OutcomeUpstreamError
		res.Err = err
		return res
	}
	rows, err := p.store.AppendSeries(ctx, stn.ID, series)
	if err != nil {
		res.Outcome = OutcomeUpstreamError
		res.Err = err
		return res
	}

	res.Outcome = OutcomeStored
	res.Rows = rows
	p.metrics.RowsWritten.Add(float64(rows))
	return res
}

// Summary tallies outcomes for end-of-run logging.
func Summary(results []StationResult) map[Outcome]int {
	counts := make(map[Outcome]int)
	for _, r := range results {
		counts[r.Outcome]++
	}
	return counts
}
