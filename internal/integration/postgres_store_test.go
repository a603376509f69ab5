//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/glslr/levels-etl/internal/adapter/postgres"
	"github.com/glslr/levels-etl/internal/domain"
	"github.com/glslr/levels-etl/internal/observability"
	"github.com/glslr/levels-etl/internal/pipeline"
)

// startPostgres runs a throwaway postgres container and returns its URL.
func startPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("levels"),
		tcpostgres.WithUsername("levels"),
		tcpostgres.WithPassword("levels"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start postgres container")

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "postgres connection string")
	return url
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func hour(day, h int) time.Time {
	return time.Date(2020, time.May, day, h, 0, 0, 0, time.UTC)
}

// TestStoreRoundTrip verifies that a series, rejected readings included,
// survives a write and read through the real database unchanged.
func TestStoreRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := postgres.New(ctx, startPostgres(ctx, t))
	require.NoError(t, err)
	t.Cleanup(store.Close)

	cd := 0.5
	cat := domain.Catalog{Stations: []domain.Station{
		{ID: "15930", Provider: domain.ProviderCHS, Name: "Sorel", DatumCorrection: &cd},
		{ID: "9052030", Provider: domain.ProviderNOAA, Name: "Oswego"},
	}}
	require.NoError(t, store.SaveCatalog(ctx, cat))

	loaded, err := store.LoadCatalog(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Len())
	assert.Equal(t, "15930", loaded.Stations[0].ID)
	require.NotNil(t, loaded.Stations[0].DatumCorrection)
	assert.Equal(t, 0.5, *loaded.Stations[0].DatumCorrection)
	assert.Nil(t, loaded.Stations[1].DatumCorrection)

	series := domain.NewSeries()
	series.Set(hour(2, 10), 74.12)
	series.Set(hour(2, 11), math.NaN())
	series.Set(hour(2, 12), 74.18)

	require.NoError(t, store.EnsureStationTable(ctx, "15930"))
	rows, err := store.AppendSeries(ctx, "15930", series)
	require.NoError(t, err)
	assert.Equal(t, 3, rows)

	got, err := store.ReadSeries(ctx, "15930", nil, nil)
	require.NoError(t, err)
	require.Equal(t, 3, got.Len())

	v, ok := got.At(hour(2, 10))
	require.True(t, ok)
	assert.Equal(t, 74.12, v)

	v, ok = got.At(hour(2, 11))
	require.True(t, ok, "rejected reading keeps its timestamp")
	assert.True(t, math.IsNaN(v), "NULL reads back as a rejected value")

	v, ok = got.At(hour(2, 12))
	require.True(t, ok)
	assert.Equal(t, 74.18, v)

	// Bounded read trims both ends.
	start, end := hour(2, 11), hour(2, 12)
	bounded, err := store.ReadSeries(ctx, "15930", &start, &end)
	require.NoError(t, err)
	assert.Equal(t, 2, bounded.Len())
}

// TestEnsureStationTableIdempotent re-creates and re-appends to the same
// station table without error.
func TestEnsureStationTableIdempotent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := postgres.New(ctx, startPostgres(ctx, t))
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, store.EnsureStationTable(ctx, "15930"))
	require.NoError(t, store.EnsureStationTable(ctx, "15930"))

	series := domain.NewSeries()
	series.Set(hour(2, 10), 74.12)
	for i := 0; i < 2; i++ {
		_, err := store.AppendSeries(ctx, "15930", series)
		require.NoError(t, err)
	}

	got, err := store.ReadSeries(ctx, "15930", nil, nil)
	require.NoError(t, err)
	// Appends are not deduplicated; the reader's Set collapses equal stamps.
	assert.Equal(t, 1, got.Len())
}

type stubFetcher struct {
	series *domain.Series
}

func (s *stubFetcher) Fetch(_ context.Context, _ domain.Station, _, _ time.Time, _ domain.Timestep) (*domain.Series, error) {
	return s.series.Clone(), nil
}

// TestPipelineEndToEnd runs the orchestrator against the real store and reads
// the written levels back.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := postgres.New(ctx, startPostgres(ctx, t))
	require.NoError(t, err)
	t.Cleanup(store.Close)

	series := domain.NewSeries()
	for h := 0; h < 24; h++ {
		series.Set(hour(2, h), 74.0+float64(h)*0.01)
	}

	fetchers := map[domain.Provider]pipeline.Fetcher{
		domain.ProviderCHS: &stubFetcher{series: series},
	}
	p := pipeline.New(fetchers, store, discardLogger(), observability.NewMetricsForTesting(), time.Minute)

	cat := domain.Catalog{Stations: []domain.Station{
		{ID: "15930", Provider: domain.ProviderCHS, Name: "Sorel"},
	}}
	results := p.Run(ctx, cat, hour(2, 0), hour(3, 0), domain.TimestepHourly)

	require.Len(t, results, 1)
	require.Equal(t, pipeline.OutcomeStored, results[0].Outcome)
	assert.Equal(t, 24, results[0].Rows)

	got, err := store.ReadSeries(ctx, "15930", nil, nil)
	require.NoError(t, err)
	require.Equal(t, 24, got.Len())
	v, ok := got.At(hour(2, 23))
	require.True(t, ok)
	assert.InDelta(t, 74.23, v, 1e-9)
}
