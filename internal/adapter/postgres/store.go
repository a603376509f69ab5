// Package postgres persists station catalogs and water-level series.
//
// Layout follows the historical sqlite database: one table per station,
// named by the station id, holding (ts, value) rows, plus a stations table
// for the catalog. Rejected observations are stored as SQL NULL so they stay
// distinguishable from timestamps that were never observed.
package postgres

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glslr/levels-etl/internal/domain"
)

// Store wraps a pgx pool with the loader's persistence operations.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL and ensures the catalog table exists.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.ensureCatalogTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) ensureCatalogTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS stations (
    id       text PRIMARY KEY,
    provider text NOT NULL,
    name     text NOT NULL,
    cd       double precision
)`)
	if err != nil {
		return fmt.Errorf("ensure stations table: %w", err)
	}
	return nil
}

// SaveCatalog upserts station metadata records.
func (s *Store) SaveCatalog(ctx context.Context, cat domain.Catalog) error {
	if cat.Len() == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `INSERT INTO stations (id, provider, name, cd)
VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE
SET provider = EXCLUDED.provider,
    name = EXCLUDED.name,
    cd = EXCLUDED.cd`

	for _, stn := range cat.Stations {
		batch.Queue(query, stn.ID, string(stn.Provider), stn.Name, stn.DatumCorrection)
	}

	res := s.pool.SendBatch(ctx, batch)
	defer res.Close()

	for range cat.Stations {
		if _, err := res.Exec(); err != nil {
			return fmt.Errorf("save catalog: %w", err)
		}
	}
	return nil
}

// LoadCatalog reads all station metadata rows.
func (s *Store) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, provider, name, cd FROM stations ORDER BY id`)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("load catalog: %w", err)
	}
	defer rows.Close()

	var cat domain.Catalog
	for rows.Next() {
		var stn domain.Station
		var provider string
		if err := rows.Scan(&stn.ID, &provider, &stn.Name, &stn.DatumCorrection); err != nil {
			return domain.Catalog{}, fmt.Errorf("scan catalog row: %w", err)
		}
		stn.Provider = domain.Provider(provider)
		cat.Stations = append(cat.Stations, stn)
	}
	return cat, rows.Err()
}

// EnsureStationTable creates the per-station level table if missing.
func (s *Store) EnsureStationTable(ctx context.Context, stationID string) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    ts    timestamptz NOT NULL,
    value double precision
)`, stationTable(stationID))
	if _, err := s.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("ensure table for station %s: %w", stationID, err)
	}
	return nil
}

// AppendSeries appends the series to the station's table and returns the
// number of rows written. Rejected values become NULL.
func (s *Store) AppendSeries(ctx context.Context, stationID string, series *domain.Series) (int, error) {
	obs := series.Observations()
	if len(obs) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	query := fmt.Sprintf(`INSERT INTO %s (ts, value) VALUES ($1,$2)`, stationTable(stationID))
	for _, o := range obs {
		var v *float64
		if !o.Rejected() {
			value := o.Value
			v = &value
		}
		batch.Queue(query, o.Time, v)
	}

	res := s.pool.SendBatch(ctx, batch)
	defer res.Close()

	for range obs {
		if _, err := res.Exec(); err != nil {
			return 0, fmt.Errorf("append series for station %s: %w", stationID, err)
		}
	}
	return len(obs), nil
}

// ReadSeries returns the station's stored series within [start, end]. A nil
// bound leaves that side open.
func (s *Store) ReadSeries(ctx context.Context, stationID string, start, end *time.Time) (*domain.Series, error) {
	q := fmt.Sprintf(`SELECT ts, value FROM %s`, stationTable(stationID))
	var args []any
	switch {
	case start != nil && end != nil:
		q += ` WHERE ts >= $1 AND ts <= $2`
		args = append(args, *start, *end)
	case start != nil:
		q += ` WHERE ts >= $1`
		args = append(args, *start)
	case end != nil:
		q += ` WHERE ts <= $1`
		args = append(args, *end)
	}
	q += ` ORDER BY ts`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("read series for station %s: %w", stationID, err)
	}
	defer rows.Close()

	series := domain.NewSeries()
	for rows.Next() {
		var ts time.Time
		var v *float64
		if err := rows.Scan(&ts, &v); err != nil {
			return nil, fmt.Errorf("scan series row for station %s: %w", stationID, err)
		}
		if v == nil {
			series.Set(ts.UTC(), math.NaN())
		} else {
			series.Set(ts.UTC(), *v)
		}
	}
	return series, rows.Err()
}

// stationTable quotes a station id for use as a table name. IDs are numeric
// strings, so quoting keeps them valid identifiers.
func stationTable(stationID string) string {
	return pgx.Identifier{stationID}.Sanitize()
}
