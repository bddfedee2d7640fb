package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/meenmo/actus/observability"
	"github.com/meenmo/actus/observer"
	"github.com/meenmo/actus/store"
)

// SeriesStore implements store.SeriesStore using PostgreSQL.
type SeriesStore struct {
	pool    *Pool
	metrics *observability.Metrics
}

// NewSeriesStore creates a new SeriesStore. metrics may be nil.
func NewSeriesStore(pool *Pool, metrics *observability.Metrics) *SeriesStore {
	return &SeriesStore{pool: pool, metrics: metrics}
}

// Compile-time interface check.
var _ store.SeriesStore = (*SeriesStore)(nil)

// SaveSeries upserts points; an existing observation at the same time is overwritten.
func (s *SeriesStore) SaveSeries(ctx context.Context, id string, pts []observer.Point) (err error) {
	defer timed(s.metrics, "save_series", time.Now(), &err)
	if id == "" {
		return store.ErrInvalidInput
	}
	if len(pts) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range pts {
		batch.Queue(`
			INSERT INTO risk_factor_points (series_id, observed_at, value)
			VALUES ($1, $2, $3)
			ON CONFLICT (series_id, observed_at) DO UPDATE SET value = EXCLUDED.value
		`, id, p.Time.UTC(), p.Value)
	}
	if err = s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save series %s: %w", id, err)
	}
	return nil
}

// LoadSeries reads every point of ids into one observer.
func (s *SeriesStore) LoadSeries(ctx context.Context, interp observer.Interpolation, ids ...string) (ts *observer.TimeSeries, err error) {
	defer timed(s.metrics, "load_series", time.Now(), &err)

	series := make(map[string][]observer.Point, len(ids))
	for _, id := range ids {
		rows, err := s.pool.Query(ctx, `
			SELECT observed_at, value
			FROM risk_factor_points
			WHERE series_id = $1
			ORDER BY observed_at ASC
		`, id)
		if err != nil {
			return nil, fmt.Errorf("load series %s: %w", id, err)
		}
		pts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (observer.Point, error) {
			var p observer.Point
			err := row.Scan(&p.Time, &p.Value)
			p.Time = p.Time.UTC()
			return p, err
		})
		if err != nil {
			return nil, fmt.Errorf("load series %s: %w", id, err)
		}
		if len(pts) == 0 {
			return nil, fmt.Errorf("load series %s: %w", id, store.ErrNotFound)
		}
		series[id] = pts
	}
	return observer.NewTimeSeries(interp, series), nil
}
