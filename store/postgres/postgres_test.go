//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/meenmo/actus/engine"
	"github.com/meenmo/actus/event"
	"github.com/meenmo/actus/observability"
	"github.com/meenmo/actus/observer"
	"github.com/meenmo/actus/state"
	"github.com/meenmo/actus/store"
)

// setupTestDB starts a PostgreSQL container and applies the embedded migrations.
func setupTestDB(t *testing.T) *Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")
	require.NoError(t, Migrate(ctx, pool))
	// Migrations are idempotent.
	require.NoError(t, Migrate(ctx, pool))

	t.Cleanup(func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})
	return pool
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleHistory(id string) *engine.History {
	initial := state.New(date(2025, 1, 1), date(2026, 1, 1)).
		WithNotional(1000).
		WithNominalRate(0.05).
		WithNextPrincipalRedemption(250)
	mid := initial.WithDates(date(2025, 7, 1), date(2025, 6, 28))
	final := mid.WithStatusDate(date(2026, 1, 1)).WithNotional(0)

	ip := event.New(event.IP, date(2025, 7, 1), "USD")
	ip.Payoff = 25
	ip.CalcTime = date(2025, 6, 28)
	ip.StatePre = &initial
	ip.StatePost = &mid
	md := event.New(event.MD, date(2026, 1, 1), "USD")
	md.Payoff = 1000
	md.Sequence = 1
	md.CalcTime = date(2026, 1, 1)
	md.Injected = true
	md.StatePre = &mid
	md.StatePost = &final

	return &engine.History{
		ContractID: id,
		Events:     []event.ContractEvent{ip, md},
		Initial:    initial,
		Final:      final,
		Unhandled:  []event.Type{event.CE},
	}
}

func TestHistoryStore_RoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	metrics := observability.NewMetrics(prometheus.NewRegistry(), "actus")
	s := NewHistoryStore(pool, metrics)

	h := sampleHistory("loan-1")
	require.NoError(t, s.SaveHistory(ctx, h))

	got, err := s.LoadHistory(ctx, "loan-1")
	require.NoError(t, err)
	assert.Equal(t, h, got)

	// Saving again replaces the events.
	h.Events = h.Events[:1]
	require.NoError(t, s.SaveHistory(ctx, h))
	got, err = s.LoadHistory(ctx, "loan-1")
	require.NoError(t, err)
	assert.Len(t, got.Events, 1)

	assert.Equal(t, 2, testutil.CollectAndCount(metrics.StoreQueryDuration))
}

func TestHistoryStore_ListDelete(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	s := NewHistoryStore(pool, nil)

	require.NoError(t, s.SaveHistory(ctx, sampleHistory("b")))
	require.NoError(t, s.SaveHistory(ctx, sampleHistory("a")))

	ids, err := s.ListContracts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, s.DeleteHistory(ctx, "a"))
	require.ErrorIs(t, s.DeleteHistory(ctx, "a"), store.ErrNotFound)
	_, err = s.LoadHistory(ctx, "a")
	require.ErrorIs(t, err, store.ErrNotFound)

	var events int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM history_events WHERE contract_id = 'a'`).Scan(&events))
	assert.Zero(t, events)
}

func TestSeriesStore_UpsertAndLoad(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	s := NewSeriesStore(pool, nil)

	require.NoError(t, s.SaveSeries(ctx, "SOFR", []observer.Point{
		{Time: date(2025, 1, 1), Value: 0.04},
		{Time: date(2025, 7, 1), Value: 0.05},
	}))
	require.NoError(t, s.SaveSeries(ctx, "SOFR", []observer.Point{
		{Time: date(2025, 7, 1), Value: 0.06},
	}))

	ts, err := s.LoadSeries(ctx, observer.Linear, "SOFR")
	require.NoError(t, err)
	v, err := ts.Observe("SOFR", date(2025, 7, 1))
	require.NoError(t, err)
	assert.InDelta(t, 0.06, v, 1e-12)

	_, err = s.LoadSeries(ctx, observer.Step, "EURIBOR")
	require.ErrorIs(t, err, store.ErrNotFound)
}
