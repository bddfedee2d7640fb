package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/actus/engine"
	"github.com/meenmo/actus/event"
	"github.com/meenmo/actus/observer"
	"github.com/meenmo/actus/state"
	"github.com/meenmo/actus/store"
	"github.com/meenmo/actus/store/memory"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func history(id string) *engine.History {
	initial := state.New(date(2025, 1, 1), date(2026, 1, 1)).WithNotional(1000)
	post := initial.WithNotional(0)
	ev := event.New(event.MD, date(2026, 1, 1), "USD")
	ev.Payoff = 1000
	ev.StatePre = &initial
	ev.StatePost = &post
	return &engine.History{
		ContractID: id,
		Events:     []event.ContractEvent{ev},
		Initial:    initial,
		Final:      post,
		Unhandled:  []event.Type{event.CE},
	}
}

func TestHistoryStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	s := memory.NewHistoryStore()

	h := history("loan-1")
	require.NoError(t, s.SaveHistory(ctx, h))

	got, err := s.LoadHistory(ctx, "loan-1")
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestHistoryStore_CopiesOnSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := memory.NewHistoryStore()

	h := history("loan-1")
	require.NoError(t, s.SaveHistory(ctx, h))
	h.Events[0].Payoff = -1
	h.Events[0].StatePost.Notional = 42

	got, err := s.LoadHistory(ctx, "loan-1")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, got.Events[0].Payoff)
	assert.Equal(t, 0.0, got.Events[0].StatePost.Notional)

	got.Unhandled[0] = event.AD
	again, err := s.LoadHistory(ctx, "loan-1")
	require.NoError(t, err)
	assert.Equal(t, []event.Type{event.CE}, again.Unhandled)
}

func TestHistoryStore_ReplaceListDelete(t *testing.T) {
	ctx := context.Background()
	s := memory.NewHistoryStore()

	require.NoError(t, s.SaveHistory(ctx, history("b")))
	require.NoError(t, s.SaveHistory(ctx, history("a")))
	replaced := history("b")
	replaced.Events = nil
	require.NoError(t, s.SaveHistory(ctx, replaced))

	ids, err := s.ListContracts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	got, err := s.LoadHistory(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, got.Events)

	require.NoError(t, s.DeleteHistory(ctx, "a"))
	require.ErrorIs(t, s.DeleteHistory(ctx, "a"), store.ErrNotFound)
	_, err = s.LoadHistory(ctx, "a")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestHistoryStore_RejectsInvalid(t *testing.T) {
	s := memory.NewHistoryStore()
	assert.ErrorIs(t, s.SaveHistory(context.Background(), nil), store.ErrInvalidInput)
	assert.ErrorIs(t, s.SaveHistory(context.Background(), &engine.History{}), store.ErrInvalidInput)
}

func TestSeriesStore_UpsertAndObserve(t *testing.T) {
	ctx := context.Background()
	s := memory.NewSeriesStore()

	require.NoError(t, s.SaveSeries(ctx, "SOFR", []observer.Point{
		{Time: date(2025, 1, 1), Value: 0.04},
		{Time: date(2025, 7, 1), Value: 0.05},
	}))
	require.NoError(t, s.SaveSeries(ctx, "SOFR", []observer.Point{
		{Time: date(2025, 7, 1), Value: 0.06},
	}))

	ts, err := s.LoadSeries(ctx, observer.Step, "SOFR")
	require.NoError(t, err)

	v, err := ts.Observe("SOFR", date(2025, 3, 1))
	require.NoError(t, err)
	assert.Equal(t, 0.04, v)

	v, err = ts.Observe("SOFR", date(2025, 8, 1))
	require.NoError(t, err)
	assert.Equal(t, 0.06, v)

	_, err = s.LoadSeries(ctx, observer.Step, "SOFR", "EURIBOR")
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.SaveSeries(ctx, "", nil), store.ErrInvalidInput)
}
