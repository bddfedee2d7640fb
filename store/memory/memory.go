// Package memory implements the store interfaces in process memory.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/meenmo/actus/engine"
	"github.com/meenmo/actus/event"
	"github.com/meenmo/actus/observer"
	"github.com/meenmo/actus/state"
	"github.com/meenmo/actus/store"
)

// HistoryStore is an in-memory implementation of store.HistoryStore.
type HistoryStore struct {
	mu   sync.RWMutex
	data map[string]*engine.History
}

// NewHistoryStore creates an empty store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{data: make(map[string]*engine.History)}
}

// Compile-time interface check.
var _ store.HistoryStore = (*HistoryStore)(nil)

func (s *HistoryStore) SaveHistory(_ context.Context, h *engine.History) error {
	if h == nil || h.ContractID == "" {
		return store.ErrInvalidInput
	}
	cp := clone(h)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[h.ContractID] = cp
	return nil
}

func (s *HistoryStore) LoadHistory(_ context.Context, contractID string) (*engine.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.data[contractID]
	if !ok {
		return nil, fmt.Errorf("load history %s: %w", contractID, store.ErrNotFound)
	}
	return clone(h), nil
}

func (s *HistoryStore) ListContracts(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *HistoryStore) DeleteHistory(_ context.Context, contractID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[contractID]; !ok {
		return fmt.Errorf("delete history %s: %w", contractID, store.ErrNotFound)
	}
	delete(s.data, contractID)
	return nil
}

// clone copies h so that neither caller nor store can modify the other's events.
func clone(h *engine.History) *engine.History {
	out := *h
	out.Events = make([]event.ContractEvent, len(h.Events))
	for i, ev := range h.Events {
		ev.StatePre = cloneState(ev.StatePre)
		ev.StatePost = cloneState(ev.StatePost)
		out.Events[i] = ev
	}
	out.Unhandled = append([]event.Type(nil), h.Unhandled...)
	return &out
}

func cloneState(s *state.ContractState) *state.ContractState {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

// SeriesStore is an in-memory implementation of store.SeriesStore.
type SeriesStore struct {
	mu   sync.RWMutex
	data map[string]map[time.Time]float64
}

// NewSeriesStore creates an empty store.
func NewSeriesStore() *SeriesStore {
	return &SeriesStore{data: make(map[string]map[time.Time]float64)}
}

// Compile-time interface check.
var _ store.SeriesStore = (*SeriesStore)(nil)

func (s *SeriesStore) SaveSeries(_ context.Context, id string, pts []observer.Point) error {
	if id == "" {
		return store.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	series, ok := s.data[id]
	if !ok {
		series = make(map[time.Time]float64, len(pts))
		s.data[id] = series
	}
	for _, p := range pts {
		series[p.Time.UTC()] = p.Value
	}
	return nil
}

func (s *SeriesStore) LoadSeries(_ context.Context, interp observer.Interpolation, ids ...string) (*observer.TimeSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]observer.Point, len(ids))
	for _, id := range ids {
		series, ok := s.data[id]
		if !ok || len(series) == 0 {
			return nil, fmt.Errorf("load series %s: %w", id, store.ErrNotFound)
		}
		pts := make([]observer.Point, 0, len(series))
		for t, v := range series {
			pts = append(pts, observer.Point{Time: t, Value: v})
		}
		out[id] = pts
	}
	return observer.NewTimeSeries(interp, out), nil
}
