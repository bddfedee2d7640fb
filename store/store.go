// Package store persists simulation histories and the risk-factor series
// simulations are run against.
package store

import (
	"context"
	"errors"

	"github.com/meenmo/actus/engine"
	"github.com/meenmo/actus/observer"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)

// HistoryStore keeps the latest simulation history per contract.
type HistoryStore interface {
	// SaveHistory stores h, replacing any earlier history of the same contract.
	SaveHistory(ctx context.Context, h *engine.History) error

	// LoadHistory returns the stored history. Returns ErrNotFound if none exists.
	LoadHistory(ctx context.Context, contractID string) (*engine.History, error)

	// ListContracts returns the ids of stored histories in ascending order.
	ListContracts(ctx context.Context) ([]string, error)

	// DeleteHistory removes a history. Returns ErrNotFound if none exists.
	DeleteHistory(ctx context.Context, contractID string) error
}

// SeriesStore keeps dated risk-factor observations by market object code.
type SeriesStore interface {
	// SaveSeries upserts points of one series.
	SaveSeries(ctx context.Context, id string, pts []observer.Point) error

	// LoadSeries builds an observer over the given series. Returns ErrNotFound
	// if any id has no points.
	LoadSeries(ctx context.Context, interp observer.Interpolation, ids ...string) (*observer.TimeSeries, error)
}
