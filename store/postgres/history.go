package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/meenmo/actus/engine"
	"github.com/meenmo/actus/event"
	"github.com/meenmo/actus/observability"
	"github.com/meenmo/actus/state"
	"github.com/meenmo/actus/store"
)

// HistoryStore implements store.HistoryStore using PostgreSQL.
type HistoryStore struct {
	pool    *Pool
	metrics *observability.Metrics
}

// NewHistoryStore creates a new HistoryStore. metrics may be nil.
func NewHistoryStore(pool *Pool, metrics *observability.Metrics) *HistoryStore {
	return &HistoryStore{pool: pool, metrics: metrics}
}

// Compile-time interface check.
var _ store.HistoryStore = (*HistoryStore)(nil)

// SaveHistory replaces the stored history of h.ContractID in one transaction.
func (s *HistoryStore) SaveHistory(ctx context.Context, h *engine.History) (err error) {
	defer timed(s.metrics, "save_history", time.Now(), &err)
	if h == nil || h.ContractID == "" {
		return store.ErrInvalidInput
	}

	initial, err := json.Marshal(h.Initial)
	if err != nil {
		return fmt.Errorf("encode initial state: %w", err)
	}
	final, err := json.Marshal(h.Final)
	if err != nil {
		return fmt.Errorf("encode final state: %w", err)
	}
	unhandled := make([]string, len(h.Unhandled))
	for i, t := range h.Unhandled {
		unhandled[i] = t.String()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err = tx.Exec(ctx, `DELETE FROM histories WHERE contract_id = $1`, h.ContractID); err != nil {
		return fmt.Errorf("delete previous history: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO histories (contract_id, initial_state, final_state, unhandled)
		VALUES ($1, $2, $3, $4)
	`, h.ContractID, initial, final, unhandled)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}

	batch := &pgx.Batch{}
	for _, ev := range h.Events {
		pre, err := encodeState(ev.StatePre)
		if err != nil {
			return err
		}
		post, err := encodeState(ev.StatePost)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO history_events (
				contract_id, seq, event_type, event_time, calc_time, currency, payoff, injected, state_pre, state_post
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, h.ContractID, ev.Sequence, ev.Type.String(), ev.Time.UTC(), nullTime(ev.CalcTime),
			ev.Currency, ev.Payoff, ev.Injected, pre, post)
	}
	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert events: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// LoadHistory retrieves a history. Returns ErrNotFound if not exists.
func (s *HistoryStore) LoadHistory(ctx context.Context, contractID string) (h *engine.History, err error) {
	defer timed(s.metrics, "load_history", time.Now(), &err)

	var initial, final []byte
	var unhandled []string
	err = s.pool.QueryRow(ctx, `
		SELECT initial_state, final_state, unhandled
		FROM histories
		WHERE contract_id = $1
	`, contractID).Scan(&initial, &final, &unhandled)
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("load history %s: %w", contractID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("load history: %w", err)
	}

	h = &engine.History{ContractID: contractID}
	if err = json.Unmarshal(initial, &h.Initial); err != nil {
		return nil, fmt.Errorf("decode initial state: %w", err)
	}
	if err = json.Unmarshal(final, &h.Final); err != nil {
		return nil, fmt.Errorf("decode final state: %w", err)
	}
	for _, name := range unhandled {
		t, perr := event.ParseType(name)
		if perr != nil {
			return nil, fmt.Errorf("decode unhandled type: %w", perr)
		}
		h.Unhandled = append(h.Unhandled, t)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT seq, event_type, event_time, calc_time, currency, payoff, injected, state_pre, state_post
		FROM history_events
		WHERE contract_id = $1
		ORDER BY seq ASC
	`, contractID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		h.Events = append(h.Events, ev)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return h, nil
}

// ListContracts returns the stored contract ids in ascending order.
func (s *HistoryStore) ListContracts(ctx context.Context) (ids []string, err error) {
	defer timed(s.metrics, "list_contracts", time.Now(), &err)

	rows, err := s.pool.Query(ctx, `SELECT contract_id FROM histories ORDER BY contract_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	ids, err = pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	return ids, nil
}

// DeleteHistory removes a history and its events. Returns ErrNotFound if not exists.
func (s *HistoryStore) DeleteHistory(ctx context.Context, contractID string) (err error) {
	defer timed(s.metrics, "delete_history", time.Now(), &err)

	tag, err := s.pool.Exec(ctx, `DELETE FROM histories WHERE contract_id = $1`, contractID)
	if err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete history %s: %w", contractID, store.ErrNotFound)
	}
	return nil
}

func scanEvent(rows pgx.Rows) (event.ContractEvent, error) {
	var (
		ev        event.ContractEvent
		typ       string
		calc      *time.Time
		pre, post []byte
	)
	if err := rows.Scan(&ev.Sequence, &typ, &ev.Time, &calc, &ev.Currency, &ev.Payoff, &ev.Injected, &pre, &post); err != nil {
		return ev, fmt.Errorf("scan event: %w", err)
	}
	t, err := event.ParseType(typ)
	if err != nil {
		return ev, fmt.Errorf("decode event type: %w", err)
	}
	ev.Type = t
	ev.Time = ev.Time.UTC()
	if calc != nil {
		ev.CalcTime = calc.UTC()
	}
	if ev.StatePre, err = decodeState(pre); err != nil {
		return ev, err
	}
	if ev.StatePost, err = decodeState(post); err != nil {
		return ev, err
	}
	return ev, nil
}

func encodeState(s *state.ContractState) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return b, nil
}

func decodeState(b []byte) (*state.ContractState, error) {
	if b == nil {
		return nil, nil
	}
	var s state.ContractState
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	s.StatusDate = s.StatusDate.UTC()
	s.MaturityDate = s.MaturityDate.UTC()
	if !s.AccrualDate.IsZero() {
		s.AccrualDate = s.AccrualDate.UTC()
	}
	return &s, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
