package engine_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/actus/config"
	"github.com/meenmo/actus/contracts"
	"github.com/meenmo/actus/engine"
	"github.com/meenmo/actus/errs"
	"github.com/meenmo/actus/event"
	"github.com/meenmo/actus/observability"
	"github.com/meenmo/actus/payoff"
	"github.com/meenmo/actus/state"
	"github.com/meenmo/actus/terms"
)

var (
	d0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d1 = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	d2 = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	d3 = time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
)

// fake pays 10 and adds 1 to the notional on IP; PP pays 3 and removes 5.
type fake struct{ terms terms.ContractTerms }

func newFake(t *testing.T) *fake {
	t.Helper()
	ct, err := terms.Parse([]byte("contract_type: CSH\ncontract_id: fake\ncurrency: USD\nstatus_date: 2025-01-01\n"))
	require.NoError(t, err)
	return &fake{terms: ct}
}

func (f *fake) ID() string                 { return f.terms.ContractID }
func (f *fake) Terms() terms.ContractTerms { return f.terms }

func (f *fake) GenerateEventSchedule(*payoff.Context) (event.Schedule, error) {
	return event.NewSchedule(f.ID(), []event.ContractEvent{
		event.New(event.IP, d1, "USD"),
		event.New(event.IP, d2, "USD"),
	}), nil
}

func (f *fake) InitializeState(*payoff.Context) (state.ContractState, error) {
	return state.New(d0, time.Time{}).WithNotional(100), nil
}

func constant(v float64) payoff.PayoffFunc {
	return func(*payoff.Context, event.ContractEvent, state.ContractState, time.Time) (float64, error) {
		return v, nil
	}
}

func shift(d float64) payoff.TransitionFunc {
	return func(_ *payoff.Context, _ event.ContractEvent, pre state.ContractState, _ time.Time) (state.ContractState, error) {
		return pre.WithNotional(pre.Notional + d), nil
	}
}

func (f *fake) Functions() payoff.Table {
	return payoff.Table{
		event.IP: {Payoff: constant(10), Transition: shift(1)},
		event.PP: {Payoff: constant(3), Transition: shift(-5)},
		event.AD: payoff.NoOp,
	}
}

func types(h *engine.History) []event.Type {
	out := make([]event.Type, 0, len(h.Events))
	for _, ev := range h.Events {
		out = append(out, ev.Type)
	}
	return out
}

func TestSimulate_FoldsScheduleInOrder(t *testing.T) {
	h, err := engine.New().Simulate(newFake(t), nil)
	require.NoError(t, err)

	require.Len(t, h.Events, 2)
	assert.Equal(t, 100.0, h.Initial.Notional)
	assert.Equal(t, 102.0, h.Final.Notional)
	assert.Equal(t, 20.0, h.TotalPayoff())
	for i, ev := range h.Events {
		assert.Equal(t, i, ev.Sequence)
		assert.Equal(t, ev.Time, ev.StatePost.StatusDate)
	}
	assert.Equal(t, *h.Events[0].StatePost, *h.Events[1].StatePre)
	assert.Equal(t, 101.0, h.StateAt(d1.AddDate(0, 1, 0)).Notional)
	assert.Equal(t, 100.0, h.StateAt(d0).Notional)
}

func TestSimulate_MergesInjectedEvent(t *testing.T) {
	h, err := engine.New().Simulate(newFake(t), nil, engine.WithEvents(event.New(event.PP, d2, "")))
	require.NoError(t, err)

	require.Equal(t, []event.Type{event.IP, event.PP}, types(h))
	merged := h.Events[1]
	assert.Equal(t, 13.0, merged.Payoff)
	assert.Equal(t, 101.0, merged.StatePre.Notional)
	assert.Equal(t, 97.0, merged.StatePost.Notional)
	assert.False(t, merged.Injected)
	assert.Equal(t, 1, merged.Sequence)
	assert.Equal(t, 97.0, h.Final.Notional)
}

func TestSimulate_InjectedEventInOtherCurrencyStaysSeparate(t *testing.T) {
	h, err := engine.New().Simulate(newFake(t), nil, engine.WithEvents(event.New(event.PP, d2, "EUR")))
	require.NoError(t, err)

	require.Equal(t, []event.Type{event.IP, event.PP, event.IP}, types(h))
	assert.True(t, h.Events[1].Injected)
	assert.Equal(t, "EUR", h.Events[1].Currency)
}

func TestSimulate_AnalysisDates(t *testing.T) {
	h, err := engine.New().Simulate(newFake(t), nil, engine.WithAnalysisDates(d1, d3))
	require.NoError(t, err)

	require.Equal(t, []event.Type{event.IP, event.AD, event.IP, event.AD}, types(h))
	assert.Zero(t, h.Events[1].Payoff)
	assert.Equal(t, 101.0, h.Events[1].StatePost.Notional)
	assert.Equal(t, d3, h.Final.StatusDate)
}

func TestSimulate_Until(t *testing.T) {
	h, err := engine.New().Simulate(newFake(t), nil, engine.Until(d1))
	require.NoError(t, err)
	require.Len(t, h.Events, 1)
	assert.Equal(t, 101.0, h.Final.Notional)
}

func TestSimulate_UnhandledEventIsNoOp(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg, "")

	e := engine.New(engine.WithLogger(logger), engine.WithMetrics(m))
	h, err := e.Simulate(newFake(t), nil, engine.WithEvents(event.New(event.CE, d3, "")))
	require.NoError(t, err)

	assert.Equal(t, []event.Type{event.CE}, h.Unhandled)
	require.Len(t, h.Events, 3)
	assert.Zero(t, h.Events[2].Payoff)
	assert.Equal(t, 102.0, h.Final.Notional)

	assert.Contains(t, buf.String(), "unhandled event type")
	assert.Contains(t, buf.String(), "simulation complete")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnhandledEvents.WithLabelValues("CSH", "CE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SimulationsTotal.WithLabelValues("CSH", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsProcessed.WithLabelValues("IP")))
}

func TestSimulate_StrictCoverageRejectsUnhandled(t *testing.T) {
	cfg := config.Default()
	cfg.StrictEventCoverage = true
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg, "")

	_, err := engine.New(engine.WithConfig(cfg), engine.WithMetrics(m)).
		Simulate(newFake(t), nil, engine.WithEvents(event.New(event.CE, d3, "")))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrPayoff)
	assert.Contains(t, err.Error(), "Simulate: contract fake")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SimulationsTotal.WithLabelValues("CSH", "error")))
}

func TestSchedule_IncludesInjectedEvents(t *testing.T) {
	e := engine.New()
	c := newFake(t)
	ctx, err := e.NewContext(c, nil)
	require.NoError(t, err)

	sched, err := e.Schedule(c, ctx, engine.WithEvents(event.New(event.PP, d3, "")))
	require.NoError(t, err)
	require.Equal(t, 3, sched.Len())
	assert.Equal(t, "USD", sched.At(2).Currency)
	assert.True(t, sched.At(2).Injected)
}

func TestRegistry(t *testing.T) {
	reg := contracts.NewRegistry()
	assert.Equal(t, []terms.ContractType{terms.CSH, terms.LAM, terms.PAM}, reg.Types())

	_, err := reg.New(terms.ContractTerms{ContractID: "x", ContractType: terms.ContractType("ANN")})
	assert.ErrorIs(t, err, errs.ErrAttribute)
}

const portfolio = `
- contract_type: CSH
  contract_id: a-cash
  currency: USD
  status_date: 2025-01-01
  notional_principal: 500
- contract_type: PAM
  contract_id: b-loan
  currency: USD
  day_count_convention: 30E360
  status_date: 2025-01-01
  initial_exchange_date: 2025-01-01
  maturity_date: 2026-01-01
  notional_principal: 1000
  nominal_interest_rate: 0.1
  cycle_of_interest_payment: P6ML0
- contract_type: LAM
  contract_id: c-amortizer
  currency: USD
  day_count_convention: 30E360
  status_date: 2025-01-01
  initial_exchange_date: 2025-01-01
  maturity_date: 2026-01-01
  notional_principal: 1000
  nominal_interest_rate: 0.1
  cycle_of_principal_redemption: P6ML0
`

func TestSimulatePortfolio(t *testing.T) {
	cts, err := terms.ParseAll([]byte(portfolio))
	require.NoError(t, err)
	cfg := config.Default()
	cfg.PortfolioWorkers = 2

	out, err := engine.New(engine.WithConfig(cfg)).
		SimulatePortfolio(context.Background(), contracts.NewRegistry(), cts, nil)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "a-cash", out[0].ContractID)
	assert.Equal(t, "b-loan", out[1].ContractID)
	assert.Equal(t, "c-amortizer", out[2].ContractID)
	assert.InDelta(t, 100.0, out[1].TotalPayoff(), 1e-9)
	assert.InDelta(t, 75.0, out[2].TotalPayoff(), 1e-9)
}

func TestSimulatePortfolio_Cancelled(t *testing.T) {
	cts, err := terms.ParseAll([]byte(portfolio))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = engine.New().SimulatePortfolio(ctx, contracts.NewRegistry(), cts, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulatePortfolio_UnknownType(t *testing.T) {
	_, err := engine.New().SimulatePortfolio(context.Background(), engine.NewRegistry(),
		[]terms.ContractTerms{{ContractID: "x", ContractType: terms.PAM}}, nil)
	assert.ErrorIs(t, err, errs.ErrAttribute)
}
