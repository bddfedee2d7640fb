// Package engine runs the generic per-contract lifecycle simulation: build
// the event schedule, initialise the state, then fold every event through its
// payoff and state transition functions.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/meenmo/actus/calendar"
	"github.com/meenmo/actus/config"
	"github.com/meenmo/actus/errs"
	"github.com/meenmo/actus/event"
	"github.com/meenmo/actus/observability"
	"github.com/meenmo/actus/observer"
	"github.com/meenmo/actus/payoff"
	"github.com/meenmo/actus/state"
	"github.com/meenmo/actus/terms"
	"github.com/meenmo/actus/utils"
)

// Contract is one contract type implementation bound to its terms.
type Contract interface {
	ID() string
	Terms() terms.ContractTerms
	GenerateEventSchedule(ctx *payoff.Context) (event.Schedule, error)
	InitializeState(ctx *payoff.Context) (state.ContractState, error)
	Functions() payoff.Table
}

// Engine evaluates contracts. It holds no per-simulation state and is safe
// for concurrent use.
type Engine struct {
	cfg       config.Config
	logger    *slog.Logger
	metrics   *observability.Metrics
	calendars *calendar.Registry
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets the configuration.
func WithConfig(cfg config.Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithCalendars sets the holiday calendar registry.
func WithCalendars(r *calendar.Registry) Option {
	return func(e *Engine) { e.calendars = r }
}

// New builds an engine with default configuration.
func New(opts ...Option) *Engine {
	e := &Engine{cfg: config.Default()}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("component", "engine")
	if e.calendars == nil {
		e.calendars = calendar.NewRegistry()
	}
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() config.Config { return e.cfg }

// Calendars returns the holiday calendar registry.
func (e *Engine) Calendars() *calendar.Registry { return e.calendars }

type simOptions struct {
	injected      []event.ContractEvent
	analysisDates []time.Time
	children      observer.ChildContracts
	until         time.Time
}

// SimOption configures one simulation.
type SimOption func(*simOptions)

// WithEvents injects externally supplied events, such as an unscheduled
// prepayment. An injected event sharing instant and currency with a scheduled
// event is merged into it.
func WithEvents(evs ...event.ContractEvent) SimOption {
	return func(o *simOptions) { o.injected = append(o.injected, evs...) }
}

// WithAnalysisDates adds AD events at the given dates.
func WithAnalysisDates(dates ...time.Time) SimOption {
	return func(o *simOptions) { o.analysisDates = append(o.analysisDates, dates...) }
}

// WithChildren exposes underlying contracts to composite contract types.
func WithChildren(c observer.ChildContracts) SimOption {
	return func(o *simOptions) { o.children = c }
}

// Until stops the simulation after the last event on or before t.
func Until(t time.Time) SimOption {
	return func(o *simOptions) { o.until = t }
}

// NewContext builds the payoff context of c with the engine's settings.
func (e *Engine) NewContext(c Contract, obs observer.RiskFactor) (*payoff.Context, error) {
	ctx, err := payoff.NewContext(c.Terms(), obs, e.calendars)
	if err != nil {
		return nil, err
	}
	ctx.Tolerance = e.cfg.StateTolerance
	ctx.MaxDurationYears = e.cfg.MaxDurationYears
	return ctx, nil
}

// Schedule builds the full event schedule of c: generated events plus
// injected events and analysis dates.
func (e *Engine) Schedule(c Contract, ctx *payoff.Context, opts ...SimOption) (event.Schedule, error) {
	o := collect(opts)
	sched, err := c.GenerateEventSchedule(ctx)
	if err != nil {
		return event.Schedule{}, fmt.Errorf("Schedule: contract %s: %w", c.ID(), err)
	}
	return e.extend(sched, ctx, o), nil
}

func (e *Engine) extend(sched event.Schedule, ctx *payoff.Context, o simOptions) event.Schedule {
	extra := make([]event.ContractEvent, 0, len(o.injected)+len(o.analysisDates))
	for _, ev := range o.injected {
		ev.Injected = true
		if ev.Currency == "" {
			ev.Currency = ctx.Terms.PayoffCurrency()
		}
		extra = append(extra, ev)
	}
	for _, d := range o.analysisDates {
		extra = append(extra, event.New(event.AD, d, ctx.Terms.PayoffCurrency()))
	}
	if len(extra) > 0 {
		sched = sched.Add(extra...)
	}
	if !o.until.IsZero() {
		sched = sched.Between(time.Time{}, o.until)
	}
	return sched
}

func collect(opts []SimOption) simOptions {
	var o simOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Simulate runs c against obs and returns the evaluated history.
func (e *Engine) Simulate(c Contract, obs observer.RiskFactor, opts ...SimOption) (*History, error) {
	start := time.Now()
	contractType := string(c.Terms().ContractType)
	h, err := e.simulate(c, obs, collect(opts))
	status := "ok"
	if err != nil {
		status = "error"
	}
	e.metrics.ObserveSimulation(contractType, status, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("Simulate: contract %s: %w", c.ID(), err)
	}
	e.logger.Debug("simulation complete", "contract_id", c.ID(), "events", len(h.Events))
	return h, nil
}

func (e *Engine) simulate(c Contract, obs observer.RiskFactor, o simOptions) (*History, error) {
	ctx, err := e.NewContext(c, obs)
	if err != nil {
		return nil, err
	}
	ctx.Children = o.children

	sched, err := c.GenerateEventSchedule(ctx)
	if err != nil {
		return nil, err
	}
	sched = e.extend(sched, ctx, o)

	s, err := c.InitializeState(ctx)
	if err != nil {
		return nil, err
	}

	h := &History{ContractID: c.ID(), Initial: s}
	table := c.Functions()
	unhandled := make(map[event.Type]bool)
	evs := sched.Events()
	for i := range evs {
		ev := &evs[i]
		pair, ok := table.Lookup(ev.Type)
		if !ok {
			if e.cfg.StrictEventCoverage {
				return nil, errs.New(errs.KindPayoff, "no payoff function for event type",
					"event_type", ev.Type.String(), "event_time", ev.Time.Format(utils.DateLayout),
					"contract_type", string(ctx.Terms.ContractType))
			}
			if !unhandled[ev.Type] {
				unhandled[ev.Type] = true
				h.Unhandled = append(h.Unhandled, ev.Type)
				e.logger.Warn("unhandled event type",
					"contract_id", c.ID(), "contract_type", string(ctx.Terms.ContractType), "event_type", ev.Type.String())
			}
			e.metrics.ObserveUnhandled(string(ctx.Terms.ContractType), ev.Type.String())
			pair = payoff.NoOp
		}

		amount, post, err := payoff.Evaluate(ctx, pair, *ev, s)
		if err != nil {
			return nil, err
		}
		pre := s
		ev.Payoff = amount
		ev.StatePre = &pre
		ev.StatePost = &post
		s = post
		e.metrics.ObserveEvent(ev.Type.String())
	}

	merged, err := mergeInjected(evs)
	if err != nil {
		return nil, err
	}
	h.Events = event.NewSchedule(c.ID(), merged).Events()
	h.Final = s
	return h, nil
}

// mergeInjected folds each evaluated injected event into the first scheduled
// event at the same instant and in the same currency. Processing order is kept.
func mergeInjected(evs []event.ContractEvent) ([]event.ContractEvent, error) {
	key := func(ev event.ContractEvent) string {
		return ev.Time.Format(time.RFC3339Nano) + "|" + ev.Currency
	}
	partner := make(map[string]int)
	for i, ev := range evs {
		if ev.Injected || ev.Type == event.AD {
			continue
		}
		if _, ok := partner[key(ev)]; !ok {
			partner[key(ev)] = i
		}
	}

	merged := make([]event.ContractEvent, len(evs))
	copy(merged, evs)
	drop := make([]bool, len(evs))
	for i, ev := range evs {
		if !ev.Injected {
			continue
		}
		j, ok := partner[key(ev)]
		if !ok {
			continue
		}
		m, err := event.Combine(merged[j], ev)
		if err != nil {
			return nil, err
		}
		merged[j] = m
		drop[i] = true
	}

	out := make([]event.ContractEvent, 0, len(merged))
	for i, ev := range merged {
		if !drop[i] {
			out = append(out, ev)
		}
	}
	return out, nil
}
