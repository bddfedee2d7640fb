// Package payoff is the shared framework for per-event payoff and state
// transition functions. Contract types register a Table mapping event types to
// a Pair; Evaluate applies the common sign, currency and validation rules
// around the contract-specific formulas.
package payoff

import (
	"time"

	"github.com/meenmo/actus/calendar"
	"github.com/meenmo/actus/daycount"
	"github.com/meenmo/actus/errs"
	"github.com/meenmo/actus/event"
	"github.com/meenmo/actus/observer"
	"github.com/meenmo/actus/schedule"
	"github.com/meenmo/actus/state"
	"github.com/meenmo/actus/terms"
	"github.com/meenmo/actus/utils"
)

// DefaultTolerance is the numeric slack allowed by transition validation.
const DefaultTolerance = 1e-9

// Context carries what payoff and transition functions may read. It is
// built once per simulation and never modified.
type Context struct {
	Terms     terms.ContractTerms
	Observer  observer.RiskFactor
	Children  observer.ChildContracts
	Calendar  calendar.Calendar
	Counter   daycount.Counter
	Tolerance float64

	// MaxDurationYears bounds every schedule to the status date plus this many
	// years; open-ended schedules stop there.
	MaxDurationYears int

	feeCycle *schedule.Cycle
}

// NewContext resolves the contract's calendar and day count once.
func NewContext(ct terms.ContractTerms, obs observer.RiskFactor, cals *calendar.Registry) (*Context, error) {
	if cals == nil {
		cals = calendar.NewRegistry()
	}
	cal, err := cals.Lookup(ct.Calendar)
	if err != nil {
		return nil, err
	}
	counter, err := daycount.NewCounter(ct.DayCountConvention, ct.MaturityDate, cal)
	if err != nil {
		return nil, err
	}
	var feeCycle *schedule.Cycle
	if ct.CycleOfFee != "" {
		c, err := schedule.ParseCycle(ct.CycleOfFee)
		if err != nil {
			return nil, errs.Wrap(errs.KindAttribute, err, "invalid cycle", "field", "cycle_of_fee")
		}
		feeCycle = &c
	}
	return &Context{
		Terms:     ct,
		Observer:  obs,
		Calendar:  cal,
		Counter:   counter,
		Tolerance: DefaultTolerance,

		MaxDurationYears: schedule.DefaultMaxDurationYears,
		feeCycle:         feeCycle,
	}, nil
}

// YearFraction uses the contract's day count convention and calendar.
func (c *Context) YearFraction(start, end time.Time) float64 {
	return c.Counter.YearFraction(start, end)
}

// Horizon is the last date schedules may reach: the maturity date, or the
// duration limit for open-ended contracts.
func (c *Context) Horizon() time.Time {
	if !c.Terms.MaturityDate.IsZero() {
		return c.Terms.MaturityDate
	}
	return c.durationLimit()
}

func (c *Context) durationLimit() time.Time {
	years := c.MaxDurationYears
	if years <= 0 {
		years = schedule.DefaultMaxDurationYears
	}
	return c.Terms.StatusDate.AddDate(years, 0, 0)
}

// Sign is the contract role sign.
func (c *Context) Sign() float64 { return c.Terms.RoleSign() }

// Observe queries the observer on behalf of the contract.
func (c *Context) Observe(id string, t time.Time, s state.ContractState) (float64, error) {
	return observer.Query(c.Observer, id, t, s, c.Terms)
}

// PayoffFunc computes the unsigned core payoff of an event in contract currency.
type PayoffFunc func(ctx *Context, ev event.ContractEvent, pre state.ContractState, t time.Time) (float64, error)

// TransitionFunc computes the post-event state.
type TransitionFunc func(ctx *Context, ev event.ContractEvent, pre state.ContractState, t time.Time) (state.ContractState, error)

// Pair is the payoff and transition of one event type.
type Pair struct {
	Payoff     PayoffFunc
	Transition TransitionFunc
}

// PayoffFunction is implemented by anything that evaluates payoffs by event type.
type PayoffFunction interface {
	Payoff(ctx *Context, ev event.ContractEvent, pre state.ContractState, t time.Time) (float64, error)
}

// StateTransitionFunction is implemented by anything that evaluates transitions by event type.
type StateTransitionFunction interface {
	Transition(ctx *Context, ev event.ContractEvent, pre state.ContractState, t time.Time) (state.ContractState, error)
}

// Table maps event types to their functions.
type Table map[event.Type]Pair

// Lookup returns the pair for typ.
func (tb Table) Lookup(typ event.Type) (Pair, bool) {
	p, ok := tb[typ]
	return p, ok
}

// Payoff dispatches to the registered payoff; unknown types pay nothing.
func (tb Table) Payoff(ctx *Context, ev event.ContractEvent, pre state.ContractState, t time.Time) (float64, error) {
	p, ok := tb[ev.Type]
	if !ok || p.Payoff == nil {
		return 0, nil
	}
	return p.Payoff(ctx, ev, pre, t)
}

// Transition dispatches to the registered transition; unknown types keep the state.
func (tb Table) Transition(ctx *Context, ev event.ContractEvent, pre state.ContractState, t time.Time) (state.ContractState, error) {
	p, ok := tb[ev.Type]
	if !ok || p.Transition == nil {
		return pre, nil
	}
	return p.Transition(ctx, ev, pre, t)
}

// NoOp pays nothing and only advances the status date.
var NoOp = Pair{
	Payoff: func(*Context, event.ContractEvent, state.ContractState, time.Time) (float64, error) {
		return 0, nil
	},
	Transition: func(_ *Context, _ event.ContractEvent, pre state.ContractState, _ time.Time) (state.ContractState, error) {
		return pre, nil
	},
}

// Evaluate runs one event through p: the core payoff is multiplied by the
// role sign and the settlement FX rate, the transition result gets its status
// date set to the event time and is validated. Formulas see the calculation
// time, which the post state keeps as its accrual date.
func Evaluate(ctx *Context, p Pair, ev event.ContractEvent, pre state.ContractState) (float64, state.ContractState, error) {
	t := ev.CalculationTime()
	evCtx := []any{"event_type", ev.Type.String(), "event_time", ev.Time.Format(utils.DateLayout)}

	var core float64
	if p.Payoff != nil {
		v, err := p.Payoff(ctx, ev, pre, t)
		if err != nil {
			return 0, state.ContractState{}, withEvent(errs.KindPayoff, err, evCtx)
		}
		core = v
	}

	fx := 1.0
	if ctx.Terms.SettlesInForeignCurrency() && core != 0 {
		v, err := ctx.Observe(ctx.Terms.FXPair(), ev.Time, pre)
		if err != nil {
			return 0, state.ContractState{}, withEvent(errs.KindPayoff, err, evCtx)
		}
		fx = v
	}

	amount := ctx.Sign() * core * fx
	if !utils.IsFinite(amount) {
		return 0, state.ContractState{}, errs.New(errs.KindPayoff, "non-finite payoff", evCtx...)
	}

	post := pre
	if p.Transition != nil {
		v, err := p.Transition(ctx, ev, pre, t)
		if err != nil {
			return 0, state.ContractState{}, withEvent(errs.KindStateTransition, err, evCtx)
		}
		post = v
	}
	post = post.WithDates(ev.Time, t)
	if err := state.ValidateTransition(pre, post, ctx.Sign(), ctx.Tolerance); err != nil {
		return 0, state.ContractState{}, withEvent(errs.KindStateTransition, err, evCtx)
	}
	return amount, post, nil
}

// withEvent attaches event context, keeping the kind of an existing *errs.Error.
func withEvent(kind errs.Kind, err error, kv []any) error {
	if e, ok := err.(*errs.Error); ok {
		return e.With(kv...)
	}
	return errs.Wrap(kind, err, "evaluate event", kv...)
}

// Dates expands a cycle with the contract's end-of-month and business day
// conventions. A zero end means the contract's horizon; an end past the
// duration limit is a schedule error.
func (c *Context) Dates(anchor time.Time, cycle string, end time.Time) ([]schedule.Date, error) {
	if end.IsZero() {
		end = c.Horizon()
	}
	if limit := c.durationLimit(); end.After(limit) {
		return nil, errs.New(errs.KindSchedule, "schedule end beyond max duration",
			"end", end.Format(utils.DateLayout), "limit", limit.Format(utils.DateLayout),
			"max_duration_years", c.MaxDurationYears)
	}
	return schedule.GenerateDated(anchor, cycle, end, c.Terms.EndOfMonthConvention, c.Terms.BusinessDayConvention, c.Calendar)
}

// Event builds an event of the contract at d.
func (c *Context) Event(typ event.Type, d schedule.Date) event.ContractEvent {
	ev := event.New(typ, d.Event, c.Terms.PayoffCurrency())
	if !d.Calc.Equal(d.Event) {
		ev.CalcTime = d.Calc
	}
	return ev
}

// EventAt builds an event at a single, business-day adjusted date.
func (c *Context) EventAt(typ event.Type, t time.Time) event.ContractEvent {
	bdc := c.Terms.BusinessDayConvention
	return c.Event(typ, schedule.Date{Event: bdc.Shift(c.Calendar, t), Calc: bdc.CalculationDate(c.Calendar, t)})
}
