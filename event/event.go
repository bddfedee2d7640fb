// Package event defines contract events and the ordered, immutable event schedule.
package event

import (
	"time"

	"github.com/meenmo/actus/errs"
	"github.com/meenmo/actus/state"
	"github.com/meenmo/actus/utils"
)

// ContractEvent is one dated lifecycle event.
//
// Time is the payment date. CalcTime, when set, is the unadjusted date used
// for accrual calculations under calculate-then-shift conventions.
type ContractEvent struct {
	Type      Type
	Time      time.Time
	CalcTime  time.Time
	Payoff    float64
	Currency  string
	Sequence  int
	Injected  bool // supplied by the caller rather than generated from terms
	StatePre  *state.ContractState
	StatePost *state.ContractState
}

// New builds an unevaluated event.
func New(typ Type, t time.Time, currency string) ContractEvent {
	return ContractEvent{Type: typ, Time: t, Currency: currency}
}

// CalculationTime returns CalcTime if set, otherwise Time.
func (e ContractEvent) CalculationTime() time.Time {
	if e.CalcTime.IsZero() {
		return e.Time
	}
	return e.CalcTime
}

// Before reports whether e is processed before o: by time, then priority, then sequence.
func (e ContractEvent) Before(o ContractEvent) bool {
	if !e.Time.Equal(o.Time) {
		return e.Time.Before(o.Time)
	}
	if e.Type != o.Type {
		return e.Type.Priority() < o.Type.Priority()
	}
	return e.Sequence < o.Sequence
}

// Combine merges two evaluated events that fall on the same instant in the
// same currency: payoffs add up, the event processed first keeps its type and
// pre-state, and the event processed last contributes the post-state.
func Combine(a, b ContractEvent) (ContractEvent, error) {
	if !a.Time.Equal(b.Time) {
		return ContractEvent{}, errs.New(errs.KindSchedule, "cannot merge events at different instants",
			"event_time", a.Time.Format(utils.DateLayout), "other_time", b.Time.Format(utils.DateLayout))
	}
	if a.Currency != b.Currency {
		return ContractEvent{}, errs.New(errs.KindSchedule, "cannot merge events in different currencies",
			"currency", a.Currency, "other_currency", b.Currency)
	}
	first, last := a, b
	if b.Before(a) {
		first, last = b, a
	}
	out := first
	out.Payoff = a.Payoff + b.Payoff
	out.StatePost = last.StatePost
	out.Injected = a.Injected && b.Injected
	return out, nil
}
