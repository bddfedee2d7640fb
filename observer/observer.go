// Package observer supplies market and behavioural risk factors to the engines.
package observer

import (
	"errors"
	"time"

	"github.com/meenmo/actus/errs"
	"github.com/meenmo/actus/event"
	"github.com/meenmo/actus/state"
	"github.com/meenmo/actus/terms"
	"github.com/meenmo/actus/utils"
)

// ErrNotFound is wrapped by observers that hold no data for an identifier.
var ErrNotFound = errors.New("risk factor not found")

// RiskFactor observes market data by market object code.
type RiskFactor interface {
	Observe(id string, t time.Time) (float64, error)
}

// Behavioral observes quantities that depend on the contract itself, such as
// a prepayment rate driven by the outstanding notional.
type Behavioral interface {
	ObserveState(id string, t time.Time, s state.ContractState, ct terms.ContractTerms) (float64, error)
}

// ChildContracts exposes underlying contracts to composite contract types.
type ChildContracts interface {
	Events(id string, t time.Time) ([]event.ContractEvent, error)
	State(id string, t time.Time) (state.ContractState, error)
	Attribute(id, name string) (any, error)
}

// Query observes id at t, using the behavioural interface when o implements it.
func Query(o RiskFactor, id string, t time.Time, s state.ContractState, ct terms.ContractTerms) (float64, error) {
	if o == nil {
		return 0, notFound(id, t)
	}
	var (
		v   float64
		err error
	)
	if b, ok := o.(Behavioral); ok {
		v, err = b.ObserveState(id, t, s, ct)
	} else {
		v, err = o.Observe(id, t)
	}
	if err != nil {
		return 0, err
	}
	if !utils.IsFinite(v) {
		return 0, errs.New(errs.KindObserver, "non-finite observation",
			"id", id, "event_time", t.Format(utils.DateLayout))
	}
	return v, nil
}

func notFound(id string, t time.Time) error {
	return errs.Wrap(errs.KindObserver, ErrNotFound, "no observation",
		"id", id, "event_time", t.Format(utils.DateLayout))
}

// Constant returns a fixed value per identifier.
type Constant map[string]float64

func (c Constant) Observe(id string, t time.Time) (float64, error) {
	v, ok := c[id]
	if !ok {
		return 0, notFound(id, t)
	}
	return v, nil
}

// Chain asks each observer in turn and returns the first one that knows id.
type Chain []RiskFactor

func (c Chain) Observe(id string, t time.Time) (float64, error) {
	for _, o := range c {
		v, err := o.Observe(id, t)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return v, err
	}
	return 0, notFound(id, t)
}

// BehaviorFunc computes a behavioural observation.
type BehaviorFunc func(t time.Time, s state.ContractState, ct terms.ContractTerms) (float64, error)

// Models combines market data with behavioural models keyed by identifier.
// Identifiers without a model fall through to Market.
type Models struct {
	Market   RiskFactor
	Behavior map[string]BehaviorFunc
}

func (m Models) Observe(id string, t time.Time) (float64, error) {
	if m.Market == nil {
		return 0, notFound(id, t)
	}
	return m.Market.Observe(id, t)
}

func (m Models) ObserveState(id string, t time.Time, s state.ContractState, ct terms.ContractTerms) (float64, error) {
	if f, ok := m.Behavior[id]; ok {
		return f(t, s, ct)
	}
	return m.Observe(id, t)
}
