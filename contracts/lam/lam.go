// Package lam implements the linear amortizer: fixed principal redemptions
// on a cycle, interest on the outstanding or a lagged notional.
package lam

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/actus/contracts/internal/fixedincome"
	"github.com/meenmo/actus/errs"
	"github.com/meenmo/actus/event"
	"github.com/meenmo/actus/payoff"
	"github.com/meenmo/actus/schedule"
	"github.com/meenmo/actus/state"
	"github.com/meenmo/actus/terms"
)

type Contract struct {
	terms      terms.ContractTerms
	redemption float64 // unsigned principal paid at each PR event
}

// New binds t to the LAM implementation. A missing maturity is derived from
// the redemption amount, a missing redemption amount from the maturity, and a
// missing interest cycle defaults to the redemption cycle.
func New(t terms.ContractTerms) (*Contract, error) {
	if t.ContractType != terms.LAM {
		return nil, errs.New(errs.KindAttribute, fmt.Sprintf("expected contract type LAM, got %q", t.ContractType),
			"contract_id", t.ContractID)
	}
	if t.CycleOfPrincipalRedemption == "" {
		return nil, errs.New(errs.KindAttribute, "missing principal redemption cycle",
			"contract_id", t.ContractID, "field", "cycle_of_principal_redemption")
	}
	cycle, err := schedule.ParseCycle(t.CycleOfPrincipalRedemption)
	if err != nil {
		return nil, fmt.Errorf("lam.New: %w", err)
	}
	anchor := t.CycleAnchorDateOfPrincipalRedemption
	if anchor.IsZero() {
		anchor = cycle.Add(t.InitialExchangeDate, 1)
	}

	if t.MaturityDate.IsZero() {
		if t.NextPrincipalRedemptionPayment == nil || *t.NextPrincipalRedemptionPayment <= 0 {
			return nil, errs.New(errs.KindAttribute, "maturity date or positive redemption amount required",
				"contract_id", t.ContractID, "field", "next_principal_redemption_payment")
		}
		n := int(math.Ceil(t.NotionalPrincipal / *t.NextPrincipalRedemptionPayment))
		if n < 1 {
			n = 1
		}
		t.MaturityDate = cycle.Add(anchor, n-1)
	}

	var redemption float64
	if t.NextPrincipalRedemptionPayment != nil {
		redemption = *t.NextPrincipalRedemptionPayment
	} else {
		n, err := redemptionCount(anchor, cycle, t.MaturityDate, t.EndOfMonthConvention)
		if err != nil {
			return nil, fmt.Errorf("lam.New: %w", err)
		}
		redemption = t.NotionalPrincipal / float64(n)
	}

	if t.CycleOfInterestPayment == "" {
		t.CycleOfInterestPayment = t.CycleOfPrincipalRedemption
		if t.CycleAnchorDateOfInterestPayment.IsZero() {
			t.CycleAnchorDateOfInterestPayment = anchor
		}
	}
	return &Contract{terms: t, redemption: redemption}, nil
}

// redemptionCount counts the redemption dates from anchor up to and including maturity.
func redemptionCount(anchor time.Time, cycle schedule.Cycle, maturity time.Time, eom schedule.EndOfMonthConvention) (int, error) {
	if !anchor.Before(maturity) {
		return 1, nil
	}
	dates, err := schedule.GenerateUnadjusted(anchor, cycle, maturity, eom)
	if err != nil {
		return 0, err
	}
	return len(schedule.CloseAt(dates, maturity, cycle.Stub)), nil
}

func (c *Contract) ID() string { return c.terms.ContractID }

// Terms returns the terms with derived maturity and interest cycle filled in.
func (c *Contract) Terms() terms.ContractTerms { return c.terms }

// Redemption is the principal amount repaid at each PR event.
func (c *Contract) Redemption() float64 { return c.redemption }

// GenerateEventSchedule builds IED, PR, IP/IPCI, IPCB, RR/RRF, FP, SC, PP/PY, PRD, TD and MD events.
func (c *Contract) GenerateEventSchedule(ctx *payoff.Context) (event.Schedule, error) {
	ct := c.terms
	md := ct.MaturityDate
	evs := []event.ContractEvent{
		ctx.EventAt(event.IED, ct.InitialExchangeDate),
		ctx.EventAt(event.MD, md),
	}

	pr, err := fixedincome.Cyclic(ctx, event.PR, ct.CycleAnchorDateOfPrincipalRedemption, ct.CycleOfPrincipalRedemption, md, false)
	if err != nil {
		return event.Schedule{}, fmt.Errorf("GenerateEventSchedule: %w", err)
	}
	evs = append(evs, pr...)

	if ct.InterestCalculationBase == terms.BaseNotionalLagged {
		ipcb, err := fixedincome.Cyclic(ctx, event.IPCB, ct.CycleAnchorDateOfInterestCalculationBase, ct.CycleOfInterestCalculationBase, md, false)
		if err != nil {
			return event.Schedule{}, fmt.Errorf("GenerateEventSchedule: %w", err)
		}
		evs = append(evs, ipcb...)
	}

	interest, err := fixedincome.InterestEvents(ctx, md)
	if err != nil {
		return event.Schedule{}, fmt.Errorf("GenerateEventSchedule: %w", err)
	}
	resets, err := fixedincome.RateResetEvents(ctx, md)
	if err != nil {
		return event.Schedule{}, fmt.Errorf("GenerateEventSchedule: %w", err)
	}
	optional, err := fixedincome.OptionalEvents(ctx, md)
	if err != nil {
		return event.Schedule{}, fmt.Errorf("GenerateEventSchedule: %w", err)
	}
	evs = append(evs, interest...)
	evs = append(evs, resets...)
	evs = append(evs, optional...)
	return fixedincome.Finalize(ctx, evs), nil
}

// InitializeState returns the state at the status date.
func (c *Contract) InitializeState(ctx *payoff.Context) (state.ContractState, error) {
	s := fixedincome.InitialState(ctx)
	if fixedincome.Running(c.terms) {
		s = c.open(ctx, s, true)
	}
	return s, nil
}

// open sets the LAM-specific state variables of a running contract.
func (c *Contract) open(ctx *payoff.Context, s state.ContractState, running bool) state.ContractState {
	s = s.WithNextPrincipalRedemption(c.redemption)
	switch c.terms.InterestCalculationBase {
	case terms.BaseNotionalAtIED:
		s = s.WithInterestCalculationBase(ctx.Sign() * c.terms.NotionalPrincipal)
	case terms.BaseNotionalLagged:
		if running && c.terms.InterestCalculationBaseAmount != 0 {
			s = s.WithInterestCalculationBase(ctx.Sign() * c.terms.InterestCalculationBaseAmount)
		} else {
			s = s.WithInterestCalculationBase(s.Notional)
		}
	}
	return s
}

// Functions returns the LAM event table.
func (c *Contract) Functions() payoff.Table {
	tb := fixedincome.Base()
	tb[event.IED] = payoff.Pair{Payoff: fixedincome.PayoffIED, Transition: c.transitionIED}
	tb[event.PR] = payoff.Pair{Payoff: payoffPR, Transition: transitionPR}
	tb[event.IPCB] = payoff.Pair{Payoff: fixedincome.Zero, Transition: transitionIPCB}
	return tb
}

func (c *Contract) transitionIED(ctx *payoff.Context, _ event.ContractEvent, pre state.ContractState, t time.Time) (state.ContractState, error) {
	return c.open(ctx, fixedincome.Open(ctx, pre, t), false), nil
}

// redeemed is the unsigned principal repaid at a PR event.
func redeemed(s state.ContractState) float64 {
	next := 0.0
	if s.NextPrincipalRedemption != nil {
		next = *s.NextPrincipalRedemption
	}
	return math.Min(next, math.Abs(s.Notional))
}

func payoffPR(_ *payoff.Context, _ event.ContractEvent, pre state.ContractState, _ time.Time) (float64, error) {
	return pre.NotionalScaling * redeemed(pre), nil
}

func transitionPR(ctx *payoff.Context, _ event.ContractEvent, pre state.ContractState, t time.Time) (state.ContractState, error) {
	s := payoff.Accrue(ctx, pre, t)
	return s.WithNotional(s.Notional - ctx.Sign()*redeemed(pre)), nil
}

func transitionIPCB(ctx *payoff.Context, _ event.ContractEvent, pre state.ContractState, t time.Time) (state.ContractState, error) {
	s := payoff.Accrue(ctx, pre, t)
	return s.WithInterestCalculationBase(s.Notional), nil
}
