// Package pam implements the principal-at-maturity contract type: a loan or
// bond whose full notional is exchanged at the start and repaid at maturity,
// with periodic interest, optional rate resets, fees, scaling, prepayments,
// capitalization, purchase and termination.
package pam

import (
	"fmt"

	"github.com/meenmo/actus/contracts/internal/fixedincome"
	"github.com/meenmo/actus/errs"
	"github.com/meenmo/actus/event"
	"github.com/meenmo/actus/payoff"
	"github.com/meenmo/actus/state"
	"github.com/meenmo/actus/terms"
)

// Contract is a PAM contract.
type Contract struct {
	terms terms.ContractTerms
}

// New binds t to the PAM implementation.
func New(t terms.ContractTerms) (*Contract, error) {
	if t.ContractType != terms.PAM {
		return nil, errs.New(errs.KindAttribute, fmt.Sprintf("expected contract type PAM, got %q", t.ContractType),
			"contract_id", t.ContractID)
	}
	return &Contract{terms: t}, nil
}

func (c *Contract) ID() string { return c.terms.ContractID }

func (c *Contract) Terms() terms.ContractTerms { return c.terms }

// GenerateEventSchedule builds IED, IP/IPCI, RR/RRF, FP, SC, PP/PY, PRD, TD and MD events.
func (c *Contract) GenerateEventSchedule(ctx *payoff.Context) (event.Schedule, error) {
	ct := c.terms
	md := ct.MaturityDate
	evs := []event.ContractEvent{
		ctx.EventAt(event.IED, ct.InitialExchangeDate),
		ctx.EventAt(event.MD, md),
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
	return fixedincome.InitialState(ctx), nil
}

// Functions returns the PAM event table.
func (c *Contract) Functions() payoff.Table {
	return fixedincome.Base()
}
