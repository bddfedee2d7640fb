// Package csh implements the cash contract type: a balance with no cash flows.
package csh

import (
	"fmt"

	"github.com/meenmo/actus/errs"
	"github.com/meenmo/actus/event"
	"github.com/meenmo/actus/payoff"
	"github.com/meenmo/actus/state"
	"github.com/meenmo/actus/terms"
)

type Contract struct {
	terms terms.ContractTerms
}

func New(t terms.ContractTerms) (*Contract, error) {
	if t.ContractType != terms.CSH {
		return nil, errs.New(errs.KindAttribute, fmt.Sprintf("expected contract type CSH, got %q", t.ContractType),
			"contract_id", t.ContractID)
	}
	return &Contract{terms: t}, nil
}

func (c *Contract) ID() string { return c.terms.ContractID }

func (c *Contract) Terms() terms.ContractTerms { return c.terms }

// GenerateEventSchedule returns the single analysis date at the status date.
func (c *Contract) GenerateEventSchedule(ctx *payoff.Context) (event.Schedule, error) {
	ad := event.New(event.AD, c.terms.StatusDate, ctx.Terms.PayoffCurrency())
	return event.NewSchedule(c.terms.ContractID, []event.ContractEvent{ad}), nil
}

func (c *Contract) InitializeState(ctx *payoff.Context) (state.ContractState, error) {
	s := state.New(c.terms.StatusDate, c.terms.MaturityDate).
		WithNotional(ctx.Sign() * c.terms.NotionalPrincipal).
		WithPerformance(c.terms.ContractPerformance)
	return s, nil
}

func (c *Contract) Functions() payoff.Table {
	return payoff.Table{event.AD: payoff.NoOp}
}
