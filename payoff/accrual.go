package payoff

import (
	"time"

	"github.com/meenmo/actus/state"
	"github.com/meenmo/actus/terms"
)

// AccruedInterest returns the interest accrued on s up to t, including the
// amount already carried in the state. The result carries the notional's sign.
func (c *Context) AccruedInterest(s state.ContractState, t time.Time) float64 {
	return s.AccruedInterest + c.YearFraction(s.AccrualStart(), t)*s.NominalRate*s.InterestBase()
}

// AccrueInterest returns s with interest accrued up to t.
func AccrueInterest(c *Context, s state.ContractState, t time.Time) state.ContractState {
	return s.WithAccruedInterest(c.AccruedInterest(s, t))
}

// AccruedFees returns the fees accrued on s up to t. Absolute fees accrue pro
// rata over the nominal length of the fee cycle, which NewContext has
// already parsed; notional fees accrue at FeeRate on the notional.
func (c *Context) AccruedFees(s state.ContractState, t time.Time) float64 {
	ct := c.Terms
	if ct.FeeRate == 0 {
		return s.FeeAccrued
	}
	yf := c.YearFraction(s.AccrualStart(), t)
	if ct.FeeBasis == terms.FeeNotional {
		return s.FeeAccrued + yf*ct.FeeRate*s.Notional
	}
	if c.feeCycle == nil {
		return s.FeeAccrued
	}
	return s.FeeAccrued + c.Sign()*ct.FeeRate*yf/c.feeCycle.PeriodYears()
}

// AccrueFees returns s with fees accrued up to t.
func AccrueFees(c *Context, s state.ContractState, t time.Time) state.ContractState {
	return s.WithFeeAccrued(c.AccruedFees(s, t))
}

// Accrue accrues both interest and fees up to t.
func Accrue(c *Context, s state.ContractState, t time.Time) state.ContractState {
	return AccrueFees(c, AccrueInterest(c, s, t), t)
}
