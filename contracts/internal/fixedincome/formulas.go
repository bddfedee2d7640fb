// Package fixedincome holds the payoff and state transition formulas shared by
// the principal-based contract types (PAM, LAM).
//
// Payoff functions return the unsigned core amount; payoff.Evaluate applies
// the role sign. State notionals and accruals carry the role sign, so
// formulas built on them multiply by ctx.Sign() once more.
package fixedincome

import (
	"math"
	"time"

	"github.com/meenmo/actus/errs"
	"github.com/meenmo/actus/event"
	"github.com/meenmo/actus/payoff"
	"github.com/meenmo/actus/state"
	"github.com/meenmo/actus/terms"
)

// Zero pays nothing.
func Zero(*payoff.Context, event.ContractEvent, state.ContractState, time.Time) (float64, error) {
	return 0, nil
}

// Accrue advances interest and fee accruals to t.
func Accrue(ctx *payoff.Context, _ event.ContractEvent, pre state.ContractState, t time.Time) (state.ContractState, error) {
	return payoff.Accrue(ctx, pre, t), nil
}

// PayoffIED pays out the notional plus premium/discount.
func PayoffIED(ctx *payoff.Context, _ event.ContractEvent, _ state.ContractState, _ time.Time) (float64, error) {
	return -(ctx.Terms.NotionalPrincipal + ctx.Terms.PremiumDiscountAtIED), nil
}

// TransitionIED opens the position.
func TransitionIED(ctx *payoff.Context, _ event.ContractEvent, pre state.ContractState, t time.Time) (state.ContractState, error) {
	return Open(ctx, pre, t), nil
}

// Open sets the state variables of a running contract.
func Open(ctx *payoff.Context, s state.ContractState, t time.Time) state.ContractState {
	ct := ctx.Terms
	sign := ctx.Sign()
	return s.WithStatusDate(t).
		WithNotional(sign * ct.NotionalPrincipal).
		WithNominalRate(ct.NominalInterestRate).
		WithAccruedInterest(sign * ct.AccruedInterest).
		WithFeeAccrued(sign * ct.FeeAccrued)
}

// PayoffFP pays the fees accrued up to t.
func PayoffFP(ctx *payoff.Context, _ event.ContractEvent, pre state.ContractState, t time.Time) (float64, error) {
	return ctx.Sign() * ctx.AccruedFees(pre, t), nil
}

// TransitionFP accrues interest and resets the fee accrual.
func TransitionFP(ctx *payoff.Context, _ event.ContractEvent, pre state.ContractState, t time.Time) (state.ContractState, error) {
	return payoff.AccrueInterest(ctx, pre, t).WithFeeAccrued(0), nil
}

// prepayment returns the unsigned prepaid amount at t.
func prepayment(ctx *payoff.Context, s state.ContractState, t time.Time) (float64, error) {
	if ctx.Terms.PrepaymentEffect == terms.PrepaymentNone {
		return 0, nil
	}
	frac, err := ctx.Observe(ctx.Terms.ObjectCodeOfPrepaymentModel, t, s)
	if err != nil {
		return 0, err
	}
	frac = math.Min(math.Max(frac, 0), 1)
	return frac * math.Abs(s.Notional), nil
}

// PayoffPP pays the prepaid principal.
func PayoffPP(ctx *payoff.Context, _ event.ContractEvent, pre state.ContractState, t time.Time) (float64, error) {
	amount, err := prepayment(ctx, pre, t)
	if err != nil {
		return 0, err
	}
	return pre.NotionalScaling * amount, nil
}

// TransitionPP reduces the notional by the prepaid amount.
func TransitionPP(ctx *payoff.Context, _ event.ContractEvent, pre state.ContractState, t time.Time) (state.ContractState, error) {
	amount, err := prepayment(ctx, pre, t)
	if err != nil {
		return state.ContractState{}, err
	}
	s := payoff.Accrue(ctx, pre, t)
	return s.WithNotional(s.Notional - ctx.Sign()*amount), nil
}

// PayoffPY pays the prepayment penalty.
func PayoffPY(ctx *payoff.Context, _ event.ContractEvent, pre state.ContractState, t time.Time) (float64, error) {
	ct := ctx.Terms
	switch ct.PenaltyType {
	case terms.PenaltyAbsolute:
		return ct.PenaltyRate, nil
	case terms.PenaltyNotional:
		return ctx.Sign() * ctx.YearFraction(pre.AccrualStart(), t) * pre.Notional * ct.PenaltyRate, nil
	}
	return 0, nil
}

// PayoffIP pays accrued interest, scaled by the interest scaling multiplier.
func PayoffIP(ctx *payoff.Context, _ event.ContractEvent, pre state.ContractState, t time.Time) (float64, error) {
	return ctx.Sign() * pre.InterestScaling * ctx.AccruedInterest(pre, t), nil
}

// TransitionIP clears accrued interest.
func TransitionIP(ctx *payoff.Context, _ event.ContractEvent, pre state.ContractState, t time.Time) (state.ContractState, error) {
	return payoff.AccrueFees(ctx, pre, t).WithAccruedInterest(0), nil
}

// TransitionIPCI adds accrued interest to the notional.
func TransitionIPCI(ctx *payoff.Context, _ event.ContractEvent, pre state.ContractState, t time.Time) (state.ContractState, error) {
	s := payoff.AccrueFees(ctx, pre, t)
	return s.WithNotional(s.Notional + ctx.AccruedInterest(pre, t)).WithAccruedInterest(0), nil
}

// ResetRate applies the period and life floors and caps to a new rate.
func ResetRate(ct terms.ContractTerms, current, market float64) float64 {
	delta := ct.RateMultiplier*market + ct.RateSpread - current
	delta = math.Min(math.Max(delta, ct.PeriodFloor), ct.PeriodCap)
	return math.Min(math.Max(current+delta, ct.LifeFloor), ct.LifeCap)
}

// TransitionRR resets the nominal rate from the observed market rate.
func TransitionRR(ctx *payoff.Context, _ event.ContractEvent, pre state.ContractState, t time.Time) (state.ContractState, error) {
	market, err := ctx.Observe(ctx.Terms.MarketObjectCodeOfRateReset, t, pre)
	if err != nil {
		return state.ContractState{}, err
	}
	s := payoff.Accrue(ctx, pre, t)
	return s.WithNominalRate(ResetRate(ctx.Terms, pre.NominalRate, market)), nil
}

// TransitionRRF resets the nominal rate to the fixed next reset rate.
func TransitionRRF(ctx *payoff.Context, _ event.ContractEvent, pre state.ContractState, t time.Time) (state.ContractState, error) {
	if ctx.Terms.NextResetRate == nil {
		return state.ContractState{}, errs.New(errs.KindStateTransition, "fixed rate reset without next reset rate")
	}
	return payoff.Accrue(ctx, pre, t).WithNominalRate(*ctx.Terms.NextResetRate), nil
}

// TransitionSC updates the scaling multipliers from the observed index.
func TransitionSC(ctx *payoff.Context, _ event.ContractEvent, pre state.ContractState, t time.Time) (state.ContractState, error) {
	ct := ctx.Terms
	idx, err := ctx.Observe(ct.MarketObjectCodeOfScalingIndex, t, pre)
	if err != nil {
		return state.ContractState{}, err
	}
	mult := idx / ct.ScalingIndexAtStatusDate
	nsc, isc := pre.NotionalScaling, pre.InterestScaling
	if ct.ScaleNotional {
		nsc = mult
	}
	if ct.ScaleInterest {
		isc = mult
	}
	return payoff.Accrue(ctx, pre, t).WithScaling(nsc, isc), nil
}

// PayoffPRD pays the purchase price plus accrued interest.
func PayoffPRD(ctx *payoff.Context, _ event.ContractEvent, pre state.ContractState, t time.Time) (float64, error) {
	return -(ctx.Terms.PriceAtPurchaseDate + ctx.Sign()*ctx.AccruedInterest(pre, t)), nil
}

// PayoffTD receives the termination price plus accrued interest.
func PayoffTD(ctx *payoff.Context, _ event.ContractEvent, pre state.ContractState, t time.Time) (float64, error) {
	return ctx.Terms.PriceAtTerminationDate + ctx.Sign()*ctx.AccruedInterest(pre, t), nil
}

// Close zeroes every balance of the contract.
func Close(_ *payoff.Context, _ event.ContractEvent, pre state.ContractState, t time.Time) (state.ContractState, error) {
	s := pre.WithStatusDate(t).
		WithNotional(0).
		WithNominalRate(0).
		WithAccruedInterest(0).
		WithFeeAccrued(0)
	if s.InterestCalculationBase != nil {
		s = s.WithInterestCalculationBase(0)
	}
	if s.NextPrincipalRedemption != nil {
		s = s.WithNextPrincipalRedemption(0)
	}
	return s, nil
}

// PayoffMD repays the outstanding notional.
func PayoffMD(ctx *payoff.Context, _ event.ContractEvent, pre state.ContractState, _ time.Time) (float64, error) {
	return ctx.Sign() * pre.NotionalScaling * pre.Notional, nil
}

// Base is the event table shared by PAM and LAM.
func Base() payoff.Table {
	return payoff.Table{
		event.IED:  {Payoff: PayoffIED, Transition: TransitionIED},
		event.FP:   {Payoff: PayoffFP, Transition: TransitionFP},
		event.PY:   {Payoff: PayoffPY, Transition: Accrue},
		event.PP:   {Payoff: PayoffPP, Transition: TransitionPP},
		event.IP:   {Payoff: PayoffIP, Transition: TransitionIP},
		event.IPCI: {Payoff: Zero, Transition: TransitionIPCI},
		event.RRF:  {Payoff: Zero, Transition: TransitionRRF},
		event.RR:   {Payoff: Zero, Transition: TransitionRR},
		event.PRD:  {Payoff: PayoffPRD, Transition: Accrue},
		event.TD:   {Payoff: PayoffTD, Transition: Close},
		event.SC:   {Payoff: Zero, Transition: TransitionSC},
		event.MD:   {Payoff: PayoffMD, Transition: Close},
		event.AD:   {Payoff: Zero, Transition: Accrue},
	}
}

// Running reports whether the contract is already outstanding at its status
// date, either because the initial exchange lies before it or because the
// position is entered through a purchase.
func Running(ct terms.ContractTerms) bool {
	return ct.InitialExchangeDate.Before(ct.StatusDate) || !ct.PurchaseDate.IsZero()
}

// InitialState returns the state at the status date.
func InitialState(ctx *payoff.Context) state.ContractState {
	ct := ctx.Terms
	s := state.New(ct.StatusDate, ct.MaturityDate).WithPerformance(ct.ContractPerformance)
	if !Running(ct) {
		return s
	}
	start := ct.StatusDate
	if ct.InitialExchangeDate.After(start) {
		start = ct.InitialExchangeDate
	}
	return Open(ctx, s, start)
}
