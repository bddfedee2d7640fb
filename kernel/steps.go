package kernel

// State is the numeric contract state carried through the fold.
type State[T any] struct {
	Notional        T
	Rate            T
	Accrued         T
	Fees            T
	NotionalScaling T
	InterestScaling T
}

// params is Params lifted into the field.
type params[T any] struct {
	sign, notional, rate, accrued, fees, premium T
	mult, spread, nextRate                       T
	lifeCap, lifeFloor, periodCap, periodFloor   T
	feeN, feeA, penA, penN, prepay               T
	scaleN, scaleI, index, purchase, termination T
	running                                      T
}

func lift[T any](f Field[T], p Params) params[T] {
	return params[T]{
		sign: f.Const(p.Sign), notional: f.Const(p.Notional), rate: f.Const(p.NominalRate),
		accrued: f.Const(p.AccruedInterest), fees: f.Const(p.FeeAccrued), premium: f.Const(p.PremiumDiscount),
		mult: f.Const(p.RateMultiplier), spread: f.Const(p.RateSpread), nextRate: f.Const(p.NextResetRate),
		lifeCap: f.Const(p.LifeCap), lifeFloor: f.Const(p.LifeFloor),
		periodCap: f.Const(p.PeriodCap), periodFloor: f.Const(p.PeriodFloor),
		feeN: f.Const(p.FeeNotionalRate), feeA: f.Const(p.FeeAbsoluteRate),
		penA: f.Const(p.PenaltyAbsolute), penN: f.Const(p.PenaltyNotional), prepay: f.Const(p.Prepayment),
		scaleN: f.Const(p.ScaleNotional), scaleI: f.Const(p.ScaleInterest), index: f.Const(p.ScalingIndex),
		purchase: f.Const(p.PurchasePrice), termination: f.Const(p.TerminationPrice),
		running: f.Const(p.Running),
	}
}

// initial is the state at the status date: open when running, empty otherwise.
func initial[T any](f Field[T], p *params[T]) State[T] {
	w := f.Mul(p.running, p.sign)
	return State[T]{
		Notional:        f.Mul(w, p.notional),
		Rate:            f.Mul(p.running, p.rate),
		Accrued:         f.Mul(w, p.accrued),
		Fees:            f.Mul(w, p.fees),
		NotionalScaling: f.Const(1),
		InterestScaling: f.Const(1),
	}
}

// step computes the unsigned payoff and the post-step state.
type step[T any] func(f Field[T], p *params[T], s State[T], yf, rf T) (T, State[T])

func table[T any]() [NumOps]step[T] {
	return [NumOps]step[T]{
		OpNoop: noop[T],
		OpIED:  stepIED[T],
		OpFP:   stepFP[T],
		OpPY:   stepPY[T],
		OpPP:   stepPP[T],
		OpIP:   stepIP[T],
		OpIPCI: stepIPCI[T],
		OpRRF:  stepRRF[T],
		OpRR:   stepRR[T],
		OpPRD:  stepPRD[T],
		OpTD:   stepTD[T],
		OpSC:   stepSC[T],
		OpMD:   stepMD[T],
		OpAD:   stepAD[T],
	}
}

func interest[T any](f Field[T], s State[T], yf T) T {
	return f.Add(s.Accrued, f.Mul(yf, f.Mul(s.Rate, s.Notional)))
}

func fees[T any](f Field[T], p *params[T], s State[T], yf T) T {
	perYear := f.Add(f.Mul(p.feeN, s.Notional), f.Mul(p.sign, p.feeA))
	return f.Add(s.Fees, f.Mul(yf, perYear))
}

func accrue[T any](f Field[T], p *params[T], s State[T], yf T) State[T] {
	out := s
	out.Accrued = interest(f, s, yf)
	out.Fees = fees(f, p, s, yf)
	return out
}

func closed[T any](f Field[T], s State[T]) State[T] {
	zero := f.Const(0)
	s.Notional, s.Rate, s.Accrued, s.Fees = zero, zero, zero, zero
	return s
}

func noop[T any](f Field[T], _ *params[T], s State[T], _, _ T) (T, State[T]) {
	return f.Const(0), s
}

func stepIED[T any](f Field[T], p *params[T], s State[T], _, _ T) (T, State[T]) {
	pay := f.Sub(f.Const(0), f.Add(p.notional, p.premium))
	s.Notional = f.Mul(p.sign, p.notional)
	s.Rate = p.rate
	s.Accrued = f.Mul(p.sign, p.accrued)
	s.Fees = f.Mul(p.sign, p.fees)
	return pay, s
}

func stepFP[T any](f Field[T], p *params[T], s State[T], yf, _ T) (T, State[T]) {
	pay := f.Mul(p.sign, fees(f, p, s, yf))
	out := s
	out.Accrued = interest(f, s, yf)
	out.Fees = f.Const(0)
	return pay, out
}

func stepPY[T any](f Field[T], p *params[T], s State[T], yf, _ T) (T, State[T]) {
	onNotional := f.Mul(f.Mul(p.sign, yf), f.Mul(s.Notional, p.penN))
	return f.Add(p.penA, onNotional), accrue(f, p, s, yf)
}

// prepaid is the unsigned prepaid principal for an observed fraction rf.
func prepaid[T any](f Field[T], p *params[T], s State[T], rf T) T {
	frac := f.Min(f.Max(rf, f.Const(0)), f.Const(1))
	return f.Mul(f.Mul(p.prepay, frac), f.Mul(p.sign, s.Notional))
}

func stepPP[T any](f Field[T], p *params[T], s State[T], yf, rf T) (T, State[T]) {
	amount := prepaid(f, p, s, rf)
	out := accrue(f, p, s, yf)
	out.Notional = f.Sub(out.Notional, f.Mul(p.sign, amount))
	return f.Mul(s.NotionalScaling, amount), out
}

func stepIP[T any](f Field[T], p *params[T], s State[T], yf, _ T) (T, State[T]) {
	pay := f.Mul(p.sign, f.Mul(s.InterestScaling, interest(f, s, yf)))
	out := s
	out.Fees = fees(f, p, s, yf)
	out.Accrued = f.Const(0)
	return pay, out
}

func stepIPCI[T any](f Field[T], p *params[T], s State[T], yf, _ T) (T, State[T]) {
	out := s
	out.Fees = fees(f, p, s, yf)
	out.Notional = f.Add(s.Notional, interest(f, s, yf))
	out.Accrued = f.Const(0)
	return f.Const(0), out
}

func stepRRF[T any](f Field[T], p *params[T], s State[T], yf, _ T) (T, State[T]) {
	out := accrue(f, p, s, yf)
	out.Rate = p.nextRate
	return f.Const(0), out
}

// resetRate clamps the rate change to the period bounds and the new rate to
// the life bounds.
func resetRate[T any](f Field[T], p *params[T], current, market T) T {
	delta := f.Sub(f.Add(f.Mul(p.mult, market), p.spread), current)
	delta = f.Min(f.Max(delta, p.periodFloor), p.periodCap)
	return f.Min(f.Max(f.Add(current, delta), p.lifeFloor), p.lifeCap)
}

func stepRR[T any](f Field[T], p *params[T], s State[T], yf, rf T) (T, State[T]) {
	out := accrue(f, p, s, yf)
	out.Rate = resetRate(f, p, s.Rate, rf)
	return f.Const(0), out
}

func stepPRD[T any](f Field[T], p *params[T], s State[T], yf, _ T) (T, State[T]) {
	pay := f.Sub(f.Const(0), f.Add(p.purchase, f.Mul(p.sign, interest(f, s, yf))))
	return pay, accrue(f, p, s, yf)
}

func stepTD[T any](f Field[T], p *params[T], s State[T], yf, _ T) (T, State[T]) {
	pay := f.Add(p.termination, f.Mul(p.sign, interest(f, s, yf)))
	return pay, closed(f, s)
}

func stepSC[T any](f Field[T], p *params[T], s State[T], yf, rf T) (T, State[T]) {
	mult := f.Div(rf, p.index)
	one := f.Const(1)
	out := accrue(f, p, s, yf)
	out.NotionalScaling = f.Add(f.Mul(p.scaleN, mult), f.Mul(f.Sub(one, p.scaleN), s.NotionalScaling))
	out.InterestScaling = f.Add(f.Mul(p.scaleI, mult), f.Mul(f.Sub(one, p.scaleI), s.InterestScaling))
	return f.Const(0), out
}

func stepMD[T any](f Field[T], p *params[T], s State[T], _, _ T) (T, State[T]) {
	return f.Mul(p.sign, f.Mul(s.NotionalScaling, s.Notional)), closed(f, s)
}

func stepAD[T any](f Field[T], p *params[T], s State[T], yf, _ T) (T, State[T]) {
	return f.Const(0), accrue(f, p, s, yf)
}
