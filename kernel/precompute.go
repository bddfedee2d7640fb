package kernel

import (
	"fmt"
	"time"

	"github.com/meenmo/actus/engine"
	"github.com/meenmo/actus/errs"
	"github.com/meenmo/actus/observer"
	"github.com/meenmo/actus/schedule"
	"github.com/meenmo/actus/state"
	"github.com/meenmo/actus/terms"
	"github.com/meenmo/actus/utils"
)

// Params is the numeric parameter record of one contract. Enumerated terms
// are turned into rates that are zero when the feature is off.
type Params struct {
	Sign            float64
	Notional        float64
	NominalRate     float64
	AccruedInterest float64
	FeeAccrued      float64
	PremiumDiscount float64

	RateMultiplier float64
	RateSpread     float64
	NextResetRate  float64
	LifeCap        float64
	LifeFloor      float64
	PeriodCap      float64
	PeriodFloor    float64

	FeeNotionalRate float64 // per year of the notional
	FeeAbsoluteRate float64 // per year, absolute
	PenaltyAbsolute float64
	PenaltyNotional float64 // per year of the notional
	Prepayment      float64

	ScaleNotional float64
	ScaleInterest float64
	ScalingIndex  float64

	PurchasePrice    float64
	TerminationPrice float64

	// Running is 1 when the contract is already outstanding at its status date.
	Running float64
}

// Inputs is the precomputed, padded numeric form of one contract.
type Inputs struct {
	ContractID string
	Currency   string
	// Events is the number of real events; the rest is padding.
	Events int

	Ops           []Op
	Times         []time.Time
	YearFractions []float64
	RiskFactors   []float64
	FX            []float64
	Mask          []float64

	Params Params
}

// Len is the padded step count.
func (in *Inputs) Len() int { return len(in.Ops) }

// Pad returns a copy of in extended with no-op steps to length.
func (in *Inputs) Pad(length int) (*Inputs, error) {
	if length < in.Events {
		return nil, errs.New(errs.KindSchedule, "schedule longer than kernel length",
			"contract_id", in.ContractID, "events", in.Events, "length", length)
	}
	out := *in
	out.Ops = make([]Op, length)
	out.Times = make([]time.Time, length)
	out.YearFractions = make([]float64, length)
	out.RiskFactors = make([]float64, length)
	out.FX = make([]float64, length)
	out.Mask = make([]float64, length)
	n := copy(out.Ops, in.Ops[:in.Events])
	copy(out.Times, in.Times[:n])
	copy(out.YearFractions, in.YearFractions[:n])
	copy(out.RiskFactors, in.RiskFactors[:n])
	copy(out.FX, in.FX[:n])
	copy(out.Mask, in.Mask[:n])
	for i := n; i < length; i++ {
		out.FX[i] = 1
	}
	return &out, nil
}

// Precompute turns a PAM contract into kernel inputs padded to length steps.
// A zero length keeps the contract's own event count. Calendars and settings
// come from e, so both modes resolve the same conventions; a nil e uses
// engine defaults. Every failure of array mode surfaces here; running the
// inputs cannot fail.
func Precompute(e *engine.Engine, c engine.Contract, obs observer.RiskFactor, length int) (*Inputs, error) {
	ct := c.Terms()
	if ct.ContractType != terms.PAM {
		return nil, errs.New(errs.KindAttribute, fmt.Sprintf("array mode does not support contract type %q", ct.ContractType),
			"contract_id", ct.ContractID)
	}
	if e == nil {
		e = engine.New()
	}
	ctx, err := e.NewContext(c, obs)
	if err != nil {
		return nil, fmt.Errorf("Precompute: %w", err)
	}
	sched, err := c.GenerateEventSchedule(ctx)
	if err != nil {
		return nil, fmt.Errorf("Precompute: %w", err)
	}
	init, err := c.InitializeState(ctx)
	if err != nil {
		return nil, fmt.Errorf("Precompute: %w", err)
	}
	params, err := newParams(ct, init)
	if err != nil {
		return nil, err
	}

	evs := sched.Events()
	n := len(evs)
	if length == 0 {
		length = n
	}
	if length < n {
		return nil, errs.New(errs.KindSchedule, "schedule longer than kernel length",
			"contract_id", ct.ContractID, "events", n, "length", length)
	}

	in := &Inputs{
		ContractID:    ct.ContractID,
		Currency:      ct.PayoffCurrency(),
		Events:        n,
		Ops:           make([]Op, length),
		Times:         make([]time.Time, length),
		YearFractions: make([]float64, length),
		RiskFactors:   make([]float64, length),
		FX:            make([]float64, length),
		Mask:          make([]float64, length),
		Params:        params,
	}
	prev := init.StatusDate
	for i, ev := range evs {
		op, ok := OpOf(ev.Type)
		if !ok {
			return nil, errs.New(errs.KindAttribute, "event type not supported in array mode",
				"contract_id", ct.ContractID, "event_type", ev.Type.String())
		}
		t := ev.CalculationTime()
		in.Ops[i] = op
		in.Times[i] = ev.Time
		in.YearFractions[i] = ctx.YearFraction(prev, t)
		in.Mask[i] = 1
		prev = t

		if in.RiskFactors[i], err = riskFactor(ct, obs, op, t); err != nil {
			return nil, err
		}
		in.FX[i] = 1
		if op.pays() && ct.SettlesInForeignCurrency() {
			if in.FX[i], err = observe(obs, ct.FXPair(), ev.Time); err != nil {
				return nil, err
			}
		}
	}
	for i := n; i < length; i++ {
		in.FX[i] = 1
	}
	return in, nil
}

func newParams(ct terms.ContractTerms, init state.ContractState) (Params, error) {
	p := Params{
		Sign:             ct.RoleSign(),
		Notional:         ct.NotionalPrincipal,
		NominalRate:      ct.NominalInterestRate,
		AccruedInterest:  ct.AccruedInterest,
		FeeAccrued:       ct.FeeAccrued,
		PremiumDiscount:  ct.PremiumDiscountAtIED,
		RateMultiplier:   ct.RateMultiplier,
		RateSpread:       ct.RateSpread,
		LifeCap:          ct.LifeCap,
		LifeFloor:        ct.LifeFloor,
		PeriodCap:        ct.PeriodCap,
		PeriodFloor:      ct.PeriodFloor,
		ScalingIndex:     ct.ScalingIndexAtStatusDate,
		PurchasePrice:    ct.PriceAtPurchaseDate,
		TerminationPrice: ct.PriceAtTerminationDate,
	}
	if ct.NextResetRate != nil {
		p.NextResetRate = *ct.NextResetRate
	}
	switch {
	case ct.FeeBasis == terms.FeeNotional:
		p.FeeNotionalRate = ct.FeeRate
	case ct.CycleOfFee != "":
		cycle, err := schedule.ParseCycle(ct.CycleOfFee)
		if err != nil {
			return Params{}, fmt.Errorf("Precompute: %w", err)
		}
		p.FeeAbsoluteRate = ct.FeeRate / cycle.PeriodYears()
	}
	switch ct.PenaltyType {
	case terms.PenaltyAbsolute:
		p.PenaltyAbsolute = ct.PenaltyRate
	case terms.PenaltyNotional:
		p.PenaltyNotional = ct.PenaltyRate
	}
	if ct.PrepaymentEffect != terms.PrepaymentNone {
		p.Prepayment = 1
	}
	if ct.ScaleNotional {
		p.ScaleNotional = 1
	}
	if ct.ScaleInterest {
		p.ScaleInterest = 1
	}
	if init.Notional != 0 {
		p.Running = 1
	}
	return p, nil
}

// riskFactor observes the market input op needs at t, or returns zero.
func riskFactor(ct terms.ContractTerms, obs observer.RiskFactor, op Op, t time.Time) (float64, error) {
	switch op {
	case OpRR:
		return observe(obs, ct.MarketObjectCodeOfRateReset, t)
	case OpSC:
		return observe(obs, ct.MarketObjectCodeOfScalingIndex, t)
	case OpPP:
		if ct.PrepaymentEffect != terms.PrepaymentNone {
			return observe(obs, ct.ObjectCodeOfPrepaymentModel, t)
		}
	}
	return 0, nil
}

// observe reads market data only: precomputed observations cannot depend on
// the contract state.
func observe(obs observer.RiskFactor, id string, t time.Time) (float64, error) {
	if obs == nil {
		return 0, errs.Wrap(errs.KindObserver, observer.ErrNotFound, "no observation",
			"id", id, "event_time", t.Format(utils.DateLayout))
	}
	v, err := obs.Observe(id, t)
	if err != nil {
		return 0, fmt.Errorf("Precompute: %w", err)
	}
	if !utils.IsFinite(v) {
		return 0, errs.New(errs.KindObserver, "non-finite observation",
			"id", id, "event_time", t.Format(utils.DateLayout))
	}
	return v, nil
}

// Batch is a set of inputs sharing one padded length.
type Batch struct {
	Lanes  []*Inputs
	Length int
}

// NewBatch pads inputs to length, or to the longest input when length is 0.
func NewBatch(inputs []*Inputs, length int) (*Batch, error) {
	if len(inputs) == 0 {
		return nil, errs.New(errs.KindAttribute, "empty batch")
	}
	if length == 0 {
		for _, in := range inputs {
			length = max(length, in.Events)
		}
	}
	b := &Batch{Lanes: make([]*Inputs, len(inputs)), Length: length}
	for i, in := range inputs {
		if in.Len() == length {
			b.Lanes[i] = in
			continue
		}
		padded, err := in.Pad(length)
		if err != nil {
			return nil, fmt.Errorf("NewBatch: lane %d: %w", i, err)
		}
		b.Lanes[i] = padded
	}
	return b, nil
}

// Compile precomputes every contract with e's settings and assembles one batch.
func Compile(e *engine.Engine, cs []engine.Contract, obs observer.RiskFactor, length int) (*Batch, error) {
	inputs := make([]*Inputs, 0, len(cs))
	for _, c := range cs {
		in, err := Precompute(e, c, obs, 0)
		if err != nil {
			return nil, fmt.Errorf("Compile: contract %s: %w", c.ID(), err)
		}
		inputs = append(inputs, in)
	}
	return NewBatch(inputs, length)
}
