package kernel

import (
	"fmt"

	"github.com/meenmo/actus/errs"
)

// Var names an input the summed payoff can be differentiated against.
type Var struct {
	kind varKind
	step int
}

type varKind int

const (
	varNotional varKind = iota
	varRate
	varSpread
	varRiskFactor
)

var (
	// Notional is the notional principal.
	Notional = Var{kind: varNotional}
	// NominalRate is the initial nominal interest rate.
	NominalRate = Var{kind: varRate}
	// RateSpread is the spread added at rate resets.
	RateSpread = Var{kind: varSpread}
)

// RiskFactorAt is the risk-factor observation of the given step.
func RiskFactorAt(step int) Var { return Var{kind: varRiskFactor, step: step} }

func (v Var) String() string {
	switch v.kind {
	case varNotional:
		return "notional"
	case varRate:
		return "nominal_rate"
	case varSpread:
		return "rate_spread"
	}
	return fmt.Sprintf("risk_factor[%d]", v.step)
}

// Gradient returns the masked payoff total of in and its partial derivatives
// with respect to vars, in order, by forward-mode differentiation.
func Gradient(in *Inputs, vars ...Var) (float64, []float64, error) {
	f := Duals{N: len(vars)}
	pr := NewProgram[Dual](f)
	l := pr.load(in)
	for k, v := range vars {
		switch v.kind {
		case varNotional:
			l.p.notional = f.Seed(in.Params.Notional, k)
		case varRate:
			l.p.rate = f.Seed(in.Params.NominalRate, k)
		case varSpread:
			l.p.spread = f.Seed(in.Params.RateSpread, k)
		case varRiskFactor:
			if v.step < 0 || v.step >= in.Len() {
				return 0, nil, errs.New(errs.KindAttribute, "risk factor step out of range",
					"contract_id", in.ContractID, "step", v.step, "length", in.Len())
			}
			l.rf[v.step] = f.Seed(in.RiskFactors[v.step], k)
		}
	}

	total := pr.fold(&l).Total
	grad := make([]float64, len(vars))
	copy(grad, total.D)
	return total.V, grad, nil
}
