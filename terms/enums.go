package terms

import (
	"fmt"
	"strings"

	"github.com/meenmo/actus/errs"
)

// ContractType identifies the payoff family of a contract.
type ContractType string

const (
	CSH ContractType = "CSH" // cash
	PAM ContractType = "PAM" // principal at maturity
	LAM ContractType = "LAM" // linear amortizer
)

// ContractTypes lists the contract types with a registered implementation.
var ContractTypes = []ContractType{CSH, PAM, LAM}

// Role is the contract role of the record creator.
type Role string

const (
	RPA  Role = "RPA"  // real position asset
	RPL  Role = "RPL"  // real position liability
	LG   Role = "LG"   // long
	ST   Role = "ST"   // short
	BUY  Role = "BUY"  // protection/option buyer
	SEL  Role = "SEL"  // protection/option seller
	RFL  Role = "RFL"  // receive first leg
	PFL  Role = "PFL"  // pay first leg
	RF   Role = "RF"   // receive fix
	PF   Role = "PF"   // pay fix
	COL  Role = "COL"  // collateral
	CNO  Role = "CNO"  // close-out netting
	UDL  Role = "UDL"  // underlying
	UDLP Role = "UDLP" // underlying, positive
	UDLM Role = "UDLM" // underlying, negative
)

var roleSigns = map[Role]float64{
	RPA: 1, LG: 1, BUY: 1, RFL: 1, RF: 1, COL: 1, CNO: 1, UDL: 1, UDLP: 1,
	RPL: -1, ST: -1, SEL: -1, PFL: -1, PF: -1, UDLM: -1,
}

// Sign returns +1 for asset-like roles and -1 for liability-like roles.
func (r Role) Sign() float64 {
	if s, ok := roleSigns[r]; ok {
		return s
	}
	return 1
}

func (r Role) valid() bool {
	_, ok := roleSigns[r]
	return ok
}

// FeeBasis selects how FeeRate is applied.
type FeeBasis string

const (
	FeeAbsolute FeeBasis = "A" // absolute amount per fee cycle
	FeeNotional FeeBasis = "N" // rate on notional
)

// PenaltyType selects the prepayment penalty rule.
type PenaltyType string

const (
	PenaltyNone     PenaltyType = "O"
	PenaltyAbsolute PenaltyType = "A" // fixed amount per prepayment
	PenaltyNotional PenaltyType = "N" // rate on the notional over the accrual period
)

// InterestCalculationBase selects the notional interest accrues on.
type InterestCalculationBase string

const (
	BaseNotional       InterestCalculationBase = "NT"    // current notional
	BaseNotionalAtIED  InterestCalculationBase = "NTIED" // notional at initial exchange
	BaseNotionalLagged InterestCalculationBase = "NTL"   // notional fixed at IPCB events
)

// PrepaymentEffect describes what a prepayment does to the contract.
type PrepaymentEffect string

const (
	PrepaymentNone     PrepaymentEffect = "N"
	PrepaymentReduce   PrepaymentEffect = "A" // reduce notional, keep maturity
	PrepaymentMaturity PrepaymentEffect = "M" // reduce maturity
)

func parseEnum[T ~string](field, raw string, def T, allowed ...T) (T, error) {
	v := T(strings.ToUpper(strings.TrimSpace(raw)))
	if v == "" {
		return def, nil
	}
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", errs.New(errs.KindAttribute, fmt.Sprintf("unsupported value %q", raw), "field", field)
}
