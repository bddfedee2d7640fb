// Package report turns simulated payoffs into cash-flow tables: each payoff
// is classified as principal, interest, fee or other, amounts are held as
// decimals, and totals are kept per currency.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo/actus/engine"
	"github.com/meenmo/actus/event"
	"github.com/meenmo/actus/kernel"
)

// Precision is the number of decimal places payoffs are rounded to when
// converted from float.
const Precision = 8

// Component is the economic nature of a payment.
type Component string

const (
	Principal Component = "principal"
	Interest  Component = "interest"
	Fee       Component = "fee"
	Other     Component = "other"
)

// Classify maps an event type to the component its payoff belongs to.
// Purchase and termination payments count as principal including the
// accrued interest they settle.
func Classify(t event.Type) Component {
	switch t {
	case event.IED, event.PR, event.PD, event.PP, event.PRD, event.TD, event.MD:
		return Principal
	case event.IP, event.IPCI:
		return Interest
	case event.FP, event.PY:
		return Fee
	}
	return Other
}

// Cashflow is a single dated payment of a contract.
//
// Exactly one component is nonzero; the others are kept so rows line up in
// tabular output.
type Cashflow struct {
	ContractID string
	Date       time.Time
	Type       event.Type
	Currency   string
	Principal  decimal.Decimal
	Interest   decimal.Decimal
	Fee        decimal.Decimal
	Other      decimal.Decimal
}

func (c Cashflow) Amount() decimal.Decimal {
	return c.Principal.Add(c.Interest).Add(c.Fee).Add(c.Other)
}

// Component returns the classification of the payment.
func (c Cashflow) Component() Component { return Classify(c.Type) }

func newCashflow(id string, t time.Time, typ event.Type, ccy string, v float64) Cashflow {
	cf := Cashflow{ContractID: id, Date: t, Type: typ, Currency: ccy}
	amount := decimal.NewFromFloat(v).Round(Precision)
	switch Classify(typ) {
	case Principal:
		cf.Principal = amount
	case Interest:
		cf.Interest = amount
	case Fee:
		cf.Fee = amount
	default:
		cf.Other = amount
	}
	return cf
}

// FromHistory lists the nonzero payoffs of h in event order.
func FromHistory(h *engine.History) []Cashflow {
	var out []Cashflow
	for _, ev := range h.Events {
		if ev.Payoff == 0 {
			continue
		}
		out = append(out, newCashflow(h.ContractID, ev.Time, ev.Type, ev.Currency, ev.Payoff))
	}
	return out
}

// FromHistories concatenates the cash flows of several histories.
func FromHistories(hs []*engine.History) []Cashflow {
	var out []Cashflow
	for _, h := range hs {
		out = append(out, FromHistory(h)...)
	}
	return out
}

// FromKernel lists the nonzero payoffs of an array-mode run of in.
func FromKernel(in *kernel.Inputs, payoffs []float64) []Cashflow {
	var out []Cashflow
	for i := 0; i < in.Events && i < len(payoffs); i++ {
		typ, ok := in.Ops[i].EventType()
		if !ok || payoffs[i] == 0 {
			continue
		}
		out = append(out, newCashflow(in.ContractID, in.Times[i], typ, in.Currency, payoffs[i]))
	}
	return out
}

// Totals sums the cash flows of one currency.
type Totals struct {
	Currency  string
	Count     int
	Principal decimal.Decimal
	Interest  decimal.Decimal
	Fee       decimal.Decimal
	Other     decimal.Decimal
}

// Net is the sum of all components.
func (t Totals) Net() decimal.Decimal {
	return t.Principal.Add(t.Interest).Add(t.Fee).Add(t.Other)
}

// Summarize totals cfs per currency, ordered by currency code.
func Summarize(cfs []Cashflow) []Totals {
	byCcy := make(map[string]*Totals)
	for _, cf := range cfs {
		t, ok := byCcy[cf.Currency]
		if !ok {
			t = &Totals{Currency: cf.Currency}
			byCcy[cf.Currency] = t
		}
		t.Count++
		t.Principal = t.Principal.Add(cf.Principal)
		t.Interest = t.Interest.Add(cf.Interest)
		t.Fee = t.Fee.Add(cf.Fee)
		t.Other = t.Other.Add(cf.Other)
	}
	out := make([]Totals, 0, len(byCcy))
	for _, t := range byCcy {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}
