package pam_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/actus/contracts/pam"
	"github.com/meenmo/actus/engine"
	"github.com/meenmo/actus/event"
	"github.com/meenmo/actus/observer"
	"github.com/meenmo/actus/terms"
)

const base = `
contract_type: PAM
contract_id: loan
currency: USD
day_count_convention: 30E360
status_date: 2025-01-01
initial_exchange_date: 2025-01-01
maturity_date: 2026-01-01
notional_principal: 100000
nominal_interest_rate: 0.05
cycle_of_interest_payment: P6ML0
`

func simulate(t *testing.T, doc string, obs observer.RiskFactor) *engine.History {
	t.Helper()
	ct, err := terms.Parse([]byte(doc))
	require.NoError(t, err)
	c, err := pam.New(ct)
	require.NoError(t, err)
	h, err := engine.New().Simulate(c, obs)
	require.NoError(t, err)
	return h
}

func payoffs(h *engine.History, typ event.Type) []float64 {
	var out []float64
	for _, ev := range h.Events {
		if ev.Type == typ {
			out = append(out, ev.Payoff)
		}
	}
	return out
}

func TestBulletLoan(t *testing.T) {
	const (
		notional = 100000.0
		rate     = 0.05
		years    = 2
	)
	doc := `
contract_type: PAM
currency: USD
day_count_convention: A365
status_date: 2025-01-15
initial_exchange_date: 2025-01-15
maturity_date: 2027-01-15
notional_principal: 100000
nominal_interest_rate: 0.05
cycle_of_interest_payment: P6ML0
`
	h := simulate(t, doc, nil)

	ied := payoffs(h, event.IED)
	require.Len(t, ied, 1)
	assert.Equal(t, -notional, ied[0])

	ip := payoffs(h, event.IP)
	require.Len(t, ip, 2*years)
	var interest float64
	for _, v := range ip {
		assert.Greater(t, v, 0.0)
		interest += v
	}
	assert.InDelta(t, notional*rate*years, interest, notional*rate*years*0.01)

	md := payoffs(h, event.MD)
	require.Len(t, md, 1)
	assert.GreaterOrEqual(t, md[0], 0.99*notional)

	assert.Zero(t, h.Final.Notional)
	assert.Equal(t, event.MD, h.Events[len(h.Events)-1].Type)
}

func TestBulletLoan_ExactUnder30E360(t *testing.T) {
	h := simulate(t, base, nil)
	assert.Equal(t, []float64{2500, 2500}, payoffs(h, event.IP))
	assert.InDelta(t, 5000.0, h.TotalPayoff(), 1e-9)
	for i, ev := range h.Events {
		assert.Equal(t, i, ev.Sequence)
		require.NotNil(t, ev.StatePre)
		require.NotNil(t, ev.StatePost)
	}
}

func TestLiability_NegatesPayoffs(t *testing.T) {
	h := simulate(t, base+"contract_role: RPL\n", nil)
	assert.Equal(t, 100000.0, payoffs(h, event.IED)[0])
	assert.Equal(t, []float64{-2500, -2500}, payoffs(h, event.IP))
	assert.Equal(t, -100000.0, payoffs(h, event.MD)[0])
}

func TestRateReset(t *testing.T) {
	reset := base + "cycle_of_rate_reset: P6ML0\nmarket_object_code_of_rate_reset: SOFR\nrate_spread: 0.01\n"
	obs := observer.Constant{"SOFR": 0.06}

	h := simulate(t, reset, obs)
	require.Len(t, payoffs(h, event.RR), 1)
	assert.InDeltaSlice(t, []float64{2500, 3500}, payoffs(h, event.IP), 1e-9)

	h = simulate(t, reset+"life_cap: 0.065\n", obs)
	assert.InDeltaSlice(t, []float64{2500, 3250}, payoffs(h, event.IP), 1e-9)

	h = simulate(t, reset+"period_cap: 0.01\n", obs)
	assert.InDeltaSlice(t, []float64{2500, 3000}, payoffs(h, event.IP), 1e-9)

	h = simulate(t, reset+"next_reset_rate: 0.08\n", obs)
	assert.Empty(t, payoffs(h, event.RR))
	require.Len(t, payoffs(h, event.RRF), 1)
	assert.InDeltaSlice(t, []float64{2500, 4000}, payoffs(h, event.IP), 1e-9)
}

func TestRateReset_MissingMarketData(t *testing.T) {
	ct, err := terms.Parse([]byte(base + "cycle_of_rate_reset: P6ML0\nmarket_object_code_of_rate_reset: SOFR\n"))
	require.NoError(t, err)
	c, err := pam.New(ct)
	require.NoError(t, err)
	_, err = engine.New().Simulate(c, observer.Constant{})
	assert.ErrorIs(t, err, observer.ErrNotFound)
}

func TestFees(t *testing.T) {
	h := simulate(t, base+"fee_rate: 100\nfee_basis: A\ncycle_of_fee: P6ML0\n", nil)
	assert.InDeltaSlice(t, []float64{100, 100}, payoffs(h, event.FP), 1e-9)
	assert.InDeltaSlice(t, []float64{2500, 2500}, payoffs(h, event.IP), 1e-9)

	h = simulate(t, base+"fee_rate: 0.002\nfee_basis: N\ncycle_of_fee: P6ML0\n", nil)
	assert.InDeltaSlice(t, []float64{100, 100}, payoffs(h, event.FP), 1e-9)
}

func TestPrepaymentWithPenalty(t *testing.T) {
	doc := base + `prepayment_effect: A
cycle_of_optionality: P6ML0
object_code_of_prepayment_model: PPM
penalty_type: A
penalty_rate: 50
`
	h := simulate(t, doc, observer.Constant{"PPM": 0.1})
	assert.InDeltaSlice(t, []float64{10000}, payoffs(h, event.PP), 1e-9)
	assert.InDeltaSlice(t, []float64{50}, payoffs(h, event.PY), 1e-9)
	assert.InDeltaSlice(t, []float64{2500, 2250}, payoffs(h, event.IP), 1e-9)
	assert.InDeltaSlice(t, []float64{90000}, payoffs(h, event.MD), 1e-9)
	assert.InDelta(t, 4800.0, h.TotalPayoff(), 1e-9)
}

func TestPurchaseAndTermination(t *testing.T) {
	doc := base + `purchase_date: 2025-04-01
price_at_purchase_date: 99000
termination_date: 2025-10-01
price_at_termination_date: 101000
`
	h := simulate(t, doc, nil)
	types := make([]event.Type, 0, len(h.Events))
	for _, ev := range h.Events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []event.Type{event.PRD, event.IP, event.TD}, types)
	assert.InDeltaSlice(t, []float64{-100250}, payoffs(h, event.PRD), 1e-9)
	assert.InDeltaSlice(t, []float64{2500}, payoffs(h, event.IP), 1e-9)
	assert.InDeltaSlice(t, []float64{102250}, payoffs(h, event.TD), 1e-9)
	assert.Zero(t, h.Final.Notional)
}

func TestCapitalization(t *testing.T) {
	h := simulate(t, base+"capitalization_end_date: 2025-07-01\n", nil)
	require.Len(t, payoffs(h, event.IPCI), 1)
	assert.Zero(t, payoffs(h, event.IPCI)[0])
	assert.InDeltaSlice(t, []float64{2562.5}, payoffs(h, event.IP), 1e-9)
	assert.InDeltaSlice(t, []float64{102500}, payoffs(h, event.MD), 1e-9)
}

func TestScaling(t *testing.T) {
	doc := base + `scaling_effect: IN0
cycle_of_scaling_index: P6ML0
market_object_code_of_scaling_index: CPI
scaling_index_at_status_date: 100
`
	h := simulate(t, doc, observer.Constant{"CPI": 110})
	assert.InDeltaSlice(t, []float64{2500, 2750}, payoffs(h, event.IP), 1e-9)
	assert.InDeltaSlice(t, []float64{110000}, payoffs(h, event.MD), 1e-9)
}

func TestSettlementCurrency(t *testing.T) {
	h := simulate(t, base+"settlement_currency: EUR\n", observer.Constant{"USD/EUR": 0.5})
	assert.InDeltaSlice(t, []float64{1250, 1250}, payoffs(h, event.IP), 1e-9)
	for _, ev := range h.Events {
		assert.Equal(t, "EUR", ev.Currency)
	}
}

func TestBusinessDayShift(t *testing.T) {
	// 2025-11-30 is a Sunday.
	doc := `
contract_type: PAM
currency: USD
day_count_convention: A360
business_day_convention: SCF
calendar: MF
status_date: 2025-05-30
initial_exchange_date: 2025-05-30
maturity_date: 2026-05-29
notional_principal: 1000
nominal_interest_rate: 0.1
cycle_of_interest_payment: P6ML0
cycle_anchor_date_of_interest_payment: 2025-11-30
`
	h := simulate(t, doc, nil)
	var ipDates []time.Time
	for _, ev := range h.Events {
		if ev.Type == event.IP {
			ipDates = append(ipDates, ev.Time)
		}
	}
	require.NotEmpty(t, ipDates)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), ipDates[0])
}
