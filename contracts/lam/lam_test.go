package lam_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/actus/contracts/lam"
	"github.com/meenmo/actus/engine"
	"github.com/meenmo/actus/event"
	"github.com/meenmo/actus/terms"
)

const amortizer = `
contract_type: LAM
contract_id: amortizer
currency: USD
day_count_convention: 30E360
status_date: 2025-01-01
initial_exchange_date: 2025-01-01
notional_principal: 100000
nominal_interest_rate: 0.05
cycle_of_principal_redemption: P3ML0
`

func build(t *testing.T, doc string) *lam.Contract {
	t.Helper()
	ct, err := terms.Parse([]byte(doc))
	require.NoError(t, err)
	c, err := lam.New(ct)
	require.NoError(t, err)
	return c
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

func TestNew_DerivesMaturityFromRedemption(t *testing.T) {
	c := build(t, amortizer+"next_principal_redemption_payment: 25000\n")
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), c.Terms().MaturityDate)
	assert.Equal(t, 25000.0, c.Redemption())
	assert.Equal(t, "P3ML0", c.Terms().CycleOfInterestPayment)
}

func TestNew_DerivesRedemptionFromMaturity(t *testing.T) {
	c := build(t, amortizer+"maturity_date: 2026-01-01\n")
	assert.Equal(t, 25000.0, c.Redemption())
}

func TestNew_RequiresRedemptionCycle(t *testing.T) {
	ct, err := terms.Parse([]byte(`
contract_type: LAM
currency: USD
status_date: 2025-01-01
initial_exchange_date: 2025-01-01
maturity_date: 2026-01-01
notional_principal: 1000
`))
	require.NoError(t, err)
	_, err = lam.New(ct)
	assert.Error(t, err)
}

func TestSimulate_AmortizesOutstandingNotional(t *testing.T) {
	h, err := engine.New().Simulate(build(t, amortizer+"next_principal_redemption_payment: 25000\n"), nil)
	require.NoError(t, err)

	assert.Equal(t, []float64{-100000}, payoffs(h, event.IED))
	assert.InDeltaSlice(t, []float64{25000, 25000, 25000}, payoffs(h, event.PR), 1e-9)
	assert.InDeltaSlice(t, []float64{1250, 937.5, 625, 312.5}, payoffs(h, event.IP), 1e-9)
	assert.InDeltaSlice(t, []float64{25000}, payoffs(h, event.MD), 1e-9)
	assert.InDelta(t, 3125.0, h.TotalPayoff(), 1e-9)
	assert.Zero(t, h.Final.Notional)
}

func TestSimulate_InterestOnInitialNotional(t *testing.T) {
	h, err := engine.New().Simulate(build(t, amortizer+"maturity_date: 2026-01-01\ninterest_calculation_base: NTIED\n"), nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1250, 1250, 1250, 1250}, payoffs(h, event.IP), 1e-9)
}

func TestSimulate_LaggedInterestBase(t *testing.T) {
	doc := amortizer + `maturity_date: 2026-01-01
interest_calculation_base: NTL
cycle_of_interest_calculation_base: P6ML0
`
	h, err := engine.New().Simulate(build(t, doc), nil)
	require.NoError(t, err)

	// The base is refreshed on 2025-07-01 only, after that date's redemption.
	require.Len(t, payoffs(h, event.IPCB), 1)
	assert.InDeltaSlice(t, []float64{1250, 1250, 625, 625}, payoffs(h, event.IP), 1e-9)
}

func TestSimulate_Liability(t *testing.T) {
	h, err := engine.New().Simulate(build(t, amortizer+"maturity_date: 2026-01-01\ncontract_role: RPL\n"), nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-25000, -25000, -25000}, payoffs(h, event.PR), 1e-9)
	assert.InDelta(t, -3125.0, h.TotalPayoff(), 1e-9)
}
