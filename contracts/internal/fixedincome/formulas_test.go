package fixedincome

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meenmo/actus/terms"
)

func TestResetRate(t *testing.T) {
	ct := terms.ContractTerms{
		RateMultiplier: 1,
		RateSpread:     0.01,
		LifeCap:        math.Inf(1),
		LifeFloor:      math.Inf(-1),
		PeriodCap:      math.Inf(1),
		PeriodFloor:    math.Inf(-1),
	}
	assert.InDelta(t, 0.07, ResetRate(ct, 0.05, 0.06), 1e-12)

	capped := ct
	capped.PeriodCap = 0.005
	assert.InDelta(t, 0.055, ResetRate(capped, 0.05, 0.06), 1e-12)

	floored := ct
	floored.PeriodFloor = -0.005
	assert.InDelta(t, 0.045, ResetRate(floored, 0.05, 0.0), 1e-12)

	life := ct
	life.LifeFloor = 0.02
	life.LifeCap = 0.06
	assert.InDelta(t, 0.02, ResetRate(life, 0.05, -0.03), 1e-12)
	assert.InDelta(t, 0.06, ResetRate(life, 0.05, 0.2), 1e-12)

	levered := ct
	levered.RateMultiplier = 2
	levered.RateSpread = 0
	assert.InDelta(t, 0.08, ResetRate(levered, 0.05, 0.04), 1e-12)
}

func TestRunning(t *testing.T) {
	ct := terms.ContractTerms{}
	ct.StatusDate = ct.StatusDate.AddDate(2025, 0, 0)
	ct.InitialExchangeDate = ct.StatusDate
	assert.False(t, Running(ct))

	ct.InitialExchangeDate = ct.StatusDate.AddDate(0, -1, 0)
	assert.True(t, Running(ct))
}
