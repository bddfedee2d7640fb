package observer_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/actus/errs"
	"github.com/meenmo/actus/observer"
	"github.com/meenmo/actus/state"
	"github.com/meenmo/actus/terms"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestConstant(t *testing.T) {
	o := observer.Constant{"SOFR": 0.043}
	v, err := o.Observe("SOFR", d(2025, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 0.043, v)

	_, err = o.Observe("ESTR", d(2025, 1, 1))
	assert.ErrorIs(t, err, errs.ErrObserver)
	assert.ErrorIs(t, err, observer.ErrNotFound)
}

func TestTimeSeries(t *testing.T) {
	pts := []observer.Point{
		{Time: d(2025, 3, 1), Value: 3},
		{Time: d(2025, 1, 1), Value: 1},
	}
	step := observer.NewTimeSeries(observer.Step, map[string][]observer.Point{"X": pts})
	linear := observer.NewTimeSeries(observer.Linear, map[string][]observer.Point{"X": pts})

	mid := d(2025, 1, 30) // 29 of 59 days
	v, err := step.Observe("X", mid)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	v, err = linear.Observe("X", mid)
	require.NoError(t, err)
	assert.InDelta(t, 1+2*29.0/59.0, v, 1e-12)

	v, _ = linear.Observe("X", d(2024, 6, 1))
	assert.Equal(t, 1.0, v)
	v, _ = linear.Observe("X", d(2026, 6, 1))
	assert.Equal(t, 3.0, v)
	v, _ = step.Observe("X", d(2025, 3, 1))
	assert.Equal(t, 3.0, v)

	_, err = step.Observe("Y", mid)
	assert.ErrorIs(t, err, observer.ErrNotFound)

	extended := step.With("Y", []observer.Point{{Time: d(2025, 1, 1), Value: 7}})
	assert.Equal(t, []string{"X", "Y"}, extended.IDs())
	assert.Equal(t, []string{"X"}, step.IDs())
}

func TestChain(t *testing.T) {
	c := observer.Chain{observer.Constant{"A": 1}, observer.Constant{"A": 2, "B": 3}}
	v, err := c.Observe("A", d(2025, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
	v, err = c.Observe("B", d(2025, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)
	_, err = c.Observe("C", d(2025, 1, 1))
	assert.ErrorIs(t, err, observer.ErrNotFound)
}

func TestQuery_Behavioral(t *testing.T) {
	m := observer.Models{
		Market: observer.Constant{"SOFR": 0.04},
		Behavior: map[string]observer.BehaviorFunc{
			"PPMODEL": func(_ time.Time, s state.ContractState, _ terms.ContractTerms) (float64, error) {
				if s.Notional > 1000 {
					return 0.1, nil
				}
				return 0, nil
			},
		},
	}
	s := state.New(d(2025, 1, 1), d(2026, 1, 1)).WithNotional(5000)

	v, err := observer.Query(m, "PPMODEL", d(2025, 6, 1), s, terms.ContractTerms{})
	require.NoError(t, err)
	assert.Equal(t, 0.1, v)

	v, err = observer.Query(m, "SOFR", d(2025, 6, 1), s, terms.ContractTerms{})
	require.NoError(t, err)
	assert.Equal(t, 0.04, v)

	_, err = observer.Query(observer.Constant{"X": math.NaN()}, "X", d(2025, 6, 1), s, terms.ContractTerms{})
	assert.ErrorIs(t, err, errs.ErrObserver)

	_, err = observer.Query(nil, "X", d(2025, 6, 1), s, terms.ContractTerms{})
	assert.ErrorIs(t, err, errs.ErrObserver)
}
