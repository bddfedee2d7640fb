package utils_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/actus/utils"
)

func TestAddMonth_ClipsToMonthEnd(t *testing.T) {
	cases := []struct {
		in     time.Time
		months int
		want   time.Time
	}{
		{utils.Date(2024, 1, 31), 1, utils.Date(2024, 2, 29)},
		{utils.Date(2023, 1, 31), 1, utils.Date(2023, 2, 28)},
		{utils.Date(2024, 3, 31), -1, utils.Date(2024, 2, 29)},
		{utils.Date(2024, 11, 15), 3, utils.Date(2025, 2, 15)},
		{utils.Date(2024, 1, 15), -13, utils.Date(2022, 12, 15)},
		{utils.Date(2024, 5, 31), 12, utils.Date(2025, 5, 31)},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, utils.AddMonth(c.in, c.months), "AddMonth(%s, %d)", c.in.Format(utils.DateLayout), c.months)
	}
}

func TestParseDate(t *testing.T) {
	d, err := utils.ParseDate("2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, utils.Date(2025, 3, 14), d)

	d, err = utils.ParseDate("2025-03-14T12:00:00")
	require.NoError(t, err)
	assert.Equal(t, 12, d.Hour())

	_, err = utils.ParseDate("14/03/2025")
	assert.Error(t, err)
}

func TestSortedUnique(t *testing.T) {
	in := []time.Time{
		utils.Date(2025, 3, 1),
		utils.Date(2025, 1, 1),
		utils.Date(2025, 3, 1),
		utils.Date(2025, 2, 1),
	}
	out := utils.SortedUnique(in)
	assert.Equal(t, []time.Time{utils.Date(2025, 1, 1), utils.Date(2025, 2, 1), utils.Date(2025, 3, 1)}, out)
}

func TestEndOfMonth(t *testing.T) {
	assert.True(t, utils.IsEndOfMonth(utils.Date(2024, 2, 29)))
	assert.False(t, utils.IsEndOfMonth(utils.Date(2023, 2, 27)))
	assert.Equal(t, utils.Date(2023, 4, 30), utils.EndOfMonth(utils.Date(2023, 4, 3)))
}
