package calendar_test

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/actus/calendar"
	"github.com/meenmo/actus/errs"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEasterSunday(t *testing.T) {
	assert.Equal(t, date(2024, 3, 31), calendar.EasterSunday(2024))
	assert.Equal(t, date(2025, 4, 20), calendar.EasterSunday(2025))
	assert.Equal(t, date(2019, 4, 21), calendar.EasterSunday(2019))
}

func TestTarget_Holidays(t *testing.T) {
	cal := calendar.Target()
	assert.False(t, cal.IsBusinessDay(date(2025, 1, 1)))
	assert.False(t, cal.IsBusinessDay(date(2025, 4, 18))) // Good Friday
	assert.False(t, cal.IsBusinessDay(date(2025, 4, 21))) // Easter Monday
	assert.False(t, cal.IsBusinessDay(date(2025, 5, 1)))
	assert.False(t, cal.IsBusinessDay(date(2025, 12, 26)))
	assert.False(t, cal.IsBusinessDay(date(2025, 3, 15))) // Saturday
	assert.True(t, cal.IsBusinessDay(date(2025, 4, 22)))
}

func TestShift_Conventions(t *testing.T) {
	cal := calendar.MondayToFriday()
	sat := date(2025, 5, 31) // Saturday, month end
	sun := date(2025, 6, 1)  // Sunday, month start

	assert.Equal(t, sat, calendar.NOS.Shift(cal, sat))
	assert.Equal(t, date(2025, 6, 2), calendar.SCF.Shift(cal, sat))
	assert.Equal(t, date(2025, 5, 30), calendar.SCMF.Shift(cal, sat))
	assert.Equal(t, date(2025, 5, 30), calendar.SCP.Shift(cal, sun))
	assert.Equal(t, date(2025, 6, 2), calendar.CSMP.Shift(cal, sun))

	assert.Equal(t, sat, calendar.CSF.CalculationDate(cal, sat))
	assert.Equal(t, date(2025, 6, 2), calendar.SCF.CalculationDate(cal, sat))
}

func TestParseBusinessDayConvention(t *testing.T) {
	c, err := calendar.ParseBusinessDayConvention("scmf")
	require.NoError(t, err)
	assert.Equal(t, calendar.SCMF, c)

	c, err = calendar.ParseBusinessDayConvention("")
	require.NoError(t, err)
	assert.Equal(t, calendar.NOS, c)

	_, err = calendar.ParseBusinessDayConvention("MODFOLLOW")
	assert.ErrorIs(t, err, errs.ErrConvention)
}

func TestRegistry_Lookup(t *testing.T) {
	reg := calendar.NewRegistry()

	cal, err := reg.Lookup("")
	require.NoError(t, err)
	assert.Equal(t, calendar.NC, cal.ID())

	cal, err = reg.Lookup("MondayToFriday")
	require.NoError(t, err)
	assert.Equal(t, calendar.MF, cal.ID())

	custom := calendar.NewHolidayCalendar("XNYS", []time.Time{date(2025, 7, 4)})
	reg.Register(custom)
	cal, err = reg.Lookup("xnys")
	require.NoError(t, err)
	assert.False(t, cal.IsBusinessDay(date(2025, 7, 4)))

	_, err = reg.Lookup("NOPE")
	assert.ErrorIs(t, err, errs.ErrConvention)
}

func TestBusinessDaysBetween(t *testing.T) {
	cal := calendar.MondayToFriday()
	// Mon 2025-06-02 .. Mon 2025-06-09 (exclusive) = 5 business days
	assert.Equal(t, 5, calendar.BusinessDaysBetween(cal, date(2025, 6, 2), date(2025, 6, 9)))
	assert.Equal(t, -5, calendar.BusinessDaysBetween(cal, date(2025, 6, 9), date(2025, 6, 2)))
	assert.Equal(t, 0, calendar.BusinessDaysBetween(cal, date(2025, 6, 2), date(2025, 6, 2)))
}

func TestShift_IdempotentAndBusinessDay(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	base := date(2000, 1, 1)
	cals := []calendar.Calendar{calendar.MondayToFriday(), calendar.Target()}

	properties.Property("adjusted dates are business days and adjusting twice changes nothing", prop.ForAll(
		func(offset int, convIdx int, calIdx int) bool {
			d := base.AddDate(0, 0, offset)
			conv := calendar.BusinessDayConventions[convIdx]
			cal := cals[calIdx]
			once := conv.Shift(cal, d)
			twice := conv.Shift(cal, once)
			if !once.Equal(twice) {
				return false
			}
			if conv == calendar.NOS {
				return once.Equal(d)
			}
			return cal.IsBusinessDay(once)
		},
		gen.IntRange(0, 365*40),
		gen.IntRange(0, len(calendar.BusinessDayConventions)-1),
		gen.IntRange(0, len(cals)-1),
	))

	properties.TestingRun(t)
}
