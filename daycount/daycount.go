// Package daycount computes year fractions between two dates.
package daycount

import (
	"fmt"
	"strings"
	"time"

	"github.com/meenmo/actus/calendar"
	"github.com/meenmo/actus/errs"
	"github.com/meenmo/actus/utils"
)

// Convention is a day count convention code.
type Convention string

const (
	// AA is Actual/Actual ISDA.
	AA Convention = "AA"
	// A360 is Actual/360.
	A360 Convention = "A360"
	// A365 is Actual/365 fixed.
	A365 Convention = "A365"
	// E30360 is 30E/360 (Eurobond basis).
	E30360 Convention = "30E360"
	// E30360ISDA is 30E/360 ISDA; the maturity date matters for February ends.
	E30360ISDA Convention = "30E360ISDA"
	// US30360 is 30/360 US (bond basis).
	US30360 Convention = "30360"
	// B252 is business days / 252.
	B252 Convention = "B252"
)

// Conventions lists every supported convention.
var Conventions = []Convention{AA, A360, A365, E30360, E30360ISDA, US30360, B252}

var aliases = map[string]Convention{
	"AA":          AA,
	"ACT/ACT":     AA,
	"ACTACTISDA":  AA,
	"A360":        A360,
	"ACT/360":     A360,
	"A365":        A365,
	"ACT/365":     A365,
	"ACT/365F":    A365,
	"30E360":      E30360,
	"30E/360":     E30360,
	"30E360ISDA":  E30360ISDA,
	"30E/360ISDA": E30360ISDA,
	"30360":       US30360,
	"30/360":      US30360,
	"30/360US":    US30360,
	"B252":        B252,
	"BUS/252":     B252,
}

// ParseConvention resolves a convention code or one of its common aliases.
func ParseConvention(s string) (Convention, error) {
	key := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if c, ok := aliases[key]; ok {
		return c, nil
	}
	return "", errs.New(errs.KindConvention, fmt.Sprintf("unsupported day count convention %q", s), "convention", s)
}

// YearFraction computes the year fraction between start and end.
//
// maturity is only consulted by 30E360ISDA and cal only by B252 (nil means
// Monday to Friday). A reversed interval returns the negated fraction.
func YearFraction(start, end time.Time, conv Convention, maturity time.Time, cal calendar.Calendar) (float64, error) {
	c, err := NewCounter(conv, maturity, cal)
	if err != nil {
		return 0, err
	}
	return c.YearFraction(start, end), nil
}

func (c Counter) fraction(start, end time.Time) float64 {
	switch c.conv {
	case AA:
		return actualActualISDA(start, end)
	case A360:
		return utils.Days(start, end) / 360.0
	case A365:
		return utils.Days(start, end) / 365.0
	case E30360:
		d1 := min(start.Day(), 30)
		d2 := min(end.Day(), 30)
		return thirty360(start, end, d1, d2)
	case E30360ISDA:
		d1 := start.Day()
		if utils.IsEndOfMonth(start) {
			d1 = 30
		}
		d2 := end.Day()
		isMaturityFeb := end.Month() == time.February && !c.maturity.IsZero() && sameDay(end, c.maturity)
		if utils.IsEndOfMonth(end) && !isMaturityFeb {
			d2 = 30
		}
		return thirty360(start, end, d1, d2)
	case US30360:
		d1 := start.Day()
		d2 := end.Day()
		if d1 == 31 {
			d1 = 30
		}
		if d2 == 31 && d1 >= 30 {
			d2 = 30
		}
		return thirty360(start, end, d1, d2)
	case B252:
		return float64(calendar.BusinessDaysBetween(c.cal, start, end)) / 252.0
	}
	panic(fmt.Sprintf("daycount: counter with unresolved convention %q; use NewCounter", c.conv))
}

func thirty360(start, end time.Time, d1, d2 int) float64 {
	y1, m1 := start.Year(), int(start.Month())
	y2, m2 := end.Year(), int(end.Month())
	return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
}

// actualActualISDA sums the overlap with each calendar year divided by that year's length.
func actualActualISDA(start, end time.Time) float64 {
	frac := 0.0
	for y := start.Year(); y <= end.Year(); y++ {
		yearStart := time.Date(y, time.January, 1, 0, 0, 0, 0, start.Location())
		yearEnd := time.Date(y+1, time.January, 1, 0, 0, 0, 0, start.Location())
		segStart := start
		if yearStart.After(segStart) {
			segStart = yearStart
		}
		segEnd := end
		if yearEnd.Before(segEnd) {
			segEnd = yearEnd
		}
		if segEnd.After(segStart) {
			frac += utils.Days(segStart, segEnd) / utils.Days(yearStart, yearEnd)
		}
	}
	return frac
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Counter binds a resolved convention to the maturity and calendar it needs.
// Only NewCounter builds a usable Counter, so every convention error surfaces
// at construction and YearFraction cannot fail.
type Counter struct {
	conv     Convention
	maturity time.Time
	cal      calendar.Calendar
}

// NewCounter resolves conv and returns a Counter. A nil cal means Monday to Friday.
func NewCounter(conv Convention, maturity time.Time, cal calendar.Calendar) (Counter, error) {
	c, err := ParseConvention(string(conv))
	if err != nil {
		return Counter{}, err
	}
	if cal == nil {
		cal = calendar.MondayToFriday()
	}
	return Counter{conv: c, maturity: maturity, cal: cal}, nil
}

// Convention is the resolved convention code.
func (c Counter) Convention() Convention { return c.conv }

// YearFraction returns the fraction between start and end. A reversed
// interval returns the negated fraction.
func (c Counter) YearFraction(start, end time.Time) float64 {
	switch {
	case end.Before(start):
		return -c.fraction(end, start)
	case start.Equal(end):
		if c.conv == "" {
			panic("daycount: zero Counter; use NewCounter")
		}
		return 0
	}
	return c.fraction(start, end)
}
