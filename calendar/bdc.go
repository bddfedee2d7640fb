package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/meenmo/actus/errs"
)

// BusinessDayConvention rolls non-business days.
//
// The first two letters pick which date accruals are calculated on: SC
// (shift, then calculate on the shifted date) or CS (calculate on the
// unadjusted date, then shift the payment). F/P is following/preceding, M the
// modified variant that never crosses a month boundary.
type BusinessDayConvention string

const (
	NOS  BusinessDayConvention = "NOS"
	SCF  BusinessDayConvention = "SCF"
	SCMF BusinessDayConvention = "SCMF"
	CSF  BusinessDayConvention = "CSF"
	CSMF BusinessDayConvention = "CSMF"
	SCP  BusinessDayConvention = "SCP"
	SCMP BusinessDayConvention = "SCMP"
	CSP  BusinessDayConvention = "CSP"
	CSMP BusinessDayConvention = "CSMP"
)

// BusinessDayConventions lists every supported convention.
var BusinessDayConventions = []BusinessDayConvention{NOS, SCF, SCMF, CSF, CSMF, SCP, SCMP, CSP, CSMP}

// ParseBusinessDayConvention parses a convention code. Empty means NOS.
func ParseBusinessDayConvention(s string) (BusinessDayConvention, error) {
	c := BusinessDayConvention(strings.ToUpper(strings.TrimSpace(s)))
	if c == "" {
		return NOS, nil
	}
	for _, known := range BusinessDayConventions {
		if c == known {
			return c, nil
		}
	}
	return "", errs.New(errs.KindConvention, fmt.Sprintf("unsupported business day convention %q", s), "convention", s)
}

func (c BusinessDayConvention) following() bool {
	return c == SCF || c == SCMF || c == CSF || c == CSMF
}

func (c BusinessDayConvention) modified() bool {
	return c == SCMF || c == CSMF || c == SCMP || c == CSMP
}

// CalculateOnShifted reports whether accruals use the shifted date.
func (c BusinessDayConvention) CalculateOnShifted() bool {
	return strings.HasPrefix(string(c), "SC")
}

// Shift returns the event (payment) date for t.
func (c BusinessDayConvention) Shift(cal Calendar, t time.Time) time.Time {
	if c == NOS || c == "" || cal == nil {
		return t
	}
	if c.following() {
		if c.modified() {
			return ModifiedFollowing(cal, t)
		}
		return Following(cal, t)
	}
	if c.modified() {
		return ModifiedPreceding(cal, t)
	}
	return Preceding(cal, t)
}

// CalculationDate returns the date accruals are computed on for an unadjusted date t.
func (c BusinessDayConvention) CalculationDate(cal Calendar, t time.Time) time.Time {
	if c.CalculateOnShifted() {
		return c.Shift(cal, t)
	}
	return t
}

// Following rolls forward to the next business day.
func Following(cal Calendar, t time.Time) time.Time {
	for !cal.IsBusinessDay(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// Preceding rolls back to the previous business day.
func Preceding(cal Calendar, t time.Time) time.Time {
	for !cal.IsBusinessDay(t) {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

// ModifiedFollowing rolls forward unless that leaves the month, then rolls back.
func ModifiedFollowing(cal Calendar, t time.Time) time.Time {
	f := Following(cal, t)
	if f.Month() != t.Month() {
		return Preceding(cal, t)
	}
	return f
}

// ModifiedPreceding rolls back unless that leaves the month, then rolls forward.
func ModifiedPreceding(cal Calendar, t time.Time) time.Time {
	p := Preceding(cal, t)
	if p.Month() != t.Month() {
		return Following(cal, t)
	}
	return p
}

// LastBusinessDayOfMonth returns the last business day of the month containing t.
func LastBusinessDayOfMonth(cal Calendar, t time.Time) time.Time {
	nextMonth := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
	return AddBusinessDays(cal, nextMonth, -1)
}
