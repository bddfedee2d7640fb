// Package schedule expands cyclical contract terms into concrete date sequences.
package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/meenmo/actus/calendar"
	"github.com/meenmo/actus/errs"
	"github.com/meenmo/actus/utils"
)

// DefaultMaxDurationYears bounds schedules of contracts without an end date.
const DefaultMaxDurationYears = 100

// EndOfMonthConvention controls month-end anchoring.
type EndOfMonthConvention string

const (
	// SD keeps the anchor's day of month.
	SD EndOfMonthConvention = "SD"
	// EOM re-anchors dates to month ends when the anchor is a short month end.
	EOM EndOfMonthConvention = "EOM"
)

// ParseEndOfMonthConvention parses SD or EOM. Empty means SD.
func ParseEndOfMonthConvention(s string) (EndOfMonthConvention, error) {
	switch EndOfMonthConvention(strings.ToUpper(strings.TrimSpace(s))) {
	case "", SD:
		return SD, nil
	case EOM:
		return EOM, nil
	}
	return "", errs.New(errs.KindConvention, fmt.Sprintf("unsupported end of month convention %q", s), "convention", s)
}

// Generate expands start + k*cycle up to end into an ordered list of dates,
// then applies the business day convention.
//
// Dates accumulate one cycle at a time from start until past end. When the
// cycle does not land on end, a short stub drops the overshooting trailing
// date and a long stub keeps it. An empty cycle or start == end yields the
// single date start. A zero end is replaced by start + DefaultMaxDurationYears.
// CloseAt turns the result into a schedule that closes exactly at end.
func Generate(start time.Time, cycle string, end time.Time, eom EndOfMonthConvention, bdc calendar.BusinessDayConvention, cal calendar.Calendar) ([]time.Time, error) {
	if strings.TrimSpace(cycle) == "" {
		return adjust([]time.Time{start}, bdc, cal), nil
	}
	c, err := ParseCycle(cycle)
	if err != nil {
		return nil, err
	}
	dates, err := GenerateUnadjusted(start, c, end, eom)
	if err != nil {
		return nil, err
	}
	return adjust(dates, bdc, cal), nil
}

// GenerateUnadjusted is Generate without business day adjustment.
func GenerateUnadjusted(start time.Time, c Cycle, end time.Time, eom EndOfMonthConvention) ([]time.Time, error) {
	end = boundEnd(start, end)
	if end.Before(start) {
		return nil, errs.New(errs.KindSchedule, "end before start",
			"start", start.Format(utils.DateLayout), "end", end.Format(utils.DateLayout))
	}
	if start.Equal(end) {
		return []time.Time{start}, nil
	}
	if c.Multiplier <= 0 {
		return nil, errs.New(errs.KindSchedule, "cycle multiplier must be positive", "cycle", c.String())
	}

	monthEnd := eom == EOM && c.MonthBased() && utils.IsEndOfMonth(start) && start.Day() < 31
	at := func(k int) time.Time {
		d := c.Add(start, k)
		if monthEnd {
			d = utils.EndOfMonth(d)
		}
		return d
	}

	maxSteps := maxCycles(start, end, c)
	dates := make([]time.Time, 0, 16)
	k := 0
	for ; k <= maxSteps; k++ {
		d := at(k)
		if d.After(end) {
			break
		}
		dates = append(dates, d)
	}
	if k > maxSteps {
		return nil, errs.New(errs.KindSchedule, "schedule does not terminate", "cycle", c.String())
	}

	if c.Stub == LongStub && !dates[len(dates)-1].Equal(end) {
		dates = append(dates, at(k))
	}
	return dates, nil
}

// CloseAt bounds generated dates by end so the schedule closes exactly there:
// dates past end are dropped and end is appended. Under a long stub the last
// regular date before end is dropped too, so the final period absorbs the
// remainder instead of leaving a short one.
func CloseAt(dates []time.Time, end time.Time, stub Stub) []time.Time {
	out := make([]time.Time, 0, len(dates)+1)
	for _, d := range dates {
		if !d.After(end) {
			out = append(out, d)
		}
	}
	if n := len(out); n > 0 && out[n-1].Equal(end) {
		return out
	}
	if stub == LongStub && len(out) > 1 {
		out = out[:len(out)-1]
	}
	return append(out, end)
}

func boundEnd(start, end time.Time) time.Time {
	if end.IsZero() {
		return start.AddDate(DefaultMaxDurationYears, 0, 0)
	}
	return end
}

// maxCycles is a generous upper bound on the number of cycles between start and end.
func maxCycles(start, end time.Time, c Cycle) int {
	days := int(utils.Days(start, end)) + 1
	switch c.Unit {
	case Day:
		return days/c.Multiplier + 2
	case Week:
		return days/(7*c.Multiplier) + 2
	default:
		return days/(28*c.months()) + 2
	}
}

// GenerateArray expands several (anchor, cycle) pairs into one schedule. Each
// sub-schedule runs from its anchor and never passes the next anchor; the last
// one follows Generate's stub rule against end.
func GenerateArray(anchors []time.Time, cycles []string, end time.Time, eom EndOfMonthConvention, bdc calendar.BusinessDayConvention, cal calendar.Calendar) ([]time.Time, error) {
	if len(anchors) != len(cycles) {
		return nil, errs.New(errs.KindSchedule, "inconsistent anchors: anchor and cycle counts differ",
			"anchors", len(anchors), "cycles", len(cycles))
	}
	if len(anchors) == 0 {
		return nil, nil
	}
	var out []time.Time
	for i, anchor := range anchors {
		subEnd := end
		if i+1 < len(anchors) {
			subEnd = anchors[i+1]
			if !subEnd.After(anchor) {
				return nil, errs.New(errs.KindSchedule, "inconsistent anchors: anchors must increase",
					"anchor", anchor.Format(utils.DateLayout), "next", subEnd.Format(utils.DateLayout))
			}
		}
		dates, err := Generate(anchor, cycles[i], subEnd, eom, calendar.NOS, nil)
		if err != nil {
			return nil, fmt.Errorf("GenerateArray: anchor %d: %w", i, err)
		}
		if i+1 < len(anchors) {
			for len(dates) > 0 && dates[len(dates)-1].After(subEnd) {
				dates = dates[:len(dates)-1]
			}
		}
		out = append(out, adjust(dates, bdc, cal)...)
	}
	return utils.SortedUnique(out), nil
}

func adjust(dates []time.Time, bdc calendar.BusinessDayConvention, cal calendar.Calendar) []time.Time {
	if bdc == "" || bdc == calendar.NOS || cal == nil {
		return dates
	}
	out := make([]time.Time, len(dates))
	for i, d := range dates {
		out[i] = bdc.Shift(cal, d)
	}
	return utils.SortedUnique(out)
}

// Date pairs an event (payment) date with the date accruals are calculated on.
type Date struct {
	Event time.Time
	Calc  time.Time
}

// GenerateDated is Generate closed at end by CloseAt, keeping the calculation
// date of every entry. Under SC conventions both dates are the shifted date;
// under CS conventions Calc stays unadjusted.
func GenerateDated(start time.Time, cycle string, end time.Time, eom EndOfMonthConvention, bdc calendar.BusinessDayConvention, cal calendar.Calendar) ([]Date, error) {
	var raw []time.Time
	if strings.TrimSpace(cycle) == "" {
		raw = []time.Time{start}
	} else {
		c, err := ParseCycle(cycle)
		if err != nil {
			return nil, err
		}
		if raw, err = GenerateUnadjusted(start, c, end, eom); err != nil {
			return nil, err
		}
		raw = CloseAt(raw, boundEnd(start, end), c.Stub)
	}
	out := make([]Date, 0, len(raw))
	for _, d := range raw {
		out = append(out, Date{Event: shift(bdc, cal, d), Calc: calcDate(bdc, cal, d)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Event.Before(out[j].Event) })
	uniq := out[:0]
	for _, d := range out {
		if len(uniq) > 0 && uniq[len(uniq)-1].Event.Equal(d.Event) {
			continue
		}
		uniq = append(uniq, d)
	}
	return uniq, nil
}

func shift(bdc calendar.BusinessDayConvention, cal calendar.Calendar, d time.Time) time.Time {
	if cal == nil {
		return d
	}
	return bdc.Shift(cal, d)
}

func calcDate(bdc calendar.BusinessDayConvention, cal calendar.Calendar, d time.Time) time.Time {
	if cal == nil {
		return d
	}
	return bdc.CalculationDate(cal, d)
}
