package calendar

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/meenmo/actus/errs"
)

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	// NC treats every day as a business day.
	NC CalendarID = "NC"
	// MF is Monday to Friday without holidays.
	MF CalendarID = "MF"
	// TARGET is the TARGET2 settlement calendar.
	TARGET CalendarID = "TARGET"
)

// Calendar decides which days are business days.
type Calendar interface {
	ID() CalendarID
	IsBusinessDay(t time.Time) bool
}

type weekdayCalendar struct {
	id       CalendarID
	weekends bool
	holidays map[string]struct{}
	rule     func(t time.Time) bool
}

func (c *weekdayCalendar) ID() CalendarID { return c.id }

// IsBusinessDay checks weekends, the holiday set and the holiday rule.
func (c *weekdayCalendar) IsBusinessDay(t time.Time) bool {
	if c.weekends && (t.Weekday() == time.Saturday || t.Weekday() == time.Sunday) {
		return false
	}
	if _, ok := c.holidays[t.Format("2006-01-02")]; ok {
		return false
	}
	if c.rule != nil && c.rule(t) {
		return false
	}
	return true
}

var (
	noCalendar     = &weekdayCalendar{id: NC}
	mondayToFriday = &weekdayCalendar{id: MF, weekends: true}
	target         = &weekdayCalendar{id: TARGET, weekends: true, rule: isTargetHoliday}
)

// NoCalendar returns the calendar where every day is a business day.
func NoCalendar() Calendar { return noCalendar }

// MondayToFriday returns the weekend-only calendar.
func MondayToFriday() Calendar { return mondayToFriday }

// Target returns the TARGET2 calendar (New Year, Good Friday, Easter Monday,
// 1 May, 25 and 26 December).
func Target() Calendar { return target }

// NewHolidayCalendar builds a Monday-to-Friday calendar with an explicit holiday list.
func NewHolidayCalendar(id CalendarID, holidays []time.Time) Calendar {
	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		set[h.Format("2006-01-02")] = struct{}{}
	}
	return &weekdayCalendar{id: id, weekends: true, holidays: set}
}

func isTargetHoliday(t time.Time) bool {
	m, d := t.Month(), t.Day()
	switch {
	case m == time.January && d == 1,
		m == time.May && d == 1,
		m == time.December && (d == 25 || d == 26):
		return true
	}
	easter := EasterSunday(t.Year())
	goodFriday := easter.AddDate(0, 0, -2)
	easterMonday := easter.AddDate(0, 0, 1)
	day := time.Date(t.Year(), m, d, 0, 0, 0, 0, time.UTC)
	return day.Equal(goodFriday) || day.Equal(easterMonday)
}

// EasterSunday returns Western Easter for the given year (anonymous Gregorian algorithm).
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal Calendar, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if cal.IsBusinessDay(t) {
			n -= step
		}
	}
	return t
}

// BusinessDaysBetween counts business days in [start, end). It returns the
// negated count when end is before start.
func BusinessDaysBetween(cal Calendar, start, end time.Time) int {
	if end.Before(start) {
		return -BusinessDaysBetween(cal, end, start)
	}
	n := 0
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		if cal.IsBusinessDay(d) {
			n++
		}
	}
	return n
}

// Registry resolves calendar ids. The zero value is not usable; use NewRegistry.
type Registry struct {
	mu   sync.RWMutex
	cals map[CalendarID]Calendar
}

// NewRegistry returns a registry pre-populated with NC, MF and TARGET.
func NewRegistry() *Registry {
	return &Registry{cals: map[CalendarID]Calendar{
		NC:     noCalendar,
		MF:     mondayToFriday,
		TARGET: target,
	}}
}

// Register adds or replaces a calendar.
func (r *Registry) Register(cal Calendar) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cals[cal.ID()] = cal
}

// Lookup returns the calendar for id. An empty id resolves to NC.
func (r *Registry) Lookup(id CalendarID) (Calendar, error) {
	key := CalendarID(strings.ToUpper(strings.TrimSpace(string(id))))
	if key == "" {
		return noCalendar, nil
	}
	switch key {
	case "NOCALENDAR", "NO_CALENDAR":
		key = NC
	case "MONDAYTOFRIDAY", "MONDAY_TO_FRIDAY":
		key = MF
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	cal, ok := r.cals[key]
	if !ok {
		return nil, errs.New(errs.KindConvention, fmt.Sprintf("unknown calendar %q", id), "calendar", string(id))
	}
	return cal, nil
}
