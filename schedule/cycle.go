package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/meenmo/actus/errs"
	"github.com/meenmo/actus/utils"
)

// Unit is the period unit of a cycle.
type Unit byte

const (
	Day     Unit = 'D'
	Week    Unit = 'W'
	Month   Unit = 'M'
	Quarter Unit = 'Q'
	Half    Unit = 'H'
	Year    Unit = 'Y'
)

// Stub selects how a period that does not divide the schedule evenly is treated.
type Stub int

const (
	// ShortStub leaves a short final period.
	ShortStub Stub = iota
	// LongStub folds the remainder into a long final period.
	LongStub
)

// Cycle is a parsed cycle such as P3ML0 (every 3 months, short stub).
type Cycle struct {
	Multiplier int
	Unit       Unit
	Stub       Stub
}

// ParseCycle parses P<n><unit>L<stub>. The leading P and the stub suffix are
// optional; "-" and "+" are accepted as short and long stub markers.
func ParseCycle(s string) (Cycle, error) {
	raw := s
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Cycle{}, errs.New(errs.KindSchedule, "empty cycle")
	}
	s = strings.TrimPrefix(s, "P")

	stub := ShortStub
	switch {
	case strings.HasSuffix(s, "L1"), strings.HasSuffix(s, "+"):
		stub = LongStub
		s = strings.TrimSuffix(strings.TrimSuffix(s, "L1"), "+")
	case strings.HasSuffix(s, "L0"), strings.HasSuffix(s, "-"):
		s = strings.TrimSuffix(strings.TrimSuffix(s, "L0"), "-")
	}

	if len(s) < 2 {
		return Cycle{}, errs.New(errs.KindSchedule, fmt.Sprintf("malformed cycle %q", raw), "cycle", raw)
	}
	unit := Unit(s[len(s)-1])
	switch unit {
	case Day, Week, Month, Quarter, Half, Year:
	default:
		return Cycle{}, errs.New(errs.KindSchedule, fmt.Sprintf("malformed cycle %q: unknown period unit", raw), "cycle", raw)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return Cycle{}, errs.New(errs.KindSchedule, fmt.Sprintf("malformed cycle %q: bad multiplier", raw), "cycle", raw)
	}
	return Cycle{Multiplier: n, Unit: unit, Stub: stub}, nil
}

// MustParseCycle is ParseCycle for literals known to be valid.
func MustParseCycle(s string) Cycle {
	c, err := ParseCycle(s)
	if err != nil {
		panic(err)
	}
	return c
}

// MonthBased reports whether the cycle steps in whole months.
func (c Cycle) MonthBased() bool {
	switch c.Unit {
	case Month, Quarter, Half, Year:
		return true
	}
	return false
}

func (c Cycle) months() int {
	switch c.Unit {
	case Month:
		return c.Multiplier
	case Quarter:
		return 3 * c.Multiplier
	case Half:
		return 6 * c.Multiplier
	case Year:
		return 12 * c.Multiplier
	}
	return 0
}

// Add returns anchor shifted by k cycles. Month-based cycles use EDATE
// arithmetic from the anchor so month-end clipping never accumulates.
func (c Cycle) Add(anchor time.Time, k int) time.Time {
	switch c.Unit {
	case Day:
		return anchor.AddDate(0, 0, k*c.Multiplier)
	case Week:
		return anchor.AddDate(0, 0, 7*k*c.Multiplier)
	default:
		return utils.AddMonth(anchor, k*c.months())
	}
}

// PeriodYears is the nominal length of one cycle in years.
func (c Cycle) PeriodYears() float64 {
	switch c.Unit {
	case Day:
		return float64(c.Multiplier) / 365.0
	case Week:
		return float64(7*c.Multiplier) / 365.0
	default:
		return float64(c.months()) / 12.0
	}
}

func (c Cycle) String() string {
	return fmt.Sprintf("P%d%cL%d", c.Multiplier, c.Unit, c.Stub)
}
