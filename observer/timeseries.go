package observer

import (
	"sort"
	"time"
)

// Interpolation selects how TimeSeries fills dates between observations.
type Interpolation int

const (
	// Step holds the last observation on or before t.
	Step Interpolation = iota
	// Linear interpolates linearly in calendar time.
	Linear
)

// Point is one dated observation.
type Point struct {
	Time  time.Time
	Value float64
}

// TimeSeries observes dated series. Values are extrapolated flat before the
// first and after the last point.
type TimeSeries struct {
	interp Interpolation
	series map[string][]Point
}

// NewTimeSeries copies and sorts the given series.
func NewTimeSeries(interp Interpolation, series map[string][]Point) *TimeSeries {
	ts := &TimeSeries{interp: interp, series: make(map[string][]Point, len(series))}
	for id, pts := range series {
		ts.series[id] = sortedCopy(pts)
	}
	return ts
}

// With returns a new TimeSeries that also holds id.
func (ts *TimeSeries) With(id string, pts []Point) *TimeSeries {
	out := &TimeSeries{interp: ts.interp, series: make(map[string][]Point, len(ts.series)+1)}
	for k, v := range ts.series {
		out.series[k] = v
	}
	out.series[id] = sortedCopy(pts)
	return out
}

// IDs lists the identifiers held.
func (ts *TimeSeries) IDs() []string {
	ids := make([]string, 0, len(ts.series))
	for id := range ts.series {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (ts *TimeSeries) Observe(id string, t time.Time) (float64, error) {
	pts := ts.series[id]
	if len(pts) == 0 {
		return 0, notFound(id, t)
	}
	// first point strictly after t
	i := sort.Search(len(pts), func(i int) bool { return pts[i].Time.After(t) })
	switch {
	case i == 0:
		return pts[0].Value, nil
	case i == len(pts):
		return pts[len(pts)-1].Value, nil
	}
	prev, next := pts[i-1], pts[i]
	if ts.interp == Step || prev.Time.Equal(t) {
		return prev.Value, nil
	}
	w := t.Sub(prev.Time).Hours() / next.Time.Sub(prev.Time).Hours()
	return prev.Value + w*(next.Value-prev.Value), nil
}

func sortedCopy(pts []Point) []Point {
	out := make([]Point, len(pts))
	copy(out, pts)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}
