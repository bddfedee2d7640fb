package fixedincome

import (
	"fmt"
	"time"

	"github.com/meenmo/actus/event"
	"github.com/meenmo/actus/payoff"
	"github.com/meenmo/actus/schedule"
	"github.com/meenmo/actus/terms"
)

// Anchor returns anchor, or the initial exchange date plus one cycle when
// anchor is unset.
func Anchor(ctx *payoff.Context, anchor time.Time, cycle string) (time.Time, error) {
	if !anchor.IsZero() {
		return anchor, nil
	}
	c, err := schedule.ParseCycle(cycle)
	if err != nil {
		return time.Time{}, err
	}
	return c.Add(ctx.Terms.InitialExchangeDate, 1), nil
}

// Cyclic builds events of type typ from anchor every cycle up to end. The
// event at end itself is kept only when includeEnd is set.
func Cyclic(ctx *payoff.Context, typ event.Type, anchor time.Time, cycle string, end time.Time, includeEnd bool) ([]event.ContractEvent, error) {
	if cycle == "" {
		return nil, nil
	}
	start, err := Anchor(ctx, anchor, cycle)
	if err != nil {
		return nil, err
	}
	if start.After(end) {
		return nil, nil
	}
	dates, err := ctx.Dates(start, cycle, end)
	if err != nil {
		return nil, fmt.Errorf("Cyclic %s: %w", typ, err)
	}
	last := ctx.EventAt(typ, end).Time
	out := make([]event.ContractEvent, 0, len(dates))
	for _, d := range dates {
		if !includeEnd && !d.Event.Before(last) {
			continue
		}
		out = append(out, ctx.Event(typ, d))
	}
	return out, nil
}

// InterestEvents builds the IP schedule. Payment dates up to the
// capitalization end date become IPCI events. Without a cycle interest is
// paid once at end.
func InterestEvents(ctx *payoff.Context, end time.Time) ([]event.ContractEvent, error) {
	ct := ctx.Terms
	var evs []event.ContractEvent
	if ct.CycleOfInterestPayment == "" {
		evs = []event.ContractEvent{ctx.EventAt(event.IP, end)}
	} else {
		var err error
		evs, err = Cyclic(ctx, event.IP, ct.CycleAnchorDateOfInterestPayment, ct.CycleOfInterestPayment, end, true)
		if err != nil {
			return nil, err
		}
	}
	if ct.CapitalizationEndDate.IsZero() {
		return evs, nil
	}
	capEnd := false
	for i := range evs {
		if evs[i].Time.After(ct.CapitalizationEndDate) {
			continue
		}
		evs[i].Type = event.IPCI
		capEnd = capEnd || evs[i].Time.Equal(ct.CapitalizationEndDate)
	}
	if !capEnd && ct.CapitalizationEndDate.Before(end) {
		evs = append(evs, ctx.EventAt(event.IPCI, ct.CapitalizationEndDate))
	}
	return evs, nil
}

// RateResetEvents builds the RR schedule. With a next reset rate the first
// reset after the status date is a fixed reset (RRF).
func RateResetEvents(ctx *payoff.Context, end time.Time) ([]event.ContractEvent, error) {
	ct := ctx.Terms
	evs, err := Cyclic(ctx, event.RR, ct.CycleAnchorDateOfRateReset, ct.CycleOfRateReset, end, false)
	if err != nil || ct.NextResetRate == nil {
		return evs, err
	}
	for i := range evs {
		if evs[i].Time.After(ct.StatusDate) {
			evs[i].Type = event.RRF
			break
		}
	}
	return evs, nil
}

// OptionalEvents builds the fee, scaling, prepayment and penalty schedules.
func OptionalEvents(ctx *payoff.Context, end time.Time) ([]event.ContractEvent, error) {
	ct := ctx.Terms
	var out []event.ContractEvent

	if ct.FeeRate != 0 {
		fees, err := Cyclic(ctx, event.FP, ct.CycleAnchorDateOfFee, ct.CycleOfFee, end, true)
		if err != nil {
			return nil, err
		}
		out = append(out, fees...)
	}
	if ct.ScaleInterest || ct.ScaleNotional {
		sc, err := Cyclic(ctx, event.SC, ct.CycleAnchorDateOfScalingIndex, ct.CycleOfScalingIndex, end, false)
		if err != nil {
			return nil, err
		}
		out = append(out, sc...)
	}
	if ct.PrepaymentEffect != "" && ct.PrepaymentEffect != terms.PrepaymentNone {
		pp, err := Cyclic(ctx, event.PP, ct.CycleAnchorDateOfOptionality, ct.CycleOfOptionality, end, false)
		if err != nil {
			return nil, err
		}
		out = append(out, pp...)
		if ct.PenaltyType != "" && ct.PenaltyType != terms.PenaltyNone {
			for _, ev := range pp {
				py := ev
				py.Type = event.PY
				out = append(out, py)
			}
		}
	}
	return out, nil
}

// Finalize applies the status, purchase and termination date cut-offs and
// orders the events.
//
// Events before the status date are dropped. With a purchase date the initial
// exchange and everything before the purchase are dropped. With a termination
// date everything after it is dropped.
func Finalize(ctx *payoff.Context, evs []event.ContractEvent) event.Schedule {
	ct := ctx.Terms
	if !ct.PurchaseDate.IsZero() {
		evs = append(evs, ctx.EventAt(event.PRD, ct.PurchaseDate))
	}
	if !ct.TerminationDate.IsZero() {
		evs = append(evs, ctx.EventAt(event.TD, ct.TerminationDate))
	}

	kept := make([]event.ContractEvent, 0, len(evs))
	for _, ev := range evs {
		switch {
		case ev.Time.Before(ct.StatusDate):
			continue
		case !ct.PurchaseDate.IsZero() && (ev.Type == event.IED || ev.Time.Before(ct.PurchaseDate)):
			continue
		case !ct.TerminationDate.IsZero() && ev.Type != event.TD && ev.Time.After(ct.TerminationDate):
			continue
		}
		kept = append(kept, ev)
	}
	return event.NewSchedule(ct.ContractID, kept)
}
