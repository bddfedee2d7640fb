package event

import (
	"sort"
	"time"
)

// Schedule is an ordered, immutable sequence of events for one contract.
// Every operation returns a new schedule; sequences are always dense (0..n-1)
// and follow the processing order.
type Schedule struct {
	contractID string
	events     []ContractEvent
}

// NewSchedule sorts events by time and priority. Events equal on both keep
// their order in the input.
func NewSchedule(contractID string, events []ContractEvent) Schedule {
	evs := make([]ContractEvent, len(events))
	copy(evs, events)
	sort.SliceStable(evs, func(i, j int) bool {
		if !evs[i].Time.Equal(evs[j].Time) {
			return evs[i].Time.Before(evs[j].Time)
		}
		return evs[i].Type.Priority() < evs[j].Type.Priority()
	})
	for i := range evs {
		evs[i].Sequence = i
	}
	return Schedule{contractID: contractID, events: evs}
}

func (s Schedule) ContractID() string { return s.contractID }

func (s Schedule) Len() int { return len(s.events) }

// At returns the i-th event.
func (s Schedule) At(i int) ContractEvent { return s.events[i] }

// Events returns a copy of the events in processing order.
func (s Schedule) Events() []ContractEvent {
	out := make([]ContractEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Filter keeps the events for which keep returns true.
func (s Schedule) Filter(keep func(ContractEvent) bool) Schedule {
	var out []ContractEvent
	for _, e := range s.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return NewSchedule(s.contractID, out)
}

// FilterTypes keeps events of the given types.
func (s Schedule) FilterTypes(types ...Type) Schedule {
	want := make(map[Type]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	return s.Filter(func(e ContractEvent) bool { return want[e.Type] })
}

// Add returns a schedule with extra events. Added events go after existing
// events of equal time and type.
func (s Schedule) Add(events ...ContractEvent) Schedule {
	all := make([]ContractEvent, 0, len(s.events)+len(events))
	all = append(all, s.events...)
	all = append(all, events...)
	return NewSchedule(s.contractID, all)
}

// Merge combines two schedules, keeping s's contract id.
func (s Schedule) Merge(o Schedule) Schedule {
	return s.Add(o.events...)
}

// Between keeps events with from <= Time <= to.
func (s Schedule) Between(from, to time.Time) Schedule {
	return s.Filter(func(e ContractEvent) bool {
		return !e.Time.Before(from) && !e.Time.After(to)
	})
}

// Types returns the distinct event types present, in priority order.
func (s Schedule) Types() []Type {
	seen := make(map[Type]bool)
	for _, e := range s.events {
		seen[e.Type] = true
	}
	var out []Type
	for _, t := range Types {
		if seen[t] {
			out = append(out, t)
		}
	}
	return out
}
