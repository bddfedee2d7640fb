package engine

import (
	"time"

	"github.com/meenmo/actus/event"
	"github.com/meenmo/actus/state"
)

// History is the result of one simulation.
type History struct {
	ContractID string
	Events     []event.ContractEvent
	Initial    state.ContractState
	Final      state.ContractState
	// Unhandled lists event types evaluated as no-ops, in first-seen order.
	Unhandled []event.Type
}

// Schedule returns the evaluated events as a schedule.
func (h *History) Schedule() event.Schedule {
	return event.NewSchedule(h.ContractID, h.Events)
}

// TotalPayoff sums every payoff.
func (h *History) TotalPayoff() float64 {
	var sum float64
	for _, ev := range h.Events {
		sum += ev.Payoff
	}
	return sum
}

// PayoffByType sums payoffs per event type.
func (h *History) PayoffByType() map[event.Type]float64 {
	out := make(map[event.Type]float64)
	for _, ev := range h.Events {
		out[ev.Type] += ev.Payoff
	}
	return out
}

// StateAt returns the post-event state of the last event on or before t, or
// the initial state if there is none.
func (h *History) StateAt(t time.Time) state.ContractState {
	s := h.Initial
	for _, ev := range h.Events {
		if ev.Time.After(t) {
			break
		}
		if ev.StatePost != nil {
			s = *ev.StatePost
		}
	}
	return s
}
