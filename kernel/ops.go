package kernel

import "github.com/meenmo/actus/event"

// Op indexes the dispatch table of a Program.
type Op int32

// OpNoop pads schedules to a common length; it pays nothing and keeps the state.
const (
	OpNoop Op = iota
	OpIED
	OpFP
	OpPY
	OpPP
	OpIP
	OpIPCI
	OpRRF
	OpRR
	OpPRD
	OpTD
	OpSC
	OpMD
	OpAD
	NumOps
)

var opTypes = [NumOps]event.Type{
	OpIED:  event.IED,
	OpFP:   event.FP,
	OpPY:   event.PY,
	OpPP:   event.PP,
	OpIP:   event.IP,
	OpIPCI: event.IPCI,
	OpRRF:  event.RRF,
	OpRR:   event.RR,
	OpPRD:  event.PRD,
	OpTD:   event.TD,
	OpSC:   event.SC,
	OpMD:   event.MD,
	OpAD:   event.AD,
}

// OpOf returns the op evaluating events of type t.
func OpOf(t event.Type) (Op, bool) {
	for op := OpIED; op < NumOps; op++ {
		if opTypes[op] == t {
			return op, true
		}
	}
	return OpNoop, false
}

// EventType is the event type evaluated by op; OpNoop has none.
func (op Op) EventType() (event.Type, bool) {
	if op <= OpNoop || op >= NumOps {
		return 0, false
	}
	return opTypes[op], true
}

func (op Op) String() string {
	if t, ok := op.EventType(); ok {
		return t.String()
	}
	return "NOOP"
}

// pays reports whether op can produce a nonzero payoff and so needs a settlement rate.
func (op Op) pays() bool {
	switch op {
	case OpIED, OpFP, OpPY, OpPP, OpIP, OpPRD, OpTD, OpMD:
		return true
	}
	return false
}
