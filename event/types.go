package event

import (
	"fmt"
	"strings"

	"github.com/meenmo/actus/errs"
)

// Type is a contract event type. The numeric value is the same-instant
// priority: lower values are processed first.
type Type int

const (
	IED  Type = iota + 1 // initial exchange
	FP                   // fee payment
	PR                   // principal redemption
	PD                   // principal drawing
	PRF                  // principal payment amount fixing
	PY                   // penalty payment
	PP                   // principal prepayment
	IP                   // interest payment
	IPCI                 // interest capitalization
	CE                   // credit event
	RRF                  // rate reset, fixed
	RR                   // rate reset, variable
	DV                   // dividend
	PRD                  // purchase
	MR                   // margin call
	TD                   // termination
	SC                   // scaling index fixing
	IPCB                 // interest calculation base fixing
	MD                   // maturity
	XD                   // exercise
	STD                  // settlement
	AD                   // analysis date
)

// Types lists every event type in priority order.
var Types = []Type{IED, FP, PR, PD, PRF, PY, PP, IP, IPCI, CE, RRF, RR, DV, PRD, MR, TD, SC, IPCB, MD, XD, STD, AD}

var typeNames = [...]string{
	IED: "IED", FP: "FP", PR: "PR", PD: "PD", PRF: "PRF", PY: "PY", PP: "PP", IP: "IP",
	IPCI: "IPCI", CE: "CE", RRF: "RRF", RR: "RR", DV: "DV", PRD: "PRD", MR: "MR", TD: "TD",
	SC: "SC", IPCB: "IPCB", MD: "MD", XD: "XD", STD: "STD", AD: "AD",
}

// Priority is the processing order of events falling on the same instant.
func (t Type) Priority() int { return int(t) }

// Valid reports whether t is one of the defined event types.
func (t Type) Valid() bool { return t >= IED && t <= AD }

func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// ParseType parses an event type code such as "IP".
func ParseType(s string) (Type, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	for _, t := range Types {
		if typeNames[t] == code {
			return t, nil
		}
	}
	return 0, errs.New(errs.KindAttribute, fmt.Sprintf("unknown event type %q", s), "event_type", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("MarshalText: invalid event type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
