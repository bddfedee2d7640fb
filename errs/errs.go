// Package errs defines the error taxonomy shared by every lifecycle package.
//
// All errors are *Error values carrying a Kind, a message and free-form
// context (event type, event time, field name, ...). Callers match kinds with
// errors.Is against the exported sentinels:
//
//	if errors.Is(err, errs.ErrSchedule) { ... }
package errs

import (
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an error.
type Kind string

const (
	KindAttribute       Kind = "attribute"
	KindSchedule        Kind = "schedule"
	KindStateTransition Kind = "state_transition"
	KindPayoff          Kind = "payoff"
	KindObserver        Kind = "observer"
	KindConvention      Kind = "convention"
)

// Sentinels for errors.Is matching. They match any *Error of the same kind.
var (
	ErrAttribute       = &Error{Kind: KindAttribute}
	ErrSchedule        = &Error{Kind: KindSchedule}
	ErrStateTransition = &Error{Kind: KindStateTransition}
	ErrPayoff          = &Error{Kind: KindPayoff}
	ErrObserver        = &Error{Kind: KindObserver}
	ErrConvention      = &Error{Kind: KindConvention}
)

// Error is the base error of the module.
type Error struct {
	Kind    Kind
	Msg     string
	Context map[string]any
	Err     error
}

// New builds an error of the given kind. kv is a list of alternating keys and
// values added to the context; a trailing key without value is dropped.
func New(kind Kind, msg string, kv ...any) *Error {
	e := &Error{Kind: kind, Msg: msg}
	return e.with(kv)
}

// Newf is New with a formatted message and no context.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an error of the given kind around err.
func Wrap(kind Kind, err error, msg string, kv ...any) *Error {
	e := &Error{Kind: kind, Msg: msg, Err: err}
	return e.with(kv)
}

// With returns a copy of e with extra context.
func (e *Error) With(kv ...any) *Error {
	cp := *e
	cp.Context = make(map[string]any, len(e.Context)+len(kv)/2)
	for k, v := range e.Context {
		cp.Context[k] = v
	}
	return cp.with(kv)
}

func (e *Error) with(kv []any) *Error {
	if len(kv) < 2 {
		return e
	}
	if e.Context == nil {
		e.Context = make(map[string]any, len(kv)/2)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		e.Context[key] = kv[i+1]
	}
	return e
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Kind))
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%v", k, e.Context[k])
		}
		sb.WriteString(")")
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind. Sentinels carry no
// message, so any error of the kind matches them.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Msg == "" && t.Err == nil && len(t.Context) == 0 {
		return e.Kind == t.Kind
	}
	return e == t
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
