// Package state holds the immutable contract state threaded through a simulation.
package state

import (
	"log/slog"
	"math"
	"time"

	"github.com/meenmo/actus/errs"
	"github.com/meenmo/actus/utils"
)

// Performance is the contract performance status.
type Performance string

const (
	Performant Performance = "PF"
	Delayed    Performance = "DL"
	Delinquent Performance = "DQ"
	Default    Performance = "DF"
)

// ContractState is a snapshot of a contract's state variables. It is a value
// type: every With method returns a modified copy and leaves the receiver
// untouched. Optional variables are nil when the contract type does not use
// them; their pointees are never written after construction.
type ContractState struct {
	StatusDate      time.Time   `json:"status_date"`
	AccrualDate     time.Time   `json:"accrual_date,omitzero"` // zero when equal to StatusDate
	MaturityDate    time.Time   `json:"maturity_date"`
	Notional        float64     `json:"notional"` // carries the role sign
	NominalRate     float64     `json:"nominal_rate"`
	AccruedInterest float64     `json:"accrued_interest"`
	FeeAccrued      float64     `json:"fee_accrued"`
	NotionalScaling float64     `json:"notional_scaling"`
	InterestScaling float64     `json:"interest_scaling"`
	Performance     Performance `json:"performance"`

	AccruedInterest2        *float64   `json:"accrued_interest_2,omitempty"`
	NextPrincipalRedemption *float64   `json:"next_principal_redemption,omitempty"`
	InterestCalculationBase *float64   `json:"interest_calculation_base,omitempty"`
	ExerciseDate            *time.Time `json:"exercise_date,omitempty"`
	ExerciseAmount          *float64   `json:"exercise_amount,omitempty"`
}

// New returns the neutral state at statusDate: zero balances, unit scaling, performant.
func New(statusDate, maturity time.Time) ContractState {
	return ContractState{
		StatusDate:      statusDate,
		MaturityDate:    maturity,
		NotionalScaling: 1,
		InterestScaling: 1,
		Performance:     Performant,
	}
}

// Float returns a pointer to v for optional state variables.
func Float(v float64) *float64 { return &v }

func (s ContractState) WithStatusDate(t time.Time) ContractState {
	s.StatusDate = t
	s.AccrualDate = time.Time{}
	return s
}

// WithDates sets the status date and the date accruals run from. The two
// differ when an event is calculated on an unshifted date but settles on a
// business day.
func (s ContractState) WithDates(status, accrual time.Time) ContractState {
	s.StatusDate = status
	s.AccrualDate = time.Time{}
	if !accrual.IsZero() && !accrual.Equal(status) {
		s.AccrualDate = accrual
	}
	return s
}

// AccrualStart is the date interest and fees have been accrued up to.
func (s ContractState) AccrualStart() time.Time {
	if s.AccrualDate.IsZero() {
		return s.StatusDate
	}
	return s.AccrualDate
}

func (s ContractState) WithMaturityDate(t time.Time) ContractState {
	s.MaturityDate = t
	return s
}

func (s ContractState) WithNotional(v float64) ContractState {
	s.Notional = v
	return s
}

func (s ContractState) WithNominalRate(v float64) ContractState {
	s.NominalRate = v
	return s
}

func (s ContractState) WithAccruedInterest(v float64) ContractState {
	s.AccruedInterest = v
	return s
}

func (s ContractState) WithFeeAccrued(v float64) ContractState {
	s.FeeAccrued = v
	return s
}

// WithScaling sets the notional and interest scaling multipliers.
func (s ContractState) WithScaling(notional, interest float64) ContractState {
	s.NotionalScaling = notional
	s.InterestScaling = interest
	return s
}

func (s ContractState) WithPerformance(p Performance) ContractState {
	s.Performance = p
	return s
}

func (s ContractState) WithAccruedInterest2(v float64) ContractState {
	s.AccruedInterest2 = Float(v)
	return s
}

func (s ContractState) WithNextPrincipalRedemption(v float64) ContractState {
	s.NextPrincipalRedemption = Float(v)
	return s
}

func (s ContractState) WithInterestCalculationBase(v float64) ContractState {
	s.InterestCalculationBase = Float(v)
	return s
}

// WithExercise records an exercise date and amount.
func (s ContractState) WithExercise(t time.Time, amount float64) ContractState {
	s.ExerciseDate = &t
	s.ExerciseAmount = Float(amount)
	return s
}

// InterestBase returns the interest calculation base if set, otherwise the notional.
func (s ContractState) InterestBase() float64 {
	if s.InterestCalculationBase != nil {
		return *s.InterestCalculationBase
	}
	return s.Notional
}

// Equal compares two states: dates and performance exactly, numeric fields
// within tol. Optional fields must agree on presence.
func (s ContractState) Equal(o ContractState, tol float64) bool {
	if !s.StatusDate.Equal(o.StatusDate) || !s.AccrualStart().Equal(o.AccrualStart()) ||
		!s.MaturityDate.Equal(o.MaturityDate) || s.Performance != o.Performance {
		return false
	}
	pairs := [][2]float64{
		{s.Notional, o.Notional},
		{s.NominalRate, o.NominalRate},
		{s.AccruedInterest, o.AccruedInterest},
		{s.FeeAccrued, o.FeeAccrued},
		{s.NotionalScaling, o.NotionalScaling},
		{s.InterestScaling, o.InterestScaling},
	}
	for _, p := range pairs {
		if math.Abs(p[0]-p[1]) > tol {
			return false
		}
	}
	for _, p := range [][2]*float64{
		{s.AccruedInterest2, o.AccruedInterest2},
		{s.NextPrincipalRedemption, o.NextPrincipalRedemption},
		{s.InterestCalculationBase, o.InterestCalculationBase},
		{s.ExerciseAmount, o.ExerciseAmount},
	} {
		if !optionalEqual(p[0], p[1], tol) {
			return false
		}
	}
	switch {
	case s.ExerciseDate == nil && o.ExerciseDate == nil:
		return true
	case s.ExerciseDate == nil || o.ExerciseDate == nil:
		return false
	}
	return s.ExerciseDate.Equal(*o.ExerciseDate)
}

func optionalEqual(a, b *float64, tol float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return math.Abs(*a-*b) <= tol
}

// ValidateTransition checks the invariants every transition must keep: the
// status date never moves backwards, the role-adjusted notional is never
// negative and both scaling multipliers stay strictly positive.
func ValidateTransition(pre, post ContractState, roleSign, tol float64) error {
	if post.StatusDate.Before(pre.StatusDate) {
		return errs.New(errs.KindStateTransition, "status date moved backwards",
			"pre_status_date", pre.StatusDate.Format(utils.DateLayout),
			"post_status_date", post.StatusDate.Format(utils.DateLayout))
	}
	if roleSign*post.Notional < -tol {
		return errs.New(errs.KindStateTransition, "negative role-adjusted notional", "notional", post.Notional)
	}
	if post.NotionalScaling <= 0 || post.InterestScaling <= 0 {
		return errs.New(errs.KindStateTransition, "scaling multiplier must be positive",
			"notional_scaling", post.NotionalScaling, "interest_scaling", post.InterestScaling)
	}
	for name, v := range map[string]float64{
		"notional":         post.Notional,
		"nominal_rate":     post.NominalRate,
		"accrued_interest": post.AccruedInterest,
		"fee_accrued":      post.FeeAccrued,
	} {
		if !utils.IsFinite(v) {
			return errs.New(errs.KindStateTransition, "non-finite state variable", "field", name)
		}
	}
	return nil
}

// LogValue renders the state compactly in structured logs.
func (s ContractState) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("status_date", s.StatusDate.Format(utils.DateLayout)),
		slog.Float64("notional", s.Notional),
		slog.Float64("nominal_rate", s.NominalRate),
		slog.Float64("accrued_interest", s.AccruedInterest),
		slog.String("performance", string(s.Performance)),
	)
}
