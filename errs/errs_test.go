package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/actus/errs"
)

func TestError_IsMatchesKindSentinel(t *testing.T) {
	err := errs.New(errs.KindSchedule, "malformed cycle", "cycle", "P3X")
	wrapped := fmt.Errorf("GenerateEventSchedule: %w", err)

	assert.True(t, errors.Is(wrapped, errs.ErrSchedule))
	assert.False(t, errors.Is(wrapped, errs.ErrPayoff))
	assert.Equal(t, errs.KindSchedule, errs.KindOf(wrapped))
}

func TestError_MessageIncludesSortedContext(t *testing.T) {
	err := errs.New(errs.KindPayoff, "non-finite payoff", "event_type", "IP", "event_time", "2025-01-01")
	assert.Equal(t, "payoff: non-finite payoff (event_time=2025-01-01, event_type=IP)", err.Error())
}

func TestError_WrapUnwraps(t *testing.T) {
	cause := errors.New("no data")
	err := errs.Wrap(errs.KindObserver, cause, "observe", "id", "USD/EUR")

	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, errs.ErrObserver)
	assert.Contains(t, err.Error(), "no data")
}

func TestError_WithCopiesContext(t *testing.T) {
	base := errs.New(errs.KindStateTransition, "negative notional", "notional", -1.0)
	extended := base.With("event_type", "PR")

	assert.Len(t, base.Context, 1)
	assert.Len(t, extended.Context, 2)
	assert.Equal(t, "PR", extended.Context["event_type"])
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, errs.Kind(""), errs.KindOf(errors.New("plain")))
	assert.Equal(t, errs.Kind(""), errs.KindOf(nil))
}
