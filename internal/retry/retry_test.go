package retry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsAfterFailures(t *testing.T) {
	var failures []int
	value, err := Do(context.Background(), 5, func(ctx context.Context, attempt int) (string, error) {
		if attempt < 3 {
			return "", errors.New("malformed")
		}
		return "ok", nil
	}, WithOnFailure(func(attempt int, err error) {
		failures = append(failures, attempt)
	}))

	require.NoError(t, err)
	assert.Equal(t, "ok", value)
	assert.Equal(t, []int{1, 2}, failures)
}

func TestDo_Exhausted(t *testing.T) {
	calls := 0
	last := errors.New("still malformed")
	_, err := Do(context.Background(), 10, func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, last
	})

	require.Error(t, err)
	assert.Equal(t, 10, calls)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, err, last)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 10, exhausted.Attempts)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	transport := errors.New("connection refused")
	calls := 0
	_, err := Do(context.Background(), 10, func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, Permanent(transport)
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, transport, err)
	assert.NotErrorIs(t, err, ErrExhausted)
}

func TestDo_DefaultBudget(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), 0, func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, errors.New("nope")
	})

	assert.Error(t, err)
	assert.Equal(t, DefaultAttempts, calls)
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(ctx, 3, func(ctx context.Context, attempt int) (int, error) {
		t.Fatal("attempt must not run on a canceled context")
		return 0, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPermanent_Nil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}
