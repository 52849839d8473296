// Package retry provides the bounded retry combinator shared by every
// call site that decodes language model output: agent responses, ballots
// and generated personas.
//
// An attempt either succeeds, fails with an error that is worth another
// attempt, or fails permanently (see Permanent). When the budget is spent
// Do returns an *ExhaustedError carrying the last failure.
package retry

import (
	"context"
	"errors"
	"fmt"
)

// DefaultAttempts is the attempt budget used when a caller passes zero.
const DefaultAttempts = 10

// ErrExhausted matches every *ExhaustedError via errors.Is.
var ErrExhausted = errors.New("retry budget exhausted")

// Func is a single attempt. attempt starts at 1.
type Func[T any] func(ctx context.Context, attempt int) (T, error)

// ExhaustedError reports that every attempt failed.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Last)
}

// Unwrap exposes the last attempt's error.
func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Is makes errors.Is(err, ErrExhausted) true for exhausted retries.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Do stops immediately and
// returns err itself (unwrapped from the marker).
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type options struct {
	onFailure func(attempt int, err error)
}

// Option configures Do.
type Option func(*options)

// WithOnFailure registers a hook called after every retryable failure.
func WithOnFailure(fn func(attempt int, err error)) Option {
	return func(o *options) {
		o.onFailure = fn
	}
}

// Do runs fn until it succeeds, fails permanently, the context is done, or
// attempts are exhausted. Attempts run synchronously with no backoff; the
// latency of a model call is the natural spacing.
func Do[T any](ctx context.Context, attempts int, fn Func[T], opts ...Option) (T, error) {
	var zero T
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		value, err := fn(ctx, attempt)
		if err == nil {
			return value, nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}

		last = err
		if o.onFailure != nil {
			o.onFailure(attempt, err)
		}
	}

	return zero, &ExhaustedError{Attempts: attempts, Last: last}
}
