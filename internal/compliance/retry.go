package compliance

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"accessgate/pkg/platform/circuit"
)

// RetryPolicy bounds the retries of one source call. The context deadline
// bounds them too.
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxElapsed      time.Duration
	MaxAttempts     int
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval: 200 * time.Millisecond,
		MaxElapsed:      10 * time.Second,
		MaxAttempts:     4,
	}
}

// Retrier gates calls to one source with a rate limiter and retries the
// retryable failures with exponential backoff. An optional breaker stops
// calling a source that keeps failing.
type Retrier struct {
	policy  RetryPolicy
	limiter *rate.Limiter
	breaker *circuit.Breaker
}

type RetrierOption func(*Retrier)

// WithBreaker trips on retryable failures only. Authoritative answers such as
// not_found count as healthy calls.
func WithBreaker(b *circuit.Breaker) RetrierOption {
	return func(r *Retrier) {
		r.breaker = b
	}
}

// NewRetrier builds a retrier. A nil limiter disables rate limiting.
func NewRetrier(policy RetryPolicy, limiter *rate.Limiter, opts ...RetrierOption) *Retrier {
	r := &Retrier{policy: policy, limiter: limiter}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Retrier) record(err error) {
	if r.breaker == nil {
		return
	}
	if err != nil && IsRetryable(err) {
		r.breaker.RecordFailure()
		return
	}
	r.breaker.RecordSuccess()
}

func (r *Retrier) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if r.policy.InitialInterval > 0 {
		exp.InitialInterval = r.policy.InitialInterval
	}
	exp.MaxElapsedTime = r.policy.MaxElapsed

	var b backoff.BackOff = exp
	if r.policy.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(r.policy.MaxAttempts-1))
	}
	return backoff.WithContext(b, ctx)
}

// Call runs fn under r. Non-retryable errors return immediately. A nil r
// calls fn once.
func Call[T any](ctx context.Context, r *Retrier, fn func(ctx context.Context) (T, error)) (T, error) {
	if r == nil {
		return fn(ctx)
	}
	op := func() (T, error) {
		if r.breaker != nil && !r.breaker.Allow() {
			var zero T
			return zero, backoff.Permanent(NewSourceError(CategoryOutage, r.breaker.Name(), "circuit open", nil))
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				var zero T
				return zero, backoff.Permanent(err)
			}
		}
		v, err := fn(ctx)
		r.record(err)
		if err != nil && !IsRetryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}
	return backoff.RetryWithData(op, r.backOff(ctx))
}
