package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net"
	"strings"
	"time"
)

// Kind classifies a provider failure for retry dispatch
type Kind int

const (
	KindPermanent Kind = iota
	KindTransient
	KindRateLimited
	KindTimeout
)

// KindError wraps a provider error with its failure kind so the retry policy
// can dispatch on type instead of sniffing message text.
type KindError struct {
	Kind Kind
	Err  error
}

func (e *KindError) Error() string {
	return e.Err.Error()
}

func (e *KindError) Unwrap() error {
	return e.Err
}

// RateLimited marks err as a provider rate limit
func RateLimited(err error) error {
	return &KindError{Kind: KindRateLimited, Err: err}
}

// Timeout marks err as a timeout
func Timeout(err error) error {
	return &KindError{Kind: KindTimeout, Err: err}
}

// Transient marks err as a transient provider failure (5xx and the like)
func Transient(err error) error {
	return &KindError{Kind: KindTransient, Err: err}
}

// Permanent marks err as not worth retrying (bad input, auth failure)
func Permanent(err error) error {
	return &KindError{Kind: KindPermanent, Err: err}
}

// retryableFragments is the last-resort fallback for opaque third-party
// errors that were never wrapped with a Kind.
var retryableFragments = []string{"rate", "timeout", "temporarily", "overloaded"}

// IsRetryable reports whether err should trigger another attempt. Structured
// kinds win; unwrapped errors fall back to net timeout checks and message
// fragment matching.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Kind != KindPermanent
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, frag := range retryableFragments {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 1 * time.Second
	DefaultMaxDelay    = 60 * time.Second

	jitterFraction = 0.2
)

// Policy configures Do. The zero value is usable: 3 attempts, 1s base delay,
// 60s cap, IsRetryable check.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	RetryCheck  func(error) bool
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	if p.RetryCheck == nil {
		p.RetryCheck = IsRetryable
	}
	return p
}

// Delay computes the backoff before the attempt that follows the given
// zero-based attempt: min(base * 2^attempt, max) plus symmetric jitter of
// +/-20%, floored at zero.
func (p Policy) Delay(attempt int) time.Duration {
	p = p.withDefaults()
	delay := float64(p.BaseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	jitter := delay * jitterFraction * (2*rand.Float64() - 1)
	delay += jitter
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// Do runs factory until it succeeds or attempts are exhausted. The factory is
// invoked fresh on every attempt; the underlying operation is never assumed
// safe to replay from a stale invocation. Non-retryable errors short-circuit.
// The last error is returned after exhaustion.
func Do[T any](ctx context.Context, policy Policy, factory func(ctx context.Context) (T, error)) (T, error) {
	policy = policy.withDefaults()

	var zero T
	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		result, err := factory(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt == policy.MaxAttempts-1 || !policy.RetryCheck(err) {
			return zero, err
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(policy.Delay(attempt)):
		}
	}
	return zero, lastErr
}
