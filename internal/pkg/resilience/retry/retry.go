// Package retry runs operations that may fail transiently with exponential
// backoff, on top of avast/retry-go.
//
//	r := retry.New(retry.WithAttempts(5))
//	err := r.Execute(ctx, func() error {
//	    return sink.Publish(ctx, event)
//	})
//
// Context errors returned by the operation are never retried. Every other
// failed attempt is logged at warn level unless WithOnRetry replaces the hook.
package retry

import (
	"context"
	"errors"
	"time"

	retry "github.com/avast/retry-go/v4"

	"github.com/gabapcia/blockledger/internal/pkg/logger"
)

// Retry executes an operation until it succeeds, attempts run out or the
// context is done. Operations must be safe to call more than once.
type Retry interface {
	Execute(ctx context.Context, operation func() error) error
}

// OnRetryFunc is called after each failed attempt whose error is retryable,
// the final one included. attempt starts at 1.
type OnRetryFunc func(ctx context.Context, attempt uint, err error)

type config struct {
	attempts    uint
	delay       time.Duration
	maxDelay    time.Duration
	lastErrOnly bool
	onRetry     OnRetryFunc
}

type Option func(*config)

type retrier struct {
	cfg config
}

var _ Retry = (*retrier)(nil)

// New returns a Retry with 3 attempts, a 1s base delay doubling up to 5s,
// and only the last error returned.
func New(opts ...Option) Retry {
	cfg := config{
		attempts:    3,
		delay:       1 * time.Second,
		maxDelay:    5 * time.Second,
		lastErrOnly: true,
		onRetry:     logRetry,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &retrier{
		cfg: cfg,
	}
}

func (r *retrier) Execute(ctx context.Context, operation func() error) error {
	return retry.Do(operation,
		retry.Attempts(r.cfg.attempts),
		retry.Delay(r.cfg.delay),
		retry.MaxDelay(r.cfg.maxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(r.cfg.lastErrOnly),
		retry.Context(ctx),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			if r.cfg.onRetry != nil {
				r.cfg.onRetry(ctx, n+1, err)
			}
		}),
	)
}

func isRetryable(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func logRetry(ctx context.Context, attempt uint, err error) {
	logger.Warn(ctx, "operation attempt failed", "retry.attempt", attempt, "error", err)
}

// WithAttempts sets the total number of attempts, the first one included.
func WithAttempts(n uint) Option {
	return func(c *config) {
		c.attempts = n
	}
}

// WithDelay sets the delay before the first retry. Later delays double.
func WithDelay(d time.Duration) Option {
	return func(c *config) {
		c.delay = d
	}
}

// WithMaxDelay caps the delay between attempts.
func WithMaxDelay(d time.Duration) Option {
	return func(c *config) {
		c.maxDelay = d
	}
}

// WithLastErrorOnly chooses between returning the last error (true) and the
// errors of every attempt combined (false).
func WithLastErrorOnly(b bool) Option {
	return func(c *config) {
		c.lastErrOnly = b
	}
}

// WithOnRetry replaces the hook called between attempts. nil disables it.
func WithOnRetry(f OnRetryFunc) Option {
	return func(c *config) {
		c.onRetry = f
	}
}
