package llm

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/cenkalti/backoff/v4"
	"google.golang.org/api/googleapi"
)

// DefaultRetryInterval is the first backoff delay.
const DefaultRetryInterval = 200 * time.Millisecond

type retrying struct {
	next       Client
	maxElapsed time.Duration
	initial    time.Duration
	logger     *slog.Logger
}

// RetryOption configures WithRetry.
type RetryOption func(*retrying)

// WithRetryLogger sets the logger used for retry notices.
func WithRetryLogger(logger *slog.Logger) RetryOption {
	return func(r *retrying) { r.logger = logger }
}

// WithInitialInterval sets the first backoff delay.
func WithInitialInterval(d time.Duration) RetryOption {
	return func(r *retrying) { r.initial = d }
}

// WithRetry wraps c so that transient failures are retried with exponential
// backoff until maxElapsed has passed or ctx ends. A single attempt is also
// limited to maxElapsed. Client errors such as a
// rejected key, and replies that do not parse, are not retried.
func WithRetry(c Client, maxElapsed time.Duration, opts ...RetryOption) Client {
	r := &retrying{next: c, maxElapsed: maxElapsed, initial: DefaultRetryInterval, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *retrying) Name() string { return r.next.Name() }

func (r *retrying) Complete(ctx context.Context, system, user string) (string, error) {
	var reply string
	op := func() error {
		attemptCtx, cancel := ctx, context.CancelFunc(func() {})
		if r.maxElapsed > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, r.maxElapsed)
		}
		defer cancel()

		out, err := r.next.Complete(attemptCtx, system, user)
		if err != nil {
			if !transient(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		reply = out
		return nil
	}

	policy := backoff.WithContext(&backoff.ExponentialBackOff{
		InitialInterval:     r.initial,
		RandomizationFactor: 0.5,
		Multiplier:          2,
		MaxInterval:         5 * time.Second,
		MaxElapsedTime:      r.maxElapsed,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}, ctx)

	err := backoff.RetryNotify(op, policy, func(err error, next time.Duration) {
		r.logger.Debug("model call failed, retrying", "model", r.next.Name(), "error", err, "next", next)
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}

// transient reports whether err is worth another attempt: rate limits,
// server errors and transport failures are; client errors, empty replies
// and cancellation are not.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrEmptyReply) || errors.Is(err, ErrInvalidReply) || errors.Is(err, ErrNoAPIKey) {
		return false
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.StatusCode)
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return retryableStatus(gErr.Code)
	}
	return true
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
