package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/alphabeta/chapter-portal/internal/core/domain"
)

// RetryPolicy bounds calls to the identity provider. Each attempt gets its
// own AttemptTimeout; delays grow by Multiplier between attempts.
type RetryPolicy struct {
	MaxAttempts    int
	Delay          time.Duration
	Multiplier     float64
	AttemptTimeout time.Duration
}

// DefaultRetryPolicy gives three attempts of at most 4s each.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		Delay:          200 * time.Millisecond,
		Multiplier:     2,
		AttemptTimeout: 4 * time.Second,
	}
}

// permanent errors are answers, not failures; retrying cannot change them.
func permanent(err error) bool {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInactiveAccount),
		errors.Is(err, domain.ErrNoSession),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, context.Canceled):
		return true
	}
	return false
}

// retry runs fn under p. onRetry, when set, is called before every repeat.
func retry[T any](ctx context.Context, p RetryPolicy, log zerolog.Logger, onRetry func(), fn func(context.Context) (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := p.Delay

	var zero T
	var err error
	for attempt := 1; ; attempt++ {
		var v T
		v, err = attemptOnce(ctx, p.AttemptTimeout, fn)
		if err == nil {
			return v, nil
		}
		if permanent(err) || attempt >= attempts || ctx.Err() != nil {
			return zero, err
		}

		log.Debug().Err(err).Int("attempt", attempt).Dur("backoff", delay).Msg("retrying identity call")
		if onRetry != nil {
			onRetry()
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, ctx.Err()
		case <-t.C:
		}
		if p.Multiplier > 1 {
			delay = time.Duration(float64(delay) * p.Multiplier)
		}
	}
}

func attemptOnce[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(actx)
}
