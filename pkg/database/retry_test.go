package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/pkg/logger"
)

var fastRetry = RetryPolicy{Attempts: 3, BaseWait: time.Millisecond}

func TestRetryPolicy_BackoffWithinJitter(t *testing.T) {
	p := DefaultRetryPolicy
	for attempt := 0; attempt < 3; attempt++ {
		base := p.BaseWait << attempt
		lo := time.Duration(float64(base) * (1 - retryJitterFraction))
		hi := time.Duration(float64(base) * (1 + retryJitterFraction))
		for i := 0; i < 20; i++ {
			d := p.backoff(attempt)
			assert.GreaterOrEqual(t, d, lo)
			assert.LessOrEqual(t, d, hi)
		}
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := retry(context.Background(), fastRetry, logger.Discard(), "connect", nil, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("dial tcp: connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_GivesUp(t *testing.T) {
	calls := 0
	err := retry(context.Background(), fastRetry, nil, "connect", nil, func(context.Context) error {
		calls++
		return errors.New("dial tcp: connection refused")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "connect after 3 attempts")
}

func TestRetry_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	syntaxErr := errors.New("syntax error at or near SELEC")
	err := retry(context.Background(), fastRetry, nil, "migrate", isConnectionError, func(context.Context) error {
		calls++
		return syntaxErr
	})

	assert.ErrorIs(t, err, syntaxErr)
	assert.Equal(t, 1, calls)
}

func TestRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	slow := RetryPolicy{Attempts: 3, BaseWait: time.Hour}

	err := retry(ctx, slow, nil, "connect", nil, func(context.Context) error {
		cancel()
		return errors.New("connection refused")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsConnectionError(t *testing.T) {
	tests := map[string]bool{
		"dial tcp 127.0.0.1:5432: connect: connection refused": true,
		"read: connection reset by peer":                       true,
		"unexpected EOF":                                       true,
		"i/o timeout":                                          true,
		`ERROR: relation "products" does not exist`:            false,
		"duplicate key value violates unique constraint":       false,
	}
	for msg, want := range tests {
		assert.Equal(t, want, isConnectionError(errors.New(msg)), msg)
	}
	assert.False(t, isConnectionError(nil))
}
