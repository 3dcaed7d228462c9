package infra_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"farm-voice/internal/infra"
)

func fastRetry() infra.RetryConfig {
	return infra.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithRetry_SucceedsAfterTransientErrors(t *testing.T) {
	calls := 0
	err := infra.WithRetry(context.Background(), fastRetry(), func() error {
		calls++
		if calls < 3 {
			return &infra.StatusError{Service: "test", StatusCode: http.StatusServiceUnavailable}
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_StopsOnPermanentStatus(t *testing.T) {
	calls := 0
	err := infra.WithRetry(context.Background(), fastRetry(), func() error {
		calls++
		return &infra.StatusError{Service: "test", StatusCode: http.StatusUnauthorized, Body: "bad key"}
	})

	var statusErr *infra.StatusError
	assert.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "test API error 401: bad key")
}

func TestWithRetry_ReturnsLastError(t *testing.T) {
	calls := 0
	boom := errors.New("connection reset")
	err := infra.WithRetry(context.Background(), fastRetry(), func() error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		calls++
		return errors.New("temporary")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsRetryableHTTPStatus(t *testing.T) {
	assert.True(t, infra.IsRetryableHTTPStatus(http.StatusTooManyRequests))
	assert.True(t, infra.IsRetryableHTTPStatus(http.StatusBadGateway))
	assert.False(t, infra.IsRetryableHTTPStatus(http.StatusBadRequest))
	assert.False(t, infra.IsRetryableHTTPStatus(http.StatusForbidden))
}
