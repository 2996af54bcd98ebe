package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type declaredError struct{ retryable bool }

func (e declaredError) Error() string     { return "declared 503" }
func (e declaredError) IsRetryable() bool { return e.retryable }

func fastConfig(maxRetries int) *Config {
	return &Config{
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.InitialDelay)
	assert.Equal(t, 5*time.Second, cfg.MaxDelay)
}

func TestGenerationConfig(t *testing.T) {
	cfg := GenerationConfig(2)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.InitialDelay)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"declared retryable", declaredError{retryable: true}, true},
		{"declared permanent overrides pattern", declaredError{retryable: false}, false},
		{"wrapped declaration", fmt.Errorf("generate: %w", declaredError{retryable: true}), true},
		{"503 pattern", errors.New("HTTP 503 from upstream"), true},
		{"rate limit", errors.New("Rate limit reached"), true},
		{"anthropic overloaded", errors.New("overloaded_error: Overloaded"), true},
		{"auth", errors.New("401 unauthorized"), false},
		{"plain", errors.New("bad request"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestDoIfRetryable_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	var retried []int
	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) { retried = append(retried, attempt) }

	err := DoIfRetryable(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return declaredError{retryable: true}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDoIfRetryable_StopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := declaredError{retryable: false}

	err := DoIfRetryable(context.Background(), fastConfig(3), func() error {
		calls++
		return permanent
	})

	assert.Equal(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func TestDoIfRetryable_Exhausted(t *testing.T) {
	calls := 0
	err := DoIfRetryable(context.Background(), fastConfig(2), func() error {
		calls++
		return errors.New("503 service unavailable")
	})

	assert.ErrorContains(t, err, "503")
	assert.Equal(t, 3, calls, "one attempt plus two retries")
}

func TestDoIfRetryable_ZeroRetries(t *testing.T) {
	calls := 0
	err := DoIfRetryable(context.Background(), fastConfig(0), func() error {
		calls++
		return errors.New("timeout")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoIfRetryable_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{MaxRetries: 5, InitialDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 1}

	calls := 0
	err := DoIfRetryable(ctx, cfg, func() error {
		calls++
		cancel()
		return errors.New("timeout")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoIfRetryableWithResult(t *testing.T) {
	calls := 0
	got, err := DoIfRetryableWithResult(context.Background(), fastConfig(2), func() (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("connection reset by peer")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestDoIfRetryable_NilConfig(t *testing.T) {
	err := DoIfRetryable(context.Background(), nil, func() error { return nil })
	assert.NoError(t, err)
}

func TestApplyJitter_Bounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := applyJitter(100*time.Millisecond, 0.1)
		assert.GreaterOrEqual(t, d, 90*time.Millisecond)
		assert.LessOrEqual(t, d, 110*time.Millisecond)
	}
	assert.Equal(t, time.Second, applyJitter(time.Second, 0))
}
