package retry

import (
	"context"
	"errors"
	"net"
	"syscall"
	"testing"
	"time"

	ai "github.com/good-jinu/finance-operating-automation-sub000"
	"github.com/stretchr/testify/assert"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o deadline" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var _ net.Error = timeoutError{}

func fastConfig(attempts int) Config {
	return Config{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

func TestDoSuccess(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), DefaultConfig(), func() (string, error) {
		calls++
		return "ok", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransientErrors(t *testing.T) {
	calls := 0
	var notified []int
	got, err := DoNotify(context.Background(), fastConfig(3), func(attempt int, err error, d time.Duration) {
		notified = append(notified, attempt)
	}, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, timeoutError{}
		}
		return 7, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, notified)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	perm := ai.NewStatusError("bad key", 401, 0, nil)
	_, err := Do(context.Background(), fastConfig(5), func() (int, error) {
		calls++
		return 0, perm
	})
	assert.ErrorIs(t, err, perm)
	assert.Equal(t, 1, calls)
}

func TestDoReturnsLastErrorWhenExhausted(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastConfig(2), func() (int, error) {
		calls++
		return 0, ai.NewStatusError("busy", 503, 0, nil)
	})
	assert.Equal(t, ai.ErrorTransient, ai.CategoryOf(err))
	assert.Equal(t, 2, calls)
}

func TestDoHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := Config{MaxAttempts: 3, InitialDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 1}
	_, err := Do(ctx, cfg, func() (int, error) {
		return 0, ai.NewStatusError("busy", 503, 0, nil)
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"categorized transient", ai.NewStatusError("x", 429, 0, nil), true},
		{"categorized user input", ai.NewStatusError("x", 400, 0, nil), false},
		{"timeout", timeoutError{}, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"message pattern", errors.New("upstream: Bad Gateway"), true},
		{"plain", errors.New("invalid request"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestDelay(t *testing.T) {
	cfg := Config{InitialDelay: time.Second, MaxDelay: 5 * time.Second, Multiplier: 2}
	assert.Equal(t, time.Second, cfg.Delay(0))
	assert.Equal(t, 4*time.Second, cfg.Delay(2))
	assert.Equal(t, 5*time.Second, cfg.Delay(10))
	assert.Equal(t, time.Second, cfg.Delay(-1))
}
