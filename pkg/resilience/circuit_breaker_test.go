package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteSuccess(t *testing.T) {
	cb := New(Settings{Name: "test", FailureThreshold: 3})

	result, err := cb.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, "closed", cb.State())
}

func TestExecutePassesThroughError(t *testing.T) {
	cb := New(Settings{Name: "test", FailureThreshold: 3})
	boom := errors.New("boom")

	_, err := cb.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, boom
	})

	assert.ErrorIs(t, err, boom)
}

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	cb := New(Settings{
		Name:             "test",
		FailureThreshold: 3,
		Timeout:          time.Minute,
	})
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)
	}

	_, err := cb.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		return "should not run", nil
	})

	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, "open", cb.State())
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := New(Settings{Name: "test", FailureThreshold: 2})
	boom := errors.New("boom")

	_, _ = cb.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, boom
	})
	_, err := cb.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)

	// One more failure should not trip the breaker after a success.
	_, err = cb.Execute(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "closed", cb.State())
}
