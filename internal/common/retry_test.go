package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearBackoff(t *testing.T) {
	backoff := LinearBackoff(1200 * time.Millisecond)

	assert.Equal(t, 1200*time.Millisecond, backoff(1))
	assert.Equal(t, 2400*time.Millisecond, backoff(2))
	assert.Equal(t, 3600*time.Millisecond, backoff(3))
}

func TestNewRetryPolicyDefaults(t *testing.T) {
	policy := NewRetryPolicy(0, 0)

	assert.Equal(t, 3, policy.MaxAttempts)
	assert.Equal(t, 1200*time.Millisecond, policy.Backoff(1))
}

func TestNewRetryPolicyCustom(t *testing.T) {
	policy := NewRetryPolicy(5, 100*time.Millisecond)

	assert.Equal(t, 5, policy.MaxAttempts)
	assert.Equal(t, 300*time.Millisecond, policy.Backoff(3))
}

func TestWaitCompletes(t *testing.T) {
	policy := NewRetryPolicy(3, time.Millisecond)

	err := policy.Wait(context.Background(), 1)
	require.NoError(t, err)
}

func TestWaitCanceled(t *testing.T) {
	policy := NewRetryPolicy(3, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := policy.Wait(ctx, 1)
	require.ErrorIs(t, err, context.Canceled)
}
