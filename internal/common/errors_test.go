package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderError(t *testing.T) {
	cause := fmt.Errorf("api call: %w", ErrRateLimit)
	err := &ProviderError{Kind: ProviderRateLimited, Err: cause}

	assert.Contains(t, err.Error(), "rate_limited")
	require.ErrorIs(t, err, ErrRateLimit)
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("price", "must be positive")

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "price", vErr.Field)
	assert.Contains(t, err.Error(), "price")
}

func TestUserErrorUnwrap(t *testing.T) {
	cause := errors.New("json: unexpected token")
	err := NewUserError("could not process provider response", cause)

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "could not process provider response")
}

func TestFormatUserError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "user error surfaces its message",
			err:  NewUserError("something went wrong", errors.New("internal detail")),
			want: "something went wrong",
		},
		{
			name: "wrapped user error is still found",
			err:  fmt.Errorf("search: %w", NewUserError("try again later", nil)),
			want: "try again later",
		},
		{
			name: "plain error falls through",
			err:  errors.New("disk full"),
			want: "disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatUserError(tt.err))
		})
	}
}
