package extract

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priceowl/priceowl/internal/common"
	"github.com/priceowl/priceowl/internal/llm"
)

// mockProvider scripts provider outcomes per attempt.
type mockProvider struct {
	responses []mockResponse
	calls     int
}

type mockResponse struct {
	err  error
	text string
}

func (m *mockProvider) Extract(_ context.Context, _ string) (llm.Completion, error) {
	idx := m.calls
	m.calls++
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	r := m.responses[idx]
	return llm.Completion{Text: r.text}, r.err
}

func (m *mockProvider) Summarize(_ context.Context, _ string) (string, error) {
	return "", errors.New("not implemented")
}

func newTestClient(provider llm.Client) *Client {
	return NewClient(provider, Config{
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
		RateLimit:  600,
	}, nil)
}

func TestSendEmptyPrompt(t *testing.T) {
	client := newTestClient(&mockProvider{responses: []mockResponse{{text: "{}"}}})
	defer client.Close()

	_, err := client.Send(context.Background(), "   ")
	require.Error(t, err)
}

func TestSendSuccessFirstAttempt(t *testing.T) {
	provider := &mockProvider{responses: []mockResponse{{text: `{"results": []}`}}}
	client := newTestClient(provider)
	defer client.Close()

	result, err := client.Send(context.Background(), "find prices")
	require.NoError(t, err)
	assert.Equal(t, `{"results": []}`, result.Text)
	assert.Equal(t, 1, provider.calls)
}

func TestSendRecoversAfterTransientFailure(t *testing.T) {
	provider := &mockProvider{responses: []mockResponse{
		{err: fmt.Errorf("transient: %w", common.ErrTimeout)},
		{text: `{"results": []}`},
	}}
	client := newTestClient(provider)
	defer client.Close()

	result, err := client.Send(context.Background(), "find prices")
	require.NoError(t, err)
	assert.Equal(t, `{"results": []}`, result.Text)
	assert.Equal(t, 2, provider.calls)
}

func TestSendExhaustsRetriesAndClassifies(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind common.ProviderErrorKind
	}{
		{
			name:     "timeout",
			err:      fmt.Errorf("call: %w", common.ErrTimeout),
			wantKind: common.ProviderTimeout,
		},
		{
			name:     "rate limited",
			err:      fmt.Errorf("call: %w", common.ErrRateLimit),
			wantKind: common.ProviderRateLimited,
		},
		{
			name:     "unknown",
			err:      errors.New("connection reset"),
			wantKind: common.ProviderUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &mockProvider{responses: []mockResponse{{err: tt.err}}}
			client := newTestClient(provider)
			defer client.Close()

			_, err := client.Send(context.Background(), "find prices")
			require.Error(t, err)

			// The retry budget is exactly three sequential attempts.
			assert.Equal(t, 3, provider.calls)

			var provErr *common.ProviderError
			require.ErrorAs(t, err, &provErr)
			assert.Equal(t, tt.wantKind, provErr.Kind)
		})
	}
}

func TestSendEmptyCompletionIsRetried(t *testing.T) {
	provider := &mockProvider{responses: []mockResponse{
		{text: "   "},
		{text: `{"results": []}`},
	}}
	client := newTestClient(provider)
	defer client.Close()

	result, err := client.Send(context.Background(), "find prices")
	require.NoError(t, err)
	assert.Equal(t, `{"results": []}`, result.Text)
	assert.Equal(t, 2, provider.calls)
}

func TestSendEmptyCompletionExhaustsAsUnknown(t *testing.T) {
	provider := &mockProvider{responses: []mockResponse{{text: ""}}}
	client := newTestClient(provider)
	defer client.Close()

	_, err := client.Send(context.Background(), "find prices")
	require.Error(t, err)
	assert.Equal(t, 3, provider.calls)

	var provErr *common.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, common.ProviderUnknown, provErr.Kind)
}

func TestSendHonorsContextCancellation(t *testing.T) {
	provider := &mockProvider{responses: []mockResponse{
		{err: errors.New("flaky")},
	}}
	client := NewClient(provider, Config{
		MaxRetries: 3,
		RetryDelay: time.Minute,
		RateLimit:  600,
	}, nil)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Send(ctx, "find prices")
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	// The backoff wait was interrupted before a second attempt.
	assert.Equal(t, 1, provider.calls)
}
