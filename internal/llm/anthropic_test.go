package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priceowl/priceowl/internal/common"
)

func newTestAnthropicClient(t *testing.T, handler http.HandlerFunc) *anthropicClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := newAnthropicClient(Config{APIKey: "test-key"})
	require.NoError(t, err)

	ac, ok := client.(*anthropicClient)
	require.True(t, ok)
	ac.baseURL = server.URL
	return ac
}

func TestNewAnthropicClientMissingKey(t *testing.T) {
	_, err := newAnthropicClient(Config{})
	require.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestAnthropicExtract(t *testing.T) {
	client := newTestAnthropicClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"content": [
				{
					"type": "web_search_tool_result",
					"content": [{"type": "web_search_result", "url": "https://carulla.com/leche", "title": "Leche"}]
				},
				{"type": "text", "text": "{\"results\": []}"}
			]
		}`))
	})

	completion, err := client.Extract(context.Background(), "find prices")
	require.NoError(t, err)
	assert.Equal(t, `{"results": []}`, completion.Text)
	require.Len(t, completion.Evidence, 1)
	assert.Equal(t, "https://carulla.com/leche", completion.Evidence[0].URL)
}

func TestAnthropicExtractRateLimited(t *testing.T) {
	client := newTestAnthropicClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"type": "rate_limit_error"}}`))
	})

	_, err := client.Extract(context.Background(), "find prices")
	require.ErrorIs(t, err, common.ErrRateLimit)
}

func TestAnthropicSummarize(t *testing.T) {
	client := newTestAnthropicClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"content": [{"type": "text", "text": "Prices are stable."}]
		}`))
	})

	analysis, err := client.Summarize(context.Background(), "analyze")
	require.NoError(t, err)
	assert.Equal(t, "Prices are stable.", analysis)
}

func TestAnthropicSummarizeEmptyContent(t *testing.T) {
	client := newTestAnthropicClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id": "msg_1", "content": []}`))
	})

	_, err := client.Summarize(context.Background(), "analyze")
	require.Error(t, err)
}
