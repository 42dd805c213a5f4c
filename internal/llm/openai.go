package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/priceowl/priceowl/internal/common"
	"github.com/priceowl/priceowl/internal/model"
)

// openAIClient implements the Client interface for the OpenAI API. Extraction
// uses the Responses API so the web_search tool can be attached; summaries go
// through chat completions.
type openAIClient struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
}

// newOpenAIClient creates a new OpenAI API client.
func newOpenAIClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key", common.ErrMissingConfig)
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2500
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 90 * time.Second
	}

	return &openAIClient{
		apiKey:      cfg.APIKey,
		model:       model,
		baseURL:     "https://api.openai.com",
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// Extract sends an extraction prompt through the Responses API with the
// web_search tool enabled.
func (c *openAIClient) Extract(ctx context.Context, prompt string) (Completion, error) {
	requestBody := map[string]any{
		"model": c.model,
		"input": prompt,
		"tools": []map[string]string{
			{"type": "web_search"},
		},
		"include": []string{
			"web_search_call.results",
			"web_search_call.action.sources",
		},
	}

	body, err := c.post(ctx, c.baseURL+"/v1/responses", requestBody)
	if err != nil {
		return Completion{}, err
	}

	var response openAIResponsesResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return Completion{}, fmt.Errorf("failed to parse response: %w", err)
	}

	var text strings.Builder
	var evidence []model.SearchEvidence
	for _, item := range response.Output {
		switch item.Type {
		case "output_text":
			text.WriteString(item.Text)
		case "message":
			for _, content := range item.Content {
				if content.Type == "output_text" {
					text.WriteString(content.Text)
				}
			}
		case "web_search_call":
			evidence = append(evidence, sourcesToEvidence(item.Results)...)
			if item.Action != nil {
				evidence = append(evidence, sourcesToEvidence(item.Action.Sources)...)
			}
		}
	}

	return Completion{
		Text:     strings.TrimSpace(text.String()),
		Evidence: evidence,
		Raw:      body,
	}, nil
}

// Summarize sends an analysis prompt through chat completions.
func (c *openAIClient) Summarize(ctx context.Context, prompt string) (string, error) {
	requestBody := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{
				"role":    "system",
				"content": "You are a retail pricing analyst. Respond with plain analysis text only.",
			},
			{
				"role":    "user",
				"content": prompt,
			},
		},
		"temperature": c.temperature,
		"max_tokens":  c.maxTokens,
	}

	body, err := c.post(ctx, c.baseURL+"/v1/chat/completions", requestBody)
	if err != nil {
		return "", err
	}

	var response openAIChatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	return response.Choices[0].Message.Content, nil
}

// post issues the request and classifies transport failures at this boundary:
// rate limits and timeouts are wrapped with their sentinel errors so callers
// never have to inspect message text.
func (c *openAIClient) post(ctx context.Context, url string, requestBody map[string]any) ([]byte, error) {
	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(jsonBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: OpenAI API (status 429): %s", common.ErrRateLimit, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAI API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// classifyTransportError maps client-side transport failures onto the error
// taxonomy.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", common.ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", common.ErrTimeout, err)
	}
	return fmt.Errorf("request failed: %w", err)
}

func sourcesToEvidence(sources []openAISource) []model.SearchEvidence {
	evidence := make([]model.SearchEvidence, 0, len(sources))
	for _, s := range sources {
		url := s.URL
		if url == "" {
			url = s.Link
		}
		evidence = append(evidence, model.SearchEvidence{
			URL:        url,
			Title:      s.Title,
			HTTPStatus: s.HTTPStatus,
		})
	}
	return evidence
}

// openAIResponsesResponse is the subset of the Responses API payload we read.
type openAIResponsesResponse struct {
	ID     string `json:"id"`
	Model  string `json:"model"`
	Output []struct {
		Type    string `json:"type"`
		Text    string `json:"text,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content,omitempty"`
		Results []openAISource `json:"results,omitempty"`
		Action  *struct {
			Sources []openAISource `json:"sources"`
		} `json:"action,omitempty"`
	} `json:"output"`
}

// openAISource tolerates the field-name drift the Responses API has shown for
// search citations.
type openAISource struct {
	URL        string `json:"url"`
	Link       string `json:"link"`
	Title      string `json:"title"`
	HTTPStatus int    `json:"http_status"`
}

// openAIChatResponse represents the chat completions response structure.
type openAIChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
		Index        int    `json:"index"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}
