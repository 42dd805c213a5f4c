// Package extract turns prompts into validated price records: it drives the
// provider call with retry discipline, repairs the noisy response into JSON,
// and normalizes parsed items into domain records.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/priceowl/priceowl/internal/common"
	"github.com/priceowl/priceowl/internal/llm"
	"github.com/priceowl/priceowl/internal/model"
)

var errEmptyCompletion = errors.New("provider returned empty output")

// Config holds the retry and rate-limit settings for the extraction client.
type Config struct {
	MaxRetries int
	RetryDelay time.Duration
	RateLimit  int
}

// Client sends extraction prompts to the LLM provider with bounded retries.
// Attempts are strictly sequential: each failure is classified before the
// next action is decided.
type Client struct {
	provider llm.Client
	limiter  *llm.RateLimiter
	policy   common.RetryPolicy
	logger   *slog.Logger
}

// NewClient creates an extraction client around an LLM provider.
func NewClient(provider llm.Client, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		provider: provider,
		limiter:  llm.NewRateLimiter(cfg.RateLimit),
		policy:   common.NewRetryPolicy(cfg.MaxRetries, cfg.RetryDelay),
		logger:   logger,
	}
}

// Send runs the prompt against the provider. On the final failed attempt the
// error is classified into a ProviderError kind; rate limits and timeouts keep
// their own kinds, anything else surfaces as unknown.
func (c *Client) Send(ctx context.Context, promptText string) (model.ExtractionResult, error) {
	if strings.TrimSpace(promptText) == "" {
		return model.ExtractionResult{}, fmt.Errorf("prompt must not be empty")
	}

	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return model.ExtractionResult{}, err
		}

		start := time.Now()
		completion, err := c.provider.Extract(ctx, promptText)
		if err == nil && strings.TrimSpace(completion.Text) == "" {
			err = errEmptyCompletion
		}

		if err == nil {
			c.logger.Info("provider response received",
				"attempt", attempt,
				"duration", time.Since(start),
				"evidence_count", len(completion.Evidence))
			return model.ExtractionResult{
				Text:     completion.Text,
				Evidence: completion.Evidence,
				Raw:      completion.Raw,
			}, nil
		}

		lastErr = err
		c.logger.Warn("provider attempt failed",
			"attempt", attempt,
			"max_attempts", c.policy.MaxAttempts,
			"error", err)

		if attempt == c.policy.MaxAttempts {
			break
		}

		if waitErr := c.policy.Wait(ctx, attempt); waitErr != nil {
			return model.ExtractionResult{}, waitErr
		}
	}

	return model.ExtractionResult{}, classifyTerminal(lastErr)
}

// classifyTerminal maps the final attempt's failure onto the ProviderError
// taxonomy using the sentinels set at the adapter boundary.
func classifyTerminal(err error) error {
	kind := common.ProviderUnknown
	switch {
	case errors.Is(err, common.ErrRateLimit):
		kind = common.ProviderRateLimited
	case errors.Is(err, common.ErrTimeout):
		kind = common.ProviderTimeout
	}
	return &common.ProviderError{Kind: kind, Err: err}
}

// Close releases the client's rate limiter.
func (c *Client) Close() {
	c.limiter.Close()
}
