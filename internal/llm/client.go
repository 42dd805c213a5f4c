// Package llm provides clients for the LLM providers used for price
// extraction and report summarization.
package llm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/priceowl/priceowl/internal/model"
)

// Completion is the raw outcome of one provider call: the response text plus
// any web-search evidence the provider surfaced alongside it.
type Completion struct {
	Text     string
	Evidence []model.SearchEvidence
	Raw      json.RawMessage
}

// Client defines the interface for LLM providers.
type Client interface {
	// Extract runs a prompt with the provider's web-search capability
	// attached and returns the unstructured response text.
	Extract(ctx context.Context, prompt string) (Completion, error)
	// Summarize runs a plain completion and returns the response text.
	Summarize(ctx context.Context, prompt string) (string, error)
}

// Config holds configuration for an LLM client.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	RateLimit   int
	Timeout     time.Duration
}
