// Package prompt builds the instruction text sent to the LLM provider for
// each kind of search or report.
package prompt

import (
	"fmt"
	"strings"

	"github.com/priceowl/priceowl/internal/model"
)

// Kind selects a prompt builder variant.
type Kind string

// Supported builder kinds.
const (
	KindSearch     Kind = "search"
	KindComparison Kind = "comparison"
	KindMarket     Kind = "market"
)

// Builder produces prompt text for a search intent. Builders are pure and
// deterministic; all variability comes from the intent itself.
type Builder interface {
	BuildPrompt(intent model.SearchIntent) string
}

// NewBuilder returns the builder for the given kind.
func NewBuilder(kind Kind, opts Options) (Builder, error) {
	switch kind {
	case KindSearch:
		return &SearchBuilder{opts: opts.withDefaults()}, nil
	default:
		return nil, fmt.Errorf("unsupported prompt kind: %s", kind)
	}
}

// Options carries deployment-wide prompt settings.
type Options struct {
	Currency   string
	MaxResults int
	MinTarget  int
}

func (o Options) withDefaults() Options {
	if o.Currency == "" {
		o.Currency = "COP"
	}
	if o.MaxResults <= 0 {
		o.MaxResults = 50
	}
	if o.MinTarget <= 0 {
		o.MinTarget = 5
	}
	return o
}

// unitOrDefault renders a nullable unit for prompt interpolation.
func unitOrDefault(unit *string) string {
	if unit == nil || strings.TrimSpace(*unit) == "" {
		return "unit"
	}
	return *unit
}
