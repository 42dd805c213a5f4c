package prompt

import (
	"fmt"
	"strings"

	"github.com/priceowl/priceowl/internal/model"
)

// ReportBuilder renders a set of price records into an analysis prompt for
// the summarization call of a report.
type ReportBuilder interface {
	BuildPrompt(product string, records []model.PriceRecord) string
}

// NewReportBuilder returns the report builder for the given kind.
func NewReportBuilder(kind Kind) (ReportBuilder, error) {
	switch kind {
	case KindComparison:
		return &comparisonBuilder{}, nil
	case KindMarket:
		return &marketBuilder{}, nil
	default:
		return nil, fmt.Errorf("unsupported report prompt kind: %s", kind)
	}
}

// comparisonBuilder builds the analysis prompt for a single-product price
// comparison across stores.
type comparisonBuilder struct{}

func (b *comparisonBuilder) BuildPrompt(product string, records []model.PriceRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a retail pricing analyst. Below is the latest observed price data for %q across stores.\n\n", product)
	writeSnapshot(&sb, records)
	sb.WriteString(`
Write a short comparison analysis in plain text:
1. Which store currently has the best price and by how much.
2. Any notable price spread or outliers.
3. Whether offers (isOffer) change the picture.
Keep it under 200 words. Respond with the analysis text only, no JSON, no markdown headings.`)
	return sb.String()
}

// marketBuilder builds the analysis prompt for a historical market
// intelligence summary.
type marketBuilder struct{}

func (b *marketBuilder) BuildPrompt(product string, records []model.PriceRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a retail market analyst. Below is the full observed price history for %q, oldest first, across all stores.\n\n", product)
	writeSnapshot(&sb, records)
	sb.WriteString(`
Write a market intelligence summary in plain text:
1. The overall price trend over the observed period.
2. Which stores are consistently cheapest or most expensive.
3. Any seasonality or abrupt changes worth flagging.
Keep it under 250 words. Respond with the analysis text only, no JSON, no markdown headings.`)
	return sb.String()
}

func writeSnapshot(sb *strings.Builder, records []model.PriceRecord) {
	if len(records) == 0 {
		sb.WriteString("(no price data available)\n")
		return
	}
	for _, r := range records {
		offer := ""
		if r.IsOffer {
			offer = " (offer)"
		}
		fmt.Fprintf(sb, "- %s | %s | %d %s%s | %s\n",
			r.Date, r.Store, r.Price, r.Currency, offer, r.URL)
	}
}
