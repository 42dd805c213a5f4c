package extract

import (
	"log/slog"
	"math"
	"strings"

	"github.com/priceowl/priceowl/internal/common"
	"github.com/priceowl/priceowl/internal/model"
)

// defaultConfidence is the score assigned when the provider omitted one.
// It matches the prompt's base value before adjustments.
const defaultConfidence = 0.5

// Normalizer maps parsed raw results into domain price records, rejecting
// results that fail field validation.
type Normalizer struct {
	logger   *slog.Logger
	currency string
}

// NewNormalizer creates a normalizer for the deployment currency.
func NewNormalizer(currency string, logger *slog.Logger) *Normalizer {
	if currency == "" {
		currency = "COP"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{currency: currency, logger: logger}
}

// Normalize validates one raw result and maps it into a PriceRecord.
// Required fields and price bounds reject the record; the provider-supplied
// confidence is heuristic data, so out-of-range values are clamped instead.
func (n *Normalizer) Normalize(raw model.RawResult, queryID *string) (model.PriceRecord, error) {
	product := strings.TrimSpace(raw.Product)
	if product == "" {
		return model.PriceRecord{}, common.NewValidationError("product", "required")
	}

	store := strings.TrimSpace(raw.Store)
	if store == "" {
		return model.PriceRecord{}, common.NewValidationError("store", "required")
	}

	if strings.TrimSpace(raw.URL) == "" {
		return model.PriceRecord{}, common.NewValidationError("url", "required")
	}

	if raw.Price == nil {
		return model.PriceRecord{}, common.NewValidationError("price", "required")
	}
	price := *raw.Price
	if price != math.Trunc(price) {
		return model.PriceRecord{}, common.NewValidationError("price", "must be an integer amount")
	}
	priceInt := int64(price)
	// price = 0 is the provider's "unextractable" sentinel, never a value.
	if priceInt <= 0 {
		return model.PriceRecord{}, common.NewValidationError("price", "must be positive")
	}
	if priceInt > model.MaxPrice {
		return model.PriceRecord{}, common.NewValidationError("price", "exceeds maximum plausible price")
	}

	normalized := model.NormalizeProduct(raw.NormalizedProduct)
	if normalized == "" {
		normalized = model.NormalizeProduct(product)
	}

	quantity := 1.0
	if raw.Quantity != nil && *raw.Quantity > 0 {
		quantity = *raw.Quantity
	}

	var unitPrice *int64
	if raw.UnitPrice != nil {
		v := int64(math.Round(*raw.UnitPrice))
		unitPrice = &v
	}

	currency := strings.TrimSpace(raw.Currency)
	if currency == "" {
		currency = n.currency
	}

	date := model.Today()
	if raw.Date != "" {
		if parsed, err := model.ParseDate(raw.Date); err == nil {
			date = parsed
		}
	}

	confidence := defaultConfidence
	if raw.Metadata.Confidence != nil {
		confidence = clamp(*raw.Metadata.Confidence, 0, 1)
	}

	recordQueryID := queryID
	if recordQueryID == nil {
		recordQueryID = raw.Metadata.QueryID
	}

	httpStatus := 0
	if raw.Raw.HTTPStatus != nil {
		httpStatus = int(*raw.Raw.HTTPStatus)
	}

	return model.PriceRecord{
		Product:           product,
		NormalizedProduct: normalized,
		Quantity:          quantity,
		Unit:              raw.Unit,
		Store:             store,
		Price:             priceInt,
		UnitPrice:         unitPrice,
		Currency:          currency,
		Date:              date,
		URL:               strings.TrimSpace(raw.URL),
		IsOffer:           raw.IsOffer,
		Raw: model.Provenance{
			HTTPStatus:        httpStatus,
			PresentationFound: raw.Raw.PresentationFound,
			PageContainsPrice: raw.Raw.PageContainsPrice,
			ExtractedPriceRaw: raw.Raw.ExtractedPriceRaw,
			LocationValidated: raw.Raw.LocationValidated,
			LocationNotes:     raw.Raw.LocationNotes,
			Notes:             raw.Raw.Notes,
		},
		Metadata: model.RecordMetadata{
			QueryID:    recordQueryID,
			Confidence: confidence,
		},
	}, nil
}

// NormalizeBatch normalizes a batch, dropping invalid results with a warning.
// A partial batch is still accepted; the drop count is returned for logging.
func (n *Normalizer) NormalizeBatch(raws []model.RawResult, queryID *string) ([]model.PriceRecord, int) {
	records := make([]model.PriceRecord, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		record, err := n.Normalize(raw, queryID)
		if err != nil {
			dropped++
			n.logger.Warn("dropping invalid extraction result",
				"product", raw.Product,
				"store", raw.Store,
				"error", err)
			continue
		}
		records = append(records, record)
	}
	return records, dropped
}

func clamp(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
