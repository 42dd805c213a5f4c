package model

import "encoding/json"

// SearchEvidence is one citation surfaced by the provider's web-search tool.
// It is provenance only; correctness of the extraction never depends on it.
type SearchEvidence struct {
	URL        string
	Title      string
	HTTPStatus int
}

// ExtractionResult is the raw outcome of a single successful provider call.
// It is consumed immediately by the response repairer and never persisted.
type ExtractionResult struct {
	Text     string
	Evidence []SearchEvidence
	Raw      json.RawMessage
}

// RawResult is one parsed item from the provider's results array, before
// validation. Optional fields stay as pointers so that absence survives the
// decode; numbers are float64 because providers freely emit "3200.0".
type RawResult struct {
	Product           string            `json:"product"`
	NormalizedProduct string            `json:"normalizedProduct"`
	Quantity          *float64          `json:"quantity"`
	Unit              *string           `json:"unit"`
	Store             string            `json:"store"`
	Price             *float64          `json:"price"`
	UnitPrice         *float64          `json:"unitPrice"`
	Currency          string            `json:"currency"`
	Date              string            `json:"date"`
	URL               string            `json:"url"`
	IsOffer           bool              `json:"isOffer"`
	Raw               RawProvenance     `json:"raw"`
	Metadata          RawResultMetadata `json:"metadata"`
}

// RawProvenance mirrors Provenance with looser numeric typing.
type RawProvenance struct {
	HTTPStatus        *float64 `json:"httpStatus"`
	PresentationFound bool     `json:"presentationFound"`
	PageContainsPrice bool     `json:"pageContainsPrice"`
	ExtractedPriceRaw *string  `json:"extractedPriceRaw"`
	LocationValidated bool     `json:"locationValidated"`
	LocationNotes     *string  `json:"locationNotes"`
	Notes             *string  `json:"notes"`
}

// RawResultMetadata mirrors RecordMetadata with looser numeric typing.
type RawResultMetadata struct {
	QueryID    *string  `json:"queryId"`
	Confidence *float64 `json:"confidence"`
}
