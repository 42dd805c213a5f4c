// Package model defines the core domain entities shared across the application.
package model

import (
	"fmt"
	"strings"
	"time"
)

// MaxPrice is the upper bound for a plausible retail price in currency minor
// units. Anything above it is treated as an extraction artifact and rejected.
const MaxPrice = 3_000_000

const dateLayout = "2006-01-02"

// Date is a calendar date without a time component. It marshals to and from
// the "YYYY-MM-DD" form used by the external record schema.
type Date struct {
	time.Time
}

// NewDate truncates t to a UTC calendar date.
func NewDate(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date in UTC.
func Today() Date {
	return NewDate(time.Now().UTC())
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// PriceRecord is one observed price for a product at a store on a date. It is
// immutable once created; the JSON tags define the external record schema and
// must not change.
type PriceRecord struct {
	ID                int64          `json:"-"`
	Product           string         `json:"product"`
	NormalizedProduct string         `json:"normalizedProduct"`
	Quantity          float64        `json:"quantity"`
	Unit              *string        `json:"unit"`
	Store             string         `json:"store"`
	Price             int64          `json:"price"`
	UnitPrice         *int64         `json:"unitPrice"`
	Currency          string         `json:"currency"`
	Date              Date           `json:"date"`
	URL               string         `json:"url"`
	IsOffer           bool           `json:"isOffer"`
	Raw               Provenance     `json:"raw"`
	Metadata          RecordMetadata `json:"metadata"`
}

// Provenance is the audit block captured at extraction time. It is kept for
// debugging and never participates in matching or aggregation.
type Provenance struct {
	HTTPStatus        int     `json:"httpStatus"`
	PresentationFound bool    `json:"presentationFound"`
	PageContainsPrice bool    `json:"pageContainsPrice"`
	ExtractedPriceRaw *string `json:"extractedPriceRaw"`
	LocationValidated bool    `json:"locationValidated"`
	LocationNotes     *string `json:"locationNotes"`
	Notes             *string `json:"notes"`
}

// RecordMetadata carries the provider-supplied confidence heuristic and a
// back-reference to the originating search.
type RecordMetadata struct {
	QueryID    *string `json:"queryId"`
	Confidence float64 `json:"confidence"`
}

// NormalizeProduct derives the matching key used for all grouping and lookup.
// Matching across records is always performed on this key, never on the
// display name.
func NormalizeProduct(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// MatchesStore reports whether the record belongs to the given store,
// compared case-insensitively.
func (r *PriceRecord) MatchesStore(store string) bool {
	return strings.EqualFold(r.Store, store)
}
