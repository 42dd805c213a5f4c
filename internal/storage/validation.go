// Package storage provides the data persistence layer for priceowl.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/priceowl/priceowl/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrEmptySlice    = errors.New("slice cannot be empty")
	ErrInvalidRecord = errors.New("invalid price record")
	ErrInvalidSearch = errors.New("invalid search")
	ErrInvalidReport = errors.New("invalid report")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRecords validates a slice of price records.
func validateRecords(records []model.PriceRecord) error {
	if records == nil {
		return fmt.Errorf("%w: records", ErrNilParameter)
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: records", ErrEmptySlice)
	}

	for i := range records {
		if err := validateRecord(&records[i]); err != nil {
			return fmt.Errorf("record at index %d: %w", i, err)
		}
	}
	return nil
}

// validateRecord validates a single price record.
func validateRecord(record *model.PriceRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if strings.TrimSpace(record.Product) == "" {
		return fmt.Errorf("%w: missing product", ErrInvalidRecord)
	}
	if strings.TrimSpace(record.NormalizedProduct) == "" {
		return fmt.Errorf("%w: missing normalized product", ErrInvalidRecord)
	}
	if strings.TrimSpace(record.Store) == "" {
		return fmt.Errorf("%w: missing store", ErrInvalidRecord)
	}
	if record.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrInvalidRecord)
	}
	if strings.TrimSpace(record.URL) == "" {
		return fmt.Errorf("%w: missing URL", ErrInvalidRecord)
	}
	if record.Metadata.Confidence < 0 || record.Metadata.Confidence > 1 {
		return fmt.Errorf("%w: confidence must be between 0 and 1", ErrInvalidRecord)
	}
	return nil
}

// validateSearch validates a search before persisting it.
func validateSearch(search *model.Search) error {
	if search == nil {
		return fmt.Errorf("%w: search", ErrNilParameter)
	}
	if strings.TrimSpace(search.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidSearch)
	}
	if strings.TrimSpace(search.Product) == "" {
		return fmt.Errorf("%w: missing product", ErrInvalidSearch)
	}
	return nil
}
