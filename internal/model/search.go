package model

import "time"

// SearchIntent is the structured description of one price search request.
// It is immutable; one intent is created per incoming request.
type SearchIntent struct {
	Product        string
	Quantity       float64
	Unit           *string
	City           string
	StoreAllowlist []string
}

// Search is one recorded search in a user's history, together with the
// price records it produced.
type Search struct {
	ID        string
	UserID    *string
	Product   string
	Quantity  float64
	Unit      *string
	City      string
	Timestamp time.Time
	Results   []PriceRecord
}
