package model

import (
	"encoding/json"
	"time"
)

// ReportStatus is the lifecycle state of a report. A report transitions from
// pending to exactly one terminal state and never changes again.
type ReportStatus string

// Report lifecycle states.
const (
	ReportPending ReportStatus = "pending"
	ReportReady   ReportStatus = "ready"
	ReportFailed  ReportStatus = "failed"
)

// Report is a persisted report request with its assembled payload.
type Report struct {
	ID        string
	UserID    *string
	Query     string
	Status    ReportStatus
	Payload   json.RawMessage
	CreatedAt time.Time
}

// CompetitorPrice is one competitor's latest observed price in a comparison
// row.
type CompetitorPrice struct {
	Store string `json:"store"`
	Price int64  `json:"price"`
	Date  Date   `json:"date"`
	URL   string `json:"url"`
}

// ComparisonRow pairs one product's own-store price against competitor
// prices. Rows are derived per report request and never stored on their own.
type ComparisonRow struct {
	ProductName    string            `json:"productName"`
	DisplayProduct string            `json:"displayProduct,omitempty"`
	MyStore        string            `json:"myStore"`
	MyPrice        *int64            `json:"myPrice"`
	MyDate         *Date             `json:"myDate"`
	Competitors    []CompetitorPrice `json:"competitors"`
}

// PricePoint is one observation in a product's time series.
type PricePoint struct {
	Price int64  `json:"price"`
	Date  Date   `json:"date"`
	Store string `json:"store"`
}

// ProductHistory is a product's full ascending time series with aggregate
// statistics over all stores combined.
type ProductHistory struct {
	Product  string       `json:"product"`
	History  []PricePoint `json:"history"`
	AvgPrice float64      `json:"avgPrice"`
	MinPrice int64        `json:"minPrice"`
	MaxPrice int64        `json:"maxPrice"`
}
