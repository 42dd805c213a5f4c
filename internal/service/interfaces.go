// Package service defines the interfaces shared between application services.
package service

import (
	"context"
	"encoding/json"

	"github.com/priceowl/priceowl/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Price record operations
	InsertRecords(ctx context.Context, records []model.PriceRecord) error
	LatestByProduct(ctx context.Context, term string, limit int) ([]model.PriceRecord, error)
	HistoricalSeries(ctx context.Context, term string, limit int) ([]model.PriceRecord, error)
	DistinctProductsForStore(ctx context.Context, store string) ([]string, error)
	LatestPerStoreForProducts(ctx context.Context, products []string) ([]model.PriceRecord, error)
	HistoryGroupedByProduct(ctx context.Context, term string, limit int) ([]model.ProductHistory, error)

	// Search operations
	SaveSearch(ctx context.Context, search *model.Search) error
	AttachRecords(ctx context.Context, searchID string, recordIDs []int64) error
	UserSearchHistory(ctx context.Context, userID string, limit int) ([]model.Search, error)
	CountSearchesThisMonth(ctx context.Context, userID string) (int, error)
	ClearUserHistory(ctx context.Context, userID string) (int, error)

	// Report operations
	CreateReport(ctx context.Context, report *model.Report) error
	CompleteReport(ctx context.Context, id string, payload json.RawMessage) error
	FailReport(ctx context.Context, id string) error
	GetReport(ctx context.Context, id string) (*model.Report, error)
	ListUserReports(ctx context.Context, userID string, limit int) ([]model.Report, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
