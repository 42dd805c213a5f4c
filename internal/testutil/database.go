// Package testutil provides shared test helpers for database-backed tests.
package testutil

import (
	"context"
	"testing"

	"github.com/priceowl/priceowl/internal/model"
	"github.com/priceowl/priceowl/internal/storage"
)

// TestDB wraps an in-memory storage instance for tests.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a migrated in-memory test database. Cleanup is
// registered automatically.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// SeedRecords inserts the given price records or fails the test.
func (db *TestDB) SeedRecords(records []model.PriceRecord) []model.PriceRecord {
	db.t.Helper()
	if err := db.Storage.InsertRecords(context.Background(), records); err != nil {
		db.t.Fatalf("failed to seed records: %v", err)
	}
	return records
}

// Record builds a valid price record for tests with sensible defaults.
// Override fields on the returned value as needed before seeding.
func Record(product, store string, price int64, date model.Date) model.PriceRecord {
	return model.PriceRecord{
		Product:           product,
		NormalizedProduct: model.NormalizeProduct(product),
		Quantity:          1,
		Store:             store,
		Price:             price,
		Currency:          "COP",
		Date:              date,
		URL:               "https://example.com/" + model.NormalizeProduct(store),
		Metadata: model.RecordMetadata{
			Confidence: 0.5,
		},
	}
}
