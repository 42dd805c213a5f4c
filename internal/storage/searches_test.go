package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priceowl/priceowl/internal/model"
)

func strPtr(s string) *string {
	return &s
}

func TestSaveSearchAndHistory(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	records := []model.PriceRecord{
		testRecord(t, "Leche Entera", "Exito", 4900, "2026-08-01"),
		testRecord(t, "Leche Entera", "Carulla", 5100, "2026-08-01"),
	}
	require.NoError(t, store.InsertRecords(ctx, records))

	search := &model.Search{
		ID:      "search-1",
		UserID:  strPtr("user-a"),
		Product: "Leche Entera",
		City:    "Bogotá",
	}
	require.NoError(t, store.SaveSearch(ctx, search))
	require.NoError(t, store.AttachRecords(ctx, search.ID, []int64{records[0].ID, records[1].ID}))

	history, err := store.UserSearchHistory(ctx, "user-a", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Leche Entera", history[0].Product)
	assert.Len(t, history[0].Results, 2)

	// Other users see nothing.
	history, err = store.UserSearchHistory(ctx, "user-b", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSaveSearchValidation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.Error(t, store.SaveSearch(ctx, nil))
	require.Error(t, store.SaveSearch(ctx, &model.Search{ID: "", Product: "Leche"}))
	require.Error(t, store.SaveSearch(ctx, &model.Search{ID: "s1", Product: ""}))
}

func TestUserSearchHistoryOrdering(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	for i, product := range []string{"Leche", "Arroz", "Cafe"} {
		search := &model.Search{
			ID:        "search-" + product,
			UserID:    strPtr("user-a"),
			Product:   product,
			City:      "Bogotá",
			Timestamp: time.Date(2026, 8, i+1, 12, 0, 0, 0, time.UTC),
		}
		require.NoError(t, store.SaveSearch(ctx, search))
	}

	history, err := store.UserSearchHistory(ctx, "user-a", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Cafe", history[0].Product)
	assert.Equal(t, "Arroz", history[1].Product)
}

func TestCountSearchesThisMonth(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, store.SaveSearch(ctx, &model.Search{
		ID: "s-now", UserID: strPtr("user-a"), Product: "Leche", Timestamp: now,
	}))
	require.NoError(t, store.SaveSearch(ctx, &model.Search{
		ID: "s-old", UserID: strPtr("user-a"), Product: "Arroz",
		Timestamp: now.AddDate(0, -2, 0),
	}))
	require.NoError(t, store.SaveSearch(ctx, &model.Search{
		ID: "s-other", UserID: strPtr("user-b"), Product: "Cafe", Timestamp: now,
	}))

	count, err := store.CountSearchesThisMonth(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestClearUserHistoryKeepsRecords(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	records := []model.PriceRecord{
		testRecord(t, "Leche Entera", "Exito", 4900, "2026-08-01"),
	}
	require.NoError(t, store.InsertRecords(ctx, records))

	search := &model.Search{
		ID:      "search-1",
		UserID:  strPtr("user-a"),
		Product: "Leche Entera",
	}
	require.NoError(t, store.SaveSearch(ctx, search))
	require.NoError(t, store.AttachRecords(ctx, search.ID, []int64{records[0].ID}))

	deleted, err := store.ClearUserHistory(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	history, err := store.UserSearchHistory(ctx, "user-a", 10)
	require.NoError(t, err)
	assert.Empty(t, history)

	// The price records stay: they are shared market data.
	remaining, err := store.LatestByProduct(ctx, "leche", 10)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
