package report

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priceowl/priceowl/internal/common"
	"github.com/priceowl/priceowl/internal/llm"
	"github.com/priceowl/priceowl/internal/model"
	"github.com/priceowl/priceowl/internal/testutil"
)

// stubProvider returns a fixed analysis for every Summarize call.
type stubProvider struct {
	analysis string
	err      error
	prompts  []string
}

func (s *stubProvider) Extract(_ context.Context, _ string) (llm.Completion, error) {
	return llm.Completion{}, errors.New("not used in reports")
}

func (s *stubProvider) Summarize(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.analysis, nil
}

func mustDate(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestComparisonReport(t *testing.T) {
	db := testutil.SetupTestDB(t)
	db.SeedRecords([]model.PriceRecord{
		testutil.Record("Leche Entera", "Exito", 4900, mustDate(t, "2026-08-01")),
		testutil.Record("Leche Entera", "Carulla", 5100, mustDate(t, "2026-08-02")),
	})

	provider := &stubProvider{analysis: "Exito has the best price."}
	engine := NewEngine(db.Storage, provider, nil)

	generated, err := engine.Comparison(context.Background(), nil, "leche")
	require.NoError(t, err)
	assert.Equal(t, model.ReportReady, generated.Status)

	var payload comparisonPayload
	require.NoError(t, json.Unmarshal(generated.Payload, &payload))
	assert.Equal(t, "leche", payload.Product)
	assert.Len(t, payload.Records, 2)
	assert.Equal(t, "Exito has the best price.", payload.Analysis)

	// The analysis prompt carried the observed price lines.
	require.Len(t, provider.prompts, 1)
	assert.Contains(t, provider.prompts[0], "Exito")
	assert.Contains(t, provider.prompts[0], "4900")
}

func TestComparisonReportNoDataFails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	provider := &stubProvider{analysis: "unused"}
	engine := NewEngine(db.Storage, provider, nil)

	ctx := context.Background()
	user := "user-a"
	_, err := engine.Comparison(ctx, &user, "producto inexistente")
	require.ErrorIs(t, err, common.ErrNotFound)

	// The failure is persisted, not just returned.
	reports, err := db.Storage.ListUserReports(ctx, user, 10)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, model.ReportFailed, reports[0].Status)
	assert.Empty(t, provider.prompts)
}

func TestComparisonReportProviderFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	db.SeedRecords([]model.PriceRecord{
		testutil.Record("Leche Entera", "Exito", 4900, mustDate(t, "2026-08-01")),
	})

	provider := &stubProvider{err: errors.New("provider down")}
	engine := NewEngine(db.Storage, provider, nil)

	ctx := context.Background()
	user := "user-a"
	_, err := engine.Comparison(ctx, &user, "leche")
	require.Error(t, err)

	reports, err := db.Storage.ListUserReports(ctx, user, 10)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, model.ReportFailed, reports[0].Status)
}

func TestMarketReport(t *testing.T) {
	db := testutil.SetupTestDB(t)
	db.SeedRecords([]model.PriceRecord{
		testutil.Record("Cafe Sello Rojo", "Exito", 12000, mustDate(t, "2026-07-01")),
		testutil.Record("Cafe Sello Rojo", "Carulla", 14000, mustDate(t, "2026-07-15")),
	})

	provider := &stubProvider{analysis: "Prices trend upward."}
	engine := NewEngine(db.Storage, provider, nil)

	generated, err := engine.Market(context.Background(), nil, "cafe")
	require.NoError(t, err)
	assert.Equal(t, model.ReportReady, generated.Status)

	var payload marketPayload
	require.NoError(t, json.Unmarshal(generated.Payload, &payload))
	require.Len(t, payload.Histories, 1)
	assert.Equal(t, int64(12000), payload.Histories[0].MinPrice)
	assert.Equal(t, int64(14000), payload.Histories[0].MaxPrice)
	assert.InDelta(t, 13000, payload.Histories[0].AvgPrice, 0.0001)
}

func TestMonitorReport(t *testing.T) {
	db := testutil.SetupTestDB(t)
	db.SeedRecords([]model.PriceRecord{
		testutil.Record("P1", "StoreA", 1000, mustDate(t, "2026-08-01")),
		testutil.Record("P1", "StoreB", 900, mustDate(t, "2026-08-01")),
	})

	provider := &stubProvider{}
	engine := NewEngine(db.Storage, provider, nil)

	generated, err := engine.Monitor(context.Background(), nil, "StoreA", nil)
	require.NoError(t, err)
	assert.Equal(t, model.ReportReady, generated.Status)

	var payload monitorPayload
	require.NoError(t, json.Unmarshal(generated.Payload, &payload))
	assert.Equal(t, "StoreA", payload.MyStore)
	require.Len(t, payload.Rows, 1)

	row := payload.Rows[0]
	assert.Equal(t, "p1", row.ProductName)
	require.NotNil(t, row.MyPrice)
	assert.Equal(t, int64(1000), *row.MyPrice)
	require.Len(t, row.Competitors, 1)
	assert.Equal(t, "StoreB", row.Competitors[0].Store)
	assert.Equal(t, int64(900), row.Competitors[0].Price)

	// Monitor never calls the provider.
	assert.Empty(t, provider.prompts)
}

func TestMonitorReportCompetitorFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	db.SeedRecords([]model.PriceRecord{
		testutil.Record("P1", "StoreA", 1000, mustDate(t, "2026-08-01")),
		testutil.Record("P1", "StoreB", 900, mustDate(t, "2026-08-01")),
		testutil.Record("P1", "StoreC", 950, mustDate(t, "2026-08-01")),
	})

	engine := NewEngine(db.Storage, &stubProvider{}, nil)

	generated, err := engine.Monitor(context.Background(), nil, "StoreA", []string{"storec"})
	require.NoError(t, err)

	var payload monitorPayload
	require.NoError(t, json.Unmarshal(generated.Payload, &payload))
	require.Len(t, payload.Rows, 1)
	require.Len(t, payload.Rows[0].Competitors, 1)
	assert.Equal(t, "StoreC", payload.Rows[0].Competitors[0].Store)
}

func TestMonitorReportUnknownStoreFailsPersisted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := NewEngine(db.Storage, &stubProvider{}, nil)

	ctx := context.Background()
	user := "user-a"
	_, err := engine.Monitor(ctx, &user, "StoreX", nil)
	require.ErrorIs(t, err, common.ErrNotFound)

	reports, err := db.Storage.ListUserReports(ctx, user, 10)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, model.ReportFailed, reports[0].Status)
	assert.Equal(t, "monitor: StoreX", reports[0].Query)
}

func TestAssembleRowsDropsEmptyRows(t *testing.T) {
	// A product observed only at stores outside the allowlist produces a row
	// with no own price and no competitors, which must be dropped.
	latest := []model.PriceRecord{
		{NormalizedProduct: "p1", Store: "StoreB", Price: 900, Date: mustDate(t, "2026-08-01")},
	}

	rows := assembleRows([]string{"p1"}, latest, "StoreA", []string{"StoreC"})
	assert.Empty(t, rows)
}
