// Package report assembles comparison, market, and monitor reports from
// stored price records.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/priceowl/priceowl/internal/common"
	"github.com/priceowl/priceowl/internal/llm"
	"github.com/priceowl/priceowl/internal/model"
	"github.com/priceowl/priceowl/internal/prompt"
	"github.com/priceowl/priceowl/internal/service"
)

// snapshotLimit caps how many records feed a comparison analysis prompt.
const snapshotLimit = 50

// Engine generates reports. Every report is persisted pending first, then
// transitions exactly once to ready or failed.
type Engine struct {
	storage  service.Storage
	provider llm.Client
	logger   *slog.Logger
}

// NewEngine creates a report engine.
func NewEngine(storage service.Storage, provider llm.Client, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		storage:  storage,
		provider: provider,
		logger:   logger,
	}
}

// comparisonPayload is the stored payload of a comparison report.
type comparisonPayload struct {
	Product  string              `json:"product"`
	Records  []model.PriceRecord `json:"records"`
	Analysis string              `json:"analysis"`
}

// Comparison builds a cross-store comparison for one product from the most
// recent stored records.
func (e *Engine) Comparison(ctx context.Context, userID *string, product string) (*model.Report, error) {
	report, err := e.createPending(ctx, userID, product)
	if err != nil {
		return nil, err
	}

	payload, err := e.buildComparison(ctx, product)
	if err != nil {
		return nil, e.fail(ctx, report, err)
	}

	return e.complete(ctx, report, payload)
}

func (e *Engine) buildComparison(ctx context.Context, product string) (json.RawMessage, error) {
	records, err := e.storage.LatestByProduct(ctx, product, snapshotLimit)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no price data for %q: %w", product, common.ErrNotFound)
	}

	builder, err := prompt.NewReportBuilder(prompt.KindComparison)
	if err != nil {
		return nil, err
	}
	analysis, err := e.provider.Summarize(ctx, builder.BuildPrompt(product, records))
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	return json.Marshal(comparisonPayload{
		Product:  product,
		Records:  records,
		Analysis: analysis,
	})
}

// marketPayload is the stored payload of a market report.
type marketPayload struct {
	Product   string                 `json:"product"`
	Histories []model.ProductHistory `json:"histories"`
	Analysis  string                 `json:"analysis"`
}

// Market builds a historical market intelligence report for one product.
func (e *Engine) Market(ctx context.Context, userID *string, product string) (*model.Report, error) {
	report, err := e.createPending(ctx, userID, product)
	if err != nil {
		return nil, err
	}

	payload, err := e.buildMarket(ctx, product)
	if err != nil {
		return nil, e.fail(ctx, report, err)
	}

	return e.complete(ctx, report, payload)
}

func (e *Engine) buildMarket(ctx context.Context, product string) (json.RawMessage, error) {
	series, err := e.storage.HistoricalSeries(ctx, product, 0)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("no price history for %q: %w", product, common.ErrNotFound)
	}

	histories, err := e.storage.HistoryGroupedByProduct(ctx, product, 0)
	if err != nil {
		return nil, err
	}

	builder, err := prompt.NewReportBuilder(prompt.KindMarket)
	if err != nil {
		return nil, err
	}
	analysis, err := e.provider.Summarize(ctx, builder.BuildPrompt(product, series))
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	return json.Marshal(marketPayload{
		Product:   product,
		Histories: histories,
		Analysis:  analysis,
	})
}

// monitorPayload is the stored payload of a monitor report.
type monitorPayload struct {
	MyStore  string                `json:"myStore"`
	Rows     []model.ComparisonRow `json:"rows"`
	Analysis string                `json:"analysis"`
}

// Monitor compares every product observed at the caller's store against the
// latest competitor prices. No provider call is involved; the analysis line
// reflects only the assembled row count.
func (e *Engine) Monitor(ctx context.Context, userID *string, myStore string, competitors []string) (*model.Report, error) {
	report, err := e.createPending(ctx, userID, "monitor: "+myStore)
	if err != nil {
		return nil, err
	}

	payload, err := e.buildMonitor(ctx, myStore, competitors)
	if err != nil {
		return nil, e.fail(ctx, report, err)
	}

	return e.complete(ctx, report, payload)
}

func (e *Engine) buildMonitor(ctx context.Context, myStore string, competitors []string) (json.RawMessage, error) {
	products, err := e.storage.DistinctProductsForStore(ctx, myStore)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("no products observed for store %q: %w", myStore, common.ErrNotFound)
	}

	latest, err := e.storage.LatestPerStoreForProducts(ctx, products)
	if err != nil {
		return nil, err
	}

	rows := assembleRows(products, latest, myStore, competitors)
	if len(rows) == 0 {
		return nil, fmt.Errorf("no comparable prices for store %q: %w", myStore, common.ErrNotFound)
	}

	analysis := fmt.Sprintf("Monitoring %d products for %s.", len(rows), myStore)

	return json.Marshal(monitorPayload{
		MyStore:  myStore,
		Rows:     rows,
		Analysis: analysis,
	})
}

// assembleRows builds one comparison row per product: the store's own latest
// price plus each competitor's. Rows with neither an own price nor any
// competitor prices carry no information and are dropped.
func assembleRows(products []string, latest []model.PriceRecord, myStore string, competitors []string) []model.ComparisonRow {
	byProduct := make(map[string][]model.PriceRecord)
	for _, r := range latest {
		byProduct[r.NormalizedProduct] = append(byProduct[r.NormalizedProduct], r)
	}

	var rows []model.ComparisonRow
	for _, product := range products {
		row := model.ComparisonRow{
			ProductName: product,
			MyStore:     myStore,
			Competitors: []model.CompetitorPrice{},
		}

		for _, r := range byProduct[product] {
			if r.MatchesStore(myStore) {
				price := r.Price
				date := r.Date
				row.MyPrice = &price
				row.MyDate = &date
				row.DisplayProduct = r.Product
				continue
			}
			if !storeAllowed(r.Store, competitors) {
				continue
			}
			row.Competitors = append(row.Competitors, model.CompetitorPrice{
				Store: r.Store,
				Price: r.Price,
				Date:  r.Date,
				URL:   r.URL,
			})
		}

		if row.MyPrice == nil && len(row.Competitors) == 0 {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// storeAllowed checks a store against the competitor allowlist. An empty
// allowlist admits every store.
func storeAllowed(store string, allowlist []string) bool {
	if len(allowlist) == 0 {
		return true
	}
	for _, allowed := range allowlist {
		if strings.EqualFold(allowed, store) {
			return true
		}
	}
	return false
}

func (e *Engine) createPending(ctx context.Context, userID *string, query string) (*model.Report, error) {
	report := &model.Report{
		ID:     uuid.NewString(),
		UserID: userID,
		Query:  query,
	}
	if err := e.storage.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return report, nil
}

// fail marks the report failed and returns the causing error. The failed row
// is kept so the outcome is visible in report listings.
func (e *Engine) fail(ctx context.Context, report *model.Report, cause error) error {
	if failErr := e.storage.FailReport(ctx, report.ID); failErr != nil {
		e.logger.Error("could not mark report failed",
			"report_id", report.ID,
			"error", failErr)
	}
	e.logger.Warn("report generation failed",
		"report_id", report.ID,
		"query", report.Query,
		"error", cause)
	return cause
}

func (e *Engine) complete(ctx context.Context, report *model.Report, payload json.RawMessage) (*model.Report, error) {
	if err := e.storage.CompleteReport(ctx, report.ID, payload); err != nil {
		return nil, fmt.Errorf("failed to complete report %s: %w", report.ID, err)
	}
	report.Status = model.ReportReady
	report.Payload = payload
	e.logger.Info("report ready",
		"report_id", report.ID,
		"query", report.Query)
	return report, nil
}
