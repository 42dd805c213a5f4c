package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/priceowl/priceowl/internal/model"
)

const recordColumns = `id, product, normalized_product, quantity, unit, store,
	price, unit_price, currency, date, url, is_offer,
	http_status, presentation_found, page_contains_price,
	extracted_price_raw, location_validated, location_notes, notes,
	query_id, confidence`

// InsertRecords persists a batch of price records in a single transaction.
// Record IDs are assigned from the database as a side effect.
func (s *SQLiteStorage) InsertRecords(ctx context.Context, records []model.PriceRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRecords(records); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO price_records (
			product, normalized_product, quantity, unit, store,
			price, unit_price, currency, date, url, is_offer,
			http_status, presentation_found, page_contains_price,
			extracted_price_raw, location_validated, location_notes, notes,
			query_id, confidence
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range records {
		r := &records[i]
		result, execErr := stmt.ExecContext(ctx,
			r.Product,
			r.NormalizedProduct,
			r.Quantity,
			r.Unit,
			r.Store,
			r.Price,
			r.UnitPrice,
			r.Currency,
			r.Date.Time,
			r.URL,
			r.IsOffer,
			r.Raw.HTTPStatus,
			r.Raw.PresentationFound,
			r.Raw.PageContainsPrice,
			r.Raw.ExtractedPriceRaw,
			r.Raw.LocationValidated,
			r.Raw.LocationNotes,
			r.Raw.Notes,
			r.Metadata.QueryID,
			r.Metadata.Confidence,
		)
		if execErr != nil {
			return fmt.Errorf("failed to insert record for %s at %s: %w", r.Product, r.Store, execErr)
		}
		id, idErr := result.LastInsertId()
		if idErr != nil {
			return fmt.Errorf("failed to read inserted record id: %w", idErr)
		}
		r.ID = id
	}

	return tx.Commit()
}

// LatestByProduct returns the most recent records whose normalized product
// contains the given term, newest first.
func (s *SQLiteStorage) LatestByProduct(ctx context.Context, term string, limit int) ([]model.PriceRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(term, "term"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT %s FROM price_records
		WHERE normalized_product LIKE ?
		ORDER BY date DESC, id DESC
		LIMIT ?
	`, recordColumns)

	rows, err := s.db.QueryContext(ctx, query, "%"+model.NormalizeProduct(term)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

// HistoricalSeries returns all records matching the term in chronological
// order. A non-positive limit means no cap.
func (s *SQLiteStorage) HistoricalSeries(ctx context.Context, term string, limit int) ([]model.PriceRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(term, "term"); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM price_records
		WHERE normalized_product LIKE ?
		ORDER BY date ASC, id ASC
	`, recordColumns)

	args := []any{"%" + model.NormalizeProduct(term) + "%"}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query historical records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

// DistinctProductsForStore returns the distinct normalized products observed
// at a store, matched case-insensitively.
func (s *SQLiteStorage) DistinctProductsForStore(ctx context.Context, store string) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(store, "store"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT normalized_product FROM price_records
		WHERE LOWER(store) = LOWER(?)
		ORDER BY normalized_product
	`, store)
	if err != nil {
		return nil, fmt.Errorf("failed to query store products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var products []string
	for rows.Next() {
		var product string
		if scanErr := rows.Scan(&product); scanErr != nil {
			return nil, fmt.Errorf("failed to scan product: %w", scanErr)
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// LatestPerStoreForProducts returns, for each (product, store) pair among the
// given normalized products, the single most recent record. Ties on date are
// broken by the highest record ID so the result is deterministic.
func (s *SQLiteStorage) LatestPerStoreForProducts(ctx context.Context, products []string) ([]model.PriceRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return []model.PriceRecord{}, nil
	}

	placeholders := strings.Repeat("?,", len(products))
	placeholders = placeholders[:len(placeholders)-1]

	query := fmt.Sprintf(`
		SELECT %s FROM price_records r
		WHERE r.normalized_product IN (%s)
		AND r.id IN (
			SELECT MAX(p.id) FROM price_records p
			JOIN (
				SELECT normalized_product, store, MAX(date) AS max_date
				FROM price_records
				WHERE normalized_product IN (%s)
				GROUP BY normalized_product, store
			) latest ON p.normalized_product = latest.normalized_product
				AND p.store = latest.store
				AND p.date = latest.max_date
			GROUP BY p.normalized_product, p.store
		)
		ORDER BY r.normalized_product, r.store
	`, qualifyColumns("r", recordColumns), placeholders, placeholders)

	args := make([]any, 0, len(products)*2)
	for _, p := range products {
		args = append(args, model.NormalizeProduct(p))
	}
	args = append(args, args[:len(products)]...)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest per store: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

// HistoryGroupedByProduct groups matching records chronologically by product
// and computes per-product price statistics.
func (s *SQLiteStorage) HistoryGroupedByProduct(ctx context.Context, term string, limit int) ([]model.ProductHistory, error) {
	records, err := s.HistoricalSeries(ctx, term, limit)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var histories []model.ProductHistory
	for _, r := range records {
		i, ok := index[r.NormalizedProduct]
		if !ok {
			i = len(histories)
			index[r.NormalizedProduct] = i
			histories = append(histories, model.ProductHistory{
				Product:  r.NormalizedProduct,
				MinPrice: r.Price,
				MaxPrice: r.Price,
			})
		}
		h := &histories[i]
		h.History = append(h.History, model.PricePoint{
			Date:  r.Date,
			Store: r.Store,
			Price: r.Price,
		})
		if r.Price < h.MinPrice {
			h.MinPrice = r.Price
		}
		if r.Price > h.MaxPrice {
			h.MaxPrice = r.Price
		}
	}

	for i := range histories {
		var sum int64
		for _, p := range histories[i].History {
			sum += p.Price
		}
		histories[i].AvgPrice = float64(sum) / float64(len(histories[i].History))
	}

	return histories, nil
}

// scanRecords reads all rows of a recordColumns query into price records.
func scanRecords(rows *sql.Rows) ([]model.PriceRecord, error) {
	var records []model.PriceRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (model.PriceRecord, error) {
	var r model.PriceRecord
	var date time.Time
	if err := rows.Scan(
		&r.ID,
		&r.Product,
		&r.NormalizedProduct,
		&r.Quantity,
		&r.Unit,
		&r.Store,
		&r.Price,
		&r.UnitPrice,
		&r.Currency,
		&date,
		&r.URL,
		&r.IsOffer,
		&r.Raw.HTTPStatus,
		&r.Raw.PresentationFound,
		&r.Raw.PageContainsPrice,
		&r.Raw.ExtractedPriceRaw,
		&r.Raw.LocationValidated,
		&r.Raw.LocationNotes,
		&r.Raw.Notes,
		&r.Metadata.QueryID,
		&r.Metadata.Confidence,
	); err != nil {
		return model.PriceRecord{}, fmt.Errorf("failed to scan record: %w", err)
	}
	r.Date = model.NewDate(date)
	return r, nil
}

// qualifyColumns prefixes each column in a comma-separated list with a table
// alias.
func qualifyColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
