package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/priceowl/priceowl/internal/model"
)

// SaveSearch persists a search header. Result records are attached separately
// once extraction completes.
func (s *SQLiteStorage) SaveSearch(ctx context.Context, search *model.Search) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSearch(search); err != nil {
		return err
	}

	if search.Timestamp.IsZero() {
		search.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO searches (id, user_id, product, quantity, unit, city, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, search.ID, search.UserID, search.Product, search.Quantity, search.Unit, search.City, search.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to save search %s: %w", search.ID, err)
	}
	return nil
}

// AttachRecords links stored price records to a search.
func (s *SQLiteStorage) AttachRecords(ctx context.Context, searchID string, recordIDs []int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(searchID, "searchID"); err != nil {
		return err
	}
	if len(recordIDs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO search_records (search_id, record_id) VALUES (?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, id := range recordIDs {
		if _, execErr := stmt.ExecContext(ctx, searchID, id); execErr != nil {
			return fmt.Errorf("failed to attach record %d to search %s: %w", id, searchID, execErr)
		}
	}

	return tx.Commit()
}

// UserSearchHistory returns a user's most recent searches with their attached
// records, newest search first.
func (s *SQLiteStorage) UserSearchHistory(ctx context.Context, userID string, limit int) ([]model.Search, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, product, quantity, unit, city, created_at
		FROM searches
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query search history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var searches []model.Search
	for rows.Next() {
		var search model.Search
		if scanErr := rows.Scan(
			&search.ID,
			&search.UserID,
			&search.Product,
			&search.Quantity,
			&search.Unit,
			&search.City,
			&search.Timestamp,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan search: %w", scanErr)
		}
		searches = append(searches, search)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}

	for i := range searches {
		records, recErr := s.searchRecords(ctx, searches[i].ID)
		if recErr != nil {
			return nil, recErr
		}
		searches[i].Results = records
	}

	return searches, nil
}

func (s *SQLiteStorage) searchRecords(ctx context.Context, searchID string) ([]model.PriceRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM price_records r
		JOIN search_records sr ON sr.record_id = r.id
		WHERE sr.search_id = ?
		ORDER BY r.id
	`, qualifyColumns("r", recordColumns))

	rows, err := s.db.QueryContext(ctx, query, searchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query search records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

// CountSearchesThisMonth counts a user's searches since the start of the
// current calendar month, in UTC.
func (s *SQLiteStorage) CountSearchesThisMonth(ctx context.Context, userID string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM searches
		WHERE user_id = ? AND created_at >= ?
	`, userID, monthStart).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count searches: %w", err)
	}
	return count, nil
}

// ClearUserHistory deletes a user's searches and their record links. The
// price records themselves are shared market data and are kept.
func (s *SQLiteStorage) ClearUserHistory(ctx context.Context, userID string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, `
		DELETE FROM search_records
		WHERE search_id IN (SELECT id FROM searches WHERE user_id = ?)
	`, userID); err != nil {
		return 0, fmt.Errorf("failed to detach search records: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM searches WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete searches: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted searches: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(deleted), nil
}
