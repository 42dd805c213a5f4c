package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/priceowl/priceowl/internal/common"
	"github.com/priceowl/priceowl/internal/model"
)

// CreateReport persists a new report in the pending state.
func (s *SQLiteStorage) CreateReport(ctx context.Context, report *model.Report) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if report == nil {
		return fmt.Errorf("%w: report", ErrNilParameter)
	}
	if strings.TrimSpace(report.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidReport)
	}
	if strings.TrimSpace(report.Query) == "" {
		return fmt.Errorf("%w: missing query", ErrInvalidReport)
	}

	report.Status = model.ReportPending
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (id, user_id, query, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, report.ID, report.UserID, report.Query, report.Status, report.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create report %s: %w", report.ID, err)
	}
	return nil
}

// CompleteReport stores the payload and moves a pending report to ready.
// The transition is one-shot: a report that already left pending is an error.
func (s *SQLiteStorage) CompleteReport(ctx context.Context, id string, payload json.RawMessage) error {
	return s.transitionReport(ctx, id, model.ReportReady, payload)
}

// FailReport moves a pending report to failed.
func (s *SQLiteStorage) FailReport(ctx context.Context, id string) error {
	return s.transitionReport(ctx, id, model.ReportFailed, nil)
}

func (s *SQLiteStorage) transitionReport(ctx context.Context, id string, status model.ReportStatus, payload json.RawMessage) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	var payloadValue any
	if payload != nil {
		payloadValue = string(payload)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE reports SET status = ?, payload = ?
		WHERE id = ? AND status = ?
	`, status, payloadValue, id, model.ReportPending)
	if err != nil {
		return fmt.Errorf("failed to update report %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check report update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("report %s is not pending: %w", id, common.ErrNotFound)
	}
	return nil
}

// GetReport retrieves a report by ID.
func (s *SQLiteStorage) GetReport(ctx context.Context, id string) (*model.Report, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, query, status, payload, created_at
		FROM reports WHERE id = ?
	`, id)

	report, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ListUserReports returns a user's reports, newest first.
func (s *SQLiteStorage) ListUserReports(ctx context.Context, userID string, limit int) ([]model.Report, error) {
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
		SELECT id, user_id, query, status, payload, created_at
		FROM reports
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reports []model.Report
	for rows.Next() {
		report, scanErr := scanReport(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		reports = append(reports, *report)
	}
	return reports, rows.Err()
}

// rowScanner abstracts sql.Row and sql.Rows for the report scanners.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*model.Report, error) {
	var report model.Report
	var payload sql.NullString
	if err := row.Scan(
		&report.ID,
		&report.UserID,
		&report.Query,
		&report.Status,
		&payload,
		&report.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}
	if payload.Valid {
		report.Payload = json.RawMessage(payload.String)
	}
	return &report, nil
}
