package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS price_records (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					product TEXT NOT NULL,
					normalized_product TEXT NOT NULL,
					quantity REAL NOT NULL DEFAULT 1,
					unit TEXT,
					store TEXT NOT NULL,
					price INTEGER NOT NULL,
					unit_price INTEGER,
					currency TEXT NOT NULL,
					date DATETIME NOT NULL,
					url TEXT NOT NULL,
					is_offer INTEGER NOT NULL DEFAULT 0,
					http_status INTEGER NOT NULL DEFAULT 0,
					presentation_found INTEGER NOT NULL DEFAULT 0,
					page_contains_price INTEGER NOT NULL DEFAULT 0,
					extracted_price_raw TEXT,
					location_validated INTEGER NOT NULL DEFAULT 0,
					location_notes TEXT,
					notes TEXT,
					query_id TEXT,
					confidence REAL NOT NULL DEFAULT 0.5,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_price_records_normalized ON price_records(normalized_product)`,
				`CREATE INDEX idx_price_records_store ON price_records(store)`,
				`CREATE INDEX idx_price_records_date ON price_records(date)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add searches and search_records for per-user history",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS searches (
					id TEXT PRIMARY KEY,
					user_id TEXT,
					product TEXT NOT NULL,
					quantity REAL NOT NULL DEFAULT 1,
					unit TEXT,
					city TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_searches_user ON searches(user_id)`,
				`CREATE INDEX idx_searches_created ON searches(created_at)`,

				`CREATE TABLE IF NOT EXISTS search_records (
					search_id TEXT NOT NULL,
					record_id INTEGER NOT NULL,
					PRIMARY KEY (search_id, record_id),
					FOREIGN KEY (search_id) REFERENCES searches(id),
					FOREIGN KEY (record_id) REFERENCES price_records(id)
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Add reports table",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS reports (
					id TEXT PRIMARY KEY,
					user_id TEXT,
					query TEXT NOT NULL,
					status TEXT NOT NULL DEFAULT 'pending',
					payload TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_reports_user ON reports(user_id)`,
				`CREATE INDEX idx_reports_status ON reports(status)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate applies any pending schema migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
