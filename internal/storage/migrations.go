package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 4

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
				`CREATE TABLE IF NOT EXISTS accounts (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					balance TEXT NOT NULL DEFAULT '0',
					currency TEXT NOT NULL,
					display_order INTEGER,
					hidden INTEGER NOT NULL DEFAULT 0,
					monthly_target TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					kind TEXT NOT NULL DEFAULT 'entry',
					category_type TEXT NOT NULL DEFAULT 'expense',
					parent_id INTEGER REFERENCES categories(id) ON DELETE CASCADE,
					icon TEXT NOT NULL DEFAULT 'tag',
					color TEXT NOT NULL DEFAULT '#607D8B',
					is_shadow INTEGER NOT NULL DEFAULT 0
				)`,
				`CREATE INDEX idx_categories_parent ON categories(parent_id)`,

				`CREATE TABLE IF NOT EXISTS operations (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					type TEXT NOT NULL,
					amount TEXT NOT NULL,
					account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
					category_id INTEGER REFERENCES categories(id) ON DELETE SET NULL,
					to_account_id INTEGER,
					date TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					exchange_rate TEXT,
					destination_amount TEXT,
					source_currency TEXT NOT NULL DEFAULT '',
					destination_currency TEXT NOT NULL DEFAULT '',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_operations_account ON operations(account_id)`,
				`CREATE INDEX idx_operations_category ON operations(category_id)`,
				`CREATE INDEX idx_operations_date ON operations(date)`,
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
		Description: "Add budgets",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS budgets (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
					amount TEXT NOT NULL,
					currency TEXT NOT NULL,
					period_type TEXT NOT NULL,
					start_date TEXT NOT NULL,
					end_date TEXT,
					is_recurring INTEGER NOT NULL DEFAULT 1,
					rollover_enabled INTEGER NOT NULL DEFAULT 0,
					include_children INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_budgets_category ON budgets(category_id)`,
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
		Description: "Add planned operations",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS planned_operations (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					type TEXT NOT NULL,
					amount TEXT NOT NULL,
					account_id INTEGER NOT NULL,
					category_id INTEGER,
					to_account_id INTEGER,
					is_recurring INTEGER NOT NULL DEFAULT 1,
					last_executed_month TEXT,
					display_order INTEGER NOT NULL DEFAULT 0
				)`,
				`CREATE INDEX idx_planned_operations_order ON planned_operations(display_order)`,
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
		Version:     4,
		Description: "Seed shadow category for balance adjustments",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				INSERT INTO categories (name, kind, category_type, icon, color, is_shadow)
				SELECT 'Balance adjustment', 'entry', 'expense', 'tune', '#9E9E9E', 1
				WHERE NOT EXISTS (SELECT 1 FROM categories WHERE is_shadow = 1)
			`)
			if err != nil {
				return fmt.Errorf("failed to seed shadow category: %w", err)
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
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
