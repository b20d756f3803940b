package config

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// SetupDatabase initializes the database connection
func SetupDatabase(cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// createTables creates the necessary tables in the database
func createTables(db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL,
			password VARCHAR(255) NOT NULL,
			avatar_url TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS groups (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			created_by VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS group_members (
			group_id VARCHAR(36) NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			role VARCHAR(10) NOT NULL DEFAULT 'member',
			joined_at TIMESTAMP NOT NULL,
			PRIMARY KEY (group_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS debts (
			id VARCHAR(36) PRIMARY KEY,
			group_id VARCHAR(36) NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
			from_user_id VARCHAR(36) NOT NULL REFERENCES users(id),
			to_user_id VARCHAR(36) NOT NULL REFERENCES users(id),
			amount NUMERIC(12,2) NOT NULL CHECK (amount >= 0),
			currency VARCHAR(3) NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settlements (
			id VARCHAR(36) PRIMARY KEY,
			group_id VARCHAR(36) NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
			from_user_id VARCHAR(36) NOT NULL REFERENCES users(id),
			to_user_id VARCHAR(36) NOT NULL REFERENCES users(id),
			amount NUMERIC(12,2) NOT NULL CHECK (amount >= 0.01),
			currency VARCHAR(3) NOT NULL,
			optimized BOOLEAN NOT NULL DEFAULT FALSE,
			created_by VARCHAR(36) NOT NULL REFERENCES users(id),
			note TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id VARCHAR(36) PRIMARY KEY,
			group_id VARCHAR(36) NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
			paid_by VARCHAR(36) NOT NULL REFERENCES users(id),
			description TEXT NOT NULL,
			amount NUMERIC(12,2) NOT NULL CHECK (amount >= 0),
			currency VARCHAR(3) NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS expense_shares (
			expense_id VARCHAR(36) NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id),
			amount NUMERIC(12,2) NOT NULL CHECK (amount >= 0),
			paid BOOLEAN NOT NULL DEFAULT FALSE,
			assigned_at TIMESTAMP NOT NULL,
			due_at TIMESTAMP NOT NULL,
			paid_at TIMESTAMP,
			PRIMARY KEY (expense_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id VARCHAR(36) PRIMARY KEY,
			group_id VARCHAR(36) NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
			assigned_to VARCHAR(36) NOT NULL REFERENCES users(id),
			title VARCHAR(255) NOT NULL,
			status VARCHAR(10) NOT NULL DEFAULT 'pending',
			assigned_at TIMESTAMP NOT NULL,
			due_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP,
			verified_issues INT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS task_swaps (
			id VARCHAR(36) PRIMARY KEY,
			task_id VARCHAR(36) NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			group_id VARCHAR(36) NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
			requester_id VARCHAR(36) NOT NULL REFERENCES users(id),
			requested_id VARCHAR(36) NOT NULL REFERENCES users(id),
			status VARCHAR(10) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	// Create indexes for better performance
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_debts_group_id ON debts(group_id)",
		"CREATE INDEX IF NOT EXISTS idx_settlements_group_id ON settlements(group_id)",
		"CREATE INDEX IF NOT EXISTS idx_expenses_group_id ON expenses(group_id)",
		"CREATE INDEX IF NOT EXISTS idx_expense_shares_user_id ON expense_shares(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_tasks_group_assignee ON tasks(group_id, assigned_to)",
		"CREATE INDEX IF NOT EXISTS idx_task_swaps_group_id ON task_swaps(group_id)",
	}

	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			slog.Warn("Failed to create index", "error", err)
			// Indexes are not critical; keep going.
		}
	}

	return nil
}
