package sqlstore

import (
	"context"
	"fmt"
)

// schema contains the SQL statements that set up the database.
// They run on startup and must stay valid for both SQLite and PostgreSQL,
// so timestamps are BIGINT Unix seconds and booleans are INTEGER 0/1.
// Tables are ordered so foreign key targets exist first.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS user_groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_by TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,

	// user_id has no foreign key: members may be referenced before they register.
	`CREATE TABLE IF NOT EXISTS group_members (
		group_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		position INTEGER NOT NULL,
		joined_at BIGINT NOT NULL,
		PRIMARY KEY (group_id, user_id),
		FOREIGN KEY (group_id) REFERENCES user_groups(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		group_id TEXT,
		user_id TEXT,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		FOREIGN KEY (group_id) REFERENCES user_groups(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		balance DOUBLE PRECISION NOT NULL DEFAULT 0,
		is_system INTEGER NOT NULL DEFAULT 0,
		created_at BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS group_expenses (
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL,
		description TEXT NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		expense_date BIGINT NOT NULL,
		split_type TEXT NOT NULL,
		account_id TEXT,
		created_by TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		FOREIGN KEY (group_id) REFERENCES user_groups(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS group_lenders (
		id TEXT PRIMARY KEY,
		expense_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		position INTEGER NOT NULL,
		FOREIGN KEY (expense_id) REFERENCES group_expenses(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS expense_splits (
		id TEXT PRIMARY KEY,
		expense_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		position INTEGER NOT NULL,
		settled INTEGER NOT NULL DEFAULT 0,
		settled_at BIGINT,
		settlement_account_id TEXT,
		settlement_id TEXT,
		FOREIGN KEY (expense_id) REFERENCES group_expenses(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS ledger_entries (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		user_id TEXT NOT NULL,
		account_id TEXT NOT NULL,
		category_id TEXT,
		group_id TEXT,
		counterparty_id TEXT,
		amount DOUBLE PRECISION NOT NULL,
		description TEXT NOT NULL,
		group_type TEXT,
		created_at BIGINT NOT NULL
	)`,

	// Settlements outlive their group so the audit trail survives deletion.
	`CREATE TABLE IF NOT EXISTS settlements (
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL,
		batch_id TEXT,
		borrower_id TEXT NOT NULL,
		lender_id TEXT NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		borrower_account_id TEXT NOT NULL,
		lender_account_id TEXT NOT NULL,
		settled_by TEXT NOT NULL,
		borrower_expense_id TEXT NOT NULL,
		borrower_lending_id TEXT NOT NULL,
		lender_income_id TEXT NOT NULL,
		lender_borrowing_id TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		type TEXT NOT NULL,
		related_id TEXT,
		is_read INTEGER NOT NULL DEFAULT 0,
		created_at BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		description TEXT NOT NULL,
		user_id TEXT NOT NULL,
		group_id TEXT,
		entity_type TEXT,
		entity_id TEXT,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at BIGINT NOT NULL
	)`,

	// One helper account per user and type.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_helper ON accounts(user_id, type) WHERE is_system = 1`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_group ON categories(group_id, name, kind) WHERE group_id IS NOT NULL`,

	`CREATE INDEX IF NOT EXISTS idx_group_members_user_id ON group_members(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_group_expenses_group_id ON group_expenses(group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_group_lenders_expense_id ON group_lenders(expense_id)`,
	`CREATE INDEX IF NOT EXISTS idx_expense_splits_expense_id ON expense_splits(expense_id)`,
	`CREATE INDEX IF NOT EXISTS idx_expense_splits_user_id ON expense_splits(user_id, settled)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_entries_user_id ON ledger_entries(user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_settlements_group_id ON settlements(group_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_activities_group_id ON activities(group_id, created_at)`,
}

// runMigrations executes the schema setup.
func (s *Store) runMigrations(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := s.sqlDB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
