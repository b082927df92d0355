package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/groupledger/internal/models"
)

const ledgerColumns = `id, kind, user_id, account_id, category_id, group_id, counterparty_id, amount, description, group_type, created_at`

// CreateLedgerEntry inserts a posting. It does not touch account balances.
func (q *queries) CreateLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt == 0 {
		entry.CreatedAt = q.unix()
	}

	_, err := q.exec(ctx, `
		INSERT INTO ledger_entries (`+ledgerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID,
		string(entry.Kind),
		entry.UserID,
		entry.AccountID,
		nullString(entry.CategoryID),
		nullString(entry.GroupID),
		nullString(entry.CounterpartyID),
		entry.Amount,
		entry.Description,
		nullString(string(entry.GroupType)),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create %s entry: %w", entry.Kind, err)
	}
	return nil
}

// GetLedgerEntries retrieves postings by ID.
func (q *queries) GetLedgerEntries(ctx context.Context, ids []string) (map[string]*models.LedgerEntry, error) {
	entries := make(map[string]*models.LedgerEntry, len(ids))
	if len(ids) == 0 {
		return entries, nil
	}

	rows, err := q.query(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries WHERE id IN (`+placeholders(len(ids))+`)`,
		stringArgs(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}
	return entries, nil
}

// ListLedgerEntriesByUser returns a user's postings, newest first.
func (q *queries) ListLedgerEntriesByUser(ctx context.Context, userID string, limit int) ([]*models.LedgerEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := q.query(ctx, `
		SELECT `+ledgerColumns+`
		FROM ledger_entries
		WHERE user_id = ?
		ORDER BY created_at DESC, id
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}
	return entries, nil
}

func scanLedgerEntry(row scanner) (*models.LedgerEntry, error) {
	e := &models.LedgerEntry{}
	var (
		kind           string
		categoryID     sql.NullString
		groupID        sql.NullString
		counterpartyID sql.NullString
		groupType      sql.NullString
	)
	err := row.Scan(
		&e.ID,
		&kind,
		&e.UserID,
		&e.AccountID,
		&categoryID,
		&groupID,
		&counterpartyID,
		&e.Amount,
		&e.Description,
		&groupType,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Kind = models.EntryKind(kind)
	e.CategoryID = categoryID.String
	e.GroupID = groupID.String
	e.CounterpartyID = counterpartyID.String
	e.GroupType = models.GroupType(groupType.String)
	return e, nil
}
