package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/storage"
)

const settlementColumns = `id, group_id, batch_id, borrower_id, lender_id, amount,
	borrower_account_id, lender_account_id, settled_by,
	borrower_expense_id, borrower_lending_id, lender_income_id, lender_borrowing_id,
	note, created_at`

// CreateSettlement persists a new settlement record.
func (q *queries) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	// Generate ID if not set
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = q.unix()
	}

	_, err := q.exec(ctx, `
		INSERT INTO settlements (`+settlementColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		settlement.ID,
		settlement.GroupID,
		nullString(settlement.BatchID),
		settlement.BorrowerID,
		settlement.LenderID,
		settlement.Amount,
		settlement.BorrowerAccountID,
		settlement.LenderAccountID,
		settlement.SettledBy,
		settlement.BorrowerExpenseID,
		settlement.BorrowerLendingID,
		settlement.LenderIncomeID,
		settlement.LenderBorrowingID,
		settlement.Note,
		settlement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	return nil
}

// GetSettlement retrieves a settlement by ID.
func (q *queries) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	settlement, err := scanSettlement(q.queryRow(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE id = ?`, settlementID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return settlement, nil
}

// ListSettlementsByGroup retrieves all settlements for a group, newest first.
func (q *queries) ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	rows, err := q.query(ctx, `
		SELECT `+settlementColumns+`
		FROM settlements
		WHERE group_id = ?
		ORDER BY created_at DESC, id
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements by group: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}

func scanSettlement(row scanner) (*models.Settlement, error) {
	s := &models.Settlement{}
	var batchID sql.NullString
	err := row.Scan(
		&s.ID,
		&s.GroupID,
		&batchID,
		&s.BorrowerID,
		&s.LenderID,
		&s.Amount,
		&s.BorrowerAccountID,
		&s.LenderAccountID,
		&s.SettledBy,
		&s.BorrowerExpenseID,
		&s.BorrowerLendingID,
		&s.LenderIncomeID,
		&s.LenderBorrowingID,
		&s.Note,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.BatchID = batchID.String
	return s, nil
}
