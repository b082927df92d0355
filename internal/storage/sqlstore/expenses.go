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

const expenseColumns = `id, group_id, description, amount, expense_date, split_type, account_id, created_by, created_at`

const splitColumns = `id, expense_id, user_id, amount, settled, settled_at, settlement_account_id, settlement_id`

// CreateExpense inserts an expense with its lenders and splits in one transaction.
// Sets IDs and CreatedAt on the expense and its children.
func (q *queries) CreateExpense(ctx context.Context, expense *models.GroupExpense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = q.unix()
	}
	if expense.Date == 0 {
		expense.Date = expense.CreatedAt
	}

	return q.inTx(ctx, func(tx *queries) error {
		_, err := tx.exec(ctx, `
			INSERT INTO group_expenses (`+expenseColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			expense.ID,
			expense.GroupID,
			expense.Description,
			expense.Amount,
			expense.Date,
			string(expense.SplitType),
			nullString(expense.AccountID),
			expense.CreatedBy,
			expense.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}

		for i := range expense.Lenders {
			l := &expense.Lenders[i]
			l.ID = uuid.New().String()
			l.ExpenseID = expense.ID
			_, err := tx.exec(ctx, `
				INSERT INTO group_lenders (id, expense_id, user_id, amount, position)
				VALUES (?, ?, ?, ?, ?)
			`, l.ID, l.ExpenseID, l.UserID, l.Amount, i+1)
			if err != nil {
				return fmt.Errorf("failed to insert lender: %w", err)
			}
		}

		for i := range expense.Splits {
			s := &expense.Splits[i]
			s.ID = uuid.New().String()
			s.ExpenseID = expense.ID

			// A split can be created settled when nobody else is owed for it.
			var settledAt any
			if s.Settled {
				if s.SettledAt == 0 {
					s.SettledAt = expense.CreatedAt
				}
				settledAt = s.SettledAt
			}
			_, err := tx.exec(ctx, `
				INSERT INTO expense_splits (id, expense_id, user_id, amount, position, settled, settled_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, s.ID, s.ExpenseID, s.UserID, s.Amount, i+1, boolInt(s.Settled), settledAt)
			if err != nil {
				return fmt.Errorf("failed to insert split: %w", err)
			}
		}

		return nil
	})
}

// GetExpense retrieves an expense with its lenders and splits.
func (q *queries) GetExpense(ctx context.Context, expenseID string) (*models.GroupExpense, error) {
	expense, err := scanExpense(q.queryRow(ctx,
		`SELECT `+expenseColumns+` FROM group_expenses WHERE id = ?`, expenseID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := q.loadExpenseParts(ctx, []*models.GroupExpense{expense}); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpensesByGroup retrieves a group's expenses, newest first.
func (q *queries) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.GroupExpense, error) {
	rows, err := q.query(ctx, `
		SELECT `+expenseColumns+`
		FROM group_expenses
		WHERE group_id = ?
		ORDER BY expense_date DESC, created_at DESC, id
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	var expenses []*models.GroupExpense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	rows.Close()

	if err := q.loadExpenseParts(ctx, expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// loadExpenseParts fills Lenders and Splits for the given expenses.
func (q *queries) loadExpenseParts(ctx context.Context, expenses []*models.GroupExpense) error {
	if len(expenses) == 0 {
		return nil
	}
	byID := make(map[string]*models.GroupExpense, len(expenses))
	ids := make([]string, len(expenses))
	for i, e := range expenses {
		byID[e.ID] = e
		ids[i] = e.ID
	}
	in := placeholders(len(ids))

	lenderRows, err := q.query(ctx, `
		SELECT id, expense_id, user_id, amount
		FROM group_lenders
		WHERE expense_id IN (`+in+`)
		ORDER BY expense_id, position
	`, stringArgs(ids)...)
	if err != nil {
		return fmt.Errorf("failed to get lenders: %w", err)
	}
	for lenderRows.Next() {
		var l models.GroupLender
		if err := lenderRows.Scan(&l.ID, &l.ExpenseID, &l.UserID, &l.Amount); err != nil {
			lenderRows.Close()
			return fmt.Errorf("failed to scan lender: %w", err)
		}
		byID[l.ExpenseID].Lenders = append(byID[l.ExpenseID].Lenders, l)
	}
	if err := lenderRows.Err(); err != nil {
		lenderRows.Close()
		return fmt.Errorf("error iterating lenders: %w", err)
	}
	lenderRows.Close()

	splitRows, err := q.query(ctx, `
		SELECT `+splitColumns+`
		FROM expense_splits
		WHERE expense_id IN (`+in+`)
		ORDER BY expense_id, position
	`, stringArgs(ids)...)
	if err != nil {
		return fmt.Errorf("failed to get splits: %w", err)
	}
	defer splitRows.Close()
	for splitRows.Next() {
		s, err := scanSplit(splitRows)
		if err != nil {
			return fmt.Errorf("failed to scan split: %w", err)
		}
		byID[s.ExpenseID].Splits = append(byID[s.ExpenseID].Splits, *s)
	}
	if err := splitRows.Err(); err != nil {
		return fmt.Errorf("error iterating splits: %w", err)
	}

	return nil
}

// DeleteExpense deletes an expense. Lenders and splits cascade.
func (q *queries) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := q.exec(ctx, `DELETE FROM group_expenses WHERE id = ?`, expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return expectRows(res, "expense", expenseID)
}

// GetSplits retrieves splits by ID.
func (q *queries) GetSplits(ctx context.Context, splitIDs []string) ([]*models.ExpenseSplit, error) {
	if len(splitIDs) == 0 {
		return nil, nil
	}

	rows, err := q.query(ctx, `
		SELECT `+splitColumns+`
		FROM expense_splits
		WHERE id IN (`+placeholders(len(splitIDs))+`)
		ORDER BY expense_id, position
	`, stringArgs(splitIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	var splits []*models.ExpenseSplit
	for rows.Next() {
		s, err := scanSplit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		splits = append(splits, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating splits: %w", err)
	}
	return splits, nil
}

// ListUnsettledShares returns debtorID's unsettled splits on expenses that
// creditorID lent on, with the creditor's proportional share of each split.
func (q *queries) ListUnsettledShares(ctx context.Context, groupID, debtorID, creditorID string) ([]models.SplitShare, error) {
	rows, err := q.query(ctx, `
		SELECT s.id, s.expense_id, s.amount, e.amount, e.expense_date, SUM(l.amount)
		FROM expense_splits s
		JOIN group_expenses e ON e.id = s.expense_id
		JOIN group_lenders l ON l.expense_id = e.id AND l.user_id = ?
		WHERE e.group_id = ? AND s.user_id = ? AND s.settled = 0
		GROUP BY s.id, s.expense_id, s.amount, e.amount, e.expense_date, e.created_at, s.position
		ORDER BY e.expense_date, e.created_at, s.position
	`, creditorID, groupID, debtorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsettled splits: %w", err)
	}
	defer rows.Close()

	var shares []models.SplitShare
	for rows.Next() {
		var (
			sh            models.SplitShare
			expenseAmount float64
			lent          float64
		)
		if err := rows.Scan(&sh.SplitID, &sh.ExpenseID, &sh.SplitAmount, &expenseAmount, &sh.ExpenseDate, &lent); err != nil {
			return nil, fmt.Errorf("failed to scan split share: %w", err)
		}
		sh.DebtorID = debtorID
		sh.CreditorID = creditorID
		if expenseAmount > 0 {
			sh.Share = sh.SplitAmount * lent / expenseAmount
		}
		shares = append(shares, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating split shares: %w", err)
	}
	return shares, nil
}

// MarkSplitsSettled settles every split in splitIDs, or none of them.
func (q *queries) MarkSplitsSettled(ctx context.Context, splitIDs []string, settlementID, accountID string, settledAt int64) error {
	return q.inTx(ctx, func(tx *queries) error {
		for _, id := range splitIDs {
			res, err := tx.exec(ctx, `
				UPDATE expense_splits
				SET settled = 1, settled_at = ?, settlement_account_id = ?, settlement_id = ?
				WHERE id = ? AND settled = 0
			`, settledAt, nullString(accountID), nullString(settlementID), id)
			if err != nil {
				return fmt.Errorf("failed to mark split settled: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read affected rows: %w", err)
			}
			if n == 0 {
				return fmt.Errorf("split %s missing or already settled: %w", id, storage.ErrConflict)
			}
		}
		return nil
	})
}

func scanExpense(row scanner) (*models.GroupExpense, error) {
	e := &models.GroupExpense{}
	var splitType string
	var accountID sql.NullString
	err := row.Scan(
		&e.ID,
		&e.GroupID,
		&e.Description,
		&e.Amount,
		&e.Date,
		&splitType,
		&accountID,
		&e.CreatedBy,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.SplitType = models.SplitType(splitType)
	e.AccountID = accountID.String
	return e, nil
}

func scanSplit(row scanner) (*models.ExpenseSplit, error) {
	s := &models.ExpenseSplit{}
	var (
		settled      int64
		settledAt    sql.NullInt64
		accountID    sql.NullString
		settlementID sql.NullString
	)
	err := row.Scan(&s.ID, &s.ExpenseID, &s.UserID, &s.Amount, &settled, &settledAt, &accountID, &settlementID)
	if err != nil {
		return nil, err
	}
	s.Settled = settled != 0
	s.SettledAt = settledAt.Int64
	s.SettlementAccountID = accountID.String
	s.SettlementID = settlementID.String
	return s, nil
}
