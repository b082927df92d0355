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

const accountColumns = `id, user_id, name, type, balance, is_system, created_at`

// CreateAccount inserts a user-managed account.
func (q *queries) CreateAccount(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if account.CreatedAt == 0 {
		account.CreatedAt = q.unix()
	}

	_, err := q.exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		account.ID,
		account.UserID,
		account.Name,
		string(account.Type),
		account.Balance,
		boolInt(account.System),
		account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetAccount retrieves an account by ID.
func (q *queries) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := scanAccount(q.queryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, accountID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// ListAccountsByUser retrieves a user's accounts, user-managed ones first.
func (q *queries) ListAccountsByUser(ctx context.Context, userID string) ([]*models.Account, error) {
	rows, err := q.query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE user_id = ?
		ORDER BY is_system, created_at, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

// EnsureHelperAccount returns the user's system account of accountType,
// creating it on first use. A concurrent creator loses on the unique index
// and re-reads the winner's row.
func (q *queries) EnsureHelperAccount(ctx context.Context, userID string, accountType models.AccountType) (*models.Account, error) {
	if !accountType.IsHelper() {
		return nil, fmt.Errorf("account type %s is not a helper type", accountType)
	}

	account, err := q.findHelperAccount(ctx, userID, accountType)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to find helper account: %w", err)
	}

	_, err = q.exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, 0, 1, ?)
		ON CONFLICT DO NOTHING
	`, uuid.New().String(), userID, models.HelperAccountName(accountType), string(accountType), q.unix())
	if err != nil {
		return nil, fmt.Errorf("failed to create helper account: %w", err)
	}

	account, err = q.findHelperAccount(ctx, userID, accountType)
	if err != nil {
		return nil, fmt.Errorf("failed to read helper account: %w", err)
	}
	return account, nil
}

func (q *queries) findHelperAccount(ctx context.Context, userID string, accountType models.AccountType) (*models.Account, error) {
	return scanAccount(q.queryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE user_id = ? AND type = ? AND is_system = 1
	`, userID, string(accountType)))
}

// AdjustAccountBalance adds delta to the stored balance in a single statement.
func (q *queries) AdjustAccountBalance(ctx context.Context, accountID string, delta float64) error {
	res, err := q.exec(ctx, `UPDATE accounts SET balance = balance + ? WHERE id = ?`, delta, accountID)
	if err != nil {
		return fmt.Errorf("failed to adjust account balance: %w", err)
	}
	return expectRows(res, "account", accountID)
}

// EnsureGroupCategory returns the group's shared expense category, creating it
// when missing.
func (q *queries) EnsureGroupCategory(ctx context.Context, groupID, createdBy string) (*models.Category, error) {
	category, err := q.findGroupCategory(ctx, groupID)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to find group category: %w", err)
	}

	_, err = q.exec(ctx, `
		INSERT INTO categories (id, group_id, user_id, name, kind, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, uuid.New().String(), groupID, nullString(createdBy), models.GroupExpensesCategory, string(models.CategoryExpense), q.unix())
	if err != nil {
		return nil, fmt.Errorf("failed to create group category: %w", err)
	}

	category, err = q.findGroupCategory(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to read group category: %w", err)
	}
	return category, nil
}

func (q *queries) findGroupCategory(ctx context.Context, groupID string) (*models.Category, error) {
	c := &models.Category{}
	var userID sql.NullString
	var kind string
	err := q.queryRow(ctx, `
		SELECT id, group_id, user_id, name, kind, created_at
		FROM categories
		WHERE group_id = ? AND name = ? AND kind = ?
	`, groupID, models.GroupExpensesCategory, string(models.CategoryExpense)).Scan(
		&c.ID, &c.GroupID, &userID, &c.Name, &kind, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.UserID = userID.String
	c.Kind = models.CategoryKind(kind)
	return c, nil
}

func scanAccount(row scanner) (*models.Account, error) {
	a := &models.Account{}
	var accountType string
	var system int64
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &accountType, &a.Balance, &system, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.Type = models.AccountType(accountType)
	a.System = system != 0
	return a, nil
}
