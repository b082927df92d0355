// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/groupledger/internal/models"
)

var (
	// ErrNotFound is returned (wrapped) when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned (wrapped) when a write collides with existing state,
	// e.g. a duplicate membership or a split that was settled concurrently.
	ErrConflict = errors.New("conflict")
)

// UserStore persists registered users.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUsersByIDs returns a map of user ID to User. Unknown IDs are omitted.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// GroupStore persists groups and memberships.
type GroupStore interface {
	// CreateGroup persists a group with its initial members.
	// The group.ID and CreatedAt fields will be populated by the store.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup returns a group with its members in join order.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsByUser returns the groups userID belongs to, newest first.
	ListGroupsByUser(ctx context.Context, userID string) ([]*models.Group, error)

	// AddGroupMember adds a membership; ErrConflict if it already exists.
	AddGroupMember(ctx context.Context, member *models.GroupMember) error
	RemoveGroupMember(ctx context.Context, groupID, userID string) error
	DeleteGroup(ctx context.Context, groupID string) error

	// LockGroup holds the group's row lock until the surrounding transaction
	// ends, so transactions that lock the same group run one at a time.
	// ErrNotFound if the group does not exist.
	LockGroup(ctx context.Context, groupID string) error
}

// ExpenseStore persists group expenses with their lenders and splits.
type ExpenseStore interface {
	// CreateExpense persists an expense with its lenders and splits.
	// IDs and CreatedAt are populated by the store.
	CreateExpense(ctx context.Context, expense *models.GroupExpense) error
	GetExpense(ctx context.Context, expenseID string) (*models.GroupExpense, error)

	// ListExpensesByGroup returns a group's expenses, newest first, with lenders and splits.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.GroupExpense, error)
	DeleteExpense(ctx context.Context, expenseID string) error

	// GetSplits returns the splits with the given IDs. Unknown IDs are omitted.
	GetSplits(ctx context.Context, splitIDs []string) ([]*models.ExpenseSplit, error)

	// ListUnsettledShares returns debtorID's unsettled splits on group expenses
	// fronted (at least partly) by creditorID, oldest expense first.
	ListUnsettledShares(ctx context.Context, groupID, debtorID, creditorID string) ([]models.SplitShare, error)

	// MarkSplitsSettled flips unsettled splits to settled. If any split is
	// missing or already settled it returns ErrConflict; run it inside WithTx so
	// the partial update rolls back.
	MarkSplitsSettled(ctx context.Context, splitIDs []string, settlementID, accountID string, settledAt int64) error
}

// AccountStore persists accounts and categories.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)
	ListAccountsByUser(ctx context.Context, userID string) ([]*models.Account, error)

	// EnsureHelperAccount returns the user's helper account of the given type,
	// creating it with a zero balance on first use. Safe under concurrent callers.
	EnsureHelperAccount(ctx context.Context, userID string, accountType models.AccountType) (*models.Account, error)

	// AdjustAccountBalance atomically adds delta to the account balance.
	AdjustAccountBalance(ctx context.Context, accountID string, delta float64) error

	// EnsureGroupCategory returns the group's "Group Expenses" category,
	// creating it if the group predates category provisioning.
	EnsureGroupCategory(ctx context.Context, groupID, createdBy string) (*models.Category, error)
}

// LedgerStore persists personal ledger postings.
type LedgerStore interface {
	CreateLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error

	// GetLedgerEntries returns a map of entry ID to entry. Unknown IDs are omitted.
	GetLedgerEntries(ctx context.Context, ids []string) (map[string]*models.LedgerEntry, error)
	ListLedgerEntriesByUser(ctx context.Context, userID string, limit int) ([]*models.LedgerEntry, error)
}

// SettlementStore persists settlement records. Settlements are never updated.
type SettlementStore interface {
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)
}

// FeedStore persists notifications and the group activity log.
type FeedStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID string) error

	LogActivity(ctx context.Context, a *models.Activity) error
	ListActivity(ctx context.Context, groupID string, limit int) ([]*models.Activity, error)
}

// Queries is every storage operation. It is implemented both by the Store and
// by the transaction handle passed to WithTx.
type Queries interface {
	UserStore
	GroupStore
	ExpenseStore
	AccountStore
	LedgerStore
	SettlementStore
	FeedStore
}

// Store defines the interface for storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	Queries

	// WithTx runs fn inside one transaction. The transaction commits if fn
	// returns nil and rolls back otherwise. fn must only use the Queries it is given.
	WithTx(ctx context.Context, fn func(q Queries) error) error

	// Close releases any resources held by the store.
	Close() error
}
