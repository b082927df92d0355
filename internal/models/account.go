package models

// AccountType classifies an account.
type AccountType string

const (
	AccountBank AccountType = "BANK"
	AccountCash AccountType = "CASH"
	AccountCard AccountType = "CARD"

	// AccountOthers is the helper catch-all account used for settlement cash flows.
	AccountOthers AccountType = "OTHERS"
	// AccountGroupLending tracks a user's net group credit/debit.
	AccountGroupLending AccountType = "GROUP_LENDING"
)

// IsHelper reports whether the type is a system-managed helper account type.
func (t AccountType) IsHelper() bool {
	return t == AccountOthers || t == AccountGroupLending
}

// Valid reports whether t is a type users may create directly.
func (t AccountType) Valid() bool {
	switch t {
	case AccountBank, AccountCash, AccountCard:
		return true
	}
	return false
}

// HelperAccountName returns the display name for a helper account type.
func HelperAccountName(t AccountType) string {
	switch t {
	case AccountOthers:
		return "Others"
	case AccountGroupLending:
		return "Group Lending/Borrowing"
	}
	return string(t)
}

// Account is a user's money container.
type Account struct {
	ID      string
	UserID  string
	Name    string
	Type    AccountType
	Balance float64

	// System is true for helper accounts. There is at most one per (user, type).
	System bool

	CreatedAt int64
}

// CategoryKind distinguishes expense and income categories.
type CategoryKind string

const (
	CategoryExpense CategoryKind = "EXPENSE"
	CategoryIncome  CategoryKind = "INCOME"
)

// GroupExpensesCategory is the name of the category provisioned for each group.
const GroupExpensesCategory = "Group Expenses"

// Category classifies ledger entries. Group categories have GroupID set.
type Category struct {
	ID        string
	GroupID   string
	UserID    string
	Name      string
	Kind      CategoryKind
	CreatedAt int64
}
