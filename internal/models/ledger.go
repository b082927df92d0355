package models

// EntryKind is the type of personal ledger posting.
type EntryKind string

const (
	EntryExpense   EntryKind = "EXPENSE"
	EntryIncome    EntryKind = "INCOME"
	EntryLending   EntryKind = "LENDING"
	EntryBorrowing EntryKind = "BORROWING"
)

// GroupType marks ledger entries generated by group activity.
type GroupType string

const (
	GroupTypeSettlementPaid     GroupType = "SETTLEMENT_PAID"
	GroupTypeSettlementReceived GroupType = "SETTLEMENT_RECEIVED"
)

// LedgerEntry is a single posting in a user's personal ledger.
type LedgerEntry struct {
	ID         string
	Kind       EntryKind
	UserID     string
	AccountID  string
	CategoryID string
	GroupID    string

	// CounterpartyID is the other user for lending/borrowing and settlement postings.
	CounterpartyID string

	Amount      float64
	Description string
	GroupType   GroupType
	CreatedAt   int64
}
