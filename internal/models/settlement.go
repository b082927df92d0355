package models

// Settlement is an immutable record of a debtor paying a creditor within a group,
// together with the four ledger postings it generated.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	GroupID string

	// BatchID groups settlements applied by a single request.
	BatchID string

	// BorrowerID is the user who paid (debtor settling up).
	BorrowerID string

	// LenderID is the user who received payment (creditor being paid).
	LenderID string

	Amount float64

	BorrowerAccountID string
	LenderAccountID   string

	// SettledBy is the user who recorded this settlement.
	SettledBy string

	// Posting IDs, one per ledger entry written for this settlement.
	BorrowerExpenseID string
	BorrowerLendingID string
	LenderIncomeID    string
	LenderBorrowingID string

	// Note is an optional description for the settlement.
	Note string

	CreatedAt int64
}

// PostingIDs returns the four ledger entry IDs in posting order.
func (s *Settlement) PostingIDs() []string {
	return []string{s.BorrowerExpenseID, s.BorrowerLendingID, s.LenderIncomeID, s.LenderBorrowingID}
}
