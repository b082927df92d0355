package models

// SplitType is the strategy used to divide an expense among members.
type SplitType string

const (
	// SplitEqual divides the amount evenly, cent-exact.
	SplitEqual SplitType = "EQUAL"
	// SplitExact uses caller-provided amounts per member.
	SplitExact SplitType = "EXACT"
	// SplitItemized assigns line items to members and spreads tax/fees proportionally.
	SplitItemized SplitType = "ITEMIZED"
)

// Valid reports whether t is a known split strategy.
func (t SplitType) Valid() bool {
	switch t {
	case SplitEqual, SplitExact, SplitItemized:
		return true
	}
	return false
}

// GroupExpense is a shared expense belonging to a group.
//
// Invariant: the lender amounts and the split amounts each sum to Amount.
type GroupExpense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	GroupID     string
	Description string

	// Amount is the expense total, always > 0.
	Amount float64

	// Date is the Unix timestamp the expense happened on.
	Date int64

	SplitType SplitType

	// AccountID is the optional account the money was paid from.
	AccountID string

	CreatedBy string
	CreatedAt int64

	// Lenders are the members who fronted the money.
	Lenders []GroupLender

	// Splits are the members' owed shares.
	Splits []ExpenseSplit
}

// LenderFraction returns the share of the expense fronted by userID (0..1).
func (e *GroupExpense) LenderFraction(userID string) float64 {
	if e.Amount <= 0 {
		return 0
	}
	var lent float64
	for _, l := range e.Lenders {
		if l.UserID == userID {
			lent += l.Amount
		}
	}
	return lent / e.Amount
}

// HasSettledSplits reports whether any split was paid off by a settlement.
// Splits created settled carry no settlement and do not count.
func (e *GroupExpense) HasSettledSplits() bool {
	for _, s := range e.Splits {
		if s.Settled && s.SettlementID != "" {
			return true
		}
	}
	return false
}

// GroupLender records a member who fronted money for an expense.
type GroupLender struct {
	ID        string
	ExpenseID string
	UserID    string
	Amount    float64
}

// ExpenseSplit records a member's owed share of an expense.
// Settled moves from false to true exactly once.
type ExpenseSplit struct {
	ID        string
	ExpenseID string
	UserID    string
	Amount    float64

	Settled   bool
	SettledAt int64

	// SettlementAccountID is the account the debtor paid from.
	SettlementAccountID string

	// SettlementID links the settlement that closed this split.
	SettlementID string
}

// SplitShare is an unsettled split viewed from one lender's side: the part of
// the split owed to that lender.
type SplitShare struct {
	SplitID     string
	ExpenseID   string
	DebtorID    string
	CreditorID  string
	SplitAmount float64

	// Share is SplitAmount times the creditor's lender fraction.
	Share float64

	ExpenseDate int64
}
