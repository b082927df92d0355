package calculator

import "github.com/mmynk/groupledger/internal/money"

// Member identifies a group member for balance calculations.
type Member struct {
	UserID   string
	UserName string
}

// SplitForBalance is one owed share of an expense.
type SplitForBalance struct {
	UserID  string
	Amount  float64
	Settled bool
}

// ExpenseForBalance represents an expense with the minimal information needed for balance calculations.
type ExpenseForBalance struct {
	Amount  float64
	Lenders []Share
	Splits  []SplitForBalance
}

// SettlementForBalance represents a settlement with the minimal information needed for balance calculations.
type SettlementForBalance struct {
	FromUserID string // Who paid (debtor settling up)
	ToUserID   string // Who received (creditor being paid)
	Amount     float64
}

// MemberBalance represents the balance information for one group member.
type MemberBalance struct {
	UserID   string
	UserName string

	TotalLent     float64 // Sum of lender amounts across all expenses
	TotalBorrowed float64 // Sum of split amounts owed across all expenses

	SettledPaid     float64 // Settlements paid to other members
	SettledReceived float64 // Settlements received from other members

	// Outstanding is the part of this member's unsettled splits that is owed to
	// someone else. A member's share of an expense they paid for is never outstanding.
	Outstanding float64

	NetBalance float64 // Positive = owed money, Negative = owes money
}

// Rounded returns a copy with every amount rounded to cents for display.
func (b MemberBalance) Rounded() MemberBalance {
	b.TotalLent = money.Round2(b.TotalLent)
	b.TotalBorrowed = money.Round2(b.TotalBorrowed)
	b.SettledPaid = money.Round2(b.SettledPaid)
	b.SettledReceived = money.Round2(b.SettledReceived)
	b.Outstanding = money.Round2(b.Outstanding)
	b.NetBalance = money.Round2(b.NetBalance)
	return b
}

// AggregateBalances computes one balance per member across a group's expenses
// and recorded settlements.
//
// Algorithm:
//   - Every member starts at zero, so members without activity still appear
//   - For each expense: each lender is credited their lender amount, each ower
//     is debited their split amount
//   - For each settlement: the payer's balance improves, the receiver's decreases
//   - net_balance = total_lent - total_borrowed + settled_paid - settled_received
//
// The result is zero-sum. Users that appear in expenses or settlements but are
// no longer members are appended after the members, in first-seen order, so the
// sum still balances.
func AggregateBalances(members []Member, expenses []ExpenseForBalance, settlements []SettlementForBalance) []MemberBalance {
	balances := make(map[string]*MemberBalance, len(members))
	var order []string

	get := func(userID string) *MemberBalance {
		if b, ok := balances[userID]; ok {
			return b
		}
		b := &MemberBalance{UserID: userID, UserName: userID}
		balances[userID] = b
		order = append(order, userID)
		return b
	}

	for _, m := range members {
		b := get(m.UserID)
		if m.UserName != "" {
			b.UserName = m.UserName
		}
	}

	for _, exp := range expenses {
		for _, l := range exp.Lenders {
			get(l.UserID).TotalLent += l.Amount
		}
		for _, s := range exp.Splits {
			b := get(s.UserID)
			b.TotalBorrowed += s.Amount
			if !s.Settled {
				b.Outstanding += s.Amount * (1 - lenderFraction(exp, s.UserID))
			}
		}
	}

	for _, s := range settlements {
		get(s.FromUserID).SettledPaid += s.Amount
		get(s.ToUserID).SettledReceived += s.Amount
	}

	result := make([]MemberBalance, 0, len(order))
	for _, id := range order {
		b := balances[id]
		b.NetBalance = b.TotalLent - b.TotalBorrowed + b.SettledPaid - b.SettledReceived
		result = append(result, *b)
	}
	return result
}

// CalculateGroupBalances aggregates balances and simplifies the resulting debts.
func CalculateGroupBalances(members []Member, expenses []ExpenseForBalance, settlements []SettlementForBalance) ([]MemberBalance, []DebtEdge) {
	balances := AggregateBalances(members, expenses, settlements)
	return balances, SimplifyDebts(PartiesFromBalances(balances))
}

// PartiesFromBalances converts member balances into simplification input,
// preserving order.
func PartiesFromBalances(balances []MemberBalance) []Party {
	parties := make([]Party, len(balances))
	for i, b := range balances {
		parties[i] = Party{ID: b.UserID, Balance: b.NetBalance}
	}
	return parties
}

func lenderFraction(exp ExpenseForBalance, userID string) float64 {
	if exp.Amount <= 0 {
		return 0
	}
	var lent float64
	for _, l := range exp.Lenders {
		if l.UserID == userID {
			lent += l.Amount
		}
	}
	return lent / exp.Amount
}
