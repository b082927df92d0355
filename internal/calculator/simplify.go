package calculator

import (
	"math"
	"sort"

	"github.com/mmynk/groupledger/internal/money"
)

// Party is anyone holding a net balance. Positive = owed money, Negative = owes money.
type Party struct {
	ID      string
	Balance float64
}

// DebtEdge represents a debt from one person to another.
type DebtEdge struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount float64
}

// SimplifyDebts computes transfers that bring every party's balance to zero.
//
// It is the greedy largest-creditor/largest-debtor heuristic: creditors and
// debtors are each sorted by amount, largest first (stable, so ties keep input
// order), and matched with two pointers. Each step moves min(credit, debt).
// Amounts of a cent or less are never emitted, and a party whose remainder is
// a cent or less is considered settled. The result is deterministic but not a
// guaranteed minimum number of transfers; it emits at most
// len(creditors)+len(debtors)-1 of them.
//
// Input balances are not modified. Residue left by floating-point drift on an
// input that does not sum to zero is dropped.
func SimplifyDebts(parties []Party) []DebtEdge {
	var creditors, debtors []Party
	for _, p := range parties {
		switch {
		case p.Balance > 0:
			creditors = append(creditors, p)
		case p.Balance < 0:
			debtors = append(debtors, Party{ID: p.ID, Balance: -p.Balance}) // Make positive
		}
	}

	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].Balance > creditors[j].Balance })
	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].Balance > debtors[j].Balance })

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(creditors) && j < len(debtors) {
		creditor := &creditors[i]
		debtor := &debtors[j]

		amount := math.Min(creditor.Balance, debtor.Balance)
		if !money.IsNoise(amount) {
			edges = append(edges, DebtEdge{
				From:   debtor.ID,
				To:     creditor.ID,
				Amount: amount,
			})
		}

		creditor.Balance -= amount
		debtor.Balance -= amount

		if money.IsNoise(creditor.Balance) {
			i++
		}
		if money.IsNoise(debtor.Balance) {
			j++
		}
	}

	return edges
}
