package settlement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
)

// Issue kinds reported by Reconcile.
const (
	IssueLenderSum         = "lender_sum"
	IssueSplitSum          = "split_sum"
	IssueOrphanSplit       = "orphan_split"
	IssueMissingSettlement = "missing_settlement"
	IssueMissingPosting    = "missing_posting"
	IssuePostingMismatch   = "posting_mismatch"
	IssueZeroSum           = "zero_sum"
	IssueStaleSplit        = "stale_split"
)

// Issue is one broken invariant.
type Issue struct {
	Kind     string
	EntityID string
	Detail   string
}

// Report is the outcome of a reconciliation.
type Report struct {
	GroupID       string
	Expenses      int
	Settlements   int
	SettledSplits int
	Issues        []Issue
}

// OK reports whether no issue was found.
func (r *Report) OK() bool {
	return len(r.Issues) == 0
}

func (r *Report) add(kind, entityID, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Kind: kind, EntityID: entityID, Detail: fmt.Sprintf(format, args...)})
}

// Reconcile checks a group's books. Group admins only.
//
// It verifies that lenders and splits add up to each expense, that every
// settled split points at an existing settlement (unless the split's owner
// fronted the whole expense), that every settlement has its four postings
// with matching kind, owner and amount, and that balances sum to zero.
// Unsettled splits held by members whose balance is zero are reported too:
// the debt behind them was paid through other members.
func (e *Engine) Reconcile(ctx context.Context, groupID, actorID string) (*Report, error) {
	state, err := e.loadState(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}
	if !state.group.IsAdmin(actorID) {
		return nil, unauthorized("only group admins can reconcile")
	}

	report := &Report{
		GroupID:     groupID,
		Expenses:    len(state.expenses),
		Settlements: len(state.settlements),
	}

	settlements := make(map[string]*models.Settlement, len(state.settlements))
	for _, s := range state.settlements {
		settlements[s.ID] = s
	}

	nets := state.nets()

	for _, exp := range state.expenses {
		var lent, split float64
		for _, l := range exp.Lenders {
			lent += l.Amount
		}
		for _, sp := range exp.Splits {
			split += sp.Amount
		}
		if !money.EqualCents(lent, exp.Amount) {
			report.add(IssueLenderSum, exp.ID, "lenders sum to %.2f, expense is %.2f", lent, exp.Amount)
		}
		if !money.EqualCents(split, exp.Amount) {
			report.add(IssueSplitSum, exp.ID, "splits sum to %.2f, expense is %.2f", split, exp.Amount)
		}

		for _, sp := range exp.Splits {
			if !sp.Settled {
				if money.IsNoise(nets[sp.UserID]) && exp.LenderFraction(sp.UserID) < 1-1e-9 {
					report.add(IssueStaleSplit, sp.ID, "split of %s is unsettled but their balance is zero", sp.UserID)
				}
				continue
			}
			report.SettledSplits++
			switch {
			case sp.SettlementID == "":
				if exp.LenderFraction(sp.UserID) < 1-1e-9 {
					report.add(IssueOrphanSplit, sp.ID, "split of %s is settled without a settlement", sp.UserID)
				}
			case settlements[sp.SettlementID] == nil:
				report.add(IssueMissingSettlement, sp.ID, "settlement %s does not exist", sp.SettlementID)
			}
		}
	}

	var postingIDs []string
	for _, s := range state.settlements {
		postingIDs = append(postingIDs, s.PostingIDs()...)
	}
	entries, err := e.store.GetLedgerEntries(ctx, postingIDs)
	if err != nil {
		return nil, storeError("get ledger entries", err)
	}

	for _, s := range state.settlements {
		expected := []struct {
			id     string
			kind   models.EntryKind
			userID string
		}{
			{s.BorrowerExpenseID, models.EntryExpense, s.BorrowerID},
			{s.BorrowerLendingID, models.EntryLending, s.BorrowerID},
			{s.LenderIncomeID, models.EntryIncome, s.LenderID},
			{s.LenderBorrowingID, models.EntryBorrowing, s.LenderID},
		}
		for _, want := range expected {
			got := entries[want.id]
			if got == nil {
				report.add(IssueMissingPosting, s.ID, "%s posting %s does not exist", want.kind, want.id)
				continue
			}
			if got.Kind != want.kind || got.UserID != want.userID || !money.Equal(got.Amount, s.Amount) {
				report.add(IssuePostingMismatch, s.ID, "posting %s is %s %.2f for %s, want %s %.2f for %s",
					got.ID, got.Kind, got.Amount, got.UserID, want.kind, s.Amount, want.userID)
			}
		}
	}

	var sum float64
	for _, net := range nets {
		sum += net
	}
	if !money.IsNoise(sum) {
		report.add(IssueZeroSum, groupID, "balances sum to %.2f", sum)
	}

	slog.Info("Reconciliation finished",
		"group_id", groupID,
		"expenses", report.Expenses,
		"settlements", report.Settlements,
		"issues", len(report.Issues),
	)
	return report, nil
}
