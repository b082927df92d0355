package settlement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mmynk/groupledger/internal/metrics"
	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
	"github.com/mmynk/groupledger/internal/notify"
	"github.com/mmynk/groupledger/internal/storage"
)

// SplitsRequest settles a list of the caller's own splits.
type SplitsRequest struct {
	GroupID  string
	ActorID  string
	SplitIDs []string

	// AccountID optionally selects the caller's account to pay from.
	AccountID string

	Note string
}

// SettleSplits pays off the given splits. Each split's amount is owed to the
// expense's lenders in proportion to what they fronted; the caller pays every
// lender in one transfer. All transfers and split updates commit together.
func (e *Engine) SettleSplits(ctx context.Context, req SplitsRequest) (*BatchResult, error) {
	group, err := e.loadGroup(ctx, req.GroupID, req.ActorID)
	if err != nil {
		return nil, err
	}
	if len(req.SplitIDs) == 0 {
		return nil, invalid("at least one split is required")
	}
	seen := make(map[string]bool, len(req.SplitIDs))
	for _, id := range req.SplitIDs {
		if id == "" {
			return nil, invalid("split id is required")
		}
		if seen[id] {
			return nil, invalid("split %s listed twice", id)
		}
		seen[id] = true
	}

	splits, err := e.store.GetSplits(ctx, req.SplitIDs)
	if err != nil {
		return nil, storeError("get splits", err)
	}
	if len(splits) != len(req.SplitIDs) {
		return nil, fmt.Errorf("%w: %d of %d splits do not exist", ErrNotFound, len(req.SplitIDs)-len(splits), len(req.SplitIDs))
	}

	expenses := make(map[string]*models.GroupExpense)
	for _, sp := range splits {
		if sp.UserID != req.ActorID {
			return nil, unauthorized("split %s belongs to another member", sp.ID)
		}
		if sp.Settled {
			return nil, invalid("split %s is already settled", sp.ID)
		}
		if _, ok := expenses[sp.ExpenseID]; ok {
			continue
		}
		exp, err := e.store.GetExpense(ctx, sp.ExpenseID)
		if err != nil {
			return nil, storeError("get expense", err)
		}
		if exp.GroupID != group.ID {
			return nil, invalid("split %s is not in group %s", sp.ID, group.ID)
		}
		expenses[sp.ExpenseID] = exp
	}

	// Amount owed to each lender, in order of first appearance.
	owed := make(map[string]float64)
	var creditors []string
	primary := make(map[string]string) // split ID to the lender owed the most
	for _, sp := range splits {
		exp := expenses[sp.ExpenseID]
		var best float64
		for _, l := range exp.Lenders {
			if l.UserID == req.ActorID || exp.Amount <= 0 {
				continue
			}
			share := sp.Amount * l.Amount / exp.Amount
			if _, ok := owed[l.UserID]; !ok {
				creditors = append(creditors, l.UserID)
			}
			owed[l.UserID] += share
			if share > best {
				best = share
				primary[sp.ID] = l.UserID
			}
		}
	}

	var total float64
	for _, amount := range owed {
		total += amount
	}
	if money.IsNoise(total) {
		return nil, fmt.Errorf("%w: the selected splits are not owed to anyone", ErrNoDebtFound)
	}

	names := e.resolveNames(ctx, &groupState{group: group})
	result := &BatchResult{BatchID: uuid.New().String()}

	err = e.store.WithTx(ctx, func(q storage.Queries) error {
		result.Transfers = result.Transfers[:0]
		bySettlement := make(map[string]*models.Settlement)

		for _, creditorID := range creditors {
			amount := money.Round2(owed[creditorID])
			if amount <= 0 {
				continue
			}
			s, err := e.post(ctx, q, transfer{
				groupID:         group.ID,
				groupName:       group.Name,
				createdBy:       group.CreatedBy,
				batchID:         result.BatchID,
				actorID:         req.ActorID,
				debtorID:        req.ActorID,
				creditorID:      creditorID,
				amount:          amount,
				debtorAccountID: req.AccountID,
				note:            req.Note,
				names:           names,
			})
			if err != nil {
				return err
			}
			bySettlement[creditorID] = s
			result.Transfers = append(result.Transfers, TransferResult{
				From:       req.ActorID,
				To:         creditorID,
				Amount:     amount,
				Settlement: s,
			})
		}
		if len(result.Transfers) == 0 {
			return fmt.Errorf("%w: nothing left to pay after rounding", ErrNoDebtFound)
		}

		fallback := result.Transfers[0].Settlement
		grouped := make(map[*models.Settlement][]string)
		var order []*models.Settlement
		for _, sp := range splits {
			s, ok := bySettlement[primary[sp.ID]]
			if !ok {
				s = fallback
			}
			if _, ok := grouped[s]; !ok {
				order = append(order, s)
			}
			grouped[s] = append(grouped[s], sp.ID)
		}

		settledAt := e.now().Unix()
		for _, s := range order {
			if err := q.MarkSplitsSettled(ctx, grouped[s], s.ID, s.BorrowerAccountID, settledAt); err != nil {
				return err
			}
			for i := range result.Transfers {
				if result.Transfers[i].Settlement == s {
					result.Transfers[i].SplitsSettled = len(grouped[s])
				}
			}
		}
		result.SplitsSettled = len(splits)
		return nil
	})
	if err != nil {
		if !isRejection(err) {
			for range creditors {
				e.metrics.ObserveTransfer(metrics.EntrySplits, false, 0)
			}
			slog.Error("Split settlement failed",
				"group_id", group.ID,
				"user_id", req.ActorID,
				"splits", len(splits),
				"error", err,
			)
		}
		return nil, storeError("settle splits", err)
	}

	transfers := make([]notify.Transfer, len(result.Transfers))
	for i, tr := range result.Transfers {
		e.metrics.ObserveTransfer(metrics.EntrySplits, true, tr.Amount)
		transfers[i] = notify.Transfer{From: tr.From, To: tr.To, Amount: tr.Amount}
	}

	slog.Info("Splits settled",
		"group_id", group.ID,
		"batch_id", result.BatchID,
		"user_id", req.ActorID,
		"splits", result.SplitsSettled,
		"transfers", len(result.Transfers),
	)

	e.emitter.SettlementApplied(ctx, notify.Settlement{
		Action:    models.ActivitySplitsSettled,
		GroupID:   group.ID,
		GroupName: group.Name,
		BatchID:   result.BatchID,
		ActorID:   req.ActorID,
		Members:   group.MemberIDs(),
		Names:     names,
		Transfers: transfers,
	})

	return result, nil
}
