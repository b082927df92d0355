package settlement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mmynk/groupledger/internal/calculator"
	"github.com/mmynk/groupledger/internal/metrics"
	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
	"github.com/mmynk/groupledger/internal/notify"
	"github.com/mmynk/groupledger/internal/storage"
)

// SettleGroup applies the group's simplified transfer plan.
//
// Each transfer commits or rolls back on its own; a failed transfer does not
// stop the rest. A transfer whose parties' live balances no longer support it
// (another request settled them first) is refused with ErrConflict. The result
// lists every transfer with its outcome. Once any transfer commits, every
// member whose balance is now zero has their remaining unsettled splits
// marked settled against the batch.
//
// It returns ErrNoDebtFound when the group is already settled.
func (e *Engine) SettleGroup(ctx context.Context, groupID, actorID, note string) (*BatchResult, error) {
	state, err := e.loadState(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}

	plan := roundEdges(calculator.SimplifyDebts(calculator.PartiesFromBalances(state.balances())))
	if len(plan) == 0 {
		return nil, fmt.Errorf("%w: group %s is settled up", ErrNoDebtFound, state.group.Name)
	}

	result := &BatchResult{BatchID: uuid.New().String()}
	for _, edge := range plan {
		tr := e.applyEdge(ctx, state, result.BatchID, actorID, note, edge)
		result.Transfers = append(result.Transfers, tr)
		result.SplitsSettled += tr.SplitsSettled
	}

	if result.Applied() > 0 {
		swept, err := e.sweep(ctx, state, result)
		if err != nil {
			// The transfers stand; only split bookkeeping is behind.
			slog.Error("Failed to settle remaining splits",
				"group_id", groupID,
				"batch_id", result.BatchID,
				"error", err,
			)
		}
		result.SplitsSettled += swept
	}

	slog.Info("Settlement batch finished",
		"group_id", groupID,
		"batch_id", result.BatchID,
		"applied", result.Applied(),
		"failed", result.Failed(),
		"splits_settled", result.SplitsSettled,
	)

	var applied []notify.Transfer
	for _, tr := range result.Transfers {
		if tr.Err == nil {
			applied = append(applied, notify.Transfer{From: tr.From, To: tr.To, Amount: tr.Amount})
		}
	}
	e.emitter.SettlementApplied(ctx, notify.Settlement{
		Action:    models.ActivityDebtSettlement,
		GroupID:   state.group.ID,
		GroupName: state.group.Name,
		BatchID:   result.BatchID,
		ActorID:   actorID,
		Members:   state.group.MemberIDs(),
		Names:     state.names,
		Transfers: applied,
	})

	return result, nil
}

// applyEdge posts one planned transfer and settles the debtor's splits owed
// directly to the creditor, as far as the amount covers them.
func (e *Engine) applyEdge(ctx context.Context, state *groupState, batchID, actorID, note string, edge calculator.DebtEdge) TransferResult {
	tr := TransferResult{From: edge.From, To: edge.To, Amount: edge.Amount}
	t := transfer{
		groupID:    state.group.ID,
		groupName:  state.group.Name,
		createdBy:  state.group.CreatedBy,
		batchID:    batchID,
		actorID:    actorID,
		debtorID:   edge.From,
		creditorID: edge.To,
		amount:     edge.Amount,
		note:       note,
		names:      state.names,
	}

	var settlement *models.Settlement
	var settled int
	err := e.store.WithTx(ctx, func(q storage.Queries) error {
		if err := q.LockGroup(ctx, t.groupID); err != nil {
			return err
		}
		live, err := liveState(ctx, q, state.group, state.names)
		if err != nil {
			return err
		}
		nets := live.nets()
		if !supports(-nets[t.debtorID], t.amount) || !supports(nets[t.creditorID], t.amount) {
			return fmt.Errorf("%w: %s no longer owes %s %.2f", ErrConflict, t.name(t.debtorID), t.name(t.creditorID), t.amount)
		}

		s, err := e.post(ctx, q, t)
		if err != nil {
			return err
		}

		shares, err := q.ListUnsettledShares(ctx, t.groupID, t.debtorID, t.creditorID)
		if err != nil {
			return err
		}
		ids, _ := coverShares(shares, t.amount)
		if len(ids) > 0 {
			if err := q.MarkSplitsSettled(ctx, ids, s.ID, s.BorrowerAccountID, e.now().Unix()); err != nil {
				return err
			}
		}

		settlement = s
		settled = len(ids)
		return nil
	})
	if err != nil {
		tr.Err = storeError("apply transfer", err)
		if isRejection(tr.Err) {
			slog.Warn("Settlement skipped",
				"group_id", t.groupID,
				"batch_id", batchID,
				"from", t.debtorID,
				"to", t.creditorID,
				"amount", t.amount,
				"error", err,
			)
			return tr
		}
		e.metrics.ObserveTransfer(metrics.EntryBatch, false, 0)
		slog.Error("Settlement failed",
			"group_id", t.groupID,
			"batch_id", batchID,
			"from", t.debtorID,
			"to", t.creditorID,
			"amount", t.amount,
			"error", err,
		)
		return tr
	}

	tr.Settlement = settlement
	tr.SplitsSettled = settled
	e.metrics.ObserveTransfer(metrics.EntryBatch, true, t.amount)
	slog.Info("Settlement applied",
		"group_id", t.groupID,
		"batch_id", batchID,
		"settlement_id", settlement.ID,
		"from", t.debtorID,
		"to", t.creditorID,
		"amount", t.amount,
	)
	return tr
}

// supports reports whether a balance of owed covers amount, allowing a cent
// of rounding.
func supports(owed, amount float64) bool {
	return money.Round2(owed)+money.Epsilon+1e-9 >= amount
}

// sweep settles the remaining unsettled splits of every member whose balance
// is zero after the batch. A member with a transfer in the batch is linked to
// that settlement; anyone else, who was settled through other members'
// transfers, is linked to the batch's first settlement. It runs as one
// transaction.
func (e *Engine) sweep(ctx context.Context, before *groupState, result *BatchResult) (int, error) {
	type link struct {
		settlementID string
		accountID    string
	}
	links := make(map[string]link)
	var first *models.Settlement
	for _, tr := range result.Transfers {
		s := tr.Settlement
		if s == nil {
			continue
		}
		if first == nil {
			first = s
		}
		if _, ok := links[s.BorrowerID]; !ok {
			links[s.BorrowerID] = link{s.ID, s.BorrowerAccountID}
		}
		if _, ok := links[s.LenderID]; !ok {
			links[s.LenderID] = link{s.ID, s.LenderAccountID}
		}
	}
	if first == nil {
		return 0, nil
	}

	swept := 0
	err := e.store.WithTx(ctx, func(q storage.Queries) error {
		if err := q.LockGroup(ctx, before.group.ID); err != nil {
			return err
		}
		after, err := liveState(ctx, q, before.group, before.names)
		if err != nil {
			return err
		}

		settledUp := make(map[string]bool)
		for id, net := range after.nets() {
			if money.IsNoise(net) {
				settledUp[id] = true
			}
		}

		pending := make(map[link][]string)
		var order []link
		for _, exp := range after.expenses {
			for _, sp := range exp.Splits {
				if sp.Settled || !settledUp[sp.UserID] {
					continue
				}
				l, ok := links[sp.UserID]
				if !ok {
					l = link{settlementID: first.ID}
				}
				if _, ok := pending[l]; !ok {
					order = append(order, l)
				}
				pending[l] = append(pending[l], sp.ID)
			}
		}

		settledAt := e.now().Unix()
		for _, l := range order {
			if err := q.MarkSplitsSettled(ctx, pending[l], l.settlementID, l.accountID, settledAt); err != nil {
				return err
			}
			swept += len(pending[l])
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return swept, nil
}
