package settlement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/groupledger/internal/metrics"
	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
	"github.com/mmynk/groupledger/internal/notify"
	"github.com/mmynk/groupledger/internal/storage"
)

// PairRequest settles what one member owes another.
type PairRequest struct {
	GroupID        string
	ActorID        string
	CounterpartyID string

	// AccountID optionally selects the caller's own account for the payment
	// (RecordPayment) or the receipt (RecordReceipt).
	AccountID string

	Note string
}

// RecordPayment records that the caller paid the counterparty.
func (e *Engine) RecordPayment(ctx context.Context, req PairRequest) (*TransferResult, error) {
	return e.settlePair(ctx, req, true)
}

// RecordReceipt records that the caller received payment from the counterparty.
func (e *Engine) RecordReceipt(ctx context.Context, req PairRequest) (*TransferResult, error) {
	return e.settlePair(ctx, req, false)
}

// settlePair settles the net outstanding unsettled splits between two members.
// Splits the creditor owes the debtor are netted off and settled alongside.
// The amount is capped by the debtor's net debt and the creditor's net credit
// in the group, so a member already settled through others pays nothing.
func (e *Engine) settlePair(ctx context.Context, req PairRequest, actorPays bool) (*TransferResult, error) {
	entryPoint := metrics.EntryReceipt
	if actorPays {
		entryPoint = metrics.EntryPayment
	}

	group, err := e.loadGroup(ctx, req.GroupID, req.ActorID)
	if err != nil {
		return nil, err
	}
	if req.CounterpartyID == "" {
		return nil, invalid("counterparty is required")
	}
	if req.CounterpartyID == req.ActorID {
		return nil, invalid("cannot settle with yourself")
	}
	if group.Member(req.CounterpartyID) == nil {
		return nil, invalid("user %s is not a member of group %s", req.CounterpartyID, req.GroupID)
	}

	debtorID, creditorID := req.ActorID, req.CounterpartyID
	if !actorPays {
		debtorID, creditorID = creditorID, debtorID
	}

	names := e.resolveNames(ctx, &groupState{group: group})
	t := transfer{
		groupID:    group.ID,
		groupName:  group.Name,
		createdBy:  group.CreatedBy,
		actorID:    req.ActorID,
		debtorID:   debtorID,
		creditorID: creditorID,
		note:       req.Note,
		names:      names,
	}
	if actorPays {
		t.debtorAccountID = req.AccountID
	} else {
		t.creditorAccountID = req.AccountID
	}

	result := &TransferResult{From: debtorID, To: creditorID}
	err = e.store.WithTx(ctx, func(q storage.Queries) error {
		if err := q.LockGroup(ctx, group.ID); err != nil {
			return err
		}
		live, err := liveState(ctx, q, group, names)
		if err != nil {
			return err
		}
		nets := live.nets()

		forward, err := q.ListUnsettledShares(ctx, group.ID, debtorID, creditorID)
		if err != nil {
			return err
		}
		reverse, err := q.ListUnsettledShares(ctx, group.ID, creditorID, debtorID)
		if err != nil {
			return err
		}

		reverseTotal := sumShares(reverse)
		outstanding := sumShares(forward) - reverseTotal
		outstanding = min(outstanding, -nets[debtorID], nets[creditorID])
		if outstanding <= 0 || money.IsNoise(outstanding) {
			return fmt.Errorf("%w: %s owes %s nothing in group %s", ErrNoDebtFound, t.name(debtorID), t.name(creditorID), group.Name)
		}

		t.amount = money.Round2(outstanding)
		result.Amount = t.amount

		settlement, err := e.post(ctx, q, t)
		if err != nil {
			return err
		}

		forwardIDs, covered := coverShares(forward, t.amount+reverseTotal)
		reverseIDs, _ := coverShares(reverse, covered-t.amount)

		settledAt := e.now().Unix()
		if len(forwardIDs) > 0 {
			if err := q.MarkSplitsSettled(ctx, forwardIDs, settlement.ID, settlement.BorrowerAccountID, settledAt); err != nil {
				return err
			}
		}
		if len(reverseIDs) > 0 {
			if err := q.MarkSplitsSettled(ctx, reverseIDs, settlement.ID, settlement.LenderAccountID, settledAt); err != nil {
				return err
			}
		}

		result.Settlement = settlement
		result.SplitsSettled = len(forwardIDs) + len(reverseIDs)
		return nil
	})
	if err != nil {
		if !isRejection(err) {
			e.metrics.ObserveTransfer(entryPoint, false, 0)
			slog.Error("Settlement failed",
				"group_id", group.ID,
				"from", debtorID,
				"to", creditorID,
				"error", err,
			)
		}
		return nil, storeError("settle balance", err)
	}

	e.metrics.ObserveTransfer(entryPoint, true, result.Amount)
	slog.Info("Settlement applied",
		"group_id", group.ID,
		"settlement_id", result.Settlement.ID,
		"from", debtorID,
		"to", creditorID,
		"amount", result.Amount,
		"splits_settled", result.SplitsSettled,
	)

	e.emitter.SettlementApplied(ctx, notify.Settlement{
		Action:    models.ActivityBalanceSettled,
		GroupID:   group.ID,
		GroupName: group.Name,
		BatchID:   result.Settlement.ID,
		ActorID:   req.ActorID,
		Members:   group.MemberIDs(),
		Names:     names,
		Transfers: []notify.Transfer{{From: debtorID, To: creditorID, Amount: result.Amount}},
	})

	return result, nil
}
