package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
	"github.com/mmynk/groupledger/internal/storage"
)

// TransferResult is the outcome of one transfer.
type TransferResult struct {
	From   string
	To     string
	Amount float64

	// Settlement is set when the transfer committed.
	Settlement *models.Settlement

	// SplitsSettled counts the splits marked settled by this transfer.
	SplitsSettled int

	// Err is set when the transfer was rolled back.
	Err error
}

// BatchResult reports every transfer in a batch.
type BatchResult struct {
	BatchID   string
	Transfers []TransferResult

	// SplitsSettled counts all splits marked settled by the batch.
	SplitsSettled int
}

// Applied returns the number of committed transfers.
func (r *BatchResult) Applied() int {
	n := 0
	for _, t := range r.Transfers {
		if t.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the number of rolled-back transfers.
func (r *BatchResult) Failed() int {
	return len(r.Transfers) - r.Applied()
}

// Err joins the errors of all failed transfers, or returns nil.
func (r *BatchResult) Err() error {
	var errs []error
	for _, t := range r.Transfers {
		if t.Err != nil {
			errs = append(errs, fmt.Errorf("%s -> %s: %w", t.From, t.To, t.Err))
		}
	}
	return errors.Join(errs...)
}

// transfer is one payment from debtor to creditor, ready to post.
type transfer struct {
	groupID   string
	groupName string
	createdBy string // group creator, owner of a newly provisioned category
	batchID   string
	actorID   string

	debtorID   string
	creditorID string
	amount     float64

	// Optional account overrides. Empty selects the user's "Others" helper account.
	debtorAccountID   string
	creditorAccountID string

	note  string
	names map[string]string
}

func (t *transfer) name(userID string) string {
	if n := t.names[userID]; n != "" {
		return n
	}
	return userID
}

type posting struct {
	entry *models.LedgerEntry
	delta float64
}

// post writes the four ledger postings, applies the four balance adjustments
// and records the settlement. It must run inside WithTx.
//
//	debtor   EXPENSE   on payment account   -amount  SETTLEMENT_PAID
//	debtor   LENDING   on group lending     +amount  SETTLEMENT_PAID
//	creditor INCOME    on receipt account   +amount  SETTLEMENT_RECEIVED
//	creditor BORROWING on group lending     -amount  SETTLEMENT_RECEIVED
func (e *Engine) post(ctx context.Context, q storage.Queries, t transfer) (*models.Settlement, error) {
	if t.amount <= 0 {
		return nil, invalid("transfer amount must be positive, got %.2f", t.amount)
	}

	category, err := q.EnsureGroupCategory(ctx, t.groupID, t.createdBy)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve group category: %w", err)
	}

	debtorPay, err := paymentAccount(ctx, q, t.debtorID, t.debtorAccountID)
	if err != nil {
		return nil, err
	}
	debtorLending, err := q.EnsureHelperAccount(ctx, t.debtorID, models.AccountGroupLending)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve lending account: %w", err)
	}
	creditorReceive, err := paymentAccount(ctx, q, t.creditorID, t.creditorAccountID)
	if err != nil {
		return nil, err
	}
	creditorLending, err := q.EnsureHelperAccount(ctx, t.creditorID, models.AccountGroupLending)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve lending account: %w", err)
	}

	now := e.now().Unix()
	entry := func(kind models.EntryKind, userID, counterparty string, account *models.Account, groupType models.GroupType, description string) *models.LedgerEntry {
		return &models.LedgerEntry{
			Kind:           kind,
			UserID:         userID,
			AccountID:      account.ID,
			CategoryID:     category.ID,
			GroupID:        t.groupID,
			CounterpartyID: counterparty,
			Amount:         t.amount,
			Description:    description,
			GroupType:      groupType,
			CreatedAt:      now,
		}
	}

	paidTo := fmt.Sprintf("Settlement paid to %s (%s)", t.name(t.creditorID), t.groupName)
	receivedFrom := fmt.Sprintf("Settlement received from %s (%s)", t.name(t.debtorID), t.groupName)

	postings := []posting{
		{entry(models.EntryExpense, t.debtorID, t.creditorID, debtorPay, models.GroupTypeSettlementPaid, paidTo), -t.amount},
		{entry(models.EntryLending, t.debtorID, t.creditorID, debtorLending, models.GroupTypeSettlementPaid, paidTo), t.amount},
		{entry(models.EntryIncome, t.creditorID, t.debtorID, creditorReceive, models.GroupTypeSettlementReceived, receivedFrom), t.amount},
		{entry(models.EntryBorrowing, t.creditorID, t.debtorID, creditorLending, models.GroupTypeSettlementReceived, receivedFrom), -t.amount},
	}
	for _, p := range postings {
		if err := q.CreateLedgerEntry(ctx, p.entry); err != nil {
			return nil, err
		}
		if err := q.AdjustAccountBalance(ctx, p.entry.AccountID, p.delta); err != nil {
			return nil, err
		}
	}

	settlement := &models.Settlement{
		GroupID:           t.groupID,
		BatchID:           t.batchID,
		BorrowerID:        t.debtorID,
		LenderID:          t.creditorID,
		Amount:            t.amount,
		BorrowerAccountID: debtorPay.ID,
		LenderAccountID:   creditorReceive.ID,
		SettledBy:         t.actorID,
		BorrowerExpenseID: postings[0].entry.ID,
		BorrowerLendingID: postings[1].entry.ID,
		LenderIncomeID:    postings[2].entry.ID,
		LenderBorrowingID: postings[3].entry.ID,
		Note:              t.note,
		CreatedAt:         now,
	}
	if err := q.CreateSettlement(ctx, settlement); err != nil {
		return nil, err
	}

	return settlement, nil
}

// paymentAccount returns the account a user pays from or receives into:
// the override if given (it must belong to the user), else their "Others" account.
func paymentAccount(ctx context.Context, q storage.Queries, userID, overrideID string) (*models.Account, error) {
	if overrideID == "" {
		account, err := q.EnsureHelperAccount(ctx, userID, models.AccountOthers)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve others account: %w", err)
		}
		return account, nil
	}

	account, err := q.GetAccount(ctx, overrideID)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, unauthorized("account %s does not belong to user %s", overrideID, userID)
	}
	return account, nil
}

// coverShares walks shares oldest first and selects those fully covered by
// budget. It stops at the first share that would exceed it, so a split is
// never settled on partial coverage.
func coverShares(shares []models.SplitShare, budget float64) (ids []string, covered float64) {
	for _, sh := range shares {
		if covered+sh.Share > budget+money.Epsilon {
			break
		}
		covered += sh.Share
		ids = append(ids, sh.SplitID)
	}
	return ids, covered
}

func sumShares(shares []models.SplitShare) float64 {
	var total float64
	for _, sh := range shares {
		total += sh.Share
	}
	return total
}
