package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/groupledger/pkg/api"
)

// fourParty leaves alice owed 50, bob owed 30, and carol and dave owing 40 each.
func fourParty(t *testing.T, env *testEnv) *api.Group {
	t.Helper()
	group := env.createGroup(t, "Cabin", "alice", "bob", "carol", "dave")
	env.createExpense(t, "alice", &api.CreateExpenseRequest{
		GroupId:   group.Id,
		Amount:    80,
		SplitType: "EXACT",
		Lenders:   []*api.Lender{{UserId: "alice", Amount: 50}, {UserId: "bob", Amount: 30}},
		Splits:    []*api.Split{{UserId: "carol", Amount: 40}, {UserId: "dave", Amount: 40}},
	})
	return group
}

func TestGetGroupBalances(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	group := fourParty(t, env)

	resp, err := env.settlements.GetGroupBalances(ctx, as("carol", &api.GetGroupBalancesRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("GetGroupBalances failed: %v", err)
	}
	if len(resp.Msg.Balances) != 4 {
		t.Fatalf("expected 4 balances, got %d", len(resp.Msg.Balances))
	}
	var sum float64
	for _, b := range resp.Msg.Balances {
		sum += b.NetBalance
	}
	if !near(sum, 0) {
		t.Errorf("expected balances to sum to zero, got %.2f", sum)
	}
	alice := resp.Msg.Balances[0]
	if alice.UserId != "alice" || alice.DisplayName != "Alice" || !near(alice.TotalLent, 50) || !near(alice.NetBalance, 50) {
		t.Errorf("unexpected balance for alice: %+v", alice)
	}

	plan, err := env.settlements.GetDebtSettlement(ctx, as("dave", &api.GetDebtSettlementRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("GetDebtSettlement failed: %v", err)
	}
	want := []struct {
		from, to, fromName string
		amount             float64
	}{
		{"carol", "alice", "Carol", 40},
		{"dave", "alice", "Dave", 10},
		{"dave", "bob", "Dave", 30},
	}
	if len(plan.Msg.Transfers) != len(want) {
		t.Fatalf("expected %d transfers, got %d", len(want), len(plan.Msg.Transfers))
	}
	for i, w := range want {
		e := plan.Msg.Transfers[i]
		if e.FromUserId != w.from || e.ToUserId != w.to || e.FromName != w.fromName || !near(e.Amount, w.amount) {
			t.Errorf("transfer %d: got %+v, want %s->%s %.2f", i, e, w.from, w.to, w.amount)
		}
	}

	_, err = env.settlements.GetGroupBalances(ctx, connect.NewRequest(&api.GetGroupBalancesRequest{GroupId: group.Id}))
	assertCode(t, err, connect.CodeUnauthenticated)

	outsider := env.createGroup(t, "Solo", "alice")
	_, err = env.settlements.GetGroupBalances(ctx, as("bob", &api.GetGroupBalancesRequest{GroupId: outsider.Id}))
	assertCode(t, err, connect.CodePermissionDenied)

	_, err = env.settlements.GetGroupBalances(ctx, as("bob", &api.GetGroupBalancesRequest{GroupId: "missing"}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestSettleDebts(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	group := fourParty(t, env)

	resp, err := env.settlements.SettleDebts(ctx, as("dave", &api.SettleDebtsRequest{GroupId: group.Id, Note: "cabin weekend"}))
	if err != nil {
		t.Fatalf("SettleDebts failed: %v", err)
	}
	msg := resp.Msg
	if msg.NoDebtsFound {
		t.Fatal("expected debts to settle")
	}
	if msg.BatchId == "" || msg.Applied != 3 || msg.Failed != 0 {
		t.Fatalf("unexpected result: %+v", msg)
	}
	if msg.SplitsSettled != 2 {
		t.Errorf("expected 2 splits settled, got %d", msg.SplitsSettled)
	}
	for _, r := range msg.Results {
		if r.Error != "" || r.Settlement == nil || r.Settlement.BatchId != msg.BatchId {
			t.Errorf("unexpected transfer result: %+v", r)
		}
		if r.Settlement != nil && (r.Settlement.SettledBy != "dave" || r.Settlement.Note != "cabin weekend") {
			t.Errorf("unexpected settlement: %+v", r.Settlement)
		}
	}

	for user, net := range env.nets(t, group.Id, "alice") {
		if !near(net, 0) {
			t.Errorf("expected %s to be settled up, got %.2f", user, net)
		}
	}

	list, err := env.settlements.ListSettlements(ctx, as("bob", &api.ListSettlementsRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("ListSettlements failed: %v", err)
	}
	if len(list.Msg.Settlements) != 3 {
		t.Errorf("expected 3 settlements, got %d", len(list.Msg.Settlements))
	}

	again, err := env.settlements.SettleDebts(ctx, as("dave", &api.SettleDebtsRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("second SettleDebts failed: %v", err)
	}
	if !again.Msg.NoDebtsFound || len(again.Msg.Results) != 0 {
		t.Errorf("expected no debts on a settled group, got %+v", again.Msg)
	}

	report, err := env.settlements.Reconcile(ctx, as("alice", &api.ReconcileRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !report.Msg.Ok || len(report.Msg.Issues) != 0 {
		t.Errorf("expected clean books, got %+v", report.Msg.Issues)
	}
	if report.Msg.Expenses != 1 || report.Msg.Settlements != 3 || report.Msg.SettledSplits != 2 {
		t.Errorf("unexpected reconcile counts: %+v", report.Msg)
	}

	_, err = env.settlements.Reconcile(ctx, as("carol", &api.ReconcileRequest{GroupId: group.Id}))
	assertCode(t, err, connect.CodePermissionDenied)

	for _, user := range []string{"alice", "bob"} {
		n, err := env.notifications.ListNotifications(ctx, as(user, &api.ListNotificationsRequest{}))
		if err != nil {
			t.Fatalf("ListNotifications failed: %v", err)
		}
		var received bool
		for _, item := range n.Msg.Notifications {
			if item.Type == "GROUP_PAYMENT_RECEIVED" {
				received = true
			}
		}
		if !received {
			t.Errorf("expected %s to be notified of a payment", user)
		}
	}
}

func TestRecordPaymentAndReceipt(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	group := env.createGroup(t, "Flat", "alice", "bob")

	bank, err := env.accounts.CreateAccount(ctx, as("bob", &api.CreateAccountRequest{Name: "Checking", Type: "bank", Balance: 500}))
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	env.createExpense(t, "alice", &api.CreateExpenseRequest{GroupId: group.Id, Description: "Rent", Amount: 60})

	paid, err := env.settlements.RecordPayment(ctx, as("bob", &api.RecordPaymentRequest{
		GroupId:   group.Id,
		ToUserId:  "alice",
		AccountId: bank.Msg.Account.Id,
	}))
	if err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	s := paid.Msg.Settlement
	if s == nil || s.FromUserId != "bob" || s.ToUserId != "alice" || !near(s.Amount, 30) {
		t.Fatalf("unexpected settlement: %+v", s)
	}
	if s.FromAccountId != bank.Msg.Account.Id {
		t.Errorf("expected payment from bob's bank account, got %q", s.FromAccountId)
	}
	if paid.Msg.SplitsSettled != 1 {
		t.Errorf("expected 1 split settled, got %d", paid.Msg.SplitsSettled)
	}

	accounts, err := env.accounts.ListAccounts(ctx, as("bob", &api.ListAccountsRequest{}))
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	for _, a := range accounts.Msg.Accounts {
		if a.Id == bank.Msg.Account.Id && !near(a.Balance, 470) {
			t.Errorf("expected bank balance 470, got %.2f", a.Balance)
		}
	}

	entries, err := env.accounts.ListLedgerEntries(ctx, as("bob", &api.ListLedgerEntriesRequest{}))
	if err != nil {
		t.Fatalf("ListLedgerEntries failed: %v", err)
	}
	if len(entries.Msg.Entries) != 2 {
		t.Errorf("expected 2 postings for bob, got %d", len(entries.Msg.Entries))
	}
	for _, e := range entries.Msg.Entries {
		if e.GroupId != group.Id || e.CounterpartyId != "alice" || !near(e.Amount, 30) {
			t.Errorf("unexpected posting: %+v", e)
		}
	}

	again, err := env.settlements.RecordPayment(ctx, as("bob", &api.RecordPaymentRequest{GroupId: group.Id, ToUserId: "alice"}))
	if err != nil {
		t.Fatalf("second RecordPayment failed: %v", err)
	}
	if !again.Msg.NoDebtsFound {
		t.Error("expected NoDebtsFound once bob is settled")
	}

	env.createExpense(t, "alice", &api.CreateExpenseRequest{GroupId: group.Id, Description: "Power", Amount: 40})
	received, err := env.settlements.RecordReceipt(ctx, as("alice", &api.RecordReceiptRequest{GroupId: group.Id, FromUserId: "bob"}))
	if err != nil {
		t.Fatalf("RecordReceipt failed: %v", err)
	}
	if r := received.Msg.Settlement; r == nil || r.FromUserId != "bob" || r.SettledBy != "alice" || !near(r.Amount, 20) {
		t.Errorf("unexpected receipt: %+v", received.Msg.Settlement)
	}

	tests := []struct {
		name string
		req  *api.RecordPaymentRequest
		code connect.Code
	}{
		{"self", &api.RecordPaymentRequest{GroupId: group.Id, ToUserId: "bob"}, connect.CodeInvalidArgument},
		{"missing counterparty", &api.RecordPaymentRequest{GroupId: group.Id}, connect.CodeInvalidArgument},
		{"non-member counterparty", &api.RecordPaymentRequest{GroupId: group.Id, ToUserId: "carol"}, connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.settlements.RecordPayment(ctx, as("bob", tt.req))
			assertCode(t, err, tt.code)
		})
	}
}

func TestSettleSplitsRPC(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	group := env.createGroup(t, "Trip", "alice", "bob", "carol")

	expense := env.createExpense(t, "alice", &api.CreateExpenseRequest{GroupId: group.Id, Amount: 90})
	splits := splitsByUser(expense)

	_, err := env.settlements.SettleSplits(ctx, as("carol", &api.SettleSplitsRequest{
		GroupId:  group.Id,
		SplitIds: []string{splits["bob"].Id},
	}))
	assertCode(t, err, connect.CodePermissionDenied)

	_, err = env.settlements.SettleSplits(ctx, as("carol", &api.SettleSplitsRequest{GroupId: group.Id}))
	assertCode(t, err, connect.CodeInvalidArgument)

	resp, err := env.settlements.SettleSplits(ctx, as("carol", &api.SettleSplitsRequest{
		GroupId:  group.Id,
		SplitIds: []string{splits["carol"].Id},
	}))
	if err != nil {
		t.Fatalf("SettleSplits failed: %v", err)
	}
	if len(resp.Msg.Results) != 1 || resp.Msg.SplitsSettled != 1 {
		t.Fatalf("unexpected result: %+v", resp.Msg)
	}
	if r := resp.Msg.Results[0]; r.ToUserId != "alice" || !near(r.Amount, 30) {
		t.Errorf("unexpected transfer: %+v", r)
	}

	nets := env.nets(t, group.Id, "alice")
	if !near(nets["alice"], 30) || !near(nets["bob"], -30) || !near(nets["carol"], 0) {
		t.Errorf("unexpected balances: %v", nets)
	}

	got, err := env.expenses.GetExpense(ctx, as("carol", &api.GetExpenseRequest{ExpenseId: expense.Id}))
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if s := splitsByUser(got.Msg.Expense)["carol"]; !s.Settled || s.SettlementId != resp.Msg.Results[0].Settlement.Id {
		t.Errorf("expected carol's split settled by the new settlement, got %+v", s)
	}
}

func TestAccounts(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	for _, typ := range []string{"GROUP_LENDING", "OTHERS", ""} {
		_, err := env.accounts.CreateAccount(ctx, as("alice", &api.CreateAccountRequest{Name: "x", Type: typ}))
		assertCode(t, err, connect.CodeInvalidArgument)
	}
	_, err := env.accounts.CreateAccount(ctx, as("alice", &api.CreateAccountRequest{Name: " ", Type: "CASH"}))
	assertCode(t, err, connect.CodeInvalidArgument)

	created, err := env.accounts.CreateAccount(ctx, as("alice", &api.CreateAccountRequest{Name: "Wallet", Type: "CASH", Balance: 40}))
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	if created.Msg.Account.Type != "CASH" || created.Msg.Account.System {
		t.Errorf("unexpected account: %+v", created.Msg.Account)
	}

	list, err := env.accounts.ListAccounts(ctx, as("alice", &api.ListAccountsRequest{}))
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	if len(list.Msg.Accounts) != 1 || list.Msg.Accounts[0].Name != "Wallet" || !near(list.Msg.Accounts[0].Balance, 40) {
		t.Errorf("unexpected accounts: %+v", list.Msg.Accounts)
	}

	list, err = env.accounts.ListAccounts(ctx, as("bob", &api.ListAccountsRequest{}))
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	if len(list.Msg.Accounts) != 0 {
		t.Errorf("expected bob to have no accounts, got %d", len(list.Msg.Accounts))
	}
}
