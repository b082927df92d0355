package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/groupledger/pkg/api"
)

func splitsByUser(e *api.Expense) map[string]*api.Split {
	out := make(map[string]*api.Split, len(e.Splits))
	for _, s := range e.Splits {
		out[s.UserId] = s
	}
	return out
}

func TestCreateExpenseEqual(t *testing.T) {
	env := setupTestServer(t)
	group := env.createGroup(t, "Trip", "alice", "bob", "carol")

	expense := env.createExpense(t, "alice", &api.CreateExpenseRequest{
		GroupId:     group.Id,
		Description: "Groceries",
		Amount:      100,
	})

	if expense.SplitType != "EQUAL" {
		t.Errorf("expected default split type EQUAL, got %q", expense.SplitType)
	}
	if len(expense.Lenders) != 1 || expense.Lenders[0].UserId != "alice" || expense.Lenders[0].Amount != 100 {
		t.Errorf("expected alice to front 100, got %+v", expense.Lenders)
	}

	splits := splitsByUser(expense)
	if len(splits) != 3 {
		t.Fatalf("expected 3 splits, got %d", len(splits))
	}
	want := map[string]float64{"alice": 33.34, "bob": 33.33, "carol": 33.33}
	for user, amount := range want {
		if !near(splits[user].Amount, amount) {
			t.Errorf("expected %s to owe %.2f, got %.2f", user, amount, splits[user].Amount)
		}
	}
	if !splits["alice"].Settled {
		t.Error("expected the lender's own split to be settled")
	}
	if splits["alice"].SettlementId != "" {
		t.Error("expected the lender's own split to carry no settlement")
	}
	if splits["bob"].Settled || splits["carol"].Settled {
		t.Error("expected borrower splits to be unsettled")
	}

	nets := env.nets(t, group.Id, "bob")
	if !near(nets["alice"], 66.66) || !near(nets["bob"], -33.33) || !near(nets["carol"], -33.33) {
		t.Errorf("unexpected balances: %v", nets)
	}
}

func TestCreateExpenseExactAndItemized(t *testing.T) {
	env := setupTestServer(t)
	group := env.createGroup(t, "Trip", "alice", "bob", "carol")

	exact := env.createExpense(t, "bob", &api.CreateExpenseRequest{
		GroupId:   group.Id,
		Amount:    100,
		SplitType: "exact",
		Lenders:   []*api.Lender{{UserId: "alice", Amount: 60}, {UserId: "bob", Amount: 40}},
		Splits:    []*api.Split{{UserId: "bob", Amount: 70}, {UserId: "carol", Amount: 30}},
	})
	if exact.SplitType != "EXACT" {
		t.Errorf("expected EXACT, got %q", exact.SplitType)
	}
	if splitsByUser(exact)["bob"].Settled {
		t.Error("expected bob's split to stay unsettled when he fronted only part of the bill")
	}

	itemized := env.createExpense(t, "carol", &api.CreateExpenseRequest{
		GroupId:   group.Id,
		Amount:    44,
		SplitType: "ITEMIZED",
		Items: []*api.Item{
			{Description: "Pizza", Amount: 30, AssignedTo: []string{"alice", "bob"}},
			{Description: "Salad", Amount: 10, AssignedTo: []string{"carol"}},
		},
	})
	splits := splitsByUser(itemized)
	want := map[string]float64{"alice": 16.5, "bob": 16.5, "carol": 11}
	for user, amount := range want {
		if splits[user] == nil || !near(splits[user].Amount, amount) {
			t.Errorf("expected %s to owe %.2f, got %+v", user, amount, splits[user])
		}
	}

	list, err := env.expenses.ListExpenses(context.Background(), as("alice", &api.ListExpensesRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(list.Msg.Expenses) != 2 {
		t.Errorf("expected 2 expenses, got %d", len(list.Msg.Expenses))
	}

	got, err := env.expenses.GetExpense(context.Background(), as("carol", &api.GetExpenseRequest{ExpenseId: exact.Id}))
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if len(got.Msg.Expense.Lenders) != 2 || len(got.Msg.Expense.Splits) != 2 {
		t.Errorf("expected 2 lenders and 2 splits, got %+v", got.Msg.Expense)
	}
}

func TestCreateExpenseErrors(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	group := env.createGroup(t, "Trip", "alice", "bob")
	other := env.createGroup(t, "Other", "dave")

	account, err := env.accounts.CreateAccount(ctx, as("dave", &api.CreateAccountRequest{Name: "Checking", Type: "BANK"}))
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	tests := []struct {
		name string
		user string
		req  *api.CreateExpenseRequest
		code connect.Code
	}{
		{"non-member", "carol", &api.CreateExpenseRequest{GroupId: group.Id, Description: "x", Amount: 10}, connect.CodePermissionDenied},
		{"missing group", "alice", &api.CreateExpenseRequest{GroupId: "missing", Description: "x", Amount: 10}, connect.CodeNotFound},
		{"blank description", "alice", &api.CreateExpenseRequest{GroupId: group.Id, Description: " ", Amount: 10}, connect.CodeInvalidArgument},
		{"zero amount", "alice", &api.CreateExpenseRequest{GroupId: group.Id, Description: "x"}, connect.CodeInvalidArgument},
		{"exact does not add up", "alice", &api.CreateExpenseRequest{
			GroupId: group.Id, Description: "x", Amount: 100, SplitType: "EXACT",
			Splits: []*api.Split{{UserId: "alice", Amount: 50}, {UserId: "bob", Amount: 40}},
		}, connect.CodeInvalidArgument},
		{"exact a cent short", "alice", &api.CreateExpenseRequest{
			GroupId: group.Id, Description: "x", Amount: 100, SplitType: "EXACT",
			Splits: []*api.Split{{UserId: "alice", Amount: 50}, {UserId: "bob", Amount: 49.99}},
		}, connect.CodeInvalidArgument},
		{"lenders do not add up", "alice", &api.CreateExpenseRequest{
			GroupId: group.Id, Description: "x", Amount: 100,
			Lenders: []*api.Lender{{UserId: "alice", Amount: 90}},
		}, connect.CodeInvalidArgument},
		{"lenders a cent over", "alice", &api.CreateExpenseRequest{
			GroupId: group.Id, Description: "x", Amount: 100,
			Lenders: []*api.Lender{{UserId: "alice", Amount: 60}, {UserId: "bob", Amount: 40.01}},
		}, connect.CodeInvalidArgument},
		{"participant outside group", "alice", &api.CreateExpenseRequest{
			GroupId: group.Id, Description: "x", Amount: 10, Participants: []string{"alice", "dave"},
		}, connect.CodeInvalidArgument},
		{"unknown split type", "alice", &api.CreateExpenseRequest{GroupId: group.Id, Description: "x", Amount: 10, SplitType: "PERCENT"}, connect.CodeInvalidArgument},
		{"foreign account", "alice", &api.CreateExpenseRequest{GroupId: group.Id, Description: "x", Amount: 10, AccountId: account.Msg.Account.Id}, connect.CodePermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.expenses.CreateExpense(ctx, as(tt.user, tt.req))
			assertCode(t, err, tt.code)
		})
	}

	list, err := env.expenses.ListExpenses(ctx, as("alice", &api.ListExpensesRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(list.Msg.Expenses) != 0 {
		t.Errorf("expected no expenses after rejected requests, got %d", len(list.Msg.Expenses))
	}

	_, err = env.expenses.ListExpenses(ctx, as("alice", &api.ListExpensesRequest{GroupId: other.Id}))
	assertCode(t, err, connect.CodePermissionDenied)
}

func TestPreviewSplit(t *testing.T) {
	env := setupTestServer(t)

	resp, err := env.expenses.PreviewSplit(context.Background(), connect.NewRequest(&api.PreviewSplitRequest{
		Amount:       10,
		Participants: []string{"a", "b", "c"},
	}))
	if err != nil {
		t.Fatalf("PreviewSplit failed: %v", err)
	}
	var total float64
	for _, s := range resp.Msg.Splits {
		total += s.Amount
	}
	if len(resp.Msg.Splits) != 3 || !near(total, 10) {
		t.Errorf("expected 3 splits adding up to 10, got %+v", resp.Msg.Splits)
	}
	if resp.Msg.Splits[0].Amount != 3.34 {
		t.Errorf("expected the first share to take the leftover cent, got %.2f", resp.Msg.Splits[0].Amount)
	}

	_, err = env.expenses.PreviewSplit(context.Background(), connect.NewRequest(&api.PreviewSplitRequest{
		Amount:    10,
		SplitType: "ITEMIZED",
		Items:     []*api.Item{{Description: "Steak", Amount: 25, AssignedTo: []string{"a"}}},
	}))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestDeleteExpense(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	group := env.createGroup(t, "Trip", "alice", "bob", "carol")

	byBob := env.createExpense(t, "bob", &api.CreateExpenseRequest{GroupId: group.Id, Amount: 30})
	byCarol := env.createExpense(t, "carol", &api.CreateExpenseRequest{GroupId: group.Id, Amount: 60})

	_, err := env.expenses.DeleteExpense(ctx, as("carol", &api.DeleteExpenseRequest{ExpenseId: byBob.Id}))
	assertCode(t, err, connect.CodePermissionDenied)

	// Born-settled lender splits do not block deletion.
	if _, err := env.expenses.DeleteExpense(ctx, as("bob", &api.DeleteExpenseRequest{ExpenseId: byBob.Id})); err != nil {
		t.Fatalf("DeleteExpense by creator failed: %v", err)
	}
	_, err = env.expenses.GetExpense(ctx, as("bob", &api.GetExpenseRequest{ExpenseId: byBob.Id}))
	assertCode(t, err, connect.CodeNotFound)

	if _, err := env.settlements.RecordPayment(ctx, as("alice", &api.RecordPaymentRequest{GroupId: group.Id, ToUserId: "carol"})); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	_, err = env.expenses.DeleteExpense(ctx, as("alice", &api.DeleteExpenseRequest{ExpenseId: byCarol.Id}))
	assertCode(t, err, connect.CodeFailedPrecondition)

	activity, err := env.notifications.ListActivity(ctx, as("alice", &api.ListActivityRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("ListActivity failed: %v", err)
	}
	actions := make(map[string]int)
	for _, a := range activity.Msg.Activities {
		actions[a.Action]++
	}
	if actions["EXPENSE_ADDED"] != 2 || actions["EXPENSE_DELETED"] != 1 || actions["BALANCE_SETTLED"] != 1 {
		t.Errorf("unexpected activity: %v", actions)
	}
}

func TestExpenseNotifications(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	group := env.createGroup(t, "Trip", "alice", "bob", "carol")

	env.createExpense(t, "alice", &api.CreateExpenseRequest{
		GroupId:      group.Id,
		Description:  "Taxi",
		Amount:       20,
		Participants: []string{"alice", "bob"},
	})

	resp, err := env.notifications.ListNotifications(ctx, as("bob", &api.ListNotificationsRequest{UnreadOnly: true}))
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(resp.Msg.Notifications) != 1 {
		t.Fatalf("expected 1 notification for bob, got %d", len(resp.Msg.Notifications))
	}
	n := resp.Msg.Notifications[0]
	if n.Type != "GROUP_EXPENSE_ADDED" {
		t.Errorf("expected GROUP_EXPENSE_ADDED, got %q", n.Type)
	}

	for _, user := range []string{"alice", "carol"} {
		resp, err := env.notifications.ListNotifications(ctx, as(user, &api.ListNotificationsRequest{}))
		if err != nil {
			t.Fatalf("ListNotifications failed: %v", err)
		}
		if len(resp.Msg.Notifications) != 0 {
			t.Errorf("expected no notifications for %s, got %d", user, len(resp.Msg.Notifications))
		}
	}

	_, err = env.notifications.MarkNotificationRead(ctx, as("carol", &api.MarkNotificationReadRequest{NotificationId: n.Id}))
	assertCode(t, err, connect.CodeNotFound)

	if _, err := env.notifications.MarkNotificationRead(ctx, as("bob", &api.MarkNotificationReadRequest{NotificationId: n.Id})); err != nil {
		t.Fatalf("MarkNotificationRead failed: %v", err)
	}
	resp, err = env.notifications.ListNotifications(ctx, as("bob", &api.ListNotificationsRequest{UnreadOnly: true}))
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(resp.Msg.Notifications) != 0 {
		t.Errorf("expected no unread notifications, got %d", len(resp.Msg.Notifications))
	}
}
