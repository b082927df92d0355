package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mmynk/groupledger/internal/models"
)

type recordingSink struct {
	notifications []*models.Notification
	activities    []*models.Activity
	err           error
}

func (s *recordingSink) CreateNotification(_ context.Context, n *models.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.notifications = append(s.notifications, n)
	return nil
}

func (s *recordingSink) LogActivity(_ context.Context, a *models.Activity) error {
	if s.err != nil {
		return s.err
	}
	s.activities = append(s.activities, a)
	return nil
}

func TestSettlementApplied(t *testing.T) {
	sink := &recordingSink{}
	e := New(sink)

	e.SettlementApplied(context.Background(), Settlement{
		Action:    models.ActivityDebtSettlement,
		GroupID:   "g1",
		GroupName: "Trip",
		BatchID:   "b1",
		ActorID:   "carol",
		Members:   []string{"alice", "bob", "carol", "dave"},
		Names:     map[string]string{"alice": "Alice", "bob": "Bob", "carol": "Carol", "dave": "Dave"},
		Transfers: []Transfer{
			{From: "carol", To: "alice", Amount: 40},
			{From: "dave", To: "alice", Amount: 10},
			{From: "dave", To: "bob", Amount: 30},
		},
	})

	if len(sink.activities) != 1 {
		t.Fatalf("expected exactly one activity entry, got %d", len(sink.activities))
	}
	a := sink.activities[0]
	if a.Action != models.ActivityDebtSettlement || a.EntityID != "b1" || a.UserID != "carol" {
		t.Errorf("unexpected activity: %+v", a)
	}
	if a.Metadata["total"] != "80.00" || a.Metadata["transfers"] != "3" {
		t.Errorf("unexpected metadata: %v", a.Metadata)
	}

	// Everyone but the actor.
	if len(sink.notifications) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(sink.notifications))
	}

	byUser := make(map[string]*models.Notification)
	for _, n := range sink.notifications {
		byUser[n.UserID] = n
	}
	if _, ok := byUser["carol"]; ok {
		t.Error("actor should not be notified")
	}

	alice := byUser["alice"]
	if alice.Type != models.NotificationGroupPaymentReceived {
		t.Errorf("alice: got type %s, want %s", alice.Type, models.NotificationGroupPaymentReceived)
	}
	if !strings.Contains(alice.Message, "Carol paid Alice 40.00") || !strings.Contains(alice.Message, "Dave paid Alice 10.00") {
		t.Errorf("alice message missing transfers: %q", alice.Message)
	}
	if strings.Contains(alice.Message, "Bob") {
		t.Errorf("alice message should only list her receipts: %q", alice.Message)
	}

	if byUser["bob"].Type != models.NotificationGroupPaymentReceived {
		t.Errorf("bob: got type %s", byUser["bob"].Type)
	}
	if byUser["dave"].Type != models.NotificationGroupSettlement {
		t.Errorf("dave: got type %s, want %s", byUser["dave"].Type, models.NotificationGroupSettlement)
	}
	if byUser["dave"].RelatedID != "g1" {
		t.Errorf("dave: related id %q", byUser["dave"].RelatedID)
	}
}

func TestSettlementAppliedWithoutTransfers(t *testing.T) {
	sink := &recordingSink{}
	New(sink).SettlementApplied(context.Background(), Settlement{GroupID: "g1", ActorID: "a", Members: []string{"a", "b"}})

	if len(sink.activities) != 0 || len(sink.notifications) != 0 {
		t.Error("expected nothing emitted for an empty batch")
	}
}

func TestSinkFailureIsSwallowed(t *testing.T) {
	sink := &recordingSink{err: errors.New("database is locked")}
	e := New(sink)

	// Must not panic or propagate.
	e.SettlementApplied(context.Background(), Settlement{
		GroupID:   "g1",
		ActorID:   "a",
		Members:   []string{"a", "b"},
		Transfers: []Transfer{{From: "a", To: "b", Amount: 5}},
	})

	var nilEmitter *Emitter
	nilEmitter.Notify(context.Background(), &models.Notification{UserID: "x"})
}

func TestExpenseAdded(t *testing.T) {
	sink := &recordingSink{}
	expense := &models.GroupExpense{
		ID:          "e1",
		GroupID:     "g1",
		Description: "Dinner",
		Amount:      90,
		SplitType:   models.SplitEqual,
		CreatedBy:   "alice",
		Splits: []models.ExpenseSplit{
			{UserID: "alice", Amount: 30},
			{UserID: "bob", Amount: 30},
			{UserID: "carol", Amount: 30},
		},
	}

	New(sink).ExpenseAdded(context.Background(), "Trip", expense, "Alice")

	if len(sink.activities) != 1 || sink.activities[0].Action != models.ActivityExpenseAdded {
		t.Fatalf("unexpected activities: %+v", sink.activities)
	}
	if len(sink.notifications) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(sink.notifications))
	}
	for _, n := range sink.notifications {
		if n.UserID == "alice" {
			t.Error("creator should not be notified")
		}
		if n.Type != models.NotificationGroupExpenseAdded || n.RelatedID != "e1" {
			t.Errorf("unexpected notification: %+v", n)
		}
		if !strings.Contains(n.Message, "30.00") {
			t.Errorf("message should carry the share: %q", n.Message)
		}
	}
}
