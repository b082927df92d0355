// Package notify emits notifications and activity log entries for group events.
//
// Emission is best-effort: it runs after the state change it describes has
// committed, and a failing sink is logged and otherwise ignored.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmynk/groupledger/internal/models"
)

// Sink persists notifications and activity entries.
type Sink interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	LogActivity(ctx context.Context, a *models.Activity) error
}

// Emitter writes group events to a Sink without ever failing the caller.
type Emitter struct {
	sink   Sink
	logger *slog.Logger
}

// New creates an Emitter writing to sink.
func New(sink Sink) *Emitter {
	return &Emitter{sink: sink, logger: slog.Default()}
}

// Notify persists one notification.
func (e *Emitter) Notify(ctx context.Context, n *models.Notification) {
	if e == nil || e.sink == nil {
		return
	}
	if err := e.sink.CreateNotification(ctx, n); err != nil {
		e.logger.Warn("Failed to create notification",
			"user_id", n.UserID,
			"type", n.Type,
			"related_id", n.RelatedID,
			"error", err,
		)
	}
}

// Log appends one activity entry.
func (e *Emitter) Log(ctx context.Context, a *models.Activity) {
	if e == nil || e.sink == nil {
		return
	}
	if err := e.sink.LogActivity(ctx, a); err != nil {
		e.logger.Warn("Failed to log activity",
			"action", a.Action,
			"group_id", a.GroupID,
			"entity_id", a.EntityID,
			"error", err,
		)
	}
}

// Transfer is one applied payment between two members.
type Transfer struct {
	From   string
	To     string
	Amount float64
}

// Settlement describes a committed settlement batch.
type Settlement struct {
	Action    string // models.ActivityDebtSettlement, ActivityBalanceSettled or ActivitySplitsSettled
	GroupID   string
	GroupName string
	BatchID   string
	ActorID   string
	Members   []string          // group members at the time of settlement
	Names     map[string]string // user ID to display name
	Transfers []Transfer
}

func (s *Settlement) name(userID string) string {
	if n := s.Names[userID]; n != "" {
		return n
	}
	return userID
}

func (s *Settlement) total() float64 {
	var total float64
	for _, t := range s.Transfers {
		total += t.Amount
	}
	return total
}

func (s *Settlement) describe(t Transfer) string {
	return fmt.Sprintf("%s paid %s %.2f", s.name(t.From), s.name(t.To), t.Amount)
}

// SettlementApplied records one activity entry for the batch and notifies
// every member other than the actor. Members who received money get a
// GROUP_PAYMENT_RECEIVED notification listing what they received; everyone
// else gets a GROUP_SETTLEMENT summary.
func (e *Emitter) SettlementApplied(ctx context.Context, s Settlement) {
	if len(s.Transfers) == 0 {
		return
	}

	lines := make([]string, len(s.Transfers))
	for i, t := range s.Transfers {
		lines[i] = s.describe(t)
	}
	summary := strings.Join(lines, "; ")
	total := s.total()

	e.Log(ctx, &models.Activity{
		Action:      s.Action,
		Description: fmt.Sprintf("%s settled %.2f in %s: %s", s.name(s.ActorID), total, s.GroupName, summary),
		UserID:      s.ActorID,
		GroupID:     s.GroupID,
		EntityType:  "settlement",
		EntityID:    s.BatchID,
		Metadata: map[string]string{
			"transfers": fmt.Sprintf("%d", len(s.Transfers)),
			"total":     fmt.Sprintf("%.2f", total),
		},
	})

	for _, member := range s.Members {
		if member == s.ActorID {
			continue
		}

		var received []string
		for _, t := range s.Transfers {
			if t.To == member {
				received = append(received, s.describe(t))
			}
		}

		n := &models.Notification{
			UserID:    member,
			RelatedID: s.GroupID,
		}
		if len(received) > 0 {
			n.Type = models.NotificationGroupPaymentReceived
			n.Title = fmt.Sprintf("Payment received in %s", s.GroupName)
			n.Message = strings.Join(received, "; ")
		} else {
			n.Type = models.NotificationGroupSettlement
			n.Title = fmt.Sprintf("Debts settled in %s", s.GroupName)
			n.Message = summary
		}
		e.Notify(ctx, n)
	}
}

// ExpenseAdded records the expense in the activity log and notifies every
// participant other than the creator.
func (e *Emitter) ExpenseAdded(ctx context.Context, groupName string, expense *models.GroupExpense, actorName string) {
	e.Log(ctx, &models.Activity{
		Action:      models.ActivityExpenseAdded,
		Description: fmt.Sprintf("%s added %q (%.2f)", actorName, expense.Description, expense.Amount),
		UserID:      expense.CreatedBy,
		GroupID:     expense.GroupID,
		EntityType:  "expense",
		EntityID:    expense.ID,
		Metadata: map[string]string{
			"amount":     fmt.Sprintf("%.2f", expense.Amount),
			"split_type": string(expense.SplitType),
		},
	})

	notified := make(map[string]bool)
	for _, s := range expense.Splits {
		if s.UserID == expense.CreatedBy || notified[s.UserID] {
			continue
		}
		notified[s.UserID] = true
		e.Notify(ctx, &models.Notification{
			UserID:    s.UserID,
			Title:     fmt.Sprintf("New expense in %s", groupName),
			Message:   fmt.Sprintf("%s added %q. Your share is %.2f", actorName, expense.Description, s.Amount),
			Type:      models.NotificationGroupExpenseAdded,
			RelatedID: expense.ID,
		})
	}
}
