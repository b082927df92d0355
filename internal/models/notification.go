package models

// NotificationType classifies notifications.
type NotificationType string

const (
	NotificationGroupPaymentReceived NotificationType = "GROUP_PAYMENT_RECEIVED"
	NotificationGroupSettlement      NotificationType = "GROUP_SETTLEMENT"
	NotificationGroupExpenseAdded    NotificationType = "GROUP_EXPENSE_ADDED"
)

// Notification is a message for a single user.
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Type      NotificationType
	RelatedID string
	Read      bool
	CreatedAt int64
}

// Activity actions.
const (
	ActivityDebtSettlement = "DEBT_SETTLEMENT"
	ActivityBalanceSettled = "BALANCE_SETTLED"
	ActivitySplitsSettled  = "SPLITS_SETTLED"
	ActivityExpenseAdded   = "EXPENSE_ADDED"
	ActivityExpenseDeleted = "EXPENSE_DELETED"
	ActivityMemberAdded    = "MEMBER_ADDED"
	ActivityMemberRemoved  = "MEMBER_REMOVED"
)

// Activity is one entry in a group's audit trail.
type Activity struct {
	ID          string
	Action      string
	Description string
	UserID      string
	GroupID     string
	EntityType  string
	EntityID    string
	Metadata    map[string]string
	CreatedAt   int64
}
