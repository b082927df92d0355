package api

type Lender struct {
	UserId string  `json:"userId,omitempty"`
	Amount float64 `json:"amount,omitempty"`
}

type Split struct {
	Id           string  `json:"id,omitempty"`
	UserId       string  `json:"userId,omitempty"`
	Amount       float64 `json:"amount,omitempty"`
	Settled      bool    `json:"settled,omitempty"`
	SettledAt    int64   `json:"settledAt,omitempty"`
	SettlementId string  `json:"settlementId,omitempty"`
}

// Item is a line item of an itemized expense. Items assigned to nobody are
// shared by all participants.
type Item struct {
	Description string   `json:"description,omitempty"`
	Amount      float64  `json:"amount,omitempty"`
	AssignedTo  []string `json:"assignedTo,omitempty"`
}

type Expense struct {
	Id          string    `json:"id,omitempty"`
	GroupId     string    `json:"groupId,omitempty"`
	Description string    `json:"description,omitempty"`
	Amount      float64   `json:"amount,omitempty"`
	Date        int64     `json:"date,omitempty"`
	SplitType   string    `json:"splitType,omitempty"`
	AccountId   string    `json:"accountId,omitempty"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	CreatedAt   int64     `json:"createdAt,omitempty"`
	Lenders     []*Lender `json:"lenders,omitempty"`
	Splits      []*Split  `json:"splits,omitempty"`
}

// CreateExpenseRequest describes a new expense. Which of Participants, Splits
// and Items is read depends on SplitType: EQUAL, EXACT or ITEMIZED.
type CreateExpenseRequest struct {
	GroupId     string  `json:"groupId,omitempty"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount,omitempty"`
	// Date defaults to now.
	Date      int64  `json:"date,omitempty"`
	SplitType string `json:"splitType,omitempty"`
	AccountId string `json:"accountId,omitempty"`
	// Lenders default to the caller fronting the whole amount.
	Lenders      []*Lender `json:"lenders,omitempty"`
	Participants []string  `json:"participants,omitempty"`
	Splits       []*Split  `json:"splits,omitempty"`
	Items        []*Item   `json:"items,omitempty"`
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense,omitempty"`
}

type PreviewSplitRequest struct {
	Amount       float64  `json:"amount,omitempty"`
	SplitType    string   `json:"splitType,omitempty"`
	Participants []string `json:"participants,omitempty"`
	Splits       []*Split `json:"splits,omitempty"`
	Items        []*Item  `json:"items,omitempty"`
}

type PreviewSplitResponse struct {
	Splits []*Split `json:"splits,omitempty"`
}

type GetExpenseRequest struct {
	ExpenseId string `json:"expenseId,omitempty"`
}

type GetExpenseResponse struct {
	Expense *Expense `json:"expense,omitempty"`
}

type ListExpensesRequest struct {
	GroupId string `json:"groupId,omitempty"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses,omitempty"`
}

type DeleteExpenseRequest struct {
	ExpenseId string `json:"expenseId,omitempty"`
}

type DeleteExpenseResponse struct{}
