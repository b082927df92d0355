package api

// MemberBalance is one member's position in a group.
// A positive NetBalance means the member is owed money.
type MemberBalance struct {
	UserId          string  `json:"userId,omitempty"`
	DisplayName     string  `json:"displayName,omitempty"`
	TotalLent       float64 `json:"totalLent,omitempty"`
	TotalBorrowed   float64 `json:"totalBorrowed,omitempty"`
	SettledPaid     float64 `json:"settledPaid,omitempty"`
	SettledReceived float64 `json:"settledReceived,omitempty"`
	Outstanding     float64 `json:"outstanding,omitempty"`
	NetBalance      float64 `json:"netBalance,omitempty"`
}

// DebtEdge is a suggested transfer.
type DebtEdge struct {
	FromUserId string  `json:"fromUserId,omitempty"`
	FromName   string  `json:"fromName,omitempty"`
	ToUserId   string  `json:"toUserId,omitempty"`
	ToName     string  `json:"toName,omitempty"`
	Amount     float64 `json:"amount,omitempty"`
}

type Settlement struct {
	Id            string  `json:"id,omitempty"`
	GroupId       string  `json:"groupId,omitempty"`
	BatchId       string  `json:"batchId,omitempty"`
	FromUserId    string  `json:"fromUserId,omitempty"`
	ToUserId      string  `json:"toUserId,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	FromAccountId string  `json:"fromAccountId,omitempty"`
	ToAccountId   string  `json:"toAccountId,omitempty"`
	SettledBy     string  `json:"settledBy,omitempty"`
	Note          string  `json:"note,omitempty"`
	CreatedAt     int64   `json:"createdAt,omitempty"`
}

// TransferResult reports one transfer of a batch. Error is set when the
// transfer was rolled back.
type TransferResult struct {
	FromUserId    string      `json:"fromUserId,omitempty"`
	ToUserId      string      `json:"toUserId,omitempty"`
	Amount        float64     `json:"amount,omitempty"`
	Settlement    *Settlement `json:"settlement,omitempty"`
	SplitsSettled int32       `json:"splitsSettled,omitempty"`
	Error         string      `json:"error,omitempty"`
}

type GetGroupBalancesRequest struct {
	GroupId string `json:"groupId,omitempty"`
}

type GetGroupBalancesResponse struct {
	Balances  []*MemberBalance `json:"balances,omitempty"`
	Transfers []*DebtEdge      `json:"transfers,omitempty"`
}

type GetDebtSettlementRequest struct {
	GroupId string `json:"groupId,omitempty"`
}

type GetDebtSettlementResponse struct {
	Transfers []*DebtEdge `json:"transfers,omitempty"`
}

type SettleDebtsRequest struct {
	GroupId string `json:"groupId,omitempty"`
	Note    string `json:"note,omitempty"`
}

type SettleDebtsResponse struct {
	BatchId       string            `json:"batchId,omitempty"`
	Results       []*TransferResult `json:"results,omitempty"`
	Applied       int32             `json:"applied,omitempty"`
	Failed        int32             `json:"failed,omitempty"`
	SplitsSettled int32             `json:"splitsSettled,omitempty"`
	NoDebtsFound  bool              `json:"noDebtsFound,omitempty"`
}

// RecordPaymentRequest records that the caller paid ToUserId everything they
// owe them in the group.
type RecordPaymentRequest struct {
	GroupId   string `json:"groupId,omitempty"`
	ToUserId  string `json:"toUserId,omitempty"`
	AccountId string `json:"accountId,omitempty"`
	Note      string `json:"note,omitempty"`
}

type RecordPaymentResponse struct {
	Settlement    *Settlement `json:"settlement,omitempty"`
	SplitsSettled int32       `json:"splitsSettled,omitempty"`
	NoDebtsFound  bool        `json:"noDebtsFound,omitempty"`
}

// RecordReceiptRequest records that FromUserId paid the caller everything
// they owe them in the group.
type RecordReceiptRequest struct {
	GroupId    string `json:"groupId,omitempty"`
	FromUserId string `json:"fromUserId,omitempty"`
	AccountId  string `json:"accountId,omitempty"`
	Note       string `json:"note,omitempty"`
}

type RecordReceiptResponse struct {
	Settlement    *Settlement `json:"settlement,omitempty"`
	SplitsSettled int32       `json:"splitsSettled,omitempty"`
	NoDebtsFound  bool        `json:"noDebtsFound,omitempty"`
}

type SettleSplitsRequest struct {
	GroupId   string   `json:"groupId,omitempty"`
	SplitIds  []string `json:"splitIds,omitempty"`
	AccountId string   `json:"accountId,omitempty"`
	Note      string   `json:"note,omitempty"`
}

type SettleSplitsResponse struct {
	BatchId       string            `json:"batchId,omitempty"`
	Results       []*TransferResult `json:"results,omitempty"`
	SplitsSettled int32             `json:"splitsSettled,omitempty"`
	NoDebtsFound  bool              `json:"noDebtsFound,omitempty"`
}

type ListSettlementsRequest struct {
	GroupId string `json:"groupId,omitempty"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements,omitempty"`
}

type ReconcileIssue struct {
	Kind     string `json:"kind,omitempty"`
	EntityId string `json:"entityId,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

type ReconcileRequest struct {
	GroupId string `json:"groupId,omitempty"`
}

type ReconcileResponse struct {
	Ok            bool              `json:"ok,omitempty"`
	Expenses      int32             `json:"expenses,omitempty"`
	Settlements   int32             `json:"settlements,omitempty"`
	SettledSplits int32             `json:"settledSplits,omitempty"`
	Issues        []*ReconcileIssue `json:"issues,omitempty"`
}
