package api

type Account struct {
	Id        string  `json:"id,omitempty"`
	Name      string  `json:"name,omitempty"`
	Type      string  `json:"type,omitempty"`
	Balance   float64 `json:"balance,omitempty"`
	System    bool    `json:"system,omitempty"`
	CreatedAt int64   `json:"createdAt,omitempty"`
}

type CreateAccountRequest struct {
	Name string `json:"name,omitempty"`
	// Type is BANK, CASH or CARD. Helper accounts are created by the system.
	Type    string  `json:"type,omitempty"`
	Balance float64 `json:"balance,omitempty"`
}

type CreateAccountResponse struct {
	Account *Account `json:"account,omitempty"`
}

type ListAccountsRequest struct{}

type ListAccountsResponse struct {
	Accounts []*Account `json:"accounts,omitempty"`
}

type LedgerEntry struct {
	Id             string  `json:"id,omitempty"`
	Kind           string  `json:"kind,omitempty"`
	AccountId      string  `json:"accountId,omitempty"`
	CategoryId     string  `json:"categoryId,omitempty"`
	GroupId        string  `json:"groupId,omitempty"`
	CounterpartyId string  `json:"counterpartyId,omitempty"`
	Amount         float64 `json:"amount,omitempty"`
	Description    string  `json:"description,omitempty"`
	GroupType      string  `json:"groupType,omitempty"`
	CreatedAt      int64   `json:"createdAt,omitempty"`
}

type ListLedgerEntriesRequest struct {
	Limit int32 `json:"limit,omitempty"`
}

type ListLedgerEntriesResponse struct {
	Entries []*LedgerEntry `json:"entries,omitempty"`
}
