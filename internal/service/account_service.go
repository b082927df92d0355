package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/storage"
	"github.com/mmynk/groupledger/pkg/api"
	"github.com/mmynk/groupledger/pkg/api/apiconnect"
)

// AccountService implements the Connect AccountService.
type AccountService struct {
	apiconnect.UnimplementedAccountServiceHandler
	store storage.Store
}

func NewAccountService(store storage.Store) *AccountService {
	return &AccountService{store: store}
}

// CreateAccount creates a user account. Helper accounts cannot be created directly.
func (s *AccountService) CreateAccount(ctx context.Context, req *connect.Request[api.CreateAccountRequest]) (*connect.Response[api.CreateAccountResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("name required"))
	}
	accountType := models.AccountType(strings.ToUpper(req.Msg.Type))
	if !accountType.Valid() {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unsupported account type %q", req.Msg.Type))
	}

	account := &models.Account{
		UserID:  userID,
		Name:    name,
		Type:    accountType,
		Balance: req.Msg.Balance,
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, fail("CreateAccount failed", err, "user_id", userID)
	}

	slog.Info("Account created", "account_id", account.ID, "user_id", userID, "type", accountType)
	return connect.NewResponse(&api.CreateAccountResponse{Account: accountToAPI(account)}), nil
}

// ListAccounts returns the caller's accounts, helper accounts last.
func (s *AccountService) ListAccounts(ctx context.Context, req *connect.Request[api.ListAccountsRequest]) (*connect.Response[api.ListAccountsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	accounts, err := s.store.ListAccountsByUser(ctx, userID)
	if err != nil {
		return nil, fail("ListAccounts failed", err, "user_id", userID)
	}

	out := make([]*api.Account, len(accounts))
	for i, a := range accounts {
		out[i] = accountToAPI(a)
	}
	return connect.NewResponse(&api.ListAccountsResponse{Accounts: out}), nil
}

// ListLedgerEntries returns the caller's ledger postings, newest first.
func (s *AccountService) ListLedgerEntries(ctx context.Context, req *connect.Request[api.ListLedgerEntriesRequest]) (*connect.Response[api.ListLedgerEntriesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.store.ListLedgerEntriesByUser(ctx, userID, int(req.Msg.Limit))
	if err != nil {
		return nil, fail("ListLedgerEntries failed", err, "user_id", userID)
	}

	out := make([]*api.LedgerEntry, len(entries))
	for i, e := range entries {
		out[i] = ledgerEntryToAPI(e)
	}
	return connect.NewResponse(&api.ListLedgerEntriesResponse{Entries: out}), nil
}
