package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/groupledger/pkg/api"
)

// AccountServiceName is the fully-qualified name of the AccountService.
const AccountServiceName = "groupledger.v1.AccountService"

// Procedure paths of the AccountService.
const (
	AccountServiceCreateAccountProcedure     = "/groupledger.v1.AccountService/CreateAccount"
	AccountServiceListAccountsProcedure      = "/groupledger.v1.AccountService/ListAccounts"
	AccountServiceListLedgerEntriesProcedure = "/groupledger.v1.AccountService/ListLedgerEntries"
)

// AccountServiceClient is a client for the AccountService.
type AccountServiceClient interface {
	CreateAccount(context.Context, *connect.Request[api.CreateAccountRequest]) (*connect.Response[api.CreateAccountResponse], error)
	ListAccounts(context.Context, *connect.Request[api.ListAccountsRequest]) (*connect.Response[api.ListAccountsResponse], error)
	ListLedgerEntries(context.Context, *connect.Request[api.ListLedgerEntriesRequest]) (*connect.Response[api.ListLedgerEntriesResponse], error)
}

// NewAccountServiceClient constructs a client for the AccountService. baseURL is the server root,
// e.g. "http://localhost:8080". Messages are sent as JSON.
func NewAccountServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AccountServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &accountServiceClient{
		createAccount: connect.NewClient[api.CreateAccountRequest, api.CreateAccountResponse](
			httpClient,
			baseURL+AccountServiceCreateAccountProcedure,
			opts...,
		),
		listAccounts: connect.NewClient[api.ListAccountsRequest, api.ListAccountsResponse](
			httpClient,
			baseURL+AccountServiceListAccountsProcedure,
			opts...,
		),
		listLedgerEntries: connect.NewClient[api.ListLedgerEntriesRequest, api.ListLedgerEntriesResponse](
			httpClient,
			baseURL+AccountServiceListLedgerEntriesProcedure,
			opts...,
		),
	}
}

type accountServiceClient struct {
	createAccount     *connect.Client[api.CreateAccountRequest, api.CreateAccountResponse]
	listAccounts      *connect.Client[api.ListAccountsRequest, api.ListAccountsResponse]
	listLedgerEntries *connect.Client[api.ListLedgerEntriesRequest, api.ListLedgerEntriesResponse]
}

func (c *accountServiceClient) CreateAccount(ctx context.Context, req *connect.Request[api.CreateAccountRequest]) (*connect.Response[api.CreateAccountResponse], error) {
	return c.createAccount.CallUnary(ctx, req)
}

func (c *accountServiceClient) ListAccounts(ctx context.Context, req *connect.Request[api.ListAccountsRequest]) (*connect.Response[api.ListAccountsResponse], error) {
	return c.listAccounts.CallUnary(ctx, req)
}

func (c *accountServiceClient) ListLedgerEntries(ctx context.Context, req *connect.Request[api.ListLedgerEntriesRequest]) (*connect.Response[api.ListLedgerEntriesResponse], error) {
	return c.listLedgerEntries.CallUnary(ctx, req)
}

// AccountServiceHandler is implemented by the server side of the AccountService.
type AccountServiceHandler interface {
	CreateAccount(context.Context, *connect.Request[api.CreateAccountRequest]) (*connect.Response[api.CreateAccountResponse], error)
	ListAccounts(context.Context, *connect.Request[api.ListAccountsRequest]) (*connect.Response[api.ListAccountsResponse], error)
	ListLedgerEntries(context.Context, *connect.Request[api.ListLedgerEntriesRequest]) (*connect.Response[api.ListLedgerEntriesResponse], error)
}

// NewAccountServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewAccountServiceHandler(svc AccountServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
	accountServiceCreateAccountHandler := connect.NewUnaryHandler(AccountServiceCreateAccountProcedure, svc.CreateAccount, opts...)
	accountServiceListAccountsHandler := connect.NewUnaryHandler(AccountServiceListAccountsProcedure, svc.ListAccounts, opts...)
	accountServiceListLedgerEntriesHandler := connect.NewUnaryHandler(AccountServiceListLedgerEntriesProcedure, svc.ListLedgerEntries, opts...)
	return "/" + AccountServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AccountServiceCreateAccountProcedure:
			accountServiceCreateAccountHandler.ServeHTTP(w, r)
		case AccountServiceListAccountsProcedure:
			accountServiceListAccountsHandler.ServeHTTP(w, r)
		case AccountServiceListLedgerEntriesProcedure:
			accountServiceListLedgerEntriesHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedAccountServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedAccountServiceHandler struct{}

func (UnimplementedAccountServiceHandler) CreateAccount(context.Context, *connect.Request[api.CreateAccountRequest]) (*connect.Response[api.CreateAccountResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("groupledger.v1.AccountService.CreateAccount is not implemented"))
}

func (UnimplementedAccountServiceHandler) ListAccounts(context.Context, *connect.Request[api.ListAccountsRequest]) (*connect.Response[api.ListAccountsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("groupledger.v1.AccountService.ListAccounts is not implemented"))
}

func (UnimplementedAccountServiceHandler) ListLedgerEntries(context.Context, *connect.Request[api.ListLedgerEntriesRequest]) (*connect.Response[api.ListLedgerEntriesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("groupledger.v1.AccountService.ListLedgerEntries is not implemented"))
}
