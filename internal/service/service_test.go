package service

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/groupledger/internal/auth"
	"github.com/mmynk/groupledger/internal/metrics"
	"github.com/mmynk/groupledger/internal/middleware"
	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/notify"
	"github.com/mmynk/groupledger/internal/settlement"
	"github.com/mmynk/groupledger/internal/storage/sqlstore"
	"github.com/mmynk/groupledger/pkg/api"
	"github.com/mmynk/groupledger/pkg/api/apiconnect"
)

// testUserHeader carries the caller's user ID in tests instead of a JWT.
const testUserHeader = "X-Test-User"

func testAuthInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if userID := req.Header().Get(testUserHeader); userID != "" {
				ctx = middleware.WithUser(ctx, userID, userID+"@example.com")
			}
			return next(ctx, req)
		}
	}
}

// as builds a request made by userID.
func as[T any](userID string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set(testUserHeader, userID)
	return req
}

type testEnv struct {
	store         *sqlstore.Store
	jwt           *auth.JWTManager
	auth          apiconnect.AuthServiceClient
	groups        apiconnect.GroupServiceClient
	expenses      apiconnect.ExpenseServiceClient
	settlements   apiconnect.SettlementServiceClient
	accounts      apiconnect.AccountServiceClient
	notifications apiconnect.NotificationServiceClient
}

// setupTestServer serves every service over httptest against a fresh SQLite
// database seeded with the users alice, bob, carol and dave.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlstore.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	for _, id := range []string{"alice", "bob", "carol", "dave"} {
		user := &models.User{
			ID:           id,
			Email:        id + "@example.com",
			DisplayName:  strings.ToUpper(id[:1]) + id[1:],
			PasswordHash: "unused",
			CreatedAt:    1,
			UpdatedAt:    1,
		}
		if err := store.CreateUser(context.Background(), user); err != nil {
			t.Fatalf("failed to seed user %s: %v", id, err)
		}
	}

	emitter := notify.New(store)
	engine := settlement.NewEngine(store, emitter, metrics.New(prometheus.NewRegistry()))
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	interceptors := connect.WithInterceptors(testAuthInterceptor(), middleware.LoggingInterceptor())

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(
		NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store),
		connect.WithInterceptors(middleware.OptionalAuth(jwtManager)),
	))
	mux.Handle(apiconnect.NewGroupServiceHandler(NewGroupService(store, engine, emitter), interceptors))
	mux.Handle(apiconnect.NewExpenseServiceHandler(NewExpenseService(store, emitter), interceptors))
	mux.Handle(apiconnect.NewSettlementServiceHandler(NewSettlementService(engine, store), interceptors))
	mux.Handle(apiconnect.NewAccountServiceHandler(NewAccountService(store), interceptors))
	mux.Handle(apiconnect.NewNotificationServiceHandler(NewNotificationService(store), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testEnv{
		store:         store,
		jwt:           jwtManager,
		auth:          apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL),
		groups:        apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL),
		expenses:      apiconnect.NewExpenseServiceClient(http.DefaultClient, server.URL),
		settlements:   apiconnect.NewSettlementServiceClient(http.DefaultClient, server.URL),
		accounts:      apiconnect.NewAccountServiceClient(http.DefaultClient, server.URL),
		notifications: apiconnect.NewNotificationServiceClient(http.DefaultClient, server.URL),
	}
}

// createGroup creates a group owned by the first member.
func (e *testEnv) createGroup(t *testing.T, name string, members ...string) *api.Group {
	t.Helper()
	resp, err := e.groups.CreateGroup(context.Background(), as(members[0], &api.CreateGroupRequest{
		Name:      name,
		MemberIds: members[1:],
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return resp.Msg.Group
}

func (e *testEnv) createExpense(t *testing.T, userID string, req *api.CreateExpenseRequest) *api.Expense {
	t.Helper()
	if req.Description == "" {
		req.Description = "Dinner"
	}
	resp, err := e.expenses.CreateExpense(context.Background(), as(userID, req))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	return resp.Msg.Expense
}

// nets returns each member's net balance.
func (e *testEnv) nets(t *testing.T, groupID, userID string) map[string]float64 {
	t.Helper()
	resp, err := e.settlements.GetGroupBalances(context.Background(), as(userID, &api.GetGroupBalancesRequest{GroupId: groupID}))
	if err != nil {
		t.Fatalf("GetGroupBalances failed: %v", err)
	}
	nets := make(map[string]float64)
	for _, b := range resp.Msg.Balances {
		nets[b.UserId] = b.NetBalance
	}
	return nets
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Errorf("expected code %v, got %v (%v)", want, got, err)
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= 0.01
}
