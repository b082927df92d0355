package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/groupledger/internal/auth"
	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/pkg/api"
	"github.com/mmynk/groupledger/pkg/api/apiconnect"
)

const whoamiProcedure = "/groupledger.test.Echo/Whoami"

// newWhoamiClient serves a procedure that echoes the caller's user ID.
func newWhoamiClient(t *testing.T, interceptor connect.Interceptor) *connect.Client[api.GetCurrentUserRequest, api.User] {
	t.Helper()
	handler := connect.NewUnaryHandler(whoamiProcedure,
		func(ctx context.Context, _ *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.User], error) {
			return connect.NewResponse(&api.User{Id: GetUserID(ctx), Email: GetEmail(ctx)}), nil
		},
		connect.WithCodec(apiconnect.Codec{}),
		connect.WithInterceptors(interceptor, LoggingInterceptor()),
	)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return connect.NewClient[api.GetCurrentUserRequest, api.User](
		http.DefaultClient,
		server.URL+whoamiProcedure,
		connect.WithCodec(apiconnect.Codec{}),
	)
}

func whoami(client *connect.Client[api.GetCurrentUserRequest, api.User], authorization string) (*api.User, error) {
	req := connect.NewRequest(&api.GetCurrentUserRequest{})
	if authorization != "" {
		req.Header().Set("Authorization", authorization)
	}
	resp, err := client.CallUnary(context.Background(), req)
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate(&models.User{ID: "user-1", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	client := newWhoamiClient(t, RequireAuth(jwtManager))

	user, err := whoami(client, "Bearer "+token)
	if err != nil {
		t.Fatalf("authenticated call failed: %v", err)
	}
	if user.Id != "user-1" || user.Email != "alice@example.com" {
		t.Errorf("unexpected identity: %+v", user)
	}

	for _, header := range []string{"", "Basic " + token, "Bearer", "Bearer not-a-token"} {
		_, err := whoami(client, header)
		if connect.CodeOf(err) != connect.CodeUnauthenticated {
			t.Errorf("header %q: expected Unauthenticated, got %v", header, err)
		}
	}
}

func TestOptionalAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate(&models.User{ID: "user-1", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	client := newWhoamiClient(t, OptionalAuth(jwtManager))

	tests := []struct {
		header string
		want   string
	}{
		{"Bearer " + token, "user-1"},
		{"", ""},
		{"Bearer not-a-token", ""},
	}
	for _, tt := range tests {
		user, err := whoami(client, tt.header)
		if err != nil {
			t.Fatalf("header %q: call failed: %v", tt.header, err)
		}
		if user.Id != tt.want {
			t.Errorf("header %q: got user %q, want %q", tt.header, user.Id, tt.want)
		}
	}
}

func TestCORS(t *testing.T) {
	var reached bool
	handler := CORS("https://app.example.com")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/groupledger.v1.GroupService/ListGroups", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight: expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("unexpected allowed origin %q", got)
	}
	if reached {
		t.Error("preflight should not reach the handler")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/groupledger.v1.GroupService/ListGroups", nil))
	if !reached {
		t.Error("POST should reach the handler")
	}
}

func TestRequestLoggerKeepsStatus(t *testing.T) {
	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("expected 418, got %d", rec.Code)
	}
}
