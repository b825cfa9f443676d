package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/balance"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

// testServer is a full stack over a temporary SQLite database.
type testServer struct {
	t      *testing.T
	url    string
	store  *sqlite.SQLiteStore
	tokens *auth.JWTManager
}

// setupTestServer creates a test server with both services behind JWT auth.
func setupTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	tokens := auth.NewJWTManager("test-secret", time.Hour)
	interceptors := middleware.Interceptors(tokens)

	engine := balance.NewEngine(store, store,
		balance.WithSettlements(store),
		balance.WithUserDirectory(store),
	)
	balancePath, balanceHandler := NewBalanceServiceHandler(
		NewBalanceService(balance.NewRefresher(engine)), interceptors)
	ledgerPath, ledgerHandler := NewLedgerServiceHandler(
		NewLedgerService(store), interceptors)

	mux := http.NewServeMux()
	mux.Handle(balancePath, balanceHandler)
	mux.Handle(ledgerPath, ledgerHandler)

	server := httptest.NewServer(mux)

	cleanup := func() {
		server.Close()
		store.Close()
	}
	return &testServer{t: t, url: server.URL, store: store, tokens: tokens}, cleanup
}

// bearer returns a client interceptor that authenticates as userID.
func (s *testServer) bearer(userID, email string) connect.Option {
	s.t.Helper()
	token, err := s.tokens.Generate(userID, email)
	if err != nil {
		s.t.Fatalf("failed to generate token: %v", err)
	}
	return connect.WithInterceptors(connect.UnaryInterceptorFunc(
		func(next connect.UnaryFunc) connect.UnaryFunc {
			return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
				req.Header().Set("Authorization", "Bearer "+token)
				return next(ctx, req)
			}
		},
	))
}

func (s *testServer) ledger(userID string) *LedgerServiceClient {
	return s.ledgerWithEmail(userID, userID+"@example.com")
}

// ledgerWithEmail authenticates with a token carrying the given email claim.
func (s *testServer) ledgerWithEmail(userID, email string) *LedgerServiceClient {
	return NewLedgerServiceClient(http.DefaultClient, s.url, s.bearer(userID, email))
}

func (s *testServer) balances(userID string) *BalanceServiceClient {
	return NewBalanceServiceClient(http.DefaultClient, s.url, s.bearer(userID, userID+"@example.com"))
}

func (s *testServer) createGroup(userID, name string, memberIDs ...string) Group {
	s.t.Helper()
	members := make([]Member, len(memberIDs))
	for i, id := range memberIDs {
		members[i] = Member{ID: id}
	}
	resp, err := s.ledger(userID).CreateGroup(context.Background(), connect.NewRequest(&CreateGroupRequest{
		Name:    name,
		Members: members,
	}))
	if err != nil {
		s.t.Fatalf("CreateGroup failed: %v", err)
	}
	return resp.Msg.Group
}

func (s *testServer) addExpense(userID string, req *AddExpenseRequest) Expense {
	s.t.Helper()
	resp, err := s.ledger(userID).AddExpense(context.Background(), connect.NewRequest(req))
	if err != nil {
		s.t.Fatalf("AddExpense failed: %v", err)
	}
	return resp.Msg.Expense
}

func (s *testServer) registerProfile(userID, fullName string) {
	s.t.Helper()
	_, err := s.ledger(userID).RegisterProfile(context.Background(), connect.NewRequest(&RegisterProfileRequest{
		FullName: fullName,
	}))
	if err != nil {
		s.t.Fatalf("RegisterProfile failed: %v", err)
	}
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
