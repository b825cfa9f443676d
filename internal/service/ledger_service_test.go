package service

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"connectrpc.com/connect"
)

func TestCreateGroup(t *testing.T) {
	s, cleanup := setupTestServer(t)
	defer cleanup()
	s.registerProfile("bob", "Bob")

	resp, err := s.ledger("alice").CreateGroup(context.Background(), connect.NewRequest(&CreateGroupRequest{
		Name:    "Trip",
		Members: []Member{{ID: "bob"}, {ID: "carol", FullName: "Carol"}, {ID: "bob"}},
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	group := resp.Msg.Group

	if group.ID == "" {
		t.Error("expected group ID to be generated")
	}
	if group.Currency != "TRY" {
		t.Errorf("currency = %s, want TRY", group.Currency)
	}
	want := []Member{
		{ID: "alice", Email: "alice@example.com"},
		{ID: "bob", FullName: "Bob", Email: "bob@example.com"},
		{ID: "carol", FullName: "Carol"},
	}
	if len(group.Members) != len(want) {
		t.Fatalf("members = %+v, want %+v", group.Members, want)
	}
	for i, m := range want {
		if group.Members[i] != m {
			t.Errorf("member[%d] = %+v, want %+v", i, group.Members[i], m)
		}
	}

	t.Run("empty name", func(t *testing.T) {
		_, err := s.ledger("alice").CreateGroup(context.Background(), connect.NewRequest(&CreateGroupRequest{Name: "  "}))
		assertCode(t, err, connect.CodeInvalidArgument)
	})

	t.Run("explicit currency", func(t *testing.T) {
		resp, err := s.ledger("alice").CreateGroup(context.Background(), connect.NewRequest(&CreateGroupRequest{
			Name: "Abroad", Currency: "EUR",
		}))
		if err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		if resp.Msg.Group.Currency != "EUR" {
			t.Errorf("currency = %s, want EUR", resp.Msg.Group.Currency)
		}
	})
}

func TestListGroups(t *testing.T) {
	s, cleanup := setupTestServer(t)
	defer cleanup()

	s.createGroup("alice", "Trip", "bob")
	s.createGroup("alice", "Flat")

	tests := []struct {
		user string
		want int
	}{
		{"alice", 2},
		{"bob", 1},
		{"carol", 0},
	}
	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			resp, err := s.ledger(tt.user).ListGroups(context.Background(), connect.NewRequest(&ListGroupsRequest{}))
			if err != nil {
				t.Fatalf("ListGroups failed: %v", err)
			}
			if len(resp.Msg.Groups) != tt.want {
				t.Errorf("groups = %d, want %d", len(resp.Msg.Groups), tt.want)
			}
		})
	}
}

func TestAddMembers(t *testing.T) {
	s, cleanup := setupTestServer(t)
	defer cleanup()
	group := s.createGroup("alice", "Trip", "bob")

	resp, err := s.ledger("bob").AddMembers(context.Background(), connect.NewRequest(&AddMembersRequest{
		GroupID: group.ID,
		Members: []Member{{ID: "carol"}, {ID: "alice"}},
	}))
	if err != nil {
		t.Fatalf("AddMembers failed: %v", err)
	}
	if got := len(resp.Msg.Group.Members); got != 3 {
		t.Errorf("members = %d, want 3", got)
	}

	t.Run("non-member", func(t *testing.T) {
		_, err := s.ledger("dave").AddMembers(context.Background(), connect.NewRequest(&AddMembersRequest{
			GroupID: group.ID,
			Members: []Member{{ID: "dave"}},
		}))
		assertCode(t, err, connect.CodePermissionDenied)
	})

	t.Run("unknown group", func(t *testing.T) {
		_, err := s.ledger("alice").AddMembers(context.Background(), connect.NewRequest(&AddMembersRequest{
			GroupID: "missing",
			Members: []Member{{ID: "dave"}},
		}))
		assertCode(t, err, connect.CodeNotFound)
	})

	t.Run("no members", func(t *testing.T) {
		_, err := s.ledger("alice").AddMembers(context.Background(), connect.NewRequest(&AddMembersRequest{GroupID: group.ID}))
		assertCode(t, err, connect.CodeInvalidArgument)
	})
}

func TestAddExpense(t *testing.T) {
	s, cleanup := setupTestServer(t)
	defer cleanup()
	group := s.createGroup("alice", "Trip", "bob", "carol")

	t.Run("defaults payer to caller", func(t *testing.T) {
		expense := s.addExpense("bob", &AddExpenseRequest{
			GroupID:     group.ID,
			Description: "Taxi",
			Amount:      "42.5",
			Split:       Split{UserIDs: []string{"bob", "carol", "bob"}},
		})
		if expense.PaidBy != "bob" {
			t.Errorf("paid_by = %s, want bob", expense.PaidBy)
		}
		if expense.Amount != "42.50" || expense.Currency != "TRY" {
			t.Errorf("amount = %s %s", expense.Amount, expense.Currency)
		}
		if len(expense.Split.UserIDs) != 2 || expense.Split.AllMembers {
			t.Errorf("split = %+v, want bob and carol", expense.Split)
		}
	})

	tests := []struct {
		name   string
		caller string
		req    AddExpenseRequest
		want   connect.Code
	}{
		{
			name:   "zero amount",
			caller: "alice",
			req:    AddExpenseRequest{GroupID: group.ID, Amount: "0", Split: Split{AllMembers: true}},
			want:   connect.CodeInvalidArgument,
		},
		{
			name:   "negative amount",
			caller: "alice",
			req:    AddExpenseRequest{GroupID: group.ID, Amount: "-5", Split: Split{AllMembers: true}},
			want:   connect.CodeInvalidArgument,
		},
		{
			name:   "sub-cent amount",
			caller: "alice",
			req:    AddExpenseRequest{GroupID: group.ID, Amount: "1.005", Split: Split{AllMembers: true}},
			want:   connect.CodeInvalidArgument,
		},
		{
			name:   "malformed amount",
			caller: "alice",
			req:    AddExpenseRequest{GroupID: group.ID, Amount: "ten", Split: Split{AllMembers: true}},
			want:   connect.CodeInvalidArgument,
		},
		{
			name:   "payer outside group",
			caller: "alice",
			req:    AddExpenseRequest{GroupID: group.ID, Amount: "10", PaidBy: "dave", Split: Split{AllMembers: true}},
			want:   connect.CodeInvalidArgument,
		},
		{
			name:   "shareholder outside group",
			caller: "alice",
			req:    AddExpenseRequest{GroupID: group.ID, Amount: "10", Split: Split{UserIDs: []string{"dave"}}},
			want:   connect.CodeInvalidArgument,
		},
		{
			name:   "empty split",
			caller: "alice",
			req:    AddExpenseRequest{GroupID: group.ID, Amount: "10", Split: Split{UserIDs: []string{}}},
			want:   connect.CodeInvalidArgument,
		},
		{
			name:   "ambiguous split",
			caller: "alice",
			req:    AddExpenseRequest{GroupID: group.ID, Amount: "10", Split: Split{AllMembers: true, UserIDs: []string{"bob"}}},
			want:   connect.CodeInvalidArgument,
		},
		{
			name:   "caller outside group",
			caller: "dave",
			req:    AddExpenseRequest{GroupID: group.ID, Amount: "10", Split: Split{AllMembers: true}},
			want:   connect.CodePermissionDenied,
		},
		{
			name:   "missing group id",
			caller: "alice",
			req:    AddExpenseRequest{Amount: "10", Split: Split{AllMembers: true}},
			want:   connect.CodeInvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := s.ledger(tt.caller).AddExpense(context.Background(), connect.NewRequest(&req))
			assertCode(t, err, tt.want)
		})
	}
}

func TestListExpenses(t *testing.T) {
	s, cleanup := setupTestServer(t)
	defer cleanup()
	group := s.createGroup("alice", "Trip", "bob")

	s.addExpense("alice", &AddExpenseRequest{GroupID: group.ID, Description: "Dinner", Amount: "30", Split: Split{AllMembers: true}})
	s.addExpense("bob", &AddExpenseRequest{GroupID: group.ID, Description: "Taxi", Amount: "12", Split: Split{UserIDs: []string{"alice"}}})

	resp, err := s.ledger("bob").ListExpenses(context.Background(), connect.NewRequest(&ListExpensesRequest{GroupID: group.ID}))
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(resp.Msg.Expenses) != 2 {
		t.Fatalf("expenses = %d, want 2", len(resp.Msg.Expenses))
	}

	byDescription := make(map[string]Expense)
	for _, e := range resp.Msg.Expenses {
		byDescription[e.Description] = e
	}
	if e := byDescription["Dinner"]; !e.Split.AllMembers || e.Amount != "30.00" {
		t.Errorf("Dinner = %+v", e)
	}
	if e := byDescription["Taxi"]; len(e.Split.UserIDs) != 1 || e.Split.UserIDs[0] != "alice" {
		t.Errorf("Taxi = %+v", e)
	}

	_, err = s.ledger("carol").ListExpenses(context.Background(), connect.NewRequest(&ListExpensesRequest{GroupID: group.ID}))
	assertCode(t, err, connect.CodePermissionDenied)
}

func TestRecordSettlement(t *testing.T) {
	s, cleanup := setupTestServer(t)
	defer cleanup()
	group := s.createGroup("alice", "Trip", "bob")

	resp, err := s.ledger("alice").RecordSettlement(context.Background(), connect.NewRequest(&RecordSettlementRequest{
		GroupID:    group.ID,
		FromUserID: "bob",
		ToUserID:   "alice",
		Amount:     "15",
		Note:       "cash",
	}))
	if err != nil {
		t.Fatalf("RecordSettlement failed: %v", err)
	}
	settlement := resp.Msg.Settlement
	if settlement.FromUserID != "bob" || settlement.CreatedBy != "alice" || settlement.Amount != "15.00" || settlement.Note != "cash" {
		t.Errorf("settlement = %+v", settlement)
	}

	tests := []struct {
		name string
		req  RecordSettlementRequest
	}{
		{"self", RecordSettlementRequest{GroupID: group.ID, ToUserID: "alice", Amount: "5"}},
		{"missing recipient", RecordSettlementRequest{GroupID: group.ID, Amount: "5"}},
		{"recipient outside group", RecordSettlementRequest{GroupID: group.ID, ToUserID: "dave", Amount: "5"}},
		{"zero amount", RecordSettlementRequest{GroupID: group.ID, ToUserID: "bob", Amount: "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := s.ledger("alice").RecordSettlement(context.Background(), connect.NewRequest(&req))
			assertCode(t, err, connect.CodeInvalidArgument)
		})
	}
}

func TestRegisterProfile(t *testing.T) {
	s, cleanup := setupTestServer(t)
	defer cleanup()

	resp, err := s.ledger("alice").RegisterProfile(context.Background(), connect.NewRequest(&RegisterProfileRequest{FullName: "Alice"}))
	if err != nil {
		t.Fatalf("RegisterProfile failed: %v", err)
	}
	want := Profile{ID: "alice", FullName: "Alice", Email: "alice@example.com"}
	if resp.Msg.Profile != want {
		t.Errorf("profile = %+v, want %+v", resp.Msg.Profile, want)
	}

	_, err = s.ledger("alice").RegisterProfile(context.Background(), connect.NewRequest(&RegisterProfileRequest{FullName: "Alice"}))
	assertCode(t, err, connect.CodeAlreadyExists)

	_, err = s.ledger("bob").RegisterProfile(context.Background(), connect.NewRequest(&RegisterProfileRequest{}))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestRegisterProfile_WithoutEmail(t *testing.T) {
	s, cleanup := setupTestServer(t)
	defer cleanup()

	for _, id := range []string{"u1", "u2"} {
		resp, err := s.ledgerWithEmail(id, "").RegisterProfile(context.Background(), connect.NewRequest(&RegisterProfileRequest{
			FullName: "User " + id,
		}))
		if err != nil {
			t.Fatalf("RegisterProfile(%s) failed: %v", id, err)
		}
		if resp.Msg.Profile.Email != "" {
			t.Errorf("email = %q, want empty", resp.Msg.Profile.Email)
		}
	}

	users, err := s.store.GetUsersByIDs(context.Background(), []string{"u1", "u2"})
	if err != nil {
		t.Fatalf("GetUsersByIDs failed: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("stored profiles = %d, want 2", len(users))
	}
}

func TestRPCLogIncludesCaller(t *testing.T) {
	s, cleanup := setupTestServer(t)
	defer cleanup()

	buf := &syncBuffer{}
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(buf, nil)))
	defer slog.SetDefault(prev)

	if _, err := s.ledger("alice").ListGroups(context.Background(), connect.NewRequest(&ListGroupsRequest{})); err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}

	var line string
	for _, l := range strings.Split(buf.String(), "\n") {
		if strings.Contains(l, "RPC ok") {
			line = l
		}
	}
	if !strings.Contains(line, "user_id=alice") {
		t.Errorf("RPC log line %q does not name the caller", line)
	}
}

// syncBuffer is written by the server goroutine and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
