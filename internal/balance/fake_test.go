package balance

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// memStore is an in-memory implementation of the read stores.
type memStore struct {
	mu          sync.Mutex
	groups      []*models.Group
	expenses    map[string][]*models.Expense
	settlements map[string][]*models.Settlement
	users       map[string]*models.User

	groupsErr   error
	expenseErrs map[string]error
	usersErr    error
	fetches     int
}

func newMemStore() *memStore {
	return &memStore{
		expenses:    make(map[string][]*models.Expense),
		settlements: make(map[string][]*models.Settlement),
		users:       make(map[string]*models.User),
		expenseErrs: make(map[string]error),
	}
}

func (m *memStore) addGroup(id, currency string, memberIDs ...string) {
	g := &models.Group{ID: id, Name: id, Currency: currency}
	for _, mid := range memberIDs {
		g.Members = append(g.Members, models.Member{ID: mid, FullName: "User " + mid, Email: mid + "@example.com"})
	}
	m.groups = append(m.groups, g)
}

func (m *memStore) addExpense(groupID, paidBy, amount string, split models.SplitScope) {
	m.expenses[groupID] = append(m.expenses[groupID], &models.Expense{
		ID:      fmt.Sprintf("%s-e%d", groupID, len(m.expenses[groupID])+1),
		GroupID: groupID,
		Amount:  decimal.RequireFromString(amount),
		PaidBy:  paidBy,
		Split:   split,
	})
}

func (m *memStore) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	if m.groupsErr != nil {
		return nil, m.groupsErr
	}
	var out []*models.Group
	for _, g := range m.groups {
		if g.HasMember(userID) || len(g.Members) == 0 {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *memStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	for _, g := range m.groups {
		if g.ID == groupID {
			return g, nil
		}
	}
	return nil, fmt.Errorf("group %s not found", groupID)
}

func (m *memStore) ListExpenses(ctx context.Context, groupID string) ([]*models.Expense, error) {
	m.mu.Lock()
	m.fetches++
	m.mu.Unlock()
	if err := m.expenseErrs[groupID]; err != nil {
		return nil, err
	}
	return m.expenses[groupID], nil
}

func (m *memStore) ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	return m.settlements[groupID], nil
}

func (m *memStore) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	if m.usersErr != nil {
		return nil, m.usersErr
	}
	out := make(map[string]*models.User)
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func viewAt(ts int64) models.BalanceView {
	return models.BalanceView{ComputedAt: ts}
}
