// Package storage provides abstractions for persistent data storage.
//
// The balance engine depends only on the read capabilities (GroupStore,
// ExpenseStore, SettlementStore, UserDirectory). Store adds the write paths
// used by the ledger service.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// GroupStore reads groups.
type GroupStore interface {
	// ListGroupsForUser returns every group whose member list contains userID.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// GetGroup retrieves a group by its ID.
	// Returns an error wrapping ErrNotFound if the group does not exist.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
}

// ExpenseStore reads expenses.
type ExpenseStore interface {
	// ListExpenses returns all expenses of a group, most recent first.
	ListExpenses(ctx context.Context, groupID string) ([]*models.Expense, error)
}

// SettlementStore reads settlements.
type SettlementStore interface {
	// ListSettlementsByGroup returns all settlements of a group, most recent first.
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)
}

// UserDirectory resolves user IDs to display profiles.
type UserDirectory interface {
	// GetUsersByIDs returns a map of user ID to profile.
	// Users that don't exist are omitted from the result.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// Store defines every storage operation.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	GroupStore
	ExpenseStore
	SettlementStore
	UserDirectory

	// CreateUser persists a new profile.
	CreateUser(ctx context.Context, user *models.User) error

	// CreateGroup persists a new group with its members.
	// The group.ID and group.CreatedAt fields are populated if empty.
	CreateGroup(ctx context.Context, group *models.Group) error

	// AddGroupMembers adds members to an existing group, ignoring existing ones.
	AddGroupMembers(ctx context.Context, groupID string, members []models.Member) error

	// CreateExpense persists a new expense.
	// The expense.ID and expense.CreatedAt fields are populated if empty.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// CreateSettlement persists a new settlement.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// Close releases any resources held by the store.
	Close() error
}
