package models

import "github.com/shopspring/decimal"

type scopeKind uint8

const (
	scopeAllMembers scopeKind = iota
	scopeExplicit
)

// SplitScope says who shares an expense: either every current member of the
// group, or an explicit list of user IDs.
//
// The zero value is AllMembers.
type SplitScope struct {
	kind    scopeKind
	userIDs []string
}

// AllMembers returns a scope covering every current member of the expense's group.
func AllMembers() SplitScope {
	return SplitScope{kind: scopeAllMembers}
}

// Explicit returns a scope naming exactly who shares the expense.
// Duplicate IDs are dropped, keeping the first occurrence.
// An Explicit scope with no IDs means no one shares the expense.
func Explicit(userIDs ...string) SplitScope {
	seen := make(map[string]bool, len(userIDs))
	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return SplitScope{kind: scopeExplicit, userIDs: ids}
}

// IsAllMembers reports whether the scope defers to the group's member list.
func (s SplitScope) IsAllMembers() bool {
	return s.kind == scopeAllMembers
}

// UserIDs returns a copy of the explicit shareholder IDs.
// It returns nil for an AllMembers scope.
func (s SplitScope) UserIDs() []string {
	if s.kind == scopeAllMembers {
		return nil
	}
	out := make([]string, len(s.userIDs))
	copy(out, s.userIDs)
	return out
}

// Expense is an amount paid by one user and shared by the users in Split.
// PaidBy need not be part of Split; a payer outside the split is purely a payer.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// Description is a short human-readable label (e.g., "Groceries").
	Description string

	// Amount is the positive total paid.
	Amount decimal.Decimal

	// Currency is the ISO code of Amount. It matches the group currency.
	Currency string

	// PaidBy is the user ID of the payer.
	PaidBy string

	// Split identifies the shareholders.
	Split SplitScope

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}
