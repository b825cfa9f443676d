// Package calculator turns groups, expenses and settlements into netted debts
// and balances. Everything here is a pure function over in-memory snapshots.
package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// Share is the result of splitting one expense.
type Share struct {
	// PerPerson is the unrounded amount each shareholder owes.
	PerPerson decimal.Decimal

	// PayerID is the user who paid the expense.
	PayerID string

	// Shareholders are the users the expense is split between.
	// The payer appears here only if they share the expense.
	Shareholders []string
}

// ComputeShare splits an expense equally between its shareholders.
// Shareholders are the explicit split list, or every group member for an
// AllMembers split.
//
// Algorithm: per_person = amount / len(shareholders), never rounded here.
func ComputeShare(expense models.Expense, group models.Group) (Share, error) {
	if !expense.Amount.IsPositive() {
		return Share{}, fmt.Errorf("expense %s: %w", expense.ID, ErrInvalidAmount)
	}
	if expense.PaidBy == "" {
		return Share{}, fmt.Errorf("expense %s: %w", expense.ID, ErrMissingPayer)
	}
	if len(group.Members) == 0 {
		return Share{}, fmt.Errorf("group %s: %w", group.ID, ErrInvalidGroupState)
	}

	var shareholders []string
	if expense.Split.IsAllMembers() {
		shareholders = group.MemberIDs()
	} else {
		shareholders = expense.Split.UserIDs()
	}
	if len(shareholders) == 0 {
		return Share{}, fmt.Errorf("expense %s: %w", expense.ID, ErrNoShareholders)
	}

	return Share{
		PerPerson:    expense.Amount.Div(decimal.NewFromInt(int64(len(shareholders)))),
		PayerID:      expense.PaidBy,
		Shareholders: shareholders,
	}, nil
}
