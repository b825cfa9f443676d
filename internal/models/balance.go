package models

import "github.com/shopspring/decimal"

// ConsolidatedDebt is the netted amount one user owes another.
// At most one record exists per unordered user pair and Amount is always positive.
type ConsolidatedDebt struct {
	FromUserID   string
	FromUserName string
	ToUserID     string
	ToUserName   string
	Amount       decimal.Decimal
}

// UserBalance is one user's net position across all counterparts.
type UserBalance struct {
	UserID   string
	FullName string
	Email    string

	// Balance is negative for a net debtor and positive for a net creditor.
	Balance decimal.Decimal

	// Debts are the records where this user is the debtor.
	Debts []ConsolidatedDebt

	// Credits are the records where this user is the creditor.
	Credits []ConsolidatedDebt

	IsCurrentUser bool
}

// BalanceSummary holds the current user's totals.
type BalanceSummary struct {
	TotalReceivable decimal.Decimal
	TotalPayable    decimal.Decimal
	NetBalance      decimal.Decimal
	Currency        string
}

// BalanceView is the result of one balance computation for a user.
type BalanceView struct {
	Summary      BalanceSummary
	UserBalances []UserBalance
	Debts        []ConsolidatedDebt

	// ComputedAt is the Unix timestamp at which the snapshot was taken.
	ComputedAt int64
}
