// Package models defines the core domain models for the split ledger.
//
// # Stored Models
//
// These are read from the group and expense stores:
//   - Group: a set of members sharing expenses, in one currency
//   - Expense: an amount paid by one member and shared by a SplitScope
//   - Settlement: a repayment from one member to another
//   - User: a directory profile used to resolve display names
//
// # View Models
//
// These are projections recomputed on every balance refresh and never stored:
//   - ConsolidatedDebt: one netted, directional debt between two users
//   - UserBalance: one user's net position with its debts and credits
//   - BalanceSummary: the current user's receivable/payable totals
//   - BalanceView: the full result handed to the presentation layer
//
// # Design Principles
//
//  1. Money is decimal.Decimal everywhere; rounding is a presentation concern
//  2. Relationships use ID strings, never pointers
//  3. "Everyone in the group" is an explicit SplitScope, not an empty list
package models
