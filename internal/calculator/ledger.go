package calculator

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// Ledger accumulates what users owe each other.
//
// It keeps gross directional totals: owed[debtor][creditor] only ever grows.
// Position gives the signed view, which is antisymmetric by construction.
// Totals are exact decimal sums, so the order records arrive in does not
// change the result.
type Ledger struct {
	owed  map[string]map[string]decimal.Decimal
	users map[string]struct{}
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		owed:  make(map[string]map[string]decimal.Decimal),
		users: make(map[string]struct{}),
	}
}

// AddUser registers a user so they appear in the output even with no activity.
func (l *Ledger) AddUser(userID string) {
	if userID == "" {
		return
	}
	l.users[userID] = struct{}{}
}

// Record adds amount to what debtor owes creditor.
// Self-edges and zero amounts are ignored.
func (l *Ledger) Record(debtor, creditor string, amount decimal.Decimal) {
	l.AddUser(debtor)
	l.AddUser(creditor)
	if debtor == creditor || amount.IsZero() {
		return
	}
	row, ok := l.owed[debtor]
	if !ok {
		row = make(map[string]decimal.Decimal)
		l.owed[debtor] = row
	}
	row[creditor] = row[creditor].Add(amount)
}

// Owed returns the gross amount debtor has been recorded as owing creditor.
func (l *Ledger) Owed(debtor, creditor string) decimal.Decimal {
	return l.owed[debtor][creditor]
}

// Position returns the signed amount a owes b after netting both directions.
// Position(a, b) == -Position(b, a).
func (l *Ledger) Position(a, b string) decimal.Decimal {
	return l.Owed(a, b).Sub(l.Owed(b, a))
}

// Users returns every registered user, sorted by ID.
func (l *Ledger) Users() []string {
	users := make([]string, 0, len(l.users))
	for id := range l.users {
		users = append(users, id)
	}
	sort.Strings(users)
	return users
}

// AccumulateGroup folds a group's expenses into the ledger.
// Every group member is registered first. For every shareholder other than the
// payer, the shareholder is recorded as owing the payer the per-person share.
// Expenses that cannot be split are skipped and reported as anomalies.
func (l *Ledger) AccumulateGroup(group models.Group, expenses []models.Expense) []Anomaly {
	for _, m := range group.Members {
		l.AddUser(m.ID)
	}

	var anomalies []Anomaly
	for _, expense := range expenses {
		share, err := ComputeShare(expense, group)
		if err != nil {
			anomalies = append(anomalies, Anomaly{
				Kind:      kindOf(err),
				GroupID:   group.ID,
				ExpenseID: expense.ID,
				UserID:    expense.PaidBy,
				Err:       err,
			})
			continue
		}

		// Debts survive membership changes; departed users are kept and flagged.
		if !group.HasMember(share.PayerID) {
			anomalies = append(anomalies, unresolved(group.ID, expense.ID, share.PayerID))
		}
		for _, holder := range share.Shareholders {
			if holder != share.PayerID && !group.HasMember(holder) {
				anomalies = append(anomalies, unresolved(group.ID, expense.ID, holder))
			}
		}

		l.AddUser(share.PayerID)
		for _, holder := range share.Shareholders {
			l.AddUser(holder)
			if holder == share.PayerID {
				continue
			}
			l.Record(holder, share.PayerID, share.PerPerson)
		}
	}
	return anomalies
}

// ApplySettlements folds repayments into the ledger. A settlement from X to Y
// is recorded as Y owing X, which offsets X's existing debt to Y.
func (l *Ledger) ApplySettlements(group models.Group, settlements []models.Settlement) []Anomaly {
	var anomalies []Anomaly
	for _, s := range settlements {
		if err := validateSettlement(s); err != nil {
			anomalies = append(anomalies, Anomaly{
				Kind:      KindInvalidSettlement,
				GroupID:   group.ID,
				ExpenseID: s.ID,
				UserID:    s.FromUserID,
				Err:       err,
			})
			continue
		}
		l.Record(s.ToUserID, s.FromUserID, s.Amount)
	}
	return anomalies
}

// Accumulate builds a fresh ledger from a single group's expenses.
func Accumulate(expenses []models.Expense, group models.Group) (*Ledger, []Anomaly) {
	l := NewLedger()
	anomalies := l.AccumulateGroup(group, expenses)
	return l, anomalies
}

func validateSettlement(s models.Settlement) error {
	if !s.Amount.IsPositive() {
		return fmt.Errorf("settlement %s: %w", s.ID, ErrInvalidAmount)
	}
	if s.FromUserID == s.ToUserID {
		return fmt.Errorf("settlement %s: %w", s.ID, ErrSelfSettlement)
	}
	return nil
}

func unresolved(groupID, expenseID, userID string) Anomaly {
	return Anomaly{
		Kind:      KindUnresolvedParticipant,
		GroupID:   groupID,
		ExpenseID: expenseID,
		UserID:    userID,
		Err:       fmt.Errorf("user %s: %w", userID, ErrUnresolvedParticipant),
	}
}
