package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Debt is a netted amount one user owes another. Amount is always positive.
type Debt struct {
	From   string
	To     string
	Amount decimal.Decimal
}

// Consolidation is the netted form of a ledger.
type Consolidation struct {
	// Debts holds at most one record per unordered user pair, sorted by (From, To).
	Debts []Debt

	// Balances maps every ledger user to their net position:
	// negative for a net debtor, positive for a net creditor.
	Balances map[string]decimal.Decimal
}

type pair struct {
	a, b string // a < b
}

// Consolidate nets every unordered pair in the ledger exactly once.
//
// Algorithm:
//   - net = owed[a][b] - owed[b][a]
//   - net > 0: a owes b net; net < 0: b owes a -net; net == 0: nothing
//   - balance(u) = sum(credits to u) - sum(debts from u)
func Consolidate(l *Ledger) Consolidation {
	balances := make(map[string]decimal.Decimal, len(l.users))
	for id := range l.users {
		balances[id] = decimal.Zero
	}

	seen := make(map[pair]struct{})
	var pairs []pair
	for debtor, row := range l.owed {
		for creditor := range row {
			p := pair{a: debtor, b: creditor}
			if p.b < p.a {
				p.a, p.b = p.b, p.a
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			pairs = append(pairs, p)
		}
	}

	var debts []Debt
	for _, p := range pairs {
		net := l.Position(p.a, p.b)
		switch net.Sign() {
		case 1:
			debts = append(debts, Debt{From: p.a, To: p.b, Amount: net})
		case -1:
			debts = append(debts, Debt{From: p.b, To: p.a, Amount: net.Neg()})
		}
	}
	sortDebts(debts)

	for _, d := range debts {
		balances[d.From] = balances[d.From].Sub(d.Amount)
		balances[d.To] = balances[d.To].Add(d.Amount)
	}

	return Consolidation{Debts: debts, Balances: balances}
}

// DebtsOf returns the records where userID is the debtor.
func (c Consolidation) DebtsOf(userID string) []Debt {
	var out []Debt
	for _, d := range c.Debts {
		if d.From == userID {
			out = append(out, d)
		}
	}
	return out
}

// CreditsOf returns the records where userID is the creditor.
func (c Consolidation) CreditsOf(userID string) []Debt {
	var out []Debt
	for _, d := range c.Debts {
		if d.To == userID {
			out = append(out, d)
		}
	}
	return out
}

func sortDebts(debts []Debt) {
	sort.Slice(debts, func(i, j int) bool {
		if debts[i].From != debts[j].From {
			return debts[i].From < debts[j].From
		}
		return debts[i].To < debts[j].To
	})
}
