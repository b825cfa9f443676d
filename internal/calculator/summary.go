package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// Summary holds one user's aggregate totals.
type Summary struct {
	TotalReceivable decimal.Decimal
	TotalPayable    decimal.Decimal
	NetBalance      decimal.Decimal
}

// GroupActivity is everything fetched for one group.
type GroupActivity struct {
	Group       models.Group
	Expenses    []models.Expense
	Settlements []models.Settlement
}

// Summarize computes a user's totals straight from the expenses, without netting:
//   - receivable: per-person share of every expense the user paid, per other shareholder
//   - payable: per-person share of every expense the user shares but someone else paid
//
// Settlements the user paid count as receivable and settlements the user
// received count as payable, mirroring how the ledger records them.
// NetBalance always equals the user's consolidated balance.
func Summarize(activity []GroupActivity, currentUserID string) Summary {
	receivable := decimal.Zero
	payable := decimal.Zero

	for _, ga := range activity {
		for _, expense := range ga.Expenses {
			share, err := ComputeShare(expense, ga.Group)
			if err != nil {
				continue
			}
			for _, holder := range share.Shareholders {
				if holder == share.PayerID {
					continue
				}
				if share.PayerID == currentUserID {
					receivable = receivable.Add(share.PerPerson)
				}
				if holder == currentUserID {
					payable = payable.Add(share.PerPerson)
				}
			}
		}
		for _, s := range ga.Settlements {
			if validateSettlement(s) != nil {
				continue
			}
			switch currentUserID {
			case s.FromUserID:
				receivable = receivable.Add(s.Amount)
			case s.ToUserID:
				payable = payable.Add(s.Amount)
			}
		}
	}

	return Summary{
		TotalReceivable: receivable,
		TotalPayable:    payable,
		NetBalance:      receivable.Sub(payable),
	}
}

// SummaryFromConsolidation derives a user's totals from netted debts:
// receivable is the sum of their credits, payable the sum of their debts.
func SummaryFromConsolidation(c Consolidation, userID string) Summary {
	receivable := decimal.Zero
	payable := decimal.Zero
	for _, d := range c.Debts {
		switch userID {
		case d.To:
			receivable = receivable.Add(d.Amount)
		case d.From:
			payable = payable.Add(d.Amount)
		}
	}
	return Summary{
		TotalReceivable: receivable,
		TotalPayable:    payable,
		NetBalance:      receivable.Sub(payable),
	}
}

// CheckSummary compares the gross and netted summaries for a user and
// returns a summary_drift anomaly when their net balances disagree.
func CheckSummary(gross, netted Summary, userID string) (Anomaly, bool) {
	if gross.NetBalance.Equal(netted.NetBalance) {
		return Anomaly{}, false
	}
	return Anomaly{
		Kind:   KindSummaryDrift,
		UserID: userID,
		Err:    ErrSummaryDrift,
	}, true
}
