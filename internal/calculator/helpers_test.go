package calculator

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func group(id string, memberIDs ...string) models.Group {
	g := models.Group{ID: id, Name: id, Currency: "TRY"}
	for _, m := range memberIDs {
		g.Members = append(g.Members, models.Member{ID: m, FullName: m})
	}
	return g
}

func expense(id, groupID, paidBy, amount string, split models.SplitScope) models.Expense {
	return models.Expense{
		ID:      id,
		GroupID: groupID,
		Amount:  dec(amount),
		PaidBy:  paidBy,
		Split:   split,
	}
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Round(2).Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", name, got.String(), want)
	}
}
