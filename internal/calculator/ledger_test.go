package calculator

import (
	"errors"
	"testing"

	"github.com/mmynk/splitledger/internal/models"
)

func TestAccumulate(t *testing.T) {
	g := group("g1", "A", "B", "C")

	t.Run("shareholders owe the payer", func(t *testing.T) {
		l, anomalies := Accumulate([]models.Expense{
			expense("e1", "g1", "A", "90", models.AllMembers()),
		}, g)
		if len(anomalies) != 0 {
			t.Fatalf("unexpected anomalies: %v", anomalies)
		}
		assertDecimal(t, "owed[B][A]", l.Owed("B", "A"), "30")
		assertDecimal(t, "owed[C][A]", l.Owed("C", "A"), "30")
		assertDecimal(t, "Position(A,B)", l.Position("A", "B"), "-30")
		assertDecimal(t, "Position(B,A)", l.Position("B", "A"), "30")
	})

	t.Run("payer is never recorded against themselves", func(t *testing.T) {
		l, _ := Accumulate([]models.Expense{
			expense("e1", "g1", "A", "90", models.AllMembers()),
		}, g)
		if !l.Owed("A", "A").IsZero() {
			t.Errorf("owed[A][A] = %s, want 0", l.Owed("A", "A"))
		}
	})

	t.Run("idle members are registered", func(t *testing.T) {
		l, _ := Accumulate(nil, g)
		users := l.Users()
		if len(users) != 3 {
			t.Fatalf("Users() = %v, want 3 users", users)
		}
	})

	t.Run("zero member group is skipped and flagged", func(t *testing.T) {
		l, anomalies := Accumulate([]models.Expense{
			expense("e1", "empty", "A", "10", models.AllMembers()),
		}, group("empty"))
		if len(anomalies) != 1 || anomalies[0].Kind != KindInvalidGroupState {
			t.Fatalf("anomalies = %v, want one %s", anomalies, KindInvalidGroupState)
		}
		if !errors.Is(anomalies[0], ErrInvalidGroupState) {
			t.Errorf("anomaly does not unwrap to ErrInvalidGroupState")
		}
		if len(l.Users()) != 0 {
			t.Errorf("Users() = %v, want none", l.Users())
		}
	})

	t.Run("removed participant is kept and flagged", func(t *testing.T) {
		l, anomalies := Accumulate([]models.Expense{
			expense("e1", "g1", "A", "40", models.Explicit("A", "Z")),
		}, g)
		if len(anomalies) != 1 || anomalies[0].Kind != KindUnresolvedParticipant || anomalies[0].UserID != "Z" {
			t.Fatalf("anomalies = %v, want unresolved Z", anomalies)
		}
		assertDecimal(t, "owed[Z][A]", l.Owed("Z", "A"), "20")
	})

	t.Run("payer outside the split is only a payer", func(t *testing.T) {
		l, _ := Accumulate([]models.Expense{
			expense("e1", "g1", "A", "40", models.Explicit("B", "C")),
		}, g)
		assertDecimal(t, "owed[B][A]", l.Owed("B", "A"), "20")
		assertDecimal(t, "owed[C][A]", l.Owed("C", "A"), "20")
	})
}

func TestApplySettlements(t *testing.T) {
	g := group("g1", "A", "B")
	l, _ := Accumulate([]models.Expense{
		expense("e1", "g1", "A", "100", models.AllMembers()),
	}, g)

	anomalies := l.ApplySettlements(g, []models.Settlement{
		{ID: "s1", GroupID: "g1", FromUserID: "B", ToUserID: "A", Amount: dec("20")},
		{ID: "s2", GroupID: "g1", FromUserID: "B", ToUserID: "B", Amount: dec("5")},
		{ID: "s3", GroupID: "g1", FromUserID: "B", ToUserID: "A", Amount: dec("0")},
	})

	if len(anomalies) != 2 {
		t.Fatalf("anomalies = %v, want 2", anomalies)
	}
	for _, a := range anomalies {
		if a.Kind != KindInvalidSettlement {
			t.Errorf("anomaly kind = %s, want %s", a.Kind, KindInvalidSettlement)
		}
	}
	assertDecimal(t, "Position(B,A)", l.Position("B", "A"), "30")
}
