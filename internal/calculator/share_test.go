package calculator

import (
	"errors"
	"testing"

	"github.com/mmynk/splitledger/internal/models"
)

func TestComputeShare(t *testing.T) {
	tests := []struct {
		name             string
		expense          models.Expense
		group            models.Group
		wantErr          error
		wantPerPerson    string
		wantShareholders []string
	}{
		{
			name:             "all members equal split",
			expense:          expense("e1", "g1", "A", "90", models.AllMembers()),
			group:            group("g1", "A", "B", "C"),
			wantPerPerson:    "30",
			wantShareholders: []string{"A", "B", "C"},
		},
		{
			name:             "explicit split excludes payer",
			expense:          expense("e1", "g1", "A", "50", models.Explicit("B", "C")),
			group:            group("g1", "A", "B", "C"),
			wantPerPerson:    "25",
			wantShareholders: []string{"B", "C"},
		},
		{
			name:             "explicit split with duplicates counts each user once",
			expense:          expense("e1", "g1", "A", "60", models.Explicit("A", "B", "B")),
			group:            group("g1", "A", "B"),
			wantPerPerson:    "30",
			wantShareholders: []string{"A", "B"},
		},
		{
			name:             "uneven split keeps full precision",
			expense:          expense("e1", "g1", "A", "100", models.AllMembers()),
			group:            group("g1", "A", "B", "C"),
			wantPerPerson:    "33.33",
			wantShareholders: []string{"A", "B", "C"},
		},
		{
			name:    "zero amount is rejected",
			expense: expense("e1", "g1", "A", "0", models.AllMembers()),
			group:   group("g1", "A", "B"),
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative amount is rejected",
			expense: expense("e1", "g1", "A", "-5", models.AllMembers()),
			group:   group("g1", "A", "B"),
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "group without members",
			expense: expense("e1", "g1", "A", "10", models.AllMembers()),
			group:   group("g1"),
			wantErr: ErrInvalidGroupState,
		},
		{
			name:    "explicit split naming no one",
			expense: expense("e1", "g1", "A", "10", models.Explicit()),
			group:   group("g1", "A", "B"),
			wantErr: ErrNoShareholders,
		},
		{
			name:    "missing payer",
			expense: expense("e1", "g1", "", "10", models.AllMembers()),
			group:   group("g1", "A", "B"),
			wantErr: ErrMissingPayer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			share, err := ComputeShare(tt.expense, tt.group)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ComputeShare() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ComputeShare() unexpected error: %v", err)
			}
			assertDecimal(t, "PerPerson", share.PerPerson, tt.wantPerPerson)
			if share.PayerID != tt.expense.PaidBy {
				t.Errorf("PayerID = %s, want %s", share.PayerID, tt.expense.PaidBy)
			}
			if len(share.Shareholders) != len(tt.wantShareholders) {
				t.Fatalf("Shareholders = %v, want %v", share.Shareholders, tt.wantShareholders)
			}
			for i, id := range tt.wantShareholders {
				if share.Shareholders[i] != id {
					t.Errorf("Shareholders[%d] = %s, want %s", i, share.Shareholders[i], id)
				}
			}
		})
	}
}

func TestComputeShare_DoesNotRoundIntermediateValues(t *testing.T) {
	share, err := ComputeShare(expense("e1", "g1", "A", "100", models.AllMembers()), group("g1", "A", "B", "C"))
	if err != nil {
		t.Fatalf("ComputeShare() error = %v", err)
	}
	if share.PerPerson.Equal(dec("33.33")) {
		t.Errorf("PerPerson was rounded to %s", share.PerPerson)
	}
	if share.PerPerson.Exponent() >= -2 {
		t.Errorf("PerPerson exponent = %d, want more than 2 decimal places", share.PerPerson.Exponent())
	}
}
