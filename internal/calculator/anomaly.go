package calculator

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAmount is returned for expenses or settlements whose amount is not positive.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidGroupState is returned when a group with no members has expenses.
	ErrInvalidGroupState = errors.New("group has no members")

	// ErrMissingPayer is returned for expenses with no payer.
	ErrMissingPayer = errors.New("expense has no payer")

	// ErrNoShareholders is returned when an explicit split names no one.
	ErrNoShareholders = errors.New("expense has no shareholders")

	// ErrUnresolvedParticipant marks a payer or shareholder who is not a current group member.
	ErrUnresolvedParticipant = errors.New("participant is not a current group member")

	// ErrSelfSettlement is returned for a settlement paid to oneself.
	ErrSelfSettlement = errors.New("settlement sender and receiver are the same user")

	// ErrSummaryDrift marks a disagreement between the gross and netted summaries.
	ErrSummaryDrift = errors.New("gross summary disagrees with consolidated balance")
)

// AnomalyKind labels a data-quality problem found while accumulating.
type AnomalyKind string

const (
	KindInvalidGroupState     AnomalyKind = "invalid_group_state"
	KindInvalidAmount         AnomalyKind = "invalid_amount"
	KindNoShareholders        AnomalyKind = "no_shareholders"
	KindMissingPayer          AnomalyKind = "missing_payer"
	KindUnresolvedParticipant AnomalyKind = "unresolved_participant"
	KindInvalidSettlement     AnomalyKind = "invalid_settlement"
	KindSummaryDrift          AnomalyKind = "summary_drift"
)

// Anomaly describes a record that was skipped or degraded during a computation.
// Anomalies never abort a computation.
type Anomaly struct {
	Kind      AnomalyKind
	GroupID   string
	ExpenseID string // expense or settlement ID
	UserID    string
	Err       error
}

func (a Anomaly) Error() string {
	return fmt.Sprintf("%s: group=%s record=%s user=%s: %v", a.Kind, a.GroupID, a.ExpenseID, a.UserID, a.Err)
}

func (a Anomaly) Unwrap() error {
	return a.Err
}

// kindOf maps a share error to its anomaly kind.
func kindOf(err error) AnomalyKind {
	switch {
	case errors.Is(err, ErrInvalidGroupState):
		return KindInvalidGroupState
	case errors.Is(err, ErrInvalidAmount):
		return KindInvalidAmount
	case errors.Is(err, ErrNoShareholders):
		return KindNoShareholders
	case errors.Is(err, ErrMissingPayer):
		return KindMissingPayer
	case errors.Is(err, ErrUnresolvedParticipant):
		return KindUnresolvedParticipant
	default:
		return KindInvalidSettlement
	}
}
