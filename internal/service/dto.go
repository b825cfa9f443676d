package service

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// Amounts travel as decimal strings fixed to two places.
func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Member is a group member on the wire.
type Member struct {
	ID       string `json:"id"`
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Group is a group on the wire.
type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Currency  string   `json:"currency"`
	Members   []Member `json:"members"`
	CreatedAt int64    `json:"created_at"`
}

// Split names the shareholders of an expense.
// Exactly one of AllMembers or a non-empty UserIDs must be set.
type Split struct {
	AllMembers bool     `json:"all_members,omitempty"`
	UserIDs    []string `json:"user_ids"`
}

// Expense is an expense on the wire.
type Expense struct {
	ID          string `json:"id"`
	GroupID     string `json:"group_id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	PaidBy      string `json:"paid_by"`
	Split       Split  `json:"split"`
	CreatedAt   int64  `json:"created_at"`
}

// Settlement is a recorded repayment on the wire.
type Settlement struct {
	ID         string `json:"id"`
	GroupID    string `json:"group_id"`
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
	Amount     string `json:"amount"`
	Note       string `json:"note,omitempty"`
	CreatedBy  string `json:"created_by"`
	CreatedAt  int64  `json:"created_at"`
}

// Profile is a user directory entry on the wire.
type Profile struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Debt is a consolidated debt between two users.
type Debt struct {
	FromUserID   string `json:"from_user_id"`
	FromUserName string `json:"from_user_name"`
	ToUserID     string `json:"to_user_id"`
	ToUserName   string `json:"to_user_name"`
	Amount       string `json:"amount"`
}

// UserBalance is one user's net position.
type UserBalance struct {
	UserID        string `json:"user_id"`
	FullName      string `json:"full_name"`
	Email         string `json:"email,omitempty"`
	Balance       string `json:"balance"`
	Debts         []Debt `json:"debts"`
	Credits       []Debt `json:"credits"`
	IsCurrentUser bool   `json:"is_current_user"`
}

// Summary holds the caller's totals.
type Summary struct {
	TotalReceivable string `json:"total_receivable"`
	TotalPayable    string `json:"total_payable"`
	NetBalance      string `json:"net_balance"`
	Currency        string `json:"currency"`
}

type ComputeBalancesRequest struct{}

type GetLatestBalancesRequest struct{}

// BalancesResponse is returned by both balance procedures.
type BalancesResponse struct {
	Summary      Summary       `json:"summary"`
	UserBalances []UserBalance `json:"user_balances"`
	Debts        []Debt        `json:"debts"`
	ComputedAt   int64         `json:"computed_at"`

	// Anomalies counts the inputs skipped or flagged while computing.
	Anomalies int `json:"anomalies"`
}

type RegisterProfileRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email,omitempty"`
}

type RegisterProfileResponse struct {
	Profile Profile `json:"profile"`
}

type CreateGroupRequest struct {
	Name     string   `json:"name"`
	Currency string   `json:"currency,omitempty"`
	Members  []Member `json:"members,omitempty"`
}

type CreateGroupResponse struct {
	Group Group `json:"group"`
}

type AddMembersRequest struct {
	GroupID string   `json:"group_id"`
	Members []Member `json:"members"`
}

type AddMembersResponse struct {
	Group Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []Group `json:"groups"`
}

type AddExpenseRequest struct {
	GroupID     string `json:"group_id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	// PaidBy defaults to the caller.
	PaidBy string `json:"paid_by,omitempty"`
	Split  Split  `json:"split"`
}

type AddExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type ListExpensesRequest struct {
	GroupID string `json:"group_id"`
}

type ListExpensesResponse struct {
	Expenses []Expense `json:"expenses"`
}

type RecordSettlementRequest struct {
	GroupID string `json:"group_id"`
	// FromUserID defaults to the caller.
	FromUserID string `json:"from_user_id,omitempty"`
	ToUserID   string `json:"to_user_id"`
	Amount     string `json:"amount"`
	Note       string `json:"note,omitempty"`
}

type RecordSettlementResponse struct {
	Settlement Settlement `json:"settlement"`
}

func toGroupDTO(g *models.Group) Group {
	members := make([]Member, len(g.Members))
	for i, m := range g.Members {
		members[i] = Member{ID: m.ID, FullName: m.FullName, Email: m.Email}
	}
	return Group{
		ID:        g.ID,
		Name:      g.Name,
		Currency:  g.Currency,
		Members:   members,
		CreatedAt: g.CreatedAt,
	}
}

func toSplitDTO(s models.SplitScope) Split {
	if s.IsAllMembers() {
		return Split{AllMembers: true}
	}
	return Split{UserIDs: s.UserIDs()}
}

func toExpenseDTO(e *models.Expense) Expense {
	return Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		Amount:      formatAmount(e.Amount),
		Currency:    e.Currency,
		PaidBy:      e.PaidBy,
		Split:       toSplitDTO(e.Split),
		CreatedAt:   e.CreatedAt,
	}
}

func toSettlementDTO(s *models.Settlement) Settlement {
	return Settlement{
		ID:         s.ID,
		GroupID:    s.GroupID,
		FromUserID: s.FromUserID,
		ToUserID:   s.ToUserID,
		Amount:     formatAmount(s.Amount),
		Note:       s.Note,
		CreatedBy:  s.CreatedBy,
		CreatedAt:  s.CreatedAt,
	}
}

func toDebtDTOs(debts []models.ConsolidatedDebt) []Debt {
	out := make([]Debt, len(debts))
	for i, d := range debts {
		out[i] = Debt{
			FromUserID:   d.FromUserID,
			FromUserName: d.FromUserName,
			ToUserID:     d.ToUserID,
			ToUserName:   d.ToUserName,
			Amount:       formatAmount(d.Amount),
		}
	}
	return out
}

func toBalancesResponse(view models.BalanceView, anomalies int) *BalancesResponse {
	balances := make([]UserBalance, len(view.UserBalances))
	for i, b := range view.UserBalances {
		balances[i] = UserBalance{
			UserID:        b.UserID,
			FullName:      b.FullName,
			Email:         b.Email,
			Balance:       formatAmount(b.Balance),
			Debts:         toDebtDTOs(b.Debts),
			Credits:       toDebtDTOs(b.Credits),
			IsCurrentUser: b.IsCurrentUser,
		}
	}
	return &BalancesResponse{
		Summary: Summary{
			TotalReceivable: formatAmount(view.Summary.TotalReceivable),
			TotalPayable:    formatAmount(view.Summary.TotalPayable),
			NetBalance:      formatAmount(view.Summary.NetBalance),
			Currency:        view.Summary.Currency,
		},
		UserBalances: balances,
		Debts:        toDebtDTOs(view.Debts),
		ComputedAt:   view.ComputedAt,
		Anomalies:    anomalies,
	}
}
