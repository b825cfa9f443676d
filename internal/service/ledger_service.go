package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// ProfileCache is a cache of directory profiles that must forget a user
// whose profile changed.
type ProfileCache interface {
	Invalidate(ctx context.Context, ids ...string) error
}

// LedgerService implements the LedgerService RPCs.
type LedgerService struct {
	store    storage.Store
	currency string
	cache    ProfileCache
}

// LedgerOption configures a LedgerService.
type LedgerOption func(*LedgerService)

// WithDefaultCurrency sets the currency of groups created without one.
func WithDefaultCurrency(code string) LedgerOption {
	return func(s *LedgerService) {
		if code != "" {
			s.currency = code
		}
	}
}

// WithProfileCache invalidates cached profiles when they are written.
func WithProfileCache(c ProfileCache) LedgerOption {
	return func(s *LedgerService) { s.cache = c }
}

// NewLedgerService creates a new LedgerService with the given storage backend.
func NewLedgerService(store storage.Store, opts ...LedgerOption) *LedgerService {
	s := &LedgerService{store: store, currency: "TRY"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterProfile creates the caller's directory profile.
func (s *LedgerService) RegisterProfile(ctx context.Context, req *connect.Request[RegisterProfileRequest]) (*connect.Response[RegisterProfileResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("RegisterProfile request received", "user_id", userID)

	fullName := strings.TrimSpace(req.Msg.FullName)
	if fullName == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("full_name required"))
	}
	email := req.Msg.Email
	if email == "" {
		email = middleware.GetEmail(ctx)
	}

	existing, err := s.store.GetUsersByIDs(ctx, []string{userID})
	if err != nil {
		slog.Error("RegisterProfile lookup failed", "user_id", userID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if _, ok := existing[userID]; ok {
		return nil, connect.NewError(connect.CodeAlreadyExists, fmt.Errorf("profile for %s already exists", userID))
	}

	user := models.NewUser(email, fullName)
	user.ID = userID
	if err := s.store.CreateUser(ctx, user); err != nil {
		slog.Error("RegisterProfile failed", "user_id", userID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, userID); err != nil {
			slog.Warn("Failed to invalidate cached profile", "user_id", userID, "error", err)
		}
	}

	slog.Info("Profile registered", "user_id", userID)
	return connect.NewResponse(&RegisterProfileResponse{
		Profile: Profile{ID: user.ID, FullName: user.FullName, Email: user.Email},
	}), nil
}

// CreateGroup creates a new group. The caller is always its first member.
func (s *LedgerService) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("name required"))
	}
	currency := req.Msg.Currency
	if currency == "" {
		currency = s.currency
	}

	requested := append([]Member{{ID: userID, Email: middleware.GetEmail(ctx)}}, req.Msg.Members...)
	members, err := s.resolveMembers(ctx, requested)
	if err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:     name,
		Currency: currency,
		Members:  members,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Group created", "group_id", group.ID, "members_count", len(group.Members))
	return connect.NewResponse(&CreateGroupResponse{Group: toGroupDTO(group)}), nil
}

// AddMembers adds members to a group the caller belongs to.
func (s *LedgerService) AddMembers(ctx context.Context, req *connect.Request[AddMembersRequest]) (*connect.Response[AddMembersResponse], error) {
	slog.Info("AddMembers request received", "group_id", req.Msg.GroupID, "members_count", len(req.Msg.Members))

	if _, err := s.groupForCaller(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}
	if len(req.Msg.Members) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("members required"))
	}

	members, err := s.resolveMembers(ctx, req.Msg.Members)
	if err != nil {
		return nil, err
	}
	if err := s.store.AddGroupMembers(ctx, req.Msg.GroupID, members); err != nil {
		slog.Error("AddMembers failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, storeError(err)
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, storeError(err)
	}

	slog.Info("Members added", "group_id", group.ID, "members_count", len(group.Members))
	return connect.NewResponse(&AddMembersResponse{Group: toGroupDTO(group)}), nil
}

// ListGroups returns the groups the caller belongs to.
func (s *LedgerService) ListGroups(ctx context.Context, req *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ListGroups request received", "user_id", userID)

	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		slog.Error("ListGroups failed", "user_id", userID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = toGroupDTO(g)
	}

	slog.Info("ListGroups successful", "count", len(out))
	return connect.NewResponse(&ListGroupsResponse{Groups: out}), nil
}

// AddExpense records an expense in a group the caller belongs to.
// The payer and every explicit shareholder must be members of the group.
func (s *LedgerService) AddExpense(ctx context.Context, req *connect.Request[AddExpenseRequest]) (*connect.Response[AddExpenseResponse], error) {
	slog.Info("AddExpense request received",
		"group_id", req.Msg.GroupID,
		"amount", req.Msg.Amount,
	)

	group, err := s.groupForCaller(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}

	amount, err := parseAmount(req.Msg.Amount)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	paidBy := req.Msg.PaidBy
	if paidBy == "" {
		paidBy = middleware.GetUserID(ctx)
	}
	if !group.HasMember(paidBy) {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("paid_by '%s' must be a member of the group", paidBy))
	}

	split, err := parseSplit(req.Msg.Split, group)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	expense := &models.Expense{
		GroupID:     group.ID,
		Description: strings.TrimSpace(req.Msg.Description),
		Amount:      amount,
		Currency:    group.Currency,
		PaidBy:      paidBy,
		Split:       split,
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("AddExpense failed", "group_id", group.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Expense created", "expense_id", expense.ID, "group_id", group.ID)
	return connect.NewResponse(&AddExpenseResponse{Expense: toExpenseDTO(expense)}), nil
}

// ListExpenses returns a group's expenses, most recent first.
func (s *LedgerService) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	slog.Info("ListExpenses request received", "group_id", req.Msg.GroupID)

	group, err := s.groupForCaller(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpenses(ctx, group.ID)
	if err != nil {
		slog.Error("ListExpenses failed", "group_id", group.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	out := make([]Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toExpenseDTO(e)
	}

	slog.Info("ListExpenses successful", "group_id", group.ID, "count", len(out))
	return connect.NewResponse(&ListExpensesResponse{Expenses: out}), nil
}

// RecordSettlement records a repayment between two members of a group.
func (s *LedgerService) RecordSettlement(ctx context.Context, req *connect.Request[RecordSettlementRequest]) (*connect.Response[RecordSettlementResponse], error) {
	slog.Info("RecordSettlement request received",
		"group_id", req.Msg.GroupID,
		"to_user_id", req.Msg.ToUserID,
		"amount", req.Msg.Amount,
	)

	group, err := s.groupForCaller(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	caller := middleware.GetUserID(ctx)

	from := req.Msg.FromUserID
	if from == "" {
		from = caller
	}
	to := req.Msg.ToUserID
	if to == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("to_user_id required"))
	}
	if from == to {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("cannot settle with yourself"))
	}
	for _, id := range []string{from, to} {
		if !group.HasMember(id) {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("user '%s' must be a member of the group", id))
		}
	}

	amount, err := parseAmount(req.Msg.Amount)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	settlement := &models.Settlement{
		GroupID:    group.ID,
		FromUserID: from,
		ToUserID:   to,
		Amount:     amount,
		CreatedBy:  caller,
		Note:       strings.TrimSpace(req.Msg.Note),
	}
	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		slog.Error("RecordSettlement failed", "group_id", group.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Settlement recorded", "settlement_id", settlement.ID, "group_id", group.ID)
	return connect.NewResponse(&RecordSettlementResponse{Settlement: toSettlementDTO(settlement)}), nil
}

// groupForCaller loads a group and checks that the caller is a member.
func (s *LedgerService) groupForCaller(ctx context.Context, groupID string) (*models.Group, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if groupID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("group_id required"))
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		slog.Error("GetGroup failed", "group_id", groupID, "error", err)
		return nil, storeError(err)
	}
	if !group.HasMember(userID) {
		return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("you must be a member of this group"))
	}
	return group, nil
}

// resolveMembers drops duplicate IDs and fills missing names and emails
// from the user directory.
func (s *LedgerService) resolveMembers(ctx context.Context, requested []Member) ([]models.Member, error) {
	seen := make(map[string]bool, len(requested))
	members := make([]models.Member, 0, len(requested))
	var lookup []string
	for _, m := range requested {
		id := strings.TrimSpace(m.ID)
		if id == "" {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("member id required"))
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, models.Member{ID: id, FullName: m.FullName, Email: m.Email})
		if m.FullName == "" {
			lookup = append(lookup, id)
		}
	}
	if len(lookup) == 0 {
		return members, nil
	}

	profiles, err := s.store.GetUsersByIDs(ctx, lookup)
	if err != nil {
		// Names are display data; members without one resolve at read time.
		slog.Warn("Failed to resolve member profiles", "error", err)
		return members, nil
	}
	for i, m := range members {
		p, ok := profiles[m.ID]
		if !ok {
			continue
		}
		if m.FullName == "" {
			members[i].FullName = p.FullName
		}
		if m.Email == "" {
			members[i].Email = p.Email
		}
	}
	return members, nil
}

// parseAmount parses a positive amount with at most two decimal places.
func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount '%s'", s)
	}
	if !amount.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("amount must be positive")
	}
	if !amount.Equal(amount.Round(2)) {
		return decimal.Decimal{}, fmt.Errorf("amount must have at most two decimal places")
	}
	return amount, nil
}

// parseSplit converts a wire split into a scope over group members.
func parseSplit(split Split, group *models.Group) (models.SplitScope, error) {
	if split.AllMembers {
		if len(split.UserIDs) > 0 {
			return models.SplitScope{}, fmt.Errorf("split must set either all_members or user_ids, not both")
		}
		return models.AllMembers(), nil
	}
	if len(split.UserIDs) == 0 {
		return models.SplitScope{}, fmt.Errorf("split must name at least one user or all_members")
	}
	for _, id := range split.UserIDs {
		if !group.HasMember(id) {
			return models.SplitScope{}, fmt.Errorf("user '%s' in split must be a member of the group", id)
		}
	}
	return models.Explicit(split.UserIDs...), nil
}

func storeError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}
