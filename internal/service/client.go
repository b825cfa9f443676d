package service

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
}

// BalanceServiceClient calls the BalanceService.
type BalanceServiceClient struct {
	computeBalances   *connect.Client[ComputeBalancesRequest, BalancesResponse]
	getLatestBalances *connect.Client[GetLatestBalancesRequest, BalancesResponse]
}

// NewBalanceServiceClient creates a client for the BalanceService at baseURL.
func NewBalanceServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *BalanceServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &BalanceServiceClient{
		computeBalances: connect.NewClient[ComputeBalancesRequest, BalancesResponse](
			httpClient, baseURL+BalanceServiceComputeBalancesProcedure, opts...),
		getLatestBalances: connect.NewClient[GetLatestBalancesRequest, BalancesResponse](
			httpClient, baseURL+BalanceServiceGetLatestBalancesProcedure, opts...),
	}
}

func (c *BalanceServiceClient) ComputeBalances(ctx context.Context, req *connect.Request[ComputeBalancesRequest]) (*connect.Response[BalancesResponse], error) {
	return c.computeBalances.CallUnary(ctx, req)
}

func (c *BalanceServiceClient) GetLatestBalances(ctx context.Context, req *connect.Request[GetLatestBalancesRequest]) (*connect.Response[BalancesResponse], error) {
	return c.getLatestBalances.CallUnary(ctx, req)
}

// LedgerServiceClient calls the LedgerService.
type LedgerServiceClient struct {
	registerProfile  *connect.Client[RegisterProfileRequest, RegisterProfileResponse]
	createGroup      *connect.Client[CreateGroupRequest, CreateGroupResponse]
	addMembers       *connect.Client[AddMembersRequest, AddMembersResponse]
	listGroups       *connect.Client[ListGroupsRequest, ListGroupsResponse]
	addExpense       *connect.Client[AddExpenseRequest, AddExpenseResponse]
	listExpenses     *connect.Client[ListExpensesRequest, ListExpensesResponse]
	recordSettlement *connect.Client[RecordSettlementRequest, RecordSettlementResponse]
}

// NewLedgerServiceClient creates a client for the LedgerService at baseURL.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &LedgerServiceClient{
		registerProfile: connect.NewClient[RegisterProfileRequest, RegisterProfileResponse](
			httpClient, baseURL+LedgerServiceRegisterProfileProcedure, opts...),
		createGroup: connect.NewClient[CreateGroupRequest, CreateGroupResponse](
			httpClient, baseURL+LedgerServiceCreateGroupProcedure, opts...),
		addMembers: connect.NewClient[AddMembersRequest, AddMembersResponse](
			httpClient, baseURL+LedgerServiceAddMembersProcedure, opts...),
		listGroups: connect.NewClient[ListGroupsRequest, ListGroupsResponse](
			httpClient, baseURL+LedgerServiceListGroupsProcedure, opts...),
		addExpense: connect.NewClient[AddExpenseRequest, AddExpenseResponse](
			httpClient, baseURL+LedgerServiceAddExpenseProcedure, opts...),
		listExpenses: connect.NewClient[ListExpensesRequest, ListExpensesResponse](
			httpClient, baseURL+LedgerServiceListExpensesProcedure, opts...),
		recordSettlement: connect.NewClient[RecordSettlementRequest, RecordSettlementResponse](
			httpClient, baseURL+LedgerServiceRecordSettlementProcedure, opts...),
	}
}

func (c *LedgerServiceClient) RegisterProfile(ctx context.Context, req *connect.Request[RegisterProfileRequest]) (*connect.Response[RegisterProfileResponse], error) {
	return c.registerProfile.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) AddMembers(ctx context.Context, req *connect.Request[AddMembersRequest]) (*connect.Response[AddMembersResponse], error) {
	return c.addMembers.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) ListGroups(ctx context.Context, req *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) AddExpense(ctx context.Context, req *connect.Request[AddExpenseRequest]) (*connect.Response[AddExpenseResponse], error) {
	return c.addExpense.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) RecordSettlement(ctx context.Context, req *connect.Request[RecordSettlementRequest]) (*connect.Response[RecordSettlementResponse], error) {
	return c.recordSettlement.CallUnary(ctx, req)
}
