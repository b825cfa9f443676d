package service

import (
	"net/http"

	"connectrpc.com/connect"
)

const (
	// BalanceServiceName is the fully-qualified name of the BalanceService.
	BalanceServiceName = "splitledger.v1.BalanceService"
	// LedgerServiceName is the fully-qualified name of the LedgerService.
	LedgerServiceName = "splitledger.v1.LedgerService"
)

// Procedure paths, in the form "/<service>/<method>".
const (
	BalanceServiceComputeBalancesProcedure   = "/" + BalanceServiceName + "/ComputeBalances"
	BalanceServiceGetLatestBalancesProcedure = "/" + BalanceServiceName + "/GetLatestBalances"

	LedgerServiceRegisterProfileProcedure  = "/" + LedgerServiceName + "/RegisterProfile"
	LedgerServiceCreateGroupProcedure      = "/" + LedgerServiceName + "/CreateGroup"
	LedgerServiceAddMembersProcedure       = "/" + LedgerServiceName + "/AddMembers"
	LedgerServiceListGroupsProcedure       = "/" + LedgerServiceName + "/ListGroups"
	LedgerServiceAddExpenseProcedure       = "/" + LedgerServiceName + "/AddExpense"
	LedgerServiceListExpensesProcedure     = "/" + LedgerServiceName + "/ListExpenses"
	LedgerServiceRecordSettlementProcedure = "/" + LedgerServiceName + "/RecordSettlement"
)

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
}

// NewBalanceServiceHandler builds an HTTP handler for the BalanceService and
// returns the path on which to mount it.
func NewBalanceServiceHandler(svc *BalanceService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	routes := map[string]http.Handler{
		BalanceServiceComputeBalancesProcedure: connect.NewUnaryHandler(
			BalanceServiceComputeBalancesProcedure, svc.ComputeBalances, opts...),
		BalanceServiceGetLatestBalancesProcedure: connect.NewUnaryHandler(
			BalanceServiceGetLatestBalancesProcedure, svc.GetLatestBalances, opts...),
	}
	return "/" + BalanceServiceName + "/", route(routes)
}

// NewLedgerServiceHandler builds an HTTP handler for the LedgerService and
// returns the path on which to mount it.
func NewLedgerServiceHandler(svc *LedgerService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	routes := map[string]http.Handler{
		LedgerServiceRegisterProfileProcedure: connect.NewUnaryHandler(
			LedgerServiceRegisterProfileProcedure, svc.RegisterProfile, opts...),
		LedgerServiceCreateGroupProcedure: connect.NewUnaryHandler(
			LedgerServiceCreateGroupProcedure, svc.CreateGroup, opts...),
		LedgerServiceAddMembersProcedure: connect.NewUnaryHandler(
			LedgerServiceAddMembersProcedure, svc.AddMembers, opts...),
		LedgerServiceListGroupsProcedure: connect.NewUnaryHandler(
			LedgerServiceListGroupsProcedure, svc.ListGroups, opts...),
		LedgerServiceAddExpenseProcedure: connect.NewUnaryHandler(
			LedgerServiceAddExpenseProcedure, svc.AddExpense, opts...),
		LedgerServiceListExpensesProcedure: connect.NewUnaryHandler(
			LedgerServiceListExpensesProcedure, svc.ListExpenses, opts...),
		LedgerServiceRecordSettlementProcedure: connect.NewUnaryHandler(
			LedgerServiceRecordSettlementProcedure, svc.RecordSettlement, opts...),
	}
	return "/" + LedgerServiceName + "/", route(routes)
}

func route(routes map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}
