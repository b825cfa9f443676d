// Package service implements the Connect RPC services: BalanceService computes
// a user's consolidated balances and LedgerService records the groups,
// expenses and settlements they are computed from.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/balance"
	"github.com/mmynk/splitledger/internal/middleware"
)

var errNoSnapshot = errors.New("no balances computed yet")

// BalanceService implements the BalanceService RPCs on top of a Refresher.
type BalanceService struct {
	refresher *balance.Refresher
}

// NewBalanceService creates a new BalanceService.
func NewBalanceService(refresher *balance.Refresher) *BalanceService {
	return &BalanceService{refresher: refresher}
}

// ComputeBalances recomputes the caller's balances across all of their groups.
// A newer call from the same user cancels this one, which then fails with
// CodeAborted.
func (s *BalanceService) ComputeBalances(ctx context.Context, req *connect.Request[ComputeBalancesRequest]) (*connect.Response[BalancesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ComputeBalances request received", "user_id", userID)

	result, err := s.refresher.Refresh(ctx, userID)
	if err != nil {
		return nil, balanceError(err)
	}

	slog.Info("ComputeBalances successful",
		"user_id", userID,
		"users", len(result.View.UserBalances),
		"debts", len(result.View.Debts),
		"anomalies", len(result.Anomalies),
	)
	return connect.NewResponse(toBalancesResponse(result.View, len(result.Anomalies))), nil
}

// GetLatestBalances returns the caller's last published balances without
// recomputing them.
func (s *BalanceService) GetLatestBalances(ctx context.Context, req *connect.Request[GetLatestBalancesRequest]) (*connect.Response[BalancesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	result, ok := s.refresher.Latest(userID)
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, errNoSnapshot)
	}
	return connect.NewResponse(toBalancesResponse(result.View, len(result.Anomalies))), nil
}

// balanceError maps a refresh failure to a Connect error code.
func balanceError(err error) error {
	var fetchErr *balance.FetchError
	switch {
	case errors.Is(err, balance.ErrSuperseded):
		return connect.NewError(connect.CodeAborted, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.As(err, &fetchErr):
		slog.Error("Balance computation aborted", "op", fetchErr.Op, "id", fetchErr.ID, "error", fetchErr.Err)
		return connect.NewError(connect.CodeUnavailable, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// callerID returns the authenticated user of the request.
func callerID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}
	return userID, nil
}
