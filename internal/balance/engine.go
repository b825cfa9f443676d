// Package balance computes a user's balances across all of their groups.
//
// The Engine fetches a fresh snapshot of groups, expenses and settlements,
// then runs the calculator pipeline over it. The Refresher sits in front of
// the Engine and makes sure a slow, superseded refresh can never publish a
// stale result.
package balance

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// UnknownUserName is shown for users no group or directory can resolve.
const UnknownUserName = "Unknown user"

// Result is one balance computation.
type Result struct {
	View      models.BalanceView
	Anomalies []calculator.Anomaly
}

// Engine computes balance views from the group and expense stores.
// It holds no per-computation state, so concurrent calls are independent.
type Engine struct {
	groups      storage.GroupStore
	expenses    storage.ExpenseStore
	settlements storage.SettlementStore
	users       storage.UserDirectory
	metrics     *metrics.Metrics
	concurrency int
	currency    string
	now         func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithSettlements folds each group's settlements into the balances.
func WithSettlements(s storage.SettlementStore) Option {
	return func(e *Engine) { e.settlements = s }
}

// WithUserDirectory resolves users who are no longer members of any group.
func WithUserDirectory(d storage.UserDirectory) Option {
	return func(e *Engine) { e.users = d }
}

// WithMetrics records computations and anomalies.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithConcurrency bounds the number of groups fetched at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithCurrency sets the summary currency used when the user has no groups.
func WithCurrency(code string) Option {
	return func(e *Engine) { e.currency = code }
}

// NewEngine creates an engine reading from the given stores.
func NewEngine(groups storage.GroupStore, expenses storage.ExpenseStore, opts ...Option) *Engine {
	e := &Engine{
		groups:      groups,
		expenses:    expenses,
		concurrency: 8,
		currency:    "TRY",
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ComputeBalances returns the current user's summary, every user's balance and
// the netted debts across all groups the user belongs to.
//
// Any store failure aborts the computation with a *FetchError. Malformed
// expenses are skipped and reported in Result.Anomalies.
func (e *Engine) ComputeBalances(ctx context.Context, currentUserID string) (*Result, error) {
	start := time.Now()

	activity, err := e.fetch(ctx, currentUserID)
	if err != nil {
		outcome := metrics.OutcomeFetchError
		if errors.Is(err, context.Canceled) {
			outcome = metrics.OutcomeCanceled
		}
		e.metrics.ObserveComputation(outcome, start)
		return nil, err
	}
	e.metrics.ObserveGroups(len(activity))

	ledger := calculator.NewLedger()
	var anomalies []calculator.Anomaly
	for _, ga := range activity {
		anomalies = append(anomalies, ledger.AccumulateGroup(ga.Group, ga.Expenses)...)
		anomalies = append(anomalies, ledger.ApplySettlements(ga.Group, ga.Settlements)...)
	}
	consolidation := calculator.Consolidate(ledger)

	netted := calculator.SummaryFromConsolidation(consolidation, currentUserID)
	gross := calculator.Summarize(activity, currentUserID)
	if drift, ok := calculator.CheckSummary(gross, netted, currentUserID); ok {
		slog.Warn("Summary drift",
			"user_id", currentUserID,
			"gross_net", gross.NetBalance.String(),
			"netted_net", netted.NetBalance.String(),
		)
		anomalies = append(anomalies, drift)
	}

	for _, a := range anomalies {
		slog.Warn("Balance anomaly",
			"kind", a.Kind,
			"group_id", a.GroupID,
			"record_id", a.ExpenseID,
			"user_id", a.UserID,
			"error", a.Err,
		)
		e.metrics.ObserveAnomaly(string(a.Kind))
	}

	names := e.resolveNames(ctx, activity, ledger.Users())
	view := models.BalanceView{
		Summary: models.BalanceSummary{
			TotalReceivable: netted.TotalReceivable,
			TotalPayable:    netted.TotalPayable,
			NetBalance:      netted.NetBalance,
			Currency:        e.summaryCurrency(activity),
		},
		UserBalances: buildUserBalances(consolidation, ledger.Users(), names, currentUserID),
		Debts:        toDebtViews(consolidation.Debts, names),
		ComputedAt:   e.now().Unix(),
	}

	e.metrics.ObserveComputation(metrics.OutcomeOK, start)
	slog.Debug("Balances computed",
		"user_id", currentUserID,
		"groups", len(activity),
		"users", len(view.UserBalances),
		"debts", len(view.Debts),
		"anomalies", len(anomalies),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &Result{View: view, Anomalies: anomalies}, nil
}

// fetch loads the user's groups, then every group's expenses and settlements
// concurrently. Each goroutine writes only its own slot of activity.
func (e *Engine) fetch(ctx context.Context, userID string) ([]calculator.GroupActivity, error) {
	groups, err := e.groups.ListGroupsForUser(ctx, userID)
	if err != nil {
		return nil, &FetchError{Op: "list groups", ID: userID, Err: err}
	}

	activity := make([]calculator.GroupActivity, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, group := range groups {
		g.Go(func() error {
			expenses, err := e.expenses.ListExpenses(gctx, group.ID)
			if err != nil {
				return &FetchError{Op: "list expenses", ID: group.ID, Err: err}
			}
			var settlements []*models.Settlement
			if e.settlements != nil {
				settlements, err = e.settlements.ListSettlementsByGroup(gctx, group.ID)
				if err != nil {
					return &FetchError{Op: "list settlements", ID: group.ID, Err: err}
				}
			}
			activity[i] = calculator.GroupActivity{
				Group:       *group,
				Expenses:    derefAll(expenses),
				Settlements: derefAll(settlements),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return activity, nil
}

// resolveNames maps user IDs to display profiles: named group members first,
// then the user directory, then UnknownUserName.
func (e *Engine) resolveNames(ctx context.Context, activity []calculator.GroupActivity, userIDs []string) map[string]models.Member {
	names := make(map[string]models.Member, len(userIDs))
	for _, ga := range activity {
		for _, m := range ga.Group.Members {
			if _, ok := names[m.ID]; !ok && m.FullName != "" {
				names[m.ID] = m
			}
		}
	}

	var missing []string
	for _, id := range userIDs {
		if _, ok := names[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 && e.users != nil {
		users, err := e.users.GetUsersByIDs(ctx, missing)
		if err != nil {
			slog.Warn("User directory lookup failed", "count", len(missing), "error", err)
		}
		for id, u := range users {
			names[id] = u.AsMember()
		}
	}
	for _, id := range missing {
		if _, ok := names[id]; !ok {
			names[id] = models.Member{ID: id, FullName: UnknownUserName}
		}
	}
	return names
}

// summaryCurrency returns the currency of the user's groups. All amounts are
// assumed to share one currency; a mix is logged and the first group wins.
func (e *Engine) summaryCurrency(activity []calculator.GroupActivity) string {
	currency := ""
	for _, ga := range activity {
		c := ga.Group.Currency
		if c == "" {
			continue
		}
		if currency == "" {
			currency = c
			continue
		}
		if c != currency {
			slog.Warn("Mixed group currencies, amounts are not converted",
				"group_id", ga.Group.ID, "currency", c, "using", currency)
		}
	}
	if currency == "" {
		return e.currency
	}
	return currency
}

func buildUserBalances(c calculator.Consolidation, userIDs []string, names map[string]models.Member, currentUserID string) []models.UserBalance {
	balances := make([]models.UserBalance, 0, len(userIDs))
	for _, id := range userIDs {
		m := names[id]
		balance, ok := c.Balances[id]
		if !ok {
			balance = decimal.Zero
		}
		balances = append(balances, models.UserBalance{
			UserID:        id,
			FullName:      m.FullName,
			Email:         m.Email,
			Balance:       balance,
			Debts:         toDebtViews(c.DebtsOf(id), names),
			Credits:       toDebtViews(c.CreditsOf(id), names),
			IsCurrentUser: id == currentUserID,
		})
	}

	sort.SliceStable(balances, func(i, j int) bool {
		a, b := balances[i], balances[j]
		if a.IsCurrentUser != b.IsCurrentUser {
			return a.IsCurrentUser
		}
		if a.FullName != b.FullName {
			return a.FullName < b.FullName
		}
		return a.UserID < b.UserID
	})
	return balances
}

func toDebtViews(debts []calculator.Debt, names map[string]models.Member) []models.ConsolidatedDebt {
	out := make([]models.ConsolidatedDebt, 0, len(debts))
	for _, d := range debts {
		out = append(out, models.ConsolidatedDebt{
			FromUserID:   d.From,
			FromUserName: names[d.From].FullName,
			ToUserID:     d.To,
			ToUserName:   names[d.To].FullName,
			Amount:       d.Amount,
		})
	}
	return out
}

func derefAll[T any](in []*T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}
