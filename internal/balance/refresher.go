package balance

import (
	"context"
	"sync"

	"github.com/mmynk/splitledger/internal/metrics"
)

// Computer computes balances for one user.
type Computer interface {
	ComputeBalances(ctx context.Context, currentUserID string) (*Result, error)
}

// Refresher coordinates balance refreshes per user with a last-started-wins
// policy: starting a refresh cancels the one already in flight for the same
// user, and only the most recently started refresh may publish its result.
type Refresher struct {
	computer Computer
	metrics  *metrics.Metrics

	mu       sync.Mutex
	seq      uint64
	inflight map[string]inflight
	latest   map[string]*Result
}

type inflight struct {
	seq    uint64
	cancel context.CancelFunc
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithRefreshMetrics counts superseded refreshes in m.
func WithRefreshMetrics(m *metrics.Metrics) RefresherOption {
	return func(r *Refresher) { r.metrics = m }
}

// NewRefresher creates a Refresher in front of computer.
func NewRefresher(computer Computer, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		computer: computer,
		inflight: make(map[string]inflight),
		latest:   make(map[string]*Result),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh computes fresh balances for userID.
// It returns ErrSuperseded if another Refresh for the same user started
// before this one finished; the newer refresh's result is kept.
func (r *Refresher) Refresh(ctx context.Context, userID string) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	r.seq++
	seq := r.seq
	if prev, ok := r.inflight[userID]; ok {
		prev.cancel()
	}
	r.inflight[userID] = inflight{seq: seq, cancel: cancel}
	r.mu.Unlock()

	result, err := r.computer.ComputeBalances(ctx, userID)

	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.inflight[userID]
	if !ok || cur.seq != seq {
		r.metrics.ObserveSuperseded()
		return nil, ErrSuperseded
	}
	delete(r.inflight, userID)

	if err != nil {
		return nil, err
	}
	r.latest[userID] = result
	return result, nil
}

// Latest returns the last result published for userID.
func (r *Refresher) Latest(userID string) (*Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result, ok := r.latest[userID]
	return result, ok
}
