// Package budget gates paid inference calls against a fixed process-wide
// spend budget. Admission is checked and reserved before a call is made,
// so two concurrent callers can never both be granted the last slice of
// budget.
package budget

import (
	"errors"
	"sync"

	"github.com/riskline-ai/riskline/pkg/models"
)

// ErrBudgetExceeded is returned when a reservation would push spend past the budget.
var ErrBudgetExceeded = errors.New("budget exceeded")

// Tracker is a concurrency-safe spend counter. Reservations are counted
// against the budget from the moment they are granted; Commit replaces
// the estimate with the measured cost, Release drops it.
type Tracker struct {
	mu           sync.Mutex
	budgetUSD    float64
	spentUSD     float64 // committed spend, monotonically non-decreasing
	reservedUSD  float64 // estimates for calls currently in flight
	requestCount int64

	costPer1KUSD float64
}

// New creates a Tracker with the given budget and per-1K-token cost.
func New(budgetUSD, costPer1KUSD float64) *Tracker {
	return &Tracker{budgetUSD: budgetUSD, costPer1KUSD: costPer1KUSD}
}

// CostForTokens converts a token count to USD under the tracker's cost model.
func (t *Tracker) CostForTokens(tokens int) float64 {
	return float64(tokens) / 1000 * t.costPer1KUSD
}

// Reservation is a granted slice of budget for one in-flight call.
// Exactly one of Commit or Release must be called; extra calls are no-ops.
type Reservation struct {
	tracker   *Tracker
	estimated float64
	settled   bool
}

// TryReserve atomically checks that the estimated cost fits in the
// remaining budget and, if so, reserves it. A nil reservation and false
// mean the call must not be made.
func (t *Tracker) TryReserve(estimatedUSD float64) (*Reservation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.spentUSD+t.reservedUSD+estimatedUSD > t.budgetUSD {
		return nil, false
	}
	t.reservedUSD += estimatedUSD
	return &Reservation{tracker: t, estimated: estimatedUSD}, true
}

// Commit replaces the reservation's estimate with the actual measured
// cost and counts the request.
func (r *Reservation) Commit(actualUSD float64) {
	t := r.tracker
	t.mu.Lock()
	defer t.mu.Unlock()

	if r.settled {
		return
	}
	r.settled = true
	t.reservedUSD -= r.estimated
	t.spentUSD += actualUSD
	t.requestCount++
}

// Release drops the reservation without spending. Used when the call
// failed, was cancelled, or fell back to a rule-based result.
func (r *Reservation) Release() {
	t := r.tracker
	t.mu.Lock()
	defer t.mu.Unlock()

	if r.settled {
		return
	}
	r.settled = true
	t.reservedUSD -= r.estimated
}

// Status returns a snapshot of spend against the budget. In-flight
// reservations count as spent so the dashboard never overstates headroom.
func (t *Tracker) Status() models.BudgetStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	spent := t.spentUSD + t.reservedUSD
	remaining := t.budgetUSD - spent
	if remaining < 0 {
		remaining = 0
	}
	var pct float64
	if t.budgetUSD > 0 {
		pct = spent / t.budgetUSD * 100
	}
	return models.BudgetStatus{
		BudgetUSD:    t.budgetUSD,
		SpentUSD:     spent,
		RemainingUSD: remaining,
		RequestCount: t.requestCount,
		PercentSpent: pct,
	}
}
