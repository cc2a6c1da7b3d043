// Package stats accumulates per-record delivery outcomes into a run
// summary.
package stats

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/xferbench/internal/domain"
)

// DefaultErrorRetention is how many recent failure details are kept for
// diagnostics.
const DefaultErrorRetention = 100

// Aggregator accumulates delivery outcomes across a run. It is safe for
// concurrent Record calls from any number of lanes and listener
// goroutines; outcomes may arrive in any order relative to send order.
type Aggregator struct {
	mu          sync.Mutex
	runID       uuid.UUID
	strategy    string
	success     int64
	failure     int64
	expected    int64
	retention   int
	errDetails  []string
	started     time.Time
	lastOutcome time.Time
	done        chan struct{}
	completed   bool
}

// New creates an aggregator for one run. The run clock starts now.
func New(runID uuid.UUID, strategy string) *Aggregator {
	return &Aggregator{
		runID:     runID,
		strategy:  strategy,
		retention: DefaultErrorRetention,
		expected:  -1,
		started:   time.Now(),
		done:      make(chan struct{}),
	}
}

// Expect sets the total outcome count after which the run is complete.
func (a *Aggregator) Expect(total int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.expected = total
	a.maybeCompleteLocked()
}

// Record adds one delivery outcome to the running totals. Failure details
// beyond the retention bound evict the oldest entry.
func (a *Aggregator) Record(o domain.DeliveryOutcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch o.Status {
	case domain.StatusSuccess:
		a.success++
	case domain.StatusFailure:
		a.failure++
		if o.Detail != "" {
			a.errDetails = append(a.errDetails, o.Detail)
			if len(a.errDetails) > a.retention {
				a.errDetails = a.errDetails[1:]
			}
		}
	}
	a.lastOutcome = time.Now()
	a.maybeCompleteLocked()
}

// maybeCompleteLocked closes the done channel once every expected outcome
// has been recorded. Callers must hold a.mu.
func (a *Aggregator) maybeCompleteLocked() {
	if a.completed || a.expected < 0 {
		return
	}
	if a.success+a.failure >= a.expected {
		a.completed = true
		close(a.done)
	}
}

// Done returns a channel closed once recorded outcomes reach the expected
// total set via Expect.
func (a *Aggregator) Done() <-chan struct{} {
	return a.done
}

// Summarize returns the run summary reflecting outcomes recorded so far.
// Calling it twice without intervening Record calls returns identical
// values: elapsed time is measured from run start to the latest outcome,
// not to the time of the Summarize call.
func (a *Aggregator) Summarize() domain.RunSummary {
	a.mu.Lock()
	defer a.mu.Unlock()

	var elapsed time.Duration
	if !a.lastOutcome.IsZero() {
		elapsed = a.lastOutcome.Sub(a.started)
	}
	return domain.RunSummary{
		RunID:          a.runID,
		Strategy:       a.strategy,
		TotalAttempted: a.success + a.failure,
		SuccessCount:   a.success,
		FailureCount:   a.failure,
		Elapsed:        elapsed,
	}
}

// ErrorDetails returns a copy of the retained failure details, oldest
// first.
func (a *Aggregator) ErrorDetails() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.errDetails))
	copy(out, a.errDetails)
	return out
}
