// Package receiver implements the service side of the harness: an HTTP
// save endpoint, a persistent stream endpoint, and the fault-injected
// sink that fronts the store.
package receiver

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/xferbench/internal/domain"
	"github.com/bft-labs/xferbench/internal/store"
	"github.com/bft-labs/xferbench/pkg/log"
)

// DefaultRejectProbability is the fraction of records the sink rejects
// to exercise the sender's partial-failure handling.
const DefaultRejectProbability = 0.01

// Sink persists records, rejecting a configurable fraction of them
// before they reach the store. The rejection draw is independent per
// record and seed-controllable so tests are reproducible. Safe for
// concurrent use.
type Sink struct {
	store    store.Store
	logger   log.Logger
	probBits atomic.Uint64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSink creates a sink over st rejecting with the given probability.
// A zero seed derives one from the clock; tests pass a fixed seed.
func NewSink(st store.Store, probability float64, seed int64, logger log.Logger) *Sink {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := &Sink{
		store:  st,
		logger: logger,
		rng:    rand.New(rand.NewSource(seed)),
	}
	s.SetRejectProbability(probability)
	return s
}

// Accept persists the record, or rejects it without persisting. A
// rejection wraps domain.ErrRecordRejected; any other error is a store
// failure.
func (s *Sink) Accept(ctx context.Context, rec domain.Record) error {
	p := s.RejectProbability()

	s.mu.Lock()
	rejected := p > 0 && s.rng.Float64() < p
	s.mu.Unlock()

	if rejected {
		return fmt.Errorf("%w: synthetic fault injected for record %d", domain.ErrRecordRejected, rec.ID)
	}
	return s.store.Save(ctx, rec)
}

// SetRejectProbability atomically swaps the rejection probability,
// clamped to [0, 1]. Used by the config watcher while serving.
func (s *Sink) SetRejectProbability(p float64) {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	s.probBits.Store(math.Float64bits(p))
}

// RejectProbability returns the current rejection probability.
func (s *Sink) RejectProbability() float64 {
	return math.Float64frombits(s.probBits.Load())
}
