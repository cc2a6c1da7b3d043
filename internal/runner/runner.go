// Package runner drives one benchmark run: it pages the source store to
// exhaustion, feeds every chunk through the selected strategy, and
// finalizes the run summary.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/xferbench/internal/domain"
	"github.com/bft-labs/xferbench/internal/source"
	"github.com/bft-labs/xferbench/internal/stats"
	"github.com/bft-labs/xferbench/internal/store"
	"github.com/bft-labs/xferbench/internal/strategy"
	"github.com/bft-labs/xferbench/pkg/log"
)

// drainGrace bounds how long a run waits for straggler outcomes after
// the transport has been closed.
const drainGrace = 5 * time.Second

// Session is the process-wide state scoped to one run: the run ID, the
// active strategy (holding any live channel), and the aggregator. It is
// created when a run starts and torn down when the last outcome is
// recorded or a fatal error ends the run.
type Session struct {
	ID         uuid.UUID
	Strategy   strategy.Strategy
	Aggregator *stats.Aggregator
	logger     log.Logger
}

// NewSession creates the run-scoped state: a fresh run ID, the named
// strategy, and the aggregator wired in as the strategy's outcome
// recorder.
func NewSession(name string, cfg strategy.Config, logger log.Logger) (*Session, error) {
	id := uuid.New()
	agg := stats.New(id, name)
	strat, err := strategy.New(name, cfg, agg, logger)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:         id,
		Strategy:   strat,
		Aggregator: agg,
		logger:     logger,
	}, nil
}

// Run moves the whole dataset in st to the receiver through the
// session's strategy and returns the run summary. On a fatal condition
// (source unavailable, chunk wait ceiling, channel drop) the run ends
// early and the returned summary is partial alongside the error.
func (s *Session) Run(ctx context.Context, st store.Store, chunkSize int) (domain.RunSummary, error) {
	total, err := st.Count(ctx)
	if err != nil {
		return s.Aggregator.Summarize(), fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	s.Aggregator.Expect(total)

	s.logger.Info("run starting",
		log.String("run_id", s.ID.String()),
		log.String("strategy", s.Strategy.Name()),
		log.Int64("records", total),
		log.Int("chunk_size", chunkSize))

	if err := s.Strategy.Open(ctx); err != nil {
		return s.Aggregator.Summarize(), fmt.Errorf("open transport: %w", err)
	}

	reader := source.NewReader(st, chunkSize)
	chunks := 0
	for {
		chunk, err := reader.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			_ = s.Strategy.Close(ctx)
			return s.Aggregator.Summarize(), err
		}

		chunks++
		s.logger.Debug("chunk dispatched",
			log.Int("chunk", chunks),
			log.Int("records", chunk.Size()))

		if err := s.Strategy.Send(ctx, chunk); err != nil {
			_ = s.Strategy.Close(ctx)
			return s.Aggregator.Summarize(), err
		}
	}

	// For the stream strategy this performs the end-of-stream handshake
	// and resolves every outstanding acknowledgment.
	if err := s.Strategy.Close(ctx); err != nil {
		return s.Aggregator.Summarize(), err
	}

	select {
	case <-s.Aggregator.Done():
	case <-ctx.Done():
		return s.Aggregator.Summarize(), ctx.Err()
	case <-time.After(drainGrace):
		s.logger.Warn("run ended before every outcome was recorded",
			log.Int64("expected", total),
			log.Int64("recorded", s.Aggregator.Summarize().TotalAttempted))
	}

	sum := s.Aggregator.Summarize()
	s.logger.Info("run complete",
		log.String("run_id", s.ID.String()),
		log.String("strategy", sum.Strategy),
		log.Int("chunks", chunks),
		log.Int64("success", sum.SuccessCount),
		log.Int64("failure", sum.FailureCount),
		log.Duration("elapsed", sum.Elapsed))
	return sum, nil
}
