package strategy

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/bft-labs/xferbench/internal/domain"
	"github.com/bft-labs/xferbench/pkg/log"
)

// AsyncRequest delivers a chunk as concurrent requests under a hard
// global ceiling. The chunk is partitioned into sub-batches; sub-batches
// are processed concurrently, and the lane semaphore caps in-flight
// requests system-wide, not per sub-batch. One record's timeout or
// transport error never cancels its siblings.
type AsyncRequest struct {
	client         *http.Client
	baseURL        string
	recorder       Recorder
	logger         log.Logger
	subBatchSize   int
	requestTimeout time.Duration
	waitCeiling    time.Duration
	lanes          chan struct{}
}

// NewAsyncRequest creates the bounded-concurrency request strategy.
func NewAsyncRequest(cfg Config, rec Recorder, logger log.Logger) *AsyncRequest {
	subBatch := cfg.SubBatchSize
	if subBatch <= 0 {
		subBatch = DefaultSubBatchSize
	}
	laneCount := cfg.Lanes
	if laneCount <= 0 {
		laneCount = DefaultLanes
	}
	reqTimeout := cfg.RequestTimeout
	if reqTimeout <= 0 {
		reqTimeout = DefaultRequestTimeout
	}
	ceiling := cfg.ChunkWaitCeiling
	if ceiling <= 0 {
		ceiling = DefaultChunkWaitCeiling
	}
	return &AsyncRequest{
		// No client-level timeout: each request carries its own context
		// deadline, and the chunk ceiling cancels whatever remains.
		client:         &http.Client{},
		baseURL:        cfg.ServiceURL,
		recorder:       rec,
		logger:         logger,
		subBatchSize:   subBatch,
		requestTimeout: reqTimeout,
		waitCeiling:    ceiling,
		lanes:          make(chan struct{}, laneCount),
	}
}

// Name identifies the strategy.
func (s *AsyncRequest) Name() string { return "async" }

// Open is a no-op; each record opens its own request.
func (s *AsyncRequest) Open(ctx context.Context) error { return nil }

// Send dispatches every record of the chunk and blocks until all
// outcomes are in or the wait ceiling elapses. Reaching the ceiling
// cancels still-pending requests, records them as failures, and returns
// domain.ErrPartialChunkTimeout.
func (s *AsyncRequest) Send(parent context.Context, chunk domain.Chunk) error {
	ctx, cancel := context.WithTimeout(parent, s.waitCeiling)
	defer cancel()

	var wg sync.WaitGroup
	for _, sub := range chunk.SubBatches(s.subBatchSize) {
		wg.Add(1)
		go func(sub []domain.Record) {
			defer wg.Done()
			s.sendSubBatch(ctx, sub)
		}(sub)
	}
	wg.Wait()

	if err := parent.Err(); err != nil {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		s.logger.Warn("chunk wait ceiling exceeded",
			log.Int("chunk_size", chunk.Size()),
			log.Duration("ceiling", s.waitCeiling))
		return domain.ErrPartialChunkTimeout
	}
	return nil
}

// Close is a no-op; the request strategies hold no connection state.
func (s *AsyncRequest) Close(ctx context.Context) error { return nil }

// sendSubBatch dispatches each record of the sub-batch concurrently,
// gated by the global lane semaphore. When the ceiling context fires
// while waiting for a lane, every undispatched record is recorded as a
// failure exactly once.
func (s *AsyncRequest) sendSubBatch(ctx context.Context, recs []domain.Record) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for i, rec := range recs {
		select {
		case s.lanes <- struct{}{}:
		case <-ctx.Done():
			for _, left := range recs[i:] {
				s.recorder.Record(domain.Failure(left.ID, "wait ceiling exceeded before dispatch"))
			}
			return
		}

		wg.Add(1)
		go func(rec domain.Record) {
			defer wg.Done()
			defer func() { <-s.lanes }()

			rctx, rcancel := context.WithTimeout(ctx, s.requestTimeout)
			defer rcancel()
			s.recorder.Record(postRecord(rctx, s.client, s.baseURL, rec))
		}(rec)
	}
}
