package strategy

import (
	"context"
	"net/http"

	"github.com/bft-labs/xferbench/internal/domain"
	"github.com/bft-labs/xferbench/pkg/log"
)

// SyncRequest delivers records strictly in sequence, one request at a
// time, blocking on each response before attempting the next record. It
// is the baseline strategy: no concurrency, no shared state beyond the
// recorder.
type SyncRequest struct {
	client   *http.Client
	baseURL  string
	recorder Recorder
	logger   log.Logger
}

// NewSyncRequest creates the sequential request strategy.
func NewSyncRequest(cfg Config, rec Recorder, logger log.Logger) *SyncRequest {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &SyncRequest{
		client:   &http.Client{Timeout: timeout},
		baseURL:  cfg.ServiceURL,
		recorder: rec,
		logger:   logger,
	}
}

// Name identifies the strategy.
func (s *SyncRequest) Name() string { return "sync" }

// Open is a no-op; each record opens its own request.
func (s *SyncRequest) Open(ctx context.Context) error { return nil }

// Send posts every record of the chunk in order. A failed record is
// recorded and the next record is still attempted.
func (s *SyncRequest) Send(ctx context.Context, chunk domain.Chunk) error {
	for _, rec := range chunk.Records {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.recorder.Record(postRecord(ctx, s.client, s.baseURL, rec))
	}
	return nil
}

// Close is a no-op.
func (s *SyncRequest) Close(ctx context.Context) error { return nil }
