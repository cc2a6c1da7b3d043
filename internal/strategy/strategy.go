// Package strategy implements the interchangeable transports that move
// chunks of records to the receiver: sequential requests, bounded
// concurrent requests, and a persistent bidirectional stream.
package strategy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bft-labs/xferbench/internal/domain"
	"github.com/bft-labs/xferbench/pkg/log"
)

// Receiver endpoints.
const (
	SaveEndpoint   = "/data/save"
	StreamEndpoint = "/data/stream"
)

// Defaults for the bounded-async strategy.
const (
	DefaultSubBatchSize     = 100
	DefaultLanes            = 10
	DefaultRequestTimeout   = 30 * time.Second
	DefaultChunkWaitCeiling = 60 * time.Second
)

// Recorder receives one delivery outcome per record. Implementations
// must be safe for concurrent calls.
type Recorder interface {
	Record(domain.DeliveryOutcome)
}

// Strategy delivers chunks of records to the receiving endpoint. A
// strategy is selected once at run start and never swapped mid-run.
//
// Send blocks until an outcome has been produced for every record of the
// chunk, and tolerates individual-record rejection without aborting the
// batch. Only channel-level failures and wait-ceiling overruns surface
// as errors.
type Strategy interface {
	// Name identifies the strategy in summaries and logs.
	Name() string

	// Open prepares the transport before the first chunk. For the stream
	// strategy this establishes the long-lived channel; the request
	// strategies need no setup.
	Open(ctx context.Context) error

	// Send delivers every record of the chunk, emitting outcomes to the
	// recorder.
	Send(ctx context.Context, chunk domain.Chunk) error

	// Close tears the transport down. The stream strategy drains the
	// channel with an end-of-stream handshake first.
	Close(ctx context.Context) error
}

// Config carries the transport knobs shared by the strategy
// constructors.
type Config struct {
	// ServiceURL is the receiver base URL, e.g. "http://127.0.0.1:8085".
	ServiceURL string

	// RequestTimeout bounds one request in the request strategies.
	RequestTimeout time.Duration

	// SubBatchSize is the inner partition size for the async strategy.
	SubBatchSize int

	// Lanes is the hard ceiling on concurrently in-flight requests.
	Lanes int

	// ChunkWaitCeiling bounds how long the async strategy waits for a
	// whole chunk's outcomes.
	ChunkWaitCeiling time.Duration
}

// New builds the named strategy ("sync", "async" or "stream") emitting
// outcomes to rec.
func New(name string, cfg Config, rec Recorder, logger log.Logger) (Strategy, error) {
	switch name {
	case "sync":
		return NewSyncRequest(cfg, rec, logger), nil
	case "async":
		return NewAsyncRequest(cfg, rec, logger), nil
	case "stream":
		return NewStream(cfg, rec, logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", domain.ErrInvalidConfig, name)
	}
}

// streamURL converts the receiver base URL to its websocket equivalent.
func streamURL(serviceURL string) string {
	u := serviceURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + StreamEndpoint
}
