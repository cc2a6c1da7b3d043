// Package source pages the source store into chunks for delivery.
package source

import (
	"context"
	"fmt"
	"io"

	"github.com/bft-labs/xferbench/internal/domain"
	"github.com/bft-labs/xferbench/internal/store"
)

// DefaultChunkSize is the number of records per chunk when none is
// configured.
const DefaultChunkSize = 500

// Reader pages through the source store in fixed-size chunks ordered by
// ascending record ID. Successive chunks never overlap and only one chunk
// is held in memory at a time. A Reader is not safe for concurrent use.
type Reader struct {
	store     store.Store
	chunkSize int
	cursor    int64
	done      bool
}

// NewReader creates a reader over st producing chunks of at most
// chunkSize records.
func NewReader(st store.Store, chunkSize int) *Reader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Reader{store: st, chunkSize: chunkSize}
}

// Next returns the next chunk of the dataset. It returns io.EOF once the
// dataset is exhausted. Store failures wrap domain.ErrSourceUnavailable
// and abort the run.
func (r *Reader) Next(ctx context.Context) (domain.Chunk, error) {
	if r.done {
		return domain.Chunk{}, io.EOF
	}

	recs, err := r.store.Page(ctx, r.cursor, r.chunkSize)
	if err != nil {
		return domain.Chunk{}, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	if len(recs) == 0 {
		r.done = true
		return domain.Chunk{}, io.EOF
	}

	chunk := domain.Chunk{Records: recs}
	r.cursor = chunk.LastID()
	if len(recs) < r.chunkSize {
		r.done = true
	}
	return chunk, nil
}
