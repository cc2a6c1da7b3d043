package store

import (
	"context"

	"github.com/bft-labs/xferbench/internal/domain"
)

// Store is the persistence surface the harness depends on. The source
// side pages through it; the receiver side saves into it.
type Store interface {
	// Page returns up to limit records with ID greater than afterID,
	// ordered by ascending ID. An empty slice means the dataset is
	// exhausted.
	Page(ctx context.Context, afterID int64, limit int) ([]domain.Record, error)

	// Save persists one record. Saving an existing ID overwrites it.
	Save(ctx context.Context, rec domain.Record) error

	// Count returns the total number of records in the store.
	Count(ctx context.Context) (int64, error)

	// Close releases any underlying resources.
	Close() error
}
