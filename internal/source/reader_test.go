package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/bft-labs/xferbench/internal/domain"
	"github.com/bft-labs/xferbench/internal/store"
)

func seedMemory(t *testing.T, n int) *store.Memory {
	t.Helper()
	st := store.NewMemory()
	for i := 1; i <= n; i++ {
		rec := domain.Record{ID: int64(i), Name: fmt.Sprintf("record-%06d", i)}
		if err := st.Save(context.Background(), rec); err != nil {
			t.Fatalf("save record %d: %v", i, err)
		}
	}
	return st
}

func TestReaderPartitionsDatasetExactly(t *testing.T) {
	cases := []struct {
		name      string
		dataset   int
		chunkSize int
		chunks    int
	}{
		{"even split", 1000, 500, 2},
		{"remainder chunk", 1001, 500, 3},
		{"single chunk", 10, 500, 1},
		{"chunk per record", 4, 1, 4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReader(seedMemory(t, tc.dataset), tc.chunkSize)

			seen := make(map[int64]bool)
			chunks := 0
			var lastID int64
			for {
				chunk, err := r.Next(context.Background())
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					t.Fatalf("Next returned error: %v", err)
				}
				if chunk.Size() > tc.chunkSize {
					t.Fatalf("chunk size %d exceeds configured %d", chunk.Size(), tc.chunkSize)
				}
				chunks++
				for _, rec := range chunk.Records {
					if rec.ID <= lastID {
						t.Fatalf("record %d out of order or overlapping (last %d)", rec.ID, lastID)
					}
					if seen[rec.ID] {
						t.Fatalf("record %d emitted twice", rec.ID)
					}
					seen[rec.ID] = true
					lastID = rec.ID
				}
			}

			if chunks != tc.chunks {
				t.Fatalf("expected %d chunks, got %d", tc.chunks, chunks)
			}
			if len(seen) != tc.dataset {
				t.Fatalf("expected %d records, got %d", tc.dataset, len(seen))
			}
		})
	}
}

func TestReaderEOFIsSticky(t *testing.T) {
	r := NewReader(seedMemory(t, 3), 10)

	if _, err := r.Next(context.Background()); err != nil {
		t.Fatalf("first Next: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := r.Next(context.Background()); !errors.Is(err, io.EOF) {
			t.Fatalf("expected io.EOF, got %v", err)
		}
	}
}

// failingStore returns an error from Page to exercise the fatal
// source-unavailable path.
type failingStore struct {
	store.Store
}

func (failingStore) Page(ctx context.Context, afterID int64, limit int) ([]domain.Record, error) {
	return nil, errors.New("connection refused")
}

func TestReaderWrapsSourceUnavailable(t *testing.T) {
	r := NewReader(failingStore{}, 10)

	_, err := r.Next(context.Background())
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}
