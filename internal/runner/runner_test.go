package runner

import (
	"context"
	"errors"
	"math/rand"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bft-labs/xferbench/internal/domain"
	"github.com/bft-labs/xferbench/internal/receiver"
	"github.com/bft-labs/xferbench/internal/store"
	"github.com/bft-labs/xferbench/internal/strategy"
	"github.com/bft-labs/xferbench/pkg/log"
)

// failingStore errors on every call, standing in for an unreachable
// source database.
type failingStore struct{}

func (failingStore) Page(ctx context.Context, afterID int64, limit int) ([]domain.Record, error) {
	return nil, errors.New("disk gone")
}
func (failingStore) Save(ctx context.Context, rec domain.Record) error { return errors.New("disk gone") }
func (failingStore) Count(ctx context.Context) (int64, error)         { return 0, errors.New("disk gone") }
func (failingStore) Close() error                                     { return nil }

func seededSource(t *testing.T, n int) *store.Memory {
	t.Helper()
	st := store.NewMemory()
	if err := store.Seed(context.Background(), st, n, rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return st
}

func newAcceptingReceiver(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()
	dst := store.NewMemory()
	sink := receiver.NewSink(dst, 0, 1, log.NewNoopLogger())
	srv := receiver.NewServer("127.0.0.1:0", sink, log.NewNoopLogger())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, dst
}

func TestRunTransfersWholeDataset(t *testing.T) {
	const (
		records   = 1000
		chunkSize = 500
	)

	for _, name := range []string{"sync", "async", "stream"} {
		t.Run(name, func(t *testing.T) {
			src := seededSource(t, records)
			ts, dst := newAcceptingReceiver(t)

			cfg := strategy.Config{
				ServiceURL:       ts.URL,
				RequestTimeout:   10 * time.Second,
				SubBatchSize:     100,
				Lanes:            10,
				ChunkWaitCeiling: 30 * time.Second,
			}
			sess, err := NewSession(name, cfg, log.NewNoopLogger())
			if err != nil {
				t.Fatalf("NewSession: %v", err)
			}

			sum, err := sess.Run(context.Background(), src, chunkSize)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}

			if sum.SuccessCount != records {
				t.Errorf("success = %d, want %d", sum.SuccessCount, records)
			}
			if sum.FailureCount != 0 {
				t.Errorf("failure = %d, want 0", sum.FailureCount)
			}
			if sum.TotalAttempted != records {
				t.Errorf("attempted = %d, want %d", sum.TotalAttempted, records)
			}
			if sum.Strategy != name {
				t.Errorf("strategy = %q, want %q", sum.Strategy, name)
			}
			if sum.Elapsed < 0 {
				t.Errorf("elapsed = %v, want >= 0", sum.Elapsed)
			}

			n, err := dst.Count(context.Background())
			if err != nil {
				t.Fatalf("count receiver store: %v", err)
			}
			if n != records {
				t.Errorf("receiver persisted %d records, want %d", n, records)
			}
		})
	}
}

func TestRunEmptyDataset(t *testing.T) {
	src := store.NewMemory()
	ts, _ := newAcceptingReceiver(t)

	cfg := strategy.Config{ServiceURL: ts.URL, RequestTimeout: 5 * time.Second}
	sess, err := NewSession("sync", cfg, log.NewNoopLogger())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	sum, err := sess.Run(context.Background(), src, 500)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.TotalAttempted != 0 || sum.SuccessCount != 0 || sum.FailureCount != 0 {
		t.Errorf("summary = %+v, want all-zero counts", sum)
	}
}

func TestRunCountsRejections(t *testing.T) {
	const records = 40

	src := seededSource(t, records)

	dst := store.NewMemory()
	sink := receiver.NewSink(dst, 1, 1, log.NewNoopLogger())
	srv := receiver.NewServer("127.0.0.1:0", sink, log.NewNoopLogger())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	cfg := strategy.Config{ServiceURL: ts.URL, RequestTimeout: 5 * time.Second}
	sess, err := NewSession("sync", cfg, log.NewNoopLogger())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	sum, err := sess.Run(context.Background(), src, 10)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.FailureCount != records {
		t.Errorf("failure = %d, want %d", sum.FailureCount, records)
	}
	if sum.SuccessCount != 0 {
		t.Errorf("success = %d, want 0", sum.SuccessCount)
	}
}

func TestRunSourceUnavailable(t *testing.T) {
	ts, _ := newAcceptingReceiver(t)

	cfg := strategy.Config{ServiceURL: ts.URL, RequestTimeout: 5 * time.Second}
	sess, err := NewSession("sync", cfg, log.NewNoopLogger())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	_, err = sess.Run(context.Background(), failingStore{}, 500)
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Errorf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestNewSessionRejectsUnknownStrategy(t *testing.T) {
	if _, err := NewSession("carrier-pigeon", strategy.Config{}, log.NewNoopLogger()); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
