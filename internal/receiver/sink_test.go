package receiver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/xferbench/internal/domain"
	"github.com/bft-labs/xferbench/internal/store"
	"github.com/bft-labs/xferbench/pkg/log"
)

func TestSinkAcceptPersists(t *testing.T) {
	st := store.NewMemory()
	sink := NewSink(st, 0, 1, log.NewNoopLogger())

	ctx := context.Background()
	for i := int64(1); i <= 100; i++ {
		require.NoError(t, sink.Accept(ctx, domain.Record{ID: i, Name: "r"}))
	}

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), n, "zero probability must never reject")
}

func TestSinkRejectsWithoutPersisting(t *testing.T) {
	st := store.NewMemory()
	sink := NewSink(st, 1, 1, log.NewNoopLogger())

	ctx := context.Background()
	err := sink.Accept(ctx, domain.Record{ID: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRecordRejected))

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "rejected records must not be persisted")
}

func TestSinkRejectionIsSeedReproducible(t *testing.T) {
	decisions := func(seed int64) []bool {
		sink := NewSink(store.NewMemory(), 0.5, seed, log.NewNoopLogger())
		out := make([]bool, 0, 200)
		for i := int64(1); i <= 200; i++ {
			err := sink.Accept(context.Background(), domain.Record{ID: i})
			out = append(out, errors.Is(err, domain.ErrRecordRejected))
		}
		return out
	}

	assert.Equal(t, decisions(42), decisions(42), "same seed must reproduce the same decisions")
}

func TestSinkProbabilitySwapTakesEffect(t *testing.T) {
	st := store.NewMemory()
	sink := NewSink(st, 1, 1, log.NewNoopLogger())

	ctx := context.Background()
	require.Error(t, sink.Accept(ctx, domain.Record{ID: 1}))

	sink.SetRejectProbability(0)
	assert.Equal(t, 0.0, sink.RejectProbability())
	require.NoError(t, sink.Accept(ctx, domain.Record{ID: 2}))
}

func TestSinkProbabilityIsClamped(t *testing.T) {
	sink := NewSink(store.NewMemory(), 2.5, 1, log.NewNoopLogger())
	assert.Equal(t, 1.0, sink.RejectProbability())

	sink.SetRejectProbability(-3)
	assert.Equal(t, 0.0, sink.RejectProbability())
}
