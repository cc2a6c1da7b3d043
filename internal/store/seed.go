package store

import (
	"context"
	"fmt"
	"hash/crc32"
	"math/rand"

	"github.com/bft-labs/xferbench/internal/domain"
)

var seedCategories = []string{"orders", "inventory", "billing", "telemetry", "audit"}

var seedOrigins = []string{"us-east", "us-west", "eu-central", "ap-south"}

// Seed fills the store with n synthetic records with IDs 1..n. The rng
// drives field content so a fixed seed reproduces the same dataset.
func Seed(ctx context.Context, st Store, n int, rng *rand.Rand) error {
	for i := 1; i <= n; i++ {
		payload := randomPayload(rng, 64)
		rec := makeRecord(int64(i), payload, rng)
		if err := st.Save(ctx, rec); err != nil {
			return fmt.Errorf("seed record %d: %w", i, err)
		}
	}
	return nil
}

func makeRecord(id int64, payload string, rng *rand.Rand) domain.Record {
	return domain.Record{
		ID:       id,
		Name:     fmt.Sprintf("record-%06d", id),
		Category: seedCategories[rng.Intn(len(seedCategories))],
		Payload:  payload,
		Checksum: fmt.Sprintf("%08x", crc32.ChecksumIEEE([]byte(payload))),
		Origin:   seedOrigins[rng.Intn(len(seedOrigins))],
	}
}

const payloadAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomPayload(rng *rand.Rand, size int) string {
	b := make([]byte, size)
	for i := range b {
		b[i] = payloadAlphabet[rng.Intn(len(payloadAlphabet))]
	}
	return string(b)
}
