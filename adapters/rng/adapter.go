package rng

import (
	"context"
	"fmt"
	"math/rand"

	"qmrisk/domain/core"
)

// Adapter implements the RNGPort interface on math/rand with explicit seeding.
//
// Every stream gets its own rand.Source, so draws for one quantity never
// depend on how many draws another quantity consumed. Substream seeds are
// derived as baseSeed + hash(quantity), which keeps the quantity-to-stream
// mapping stable across runs regardless of sampling order.
type Adapter struct{}

// NewAdapter creates a new RNG adapter
func NewAdapter() *Adapter {
	return &Adapter{}
}

// SeededStream creates a deterministic random number generator for a named operation
func (a *Adapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	return rand.New(rand.NewSource(seed)), nil
}

// QuantityStream creates the RNG stream for one named scenario quantity.
// The run ID is deliberately not part of the seed: two runs configured with
// the same scenario and seed must draw identical values.
func (a *Adapter) QuantityStream(ctx context.Context, quantity string, baseSeed int64) (*rand.Rand, error) {
	if quantity == "" {
		return nil, core.NewConfigurationError("quantity", "stream name is required")
	}
	seed := baseSeed + int64(hashString(quantity))
	return rand.New(rand.NewSource(seed)), nil
}

// ValidateSeed ensures the seed reproduces the expected leading draws.
// Comparison is exact: a seeded math/rand stream is bit-for-bit
// reproducible, so any difference means the environment drifted.
func (a *Adapter) ValidateSeed(ctx context.Context, name string, seed int64, expected []float64) error {
	r := rand.New(rand.NewSource(seed))
	for i, want := range expected {
		got := r.Float64()
		if got != want {
			return fmt.Errorf("%w: stream %q draw %d: got %.17g, want %.17g",
				core.ErrSeedMismatch, name, i, got, want)
		}
	}
	return nil
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2 algorithm
	}
	return hash
}
