package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic simulations
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// QuantityStream creates the RNG stream for one named scenario quantity,
	// derived from the scenario base seed. Distinct quantities get independent
	// streams, so adding or removing one quantity never shifts the draws of another.
	QuantityStream(ctx context.Context, quantity string, baseSeed int64) (*rand.Rand, error)

	// ValidateSeed ensures the seed reproduces the expected leading draws
	ValidateSeed(ctx context.Context, name string, seed int64, expected []float64) error
}
