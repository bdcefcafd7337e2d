package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrScenarioNotFound = fmt.Errorf("%w: scenario", ErrNotFound)
	ErrRunNotFound      = fmt.Errorf("%w: run", ErrNotFound)
	ErrPathogenNotFound = fmt.Errorf("%w: pathogen", ErrNotFound)

	// Configuration errors: invalid parameters detected at construction,
	// before any sampling happens
	ErrConfiguration = errors.New("invalid configuration")

	// Numeric-domain errors: runtime invariant violations (NaN probability,
	// invalid piecewise segment after clamping). Defects, not user errors.
	ErrNumericDomain = errors.New("numeric domain violation")

	// Resource errors: requested simulation size exceeds the allocation cap
	ErrResource = errors.New("resource limit exceeded")

	// Determinism errors
	ErrSeedMismatch = errors.New("seed mismatch")
	ErrHashMismatch = errors.New("hash mismatch")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewConfigurationError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrConfiguration, field, reason)
}

func NewConfigurationErrorf(field string, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s: %s", ErrConfiguration, field, fmt.Sprintf(format, args...))
}

func NewNumericDomainError(op string, detail string) error {
	return fmt.Errorf("%w in %s: %s", ErrNumericDomain, op, detail)
}

func NewResourceError(what string, requested, limit int) error {
	return fmt.Errorf("%w: %s requires %d cells, cap is %d", ErrResource, what, requested, limit)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func IsNumericDomainError(err error) bool {
	return errors.Is(err, ErrNumericDomain)
}

func IsResourceError(err error) bool {
	return errors.Is(err, ErrResource)
}

func IsDeterminismError(err error) bool {
	return errors.Is(err, ErrSeedMismatch) ||
		errors.Is(err, ErrHashMismatch)
}
