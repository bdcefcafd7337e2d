package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	ScenarioID  ID
	RunID       ID
	PathogenID  ID
	QuantityKey ID
)

// String conversions for domain IDs
func (id ScenarioID) String() string  { return ID(id).String() }
func (id RunID) String() string       { return ID(id).String() }
func (id PathogenID) String() string  { return ID(id).String() }
func (id QuantityKey) String() string { return ID(id).String() }

// ParseScenarioID parses a string into ScenarioID
func ParseScenarioID(s string) (ScenarioID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("scenario ID cannot be empty")
	}
	return ScenarioID(s), nil
}

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}

// ParsePathogenID parses a string into PathogenID
func ParsePathogenID(s string) (PathogenID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("pathogen ID cannot be empty")
	}
	return PathogenID(s), nil
}
