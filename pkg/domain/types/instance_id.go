package types

import (
	"context"

	"github.com/google/uuid"
)

// InstanceID represents a unique identifier for an agent instance
type InstanceID string

// NewInstanceID creates a new InstanceID
func NewInstanceID(ctx context.Context) InstanceID {
	return InstanceID(newUUID(ctx))
}

// String returns the string representation of InstanceID
func (id InstanceID) String() string {
	return string(id)
}

// IsValid checks if the InstanceID is a valid UUID
func (id InstanceID) IsValid() bool {
	_, err := uuid.Parse(string(id))
	return err == nil
}
