package types

import (
	"context"

	"github.com/google/uuid"
)

// NodeID represents a unique identifier for a workflow node
type NodeID string

// NewNodeID creates a new NodeID
func NewNodeID(ctx context.Context) NodeID {
	return NodeID(newUUID(ctx))
}

// String returns the string representation of NodeID
func (id NodeID) String() string {
	return string(id)
}

// IsValid checks if the NodeID is a valid UUID
func (id NodeID) IsValid() bool {
	_, err := uuid.Parse(string(id))
	return err == nil
}

// EdgeID represents a unique identifier for a workflow edge
type EdgeID string

// NewEdgeID creates a new EdgeID
func NewEdgeID(ctx context.Context) EdgeID {
	return EdgeID(newUUID(ctx))
}

// String returns the string representation of EdgeID
func (id EdgeID) String() string {
	return string(id)
}
