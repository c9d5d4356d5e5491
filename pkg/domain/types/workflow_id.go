package types

import (
	"context"

	"github.com/google/uuid"
)

// WorkflowID represents a unique identifier for a workflow
type WorkflowID string

// NewWorkflowID creates a new WorkflowID
func NewWorkflowID(ctx context.Context) WorkflowID {
	return WorkflowID(newUUID(ctx))
}

// String returns the string representation of WorkflowID
func (id WorkflowID) String() string {
	return string(id)
}

// IsValid checks if the WorkflowID is a valid UUID
func (id WorkflowID) IsValid() bool {
	_, err := uuid.Parse(string(id))
	return err == nil
}
