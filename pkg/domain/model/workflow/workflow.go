package workflow

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/domain/types"
)

// Workflow is the canvas that owns nodes, edges and agent instances
type Workflow struct {
	ID        types.WorkflowID `json:"id"`
	UserID    types.UserID     `json:"user_id"`
	Name      string           `json:"name"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// New creates a new workflow owned by the given user
func New(ctx context.Context, userID types.UserID, name string) *Workflow {
	now := time.Now()
	return &Workflow{
		ID:        types.NewWorkflowID(ctx),
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks workflow invariants
func (w *Workflow) Validate() error {
	if !w.ID.IsValid() {
		return goerr.New("invalid workflow ID", goerr.V("id", w.ID))
	}
	if w.Name == "" {
		return goerr.New("workflow name cannot be empty")
	}
	return nil
}
