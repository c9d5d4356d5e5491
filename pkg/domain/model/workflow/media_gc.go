package workflow

import (
	"context"
	"time"

	"github.com/m-mizutani/nagare/pkg/domain/types"
)

// MediaTombstone marks the media of a deleted instance for collection.
// It is written inside the cascade-delete transaction so a transaction
// abort leaves the storage objects untouched; collection happens after
// commit and is idempotent, so a leftover tombstone is simply retried.
type MediaTombstone struct {
	ID         string           `json:"id"`
	UserID     types.UserID     `json:"user_id"`
	WorkflowID types.WorkflowID `json:"workflow_id"`
	InstanceID types.InstanceID `json:"instance_id"`
	CreatedAt  time.Time        `json:"created_at"`
}

// NewMediaTombstone creates a tombstone for one instance's media
func NewMediaTombstone(ctx context.Context, userID types.UserID, workflowID types.WorkflowID, instanceID types.InstanceID) *MediaTombstone {
	return &MediaTombstone{
		ID:         string(types.NewEntryID(ctx)),
		UserID:     userID,
		WorkflowID: workflowID,
		InstanceID: instanceID,
		CreatedAt:  time.Now(),
	}
}
