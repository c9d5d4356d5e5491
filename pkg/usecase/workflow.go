package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/domain/interfaces"
	"github.com/m-mizutani/nagare/pkg/domain/model/instance"
	"github.com/m-mizutani/nagare/pkg/domain/model/journal"
	"github.com/m-mizutani/nagare/pkg/domain/model/workflow"
	"github.com/m-mizutani/nagare/pkg/domain/types"
	"github.com/m-mizutani/nagare/pkg/domain/types/apperr"
	"github.com/m-mizutani/nagare/pkg/utils/async"
)

// CreateWorkflow creates a new workflow owned by the user
func (uc *UseCases) CreateWorkflow(ctx context.Context, userID types.UserID, name string) (*workflow.Workflow, error) {
	wf := workflow.New(ctx, userID, name)
	if err := uc.repo.CreateWorkflow(ctx, wf); err != nil {
		return nil, err
	}
	return wf, nil
}

// getOwnedWorkflow loads a workflow and verifies ownership
func (uc *UseCases) getOwnedWorkflow(ctx context.Context, userID types.UserID, id types.WorkflowID) (*workflow.Workflow, error) {
	wf, err := uc.repo.GetWorkflow(ctx, id)
	if err != nil {
		return nil, err
	}
	if wf.UserID != userID {
		return nil, goerr.Wrap(workflow.ErrWorkflowNotFound, "workflow not found",
			goerr.V("workflow_id", id))
	}
	return wf, nil
}

// GetWorkflow retrieves a workflow after an ownership check
func (uc *UseCases) GetWorkflow(ctx context.Context, userID types.UserID, id types.WorkflowID) (*workflow.Workflow, error) {
	return uc.getOwnedWorkflow(ctx, userID, id)
}

// CreateInstance creates an agent instance together with its workflow node
// and the creation journal entry in one transaction. The persistence policy
// is the service default merged with the caller's overrides, so an instance
// never carries a partially-populated policy.
func (uc *UseCases) CreateInstance(ctx context.Context, userID types.UserID, req *interfaces.CreateInstanceRequest) (*interfaces.CreatedInstance, error) {
	wf, err := uc.getOwnedWorkflow(ctx, userID, req.WorkflowID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	inst := &instance.AgentInstance{
		ID:          types.NewInstanceID(ctx),
		WorkflowID:  wf.ID,
		UserID:      userID,
		PrototypeID: req.PrototypeID,
		Name:        req.Name,
		Role:        req.Role,
		Model:       req.Model,
		Persistence: uc.policyDefaults.Apply(req.Persistence),
		State: instance.RuntimeState{
			LastActivity: now,
		},
		Status:    instance.StatusIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := inst.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid instance configuration",
			goerr.T(apperr.ErrTagValidation))
	}

	node := &workflow.Node{
		ID:         types.NewNodeID(ctx),
		WorkflowID: wf.ID,
		Type:       workflow.NodeTypeAgent,
		InstanceID: inst.ID,
		Position:   req.Position,
		UIConfig:   req.UIConfig,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// The creation entry is written regardless of the persistence policy
	entry, err := journal.NewEntry(ctx, inst.ID, wf.ID, types.JournalTypeSystem,
		types.SeverityInfo,
		journal.Payload{System: &journal.SystemPayload{
			Event:       "instance_created",
			Details:     map[string]string{"node_id": node.ID.String()},
			TriggeredBy: userID.String(),
		}})
	if err != nil {
		return nil, err
	}

	if err := uc.repo.CreateInstanceGraph(ctx, inst, node, entry); err != nil {
		return nil, err
	}

	return &interfaces.CreatedInstance{
		Instance: inst,
		Node:     node,
	}, nil
}

// DeleteNode cascades the deletion of an agent node: the node, its
// instance, the instance's journal and every touching edge go in one
// transaction together with a media tombstone. Storage objects are
// collected after commit; a failed collection leaves the tombstone for a
// later retry.
func (uc *UseCases) DeleteNode(ctx context.Context, userID types.UserID, workflowID types.WorkflowID, nodeID types.NodeID) (*interfaces.CascadeResult, error) {
	wf, err := uc.getOwnedWorkflow(ctx, userID, workflowID)
	if err != nil {
		return nil, err
	}

	node, err := uc.repo.GetNode(ctx, wf.ID, nodeID)
	if err != nil {
		return nil, err
	}
	if node.Type != workflow.NodeTypeAgent {
		return nil, goerr.Wrap(workflow.ErrNotAgentNode, "only agent nodes cascade",
			goerr.V("node_id", nodeID),
			goerr.V("type", node.Type))
	}

	tombstone := workflow.NewMediaTombstone(ctx, userID, wf.ID, node.InstanceID)

	result, err := uc.repo.DeleteAgentNodeCascade(ctx, node, tombstone)
	if err != nil {
		return nil, err
	}

	async.Dispatch(ctx, func(ctx context.Context) error {
		return uc.collectTombstone(ctx, tombstone)
	})

	return result, nil
}

// collectTombstone removes the media objects of one deleted instance and
// clears the tombstone. Idempotent: missing objects are skipped, so a
// partially-collected tombstone can be retried.
func (uc *UseCases) collectTombstone(ctx context.Context, ts *workflow.MediaTombstone) error {
	if uc.mediaStorage != nil {
		deleted, err := uc.mediaStorage.DeleteAll(ctx, interfaces.MediaRef{
			UserID:     ts.UserID,
			WorkflowID: ts.WorkflowID,
			InstanceID: ts.InstanceID,
		})
		if err != nil {
			return goerr.Wrap(err, "failed to collect media",
				goerr.V("tombstone_id", ts.ID),
				goerr.V("instance_id", ts.InstanceID))
		}
		if deleted > 0 {
			ctxlog.From(ctx).Info("collected media of deleted instance",
				"instance_id", ts.InstanceID,
				"deleted", deleted)
		}
	}

	return uc.repo.DeleteMediaTombstone(ctx, ts.ID)
}

// CollectMediaGarbage resolves pending media tombstones, oldest first.
// Safe to call repeatedly.
func (uc *UseCases) CollectMediaGarbage(ctx context.Context, limit int) (int, error) {
	tombstones, err := uc.repo.ListMediaTombstones(ctx, limit)
	if err != nil {
		return 0, err
	}

	var resolved int
	for _, ts := range tombstones {
		if err := uc.collectTombstone(ctx, ts); err != nil {
			return resolved, err
		}
		resolved++
	}

	return resolved, nil
}
