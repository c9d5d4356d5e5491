package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/domain/interfaces"
	"github.com/m-mizutani/nagare/pkg/domain/model/instance"
	"github.com/m-mizutani/nagare/pkg/domain/model/workflow"
	"github.com/m-mizutani/nagare/pkg/domain/types"
	"github.com/m-mizutani/nagare/pkg/utils/async"
)

// getOwnedInstance loads an instance and verifies ownership. A foreign
// instance is reported as missing so instance IDs cannot be probed.
func (uc *UseCases) getOwnedInstance(ctx context.Context, userID types.UserID, id types.InstanceID) (*instance.AgentInstance, error) {
	inst, err := uc.repo.GetInstance(ctx, id)
	if err != nil {
		return nil, err
	}
	if inst.UserID != userID {
		return nil, goerr.Wrap(instance.ErrInstanceNotFound, "instance not found",
			goerr.V("instance_id", id))
	}
	return inst, nil
}

// GetInstance retrieves an instance after an ownership check
func (uc *UseCases) GetInstance(ctx context.Context, userID types.UserID, id types.InstanceID) (*instance.AgentInstance, error) {
	return uc.getOwnedInstance(ctx, userID, id)
}

// UpdateInstance applies a partial update. Nil request fields keep the
// current values. A persistence policy change additionally records a
// config_updated system entry.
func (uc *UseCases) UpdateInstance(ctx context.Context, userID types.UserID, id types.InstanceID, req *interfaces.UpdateInstanceRequest) (*instance.AgentInstance, error) {
	inst, err := uc.getOwnedInstance(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := instance.ValidateName(*req.Name); err != nil {
			return nil, err
		}
		inst.Name = *req.Name
	}
	if req.Role != nil {
		inst.Role = *req.Role
	}
	if req.Memory != nil {
		inst.State.Memory = *req.Memory
	}
	if req.Variables != nil {
		inst.State.Variables = req.Variables
	}
	if req.CurrentTask != nil {
		inst.State.CurrentTask = *req.CurrentTask
	}

	policyChanged := !req.Persistence.IsEmpty()
	if policyChanged {
		inst.Persistence = inst.Persistence.Apply(req.Persistence)
	}

	inst.TouchActivity(time.Now())

	if err := uc.repo.UpdateInstance(ctx, inst); err != nil {
		return nil, err
	}

	if policyChanged {
		instanceID := inst.ID
		async.Dispatch(ctx, func(ctx context.Context) error {
			_, err := uc.LogSystem(ctx, &interfaces.LogSystemRequest{
				InstanceID:  instanceID,
				Event:       "config_updated",
				Details:     map[string]string{"section": "persistence"},
				TriggeredBy: userID.String(),
			})
			return err
		})
	}

	return inst, nil
}

// UpdateStatus applies a status transition and records a status_changed
// system entry. An illegal transition fails with ErrInvalidTransition and
// leaves the instance untouched.
func (uc *UseCases) UpdateStatus(ctx context.Context, userID types.UserID, id types.InstanceID, next instance.Status) (*instance.AgentInstance, error) {
	inst, err := uc.getOwnedInstance(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	prev := inst.Status

	updated, err := uc.repo.TransitionStatus(ctx, id, next)
	if err != nil {
		return nil, err
	}

	instanceID := updated.ID
	async.Dispatch(ctx, func(ctx context.Context) error {
		_, err := uc.LogSystem(ctx, &interfaces.LogSystemRequest{
			InstanceID: instanceID,
			Event:      "status_changed",
			Details: map[string]string{
				"from": prev.String(),
				"to":   next.String(),
			},
			TriggeredBy: userID.String(),
		})
		return err
	})

	return updated, nil
}

// ListInstances retrieves a page of a workflow's instances after verifying
// workflow ownership
func (uc *UseCases) ListInstances(ctx context.Context, userID types.UserID, workflowID types.WorkflowID, offset, limit int) ([]*instance.AgentInstance, int, error) {
	wf, err := uc.repo.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, 0, err
	}
	if wf.UserID != userID {
		return nil, 0, goerr.Wrap(workflow.ErrWorkflowNotFound, "workflow not found",
			goerr.V("workflow_id", workflowID))
	}

	return uc.repo.ListInstancesByWorkflow(ctx, workflowID, offset, limit)
}
