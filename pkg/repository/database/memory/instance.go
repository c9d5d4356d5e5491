package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/domain/model/instance"
	"github.com/m-mizutani/nagare/pkg/domain/types"
)

// GetInstance retrieves an instance by ID
func (c *Client) GetInstance(ctx context.Context, id types.InstanceID) (*instance.AgentInstance, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	inst, ok := c.instances[id]
	if !ok {
		return nil, goerr.Wrap(instance.ErrInstanceNotFound, "instance not found",
			goerr.V("instance_id", id))
	}

	return cloneInstance(inst), nil
}

// UpdateInstance replaces the stored instance. Last write wins.
func (c *Client) UpdateInstance(ctx context.Context, inst *instance.AgentInstance) error {
	if err := inst.Validate(); err != nil {
		return goerr.Wrap(err, "invalid instance", goerr.V("instance_id", inst.ID))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.instances[inst.ID]; !ok {
		return goerr.Wrap(instance.ErrInstanceNotFound, "instance not found",
			goerr.V("instance_id", inst.ID))
	}

	c.instances[inst.ID] = cloneInstance(inst)
	return nil
}

// RefreshActivity updates the activity timestamp and optionally the current
// task label
func (c *Client) RefreshActivity(ctx context.Context, id types.InstanceID, at time.Time, currentTask *string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	inst, ok := c.instances[id]
	if !ok {
		return goerr.Wrap(instance.ErrInstanceNotFound, "instance not found",
			goerr.V("instance_id", id))
	}

	inst.State.LastActivity = at
	inst.UpdatedAt = at
	if currentTask != nil {
		inst.State.CurrentTask = *currentTask
	}

	return nil
}

// TransitionStatus atomically validates and applies a status transition
func (c *Client) TransitionStatus(ctx context.Context, id types.InstanceID, next instance.Status) (*instance.AgentInstance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inst, ok := c.instances[id]
	if !ok {
		return nil, goerr.Wrap(instance.ErrInstanceNotFound, "instance not found",
			goerr.V("instance_id", id))
	}

	if err := instance.ValidateTransition(inst.Status, next); err != nil {
		return nil, err
	}

	inst.Status = next
	inst.TouchActivity(time.Now())

	return cloneInstance(inst), nil
}

// ListInstancesByWorkflow retrieves a paginated list of instances sorted by
// creation time (newest first)
func (c *Client) ListInstancesByWorkflow(ctx context.Context, workflowID types.WorkflowID, offset, limit int) ([]*instance.AgentInstance, int, error) {
	if offset < 0 {
		return nil, 0, goerr.New("offset must be non-negative", goerr.V("offset", offset))
	}
	if limit < 0 {
		return nil, 0, goerr.New("limit must be non-negative", goerr.V("limit", limit))
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var matched []*instance.AgentInstance
	for _, inst := range c.instances {
		if inst.WorkflowID == workflowID {
			matched = append(matched, inst)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if offset >= total {
		return []*instance.AgentInstance{}, total, nil
	}

	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	page := make([]*instance.AgentInstance, 0, end-offset)
	for _, inst := range matched[offset:end] {
		page = append(page, cloneInstance(inst))
	}

	return page, total, nil
}
