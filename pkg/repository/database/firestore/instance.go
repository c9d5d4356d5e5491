package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/domain/model/instance"
	"github.com/m-mizutani/nagare/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GetInstance retrieves an instance from Firestore
func (c *Client) GetInstance(ctx context.Context, id types.InstanceID) (*instance.AgentInstance, error) {
	doc, err := c.client.Collection(collectionInstances).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(instance.ErrInstanceNotFound, "instance not found",
				goerr.V("instance_id", id),
				goerr.V("repository", "firestore"))
		}
		return nil, goerr.Wrap(err, "failed to get instance",
			goerr.V("instance_id", id),
			goerr.V("repository", "firestore"))
	}

	var inst instance.AgentInstance
	if err := doc.DataTo(&inst); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal instance",
			goerr.V("instance_id", id),
			goerr.V("repository", "firestore"))
	}

	return &inst, nil
}

// UpdateInstance replaces the stored instance document. Last write wins;
// there is no optimistic-concurrency token.
func (c *Client) UpdateInstance(ctx context.Context, inst *instance.AgentInstance) error {
	if err := inst.Validate(); err != nil {
		return goerr.Wrap(err, "invalid instance", goerr.V("instance_id", inst.ID))
	}

	ref := c.client.Collection(collectionInstances).Doc(inst.ID.String())
	err := c.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(instance.ErrInstanceNotFound, "instance not found",
					goerr.V("instance_id", inst.ID))
			}
			return goerr.Wrap(err, "failed to get instance", goerr.V("instance_id", inst.ID))
		}
		return tx.Set(ref, inst)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to update instance",
			goerr.V("instance_id", inst.ID),
			goerr.V("repository", "firestore"))
	}

	return nil
}

// RefreshActivity updates the activity timestamp and optionally the current
// task label without touching the rest of the document
func (c *Client) RefreshActivity(ctx context.Context, id types.InstanceID, at time.Time, currentTask *string) error {
	updates := []firestore.Update{
		{Path: "State.LastActivity", Value: at},
		{Path: "UpdatedAt", Value: at},
	}
	if currentTask != nil {
		updates = append(updates, firestore.Update{Path: "State.CurrentTask", Value: *currentTask})
	}

	_, err := c.client.Collection(collectionInstances).Doc(id.String()).Update(ctx, updates)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(instance.ErrInstanceNotFound, "instance not found",
				goerr.V("instance_id", id))
		}
		return goerr.Wrap(err, "failed to refresh activity",
			goerr.V("instance_id", id),
			goerr.V("repository", "firestore"))
	}

	return nil
}

// TransitionStatus atomically validates and applies a status transition.
// The transition table is checked inside the transaction so an illegal
// change never mutates the document.
func (c *Client) TransitionStatus(ctx context.Context, id types.InstanceID, next instance.Status) (*instance.AgentInstance, error) {
	ref := c.client.Collection(collectionInstances).Doc(id.String())

	var result *instance.AgentInstance
	err := c.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(instance.ErrInstanceNotFound, "instance not found",
					goerr.V("instance_id", id))
			}
			return goerr.Wrap(err, "failed to get instance", goerr.V("instance_id", id))
		}

		var inst instance.AgentInstance
		if err := doc.DataTo(&inst); err != nil {
			return goerr.Wrap(err, "failed to unmarshal instance", goerr.V("instance_id", id))
		}

		if err := instance.ValidateTransition(inst.Status, next); err != nil {
			return err
		}

		inst.Status = next
		inst.TouchActivity(time.Now())
		result = &inst
		return tx.Set(ref, &inst)
	})
	if err != nil {
		return nil, err
	}

	return result, nil
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

	base := c.client.Collection(collectionInstances).
		Where("WorkflowID", "==", workflowID.String())

	totalDocs, err := base.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to count instances",
			goerr.V("workflow_id", workflowID),
			goerr.V("repository", "firestore"))
	}
	totalCount := len(totalDocs)

	if offset >= totalCount {
		return []*instance.AgentInstance{}, totalCount, nil
	}

	query := base.OrderBy("CreatedAt", firestore.Desc).Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var instances []*instance.AgentInstance
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, goerr.Wrap(err, "failed to iterate instances",
				goerr.V("workflow_id", workflowID),
				goerr.V("repository", "firestore"))
		}

		var inst instance.AgentInstance
		if err := doc.DataTo(&inst); err != nil {
			return nil, 0, goerr.Wrap(err, "failed to unmarshal instance",
				goerr.V("instance_id", doc.Ref.ID),
				goerr.V("repository", "firestore"))
		}
		instances = append(instances, &inst)
	}

	return instances, totalCount, nil
}
