package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/domain/interfaces"
	"github.com/m-mizutani/nagare/pkg/domain/model/instance"
	"github.com/m-mizutani/nagare/pkg/domain/model/journal"
	"github.com/m-mizutani/nagare/pkg/domain/model/workflow"
	"github.com/m-mizutani/nagare/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CreateWorkflow stores a new workflow document
func (c *Client) CreateWorkflow(ctx context.Context, wf *workflow.Workflow) error {
	if err := wf.Validate(); err != nil {
		return goerr.Wrap(err, "invalid workflow", goerr.V("workflow_id", wf.ID))
	}

	_, err := c.client.Collection(collectionWorkflows).Doc(wf.ID.String()).Create(ctx, wf)
	if err != nil {
		return goerr.Wrap(err, "failed to create workflow",
			goerr.V("workflow_id", wf.ID),
			goerr.V("repository", "firestore"))
	}

	return nil
}

// GetWorkflow retrieves a workflow from Firestore
func (c *Client) GetWorkflow(ctx context.Context, id types.WorkflowID) (*workflow.Workflow, error) {
	doc, err := c.client.Collection(collectionWorkflows).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(workflow.ErrWorkflowNotFound, "workflow not found",
				goerr.V("workflow_id", id),
				goerr.V("repository", "firestore"))
		}
		return nil, goerr.Wrap(err, "failed to get workflow",
			goerr.V("workflow_id", id),
			goerr.V("repository", "firestore"))
	}

	var wf workflow.Workflow
	if err := doc.DataTo(&wf); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal workflow",
			goerr.V("workflow_id", id),
			goerr.V("repository", "firestore"))
	}

	return &wf, nil
}

// GetNode retrieves a node and verifies it belongs to the workflow
func (c *Client) GetNode(ctx context.Context, workflowID types.WorkflowID, nodeID types.NodeID) (*workflow.Node, error) {
	doc, err := c.client.Collection(collectionNodes).Doc(nodeID.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(workflow.ErrNodeNotFound, "node not found",
				goerr.V("node_id", nodeID),
				goerr.V("repository", "firestore"))
		}
		return nil, goerr.Wrap(err, "failed to get node",
			goerr.V("node_id", nodeID),
			goerr.V("repository", "firestore"))
	}

	var n workflow.Node
	if err := doc.DataTo(&n); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal node",
			goerr.V("node_id", nodeID),
			goerr.V("repository", "firestore"))
	}

	if n.WorkflowID != workflowID {
		return nil, goerr.Wrap(workflow.ErrNodeNotFound, "node belongs to another workflow",
			goerr.V("node_id", nodeID),
			goerr.V("workflow_id", workflowID))
	}

	return &n, nil
}

// CreateEdge stores a new edge document
func (c *Client) CreateEdge(ctx context.Context, edge *workflow.Edge) error {
	_, err := c.client.Collection(collectionEdges).Doc(edge.ID.String()).Create(ctx, edge)
	if err != nil {
		return goerr.Wrap(err, "failed to create edge",
			goerr.V("edge_id", edge.ID),
			goerr.V("repository", "firestore"))
	}

	return nil
}

// ListEdgesByWorkflow retrieves all edges of a workflow
func (c *Client) ListEdgesByWorkflow(ctx context.Context, workflowID types.WorkflowID) ([]*workflow.Edge, error) {
	iter := c.client.Collection(collectionEdges).
		Where("WorkflowID", "==", workflowID.String()).
		Documents(ctx)
	defer iter.Stop()

	var edges []*workflow.Edge
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate edges",
				goerr.V("workflow_id", workflowID),
				goerr.V("repository", "firestore"))
		}

		var e workflow.Edge
		if err := doc.DataTo(&e); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal edge",
				goerr.V("edge_id", doc.Ref.ID),
				goerr.V("repository", "firestore"))
		}
		edges = append(edges, &e)
	}

	return edges, nil
}

// CreateInstanceGraph writes the instance, its agent node and the creation
// journal entry atomically. If any write fails the transaction aborts and
// none of the three documents survive.
func (c *Client) CreateInstanceGraph(ctx context.Context, inst *instance.AgentInstance, node *workflow.Node, entry *journal.JournalEntry) error {
	if err := inst.Validate(); err != nil {
		return goerr.Wrap(err, "invalid instance", goerr.V("instance_id", inst.ID))
	}
	if err := node.Validate(); err != nil {
		return goerr.Wrap(err, "invalid node", goerr.V("node_id", node.ID))
	}
	if err := entry.Validate(); err != nil {
		return goerr.Wrap(err, "invalid journal entry", goerr.V("entry_id", entry.ID))
	}

	entry.Seq = time.Now().UnixNano()

	err := c.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(c.client.Collection(collectionInstances).Doc(inst.ID.String()), inst); err != nil {
			return goerr.Wrap(err, "failed to create instance", goerr.V("instance_id", inst.ID))
		}
		if err := tx.Create(c.client.Collection(collectionNodes).Doc(node.ID.String()), node); err != nil {
			return goerr.Wrap(err, "failed to create node", goerr.V("node_id", node.ID))
		}
		if err := tx.Create(c.client.Collection(collectionJournals).Doc(entry.ID.String()), entry); err != nil {
			return goerr.Wrap(err, "failed to create journal entry", goerr.V("entry_id", entry.ID))
		}
		return nil
	})
	if err != nil {
		return goerr.Wrap(err, "instance creation transaction failed",
			goerr.V("instance_id", inst.ID),
			goerr.V("node_id", node.ID),
			goerr.V("workflow_id", inst.WorkflowID))
	}

	return nil
}

// DeleteAgentNodeCascade removes the instance's journal entries, the
// instance, every edge touching the node, and the node in one transaction,
// and records the media tombstone for post-commit collection. All reads run
// before the writes per Firestore transaction rules.
func (c *Client) DeleteAgentNodeCascade(ctx context.Context, node *workflow.Node, tombstone *workflow.MediaTombstone) (*interfaces.CascadeResult, error) {
	if node.Type != workflow.NodeTypeAgent {
		return nil, goerr.Wrap(workflow.ErrNotAgentNode, "cascade deletion requires an agent node",
			goerr.V("node_id", node.ID),
			goerr.V("type", node.Type))
	}

	var result interfaces.CascadeResult
	err := c.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		journalDocs, err := tx.Documents(c.client.Collection(collectionJournals).
			Where("InstanceID", "==", node.InstanceID.String())).GetAll()
		if err != nil {
			return goerr.Wrap(err, "failed to query journal entries", goerr.V("instance_id", node.InstanceID))
		}

		sourceDocs, err := tx.Documents(c.client.Collection(collectionEdges).
			Where("Source", "==", node.ID.String())).GetAll()
		if err != nil {
			return goerr.Wrap(err, "failed to query outbound edges", goerr.V("node_id", node.ID))
		}

		targetDocs, err := tx.Documents(c.client.Collection(collectionEdges).
			Where("Target", "==", node.ID.String())).GetAll()
		if err != nil {
			return goerr.Wrap(err, "failed to query inbound edges", goerr.V("node_id", node.ID))
		}

		for _, doc := range journalDocs {
			if err := tx.Delete(doc.Ref); err != nil {
				return goerr.Wrap(err, "failed to delete journal entry", goerr.V("entry_id", doc.Ref.ID))
			}
		}

		if err := tx.Delete(c.client.Collection(collectionInstances).Doc(node.InstanceID.String())); err != nil {
			return goerr.Wrap(err, "failed to delete instance", goerr.V("instance_id", node.InstanceID))
		}

		edgeRefs := make(map[string]*firestore.DocumentRef)
		for _, doc := range append(sourceDocs, targetDocs...) {
			edgeRefs[doc.Ref.ID] = doc.Ref
		}
		for _, ref := range edgeRefs {
			if err := tx.Delete(ref); err != nil {
				return goerr.Wrap(err, "failed to delete edge", goerr.V("edge_id", ref.ID))
			}
		}

		if err := tx.Delete(c.client.Collection(collectionNodes).Doc(node.ID.String())); err != nil {
			return goerr.Wrap(err, "failed to delete node", goerr.V("node_id", node.ID))
		}

		if err := tx.Create(c.client.Collection(collectionMediaGC).Doc(tombstone.ID), tombstone); err != nil {
			return goerr.Wrap(err, "failed to create media tombstone", goerr.V("tombstone_id", tombstone.ID))
		}

		result = interfaces.CascadeResult{
			DeletedEntries: len(journalDocs),
			DeletedEdges:   len(edgeRefs),
		}
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "cascade deletion transaction failed",
			goerr.V("node_id", node.ID),
			goerr.V("instance_id", node.InstanceID),
			goerr.V("workflow_id", node.WorkflowID))
	}

	return &result, nil
}

// ListMediaTombstones returns pending media tombstones, oldest first
func (c *Client) ListMediaTombstones(ctx context.Context, limit int) ([]*workflow.MediaTombstone, error) {
	query := c.client.Collection(collectionMediaGC).OrderBy("CreatedAt", firestore.Asc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var tombstones []*workflow.MediaTombstone
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate media tombstones",
				goerr.V("repository", "firestore"))
		}

		var ts workflow.MediaTombstone
		if err := doc.DataTo(&ts); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal media tombstone",
				goerr.V("tombstone_id", doc.Ref.ID),
				goerr.V("repository", "firestore"))
		}
		tombstones = append(tombstones, &ts)
	}

	return tombstones, nil
}

// DeleteMediaTombstone removes a resolved tombstone
func (c *Client) DeleteMediaTombstone(ctx context.Context, id string) error {
	_, err := c.client.Collection(collectionMediaGC).Doc(id).Delete(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to delete media tombstone",
			goerr.V("tombstone_id", id),
			goerr.V("repository", "firestore"))
	}

	return nil
}
