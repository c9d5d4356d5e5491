package memory

import (
	"context"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/domain/interfaces"
	"github.com/m-mizutani/nagare/pkg/domain/model/instance"
	"github.com/m-mizutani/nagare/pkg/domain/model/journal"
	"github.com/m-mizutani/nagare/pkg/domain/model/workflow"
	"github.com/m-mizutani/nagare/pkg/domain/types"
)

// CreateWorkflow stores a new workflow
func (c *Client) CreateWorkflow(ctx context.Context, wf *workflow.Workflow) error {
	if err := wf.Validate(); err != nil {
		return goerr.Wrap(err, "invalid workflow", goerr.V("workflow_id", wf.ID))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.workflows[wf.ID]; ok {
		return goerr.New("workflow already exists", goerr.V("workflow_id", wf.ID))
	}

	c.workflows[wf.ID] = cloneWorkflow(wf)
	return nil
}

// GetWorkflow retrieves a workflow by ID
func (c *Client) GetWorkflow(ctx context.Context, id types.WorkflowID) (*workflow.Workflow, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	wf, ok := c.workflows[id]
	if !ok {
		return nil, goerr.Wrap(workflow.ErrWorkflowNotFound, "workflow not found",
			goerr.V("workflow_id", id))
	}

	return cloneWorkflow(wf), nil
}

// GetNode retrieves a node and verifies it belongs to the workflow
func (c *Client) GetNode(ctx context.Context, workflowID types.WorkflowID, nodeID types.NodeID) (*workflow.Node, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	node, ok := c.nodes[nodeID]
	if !ok || node.WorkflowID != workflowID {
		return nil, goerr.Wrap(workflow.ErrNodeNotFound, "node not found",
			goerr.V("node_id", nodeID),
			goerr.V("workflow_id", workflowID))
	}

	return cloneNode(node), nil
}

// CreateEdge stores a new edge
func (c *Client) CreateEdge(ctx context.Context, edge *workflow.Edge) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.edges[edge.ID]; ok {
		return goerr.New("edge already exists", goerr.V("edge_id", edge.ID))
	}

	c.edges[edge.ID] = cloneEdge(edge)
	return nil
}

// ListEdgesByWorkflow retrieves all edges of a workflow
func (c *Client) ListEdgesByWorkflow(ctx context.Context, workflowID types.WorkflowID) ([]*workflow.Edge, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var edges []*workflow.Edge
	for _, edge := range c.edges {
		if edge.WorkflowID == workflowID {
			edges = append(edges, cloneEdge(edge))
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		return edges[i].CreatedAt.Before(edges[j].CreatedAt)
	})

	return edges, nil
}

// CreateInstanceGraph writes the instance, its agent node and the creation
// journal entry atomically under one lock. Pre-existing documents abort the
// whole operation.
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

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.instances[inst.ID]; ok {
		return goerr.Wrap(instance.ErrInstanceExists, "instance already exists",
			goerr.V("instance_id", inst.ID))
	}
	if _, ok := c.nodes[node.ID]; ok {
		return goerr.Wrap(workflow.ErrNodeExists, "node already exists",
			goerr.V("node_id", node.ID))
	}
	if _, ok := c.journals[entry.ID]; ok {
		return goerr.Wrap(journal.ErrEntryExists, "entry already exists",
			goerr.V("entry_id", entry.ID))
	}

	c.seq++
	entry.Seq = c.seq

	c.instances[inst.ID] = cloneInstance(inst)
	c.nodes[node.ID] = cloneNode(node)
	c.journals[entry.ID] = cloneEntry(entry)
	return nil
}

// DeleteAgentNodeCascade removes the instance's journal entries, the
// instance, every edge touching the node, and the node under one lock, and
// records the media tombstone.
func (c *Client) DeleteAgentNodeCascade(ctx context.Context, node *workflow.Node, tombstone *workflow.MediaTombstone) (*interfaces.CascadeResult, error) {
	if node.Type != workflow.NodeTypeAgent {
		return nil, goerr.Wrap(workflow.ErrNotAgentNode, "cascade deletion requires an agent node",
			goerr.V("node_id", node.ID),
			goerr.V("type", node.Type))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.nodes[node.ID]; !ok {
		return nil, goerr.Wrap(workflow.ErrNodeNotFound, "node not found",
			goerr.V("node_id", node.ID))
	}

	var result interfaces.CascadeResult

	for id, entry := range c.journals {
		if entry.InstanceID == node.InstanceID {
			delete(c.journals, id)
			result.DeletedEntries++
		}
	}

	delete(c.instances, node.InstanceID)

	for id, edge := range c.edges {
		if edge.Touches(node.ID) {
			delete(c.edges, id)
			result.DeletedEdges++
		}
	}

	delete(c.nodes, node.ID)

	c.tombstones[tombstone.ID] = cloneTombstone(tombstone)

	return &result, nil
}

// ListMediaTombstones returns pending media tombstones, oldest first
func (c *Client) ListMediaTombstones(ctx context.Context, limit int) ([]*workflow.MediaTombstone, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tombstones := make([]*workflow.MediaTombstone, 0, len(c.tombstones))
	for _, ts := range c.tombstones {
		tombstones = append(tombstones, cloneTombstone(ts))
	}

	sort.Slice(tombstones, func(i, j int) bool {
		return tombstones[i].CreatedAt.Before(tombstones[j].CreatedAt)
	})

	if limit > 0 && len(tombstones) > limit {
		tombstones = tombstones[:limit]
	}

	return tombstones, nil
}

// DeleteMediaTombstone removes a resolved tombstone
func (c *Client) DeleteMediaTombstone(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.tombstones, id)
	return nil
}
