package interfaces

import (
	"context"
	"time"

	"github.com/m-mizutani/nagare/pkg/domain/model/instance"
	"github.com/m-mizutani/nagare/pkg/domain/model/journal"
	"github.com/m-mizutani/nagare/pkg/domain/model/workflow"
	"github.com/m-mizutani/nagare/pkg/domain/types"
)

// InstanceRepository manages agent instance persistence
type InstanceRepository interface {
	// GetInstance retrieves an instance by ID
	GetInstance(ctx context.Context, id types.InstanceID) (*instance.AgentInstance, error)

	// UpdateInstance replaces the stored instance document. Concurrent
	// updates are last-write-wins; no version token guards them.
	UpdateInstance(ctx context.Context, inst *instance.AgentInstance) error

	// RefreshActivity updates the runtime-state activity timestamp, and the
	// current task label when currentTask is non-nil
	RefreshActivity(ctx context.Context, id types.InstanceID, at time.Time, currentTask *string) error

	// TransitionStatus atomically validates and applies a status transition.
	// An illegal transition fails with instance.ErrInvalidTransition and
	// leaves the instance unchanged. A successful transition refreshes the
	// activity timestamp.
	TransitionStatus(ctx context.Context, id types.InstanceID, next instance.Status) (*instance.AgentInstance, error)

	// ListInstancesByWorkflow retrieves instances of a workflow sorted by
	// creation time (newest first)
	ListInstancesByWorkflow(ctx context.Context, workflowID types.WorkflowID, offset, limit int) ([]*instance.AgentInstance, int, error)
}

// JournalRepository manages the append-only journal
type JournalRepository interface {
	// PutEntry appends one entry. The repository assigns the monotonic
	// sequence tie-break at write time. Entries are never overwritten.
	PutEntry(ctx context.Context, entry *journal.JournalEntry) error

	// GetEntry retrieves an entry by ID
	GetEntry(ctx context.Context, id types.EntryID) (*journal.JournalEntry, error)

	// ListEntriesByInstance retrieves one page of an instance timeline,
	// newest first. The total count and the page fetch run concurrently.
	ListEntriesByInstance(ctx context.Context, instanceID types.InstanceID, filter *journal.Filter) (*journal.Page, error)

	// CountEntriesByInstance returns the number of entries for an instance
	CountEntriesByInstance(ctx context.Context, instanceID types.InstanceID) (int, error)

	// CountEntriesByWorkflow returns the number of entries across a workflow
	CountEntriesByWorkflow(ctx context.Context, workflowID types.WorkflowID) (int, error)
}

// CascadeResult reports what a cascading node deletion removed
type CascadeResult struct {
	DeletedEntries int
	DeletedEdges   int
}

// WorkflowRepository manages workflows, nodes, edges and the two
// multi-entity consistency units (atomic create, cascading delete)
type WorkflowRepository interface {
	CreateWorkflow(ctx context.Context, wf *workflow.Workflow) error
	GetWorkflow(ctx context.Context, id types.WorkflowID) (*workflow.Workflow, error)

	GetNode(ctx context.Context, workflowID types.WorkflowID, nodeID types.NodeID) (*workflow.Node, error)
	CreateEdge(ctx context.Context, edge *workflow.Edge) error
	ListEdgesByWorkflow(ctx context.Context, workflowID types.WorkflowID) ([]*workflow.Edge, error)

	// CreateInstanceGraph writes the instance, its agent node and the
	// unconditional creation journal entry in one transaction. If any
	// write fails nothing survives.
	CreateInstanceGraph(ctx context.Context, inst *instance.AgentInstance, node *workflow.Node, entry *journal.JournalEntry) error

	// DeleteAgentNodeCascade removes, in one transaction: every journal
	// entry of the node's instance, the instance, every edge touching the
	// node, and the node itself, and records the media tombstone. Storage
	// objects are collected separately after commit.
	DeleteAgentNodeCascade(ctx context.Context, node *workflow.Node, tombstone *workflow.MediaTombstone) (*CascadeResult, error)

	// ListMediaTombstones returns pending media tombstones, oldest first
	ListMediaTombstones(ctx context.Context, limit int) ([]*workflow.MediaTombstone, error)

	// DeleteMediaTombstone removes a tombstone once its media is collected
	DeleteMediaTombstone(ctx context.Context, id string) error
}

// Repository aggregates all persistence concerns. Both the Firestore and
// the in-memory backends implement it with a single client.
type Repository interface {
	InstanceRepository
	JournalRepository
	WorkflowRepository
}
