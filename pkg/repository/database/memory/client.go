package memory

import (
	"maps"
	"slices"
	"sync"

	"github.com/m-mizutani/nagare/pkg/domain/interfaces"
	"github.com/m-mizutani/nagare/pkg/domain/model/instance"
	"github.com/m-mizutani/nagare/pkg/domain/model/journal"
	"github.com/m-mizutani/nagare/pkg/domain/model/workflow"
	"github.com/m-mizutani/nagare/pkg/domain/types"
)

// Client is an in-memory implementation of the Repository interface,
// used for testing and local development. A single mutex guards all
// collections so the multi-entity operations stay atomic.
type Client struct {
	mu sync.RWMutex

	workflows  map[types.WorkflowID]*workflow.Workflow
	instances  map[types.InstanceID]*instance.AgentInstance
	journals   map[types.EntryID]*journal.JournalEntry
	nodes      map[types.NodeID]*workflow.Node
	edges      map[types.EdgeID]*workflow.Edge
	tombstones map[string]*workflow.MediaTombstone

	// seq assigns the monotonic tie-break for journal entries
	seq int64
}

// New creates a new in-memory repository client
func New() *Client {
	return &Client{
		workflows:  make(map[types.WorkflowID]*workflow.Workflow),
		instances:  make(map[types.InstanceID]*instance.AgentInstance),
		journals:   make(map[types.EntryID]*journal.JournalEntry),
		nodes:      make(map[types.NodeID]*workflow.Node),
		edges:      make(map[types.EdgeID]*workflow.Edge),
		tombstones: make(map[string]*workflow.MediaTombstone),
	}
}

// Close is a no-op for the in-memory client
func (c *Client) Close() error {
	return nil
}

// Stored values are cloned both on write and on read so callers can never
// mutate repository state through a shared pointer.

func cloneInstance(src *instance.AgentInstance) *instance.AgentInstance {
	dst := *src
	dst.Model.Tools = slices.Clone(src.Model.Tools)
	dst.State.Variables = maps.Clone(src.State.Variables)
	return &dst
}

func cloneEntry(src *journal.JournalEntry) *journal.JournalEntry {
	dst := *src
	if src.Payload.Chat != nil {
		chat := *src.Payload.Chat
		chat.ToolCalls = slices.Clone(src.Payload.Chat.ToolCalls)
		dst.Payload.Chat = &chat
	}
	if src.Payload.Error != nil {
		e := *src.Payload.Error
		dst.Payload.Error = &e
	}
	if src.Payload.Media != nil {
		media := *src.Payload.Media
		media.Generation = maps.Clone(src.Payload.Media.Generation)
		dst.Payload.Media = &media
	}
	if src.Payload.Task != nil {
		task := *src.Payload.Task
		dst.Payload.Task = &task
	}
	if src.Payload.System != nil {
		sys := *src.Payload.System
		sys.Details = maps.Clone(src.Payload.System.Details)
		dst.Payload.System = &sys
	}
	return &dst
}

func cloneNode(src *workflow.Node) *workflow.Node {
	dst := *src
	dst.UIConfig = maps.Clone(src.UIConfig)
	return &dst
}

func cloneEdge(src *workflow.Edge) *workflow.Edge {
	dst := *src
	return &dst
}

func cloneWorkflow(src *workflow.Workflow) *workflow.Workflow {
	dst := *src
	return &dst
}

func cloneTombstone(src *workflow.MediaTombstone) *workflow.MediaTombstone {
	dst := *src
	return &dst
}

// Ensure Client implements Repository interface
var _ interfaces.Repository = (*Client)(nil)
