package workflow

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/domain/types"
)

// NodeType represents the kind of a workflow node
type NodeType string

const (
	// NodeTypeAgent is the visual counterpart of an agent instance.
	// Agent nodes are created and destroyed in lockstep with their instance.
	NodeTypeAgent NodeType = "agent"
	// NodeTypeNote is a free-floating annotation on the canvas
	NodeTypeNote NodeType = "note"
)

// IsValid checks if the node type is valid
func (t NodeType) IsValid() bool {
	switch t {
	case NodeTypeAgent, NodeTypeNote:
		return true
	default:
		return false
	}
}

// Position is the canvas coordinate of a node
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one element on the workflow canvas. Agent-typed nodes hold a
// one-to-one back-reference to their instance.
type Node struct {
	ID         types.NodeID      `json:"id"`
	WorkflowID types.WorkflowID  `json:"workflow_id"`
	Type       NodeType          `json:"type"`
	InstanceID types.InstanceID  `json:"instance_id,omitempty"`
	Position   Position          `json:"position"`
	UIConfig   map[string]string `json:"ui_config,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Validate checks node invariants
func (n *Node) Validate() error {
	if !n.ID.IsValid() {
		return goerr.New("invalid node ID", goerr.V("id", n.ID))
	}
	if !n.WorkflowID.IsValid() {
		return goerr.New("node requires a workflow ID", goerr.V("node_id", n.ID))
	}
	if !n.Type.IsValid() {
		return goerr.New("invalid node type", goerr.V("type", n.Type))
	}
	if n.Type == NodeTypeAgent && !n.InstanceID.IsValid() {
		return goerr.New("agent node requires an instance ID", goerr.V("node_id", n.ID))
	}
	return nil
}

// Edge is a directed connection between two nodes of one workflow
type Edge struct {
	ID         types.EdgeID     `json:"id"`
	WorkflowID types.WorkflowID `json:"workflow_id"`
	Source     types.NodeID     `json:"source"`
	Target     types.NodeID     `json:"target"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Touches reports whether the edge references the node in either direction
func (e *Edge) Touches(nodeID types.NodeID) bool {
	return e.Source == nodeID || e.Target == nodeID
}
