package workflow

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/domain/types/apperr"
)

// Error definitions for workflow-related operations
var (
	// ErrWorkflowNotFound is returned when a requested workflow cannot be
	// found, or is owned by another user
	ErrWorkflowNotFound = goerr.New("workflow not found",
		goerr.T(apperr.ErrTagWorkflowNotFound)).ID("ERR_WORKFLOW_NOT_FOUND")

	// ErrNodeNotFound is returned when a requested node cannot be found
	ErrNodeNotFound = goerr.New("node not found",
		goerr.T(apperr.ErrTagNodeNotFound)).ID("ERR_NODE_NOT_FOUND")

	// ErrNodeExists is returned when a node document already exists
	ErrNodeExists = goerr.New("node already exists",
		goerr.T(apperr.ErrTagConflict)).ID("ERR_NODE_EXISTS")

	// ErrNotAgentNode is returned when a cascade deletion targets a node
	// that has no linked instance
	ErrNotAgentNode = goerr.New("node is not agent-typed",
		goerr.T(apperr.ErrTagInvalidInput)).ID("ERR_NOT_AGENT_NODE")
)
