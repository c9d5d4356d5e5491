package interfaces

import (
	"context"
	"time"

	"github.com/m-mizutani/nagare/pkg/domain/model/instance"
	"github.com/m-mizutani/nagare/pkg/domain/model/journal"
	"github.com/m-mizutani/nagare/pkg/domain/model/workflow"
	"github.com/m-mizutani/nagare/pkg/domain/types"
)

// LogResult is the outcome of a journal write. A policy-disabled write is
// a successful no-op: the call returns a nil error with Saved=false and a
// human-readable Reason. Errors are reserved for infrastructure failure
// and missing instances.
type LogResult struct {
	Saved   bool          `json:"saved"`
	EntryID types.EntryID `json:"entry_id,omitempty"`
	Reason  string        `json:"reason,omitempty"`
}

// LogChatRequest records one chat exchange
type LogChatRequest struct {
	InstanceID types.InstanceID
	SessionID  types.SessionID
	Role       string
	Content    string
	Model      string
	Tokens     int
	ToolCalls  []journal.ToolCall
	Severity   *types.Severity
}

// LogErrorRequest records an execution failure. A non-recoverable error
// additionally escalates the instance status to error.
type LogErrorRequest struct {
	InstanceID  types.InstanceID
	SessionID   types.SessionID
	Code        string
	Message     string
	Source      string
	Recoverable bool
	Attempts    int
	Severity    *types.Severity
}

// LogMediaRequest stores a media artifact and records it
type LogMediaRequest struct {
	InstanceID types.InstanceID
	SessionID  types.SessionID
	Data       []byte
	MimeType   string
	Generation map[string]string
	Severity   *types.Severity
}

// LogTaskRequest records a task execution step
type LogTaskRequest struct {
	InstanceID types.InstanceID
	SessionID  types.SessionID
	Name       string
	Status     journal.TaskStatus
	Step       int
	Duration   time.Duration
	Severity   *types.Severity
}

// LogSystemRequest records a lifecycle/administrative fact. System entries
// bypass the persistence policy.
type LogSystemRequest struct {
	InstanceID  types.InstanceID
	Event       string
	Details     map[string]string
	TriggeredBy string
}

// JournalUseCases orchestrates policy-gated journal writes
type JournalUseCases interface {
	LogChat(ctx context.Context, req *LogChatRequest) (*LogResult, error)
	LogError(ctx context.Context, req *LogErrorRequest) (*LogResult, error)
	LogMedia(ctx context.Context, req *LogMediaRequest) (*LogResult, error)
	LogTask(ctx context.Context, req *LogTaskRequest) (*LogResult, error)
	LogSystem(ctx context.Context, req *LogSystemRequest) (*LogResult, error)

	// ListJournals retrieves one page of an instance timeline after an
	// ownership check
	ListJournals(ctx context.Context, userID types.UserID, instanceID types.InstanceID, filter *journal.Filter) (*journal.Page, error)
}

// UpdateInstanceRequest is a partial update; nil fields keep current values
type UpdateInstanceRequest struct {
	Name        *string
	Role        *string
	Memory      *string
	Variables   map[string]string
	CurrentTask *string
	Persistence *instance.PersistenceConfigPatch
}

// InstanceUseCases manages instance reads and mutations
type InstanceUseCases interface {
	GetInstance(ctx context.Context, userID types.UserID, id types.InstanceID) (*instance.AgentInstance, error)
	UpdateInstance(ctx context.Context, userID types.UserID, id types.InstanceID, req *UpdateInstanceRequest) (*instance.AgentInstance, error)
	UpdateStatus(ctx context.Context, userID types.UserID, id types.InstanceID, next instance.Status) (*instance.AgentInstance, error)
	ListInstances(ctx context.Context, userID types.UserID, workflowID types.WorkflowID, offset, limit int) ([]*instance.AgentInstance, int, error)
}

// CreateInstanceRequest creates an instance together with its agent node
type CreateInstanceRequest struct {
	WorkflowID  types.WorkflowID
	Name        string
	Role        string
	PrototypeID string
	Model       instance.ModelConfig
	Persistence *instance.PersistenceConfigPatch
	Position    workflow.Position
	UIConfig    map[string]string
}

// CreatedInstance is the result of the atomic creation flow
type CreatedInstance struct {
	Instance *instance.AgentInstance `json:"instance"`
	Node     *workflow.Node          `json:"node"`
}

// WorkflowUseCases manages workflows and the two consistency units
type WorkflowUseCases interface {
	CreateWorkflow(ctx context.Context, userID types.UserID, name string) (*workflow.Workflow, error)
	GetWorkflow(ctx context.Context, userID types.UserID, id types.WorkflowID) (*workflow.Workflow, error)
	CreateInstance(ctx context.Context, userID types.UserID, req *CreateInstanceRequest) (*CreatedInstance, error)
	DeleteNode(ctx context.Context, userID types.UserID, workflowID types.WorkflowID, nodeID types.NodeID) (*CascadeResult, error)

	// CollectMediaGarbage resolves pending media tombstones. Safe to call
	// repeatedly; returns the number of resolved tombstones.
	CollectMediaGarbage(ctx context.Context, limit int) (int, error)
}
