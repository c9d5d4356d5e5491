package instance

import (
	"time"

	"github.com/m-mizutani/nagare/pkg/domain/types"
)

// ModelConfig holds the model/provider configuration of an instance
type ModelConfig struct {
	Provider     types.LLMProvider `json:"provider"`
	Model        string            `json:"model"`
	Temperature  float64           `json:"temperature"`
	Tools        []string          `json:"tools,omitempty"`
	OutputFormat string            `json:"output_format,omitempty"`
}

// RuntimeState is the short-term runtime memory of an instance.
// LastActivity is refreshed on every state or status mutation.
type RuntimeState struct {
	Memory       string            `json:"memory,omitempty"`
	Variables    map[string]string `json:"variables,omitempty"`
	LastActivity time.Time         `json:"last_activity"`
	CurrentTask  string            `json:"current_task,omitempty"`
}

// AgentInstance represents one configured, running-or-idle agent within a workflow.
// Instances are created only through the atomic creation flow together with
// their workflow node, and destroyed only through the cascading deletion flow.
type AgentInstance struct {
	ID          types.InstanceID  `json:"id"`
	WorkflowID  types.WorkflowID  `json:"workflow_id"`
	UserID      types.UserID      `json:"user_id"`
	PrototypeID string            `json:"prototype_id,omitempty"`
	Name        string            `json:"name"`
	Role        string            `json:"role,omitempty"`
	Model       ModelConfig       `json:"model"`
	Persistence PersistenceConfig `json:"persistence"`
	State       RuntimeState      `json:"state"`
	Status      Status            `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TouchActivity refreshes the last-activity timestamp
func (x *AgentInstance) TouchActivity(now time.Time) {
	x.State.LastActivity = now
	x.UpdatedAt = now
}
