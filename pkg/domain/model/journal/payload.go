package journal

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/domain/types"
	"github.com/m-mizutani/nagare/pkg/domain/model/instance"
)

// Payload is the tagged union of per-type event data. Exactly one case
// matching the entry type must be populated; the rest stay nil.
type Payload struct {
	Chat   *ChatPayload   `json:"chat,omitempty"`
	Error  *ErrorPayload  `json:"error,omitempty"`
	Media  *MediaPayload  `json:"media,omitempty"`
	Task   *TaskPayload   `json:"task,omitempty"`
	System *SystemPayload `json:"system,omitempty"`
}

// ToolCall records one tool invocation within a chat exchange
type ToolCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

// ChatPayload records one chat exchange
type ChatPayload struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Model     string     `json:"model,omitempty"`
	Tokens    int        `json:"tokens,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ErrorPayload records a failure during agent execution
type ErrorPayload struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Source      string `json:"source,omitempty"`
	Recoverable bool   `json:"recoverable"`
	Attempts    int    `json:"attempts,omitempty"`
}

// MediaPayload records a stored media artifact. Location points into the
// media storage when the storage mode is external.
type MediaPayload struct {
	MimeType    string               `json:"mime_type"`
	Size        int64                `json:"size"`
	StorageMode instance.StorageMode `json:"storage_mode"`
	Location    string               `json:"location"`
	Generation  map[string]string    `json:"generation,omitempty"`
}

// TaskStatus represents the outcome of a task execution step
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// IsValid checks if the task status is valid
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// TaskPayload records a task execution step
type TaskPayload struct {
	Name       string     `json:"name"`
	Status     TaskStatus `json:"status"`
	Step       int        `json:"step,omitempty"`
	DurationMS int64      `json:"duration_ms,omitempty"`
}

// SystemPayload records lifecycle and administrative facts
type SystemPayload struct {
	Event       string            `json:"event"`
	Details     map[string]string `json:"details,omitempty"`
	TriggeredBy string            `json:"triggered_by,omitempty"`
}

// Validate checks that exactly the case matching entryType is populated
func (p Payload) Validate(entryType types.JournalType) error {
	var populated int
	for _, set := range []bool{p.Chat != nil, p.Error != nil, p.Media != nil, p.Task != nil, p.System != nil} {
		if set {
			populated++
		}
	}
	if populated != 1 {
		return goerr.New("payload must populate exactly one variant",
			goerr.V("type", entryType),
			goerr.V("populated", populated))
	}

	switch entryType {
	case types.JournalTypeChat:
		if p.Chat == nil {
			return errPayloadMismatch(entryType)
		}
		if p.Chat.Role == "" {
			return goerr.New("chat payload requires a role")
		}
	case types.JournalTypeError:
		if p.Error == nil {
			return errPayloadMismatch(entryType)
		}
		if p.Error.Message == "" {
			return goerr.New("error payload requires a message")
		}
	case types.JournalTypeMedia:
		if p.Media == nil {
			return errPayloadMismatch(entryType)
		}
		if p.Media.MimeType == "" {
			return goerr.New("media payload requires a mime type")
		}
	case types.JournalTypeTask:
		if p.Task == nil {
			return errPayloadMismatch(entryType)
		}
		if p.Task.Name == "" {
			return goerr.New("task payload requires a name")
		}
		if !p.Task.Status.IsValid() {
			return goerr.New("invalid task status", goerr.V("status", p.Task.Status))
		}
	case types.JournalTypeSystem:
		if p.System == nil {
			return errPayloadMismatch(entryType)
		}
		if p.System.Event == "" {
			return goerr.New("system payload requires an event name")
		}
	default:
		return goerr.New("invalid journal type", goerr.V("type", entryType))
	}
	return nil
}

func errPayloadMismatch(entryType types.JournalType) error {
	return goerr.New("payload variant does not match entry type", goerr.V("type", entryType))
}
