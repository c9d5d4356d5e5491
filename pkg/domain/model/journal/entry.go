package journal

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/domain/types"
)

// JournalEntry is one immutable, append-only record of an instance event.
// Entries are never mutated or reordered after creation.
type JournalEntry struct {
	ID         types.EntryID    `json:"id"`
	InstanceID types.InstanceID `json:"instance_id"`
	// WorkflowID is denormalized from the instance for cheap cascade cleanup
	WorkflowID types.WorkflowID  `json:"workflow_id"`
	Type       types.JournalType `json:"type"`
	Severity   types.Severity    `json:"severity"`
	SessionID  types.SessionID   `json:"session_id,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	// Seq is a per-writer monotonic tie-break for entries sharing an
	// identical timestamp. Assigned by the repository at write time.
	Seq     int64   `json:"seq"`
	Payload Payload `json:"payload"`
}

// NewEntry builds a journal entry with a write-time timestamp. The payload
// must match the entry type; mismatches are rejected at construction.
func NewEntry(ctx context.Context, instanceID types.InstanceID, workflowID types.WorkflowID, entryType types.JournalType, severity types.Severity, payload Payload) (*JournalEntry, error) {
	e := &JournalEntry{
		ID:         types.NewEntryID(ctx),
		InstanceID: instanceID,
		WorkflowID: workflowID,
		Type:       entryType,
		Severity:   severity,
		Timestamp:  time.Now(),
		Payload:    payload,
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// WithSession attaches a session ID for grouping entries of one turn
func (e *JournalEntry) WithSession(sessionID types.SessionID) *JournalEntry {
	e.SessionID = sessionID
	return e
}

// Validate checks entry invariants including the payload variant
func (e *JournalEntry) Validate() error {
	if !e.ID.IsValid() {
		return goerr.New("invalid entry ID", goerr.V("id", e.ID))
	}
	if !e.InstanceID.IsValid() {
		return goerr.New("entry requires an instance ID", goerr.V("instance_id", e.InstanceID))
	}
	if !e.WorkflowID.IsValid() {
		return goerr.New("entry requires a workflow ID", goerr.V("workflow_id", e.WorkflowID))
	}
	if !e.Type.IsValid() {
		return goerr.New("invalid journal type", goerr.V("type", e.Type))
	}
	if !e.Severity.IsValid() {
		return goerr.New("invalid severity", goerr.V("severity", e.Severity))
	}
	if e.Timestamp.IsZero() {
		return goerr.New("entry timestamp is not set", goerr.V("entry_id", e.ID))
	}
	return e.Payload.Validate(e.Type)
}
