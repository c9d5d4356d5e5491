package types

import (
	"context"

	"github.com/google/uuid"
)

// EntryID represents a unique identifier for a journal entry
type EntryID string

// NewEntryID creates a new EntryID
func NewEntryID(ctx context.Context) EntryID {
	return EntryID(newUUID(ctx))
}

// String returns the string representation of EntryID
func (id EntryID) String() string {
	return string(id)
}

// IsValid checks if the EntryID is a valid UUID
func (id EntryID) IsValid() bool {
	_, err := uuid.Parse(string(id))
	return err == nil
}

// SessionID groups journal entries produced by one conversational turn.
// It is opaque and caller-supplied, so no format is enforced.
type SessionID string

// String returns the string representation of SessionID
func (id SessionID) String() string {
	return string(id)
}
