package instance

import "github.com/m-mizutani/nagare/pkg/domain/types"

// StorageMode selects where large payloads of journal entries are kept
type StorageMode string

const (
	// StorageModeInline keeps payloads inside the journal entry document
	StorageModeInline StorageMode = "inline"
	// StorageModeExternal keeps payloads in the media storage, referenced by key
	StorageModeExternal StorageMode = "external"
)

// IsValid checks if the storage mode is valid
func (m StorageMode) IsValid() bool {
	switch m {
	case StorageModeInline, StorageModeExternal:
		return true
	default:
		return false
	}
}

// PersistenceConfig is the per-instance write policy. It controls which
// event categories are durably recorded in the journal. System entries
// ignore the policy entirely.
type PersistenceConfig struct {
	SaveChatHistory   bool        `json:"save_chat_history"`
	SaveErrors        bool        `json:"save_errors"`
	SaveTaskExecution bool        `json:"save_task_execution"`
	SaveMedia         bool        `json:"save_media"`
	StorageMode       StorageMode `json:"storage_mode"`
	RetentionDays     int         `json:"retention_days,omitempty"`
}

// PersistenceConfigPatch carries caller overrides for PersistenceConfig.
// Nil fields keep the current value.
type PersistenceConfigPatch struct {
	SaveChatHistory   *bool        `json:"save_chat_history,omitempty"`
	SaveErrors        *bool        `json:"save_errors,omitempty"`
	SaveTaskExecution *bool        `json:"save_task_execution,omitempty"`
	SaveMedia         *bool        `json:"save_media,omitempty"`
	StorageMode       *StorageMode `json:"storage_mode,omitempty"`
	RetentionDays     *int         `json:"retention_days,omitempty"`
}

// DefaultPersistenceConfig returns the policy applied when the caller
// supplies no overrides at creation time.
func DefaultPersistenceConfig() PersistenceConfig {
	return PersistenceConfig{
		SaveChatHistory:   true,
		SaveErrors:        true,
		SaveTaskExecution: true,
		SaveMedia:         false,
		StorageMode:       StorageModeInline,
		RetentionDays:     0,
	}
}

// Apply merges the patch into the config and returns the result.
// The receiver is not modified.
func (c PersistenceConfig) Apply(patch *PersistenceConfigPatch) PersistenceConfig {
	if patch == nil {
		return c
	}
	if patch.SaveChatHistory != nil {
		c.SaveChatHistory = *patch.SaveChatHistory
	}
	if patch.SaveErrors != nil {
		c.SaveErrors = *patch.SaveErrors
	}
	if patch.SaveTaskExecution != nil {
		c.SaveTaskExecution = *patch.SaveTaskExecution
	}
	if patch.SaveMedia != nil {
		c.SaveMedia = *patch.SaveMedia
	}
	if patch.StorageMode != nil {
		c.StorageMode = *patch.StorageMode
	}
	if patch.RetentionDays != nil {
		c.RetentionDays = *patch.RetentionDays
	}
	return c
}

// IsEmpty reports whether the patch changes nothing
func (p *PersistenceConfigPatch) IsEmpty() bool {
	if p == nil {
		return true
	}
	return p.SaveChatHistory == nil &&
		p.SaveErrors == nil &&
		p.SaveTaskExecution == nil &&
		p.SaveMedia == nil &&
		p.StorageMode == nil &&
		p.RetentionDays == nil
}

// ShouldPersist evaluates the write policy for one event category.
// It is pure: no side effects, stable for repeated calls.
// System entries are always persisted regardless of any flag.
func (c PersistenceConfig) ShouldPersist(t types.JournalType) bool {
	switch t {
	case types.JournalTypeChat:
		return c.SaveChatHistory
	case types.JournalTypeError:
		return c.SaveErrors
	case types.JournalTypeTask:
		return c.SaveTaskExecution
	case types.JournalTypeMedia:
		return c.SaveMedia
	case types.JournalTypeSystem:
		return true
	default:
		return false
	}
}
