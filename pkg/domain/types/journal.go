package types

// JournalType represents the category of a journal entry
type JournalType string

const (
	// JournalTypeChat records one chat exchange with the model
	JournalTypeChat JournalType = "chat"
	// JournalTypeError records a failure during agent execution
	JournalTypeError JournalType = "error"
	// JournalTypeMedia records a stored media artifact
	JournalTypeMedia JournalType = "media"
	// JournalTypeTask records a task execution step
	JournalTypeTask JournalType = "task"
	// JournalTypeSystem records lifecycle and administrative facts.
	// System entries are exempt from the persistence policy.
	JournalTypeSystem JournalType = "system"
)

// String returns the string representation of the journal type
func (t JournalType) String() string {
	return string(t)
}

// IsValid checks if the journal type is valid
func (t JournalType) IsValid() bool {
	switch t {
	case JournalTypeChat, JournalTypeError, JournalTypeMedia, JournalTypeTask, JournalTypeSystem:
		return true
	default:
		return false
	}
}

// Severity represents the severity of a journal entry
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// String returns the string representation of the severity
func (s Severity) String() string {
	return string(s)
}

// IsValid checks if the severity is valid
func (s Severity) IsValid() bool {
	switch s {
	case SeverityInfo, SeverityWarn, SeverityError:
		return true
	default:
		return false
	}
}
