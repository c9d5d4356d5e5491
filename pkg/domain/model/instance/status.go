package instance

import "github.com/m-mizutani/goerr/v2"

// Status represents the lifecycle status of an agent instance
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusError     Status = "error"
	StatusCompleted Status = "completed"
)

// statusTransitions is the allowed transition table. Any transition not
// listed here is rejected and leaves the instance unchanged.
var statusTransitions = map[Status][]Status{
	StatusIdle:      {StatusRunning, StatusPaused},
	StatusRunning:   {StatusIdle, StatusPaused, StatusError, StatusCompleted},
	StatusPaused:    {StatusRunning, StatusIdle},
	StatusError:     {StatusIdle, StatusRunning},
	StatusCompleted: {StatusIdle},
}

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo reports whether the transition s -> next is allowed
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidTransition if s -> next is not allowed
func ValidateTransition(s, next Status) error {
	if !next.IsValid() {
		return goerr.Wrap(ErrInvalidStatus, "unknown status", goerr.V("status", next))
	}
	if !s.CanTransitionTo(next) {
		return goerr.Wrap(ErrInvalidTransition, "status transition not allowed",
			goerr.V("from", s),
			goerr.V("to", next))
	}
	return nil
}
