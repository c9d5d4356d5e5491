package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/domain/interfaces"
	"github.com/m-mizutani/nagare/pkg/domain/model/instance"
	"github.com/m-mizutani/nagare/pkg/domain/model/journal"
	"github.com/m-mizutani/nagare/pkg/domain/types"
	"github.com/m-mizutani/nagare/pkg/utils/async"
)

// persistEntry appends the entry and schedules the fire-and-forget activity
// refresh. currentTask updates the instance's task label when non-nil.
func (uc *UseCases) persistEntry(ctx context.Context, entry *journal.JournalEntry, currentTask *string) (*interfaces.LogResult, error) {
	if err := uc.repo.PutEntry(ctx, entry); err != nil {
		return nil, goerr.Wrap(err, "failed to persist journal entry",
			goerr.V("entry_id", entry.ID),
			goerr.V("instance_id", entry.InstanceID))
	}

	instanceID := entry.InstanceID
	async.Dispatch(ctx, func(ctx context.Context) error {
		return uc.repo.RefreshActivity(ctx, instanceID, time.Now(), currentTask)
	})

	return &interfaces.LogResult{
		Saved:   true,
		EntryID: entry.ID,
	}, nil
}

// skipResult is the successful no-op outcome of a policy-disabled write
func skipResult(entryType types.JournalType) *interfaces.LogResult {
	return &interfaces.LogResult{
		Saved:  false,
		Reason: fmt.Sprintf("persistence policy disables %s entries", entryType),
	}
}

func severityOr(override *types.Severity, fallback types.Severity) types.Severity {
	if override != nil {
		return *override
	}
	return fallback
}

// LogChat records one chat exchange, subject to the SaveChatHistory policy
func (uc *UseCases) LogChat(ctx context.Context, req *interfaces.LogChatRequest) (*interfaces.LogResult, error) {
	inst, err := uc.repo.GetInstance(ctx, req.InstanceID)
	if err != nil {
		return nil, err
	}

	if !inst.Persistence.ShouldPersist(types.JournalTypeChat) {
		return skipResult(types.JournalTypeChat), nil
	}

	entry, err := journal.NewEntry(ctx, inst.ID, inst.WorkflowID, types.JournalTypeChat,
		severityOr(req.Severity, types.SeverityInfo),
		journal.Payload{Chat: &journal.ChatPayload{
			Role:      req.Role,
			Content:   req.Content,
			Model:     req.Model,
			Tokens:    req.Tokens,
			ToolCalls: req.ToolCalls,
		}})
	if err != nil {
		return nil, err
	}
	entry.WithSession(req.SessionID)

	return uc.persistEntry(ctx, entry, nil)
}

// LogError records an execution failure, subject to the SaveErrors policy.
// A non-recoverable error additionally escalates the instance status to
// error; the escalation is best effort and never fails the write.
func (uc *UseCases) LogError(ctx context.Context, req *interfaces.LogErrorRequest) (*interfaces.LogResult, error) {
	inst, err := uc.repo.GetInstance(ctx, req.InstanceID)
	if err != nil {
		return nil, err
	}

	if !inst.Persistence.ShouldPersist(types.JournalTypeError) {
		return skipResult(types.JournalTypeError), nil
	}

	entry, err := journal.NewEntry(ctx, inst.ID, inst.WorkflowID, types.JournalTypeError,
		severityOr(req.Severity, types.SeverityError),
		journal.Payload{Error: &journal.ErrorPayload{
			Code:        req.Code,
			Message:     req.Message,
			Source:      req.Source,
			Recoverable: req.Recoverable,
			Attempts:    req.Attempts,
		}})
	if err != nil {
		return nil, err
	}
	entry.WithSession(req.SessionID)

	result, err := uc.persistEntry(ctx, entry, nil)
	if err != nil {
		return nil, err
	}

	if !req.Recoverable {
		instanceID := req.InstanceID
		async.Dispatch(ctx, func(ctx context.Context) error {
			if _, err := uc.repo.TransitionStatus(ctx, instanceID, instance.StatusError); err != nil {
				// The instance may already be in a terminal state; the
				// journal entry is the source of truth either way.
				ctxlog.From(ctx).Warn("failed to escalate instance status",
					"instance_id", instanceID,
					"error", err)
			}
			return nil
		})
	}

	return result, nil
}

// LogMedia stores a media artifact and records it, subject to the SaveMedia
// policy. The policy is checked before any bytes touch the storage.
func (uc *UseCases) LogMedia(ctx context.Context, req *interfaces.LogMediaRequest) (*interfaces.LogResult, error) {
	inst, err := uc.repo.GetInstance(ctx, req.InstanceID)
	if err != nil {
		return nil, err
	}

	if !inst.Persistence.ShouldPersist(types.JournalTypeMedia) {
		return skipResult(types.JournalTypeMedia), nil
	}

	if uc.mediaStorage == nil {
		return nil, goerr.New("media storage is not configured",
			goerr.V("instance_id", req.InstanceID))
	}

	payload, err := uc.mediaStorage.Save(ctx, interfaces.MediaRef{
		UserID:     inst.UserID,
		WorkflowID: inst.WorkflowID,
		InstanceID: inst.ID,
	}, req.Data, &interfaces.MediaMetadata{
		MimeType:   req.MimeType,
		Mode:       inst.Persistence.StorageMode,
		Generation: req.Generation,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to store media artifact",
			goerr.V("instance_id", req.InstanceID))
	}

	entry, err := journal.NewEntry(ctx, inst.ID, inst.WorkflowID, types.JournalTypeMedia,
		severityOr(req.Severity, types.SeverityInfo),
		journal.Payload{Media: payload})
	if err != nil {
		return nil, err
	}
	entry.WithSession(req.SessionID)

	return uc.persistEntry(ctx, entry, nil)
}

// taskSeverity derives the default severity from the task outcome
func taskSeverity(status journal.TaskStatus) types.Severity {
	switch status {
	case journal.TaskStatusFailed:
		return types.SeverityError
	case journal.TaskStatusCancelled:
		return types.SeverityWarn
	default:
		return types.SeverityInfo
	}
}

// LogTask records a task execution step, subject to the SaveTaskExecution
// policy. The instance's current task label follows the recorded step.
func (uc *UseCases) LogTask(ctx context.Context, req *interfaces.LogTaskRequest) (*interfaces.LogResult, error) {
	inst, err := uc.repo.GetInstance(ctx, req.InstanceID)
	if err != nil {
		return nil, err
	}

	if !inst.Persistence.ShouldPersist(types.JournalTypeTask) {
		return skipResult(types.JournalTypeTask), nil
	}

	entry, err := journal.NewEntry(ctx, inst.ID, inst.WorkflowID, types.JournalTypeTask,
		severityOr(req.Severity, taskSeverity(req.Status)),
		journal.Payload{Task: &journal.TaskPayload{
			Name:       req.Name,
			Status:     req.Status,
			Step:       req.Step,
			DurationMS: req.Duration.Milliseconds(),
		}})
	if err != nil {
		return nil, err
	}
	entry.WithSession(req.SessionID)

	currentTask := req.Name
	return uc.persistEntry(ctx, entry, &currentTask)
}

// LogSystem records a lifecycle fact. System entries bypass the persistence
// policy entirely.
func (uc *UseCases) LogSystem(ctx context.Context, req *interfaces.LogSystemRequest) (*interfaces.LogResult, error) {
	inst, err := uc.repo.GetInstance(ctx, req.InstanceID)
	if err != nil {
		return nil, err
	}

	entry, err := journal.NewEntry(ctx, inst.ID, inst.WorkflowID, types.JournalTypeSystem,
		types.SeverityInfo,
		journal.Payload{System: &journal.SystemPayload{
			Event:       req.Event,
			Details:     req.Details,
			TriggeredBy: req.TriggeredBy,
		}})
	if err != nil {
		return nil, err
	}

	return uc.persistEntry(ctx, entry, nil)
}

// ListJournals retrieves one page of an instance timeline after verifying
// ownership. A foreign instance is indistinguishable from a missing one.
func (uc *UseCases) ListJournals(ctx context.Context, userID types.UserID, instanceID types.InstanceID, filter *journal.Filter) (*journal.Page, error) {
	inst, err := uc.repo.GetInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.UserID != userID {
		return nil, goerr.Wrap(instance.ErrInstanceNotFound, "instance not found",
			goerr.V("instance_id", instanceID))
	}

	return uc.repo.ListEntriesByInstance(ctx, instanceID, filter)
}
