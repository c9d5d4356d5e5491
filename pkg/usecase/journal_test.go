package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	memadapter "github.com/m-mizutani/nagare/pkg/adapters/memory"
	"github.com/m-mizutani/nagare/pkg/domain/interfaces"
	"github.com/m-mizutani/nagare/pkg/domain/model/instance"
	"github.com/m-mizutani/nagare/pkg/domain/model/journal"
	"github.com/m-mizutani/nagare/pkg/domain/model/workflow"
	"github.com/m-mizutani/nagare/pkg/domain/types"
	"github.com/m-mizutani/nagare/pkg/repository/database/memory"
	"github.com/m-mizutani/nagare/pkg/repository/storage"
	"github.com/m-mizutani/nagare/pkg/usecase"
	"github.com/m-mizutani/nagare/pkg/utils/async"
)

type testEnv struct {
	ctx    context.Context
	uc     *usecase.UseCases
	repo   *memory.Client
	userID types.UserID
	wf     *workflow.Workflow
}

// newTestEnv builds use cases over the in-memory backends. Sync mode makes
// the fire-and-forget side effects deterministic.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctx := async.WithSyncMode(context.Background())
	repo := memory.New()
	uc := usecase.New(
		usecase.WithRepository(repo),
		usecase.WithMediaStorage(storage.New(memadapter.New())),
	)

	userID := types.NewUserID(ctx)
	wf, err := uc.CreateWorkflow(ctx, userID, "pipeline")
	gt.NoError(t, err)

	return &testEnv{
		ctx:    ctx,
		uc:     uc,
		repo:   repo,
		userID: userID,
		wf:     wf,
	}
}

// createInstance creates an agent via the atomic flow with optional policy
// overrides
func (env *testEnv) createInstance(t *testing.T, patch *instance.PersistenceConfigPatch) *instance.AgentInstance {
	t.Helper()

	created, err := env.uc.CreateInstance(env.ctx, env.userID, &interfaces.CreateInstanceRequest{
		WorkflowID: env.wf.ID,
		Name:       "researcher",
		Model: instance.ModelConfig{
			Provider:    types.LLMProviderClaude,
			Model:       "claude-sonnet-4",
			Temperature: 0.7,
		},
		Persistence: patch,
	})
	gt.NoError(t, err)
	return created.Instance
}

func boolPtr(v bool) *bool { return &v }

func TestLogChat(t *testing.T) {
	t.Run("policy enabled persists and refreshes activity", func(t *testing.T) {
		env := newTestEnv(t)
		inst := env.createInstance(t, nil)
		before, err := env.repo.GetInstance(env.ctx, inst.ID)
		gt.NoError(t, err)

		result, err := env.uc.LogChat(env.ctx, &interfaces.LogChatRequest{
			InstanceID: inst.ID,
			SessionID:  "session-1",
			Role:       "assistant",
			Content:    "found 3 sources",
			Model:      "claude-sonnet-4",
			Tokens:     42,
		})
		gt.NoError(t, err)
		gt.True(t, result.Saved)
		gt.True(t, result.EntryID.IsValid())

		entry, err := env.repo.GetEntry(env.ctx, result.EntryID)
		gt.NoError(t, err)
		gt.Equal(t, types.JournalTypeChat, entry.Type)
		gt.Equal(t, types.SeverityInfo, entry.Severity)
		gt.Equal(t, types.SessionID("session-1"), entry.SessionID)
		gt.Equal(t, "found 3 sources", entry.Payload.Chat.Content)

		after, err := env.repo.GetInstance(env.ctx, inst.ID)
		gt.NoError(t, err)
		gt.False(t, after.State.LastActivity.Before(before.State.LastActivity))
	})

	t.Run("policy disabled is a successful no-op", func(t *testing.T) {
		env := newTestEnv(t)
		inst := env.createInstance(t, &instance.PersistenceConfigPatch{
			SaveChatHistory: boolPtr(false),
		})

		result, err := env.uc.LogChat(env.ctx, &interfaces.LogChatRequest{
			InstanceID: inst.ID,
			Role:       "assistant",
			Content:    "not recorded",
		})
		gt.NoError(t, err)
		gt.False(t, result.Saved)
		gt.NotEqual(t, "", result.Reason)

		// Only the creation entry exists
		count, err := env.repo.CountEntriesByInstance(env.ctx, inst.ID)
		gt.NoError(t, err)
		gt.Equal(t, 1, count)
	})

	t.Run("severity override", func(t *testing.T) {
		env := newTestEnv(t)
		inst := env.createInstance(t, nil)

		warn := types.SeverityWarn
		result, err := env.uc.LogChat(env.ctx, &interfaces.LogChatRequest{
			InstanceID: inst.ID,
			Role:       "assistant",
			Content:    "context window near limit",
			Severity:   &warn,
		})
		gt.NoError(t, err)

		entry, err := env.repo.GetEntry(env.ctx, result.EntryID)
		gt.NoError(t, err)
		gt.Equal(t, types.SeverityWarn, entry.Severity)
	})

	t.Run("unknown instance fails", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.uc.LogChat(env.ctx, &interfaces.LogChatRequest{
			InstanceID: types.NewInstanceID(env.ctx),
			Role:       "assistant",
			Content:    "orphan",
		})
		gt.Error(t, err)
		gt.True(t, errors.Is(err, instance.ErrInstanceNotFound))
	})
}

func TestLogError(t *testing.T) {
	t.Run("defaults to error severity", func(t *testing.T) {
		env := newTestEnv(t)
		inst := env.createInstance(t, nil)

		result, err := env.uc.LogError(env.ctx, &interfaces.LogErrorRequest{
			InstanceID:  inst.ID,
			Code:        "tool_timeout",
			Message:     "search tool timed out",
			Recoverable: true,
			Attempts:    2,
		})
		gt.NoError(t, err)
		gt.True(t, result.Saved)

		entry, err := env.repo.GetEntry(env.ctx, result.EntryID)
		gt.NoError(t, err)
		gt.Equal(t, types.SeverityError, entry.Severity)
		gt.True(t, entry.Payload.Error.Recoverable)
	})

	t.Run("recoverable error keeps status", func(t *testing.T) {
		env := newTestEnv(t)
		inst := env.createInstance(t, nil)
		_, err := env.repo.TransitionStatus(env.ctx, inst.ID, instance.StatusRunning)
		gt.NoError(t, err)

		_, err = env.uc.LogError(env.ctx, &interfaces.LogErrorRequest{
			InstanceID:  inst.ID,
			Message:     "transient failure",
			Recoverable: true,
		})
		gt.NoError(t, err)

		got, err := env.repo.GetInstance(env.ctx, inst.ID)
		gt.NoError(t, err)
		gt.Equal(t, instance.StatusRunning, got.Status)
	})

	t.Run("non-recoverable error escalates status", func(t *testing.T) {
		env := newTestEnv(t)
		inst := env.createInstance(t, nil)
		_, err := env.repo.TransitionStatus(env.ctx, inst.ID, instance.StatusRunning)
		gt.NoError(t, err)

		result, err := env.uc.LogError(env.ctx, &interfaces.LogErrorRequest{
			InstanceID:  inst.ID,
			Code:        "model_unavailable",
			Message:     "provider rejected all retries",
			Recoverable: false,
			Attempts:    5,
		})
		gt.NoError(t, err)
		gt.True(t, result.Saved)

		got, err := env.repo.GetInstance(env.ctx, inst.ID)
		gt.NoError(t, err)
		gt.Equal(t, instance.StatusError, got.Status)
	})

	t.Run("escalation failure does not fail the write", func(t *testing.T) {
		env := newTestEnv(t)
		inst := env.createInstance(t, nil)
		// idle -> error is not a legal transition; the entry still lands

		result, err := env.uc.LogError(env.ctx, &interfaces.LogErrorRequest{
			InstanceID:  inst.ID,
			Message:     "failed before start",
			Recoverable: false,
		})
		gt.NoError(t, err)
		gt.True(t, result.Saved)

		got, err := env.repo.GetInstance(env.ctx, inst.ID)
		gt.NoError(t, err)
		gt.Equal(t, instance.StatusIdle, got.Status)
	})
}

func TestLogTask(t *testing.T) {
	env := newTestEnv(t)
	inst := env.createInstance(t, nil)

	cases := []struct {
		status   journal.TaskStatus
		severity types.Severity
	}{
		{journal.TaskStatusPending, types.SeverityInfo},
		{journal.TaskStatusRunning, types.SeverityInfo},
		{journal.TaskStatusCompleted, types.SeverityInfo},
		{journal.TaskStatusFailed, types.SeverityError},
		{journal.TaskStatusCancelled, types.SeverityWarn},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			result, err := env.uc.LogTask(env.ctx, &interfaces.LogTaskRequest{
				InstanceID: inst.ID,
				Name:       "summarize",
				Status:     tc.status,
			})
			gt.NoError(t, err)
			gt.True(t, result.Saved)

			entry, err := env.repo.GetEntry(env.ctx, result.EntryID)
			gt.NoError(t, err)
			gt.Equal(t, tc.severity, entry.Severity)
		})
	}

	t.Run("current task label follows the step", func(t *testing.T) {
		got, err := env.repo.GetInstance(env.ctx, inst.ID)
		gt.NoError(t, err)
		gt.Equal(t, "summarize", got.State.CurrentTask)
	})

	t.Run("policy disabled skips", func(t *testing.T) {
		quiet := env.createInstance(t, &instance.PersistenceConfigPatch{
			SaveTaskExecution: boolPtr(false),
		})
		result, err := env.uc.LogTask(env.ctx, &interfaces.LogTaskRequest{
			InstanceID: quiet.ID,
			Name:       "summarize",
			Status:     journal.TaskStatusCompleted,
		})
		gt.NoError(t, err)
		gt.False(t, result.Saved)
	})
}

func TestLogMedia(t *testing.T) {
	t.Run("disabled by default", func(t *testing.T) {
		env := newTestEnv(t)
		inst := env.createInstance(t, nil)

		result, err := env.uc.LogMedia(env.ctx, &interfaces.LogMediaRequest{
			InstanceID: inst.ID,
			Data:       []byte("png-bytes"),
			MimeType:   "image/png",
		})
		gt.NoError(t, err)
		gt.False(t, result.Saved)
	})

	t.Run("enabled policy stores bytes and records entry", func(t *testing.T) {
		env := newTestEnv(t)
		inst := env.createInstance(t, &instance.PersistenceConfigPatch{
			SaveMedia: boolPtr(true),
		})

		result, err := env.uc.LogMedia(env.ctx, &interfaces.LogMediaRequest{
			InstanceID: inst.ID,
			Data:       []byte("png-bytes"),
			MimeType:   "image/png",
			Generation: map[string]string{"prompt": "a river"},
		})
		gt.NoError(t, err)
		gt.True(t, result.Saved)

		entry, err := env.repo.GetEntry(env.ctx, result.EntryID)
		gt.NoError(t, err)
		gt.Equal(t, "image/png", entry.Payload.Media.MimeType)
		gt.Equal(t, int64(len("png-bytes")), entry.Payload.Media.Size)
		gt.NotEqual(t, "", entry.Payload.Media.Location)
		gt.Equal(t, "a river", entry.Payload.Media.Generation["prompt"])
	})
}

func TestLogSystem(t *testing.T) {
	env := newTestEnv(t)
	// All category flags off: system entries must still land
	inst := env.createInstance(t, &instance.PersistenceConfigPatch{
		SaveChatHistory:   boolPtr(false),
		SaveErrors:        boolPtr(false),
		SaveTaskExecution: boolPtr(false),
		SaveMedia:         boolPtr(false),
	})

	result, err := env.uc.LogSystem(env.ctx, &interfaces.LogSystemRequest{
		InstanceID:  inst.ID,
		Event:       "maintenance",
		Details:     map[string]string{"window": "5m"},
		TriggeredBy: env.userID.String(),
	})
	gt.NoError(t, err)
	gt.True(t, result.Saved)

	entry, err := env.repo.GetEntry(env.ctx, result.EntryID)
	gt.NoError(t, err)
	gt.Equal(t, types.JournalTypeSystem, entry.Type)
	gt.Equal(t, "maintenance", entry.Payload.System.Event)
}

func TestListJournals(t *testing.T) {
	env := newTestEnv(t)
	inst := env.createInstance(t, nil)

	for i := 0; i < 3; i++ {
		_, err := env.uc.LogChat(env.ctx, &interfaces.LogChatRequest{
			InstanceID: inst.ID,
			Role:       "assistant",
			Content:    "chunk",
		})
		gt.NoError(t, err)
	}

	t.Run("owner reads the timeline", func(t *testing.T) {
		chat := types.JournalTypeChat
		page, err := env.uc.ListJournals(env.ctx, env.userID, inst.ID, &journal.Filter{Type: &chat})
		gt.NoError(t, err)
		gt.Equal(t, 3, page.Total)
	})

	t.Run("foreign user sees not found", func(t *testing.T) {
		stranger := types.NewUserID(env.ctx)
		_, err := env.uc.ListJournals(env.ctx, stranger, inst.ID, nil)
		gt.Error(t, err)
		gt.True(t, errors.Is(err, instance.ErrInstanceNotFound))
	})
}
