package journal_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/nagare/pkg/domain/model/journal"
	"github.com/m-mizutani/nagare/pkg/domain/types"
)

func TestNewEntry(t *testing.T) {
	ctx := context.Background()
	instanceID := types.NewInstanceID(ctx)
	workflowID := types.NewWorkflowID(ctx)

	t.Run("valid chat entry", func(t *testing.T) {
		entry, err := journal.NewEntry(ctx, instanceID, workflowID,
			types.JournalTypeChat, types.SeverityInfo,
			journal.Payload{Chat: &journal.ChatPayload{
				Role:    "assistant",
				Content: "hello",
			}})
		gt.NoError(t, err)
		gt.NotNil(t, entry)
		gt.Equal(t, instanceID, entry.InstanceID)
		gt.Equal(t, workflowID, entry.WorkflowID)
		gt.False(t, entry.Timestamp.IsZero())
		gt.True(t, entry.ID.IsValid())
	})

	t.Run("payload must match entry type", func(t *testing.T) {
		_, err := journal.NewEntry(ctx, instanceID, workflowID,
			types.JournalTypeChat, types.SeverityInfo,
			journal.Payload{Error: &journal.ErrorPayload{Message: "boom"}})
		gt.Error(t, err)
	})

	t.Run("exactly one payload variant", func(t *testing.T) {
		_, err := journal.NewEntry(ctx, instanceID, workflowID,
			types.JournalTypeChat, types.SeverityInfo,
			journal.Payload{
				Chat:  &journal.ChatPayload{Role: "user", Content: "hi"},
				Error: &journal.ErrorPayload{Message: "boom"},
			})
		gt.Error(t, err)

		_, err = journal.NewEntry(ctx, instanceID, workflowID,
			types.JournalTypeChat, types.SeverityInfo, journal.Payload{})
		gt.Error(t, err)
	})

	t.Run("missing instance ID", func(t *testing.T) {
		_, err := journal.NewEntry(ctx, "", workflowID,
			types.JournalTypeChat, types.SeverityInfo,
			journal.Payload{Chat: &journal.ChatPayload{Role: "user", Content: "hi"}})
		gt.Error(t, err)
	})

	t.Run("task payload requires valid status", func(t *testing.T) {
		_, err := journal.NewEntry(ctx, instanceID, workflowID,
			types.JournalTypeTask, types.SeverityInfo,
			journal.Payload{Task: &journal.TaskPayload{
				Name:   "index",
				Status: journal.TaskStatus("exploded"),
			}})
		gt.Error(t, err)
	})
}

func TestFilterNormalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		f := &journal.Filter{}
		gt.NoError(t, f.Normalize())
		gt.Equal(t, 1, f.Page)
		gt.Equal(t, journal.DefaultPageLimit, f.Limit)
	})

	t.Run("limit over maximum is rejected", func(t *testing.T) {
		f := &journal.Filter{Limit: journal.MaxPageLimit + 1}
		gt.Error(t, f.Normalize())
	})

	t.Run("limit at maximum passes", func(t *testing.T) {
		f := &journal.Filter{Limit: journal.MaxPageLimit}
		gt.NoError(t, f.Normalize())
	})

	t.Run("inverted date range is rejected", func(t *testing.T) {
		start := time.Now()
		end := start.Add(-time.Hour)
		f := &journal.Filter{StartDate: &start, EndDate: &end}
		gt.Error(t, f.Normalize())
	})

	t.Run("offset follows page and limit", func(t *testing.T) {
		f := &journal.Filter{Page: 3, Limit: 10}
		gt.NoError(t, f.Normalize())
		gt.Equal(t, 20, f.Offset())
	})
}

func TestFilterMatches(t *testing.T) {
	ctx := context.Background()
	instanceID := types.NewInstanceID(ctx)
	workflowID := types.NewWorkflowID(ctx)

	entry, err := journal.NewEntry(ctx, instanceID, workflowID,
		types.JournalTypeError, types.SeverityError,
		journal.Payload{Error: &journal.ErrorPayload{Message: "boom"}})
	gt.NoError(t, err)
	entry.WithSession("session-1")

	chat := types.JournalTypeChat
	errType := types.JournalTypeError
	warn := types.SeverityWarn
	sevErr := types.SeverityError
	session := types.SessionID("session-1")
	other := types.SessionID("session-2")
	before := entry.Timestamp.Add(-time.Minute)
	after := entry.Timestamp.Add(time.Minute)

	gt.True(t, (&journal.Filter{}).Matches(entry))
	gt.True(t, (&journal.Filter{Type: &errType}).Matches(entry))
	gt.False(t, (&journal.Filter{Type: &chat}).Matches(entry))
	gt.True(t, (&journal.Filter{Severity: &sevErr}).Matches(entry))
	gt.False(t, (&journal.Filter{Severity: &warn}).Matches(entry))
	gt.True(t, (&journal.Filter{SessionID: &session}).Matches(entry))
	gt.False(t, (&journal.Filter{SessionID: &other}).Matches(entry))
	gt.True(t, (&journal.Filter{StartDate: &before, EndDate: &after}).Matches(entry))
	gt.False(t, (&journal.Filter{StartDate: &after}).Matches(entry))
	gt.False(t, (&journal.Filter{EndDate: &before}).Matches(entry))
}

func TestPageCount(t *testing.T) {
	gt.Equal(t, 0, journal.PageCount(0, 20))
	gt.Equal(t, 1, journal.PageCount(1, 20))
	gt.Equal(t, 1, journal.PageCount(20, 20))
	gt.Equal(t, 2, journal.PageCount(21, 20))
	gt.Equal(t, 13, journal.PageCount(250, 20))
}
