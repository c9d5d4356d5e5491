package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/domain/model/journal"
	"github.com/m-mizutani/nagare/pkg/domain/types"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// PutEntry appends one journal entry. Create is used instead of Set so an
// existing entry is never overwritten.
func (c *Client) PutEntry(ctx context.Context, entry *journal.JournalEntry) error {
	if err := entry.Validate(); err != nil {
		return goerr.Wrap(err, "invalid journal entry", goerr.V("entry_id", entry.ID))
	}

	// Per-writer monotonic tie-break for identical timestamps
	entry.Seq = time.Now().UnixNano()

	_, err := c.client.Collection(collectionJournals).Doc(entry.ID.String()).Create(ctx, entry)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return goerr.Wrap(journal.ErrEntryExists, "entry already exists",
				goerr.V("entry_id", entry.ID))
		}
		return goerr.Wrap(err, "failed to put journal entry",
			goerr.V("entry_id", entry.ID),
			goerr.V("instance_id", entry.InstanceID),
			goerr.V("repository", "firestore"))
	}

	return nil
}

// GetEntry retrieves a journal entry by ID
func (c *Client) GetEntry(ctx context.Context, id types.EntryID) (*journal.JournalEntry, error) {
	doc, err := c.client.Collection(collectionJournals).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(journal.ErrEntryNotFound, "entry not found",
				goerr.V("entry_id", id),
				goerr.V("repository", "firestore"))
		}
		return nil, goerr.Wrap(err, "failed to get journal entry",
			goerr.V("entry_id", id),
			goerr.V("repository", "firestore"))
	}

	var e journal.JournalEntry
	if err := doc.DataTo(&e); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal journal entry",
			goerr.V("entry_id", id),
			goerr.V("repository", "firestore"))
	}

	return &e, nil
}

// buildTimelineQuery applies the filter restrictions shared between the
// count and the page fetch
func (c *Client) buildTimelineQuery(instanceID types.InstanceID, filter *journal.Filter) firestore.Query {
	query := c.client.Collection(collectionJournals).
		Where("InstanceID", "==", instanceID.String())

	if filter.Type != nil {
		query = query.Where("Type", "==", filter.Type.String())
	}
	if filter.Severity != nil {
		query = query.Where("Severity", "==", filter.Severity.String())
	}
	if filter.SessionID != nil {
		query = query.Where("SessionID", "==", filter.SessionID.String())
	}
	if filter.StartDate != nil {
		query = query.Where("Timestamp", ">=", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("Timestamp", "<=", *filter.EndDate)
	}

	return query
}

// ListEntriesByInstance retrieves one page of an instance timeline, newest
// first. The total count and the page fetch run concurrently to bound
// latency.
func (c *Client) ListEntriesByInstance(ctx context.Context, instanceID types.InstanceID, filter *journal.Filter) (*journal.Page, error) {
	if filter == nil {
		filter = &journal.Filter{}
	}
	if err := filter.Normalize(); err != nil {
		return nil, err
	}

	base := c.buildTimelineQuery(instanceID, filter)

	var (
		total   int
		entries []*journal.JournalEntry
	)

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		docs, err := base.Documents(egCtx).GetAll()
		if err != nil {
			return goerr.Wrap(err, "failed to count journal entries",
				goerr.V("instance_id", instanceID),
				goerr.V("repository", "firestore"))
		}
		total = len(docs)
		return nil
	})

	eg.Go(func() error {
		query := base.
			OrderBy("Timestamp", firestore.Desc).
			OrderBy("Seq", firestore.Desc).
			Offset(filter.Offset()).
			Limit(filter.Limit)

		iter := query.Documents(egCtx)
		defer iter.Stop()

		for {
			doc, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				return goerr.Wrap(err, "failed to iterate journal entries",
					goerr.V("instance_id", instanceID),
					goerr.V("repository", "firestore"))
			}

			var e journal.JournalEntry
			if err := doc.DataTo(&e); err != nil {
				return goerr.Wrap(err, "failed to unmarshal journal entry",
					goerr.V("entry_id", doc.Ref.ID),
					goerr.V("repository", "firestore"))
			}
			entries = append(entries, &e)
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if entries == nil {
		entries = []*journal.JournalEntry{}
	}

	return &journal.Page{
		Entries: entries,
		Total:   total,
		Pages:   journal.PageCount(total, filter.Limit),
	}, nil
}

// CountEntriesByInstance returns the number of entries for an instance
func (c *Client) CountEntriesByInstance(ctx context.Context, instanceID types.InstanceID) (int, error) {
	docs, err := c.client.Collection(collectionJournals).
		Where("InstanceID", "==", instanceID.String()).
		Documents(ctx).GetAll()
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count journal entries",
			goerr.V("instance_id", instanceID),
			goerr.V("repository", "firestore"))
	}
	return len(docs), nil
}

// CountEntriesByWorkflow returns the number of entries across a workflow
func (c *Client) CountEntriesByWorkflow(ctx context.Context, workflowID types.WorkflowID) (int, error) {
	docs, err := c.client.Collection(collectionJournals).
		Where("WorkflowID", "==", workflowID.String()).
		Documents(ctx).GetAll()
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count journal entries",
			goerr.V("workflow_id", workflowID),
			goerr.V("repository", "firestore"))
	}
	return len(docs), nil
}
