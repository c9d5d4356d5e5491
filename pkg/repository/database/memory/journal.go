package memory

import (
	"context"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/domain/model/journal"
	"github.com/m-mizutani/nagare/pkg/domain/types"
)

// PutEntry appends one journal entry. Existing entries are never
// overwritten.
func (c *Client) PutEntry(ctx context.Context, entry *journal.JournalEntry) error {
	if err := entry.Validate(); err != nil {
		return goerr.Wrap(err, "invalid journal entry", goerr.V("entry_id", entry.ID))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.journals[entry.ID]; ok {
		return goerr.Wrap(journal.ErrEntryExists, "entry already exists",
			goerr.V("entry_id", entry.ID))
	}

	// Per-writer monotonic tie-break for identical timestamps
	c.seq++
	entry.Seq = c.seq

	c.journals[entry.ID] = cloneEntry(entry)
	return nil
}

// GetEntry retrieves a journal entry by ID
func (c *Client) GetEntry(ctx context.Context, id types.EntryID) (*journal.JournalEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.journals[id]
	if !ok {
		return nil, goerr.Wrap(journal.ErrEntryNotFound, "entry not found",
			goerr.V("entry_id", id))
	}

	return cloneEntry(entry), nil
}

// ListEntriesByInstance retrieves one page of an instance timeline, newest
// first. Entries sharing a timestamp are ranked by their sequence number.
func (c *Client) ListEntriesByInstance(ctx context.Context, instanceID types.InstanceID, filter *journal.Filter) (*journal.Page, error) {
	if filter == nil {
		filter = &journal.Filter{}
	}
	if err := filter.Normalize(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var matched []*journal.JournalEntry
	for _, entry := range c.journals {
		if entry.InstanceID != instanceID {
			continue
		}
		if !filter.Matches(entry) {
			continue
		}
		matched = append(matched, entry)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		}
		return matched[i].Seq > matched[j].Seq
	})

	total := len(matched)
	offset := filter.Offset()

	entries := []*journal.JournalEntry{}
	if offset < total {
		end := offset + filter.Limit
		if end > total {
			end = total
		}
		for _, entry := range matched[offset:end] {
			entries = append(entries, cloneEntry(entry))
		}
	}

	return &journal.Page{
		Entries: entries,
		Total:   total,
		Pages:   journal.PageCount(total, filter.Limit),
	}, nil
}

// CountEntriesByInstance returns the number of entries for an instance
func (c *Client) CountEntriesByInstance(ctx context.Context, instanceID types.InstanceID) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var count int
	for _, entry := range c.journals {
		if entry.InstanceID == instanceID {
			count++
		}
	}
	return count, nil
}

// CountEntriesByWorkflow returns the number of entries across a workflow
func (c *Client) CountEntriesByWorkflow(ctx context.Context, workflowID types.WorkflowID) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var count int
	for _, entry := range c.journals {
		if entry.WorkflowID == workflowID {
			count++
		}
	}
	return count, nil
}
