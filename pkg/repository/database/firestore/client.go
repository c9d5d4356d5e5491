package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/domain/interfaces"
)

const (
	// Collection names
	collectionWorkflows  = "workflows"
	collectionInstances  = "instances"
	collectionJournals   = "journals"
	collectionNodes      = "nodes"
	collectionEdges      = "edges"
	collectionMediaGC    = "media_gc"
)

// Required composite indexes for the journals collection:
//   (InstanceID asc, Timestamp desc)           - timeline reads
//   (InstanceID asc, Type asc, Timestamp desc) - filtered timelines
//   (WorkflowID asc)                           - cascade cleanup
//   (Severity asc, Timestamp desc) sparse      - monitoring
//   (SessionID asc, Timestamp asc) sparse      - session grouping

// Client is a Firestore implementation of the Repository interface
type Client struct {
	client     *firestore.Client
	projectID  string
	databaseID string
}

// New creates a new Firestore client using Application Default Credentials
func New(ctx context.Context, projectID, databaseID string) (*Client, error) {
	if projectID == "" {
		return nil, goerr.New("project ID is required")
	}
	if databaseID == "" {
		databaseID = "(default)"
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID))
	}

	return &Client{
		client:     client,
		projectID:  projectID,
		databaseID: databaseID,
	}, nil
}

// Close closes the Firestore client
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Ensure Client implements Repository interface
var _ interfaces.Repository = (*Client)(nil)
