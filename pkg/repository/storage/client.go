package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/domain/interfaces"
	"github.com/m-mizutani/nagare/pkg/domain/model/instance"
	"github.com/m-mizutani/nagare/pkg/domain/model/journal"
	"github.com/m-mizutani/nagare/pkg/domain/types"
)

const metaSuffix = ".meta.json"

// Client persists media artifacts through a StorageAdapter. Each artifact
// is stored as the raw object plus a JSON metadata sidecar.
type Client struct {
	adapter interfaces.StorageAdapter
}

// New creates a new media storage client
func New(adapter interfaces.StorageAdapter) *Client {
	return &Client{
		adapter: adapter,
	}
}

// storedMeta is the metadata sidecar layout
type storedMeta struct {
	MimeType   string            `json:"mime_type"`
	Size       int64             `json:"size"`
	Generation map[string]string `json:"generation,omitempty"`
}

// Save persists one media artifact and returns its journal payload
func (c *Client) Save(ctx context.Context, ref interfaces.MediaRef, data []byte, meta *interfaces.MediaMetadata) (*journal.MediaPayload, error) {
	if meta == nil {
		return nil, goerr.New("media metadata is required")
	}
	if meta.MimeType == "" {
		return nil, goerr.New("media mime type is required")
	}

	mode := meta.Mode
	if mode == "" {
		mode = instance.StorageModeExternal
	}

	key := c.buildMediaKey(ref, string(types.NewEntryID(ctx)))

	if err := c.adapter.Put(ctx, key, data); err != nil {
		return nil, goerr.Wrap(err, "failed to save media object",
			goerr.V("instance_id", ref.InstanceID),
			goerr.V("key", key),
		)
	}

	metaData, err := json.Marshal(&storedMeta{
		MimeType:   meta.MimeType,
		Size:       int64(len(data)),
		Generation: meta.Generation,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal media metadata", goerr.V("key", key))
	}
	if err := c.adapter.Put(ctx, key+metaSuffix, metaData); err != nil {
		return nil, goerr.Wrap(err, "failed to save media metadata",
			goerr.V("instance_id", ref.InstanceID),
			goerr.V("key", key),
		)
	}

	return &journal.MediaPayload{
		MimeType:    meta.MimeType,
		Size:        int64(len(data)),
		StorageMode: mode,
		Location:    key,
		Generation:  meta.Generation,
	}, nil
}

// Load retrieves a media artifact by its payload location
func (c *Client) Load(ctx context.Context, location string) ([]byte, error) {
	data, err := c.adapter.Get(ctx, location)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load media object", goerr.V("location", location))
	}
	return data, nil
}

// DeleteAll removes every media object of one instance and returns the
// number of deleted artifacts (metadata sidecars excluded from the count).
// Missing objects are skipped, so repeated calls are safe.
func (c *Client) DeleteAll(ctx context.Context, ref interfaces.MediaRef) (int, error) {
	prefix := c.buildInstancePrefix(ref)

	keys, err := c.adapter.List(ctx, prefix)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list media objects",
			goerr.V("instance_id", ref.InstanceID),
			goerr.V("prefix", prefix),
		)
	}

	var count int
	for _, key := range keys {
		if err := c.adapter.Delete(ctx, key); err != nil {
			return count, goerr.Wrap(err, "failed to delete media object",
				goerr.V("instance_id", ref.InstanceID),
				goerr.V("key", key),
			)
		}
		if !strings.HasSuffix(key, metaSuffix) {
			count++
		}
	}

	return count, nil
}

// buildInstancePrefix constructs the storage prefix of one instance's media
func (c *Client) buildInstancePrefix(ref interfaces.MediaRef) string {
	return fmt.Sprintf("media/%s/%s/%s/", ref.UserID, ref.WorkflowID, ref.InstanceID)
}

// buildMediaKey constructs the storage key of one media artifact
func (c *Client) buildMediaKey(ref interfaces.MediaRef, mediaID string) string {
	return c.buildInstancePrefix(ref) + mediaID
}

// Ensure Client implements MediaStorage interface
var _ interfaces.MediaStorage = (*Client)(nil)
