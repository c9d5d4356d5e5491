package interfaces

import (
	"context"
	"errors"

	"github.com/m-mizutani/nagare/pkg/domain/model/instance"
	"github.com/m-mizutani/nagare/pkg/domain/model/journal"
	"github.com/m-mizutani/nagare/pkg/domain/types"
)

var (
	// Storage errors
	ErrStorageKeyNotFound = errors.New("storage key not found")
	ErrInvalidStorageKey  = errors.New("invalid storage key")
)

// StorageAdapter provides abstraction for storing and retrieving raw data
type StorageAdapter interface {
	// Put stores data with the given key
	Put(ctx context.Context, key string, data []byte) error

	// Get retrieves data by the given key
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes data by the given key. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key string) error

	// List returns all keys under the given prefix
	List(ctx context.Context, prefix string) ([]string, error)
}

// MediaRef identifies the owner of media objects in storage
type MediaRef struct {
	UserID     types.UserID
	WorkflowID types.WorkflowID
	InstanceID types.InstanceID
}

// MediaMetadata describes one media artifact being saved
type MediaMetadata struct {
	MimeType   string
	Mode       instance.StorageMode
	Generation map[string]string
}

// MediaStorage is the narrow collaborator interface to the large-binary
// media subsystem
type MediaStorage interface {
	// Save persists one media artifact and returns the journal payload
	// describing it
	Save(ctx context.Context, ref MediaRef, data []byte, meta *MediaMetadata) (*journal.MediaPayload, error)

	// Load retrieves a media artifact by its payload location
	Load(ctx context.Context, location string) ([]byte, error)

	// DeleteAll removes every media object of one instance and returns the
	// number of deleted objects. Idempotent.
	DeleteAll(ctx context.Context, ref MediaRef) (int, error)
}
