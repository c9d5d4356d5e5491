package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/m-mizutani/nagare/pkg/domain/interfaces"
)

// Client provides in-memory storage implementation for tests and local runs
type Client struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates a new memory storage client
func New() *Client {
	return &Client{
		data: make(map[string][]byte),
	}
}

// Put stores data with the given key
func (c *Client) Put(ctx context.Context, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Create a copy to avoid external modifications
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	c.data[key] = dataCopy

	return nil
}

// Get retrieves data by the given key
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, exists := c.data[key]
	if !exists {
		return nil, interfaces.ErrStorageKeyNotFound
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	return dataCopy, nil
}

// Delete removes data by the given key. Missing keys are ignored.
func (c *Client) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
	return nil
}

// List returns all keys under the given prefix, sorted
func (c *Client) List(ctx context.Context, prefix string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var keys []string
	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Ensure Client implements StorageAdapter interface
var _ interfaces.StorageAdapter = (*Client)(nil)
