package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/domain/interfaces"
)

// Client provides filesystem storage implementation
type Client struct {
	baseDir     string
	permissions os.FileMode
	mu          sync.RWMutex
}

// Option is a functional option for Client
type Option func(*Client)

// WithPermissions sets the directory permissions for created paths
func WithPermissions(perm os.FileMode) Option {
	return func(c *Client) {
		c.permissions = perm
	}
}

// New creates a new filesystem storage client rooted at baseDir
func New(baseDir string, opts ...Option) (*Client, error) {
	if baseDir == "" {
		return nil, goerr.New("base directory is required")
	}

	absPath, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid base directory", goerr.V("dir", baseDir))
	}

	c := &Client{
		baseDir:     absPath,
		permissions: 0755,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := os.MkdirAll(c.baseDir, c.permissions); err != nil {
		return nil, goerr.Wrap(err, "failed to create base directory", goerr.V("dir", c.baseDir))
	}

	return c, nil
}

// Put stores data with the given key
func (c *Client) Put(ctx context.Context, key string, data []byte) error {
	if err := c.validateKey(key); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	filePath := c.filePath(key)
	if err := os.MkdirAll(filepath.Dir(filePath), c.permissions); err != nil {
		return goerr.Wrap(err, "failed to create directory", goerr.V("key", key))
	}

	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return goerr.Wrap(err, "failed to write file", goerr.V("key", key))
	}

	return nil
}

// Get retrieves data by the given key
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if err := c.validateKey(key); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	// #nosec G304 - path is validated by validateKey to prevent traversal
	data, err := os.ReadFile(c.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, interfaces.ErrStorageKeyNotFound
		}
		return nil, goerr.Wrap(err, "failed to read file", goerr.V("key", key))
	}

	return data, nil
}

// Delete removes data by the given key. Missing keys are ignored.
func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.validateKey(key); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.filePath(key)); err != nil && !os.IsNotExist(err) {
		return goerr.Wrap(err, "failed to remove file", goerr.V("key", key))
	}

	return nil
}

// List returns all keys under the given prefix
func (c *Client) List(ctx context.Context, prefix string) ([]string, error) {
	if prefix != "" {
		if err := c.validateKey(prefix); err != nil {
			return nil, err
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var keys []string
	err := filepath.Walk(c.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(c.baseDir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to walk storage directory", goerr.V("prefix", prefix))
	}

	return keys, nil
}

// validateKey rejects keys that could escape the base directory
func (c *Client) validateKey(key string) error {
	if key == "" {
		return interfaces.ErrInvalidStorageKey
	}
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return interfaces.ErrInvalidStorageKey
	}
	for _, char := range key {
		if char < 32 || char == 127 {
			return interfaces.ErrInvalidStorageKey
		}
	}
	return nil
}

func (c *Client) filePath(key string) string {
	return filepath.Join(c.baseDir, filepath.FromSlash(key))
}

// Ensure Client implements StorageAdapter interface
var _ interfaces.StorageAdapter = (*Client)(nil)
