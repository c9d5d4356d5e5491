package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/adapters/cs"
	"github.com/m-mizutani/nagare/pkg/adapters/fs"
	memadapter "github.com/m-mizutani/nagare/pkg/adapters/memory"
	"github.com/m-mizutani/nagare/pkg/domain/interfaces"
	"github.com/urfave/cli/v3"
)

// Storage contains configuration for the media storage backend
type Storage struct {
	Type   string // gcs, fs or memory
	Bucket string
	Prefix string
	Dir    string
}

// Flags returns CLI flags for storage configuration
func (s *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "storage",
			Usage:       "Media storage backend [gcs|fs|memory]",
			Sources:     cli.EnvVars("NAGARE_STORAGE"),
			Value:       "memory",
			Destination: &s.Type,
		},
		&cli.StringFlag{
			Name:        "storage-bucket",
			Usage:       "Cloud Storage bucket name (gcs backend)",
			Sources:     cli.EnvVars("NAGARE_STORAGE_BUCKET"),
			Destination: &s.Bucket,
		},
		&cli.StringFlag{
			Name:        "storage-prefix",
			Usage:       "Object key prefix (gcs backend)",
			Sources:     cli.EnvVars("NAGARE_STORAGE_PREFIX"),
			Destination: &s.Prefix,
		},
		&cli.StringFlag{
			Name:        "storage-dir",
			Usage:       "Base directory (fs backend)",
			Sources:     cli.EnvVars("NAGARE_STORAGE_DIR"),
			Destination: &s.Dir,
		},
	}
}

// Configure builds the storage adapter selected by the configuration
func (s *Storage) Configure(ctx context.Context) (interfaces.StorageAdapter, error) {
	switch s.Type {
	case "gcs":
		if s.Bucket == "" {
			return nil, goerr.New("storage-bucket is required for the gcs backend")
		}
		var opts []cs.Option
		if s.Prefix != "" {
			opts = append(opts, cs.WithPrefix(s.Prefix))
		}
		return cs.New(ctx, s.Bucket, opts...)

	case "fs":
		if s.Dir == "" {
			return nil, goerr.New("storage-dir is required for the fs backend")
		}
		return fs.New(s.Dir)

	case "memory":
		return memadapter.New(), nil

	default:
		return nil, goerr.New("unknown storage backend", goerr.V("storage", s.Type))
	}
}
