package usecase

import (
	"github.com/m-mizutani/nagare/pkg/domain/interfaces"
	"github.com/m-mizutani/nagare/pkg/domain/model/instance"
)

// UseCases holds all use cases of the service
type UseCases struct {
	repo           interfaces.Repository
	mediaStorage   interfaces.MediaStorage
	policyDefaults instance.PersistenceConfig
}

// Option is a functional option for UseCases
type Option func(*UseCases)

// WithRepository sets the repository
func WithRepository(repo interfaces.Repository) Option {
	return func(uc *UseCases) {
		uc.repo = repo
	}
}

// WithMediaStorage sets the media storage
func WithMediaStorage(storage interfaces.MediaStorage) Option {
	return func(uc *UseCases) {
		uc.mediaStorage = storage
	}
}

// WithPolicyDefaults overrides the default persistence policy applied to
// new instances
func WithPolicyDefaults(cfg instance.PersistenceConfig) Option {
	return func(uc *UseCases) {
		uc.policyDefaults = cfg
	}
}

// New creates a new UseCases instance
func New(opts ...Option) *UseCases {
	uc := &UseCases{
		policyDefaults: instance.DefaultPersistenceConfig(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Ensure UseCases implements required interfaces
var (
	_ interfaces.JournalUseCases  = (*UseCases)(nil)
	_ interfaces.InstanceUseCases = (*UseCases)(nil)
	_ interfaces.WorkflowUseCases = (*UseCases)(nil)
)
