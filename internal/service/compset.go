package service

import (
	"context"
	"fmt"
	"strings"

	"compcore/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CompSetStore persists named comparable selections. The single
// AVM-default invariant is the store's to enforce transactionally.
type CompSetStore interface {
	SaveCompSet(ctx context.Context, set *model.CompSet) error
	UpdateCompSet(ctx context.Context, set *model.CompSet) error
	ListCompSets(ctx context.Context) ([]model.CompSet, error)
	GetCompSet(ctx context.Context, id string) (*model.CompSet, error)
}

// CompSetService handles saved comp set operations.
type CompSetService struct {
	store  CompSetStore
	logger *zap.Logger
}

// NewCompSetService creates a new comp set service
func NewCompSetService(store CompSetStore, logger *zap.Logger) *CompSetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompSetService{store: store, logger: logger}
}

// Save creates a new comp set and returns it with its assigned ID.
func (s *CompSetService) Save(ctx context.Context, set model.CompSet) (*model.CompSet, error) {
	if strings.TrimSpace(set.Name) == "" {
		return nil, fmt.Errorf("comp set name is required")
	}
	set.ID = uuid.NewString()
	if err := s.store.SaveCompSet(ctx, &set); err != nil {
		return nil, err
	}
	s.logger.Info("comp set saved",
		zap.String("id", set.ID),
		zap.Int("comparables", len(set.ComparableIDs)),
		zap.Bool("avm_default", set.IsAVMDefault),
	)
	return &set, nil
}

// Update modifies an existing comp set.
func (s *CompSetService) Update(ctx context.Context, set model.CompSet) error {
	if set.ID == "" {
		return fmt.Errorf("comp set id is required")
	}
	if strings.TrimSpace(set.Name) == "" {
		return fmt.Errorf("comp set name is required")
	}
	return s.store.UpdateCompSet(ctx, &set)
}

// List returns all saved comp sets.
func (s *CompSetService) List(ctx context.Context) ([]model.CompSet, error) {
	return s.store.ListCompSets(ctx)
}

// Get returns one comp set by ID, nil when it does not exist.
func (s *CompSetService) Get(ctx context.Context, id string) (*model.CompSet, error) {
	return s.store.GetCompSet(ctx, id)
}
