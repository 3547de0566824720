package testutil

import (
	"context"

	"github.com/inboz-admin/inboz-app-sub004/internal/domain/plan"
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
)

// InMemoryPlanStore implements plan.Repository
type InMemoryPlanStore struct {
	*InMemoryStore[*plan.Plan]
}

func NewInMemoryPlanStore() *InMemoryPlanStore {
	return &InMemoryPlanStore{
		InMemoryStore: NewInMemoryStore[*plan.Plan](),
	}
}

// Create seeds a plan; the production repository is read-only.
func (s *InMemoryPlanStore) Create(ctx context.Context, p *plan.Plan) error {
	return s.InMemoryStore.Create(ctx, p.ID, p)
}

func (s *InMemoryPlanStore) Get(ctx context.Context, id string) (*plan.Plan, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("plan not found").
			WithHintf("Plan '%s' does not exist", id).
			Mark(ierr.ErrNotFound)
	}
	return p, nil
}

func (s *InMemoryPlanStore) GetByLookupKey(ctx context.Context, lookupKey string) (*plan.Plan, error) {
	plans, _ := s.InMemoryStore.List(ctx, func(ctx context.Context, p *plan.Plan) bool {
		return p.LookupKey == lookupKey
	}, nil)
	if len(plans) == 0 {
		return nil, ierr.NewError("plan not found").
			WithHintf("Plan with lookup key '%s' does not exist", lookupKey).
			Mark(ierr.ErrNotFound)
	}
	return plans[0], nil
}

func (s *InMemoryPlanStore) List(ctx context.Context) ([]*plan.Plan, error) {
	return s.InMemoryStore.List(ctx, nil, func(i, j *plan.Plan) bool {
		return i.CreatedAt.Before(j.CreatedAt)
	})
}

var _ plan.Repository = (*InMemoryPlanStore)(nil)
