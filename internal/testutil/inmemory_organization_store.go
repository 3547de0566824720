package testutil

import (
	"context"
	"sync"

	"github.com/inboz-admin/inboz-app-sub004/internal/domain/organization"
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
)

// InMemoryOrganizationStore implements organization.Repository. Active
// user counts are scripted per organization with SetActiveUsers.
type InMemoryOrganizationStore struct {
	*InMemoryStore[*organization.Organization]

	mu          sync.RWMutex
	activeUsers map[string]int
}

func NewInMemoryOrganizationStore() *InMemoryOrganizationStore {
	return &InMemoryOrganizationStore{
		InMemoryStore: NewInMemoryStore[*organization.Organization](),
		activeUsers:   make(map[string]int),
	}
}

func (s *InMemoryOrganizationStore) Create(ctx context.Context, org *organization.Organization) error {
	return s.InMemoryStore.Create(ctx, org.ID, org)
}

func (s *InMemoryOrganizationStore) Get(ctx context.Context, id string) (*organization.Organization, error) {
	org, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("organization not found").
			WithHintf("Organization '%s' does not exist", id).
			Mark(ierr.ErrNotFound)
	}
	return org, nil
}

// GetForUpdate has no row locks in memory; tests exercise the same code
// path the transactional repository serves.
func (s *InMemoryOrganizationStore) GetForUpdate(ctx context.Context, id string) (*organization.Organization, error) {
	return s.Get(ctx, id)
}

func (s *InMemoryOrganizationStore) Update(ctx context.Context, org *organization.Organization) error {
	return s.InMemoryStore.Update(ctx, org.ID, org)
}

func (s *InMemoryOrganizationStore) CountActiveUsers(ctx context.Context, id string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeUsers[id], nil
}

// SetActiveUsers scripts the live active-user count for an organization.
func (s *InMemoryOrganizationStore) SetActiveUsers(orgID string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeUsers[orgID] = count
}

var _ organization.Repository = (*InMemoryOrganizationStore)(nil)
