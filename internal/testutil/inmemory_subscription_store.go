package testutil

import (
	"context"
	"time"

	"github.com/inboz-admin/inboz-app-sub004/internal/domain/subscription"
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/inboz-admin/inboz-app-sub004/internal/types"
)

// InMemorySubscriptionStore implements subscription.Repository
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
	}
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	return s.InMemoryStore.Create(ctx, sub.ID, sub)
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("subscription not found").
			WithHintf("Subscription '%s' does not exist", id).
			Mark(ierr.ErrNotFound)
	}
	return sub, nil
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	sub.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, sub.ID, sub)
}

func (s *InMemorySubscriptionStore) Delete(ctx context.Context, id string) error {
	return s.InMemoryStore.Delete(ctx, id)
}

func (s *InMemorySubscriptionStore) GetActiveOrTrialByOrganization(ctx context.Context, orgID string) (*subscription.Subscription, error) {
	subs, _ := s.InMemoryStore.List(ctx, func(ctx context.Context, sub *subscription.Subscription) bool {
		return sub.OrganizationID == orgID && sub.IsActiveOrTrial()
	}, newestFirst)
	if len(subs) == 0 {
		return nil, ierr.NewError("no active subscription").
			WithHintf("Organization '%s' has no active or trial subscription", orgID).
			Mark(ierr.ErrNotFound)
	}
	return subs[0], nil
}

func (s *InMemorySubscriptionStore) ListByOrganization(ctx context.Context, orgID string) ([]*subscription.Subscription, error) {
	return s.InMemoryStore.List(ctx, func(ctx context.Context, sub *subscription.Subscription) bool {
		return sub.OrganizationID == orgID
	}, newestFirst)
}

func (s *InMemorySubscriptionStore) FindRecentDuplicate(ctx context.Context, search subscription.DuplicateSearch) (*subscription.Subscription, error) {
	subs, _ := s.InMemoryStore.List(ctx, func(ctx context.Context, sub *subscription.Subscription) bool {
		if sub.OrganizationID != search.OrganizationID ||
			sub.PlanID != search.PlanID ||
			sub.UserCount != search.UserCount ||
			sub.BillingCycle != search.BillingCycle ||
			sub.SubscriptionStatus != types.SubscriptionStatusActive ||
			sub.CreatedAt.Before(search.CreatedAfter) {
			return false
		}
		return sub.GatewayCustomerID(search.Provider) != nil
	}, newestFirst)
	if len(subs) == 0 {
		return nil, ierr.NewError("no recent duplicate").
			Mark(ierr.ErrNotFound)
	}
	return subs[0], nil
}

func (s *InMemorySubscriptionStore) ListExpiredTrials(ctx context.Context, now time.Time) ([]*subscription.Subscription, error) {
	return s.InMemoryStore.List(ctx, func(ctx context.Context, sub *subscription.Subscription) bool {
		return sub.SubscriptionStatus == types.SubscriptionStatusTrial &&
			sub.TrialEnd != nil && sub.TrialEnd.Before(now)
	}, oldestFirst)
}

func (s *InMemorySubscriptionStore) ListPastPeriodEnd(ctx context.Context, now time.Time) ([]*subscription.Subscription, error) {
	return s.InMemoryStore.List(ctx, func(ctx context.Context, sub *subscription.Subscription) bool {
		return sub.SubscriptionStatus == types.SubscriptionStatusActive &&
			sub.CancelAt == nil && sub.CurrentPeriodEnd.Before(now)
	}, oldestFirst)
}

func (s *InMemorySubscriptionStore) ListPastCancelAt(ctx context.Context, now time.Time) ([]*subscription.Subscription, error) {
	return s.InMemoryStore.List(ctx, func(ctx context.Context, sub *subscription.Subscription) bool {
		return sub.SubscriptionStatus == types.SubscriptionStatusActive &&
			sub.CancelAt != nil && sub.CancelAt.Before(now)
	}, oldestFirst)
}

func (s *InMemorySubscriptionStore) ListRenewalDue(ctx context.Context, windowEnd time.Time) ([]*subscription.Subscription, error) {
	return s.InMemoryStore.List(ctx, func(ctx context.Context, sub *subscription.Subscription) bool {
		return sub.SubscriptionStatus == types.SubscriptionStatusActive &&
			sub.CancelAt == nil && !sub.CurrentPeriodEnd.After(windowEnd)
	}, oldestFirst)
}

func newestFirst(i, j *subscription.Subscription) bool {
	return i.CreatedAt.After(j.CreatedAt)
}

func oldestFirst(i, j *subscription.Subscription) bool {
	return i.CreatedAt.Before(j.CreatedAt)
}

var _ subscription.Repository = (*InMemorySubscriptionStore)(nil)
