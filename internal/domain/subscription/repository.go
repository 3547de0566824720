package subscription

import (
	"context"
	"time"

	"github.com/inboz-admin/inboz-app-sub004/internal/types"
)

// DuplicateSearch identifies a just-created subscription for the
// verification idempotency window.
type DuplicateSearch struct {
	OrganizationID string
	PlanID         string
	UserCount      int
	BillingCycle   types.BillingCycle
	Provider       types.PaymentProvider
	CreatedAfter   time.Time
}

type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	Update(ctx context.Context, sub *Subscription) error

	// Delete hard-deletes a row. Only used to clean up INCOMPLETE rows
	// younger than an hour after a payment failure.
	Delete(ctx context.Context, id string) error

	// GetActiveOrTrialByOrganization returns the single ACTIVE or TRIAL
	// row for the organization, or ErrNotFound.
	GetActiveOrTrialByOrganization(ctx context.Context, orgID string) (*Subscription, error)

	// ListByOrganization returns all rows for the organization, newest
	// first, including the cancelled history.
	ListByOrganization(ctx context.Context, orgID string) ([]*Subscription, error)

	// FindRecentDuplicate returns an ACTIVE row matching the search within
	// the idempotency window, or ErrNotFound.
	FindRecentDuplicate(ctx context.Context, search DuplicateSearch) (*Subscription, error)

	// Sweep queries. Each returns rows due for the corresponding expiry
	// action as of the given instant.
	ListExpiredTrials(ctx context.Context, now time.Time) ([]*Subscription, error)
	ListPastPeriodEnd(ctx context.Context, now time.Time) ([]*Subscription, error)
	ListPastCancelAt(ctx context.Context, now time.Time) ([]*Subscription, error)
	ListRenewalDue(ctx context.Context, windowEnd time.Time) ([]*Subscription, error)
}
