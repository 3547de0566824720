package invoice

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, id string) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error

	// Delete hard-deletes a draft invoice after a payment failure.
	Delete(ctx context.Context, id string) error

	GetBySubscriptionID(ctx context.Context, subscriptionID string) ([]*Invoice, error)
	ListByOrganization(ctx context.Context, orgID string) ([]*Invoice, error)

	// NextInvoiceNumber returns a fresh time-based invoice number.
	// Uniqueness is ultimately enforced by the DB constraint.
	NextInvoiceNumber(ctx context.Context) (string, error)
}
