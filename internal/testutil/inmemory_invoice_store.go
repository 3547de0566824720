package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/inboz-admin/inboz-app-sub004/internal/domain/invoice"
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/inboz-admin/inboz-app-sub004/internal/types"
)

// InMemoryInvoiceStore implements invoice.Repository
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]
}

func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
	}
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	return s.InMemoryStore.Create(ctx, inv.ID, inv)
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("invoice not found").
			WithHintf("Invoice '%s' does not exist", id).
			Mark(ierr.ErrNotFound)
	}
	return inv, nil
}

func (s *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	return s.InMemoryStore.Update(ctx, inv.ID, inv)
}

func (s *InMemoryInvoiceStore) Delete(ctx context.Context, id string) error {
	return s.InMemoryStore.Delete(ctx, id)
}

func (s *InMemoryInvoiceStore) GetBySubscriptionID(ctx context.Context, subscriptionID string) ([]*invoice.Invoice, error) {
	return s.InMemoryStore.List(ctx, func(ctx context.Context, inv *invoice.Invoice) bool {
		return inv.SubscriptionID == subscriptionID
	}, invoiceNewestFirst)
}

func (s *InMemoryInvoiceStore) ListByOrganization(ctx context.Context, orgID string) ([]*invoice.Invoice, error) {
	return s.InMemoryStore.List(ctx, func(ctx context.Context, inv *invoice.Invoice) bool {
		return inv.OrganizationID == orgID
	}, invoiceNewestFirst)
}

func (s *InMemoryInvoiceStore) NextInvoiceNumber(ctx context.Context) (string, error) {
	return fmt.Sprintf("INV-%d-%s", time.Now().UnixMilli(), types.GenerateShortID()), nil
}

func invoiceNewestFirst(i, j *invoice.Invoice) bool {
	return i.CreatedAt.After(j.CreatedAt)
}

var _ invoice.Repository = (*InMemoryInvoiceStore)(nil)
