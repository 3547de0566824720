package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/inboz-admin/inboz-app-sub004/internal/domain/invoice"
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/inboz-admin/inboz-app-sub004/internal/logger"
	"github.com/inboz-admin/inboz-app-sub004/internal/postgres"
	"github.com/inboz-admin/inboz-app-sub004/internal/types"
	"github.com/jmoiron/sqlx"
)

type invoiceRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

func NewInvoiceRepository(db postgres.IClient, log *logger.Logger) invoice.Repository {
	return &invoiceRepository{db: db, logger: log}
}

const invoiceColumns = `
	id, organization_id, subscription_id, invoice_number,
	invoice_status, billing_reason,
	currency, subtotal, tax_amount, total, amount_paid, amount_due,
	issue_date, due_date, paid_at, breakdown,
	stripe_payment_intent_id, razorpay_order_id, razorpay_payment_id,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

const invoiceInsert = `
	INSERT INTO invoices (
		id, organization_id, subscription_id, invoice_number,
		invoice_status, billing_reason,
		currency, subtotal, tax_amount, total, amount_paid, amount_due,
		issue_date, due_date, paid_at, breakdown,
		stripe_payment_intent_id, razorpay_order_id, razorpay_payment_id,
		tenant_id, status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :organization_id, :subscription_id, :invoice_number,
		:invoice_status, :billing_reason,
		:currency, :subtotal, :tax_amount, :total, :amount_paid, :amount_due,
		:issue_date, :due_date, :paid_at, :breakdown,
		:stripe_payment_intent_id, :razorpay_order_id, :razorpay_payment_id,
		:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
	)`

func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	if _, err := sqlx.NamedExecContext(ctx, r.db.Querier(ctx), invoiceInsert, inv); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create invoice").
			WithReportableDetails(map[string]any{
				"subscription_id": inv.SubscriptionID,
				"invoice_number":  inv.InvoiceNumber,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 AND status != 'deleted'`
	if err := sqlx.GetContext(ctx, r.db.Querier(ctx), &inv, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("invoice not found").
				WithHintf("Invoice '%s' does not exist", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to load invoice").
			Mark(ierr.ErrDatabase)
	}
	return &inv, nil
}

// Update only touches status and payment fields. Line items and totals are
// immutable once the invoice row exists.
func (r *invoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	inv.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE invoices SET
			invoice_status = :invoice_status,
			amount_paid = :amount_paid,
			amount_due = :amount_due,
			paid_at = :paid_at,
			stripe_payment_intent_id = :stripe_payment_intent_id,
			razorpay_order_id = :razorpay_order_id,
			razorpay_payment_id = :razorpay_payment_id,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id`

	result, err := sqlx.NamedExecContext(ctx, r.db.Querier(ctx), query, inv)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update invoice").
			Mark(ierr.ErrDatabase)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ierr.NewError("invoice not found").
			WithHintf("Invoice '%s' does not exist", inv.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *invoiceRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Querier(ctx).ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, id); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete invoice").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) GetBySubscriptionID(ctx context.Context, subscriptionID string) ([]*invoice.Invoice, error) {
	var invoices []*invoice.Invoice
	query := `SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE subscription_id = $1 AND status != 'deleted'
		ORDER BY created_at DESC`
	if err := sqlx.SelectContext(ctx, r.db.Querier(ctx), &invoices, query, subscriptionID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list invoices for subscription").
			Mark(ierr.ErrDatabase)
	}
	return invoices, nil
}

func (r *invoiceRepository) ListByOrganization(ctx context.Context, orgID string) ([]*invoice.Invoice, error) {
	var invoices []*invoice.Invoice
	query := `SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE organization_id = $1 AND status != 'deleted'
		ORDER BY created_at DESC`
	if err := sqlx.SelectContext(ctx, r.db.Querier(ctx), &invoices, query, orgID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list invoices").
			Mark(ierr.ErrDatabase)
	}
	return invoices, nil
}

func (r *invoiceRepository) NextInvoiceNumber(ctx context.Context) (string, error) {
	return fmt.Sprintf("INV-%d-%s", time.Now().UnixMilli(), types.GenerateShortID()), nil
}

var _ invoice.Repository = (*invoiceRepository)(nil)
