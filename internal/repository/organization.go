package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/inboz-admin/inboz-app-sub004/internal/domain/organization"
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/inboz-admin/inboz-app-sub004/internal/logger"
	"github.com/inboz-admin/inboz-app-sub004/internal/postgres"
	"github.com/jmoiron/sqlx"
)

type organizationRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

func NewOrganizationRepository(db postgres.IClient, log *logger.Logger) organization.Repository {
	return &organizationRepository{db: db, logger: log}
}

const organizationColumns = `
	id, name, billing_email, stripe_customer_id, razorpay_customer_id,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

func (r *organizationRepository) Get(ctx context.Context, id string) (*organization.Organization, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate takes a row lock so concurrent upgrade attempts on the same
// organization serialize. Only valid inside a transaction.
func (r *organizationRepository) GetForUpdate(ctx context.Context, id string) (*organization.Organization, error) {
	return r.get(ctx, id, true)
}

func (r *organizationRepository) get(ctx context.Context, id string, forUpdate bool) (*organization.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1 AND status != 'deleted'`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var org organization.Organization
	if err := sqlx.GetContext(ctx, r.db.Querier(ctx), &org, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("organization not found").
				WithHintf("Organization '%s' does not exist", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to load organization").
			Mark(ierr.ErrDatabase)
	}
	return &org, nil
}

func (r *organizationRepository) Update(ctx context.Context, org *organization.Organization) error {
	org.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE organizations SET
			name = :name,
			billing_email = :billing_email,
			stripe_customer_id = :stripe_customer_id,
			razorpay_customer_id = :razorpay_customer_id,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id`

	result, err := sqlx.NamedExecContext(ctx, r.db.Querier(ctx), query, org)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update organization").
			Mark(ierr.ErrDatabase)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ierr.NewError("organization not found").
			WithHintf("Organization '%s' does not exist", org.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *organizationRepository) CountActiveUsers(ctx context.Context, id string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM users WHERE organization_id = $1 AND status = 'active'`
	if err := sqlx.GetContext(ctx, r.db.Querier(ctx), &count, query, id); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count active users").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}
