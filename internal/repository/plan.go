package repository

import (
	"context"
	"database/sql"

	"github.com/inboz-admin/inboz-app-sub004/internal/cache"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/plan"
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/inboz-admin/inboz-app-sub004/internal/logger"
	"github.com/inboz-admin/inboz-app-sub004/internal/postgres"
	"github.com/jmoiron/sqlx"
)

type planRepository struct {
	db     postgres.IClient
	logger *logger.Logger
	cache  cache.Cache
}

func NewPlanRepository(db postgres.IClient, log *logger.Logger, c cache.Cache) plan.Repository {
	return &planRepository{db: db, logger: log, cache: c}
}

const planColumns = `
	id, name, lookup_key, description,
	price_per_user_monthly, price_per_user_yearly,
	max_contacts, daily_email_limit, max_campaigns,
	is_active, is_public,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

func (r *planRepository) Get(ctx context.Context, id string) (*plan.Plan, error) {
	if cached, ok := r.cache.Get(ctx, cache.PlanKey(id)); ok {
		if p, ok := cached.(*plan.Plan); ok {
			return p, nil
		}
	}

	var p plan.Plan
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1 AND status != 'deleted'`
	if err := sqlx.GetContext(ctx, r.db.Querier(ctx), &p, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("plan not found").
				WithHintf("Plan '%s' does not exist", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to load plan").
			Mark(ierr.ErrDatabase)
	}

	r.cache.Set(ctx, cache.PlanKey(id), &p, cache.DefaultExpiration)
	return &p, nil
}

func (r *planRepository) GetByLookupKey(ctx context.Context, lookupKey string) (*plan.Plan, error) {
	var p plan.Plan
	query := `SELECT ` + planColumns + ` FROM plans WHERE lookup_key = $1 AND status != 'deleted'`
	if err := sqlx.GetContext(ctx, r.db.Querier(ctx), &p, query, lookupKey); err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("plan not found").
				WithHintf("Plan with lookup key '%s' does not exist", lookupKey).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to load plan").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *planRepository) List(ctx context.Context) ([]*plan.Plan, error) {
	var plans []*plan.Plan
	query := `SELECT ` + planColumns + ` FROM plans WHERE status != 'deleted' ORDER BY created_at`
	if err := sqlx.SelectContext(ctx, r.db.Querier(ctx), &plans, query); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list plans").
			Mark(ierr.ErrDatabase)
	}
	return plans, nil
}
