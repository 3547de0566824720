package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/inboz-admin/inboz-app-sub004/internal/domain/subscription"
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/inboz-admin/inboz-app-sub004/internal/logger"
	"github.com/inboz-admin/inboz-app-sub004/internal/postgres"
	"github.com/jmoiron/sqlx"
)

type subscriptionRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

func NewSubscriptionRepository(db postgres.IClient, log *logger.Logger) subscription.Repository {
	return &subscriptionRepository{db: db, logger: log}
}

const subscriptionColumns = `
	id, organization_id, plan_id, subscription_status, billing_cycle,
	user_count, volume_discount_percent, amount, final_amount, currency,
	current_period_start, current_period_end, trial_start, trial_end,
	cancel_at, cancelled_at, cancel_reason,
	pending_user_count, pending_plan_id, pending_change_reason,
	proration_details,
	stripe_customer_id, stripe_subscription_id,
	razorpay_customer_id, razorpay_subscription_id,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

const subscriptionInsert = `
	INSERT INTO subscriptions (
		id, organization_id, plan_id, subscription_status, billing_cycle,
		user_count, volume_discount_percent, amount, final_amount, currency,
		current_period_start, current_period_end, trial_start, trial_end,
		cancel_at, cancelled_at, cancel_reason,
		pending_user_count, pending_plan_id, pending_change_reason,
		proration_details,
		stripe_customer_id, stripe_subscription_id,
		razorpay_customer_id, razorpay_subscription_id,
		tenant_id, status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :organization_id, :plan_id, :subscription_status, :billing_cycle,
		:user_count, :volume_discount_percent, :amount, :final_amount, :currency,
		:current_period_start, :current_period_end, :trial_start, :trial_end,
		:cancel_at, :cancelled_at, :cancel_reason,
		:pending_user_count, :pending_plan_id, :pending_change_reason,
		:proration_details,
		:stripe_customer_id, :stripe_subscription_id,
		:razorpay_customer_id, :razorpay_subscription_id,
		:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
	)`

func (r *subscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	if _, err := sqlx.NamedExecContext(ctx, r.db.Querier(ctx), subscriptionInsert, sub); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create subscription").
			WithReportableDetails(map[string]any{
				"organization_id": sub.OrganizationID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1 AND status != 'deleted'`
	if err := sqlx.GetContext(ctx, r.db.Querier(ctx), &sub, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("subscription not found").
				WithHintf("Subscription '%s' does not exist", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to load subscription").
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	sub.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE subscriptions SET
			plan_id = :plan_id,
			subscription_status = :subscription_status,
			billing_cycle = :billing_cycle,
			user_count = :user_count,
			volume_discount_percent = :volume_discount_percent,
			amount = :amount,
			final_amount = :final_amount,
			current_period_start = :current_period_start,
			current_period_end = :current_period_end,
			cancel_at = :cancel_at,
			cancelled_at = :cancelled_at,
			cancel_reason = :cancel_reason,
			pending_user_count = :pending_user_count,
			pending_plan_id = :pending_plan_id,
			pending_change_reason = :pending_change_reason,
			proration_details = :proration_details,
			stripe_customer_id = :stripe_customer_id,
			stripe_subscription_id = :stripe_subscription_id,
			razorpay_customer_id = :razorpay_customer_id,
			razorpay_subscription_id = :razorpay_subscription_id,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id`

	result, err := sqlx.NamedExecContext(ctx, r.db.Querier(ctx), query, sub)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update subscription").
			Mark(ierr.ErrDatabase)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ierr.NewError("subscription not found").
			WithHintf("Subscription '%s' does not exist", sub.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *subscriptionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Querier(ctx).ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete subscription").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) GetActiveOrTrialByOrganization(ctx context.Context, orgID string) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	query := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE organization_id = $1
		  AND subscription_status IN ('ACTIVE', 'TRIAL')
		  AND status != 'deleted'
		ORDER BY created_at DESC
		LIMIT 1`
	if err := sqlx.GetContext(ctx, r.db.Querier(ctx), &sub, query, orgID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("no active subscription").
				WithHintf("Organization '%s' has no active or trial subscription", orgID).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to load active subscription").
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

func (r *subscriptionRepository) ListByOrganization(ctx context.Context, orgID string) ([]*subscription.Subscription, error) {
	var subs []*subscription.Subscription
	query := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE organization_id = $1 AND status != 'deleted'
		ORDER BY created_at DESC`
	if err := sqlx.SelectContext(ctx, r.db.Querier(ctx), &subs, query, orgID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscriptions").
			Mark(ierr.ErrDatabase)
	}
	return subs, nil
}

func (r *subscriptionRepository) FindRecentDuplicate(ctx context.Context, search subscription.DuplicateSearch) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	query := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE organization_id = $1
		  AND plan_id = $2
		  AND user_count = $3
		  AND billing_cycle = $4
		  AND subscription_status = 'ACTIVE'
		  AND created_at >= $5
		  AND (CASE WHEN $6 = 'stripe'
		       THEN stripe_customer_id IS NOT NULL
		       ELSE razorpay_customer_id IS NOT NULL END)
		ORDER BY created_at DESC
		LIMIT 1`
	err := sqlx.GetContext(ctx, r.db.Querier(ctx), &sub, query,
		search.OrganizationID, search.PlanID, search.UserCount,
		search.BillingCycle, search.CreatedAfter, string(search.Provider))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("no recent duplicate").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to search for duplicate subscription").
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

func (r *subscriptionRepository) ListExpiredTrials(ctx context.Context, now time.Time) ([]*subscription.Subscription, error) {
	return r.listWhere(ctx, `subscription_status = 'TRIAL' AND trial_end < $1`, now)
}

func (r *subscriptionRepository) ListPastPeriodEnd(ctx context.Context, now time.Time) ([]*subscription.Subscription, error) {
	return r.listWhere(ctx, `subscription_status = 'ACTIVE' AND cancel_at IS NULL AND current_period_end < $1`, now)
}

func (r *subscriptionRepository) ListPastCancelAt(ctx context.Context, now time.Time) ([]*subscription.Subscription, error) {
	return r.listWhere(ctx, `subscription_status = 'ACTIVE' AND cancel_at IS NOT NULL AND cancel_at < $1`, now)
}

func (r *subscriptionRepository) ListRenewalDue(ctx context.Context, windowEnd time.Time) ([]*subscription.Subscription, error) {
	return r.listWhere(ctx, `subscription_status = 'ACTIVE' AND cancel_at IS NULL AND current_period_end <= $1`, windowEnd)
}

func (r *subscriptionRepository) listWhere(ctx context.Context, where string, args ...any) ([]*subscription.Subscription, error) {
	var subs []*subscription.Subscription
	query := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status != 'deleted' AND ` + where + `
		ORDER BY created_at`
	if err := sqlx.SelectContext(ctx, r.db.Querier(ctx), &subs, query, args...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscriptions for sweep").
			Mark(ierr.ErrDatabase)
	}
	return subs, nil
}

var _ subscription.Repository = (*subscriptionRepository)(nil)
