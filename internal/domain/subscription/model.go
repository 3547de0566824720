package subscription

import (
	"time"

	"github.com/inboz-admin/inboz-app-sub004/internal/types"
	"github.com/shopspring/decimal"
)

// Subscription is the central mutable billing entity. Every paid plan,
// seat or cycle change creates a new row and cancels the old one; the
// cancelled rows form an append-only history. At most one row per
// organization may be ACTIVE or TRIAL at any time.
type Subscription struct {
	// ID is the unique identifier for the subscription
	ID string `db:"id" json:"id"`

	// OrganizationID is the billing tenant this subscription belongs to
	OrganizationID string `db:"organization_id" json:"organization_id"`

	// PlanID is the identifier for the plan in our system
	PlanID string `db:"plan_id" json:"plan_id"`

	// SubscriptionStatus is the lifecycle status of the subscription
	SubscriptionStatus types.SubscriptionStatus `db:"subscription_status" json:"subscription_status"`

	// BillingCycle is MONTHLY or YEARLY
	BillingCycle types.BillingCycle `db:"billing_cycle" json:"billing_cycle"`

	// UserCount is the number of seats paid for, which may differ from the
	// live active-user count of the organization
	UserCount int `db:"user_count" json:"user_count"`

	// VolumeDiscountPercent is the tier discount applied at purchase time
	VolumeDiscountPercent int `db:"volume_discount_percent" json:"volume_discount_percent"`

	// Amount is the pre-discount base amount per period
	Amount decimal.Decimal `db:"amount" json:"amount"`

	// FinalAmount is the amount actually charged per period
	FinalAmount decimal.Decimal `db:"final_amount" json:"final_amount"`

	// Currency is the lowercase 3 letter ISO currency code
	Currency string `db:"currency" json:"currency"`

	CurrentPeriodStart time.Time `db:"current_period_start" json:"current_period_start"`
	CurrentPeriodEnd   time.Time `db:"current_period_end" json:"current_period_end"`

	TrialStart *time.Time `db:"trial_start" json:"trial_start,omitempty"`
	TrialEnd   *time.Time `db:"trial_end" json:"trial_end,omitempty"`

	// CancelAt is when the subscription will be cancelled by the sweep;
	// access is retained until then
	CancelAt     *time.Time `db:"cancel_at" json:"cancel_at,omitempty"`
	CancelledAt  *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancelReason string     `db:"cancel_reason" json:"cancel_reason,omitempty"`

	// Pending deferred changes, applied in place at the next renewal
	// boundary without any charge or credit
	PendingUserCount    *int                       `db:"pending_user_count" json:"pending_user_count,omitempty"`
	PendingPlanID       *string                    `db:"pending_plan_id" json:"pending_plan_id,omitempty"`
	PendingChangeReason *types.PendingChangeReason `db:"pending_change_reason" json:"pending_change_reason,omitempty"`

	// ProrationDetails snapshots the last proration computation for audit
	// and invoice reuse
	ProrationDetails *types.ProrationSnapshot `db:"proration_details" json:"proration_details,omitempty"`

	// Gateway identifiers
	StripeCustomerID       *string `db:"stripe_customer_id" json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID   *string `db:"stripe_subscription_id" json:"stripe_subscription_id,omitempty"`
	RazorpayCustomerID     *string `db:"razorpay_customer_id" json:"razorpay_customer_id,omitempty"`
	RazorpaySubscriptionID *string `db:"razorpay_subscription_id" json:"razorpay_subscription_id,omitempty"`

	types.BaseModel
}

// IsActiveOrTrial reports whether the row counts against the
// one-active-subscription-per-organization invariant.
func (s *Subscription) IsActiveOrTrial() bool {
	return s.SubscriptionStatus == types.SubscriptionStatusActive ||
		s.SubscriptionStatus == types.SubscriptionStatusTrial
}

// HasPendingChange reports whether a deferred downgrade or seat reduction
// is waiting for the next renewal boundary.
func (s *Subscription) HasPendingChange() bool {
	return s.PendingPlanID != nil || s.PendingUserCount != nil
}

// GatewayCustomerID returns the stored customer id for the given provider.
func (s *Subscription) GatewayCustomerID(provider types.PaymentProvider) *string {
	switch provider {
	case types.PaymentProviderStripe:
		return s.StripeCustomerID
	case types.PaymentProviderRazorpay:
		return s.RazorpayCustomerID
	default:
		return nil
	}
}

// GatewaySubscriptionID returns the remote subscription id for the provider.
func (s *Subscription) GatewaySubscriptionID(provider types.PaymentProvider) *string {
	switch provider {
	case types.PaymentProviderStripe:
		return s.StripeSubscriptionID
	case types.PaymentProviderRazorpay:
		return s.RazorpaySubscriptionID
	default:
		return nil
	}
}
