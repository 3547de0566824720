package types

import (
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionStatus is the status of a subscription.
// Loosely modeled on Stripe's subscription statuses.
type SubscriptionStatus string

const (
	SubscriptionStatusTrial      SubscriptionStatus = "TRIAL"
	SubscriptionStatusActive     SubscriptionStatus = "ACTIVE"
	SubscriptionStatusPastDue    SubscriptionStatus = "PAST_DUE"
	SubscriptionStatusUnpaid     SubscriptionStatus = "UNPAID"
	SubscriptionStatusIncomplete SubscriptionStatus = "INCOMPLETE"
	SubscriptionStatusCancelled  SubscriptionStatus = "CANCELLED"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) Validate() error {
	allowed := []SubscriptionStatus{
		SubscriptionStatusTrial,
		SubscriptionStatusActive,
		SubscriptionStatusPastDue,
		SubscriptionStatusUnpaid,
		SubscriptionStatusIncomplete,
		SubscriptionStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid subscription status").
			WithHint("Invalid subscription status").
			WithReportableDetails(map[string]any{
				"status":  s,
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s SubscriptionStatus) IsTerminal() bool {
	return s == SubscriptionStatusCancelled
}

// BillingOperationType classifies a checkout against the organization's
// current subscription. It is carried in the gateway order metadata so the
// verification callback can replay the charge decision without re-querying
// mutable state.
type BillingOperationType string

const (
	BillingOperationTrialToPaid BillingOperationType = "TRIAL_TO_PAID"
	BillingOperationUpgrade     BillingOperationType = "UPGRADE"
	BillingOperationAddUsers    BillingOperationType = "ADD_USERS"
	BillingOperationCombined    BillingOperationType = "COMBINED"
	BillingOperationCycleChange BillingOperationType = "CYCLE_CHANGE"
)

func (t BillingOperationType) String() string {
	return string(t)
}

func (t BillingOperationType) Validate() error {
	allowed := []BillingOperationType{
		BillingOperationTrialToPaid,
		BillingOperationUpgrade,
		BillingOperationAddUsers,
		BillingOperationCombined,
		BillingOperationCycleChange,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid billing operation type").
			WithHint("Invalid billing operation type").
			WithReportableDetails(map[string]any{
				"operation_type": t,
				"allowed":        allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PendingChangeReason records why a deferred change was scheduled.
type PendingChangeReason string

const (
	PendingChangeReasonSeatReduction PendingChangeReason = "SEAT_REDUCTION"
	PendingChangeReasonPlanDowngrade PendingChangeReason = "PLAN_DOWNGRADE"
)
