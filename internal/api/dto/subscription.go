package dto

import (
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/subscription"
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/inboz-admin/inboz-app-sub004/internal/types"
)

// SubscriptionResponse wraps the domain subscription for the API surface.
type SubscriptionResponse struct {
	*subscription.Subscription
}

func NewSubscriptionResponse(sub *subscription.Subscription) *SubscriptionResponse {
	return &SubscriptionResponse{Subscription: sub}
}

// CreateTrialRequest starts the free trial for a newly signed-up
// organization.
type CreateTrialRequest struct {
	OrganizationID string `json:"organization_id" binding:"required"`
	PlanID         string `json:"plan_id" binding:"required"`
}

func (r *CreateTrialRequest) Validate() error {
	if r.OrganizationID == "" || r.PlanID == "" {
		return ierr.NewError("organization_id and plan_id are required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CancelSubscriptionRequest cancels the organization's live subscription.
// The default is cancel-at-period-end; Immediate is the admin path that
// cancels the row on the spot.
type CancelSubscriptionRequest struct {
	OrganizationID string `json:"organization_id" binding:"required"`
	Reason         string `json:"reason,omitempty"`
	Immediate      bool   `json:"immediate,omitempty"`
}

func (r *CancelSubscriptionRequest) Validate() error {
	if r.OrganizationID == "" {
		return ierr.NewError("organization_id is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ScheduleSeatReductionRequest defers a seat decrease to the next renewal.
type ScheduleSeatReductionRequest struct {
	OrganizationID  string `json:"organization_id" binding:"required"`
	TargetUserCount int    `json:"target_user_count" binding:"required"`
}

func (r *ScheduleSeatReductionRequest) Validate() error {
	if r.OrganizationID == "" {
		return ierr.NewError("organization_id is required").
			Mark(ierr.ErrValidation)
	}
	if r.TargetUserCount < 1 {
		return ierr.NewError("target_user_count must be at least 1").
			WithReportableDetails(map[string]any{
				"target_user_count": r.TargetUserCount,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SchedulePlanDowngradeRequest defers a plan downgrade to the next renewal.
type SchedulePlanDowngradeRequest struct {
	OrganizationID string `json:"organization_id" binding:"required"`
	TargetPlanID   string `json:"target_plan_id" binding:"required"`
}

func (r *SchedulePlanDowngradeRequest) Validate() error {
	if r.OrganizationID == "" || r.TargetPlanID == "" {
		return ierr.NewError("organization_id and target_plan_id are required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ChangePlanRequest is the single entry point for plan changes. Upgrades
// route to the payment flow; downgrades are scheduled for the next renewal.
type ChangePlanRequest struct {
	OrganizationID string                `json:"organization_id" binding:"required"`
	TargetPlanID   string                `json:"target_plan_id" binding:"required"`
	Provider       types.PaymentProvider `json:"provider,omitempty"`
}

func (r *ChangePlanRequest) Validate() error {
	if r.OrganizationID == "" || r.TargetPlanID == "" {
		return ierr.NewError("organization_id and target_plan_id are required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ChangePlanResponse reports which path the change took. Checkout is set
// for upgrades (payment required); Subscription is set for scheduled
// downgrades (the unchanged live row carrying the pending change).
type ChangePlanResponse struct {
	Scheduled    bool                     `json:"scheduled"`
	Checkout     *InitiatePaymentResponse `json:"checkout,omitempty"`
	Subscription *SubscriptionResponse    `json:"subscription,omitempty"`
}

// ChangeBillingCycleRequest switches the live subscription between monthly
// and yearly billing through the payment flow.
type ChangeBillingCycleRequest struct {
	OrganizationID string                `json:"organization_id" binding:"required"`
	TargetCycle    types.BillingCycle    `json:"target_cycle" binding:"required"`
	Provider       types.PaymentProvider `json:"provider,omitempty"`
}

func (r *ChangeBillingCycleRequest) Validate() error {
	if r.OrganizationID == "" {
		return ierr.NewError("organization_id is required").
			Mark(ierr.ErrValidation)
	}
	return r.TargetCycle.Validate()
}

// AdminOverrideUpgradeRequest applies a plan change immediately with no
// charge. Support tooling only.
type AdminOverrideUpgradeRequest struct {
	OrganizationID string             `json:"organization_id" binding:"required"`
	PlanID         string             `json:"plan_id" binding:"required"`
	UserCount      int                `json:"user_count" binding:"required"`
	BillingCycle   types.BillingCycle `json:"billing_cycle" binding:"required"`
	Reason         string             `json:"reason" binding:"required"`
}

func (r *AdminOverrideUpgradeRequest) Validate() error {
	if r.OrganizationID == "" || r.PlanID == "" {
		return ierr.NewError("organization_id and plan_id are required").
			Mark(ierr.ErrValidation)
	}
	if r.UserCount < 1 {
		return ierr.NewError("user_count must be at least 1").
			Mark(ierr.ErrValidation)
	}
	if r.Reason == "" {
		return ierr.NewError("reason is required for admin overrides").
			WithHint("Record why the override was applied").
			Mark(ierr.ErrValidation)
	}
	return r.BillingCycle.Validate()
}
