package dto

import (
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/inboz-admin/inboz-app-sub004/internal/types"
	"github.com/shopspring/decimal"
)

// QuotePriceRequest prices a seat count against a plan and cycle without
// touching any subscription state.
type QuotePriceRequest struct {
	PlanID       string             `json:"plan_id" binding:"required"`
	UserCount    int                `json:"user_count" binding:"required"`
	BillingCycle types.BillingCycle `json:"billing_cycle" binding:"required"`
}

func (r *QuotePriceRequest) Validate() error {
	if r.PlanID == "" {
		return ierr.NewError("plan_id is required").
			WithHint("Provide the plan to price").
			Mark(ierr.ErrValidation)
	}
	if r.UserCount < 1 {
		return ierr.NewError("user_count must be at least 1").
			WithReportableDetails(map[string]any{
				"user_count": r.UserCount,
			}).
			Mark(ierr.ErrValidation)
	}
	return r.BillingCycle.Validate()
}

// QuotePriceResponse is the ephemeral pricing result. Amounts are zero when
// RequiresContactSales is set.
type QuotePriceResponse struct {
	PlanID                 string             `json:"plan_id"`
	PlanName               string             `json:"plan_name"`
	BillingCycle           types.BillingCycle `json:"billing_cycle"`
	UserCount              int                `json:"user_count"`
	Currency               string             `json:"currency"`
	BasePricePerUser       decimal.Decimal    `json:"base_price_per_user"`
	VolumeDiscountPercent  int                `json:"volume_discount_percent"`
	DiscountedPricePerUser decimal.Decimal    `json:"discounted_price_per_user"`
	TotalAmount            decimal.Decimal    `json:"total_amount"`
	RequiresContactSales   bool               `json:"requires_contact_sales"`
}
