package types

import (
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/samber/lo"
)

// BillingCycle is the cadence a subscription is charged on.
type BillingCycle string

const (
	BILLING_CYCLE_MONTHLY BillingCycle = "MONTHLY"
	BILLING_CYCLE_YEARLY  BillingCycle = "YEARLY"
)

func (c BillingCycle) String() string {
	return string(c)
}

func (c BillingCycle) Validate() error {
	allowed := []BillingCycle{
		BILLING_CYCLE_MONTHLY,
		BILLING_CYCLE_YEARLY,
	}
	if !lo.Contains(allowed, c) {
		return ierr.NewError("invalid billing cycle").
			WithHint("Billing cycle must be MONTHLY or YEARLY").
			WithReportableDetails(map[string]any{
				"billing_cycle": c,
				"allowed":       allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
