package types

import (
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/samber/lo"
)

// PaymentProvider identifies which gateway a checkout runs through.
type PaymentProvider string

const (
	PaymentProviderStripe   PaymentProvider = "stripe"
	PaymentProviderRazorpay PaymentProvider = "razorpay"
)

func (p PaymentProvider) String() string {
	return string(p)
}

func (p PaymentProvider) Validate() error {
	allowed := []PaymentProvider{
		PaymentProviderStripe,
		PaymentProviderRazorpay,
	}
	if !lo.Contains(allowed, p) {
		return ierr.NewError("invalid payment provider").
			WithHint("Payment provider must be stripe or razorpay").
			WithReportableDetails(map[string]any{
				"provider": p,
				"allowed":  allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Metadata is a free-form string map attached to gateway orders so the
// verification callback can replay the charge decision.
type Metadata map[string]string
