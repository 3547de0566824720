package organization

import (
	"github.com/inboz-admin/inboz-app-sub004/internal/types"
)

// Organization is the billing tenant. The wider CRM owns its lifecycle;
// the billing core reads it and stores gateway customer ids on it.
type Organization struct {
	ID           string `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	BillingEmail string `db:"billing_email" json:"billing_email"`

	// Gateway customer ids, created lazily on first checkout and reused
	// across subscription rows to avoid duplicate gateway customers.
	StripeCustomerID   *string `db:"stripe_customer_id" json:"stripe_customer_id,omitempty"`
	RazorpayCustomerID *string `db:"razorpay_customer_id" json:"razorpay_customer_id,omitempty"`

	types.BaseModel
}

// GatewayCustomerID returns the stored customer id for the given provider.
func (o *Organization) GatewayCustomerID(provider types.PaymentProvider) *string {
	switch provider {
	case types.PaymentProviderStripe:
		return o.StripeCustomerID
	case types.PaymentProviderRazorpay:
		return o.RazorpayCustomerID
	default:
		return nil
	}
}

// SetGatewayCustomerID stores the customer id for the given provider.
func (o *Organization) SetGatewayCustomerID(provider types.PaymentProvider, customerID string) {
	switch provider {
	case types.PaymentProviderStripe:
		o.StripeCustomerID = &customerID
	case types.PaymentProviderRazorpay:
		o.RazorpayCustomerID = &customerID
	}
}
