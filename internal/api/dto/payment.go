package dto

import (
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/inboz-admin/inboz-app-sub004/internal/types"
	"github.com/shopspring/decimal"
)

// InitiatePaymentRequest opens a gateway checkout for a plan purchase or
// change. UserCount nil means "keep the current paid seats, or fall back
// to the live active-user count".
type InitiatePaymentRequest struct {
	OrganizationID string                `json:"organization_id" binding:"required"`
	PlanID         string                `json:"plan_id" binding:"required"`
	BillingCycle   types.BillingCycle    `json:"billing_cycle" binding:"required"`
	UserCount      *int                  `json:"user_count,omitempty"`
	Provider       types.PaymentProvider `json:"provider" binding:"required"`
}

func (r *InitiatePaymentRequest) Validate() error {
	if r.OrganizationID == "" || r.PlanID == "" {
		return ierr.NewError("organization_id and plan_id are required").
			Mark(ierr.ErrValidation)
	}
	if r.UserCount != nil && *r.UserCount < 1 {
		return ierr.NewError("user_count must be at least 1").
			WithReportableDetails(map[string]any{
				"user_count": *r.UserCount,
			}).
			Mark(ierr.ErrValidation)
	}
	if err := r.BillingCycle.Validate(); err != nil {
		return err
	}
	return r.Provider.Validate()
}

// InitiatePaymentResponse is the checkout handle the client completes
// payment against. When RequiresContactSales is set no order was opened
// and the monetary fields are zero.
type InitiatePaymentResponse struct {
	Provider             types.PaymentProvider      `json:"provider"`
	OrderID              string                     `json:"order_id,omitempty"`
	CheckoutURL          string                     `json:"checkout_url,omitempty"`
	Amount               decimal.Decimal            `json:"amount"`
	Currency             string                     `json:"currency"`
	OperationType        types.BillingOperationType `json:"operation_type"`
	UserCount            int                        `json:"user_count"`
	RequiresContactSales bool                       `json:"requires_contact_sales,omitempty"`
}

// VerifyPaymentRequest confirms a completed checkout and commits the
// subscription change. Signature is Razorpay-only.
type VerifyPaymentRequest struct {
	OrganizationID string                `json:"organization_id" binding:"required"`
	Provider       types.PaymentProvider `json:"provider" binding:"required"`
	OrderID        string                `json:"order_id" binding:"required"`
	PaymentID      string                `json:"payment_id,omitempty"`
	Signature      string                `json:"signature,omitempty"`
}

func (r *VerifyPaymentRequest) Validate() error {
	if r.OrganizationID == "" {
		return ierr.NewError("organization_id is required").
			Mark(ierr.ErrValidation)
	}
	if r.OrderID == "" {
		return ierr.NewError("order_id is required").
			WithHint("Provide the gateway order or session id returned at initiation").
			Mark(ierr.ErrValidation)
	}
	if err := r.Provider.Validate(); err != nil {
		return err
	}
	if r.Provider == types.PaymentProviderRazorpay && (r.PaymentID == "" || r.Signature == "") {
		return ierr.NewError("payment_id and signature are required for razorpay").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// VerifyPaymentResponse carries the committed outcome of a verified
// payment.
type VerifyPaymentResponse struct {
	Subscription *SubscriptionResponse `json:"subscription"`
	Invoice      *InvoiceResponse      `json:"invoice"`
}

// PaymentFailureRequest reports a payment that failed after its invoice
// was recorded, so the provisional rows can be cleaned up.
type PaymentFailureRequest struct {
	InvoiceID string `json:"invoice_id" binding:"required"`
	Reason    string `json:"reason,omitempty"`
}

func (r *PaymentFailureRequest) Validate() error {
	if r.InvoiceID == "" {
		return ierr.NewError("invoice_id is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}
