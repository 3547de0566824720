package gateway

import (
	"context"

	"github.com/inboz-admin/inboz-app-sub004/internal/domain/organization"
	"github.com/inboz-admin/inboz-app-sub004/internal/types"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the gateway-side state of a single payment.
type PaymentStatus string

const (
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// CreateOrderRequest opens a gateway order or checkout session for the
// quoted amount. Metadata must carry everything needed to replay the
// charge decision at verification time without re-querying mutable state.
type CreateOrderRequest struct {
	CustomerID  string
	Amount      decimal.Decimal
	Currency    string
	Description string
	Metadata    types.Metadata
}

// CheckoutOrder is the gateway-side handle the client completes payment
// against.
type CheckoutOrder struct {
	Provider    types.PaymentProvider
	OrderID     string
	CheckoutURL string
	Amount      decimal.Decimal
	Currency    string
	Metadata    types.Metadata
}

// VerifyPaymentRequest confirms a completed payment. Razorpay verifies an
// HMAC signature over order and payment ids; Stripe verifies the checkout
// session / payment intent status instead, so Signature may be empty.
type VerifyPaymentRequest struct {
	OrderID   string
	PaymentID string
	Signature string
}

// PaymentGateway is the port the billing core drives checkouts through.
// Two implementations exist: Stripe and Razorpay.
type PaymentGateway interface {
	Provider() types.PaymentProvider

	// CreateCustomer creates a gateway customer for the organization and
	// returns its id.
	CreateCustomer(ctx context.Context, org *organization.Organization) (string, error)

	// CreateOrder opens an order / checkout session for the amount.
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*CheckoutOrder, error)

	// GetOrder fetches a previously created order with its metadata, used
	// at verification time to replay the recorded checkout intent.
	GetOrder(ctx context.Context, orderID string) (*CheckoutOrder, error)

	// VerifyPayment confirms the payment is captured. Returns
	// ErrPaymentVerificationFailed on signature or status mismatch and
	// ErrPaymentNotConfirmed when the gateway reports it unpaid.
	VerifyPayment(ctx context.Context, req VerifyPaymentRequest) error

	// GetPaymentStatus fetches the current state of a payment.
	GetPaymentStatus(ctx context.Context, paymentID string) (PaymentStatus, error)

	// CancelRemoteSubscription best-effort cancels a gateway-side
	// subscription when the local row is superseded.
	CancelRemoteSubscription(ctx context.Context, remoteSubscriptionID string) error
}
