package stripe

import (
	"context"

	"github.com/inboz-admin/inboz-app-sub004/internal/config"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/organization"
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/inboz-admin/inboz-app-sub004/internal/integration/gateway"
	"github.com/inboz-admin/inboz-app-sub004/internal/logger"
	"github.com/inboz-admin/inboz-app-sub004/internal/types"
	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v82"
)

// Gateway is the Stripe implementation of the payment gateway port. It
// opens Checkout Sessions in payment mode; verification inspects the
// session's payment status rather than a request signature.
type Gateway struct {
	client *stripe.Client
	cfg    *config.Configuration
	logger *logger.Logger
}

func NewGateway(cfg *config.Configuration, log *logger.Logger) *Gateway {
	return &Gateway{
		client: stripe.NewClient(cfg.Stripe.SecretKey, nil),
		cfg:    cfg,
		logger: log,
	}
}

func (g *Gateway) Provider() types.PaymentProvider {
	return types.PaymentProviderStripe
}

func (g *Gateway) CreateCustomer(ctx context.Context, org *organization.Organization) (string, error) {
	params := &stripe.CustomerCreateParams{
		Name:  stripe.String(org.Name),
		Email: stripe.String(org.BillingEmail),
		Metadata: map[string]string{
			"organization_id": org.ID,
		},
	}

	customer, err := g.client.V1Customers.Create(ctx, params)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to create customer in Stripe").
			WithReportableDetails(map[string]any{
				"organization_id": org.ID,
			}).
			Mark(ierr.ErrSystem)
	}

	g.logger.Infow("created stripe customer",
		"organization_id", org.ID,
		"stripe_customer_id", customer.ID)

	return customer.ID, nil
}

func (g *Gateway) CreateOrder(ctx context.Context, req gateway.CreateOrderRequest) (*gateway.CheckoutOrder, error) {
	amountCents := req.Amount.Shift(2).IntPart()
	if amountCents <= 0 {
		return nil, ierr.NewError("checkout amount must be positive").
			WithReportableDetails(map[string]any{
				"amount": req.Amount,
			}).
			Mark(ierr.ErrValidation)
	}

	params := &stripe.CheckoutSessionCreateParams{
		Mode:       stripe.String("payment"),
		Customer:   stripe.String(req.CustomerID),
		SuccessURL: stripe.String(g.cfg.Stripe.SuccessURL),
		CancelURL:  stripe.String(g.cfg.Stripe.CancelURL),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(amountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: req.Metadata,
	}

	session, err := g.client.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to create Stripe checkout session").
			Mark(ierr.ErrSystem)
	}

	g.logger.Infow("created stripe checkout session",
		"session_id", session.ID,
		"amount_cents", amountCents,
		"currency", req.Currency)

	return &gateway.CheckoutOrder{
		Provider:    types.PaymentProviderStripe,
		OrderID:     session.ID,
		CheckoutURL: session.URL,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Metadata:    req.Metadata,
	}, nil
}

// GetOrder retrieves the checkout session and returns the recorded intent
// metadata along with the captured amount.
func (g *Gateway) GetOrder(ctx context.Context, orderID string) (*gateway.CheckoutOrder, error) {
	session, err := g.client.V1CheckoutSessions.Retrieve(ctx, orderID, nil)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to retrieve Stripe checkout session").
			WithReportableDetails(map[string]any{
				"session_id": orderID,
			}).
			Mark(ierr.ErrSystem)
	}

	return &gateway.CheckoutOrder{
		Provider:    types.PaymentProviderStripe,
		OrderID:     session.ID,
		CheckoutURL: session.URL,
		Amount:      decimal.NewFromInt(session.AmountTotal).Shift(-2),
		Currency:    string(session.Currency),
		Metadata:    session.Metadata,
	}, nil
}

// VerifyPayment retrieves the checkout session and requires its payment
// status to be paid. Stripe has no client-supplied signature to check.
func (g *Gateway) VerifyPayment(ctx context.Context, req gateway.VerifyPaymentRequest) error {
	params := &stripe.CheckoutSessionRetrieveParams{
		Expand: []*string{
			stripe.String("payment_intent"),
		},
	}

	session, err := g.client.V1CheckoutSessions.Retrieve(ctx, req.OrderID, params)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to retrieve Stripe checkout session").
			WithReportableDetails(map[string]any{
				"session_id": req.OrderID,
			}).
			Mark(ierr.ErrPaymentVerificationFailed)
	}

	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return ierr.NewError("stripe checkout session is not paid").
			WithHint("Payment has not been captured yet").
			WithReportableDetails(map[string]any{
				"session_id":     req.OrderID,
				"payment_status": session.PaymentStatus,
			}).
			Mark(ierr.ErrPaymentNotConfirmed)
	}

	return nil
}

func (g *Gateway) GetPaymentStatus(ctx context.Context, paymentID string) (gateway.PaymentStatus, error) {
	intent, err := g.client.V1PaymentIntents.Retrieve(ctx, paymentID, nil)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to retrieve Stripe payment intent").
			Mark(ierr.ErrSystem)
	}

	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return gateway.PaymentStatusSucceeded, nil
	case stripe.PaymentIntentStatusCanceled:
		return gateway.PaymentStatusFailed, nil
	default:
		return gateway.PaymentStatusPending, nil
	}
}

func (g *Gateway) CancelRemoteSubscription(ctx context.Context, remoteSubscriptionID string) error {
	_, err := g.client.V1Subscriptions.Cancel(ctx, remoteSubscriptionID, nil)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to cancel Stripe subscription").
			WithReportableDetails(map[string]any{
				"stripe_subscription_id": remoteSubscriptionID,
			}).
			Mark(ierr.ErrSystem)
	}
	return nil
}
