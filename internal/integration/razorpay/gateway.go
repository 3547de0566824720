package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/inboz-admin/inboz-app-sub004/internal/config"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/organization"
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/inboz-admin/inboz-app-sub004/internal/integration/gateway"
	"github.com/inboz-admin/inboz-app-sub004/internal/logger"
	"github.com/inboz-admin/inboz-app-sub004/internal/types"
	razorpay "github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"
)

// Gateway is the Razorpay implementation of the payment gateway port. It
// creates orders the client pays via Razorpay Checkout; verification checks
// an HMAC-SHA256 signature over "<order_id>|<payment_id>" and then the
// captured status of the payment.
type Gateway struct {
	client *razorpay.Client
	cfg    *config.Configuration
	logger *logger.Logger
}

func NewGateway(cfg *config.Configuration, log *logger.Logger) *Gateway {
	return &Gateway{
		client: razorpay.NewClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret),
		cfg:    cfg,
		logger: log,
	}
}

func (g *Gateway) Provider() types.PaymentProvider {
	return types.PaymentProviderRazorpay
}

func (g *Gateway) CreateCustomer(ctx context.Context, org *organization.Organization) (string, error) {
	data := map[string]interface{}{
		"name":          org.Name,
		"email":         org.BillingEmail,
		"fail_existing": "0",
		"notes": map[string]interface{}{
			"organization_id": org.ID,
		},
	}

	customer, err := g.client.Customer.Create(data, nil)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to create customer in Razorpay").
			WithReportableDetails(map[string]any{
				"organization_id": org.ID,
			}).
			Mark(ierr.ErrSystem)
	}

	customerID, ok := customer["id"].(string)
	if !ok || customerID == "" {
		return "", ierr.NewError("razorpay customer response missing id").
			Mark(ierr.ErrSystem)
	}

	g.logger.Infow("created razorpay customer",
		"organization_id", org.ID,
		"razorpay_customer_id", customerID)

	return customerID, nil
}

func (g *Gateway) CreateOrder(ctx context.Context, req gateway.CreateOrderRequest) (*gateway.CheckoutOrder, error) {
	// Razorpay amounts are in the currency's smallest unit
	amountSubunits := req.Amount.Shift(2).IntPart()
	if amountSubunits <= 0 {
		return nil, ierr.NewError("checkout amount must be positive").
			WithReportableDetails(map[string]any{
				"amount": req.Amount,
			}).
			Mark(ierr.ErrValidation)
	}

	notes := make(map[string]interface{}, len(req.Metadata))
	for k, v := range req.Metadata {
		notes[k] = v
	}

	data := map[string]interface{}{
		"amount":   amountSubunits,
		"currency": req.Currency,
		"receipt":  types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		"notes":    notes,
	}

	order, err := g.client.Order.Create(data, nil)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to create Razorpay order").
			Mark(ierr.ErrSystem)
	}

	orderID, ok := order["id"].(string)
	if !ok || orderID == "" {
		return nil, ierr.NewError("razorpay order response missing id").
			Mark(ierr.ErrSystem)
	}

	g.logger.Infow("created razorpay order",
		"order_id", orderID,
		"amount_subunits", amountSubunits,
		"currency", req.Currency)

	return &gateway.CheckoutOrder{
		Provider: types.PaymentProviderRazorpay,
		OrderID:  orderID,
		Amount:   req.Amount,
		Currency: req.Currency,
		Metadata: req.Metadata,
	}, nil
}

// GetOrder fetches a previously created order and reconstructs the intent
// metadata from its notes.
func (g *Gateway) GetOrder(ctx context.Context, orderID string) (*gateway.CheckoutOrder, error) {
	order, err := g.client.Order.Fetch(orderID, nil, nil)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to fetch Razorpay order").
			WithReportableDetails(map[string]any{
				"order_id": orderID,
			}).
			Mark(ierr.ErrSystem)
	}

	metadata := make(types.Metadata)
	if notes, ok := order["notes"].(map[string]interface{}); ok {
		for k, v := range notes {
			if s, ok := v.(string); ok {
				metadata[k] = s
			}
		}
	}

	amountSubunits, _ := order["amount"].(float64)
	currency, _ := order["currency"].(string)

	return &gateway.CheckoutOrder{
		Provider: types.PaymentProviderRazorpay,
		OrderID:  orderID,
		Amount:   decimal.NewFromFloat(amountSubunits).Shift(-2),
		Currency: currency,
		Metadata: metadata,
	}, nil
}

// VerifyPayment checks the checkout signature and then confirms the
// payment is captured on the Razorpay side.
func (g *Gateway) VerifyPayment(ctx context.Context, req gateway.VerifyPaymentRequest) error {
	if req.Signature == "" {
		return ierr.NewError("missing razorpay signature").
			WithHint("Razorpay payments require a checkout signature").
			Mark(ierr.ErrPaymentVerificationFailed)
	}

	payload := fmt.Sprintf("%s|%s", req.OrderID, req.PaymentID)
	mac := hmac.New(sha256.New, []byte(g.cfg.Razorpay.KeySecret))
	mac.Write([]byte(payload))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(req.Signature)) {
		return ierr.NewError("razorpay signature mismatch").
			WithHint("Payment signature verification failed").
			WithReportableDetails(map[string]any{
				"order_id":   req.OrderID,
				"payment_id": req.PaymentID,
			}).
			Mark(ierr.ErrPaymentVerificationFailed)
	}

	status, err := g.GetPaymentStatus(ctx, req.PaymentID)
	if err != nil {
		return err
	}
	if status != gateway.PaymentStatusSucceeded {
		return ierr.NewError("razorpay payment is not captured").
			WithHint("Payment has not been captured yet").
			WithReportableDetails(map[string]any{
				"payment_id": req.PaymentID,
				"status":     status,
			}).
			Mark(ierr.ErrPaymentNotConfirmed)
	}

	return nil
}

func (g *Gateway) GetPaymentStatus(ctx context.Context, paymentID string) (gateway.PaymentStatus, error) {
	payment, err := g.client.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to fetch Razorpay payment").
			Mark(ierr.ErrSystem)
	}

	status, _ := payment["status"].(string)
	switch status {
	case "captured":
		return gateway.PaymentStatusSucceeded, nil
	case "failed":
		return gateway.PaymentStatusFailed, nil
	default:
		return gateway.PaymentStatusPending, nil
	}
}

func (g *Gateway) CancelRemoteSubscription(ctx context.Context, remoteSubscriptionID string) error {
	_, err := g.client.Subscription.Cancel(remoteSubscriptionID, nil, nil)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to cancel Razorpay subscription").
			WithReportableDetails(map[string]any{
				"razorpay_subscription_id": remoteSubscriptionID,
			}).
			Mark(ierr.ErrSystem)
	}
	return nil
}
