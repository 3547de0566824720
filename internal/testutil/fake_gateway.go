package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/inboz-admin/inboz-app-sub004/internal/domain/organization"
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/inboz-admin/inboz-app-sub004/internal/integration/gateway"
	"github.com/inboz-admin/inboz-app-sub004/internal/types"
	"github.com/shopspring/decimal"
)

// FakePaymentGateway is a scriptable in-memory gateway. Orders created
// through it are retrievable by id; verification succeeds unless FailVerify
// is set.
type FakePaymentGateway struct {
	ProviderName types.PaymentProvider

	// FailVerify makes VerifyPayment report a verification failure.
	FailVerify bool
	// PaymentPending makes VerifyPayment report the payment as unpaid.
	PaymentPending bool

	mu             sync.Mutex
	orders         map[string]*gateway.CheckoutOrder
	orderSeq       int
	customerSeq    int
	CancelledSubs  []string
	CreatedOrders  []string
	CreatedUserIDs []string
}

func NewFakePaymentGateway(provider types.PaymentProvider) *FakePaymentGateway {
	return &FakePaymentGateway{
		ProviderName: provider,
		orders:       make(map[string]*gateway.CheckoutOrder),
	}
}

func (g *FakePaymentGateway) Provider() types.PaymentProvider {
	return g.ProviderName
}

func (g *FakePaymentGateway) CreateCustomer(ctx context.Context, org *organization.Organization) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.customerSeq++
	id := fmt.Sprintf("cust_%s_%d", g.ProviderName, g.customerSeq)
	g.CreatedUserIDs = append(g.CreatedUserIDs, id)
	return id, nil
}

func (g *FakePaymentGateway) CreateOrder(ctx context.Context, req gateway.CreateOrderRequest) (*gateway.CheckoutOrder, error) {
	if !req.Amount.IsPositive() {
		return nil, ierr.NewError("checkout amount must be positive").
			Mark(ierr.ErrValidation)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.orderSeq++
	order := &gateway.CheckoutOrder{
		Provider:    g.ProviderName,
		OrderID:     fmt.Sprintf("order_%s_%d", g.ProviderName, g.orderSeq),
		CheckoutURL: fmt.Sprintf("https://checkout.test/%s/%d", g.ProviderName, g.orderSeq),
		Amount:      req.Amount,
		Currency:    req.Currency,
		Metadata:    req.Metadata,
	}
	g.orders[order.OrderID] = order
	g.CreatedOrders = append(g.CreatedOrders, order.OrderID)
	return order, nil
}

// SetOrderAmount rewrites a stored order's amount, simulating a gateway
// order that no longer matches the recorded quote.
func (g *FakePaymentGateway) SetOrderAmount(orderID string, amount decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if order, ok := g.orders[orderID]; ok {
		order.Amount = amount
	}
}

func (g *FakePaymentGateway) GetOrder(ctx context.Context, orderID string) (*gateway.CheckoutOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	order, ok := g.orders[orderID]
	if !ok {
		return nil, ierr.NewError("order not found").
			WithHintf("Order '%s' does not exist", orderID).
			Mark(ierr.ErrNotFound)
	}
	return order, nil
}

func (g *FakePaymentGateway) VerifyPayment(ctx context.Context, req gateway.VerifyPaymentRequest) error {
	if g.FailVerify {
		return ierr.NewError("signature mismatch").
			Mark(ierr.ErrPaymentVerificationFailed)
	}
	if g.PaymentPending {
		return ierr.NewError("payment is not captured").
			Mark(ierr.ErrPaymentNotConfirmed)
	}
	return nil
}

func (g *FakePaymentGateway) GetPaymentStatus(ctx context.Context, paymentID string) (gateway.PaymentStatus, error) {
	if g.PaymentPending {
		return gateway.PaymentStatusPending, nil
	}
	return gateway.PaymentStatusSucceeded, nil
}

func (g *FakePaymentGateway) CancelRemoteSubscription(ctx context.Context, remoteSubscriptionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.CancelledSubs = append(g.CancelledSubs, remoteSubscriptionID)
	return nil
}

var _ gateway.PaymentGateway = (*FakePaymentGateway)(nil)
