package integration

import (
	"github.com/inboz-admin/inboz-app-sub004/internal/config"
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/inboz-admin/inboz-app-sub004/internal/integration/gateway"
	"github.com/inboz-admin/inboz-app-sub004/internal/integration/razorpay"
	"github.com/inboz-admin/inboz-app-sub004/internal/integration/stripe"
	"github.com/inboz-admin/inboz-app-sub004/internal/logger"
	"github.com/inboz-admin/inboz-app-sub004/internal/types"
)

// Factory resolves the gateway adapter for a provider.
type Factory struct {
	gateways map[types.PaymentProvider]gateway.PaymentGateway
}

// NewFactory wires the configured gateway adapters.
func NewFactory(cfg *config.Configuration, log *logger.Logger) *Factory {
	f := &Factory{
		gateways: make(map[types.PaymentProvider]gateway.PaymentGateway),
	}
	if cfg.Stripe.SecretKey != "" {
		f.gateways[types.PaymentProviderStripe] = stripe.NewGateway(cfg, log)
	}
	if cfg.Razorpay.KeyID != "" {
		f.gateways[types.PaymentProviderRazorpay] = razorpay.NewGateway(cfg, log)
	}
	return f
}

// NewFactoryWithGateways builds a factory from explicit adapters; used by
// tests to install fakes.
func NewFactoryWithGateways(adapters ...gateway.PaymentGateway) *Factory {
	f := &Factory{
		gateways: make(map[types.PaymentProvider]gateway.PaymentGateway),
	}
	for _, g := range adapters {
		f.gateways[g.Provider()] = g
	}
	return f
}

// Gateway returns the adapter for the provider.
func (f *Factory) Gateway(provider types.PaymentProvider) (gateway.PaymentGateway, error) {
	if err := provider.Validate(); err != nil {
		return nil, err
	}
	gw, ok := f.gateways[provider]
	if !ok {
		return nil, ierr.NewError("payment provider not configured").
			WithHintf("Provider '%s' has no credentials configured", provider).
			Mark(ierr.ErrInvalidOperation)
	}
	return gw, nil
}
