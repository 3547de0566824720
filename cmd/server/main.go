package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inboz-admin/inboz-app-sub004/internal/api"
	v1 "github.com/inboz-admin/inboz-app-sub004/internal/api/v1"
	"github.com/inboz-admin/inboz-app-sub004/internal/cache"
	"github.com/inboz-admin/inboz-app-sub004/internal/config"
	"github.com/inboz-admin/inboz-app-sub004/internal/integration"
	"github.com/inboz-admin/inboz-app-sub004/internal/logger"
	"github.com/inboz-admin/inboz-app-sub004/internal/postgres"
	"github.com/inboz-admin/inboz-app-sub004/internal/repository"
	"github.com/inboz-admin/inboz-app-sub004/internal/service"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			provideCache,

			// Payment gateways
			integration.NewFactory,

			// Repositories
			repository.NewPlanRepository,
			repository.NewOrganizationRepository,
			repository.NewSubscriptionRepository,
			repository.NewInvoiceRepository,
		),
		postgres.Module(),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewPricingService,
			service.NewSubscriptionService,
			service.NewInvoiceService,
			service.NewPaymentService,
			service.NewRenewalService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideCache(log *logger.Logger) cache.Cache {
	cache.Initialize(log)
	return cache.NewInMemoryCache()
}

func provideHandlers(
	logger *logger.Logger,
	pricingService service.PricingService,
	subscriptionService service.SubscriptionService,
	paymentService service.PaymentService,
	invoiceService service.InvoiceService,
	renewalService service.RenewalService,
) api.Handlers {
	return api.Handlers{
		Pricing:      v1.NewPricingHandler(pricingService, logger),
		Subscription: v1.NewSubscriptionHandler(subscriptionService, logger),
		Payment:      v1.NewPaymentHandler(paymentService, logger),
		Invoice:      v1.NewInvoiceHandler(invoiceService, logger),
		Renewal:      v1.NewRenewalHandler(renewalService, logger),
	}
}

func provideRouter(handlers api.Handlers) *gin.Engine {
	return api.NewRouter(handlers)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting API server...")
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}
