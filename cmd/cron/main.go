package main

import (
	"context"
	"time"

	"github.com/inboz-admin/inboz-app-sub004/internal/cache"
	"github.com/inboz-admin/inboz-app-sub004/internal/config"
	"github.com/inboz-admin/inboz-app-sub004/internal/integration"
	"github.com/inboz-admin/inboz-app-sub004/internal/logger"
	"github.com/inboz-admin/inboz-app-sub004/internal/postgres"
	"github.com/inboz-admin/inboz-app-sub004/internal/repository"
	"github.com/inboz-admin/inboz-app-sub004/internal/service"
	"github.com/inboz-admin/inboz-app-sub004/internal/types"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
)

// sweepSchedule runs the expiry sweep every hour on the hour.
const sweepSchedule = "0 * * * *"

func init() {
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			config.NewConfig,
			logger.NewLogger,
			provideCache,
			integration.NewFactory,

			repository.NewPlanRepository,
			repository.NewOrganizationRepository,
			repository.NewSubscriptionRepository,
			repository.NewInvoiceRepository,

			service.NewServiceParams,
			service.NewRenewalService,
		),
		postgres.Module(),
		fx.Invoke(startCron),
	)
	app.Run()
}

func provideCache(log *logger.Logger) cache.Cache {
	cache.Initialize(log)
	return cache.NewInMemoryCache()
}

func startCron(
	lc fx.Lifecycle,
	renewalService service.RenewalService,
	log *logger.Logger,
) {
	c := cron.New()

	_, err := c.AddFunc(sweepSchedule, func() {
		ctx := sweepContext()
		result, err := renewalService.RunExpirySweep(ctx)
		if err != nil {
			log.Errorw("expiry sweep failed", "error", err)
			return
		}
		log.Infow("expiry sweep completed",
			"expired_trials", result.ExpiredTrials,
			"expired_subscriptions", result.ExpiredSubscriptions,
			"cancelled_at_period_end", result.CancelledAtPeriodEnd,
			"applied_pending_changes", result.AppliedPendingChanges,
			"renewal_invoices", result.RenewalInvoices,
			"failures", result.Failures,
		)
	})
	if err != nil {
		log.Fatalf("Failed to schedule expiry sweep: %v", err)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting cron scheduler", "schedule", sweepSchedule)
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping cron scheduler...")
			stopCtx := c.Stop()
			<-stopCtx.Done()
			return nil
		},
	})
}

func sweepContext() context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, types.CtxTenantID, types.DefaultTenantID)
	ctx = context.WithValue(ctx, types.CtxUserID, types.DefaultUserID)
	ctx = context.WithValue(ctx, types.CtxRequestID, types.GenerateUUID())
	return ctx
}
