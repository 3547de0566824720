package service

import (
	"github.com/inboz-admin/inboz-app-sub004/internal/cache"
	"github.com/inboz-admin/inboz-app-sub004/internal/config"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/invoice"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/organization"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/plan"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/subscription"
	"github.com/inboz-admin/inboz-app-sub004/internal/integration"
	"github.com/inboz-admin/inboz-app-sub004/internal/logger"
	"github.com/inboz-admin/inboz-app-sub004/internal/postgres"
)

// ServiceParams holds the common dependencies for services.
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	// Repositories
	PlanRepo    plan.Repository
	OrgRepo     organization.Repository
	SubRepo     subscription.Repository
	InvoiceRepo invoice.Repository

	Cache    cache.Cache
	Gateways *integration.Factory
}

// NewServiceParams assembles the common service dependencies for injection.
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	planRepo plan.Repository,
	orgRepo organization.Repository,
	subRepo subscription.Repository,
	invoiceRepo invoice.Repository,
	cache cache.Cache,
	gateways *integration.Factory,
) ServiceParams {
	return ServiceParams{
		Logger:      logger,
		Config:      config,
		DB:          db,
		PlanRepo:    planRepo,
		OrgRepo:     orgRepo,
		SubRepo:     subRepo,
		InvoiceRepo: invoiceRepo,
		Cache:       cache,
		Gateways:    gateways,
	}
}
