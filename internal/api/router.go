package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/inboz-admin/inboz-app-sub004/internal/api/v1"
	"github.com/inboz-admin/inboz-app-sub004/internal/rest/middleware"
)

type Handlers struct {
	Pricing      *v1.PricingHandler
	Subscription *v1.SubscriptionHandler
	Payment      *v1.PaymentHandler
	Invoice      *v1.InvoiceHandler
	Renewal      *v1.RenewalHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.Default()

	router.Use(
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.ErrorHandler(),
	)

	// v1 routes
	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	// Pricing routes
	pricing := router.Group("/pricing")
	{
		pricing.POST("/quote", handlers.Pricing.QuotePrice)
	}

	// Subscription routes
	subscriptions := router.Group("/subscriptions")
	{
		subscriptions.POST("/trial", handlers.Subscription.CreateTrial)
		subscriptions.GET("/current/:organization_id", handlers.Subscription.GetCurrent)
		subscriptions.POST("/cancel", handlers.Subscription.Cancel)
		subscriptions.POST("/seats/reduce", handlers.Subscription.ScheduleSeatReduction)
		subscriptions.POST("/plan/downgrade", handlers.Subscription.SchedulePlanDowngrade)
		subscriptions.POST("/plan/change", handlers.Subscription.ChangePlan)
		subscriptions.POST("/billing-cycle", handlers.Subscription.ChangeBillingCycle)
	}

	// Payment routes
	payments := router.Group("/payments")
	{
		payments.POST("/initiate", handlers.Payment.Initiate)
		payments.POST("/verify", handlers.Payment.Verify)
		payments.POST("/failure", handlers.Payment.HandleFailure)
	}

	// Invoice routes
	invoices := router.Group("/invoices")
	{
		invoices.GET("", handlers.Invoice.ListInvoices)
		invoices.GET("/:id", handlers.Invoice.GetInvoice)
	}

	// Admin routes
	admin := router.Group("/admin")
	{
		admin.POST("/subscriptions/override-upgrade", handlers.Payment.AdminOverrideUpgrade)
	}

	// Internal routes
	internal := router.Group("/internal")
	{
		internal.POST("/sweep", handlers.Renewal.RunSweep)
	}
}
