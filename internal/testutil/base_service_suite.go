package testutil

import (
	"context"
	"time"

	"github.com/inboz-admin/inboz-app-sub004/internal/cache"
	"github.com/inboz-admin/inboz-app-sub004/internal/config"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/invoice"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/subscription"
	"github.com/inboz-admin/inboz-app-sub004/internal/integration"
	"github.com/inboz-admin/inboz-app-sub004/internal/logger"
	"github.com/inboz-admin/inboz-app-sub004/internal/postgres"
	"github.com/inboz-admin/inboz-app-sub004/internal/types"
	"github.com/stretchr/testify/suite"
)

// SetupContext returns a context seeded with the default tenant and user,
// for tests that do not need the full suite.
func SetupContext() context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, types.CtxTenantID, types.DefaultTenantID)
	ctx = context.WithValue(ctx, types.CtxUserID, types.DefaultUserID)
	ctx = context.WithValue(ctx, types.CtxRequestID, types.GenerateUUID())
	return ctx
}

// Stores holds all the repository interfaces for testing
type Stores struct {
	PlanRepo         *InMemoryPlanStore
	OrganizationRepo *InMemoryOrganizationStore
	SubscriptionRepo subscription.Repository
	InvoiceRepo      invoice.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx        context.Context
	stores     Stores
	db         postgres.IClient
	logger     *logger.Logger
	config     *config.Configuration
	now        time.Time
	stripeGW   *FakePaymentGateway
	razorpayGW *FakePaymentGateway
	gateways   *integration.Factory
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	cfg := &config.Configuration{
		Logging: config.LoggingConfig{
			Level: types.LogLevelInfo,
		},
		Billing: config.BillingConfig{
			TrialDays:             7,
			Currency:              "usd",
			RenewalNoticeDays:     7,
			IdempotencyWindowSecs: 120,
		},
	}
	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}

	cache.Initialize(s.logger)
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = context.Background()
	s.ctx = context.WithValue(s.ctx, types.CtxTenantID, types.DefaultTenantID)
	s.ctx = context.WithValue(s.ctx, types.CtxUserID, types.DefaultUserID)
	s.ctx = context.WithValue(s.ctx, types.CtxRequestID, types.GenerateUUID())
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		PlanRepo:         NewInMemoryPlanStore(),
		OrganizationRepo: NewInMemoryOrganizationStore(),
		SubscriptionRepo: NewInMemorySubscriptionStore(),
		InvoiceRepo:      NewInMemoryInvoiceStore(),
	}

	s.db = NewMockPostgresClient(s.logger)
	s.stripeGW = NewFakePaymentGateway(types.PaymentProviderStripe)
	s.razorpayGW = NewFakePaymentGateway(types.PaymentProviderRazorpay)
	s.gateways = integration.NewFactoryWithGateways(s.stripeGW, s.razorpayGW)
	cache.NewInMemoryCache().Flush(s.ctx)
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.PlanRepo.Clear()
	s.stores.OrganizationRepo.Clear()
	s.stores.SubscriptionRepo.(*InMemorySubscriptionStore).Clear()
	s.stores.InvoiceRepo.(*InMemoryInvoiceStore).Clear()
}

func (s *BaseServiceTestSuite) ClearStores() {
	s.clearStores()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetDB returns the test database client
func (s *BaseServiceTestSuite) GetDB() postgres.IClient {
	return s.db
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetGateways returns the gateway factory backed by fakes
func (s *BaseServiceTestSuite) GetGateways() *integration.Factory {
	return s.gateways
}

// GetStripeGateway returns the fake stripe adapter
func (s *BaseServiceTestSuite) GetStripeGateway() *FakePaymentGateway {
	return s.stripeGW
}

// GetRazorpayGateway returns the fake razorpay adapter
func (s *BaseServiceTestSuite) GetRazorpayGateway() *FakePaymentGateway {
	return s.razorpayGW
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}

// GetUUID returns a new UUID string
func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}
