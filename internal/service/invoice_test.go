package service

import (
	"testing"
	"time"

	"github.com/inboz-admin/inboz-app-sub004/internal/cache"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/plan"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/subscription"
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/inboz-admin/inboz-app-sub004/internal/testutil"
	"github.com/inboz-admin/inboz-app-sub004/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type InvoiceServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  InvoiceService
	testData struct {
		plan *plan.Plan
		sub  *subscription.Subscription
	}
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceSuite))
}

func (s *InvoiceServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewInvoiceService(ServiceParams{
		Logger:      s.GetLogger(),
		Config:      s.GetConfig(),
		DB:          s.GetDB(),
		PlanRepo:    s.GetStores().PlanRepo,
		OrgRepo:     s.GetStores().OrganizationRepo,
		SubRepo:     s.GetStores().SubscriptionRepo,
		InvoiceRepo: s.GetStores().InvoiceRepo,
		Cache:       cache.NewInMemoryCache(),
		Gateways:    s.GetGateways(),
	})
	s.setupTestData()
}

func (s *InvoiceServiceSuite) setupTestData() {
	ctx := s.GetContext()
	now := time.Now().UTC()

	s.testData.plan = &plan.Plan{
		ID:                  "plan_basic",
		Name:                "Basic",
		LookupKey:           "basic",
		PricePerUserMonthly: decimal.NewFromInt(15),
		PricePerUserYearly:  decimal.NewFromInt(150),
		BaseModel:           types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PlanRepo.Create(ctx, s.testData.plan))

	s.testData.sub = &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		OrganizationID:     "org_1",
		PlanID:             s.testData.plan.ID,
		SubscriptionStatus: types.SubscriptionStatusActive,
		BillingCycle:       types.BILLING_CYCLE_MONTHLY,
		UserCount:          6,
		Amount:             decimal.NewFromInt(90),
		FinalAmount:        decimal.NewFromInt(81),
		Currency:           "usd",
		CurrentPeriodStart: now.AddDate(0, 0, -27),
		CurrentPeriodEnd:   now.AddDate(0, 0, 3),
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().SubscriptionRepo.Create(ctx, s.testData.sub))
}

func (s *InvoiceServiceSuite) TestGenerateRenewalInvoice() {
	inv, err := s.service.GenerateRenewalInvoice(s.GetContext(), s.testData.sub, s.testData.plan)
	s.NoError(err)

	s.Equal(types.InvoiceStatusOpen, inv.InvoiceStatus)
	s.Equal(types.InvoiceBillingReasonRenewal, inv.BillingReason)
	s.True(inv.Total.Equal(decimal.NewFromInt(81)))
	s.True(inv.AmountPaid.IsZero())
	s.True(inv.AmountDue.Equal(inv.Total))
	s.Nil(inv.PaidAt)
	s.NotNil(inv.DueDate)
	s.True(inv.DueDate.Equal(s.testData.sub.CurrentPeriodEnd))
	s.NotEmpty(inv.InvoiceNumber)

	// Base line at the undiscounted price plus a negative discount line.
	s.Len(inv.Breakdown.LineItems, 2)
	s.True(inv.Breakdown.LineItems[0].Amount.Equal(decimal.NewFromInt(90)))
	s.True(inv.Breakdown.LineItems[1].Amount.Equal(decimal.NewFromInt(-9)))
}

func (s *InvoiceServiceSuite) TestGetInvoice() {
	created, err := s.service.GenerateRenewalInvoice(s.GetContext(), s.testData.sub, s.testData.plan)
	s.NoError(err)

	resp, err := s.service.GetInvoice(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(created.ID, resp.Invoice.ID)
	s.Equal(created.InvoiceNumber, resp.Invoice.InvoiceNumber)

	_, err = s.service.GetInvoice(s.GetContext(), "inv_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *InvoiceServiceSuite) TestListInvoices() {
	_, err := s.service.GenerateRenewalInvoice(s.GetContext(), s.testData.sub, s.testData.plan)
	s.NoError(err)
	_, err = s.service.GenerateRenewalInvoice(s.GetContext(), s.testData.sub, s.testData.plan)
	s.NoError(err)

	resp, err := s.service.ListInvoices(s.GetContext(), "org_1")
	s.NoError(err)
	s.Equal(2, resp.Total)
	s.Len(resp.Items, 2)

	empty, err := s.service.ListInvoices(s.GetContext(), "org_other")
	s.NoError(err)
	s.Equal(0, empty.Total)
}
