package service

import (
	"testing"
	"time"

	"github.com/inboz-admin/inboz-app-sub004/internal/cache"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/organization"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/plan"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/subscription"
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/inboz-admin/inboz-app-sub004/internal/testutil"
	"github.com/inboz-admin/inboz-app-sub004/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type RenewalServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  RenewalService
	testData struct {
		org       *organization.Organization
		basicPlan *plan.Plan
	}
}

func TestRenewalService(t *testing.T) {
	suite.Run(t, new(RenewalServiceSuite))
}

func (s *RenewalServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewRenewalService(s.serviceParams())
	s.setupTestData()
}

func (s *RenewalServiceSuite) serviceParams() ServiceParams {
	return ServiceParams{
		Logger:      s.GetLogger(),
		Config:      s.GetConfig(),
		DB:          s.GetDB(),
		PlanRepo:    s.GetStores().PlanRepo,
		OrgRepo:     s.GetStores().OrganizationRepo,
		SubRepo:     s.GetStores().SubscriptionRepo,
		InvoiceRepo: s.GetStores().InvoiceRepo,
		Cache:       cache.NewInMemoryCache(),
		Gateways:    s.GetGateways(),
	}
}

func (s *RenewalServiceSuite) setupTestData() {
	ctx := s.GetContext()

	s.testData.org = &organization.Organization{
		ID:           "org_1",
		Name:         "Acme",
		BillingEmail: "billing@acme.test",
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().OrganizationRepo.Create(ctx, s.testData.org))

	s.testData.basicPlan = &plan.Plan{
		ID:                  "plan_basic",
		Name:                "Basic",
		LookupKey:           "basic",
		PricePerUserMonthly: decimal.NewFromInt(15),
		PricePerUserYearly:  decimal.NewFromInt(150),
		BaseModel:           types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PlanRepo.Create(ctx, s.testData.basicPlan))
}

func (s *RenewalServiceSuite) seedSub(mutate func(*subscription.Subscription)) *subscription.Subscription {
	ctx := s.GetContext()
	now := time.Now().UTC()
	sub := &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		OrganizationID:     s.testData.org.ID,
		PlanID:             s.testData.basicPlan.ID,
		SubscriptionStatus: types.SubscriptionStatusActive,
		BillingCycle:       types.BILLING_CYCLE_MONTHLY,
		UserCount:          3,
		Amount:             decimal.NewFromInt(45),
		FinalAmount:        decimal.NewFromInt(45),
		Currency:           "usd",
		CurrentPeriodStart: now.AddDate(0, 0, -15),
		CurrentPeriodEnd:   now.AddDate(0, 0, 15),
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	if mutate != nil {
		mutate(sub)
	}
	s.NoError(s.GetStores().SubscriptionRepo.Create(ctx, sub))
	return sub
}

func (s *RenewalServiceSuite) TestSweepExpiresTrials() {
	now := time.Now().UTC()
	trial := s.seedSub(func(sub *subscription.Subscription) {
		sub.SubscriptionStatus = types.SubscriptionStatusTrial
		sub.UserCount = 1
		sub.Amount = decimal.Zero
		sub.FinalAmount = decimal.Zero
		sub.TrialEnd = lo.ToPtr(now.AddDate(0, 0, -1))
		sub.CurrentPeriodEnd = now.AddDate(0, 0, -1)
	})

	result, err := s.service.RunExpirySweep(s.GetContext())
	s.NoError(err)
	s.Equal(1, result.ExpiredTrials)
	s.Equal(0, result.Failures)

	got, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), trial.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusCancelled, got.SubscriptionStatus)
	s.Equal("trial expired", got.CancelReason)
	s.NotNil(got.CancelledAt)
}

func (s *RenewalServiceSuite) TestSweepCancelsExpiredSubscriptions() {
	now := time.Now().UTC()
	expired := s.seedSub(func(sub *subscription.Subscription) {
		sub.CurrentPeriodStart = now.AddDate(0, -1, -1)
		sub.CurrentPeriodEnd = now.AddDate(0, 0, -1)
	})

	result, err := s.service.RunExpirySweep(s.GetContext())
	s.NoError(err)
	s.Equal(1, result.ExpiredSubscriptions)

	got, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), expired.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusCancelled, got.SubscriptionStatus)
	s.Equal("period expired without renewal", got.CancelReason)
}

func (s *RenewalServiceSuite) TestSweepAppliesPendingChangesAtPeriodEnd() {
	now := time.Now().UTC()
	sub := s.seedSub(func(sub *subscription.Subscription) {
		sub.UserCount = 10
		sub.CurrentPeriodStart = now.AddDate(0, -1, -1)
		sub.CurrentPeriodEnd = now.AddDate(0, 0, -1)
		sub.PendingUserCount = lo.ToPtr(6)
		sub.PendingChangeReason = lo.ToPtr(types.PendingChangeReasonSeatReduction)
	})

	result, err := s.service.RunExpirySweep(s.GetContext())
	s.NoError(err)
	s.Equal(1, result.AppliedPendingChanges)
	s.Equal(0, result.ExpiredSubscriptions)

	got, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), sub.ID)
	s.NoError(err)
	// The row survives the boundary with the reduction applied.
	s.Equal(types.SubscriptionStatusActive, got.SubscriptionStatus)
	s.Equal(6, got.UserCount)
	s.Nil(got.PendingUserCount)
	s.True(got.CurrentPeriodEnd.After(now))
	s.True(got.FinalAmount.Equal(decimal.NewFromInt(81)))
}

func (s *RenewalServiceSuite) TestSweepProcessesScheduledCancellations() {
	now := time.Now().UTC()
	sub := s.seedSub(func(sub *subscription.Subscription) {
		sub.CancelAt = lo.ToPtr(now.AddDate(0, 0, -1))
		sub.CancelReason = "customer requested"
	})

	result, err := s.service.RunExpirySweep(s.GetContext())
	s.NoError(err)
	s.Equal(1, result.CancelledAtPeriodEnd)

	got, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusCancelled, got.SubscriptionStatus)
	s.Equal("customer requested", got.CancelReason)
}

func (s *RenewalServiceSuite) TestSweepCancelsRemoteSubscription() {
	now := time.Now().UTC()
	s.seedSub(func(sub *subscription.Subscription) {
		sub.CurrentPeriodEnd = now.AddDate(0, 0, -1)
		sub.StripeSubscriptionID = lo.ToPtr("sub_remote_1")
	})

	_, err := s.service.RunExpirySweep(s.GetContext())
	s.NoError(err)
	s.Contains(s.GetStripeGateway().CancelledSubs, "sub_remote_1")
}

func (s *RenewalServiceSuite) TestSweepGeneratesRenewalInvoices() {
	sub := s.seedSub(func(sub *subscription.Subscription) {
		sub.CurrentPeriodEnd = time.Now().UTC().AddDate(0, 0, 3)
	})

	result, err := s.service.RunExpirySweep(s.GetContext())
	s.NoError(err)
	s.Equal(1, result.RenewalInvoices)

	invoices, err := s.GetStores().InvoiceRepo.GetBySubscriptionID(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Len(invoices, 1)

	inv := invoices[0]
	s.Equal(types.InvoiceStatusOpen, inv.InvoiceStatus)
	s.Equal(types.InvoiceBillingReasonRenewal, inv.BillingReason)
	s.True(inv.AmountPaid.IsZero())
	s.True(inv.AmountDue.Equal(inv.Total))
	s.True(inv.Total.Equal(decimal.NewFromInt(45)))
	s.NotNil(inv.DueDate)
	s.True(inv.DueDate.Equal(sub.CurrentPeriodEnd))
}

func (s *RenewalServiceSuite) TestSweepDoesNotDuplicateRenewalInvoices() {
	sub := s.seedSub(func(sub *subscription.Subscription) {
		sub.CurrentPeriodEnd = time.Now().UTC().AddDate(0, 0, 3)
	})

	first, err := s.service.RunExpirySweep(s.GetContext())
	s.NoError(err)
	s.Equal(1, first.RenewalInvoices)

	second, err := s.service.RunExpirySweep(s.GetContext())
	s.NoError(err)
	s.Equal(0, second.RenewalInvoices)

	invoices, err := s.GetStores().InvoiceRepo.GetBySubscriptionID(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Len(invoices, 1)
}

func (s *RenewalServiceSuite) TestSweepRenewalInvoiceReflectsPendingChanges() {
	sub := s.seedSub(func(sub *subscription.Subscription) {
		sub.UserCount = 10
		sub.CurrentPeriodEnd = time.Now().UTC().AddDate(0, 0, 3)
		sub.PendingUserCount = lo.ToPtr(6)
		sub.PendingChangeReason = lo.ToPtr(types.PendingChangeReasonSeatReduction)
	})

	result, err := s.service.RunExpirySweep(s.GetContext())
	s.NoError(err)
	s.Equal(1, result.RenewalInvoices)

	invoices, err := s.GetStores().InvoiceRepo.GetBySubscriptionID(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Len(invoices, 1)
	// Priced at the post-change seat count, not the current one.
	s.True(invoices[0].Total.Equal(decimal.NewFromInt(81)), "total %s", invoices[0].Total)

	// The stored row itself is untouched until the boundary.
	got, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Equal(10, got.UserCount)
	s.Equal(lo.ToPtr(6), got.PendingUserCount)
}

func (s *RenewalServiceSuite) TestSweepLeavesHealthySubscriptionsAlone() {
	sub := s.seedSub(func(sub *subscription.Subscription) {
		sub.CurrentPeriodEnd = time.Now().UTC().AddDate(0, 0, 20)
	})

	result, err := s.service.RunExpirySweep(s.GetContext())
	s.NoError(err)
	s.Equal(0, result.ExpiredTrials)
	s.Equal(0, result.ExpiredSubscriptions)
	s.Equal(0, result.CancelledAtPeriodEnd)
	s.Equal(0, result.RenewalInvoices)

	got, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, got.SubscriptionStatus)
}

func (s *RenewalServiceSuite) TestSweepIsolatesFailures() {
	now := time.Now().UTC()
	// A row pointing at a deleted plan cannot be invoiced, but the healthy
	// row after it still is.
	s.seedSub(func(sub *subscription.Subscription) {
		sub.PlanID = "plan_deleted"
		sub.CurrentPeriodEnd = now.AddDate(0, 0, 2)
	})
	healthy := s.seedSub(func(sub *subscription.Subscription) {
		sub.CurrentPeriodEnd = now.AddDate(0, 0, 3)
	})

	result, err := s.service.RunExpirySweep(s.GetContext())
	s.NoError(err)
	s.Equal(1, result.RenewalInvoices)
	s.Equal(1, result.Failures)

	invoices, err := s.GetStores().InvoiceRepo.GetBySubscriptionID(s.GetContext(), healthy.ID)
	s.NoError(err)
	s.Len(invoices, 1)
}

func (s *RenewalServiceSuite) TestSweepEmptyState() {
	result, err := s.service.RunExpirySweep(s.GetContext())
	s.NoError(err)
	s.Equal(0, result.Failures)
	_, err = s.GetStores().SubscriptionRepo.GetActiveOrTrialByOrganization(s.GetContext(), s.testData.org.ID)
	s.True(ierr.IsNotFound(err))
}
