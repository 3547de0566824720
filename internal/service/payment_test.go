package service

import (
	"testing"
	"time"

	"github.com/inboz-admin/inboz-app-sub004/internal/api/dto"
	"github.com/inboz-admin/inboz-app-sub004/internal/cache"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/invoice"
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

type PaymentServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  PaymentService
	testData struct {
		org       *organization.Organization
		basicPlan *plan.Plan
		proPlan   *plan.Plan
	}
}

func TestPaymentService(t *testing.T) {
	suite.Run(t, new(PaymentServiceSuite))
}

func (s *PaymentServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewPaymentService(s.serviceParams())
	s.setupTestData()
}

func (s *PaymentServiceSuite) serviceParams() ServiceParams {
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

func (s *PaymentServiceSuite) setupTestData() {
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

	s.testData.proPlan = &plan.Plan{
		ID:                  "plan_pro",
		Name:                "Pro",
		LookupKey:           "pro",
		PricePerUserMonthly: decimal.NewFromInt(40),
		PricePerUserYearly:  decimal.NewFromInt(400),
		BaseModel:           types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PlanRepo.Create(ctx, s.testData.proPlan))
}

func (s *PaymentServiceSuite) seedTrial() *subscription.Subscription {
	ctx := s.GetContext()
	now := time.Now().UTC()
	trialEnd := now.AddDate(0, 0, 5)
	sub := &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		OrganizationID:     s.testData.org.ID,
		PlanID:             s.testData.basicPlan.ID,
		SubscriptionStatus: types.SubscriptionStatusTrial,
		BillingCycle:       types.BILLING_CYCLE_MONTHLY,
		UserCount:          1,
		Amount:             decimal.Zero,
		FinalAmount:        decimal.Zero,
		Currency:           "usd",
		CurrentPeriodStart: now.AddDate(0, 0, -2),
		CurrentPeriodEnd:   trialEnd,
		TrialEnd:           &trialEnd,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().SubscriptionRepo.Create(ctx, sub))
	return sub
}

// seedActive creates a paid monthly subscription halfway through a 30 day
// period so prorated amounts come out to round numbers.
func (s *PaymentServiceSuite) seedActive(p *plan.Plan, seats int, paid decimal.Decimal) *subscription.Subscription {
	ctx := s.GetContext()
	now := time.Now().UTC()
	sub := &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		OrganizationID:     s.testData.org.ID,
		PlanID:             p.ID,
		SubscriptionStatus: types.SubscriptionStatusActive,
		BillingCycle:       types.BILLING_CYCLE_MONTHLY,
		UserCount:          seats,
		Amount:             paid,
		FinalAmount:        paid,
		Currency:           "usd",
		CurrentPeriodStart: now.AddDate(0, 0, -15),
		CurrentPeriodEnd:   now.AddDate(0, 0, 15),
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().SubscriptionRepo.Create(ctx, sub))
	return sub
}

func (s *PaymentServiceSuite) initiate(planID string, seats int, cycle types.BillingCycle) (*dto.InitiatePaymentResponse, error) {
	return s.service.InitiatePayment(s.GetContext(), dto.InitiatePaymentRequest{
		OrganizationID: s.testData.org.ID,
		PlanID:         planID,
		BillingCycle:   cycle,
		UserCount:      lo.ToPtr(seats),
		Provider:       types.PaymentProviderStripe,
	})
}

func (s *PaymentServiceSuite) TestInitiatePaymentTrialToPaid() {
	s.seedTrial()

	resp, err := s.initiate(s.testData.basicPlan.ID, 6, types.BILLING_CYCLE_MONTHLY)
	s.NoError(err)
	s.Equal(types.BillingOperationTrialToPaid, resp.OperationType)
	s.Equal(6, resp.UserCount)
	s.True(resp.Amount.Equal(decimal.NewFromInt(81)), "amount %s", resp.Amount)
	s.NotEmpty(resp.OrderID)
	s.NotEmpty(resp.CheckoutURL)

	// The gateway customer is created lazily and persisted on the org.
	org, err := s.GetStores().OrganizationRepo.Get(s.GetContext(), s.testData.org.ID)
	s.NoError(err)
	s.NotNil(org.StripeCustomerID)

	// The order metadata carries the full checkout intent.
	order, err := s.GetStripeGateway().GetOrder(s.GetContext(), resp.OrderID)
	s.NoError(err)
	s.Equal(s.testData.org.ID, order.Metadata["organization_id"])
	s.Equal(s.testData.basicPlan.ID, order.Metadata["plan_id"])
	s.Equal("6", order.Metadata["user_count"])
	s.Equal("TRIAL_TO_PAID", order.Metadata["operation_type"])

	// No subscription state changed before verification.
	current, err := s.GetStores().SubscriptionRepo.GetActiveOrTrialByOrganization(s.GetContext(), s.testData.org.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusTrial, current.SubscriptionStatus)
}

func (s *PaymentServiceSuite) TestInitiatePaymentWithoutSubscription() {
	s.GetStores().OrganizationRepo.SetActiveUsers(s.testData.org.ID, 4)

	resp, err := s.service.InitiatePayment(s.GetContext(), dto.InitiatePaymentRequest{
		OrganizationID: s.testData.org.ID,
		PlanID:         s.testData.basicPlan.ID,
		BillingCycle:   types.BILLING_CYCLE_MONTHLY,
		Provider:       types.PaymentProviderStripe,
	})
	s.NoError(err)
	s.Equal(types.BillingOperationTrialToPaid, resp.OperationType)
	// Seats default to the live active-user count.
	s.Equal(4, resp.UserCount)
	s.True(resp.Amount.Equal(decimal.NewFromInt(60)))
}

func (s *PaymentServiceSuite) TestInitiatePaymentSeatFloor() {
	resp, err := s.service.InitiatePayment(s.GetContext(), dto.InitiatePaymentRequest{
		OrganizationID: s.testData.org.ID,
		PlanID:         s.testData.basicPlan.ID,
		BillingCycle:   types.BILLING_CYCLE_MONTHLY,
		Provider:       types.PaymentProviderStripe,
	})
	s.NoError(err)
	s.Equal(1, resp.UserCount)
}

func (s *PaymentServiceSuite) TestInitiatePaymentContactSales() {
	s.seedTrial()

	resp, err := s.initiate(s.testData.basicPlan.ID, 51, types.BILLING_CYCLE_MONTHLY)
	s.NoError(err)
	s.True(resp.RequiresContactSales)
	s.True(resp.Amount.IsZero())
	s.Empty(resp.OrderID)
	s.Empty(s.GetStripeGateway().CreatedOrders)
}

func (s *PaymentServiceSuite) TestInitiatePaymentAddUsers() {
	s.seedActive(s.testData.basicPlan, 3, decimal.NewFromInt(45))

	resp, err := s.initiate(s.testData.basicPlan.ID, 5, types.BILLING_CYCLE_MONTHLY)
	s.NoError(err)
	s.Equal(types.BillingOperationAddUsers, resp.OperationType)
	// Credit 45*15/30=22.50, charge 67.50*15/30=33.75, net 11.25.
	s.True(resp.Amount.Equal(decimal.RequireFromString("11.25")), "amount %s", resp.Amount)
}

func (s *PaymentServiceSuite) TestInitiatePaymentUpgrade() {
	s.seedActive(s.testData.basicPlan, 3, decimal.NewFromInt(45))

	resp, err := s.initiate(s.testData.proPlan.ID, 3, types.BILLING_CYCLE_MONTHLY)
	s.NoError(err)
	s.Equal(types.BillingOperationUpgrade, resp.OperationType)
	// Credit 22.50, charge 120*15/30=60, net 37.50.
	s.True(resp.Amount.Equal(decimal.RequireFromString("37.5")), "amount %s", resp.Amount)
}

func (s *PaymentServiceSuite) TestInitiatePaymentCombined() {
	s.seedActive(s.testData.basicPlan, 3, decimal.NewFromInt(45))

	resp, err := s.initiate(s.testData.proPlan.ID, 5, types.BILLING_CYCLE_MONTHLY)
	s.NoError(err)
	s.Equal(types.BillingOperationCombined, resp.OperationType)
	// Credit 22.50, full new charge 180 (period resets), net 157.50.
	s.True(resp.Amount.Equal(decimal.RequireFromString("157.5")), "amount %s", resp.Amount)
}

func (s *PaymentServiceSuite) TestInitiatePaymentCycleChange() {
	s.seedActive(s.testData.basicPlan, 3, decimal.NewFromInt(45))

	resp, err := s.initiate(s.testData.basicPlan.ID, 3, types.BILLING_CYCLE_YEARLY)
	s.NoError(err)
	s.Equal(types.BillingOperationCycleChange, resp.OperationType)
	// Credit 22.50, full yearly charge 405, net 382.50.
	s.True(resp.Amount.Equal(decimal.RequireFromString("382.5")), "amount %s", resp.Amount)
}

func (s *PaymentServiceSuite) TestInitiatePaymentSeatDecreaseRejected() {
	s.seedActive(s.testData.basicPlan, 5, decimal.NewFromInt(75))

	_, err := s.initiate(s.testData.basicPlan.ID, 3, types.BILLING_CYCLE_MONTHLY)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *PaymentServiceSuite) TestInitiatePaymentDowngradeRejected() {
	s.seedActive(s.testData.proPlan, 3, decimal.NewFromInt(120))

	_, err := s.initiate(s.testData.basicPlan.ID, 3, types.BILLING_CYCLE_MONTHLY)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *PaymentServiceSuite) TestInitiatePaymentNothingToChange() {
	s.seedActive(s.testData.basicPlan, 3, decimal.NewFromInt(45))

	_, err := s.initiate(s.testData.basicPlan.ID, 3, types.BILLING_CYCLE_MONTHLY)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *PaymentServiceSuite) TestInitiatePaymentIncompleteRowNotLive() {
	sub := s.seedActive(s.testData.basicPlan, 3, decimal.NewFromInt(45))
	sub.SubscriptionStatus = types.SubscriptionStatusIncomplete
	s.NoError(s.GetStores().SubscriptionRepo.Update(s.GetContext(), sub))

	// The incomplete row is not live, so the checkout reads as a fresh
	// trial-to-paid purchase rather than a change.
	resp, err := s.initiate(s.testData.basicPlan.ID, 3, types.BILLING_CYCLE_MONTHLY)
	s.NoError(err)
	s.Equal(types.BillingOperationTrialToPaid, resp.OperationType)
}

func (s *PaymentServiceSuite) TestVerifyPaymentTrialToPaid() {
	trial := s.seedTrial()

	checkout, err := s.initiate(s.testData.basicPlan.ID, 6, types.BILLING_CYCLE_MONTHLY)
	s.NoError(err)

	resp, err := s.service.VerifyPayment(s.GetContext(), dto.VerifyPaymentRequest{
		OrganizationID: s.testData.org.ID,
		Provider:       types.PaymentProviderStripe,
		OrderID:        checkout.OrderID,
		PaymentID:      "pi_123",
	})
	s.NoError(err)

	sub := resp.Subscription.Subscription
	s.Equal(types.SubscriptionStatusActive, sub.SubscriptionStatus)
	s.Equal(6, sub.UserCount)
	s.Equal(10, sub.VolumeDiscountPercent)
	s.True(sub.Amount.Equal(decimal.NewFromInt(90)))
	s.True(sub.FinalAmount.Equal(decimal.NewFromInt(81)))
	s.NotNil(sub.StripeCustomerID)
	s.WithinDuration(time.Now().UTC().AddDate(0, 1, 0), sub.CurrentPeriodEnd, time.Minute)

	// The trial row is cancelled, not deleted.
	old, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), trial.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusCancelled, old.SubscriptionStatus)
	s.Contains(old.CancelReason, "TRIAL_TO_PAID")

	// The invoice is already paid and itemizes the discount.
	inv := resp.Invoice.Invoice
	s.Equal(types.InvoiceStatusPaid, inv.InvoiceStatus)
	s.Equal(types.InvoiceBillingReasonTrial, inv.BillingReason)
	s.True(inv.Total.Equal(decimal.NewFromInt(81)))
	s.True(inv.AmountPaid.Equal(inv.Total))
	s.True(inv.AmountDue.IsZero())
	s.NotNil(inv.PaidAt)
	s.Equal(lo.ToPtr("pi_123"), inv.StripePaymentIntentID)
	s.Len(inv.Breakdown.LineItems, 2)

	sum := decimal.Zero
	for _, line := range inv.Breakdown.LineItems {
		sum = sum.Add(line.Amount)
	}
	s.True(sum.Equal(inv.Total), "line items sum %s, total %s", sum, inv.Total)
}

func (s *PaymentServiceSuite) TestVerifyPaymentIdempotent() {
	s.seedTrial()

	checkout, err := s.initiate(s.testData.basicPlan.ID, 6, types.BILLING_CYCLE_MONTHLY)
	s.NoError(err)

	req := dto.VerifyPaymentRequest{
		OrganizationID: s.testData.org.ID,
		Provider:       types.PaymentProviderStripe,
		OrderID:        checkout.OrderID,
		PaymentID:      "pi_123",
	}

	first, err := s.service.VerifyPayment(s.GetContext(), req)
	s.NoError(err)
	second, err := s.service.VerifyPayment(s.GetContext(), req)
	s.NoError(err)

	s.Equal(first.Subscription.Subscription.ID, second.Subscription.Subscription.ID)
	s.Equal(first.Invoice.Invoice.ID, second.Invoice.Invoice.ID)

	// Still exactly two rows: the cancelled trial and the active one.
	history, err := s.GetStores().SubscriptionRepo.ListByOrganization(s.GetContext(), s.testData.org.ID)
	s.NoError(err)
	s.Len(history, 2)
}

func (s *PaymentServiceSuite) TestVerifyPaymentUpgrade() {
	old := s.seedActive(s.testData.basicPlan, 3, decimal.NewFromInt(45))

	checkout, err := s.initiate(s.testData.proPlan.ID, 3, types.BILLING_CYCLE_MONTHLY)
	s.NoError(err)

	resp, err := s.service.VerifyPayment(s.GetContext(), dto.VerifyPaymentRequest{
		OrganizationID: s.testData.org.ID,
		Provider:       types.PaymentProviderStripe,
		OrderID:        checkout.OrderID,
		PaymentID:      "pi_456",
	})
	s.NoError(err)

	sub := resp.Subscription.Subscription
	s.Equal(s.testData.proPlan.ID, sub.PlanID)
	// A plain upgrade keeps the current billing period.
	s.True(sub.CurrentPeriodEnd.Equal(old.CurrentPeriodEnd))
	s.NotNil(sub.ProrationDetails)
	s.Equal(types.BillingOperationUpgrade, sub.ProrationDetails.OperationType)
	s.True(sub.ProrationDetails.NetCharge.Equal(decimal.RequireFromString("37.5")))

	// Charge, credit and prior-plan reference lines sum to the total.
	inv := resp.Invoice.Invoice
	s.Equal(types.InvoiceBillingReasonUpgrade, inv.BillingReason)
	s.True(inv.Total.Equal(decimal.RequireFromString("37.5")))
	s.Len(inv.Breakdown.LineItems, 3)
	sum := decimal.Zero
	for _, line := range inv.Breakdown.LineItems {
		sum = sum.Add(line.Amount)
	}
	s.True(sum.Equal(inv.Total))
	s.NotNil(inv.Breakdown.Proration)
}

func (s *PaymentServiceSuite) TestVerifyPaymentCommitsQuotedAmount() {
	sub := s.seedActive(s.testData.basicPlan, 3, decimal.NewFromInt(45))

	checkout, err := s.initiate(s.testData.proPlan.ID, 3, types.BILLING_CYCLE_MONTHLY)
	s.NoError(err)
	s.True(checkout.Amount.Equal(decimal.RequireFromString("37.5")))

	// Days tick over between checkout and verification. The committed
	// amounts must stay what the gateway actually collected, not a fresh
	// computation against the moved period.
	sub.CurrentPeriodStart = sub.CurrentPeriodStart.AddDate(0, 0, -2)
	sub.CurrentPeriodEnd = sub.CurrentPeriodEnd.AddDate(0, 0, -2)
	s.NoError(s.GetStores().SubscriptionRepo.Update(s.GetContext(), sub))

	resp, err := s.service.VerifyPayment(s.GetContext(), dto.VerifyPaymentRequest{
		OrganizationID: s.testData.org.ID,
		Provider:       types.PaymentProviderStripe,
		OrderID:        checkout.OrderID,
		PaymentID:      "pi_789",
	})
	s.NoError(err)

	inv := resp.Invoice.Invoice
	s.True(inv.Total.Equal(checkout.Amount), "total %s, collected %s", inv.Total, checkout.Amount)
	s.True(inv.AmountPaid.Equal(checkout.Amount))

	pd := resp.Subscription.Subscription.ProrationDetails
	s.NotNil(pd)
	s.True(pd.NetCharge.Equal(checkout.Amount))
	// The snapshot carries the day math from checkout time.
	s.Equal(15, pd.DaysRemaining)
}

func (s *PaymentServiceSuite) TestVerifyPaymentOrderAmountMismatch() {
	s.seedTrial()
	checkout, err := s.initiate(s.testData.basicPlan.ID, 6, types.BILLING_CYCLE_MONTHLY)
	s.NoError(err)

	s.GetStripeGateway().SetOrderAmount(checkout.OrderID, decimal.NewFromInt(1))

	_, err = s.service.VerifyPayment(s.GetContext(), dto.VerifyPaymentRequest{
		OrganizationID: s.testData.org.ID,
		Provider:       types.PaymentProviderStripe,
		OrderID:        checkout.OrderID,
		PaymentID:      "pi_123",
	})
	s.Error(err)
	s.True(ierr.IsPaymentVerificationFailed(err))

	// Nothing committed.
	current, err := s.GetStores().SubscriptionRepo.GetActiveOrTrialByOrganization(s.GetContext(), s.testData.org.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusTrial, current.SubscriptionStatus)
}

func (s *PaymentServiceSuite) TestInitiatePaymentAddUsersContactSales() {
	s.seedActive(s.testData.basicPlan, 40, decimal.NewFromInt(480))

	// Crossing the self-serve ceiling on a seat addition is a flagged
	// outcome, not a failure.
	resp, err := s.initiate(s.testData.basicPlan.ID, 60, types.BILLING_CYCLE_MONTHLY)
	s.NoError(err)
	s.Equal(types.BillingOperationAddUsers, resp.OperationType)
	s.True(resp.RequiresContactSales)
	s.True(resp.Amount.IsZero())
	s.Empty(s.GetStripeGateway().CreatedOrders)
}

func (s *PaymentServiceSuite) TestVerifyPaymentGatewayRejects() {
	s.seedTrial()
	checkout, err := s.initiate(s.testData.basicPlan.ID, 6, types.BILLING_CYCLE_MONTHLY)
	s.NoError(err)

	s.GetStripeGateway().FailVerify = true
	_, err = s.service.VerifyPayment(s.GetContext(), dto.VerifyPaymentRequest{
		OrganizationID: s.testData.org.ID,
		Provider:       types.PaymentProviderStripe,
		OrderID:        checkout.OrderID,
		PaymentID:      "pi_123",
	})
	s.Error(err)
	s.True(ierr.IsPaymentVerificationFailed(err))

	// Nothing committed.
	current, err := s.GetStores().SubscriptionRepo.GetActiveOrTrialByOrganization(s.GetContext(), s.testData.org.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusTrial, current.SubscriptionStatus)
}

func (s *PaymentServiceSuite) TestVerifyPaymentPending() {
	s.seedTrial()
	checkout, err := s.initiate(s.testData.basicPlan.ID, 6, types.BILLING_CYCLE_MONTHLY)
	s.NoError(err)

	s.GetStripeGateway().PaymentPending = true
	_, err = s.service.VerifyPayment(s.GetContext(), dto.VerifyPaymentRequest{
		OrganizationID: s.testData.org.ID,
		Provider:       types.PaymentProviderStripe,
		OrderID:        checkout.OrderID,
		PaymentID:      "pi_123",
	})
	s.Error(err)
	s.True(ierr.IsPaymentNotConfirmed(err))
}

func (s *PaymentServiceSuite) TestVerifyPaymentWrongOrganization() {
	s.seedTrial()
	checkout, err := s.initiate(s.testData.basicPlan.ID, 6, types.BILLING_CYCLE_MONTHLY)
	s.NoError(err)

	_, err = s.service.VerifyPayment(s.GetContext(), dto.VerifyPaymentRequest{
		OrganizationID: "org_other",
		Provider:       types.PaymentProviderStripe,
		OrderID:        checkout.OrderID,
		PaymentID:      "pi_123",
	})
	s.Error(err)
	s.True(ierr.IsPaymentVerificationFailed(err))
}

func (s *PaymentServiceSuite) TestVerifyPaymentUnknownOrder() {
	_, err := s.service.VerifyPayment(s.GetContext(), dto.VerifyPaymentRequest{
		OrganizationID: s.testData.org.ID,
		Provider:       types.PaymentProviderStripe,
		OrderID:        "order_missing",
		PaymentID:      "pi_123",
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *PaymentServiceSuite) seedInvoiceFor(sub *subscription.Subscription) *invoice.Invoice {
	ctx := s.GetContext()
	inv := &invoice.Invoice{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		OrganizationID: sub.OrganizationID,
		SubscriptionID: sub.ID,
		InvoiceNumber:  types.GenerateUUID(),
		InvoiceStatus:  types.InvoiceStatusPaid,
		BillingReason:  types.InvoiceBillingReasonTrial,
		Currency:       "usd",
		Subtotal:       sub.FinalAmount,
		Total:          sub.FinalAmount,
		AmountPaid:     sub.FinalAmount,
		AmountDue:      decimal.Zero,
		IssueDate:      time.Now().UTC(),
		PaidAt:         lo.ToPtr(time.Now().UTC()),
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().InvoiceRepo.Create(ctx, inv))
	return inv
}

func (s *PaymentServiceSuite) TestHandlePaymentFailureYoungSubscription() {
	sub := s.seedActive(s.testData.basicPlan, 3, decimal.NewFromInt(45))
	inv := s.seedInvoiceFor(sub)

	err := s.service.HandlePaymentFailure(s.GetContext(), dto.PaymentFailureRequest{
		InvoiceID: inv.ID,
		Reason:    "card declined",
	})
	s.NoError(err)

	// Rows created within the last hour are removed outright.
	_, err = s.GetStores().SubscriptionRepo.Get(s.GetContext(), sub.ID)
	s.True(ierr.IsNotFound(err))
	_, err = s.GetStores().InvoiceRepo.Get(s.GetContext(), inv.ID)
	s.True(ierr.IsNotFound(err))
}

func (s *PaymentServiceSuite) TestHandlePaymentFailureOldSubscription() {
	sub := s.seedActive(s.testData.basicPlan, 3, decimal.NewFromInt(45))
	sub.CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
	s.NoError(s.GetStores().SubscriptionRepo.Update(s.GetContext(), sub))
	inv := s.seedInvoiceFor(sub)

	err := s.service.HandlePaymentFailure(s.GetContext(), dto.PaymentFailureRequest{
		InvoiceID: inv.ID,
		Reason:    "card declined",
	})
	s.NoError(err)

	// Older rows are flagged for manual reconciliation, never rolled back.
	got, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusIncomplete, got.SubscriptionStatus)
	_, err = s.GetStores().InvoiceRepo.Get(s.GetContext(), inv.ID)
	s.NoError(err)
}

func (s *PaymentServiceSuite) TestAdminOverrideUpgrade() {
	old := s.seedActive(s.testData.basicPlan, 3, decimal.NewFromInt(45))

	resp, err := s.service.AdminOverrideUpgrade(s.GetContext(), dto.AdminOverrideUpgradeRequest{
		OrganizationID: s.testData.org.ID,
		PlanID:         s.testData.proPlan.ID,
		UserCount:      60,
		BillingCycle:   types.BILLING_CYCLE_YEARLY,
		Reason:         "enterprise deal closed offline",
	})
	s.NoError(err)

	sub := resp.Subscription
	s.Equal(types.SubscriptionStatusActive, sub.SubscriptionStatus)
	s.Equal(60, sub.UserCount)
	s.Equal(types.BILLING_CYCLE_YEARLY, sub.BillingCycle)
	// Above the self-serve threshold the top volume tier applies:
	// 400 * 0.9 * 0.8 = 288 per seat.
	s.Equal(20, sub.VolumeDiscountPercent)
	s.True(sub.FinalAmount.Equal(decimal.NewFromInt(17280)), "final %s", sub.FinalAmount)

	oldRow, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), old.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusCancelled, oldRow.SubscriptionStatus)
	s.Contains(oldRow.CancelReason, "admin override")

	// The override invoice itemizes the deal but charges nothing.
	invoices, err := s.GetStores().InvoiceRepo.GetBySubscriptionID(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Len(invoices, 1)
	s.Equal(types.InvoiceBillingReasonAdminOverride, invoices[0].BillingReason)
	s.True(invoices[0].Total.IsZero())
	s.NotEmpty(invoices[0].Breakdown.LineItems)
}
