package service

import (
	"context"
	"time"

	"github.com/inboz-admin/inboz-app-sub004/internal/api/dto"
	"github.com/inboz-admin/inboz-app-sub004/internal/cache"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/plan"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/pricing"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/subscription"
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/inboz-admin/inboz-app-sub004/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type SubscriptionService interface {
	// CreateTrial starts the free trial at organization signup: one seat,
	// zero amount, fixed trial length.
	CreateTrial(ctx context.Context, req dto.CreateTrialRequest) (*dto.SubscriptionResponse, error)

	GetCurrentSubscription(ctx context.Context, orgID string) (*dto.SubscriptionResponse, error)

	// CancelSubscription marks the live subscription for cancellation at
	// period end, or cancels immediately when requested. Trials always
	// cancel immediately.
	CancelSubscription(ctx context.Context, req dto.CancelSubscriptionRequest) (*dto.SubscriptionResponse, error)

	// ScheduleSeatReduction defers a seat decrease to the next renewal
	// boundary. Seat increases must go through the payment flow.
	ScheduleSeatReduction(ctx context.Context, req dto.ScheduleSeatReductionRequest) (*dto.SubscriptionResponse, error)

	// SchedulePlanDowngrade defers a move to a cheaper plan to the next
	// renewal boundary.
	SchedulePlanDowngrade(ctx context.Context, req dto.SchedulePlanDowngradeRequest) (*dto.SubscriptionResponse, error)

	// ChangePlan is the single entry point for plan changes: upgrades
	// open a checkout, downgrades are scheduled.
	ChangePlan(ctx context.Context, req dto.ChangePlanRequest) (*dto.ChangePlanResponse, error)

	// ChangeBillingCycle switches between monthly and yearly billing
	// through the payment flow. The period resets on completion.
	ChangeBillingCycle(ctx context.Context, req dto.ChangeBillingCycleRequest) (*dto.InitiatePaymentResponse, error)

	// ApplyPendingChanges applies a deferred downgrade or seat reduction
	// in place at the renewal boundary, rolling the period forward. No
	// charge or credit is issued.
	ApplyPendingChanges(ctx context.Context, sub *subscription.Subscription) error
}

type subscriptionService struct {
	ServiceParams
}

func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{ServiceParams: params}
}

func (s *subscriptionService) CreateTrial(ctx context.Context, req dto.CreateTrialRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.OrgRepo.Get(ctx, req.OrganizationID); err != nil {
		return nil, err
	}
	p, err := s.PlanRepo.Get(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	if existing, err := s.SubRepo.GetActiveOrTrialByOrganization(ctx, req.OrganizationID); err == nil && existing != nil {
		return nil, ierr.NewError("organization already has a live subscription").
			WithHintf("Organization '%s' already has an %s subscription", req.OrganizationID, existing.SubscriptionStatus).
			Mark(ierr.ErrAlreadyExists)
	} else if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	now := time.Now().UTC()
	trialEnd := now.AddDate(0, 0, s.Config.Billing.TrialDays)

	sub := &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		OrganizationID:     req.OrganizationID,
		PlanID:             p.ID,
		SubscriptionStatus: types.SubscriptionStatusTrial,
		BillingCycle:       types.BILLING_CYCLE_MONTHLY,
		UserCount:          1,
		Amount:             decimal.Zero,
		FinalAmount:        decimal.Zero,
		Currency:           s.Config.Billing.Currency,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   trialEnd,
		TrialStart:         &now,
		TrialEnd:           &trialEnd,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}

	// Every billing event leaves an invoice, the trial included; its
	// zero-amount invoice commits with the subscription row.
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.SubRepo.Create(ctx, sub); err != nil {
			return err
		}
		_, err := NewInvoiceService(s.ServiceParams).GenerateTrialInvoice(ctx, sub, p)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("started trial subscription",
		"subscription_id", sub.ID,
		"organization_id", req.OrganizationID,
		"plan_id", p.ID,
		"trial_end", trialEnd)

	return dto.NewSubscriptionResponse(sub), nil
}

func (s *subscriptionService) GetCurrentSubscription(ctx context.Context, orgID string) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.GetActiveOrTrialByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return dto.NewSubscriptionResponse(sub), nil
}

func (s *subscriptionService) CancelSubscription(ctx context.Context, req dto.CancelSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.SubRepo.GetActiveOrTrialByOrganization(ctx, req.OrganizationID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if req.Immediate || sub.SubscriptionStatus == types.SubscriptionStatusTrial {
		sub.SubscriptionStatus = types.SubscriptionStatusCancelled
		sub.CancelledAt = &now
		sub.CancelReason = req.Reason
	} else {
		// Access is retained until the period the organization paid for
		// runs out; the sweep finishes the cancellation.
		cancelAt := sub.CurrentPeriodEnd
		sub.CancelAt = &cancelAt
		sub.CancelReason = req.Reason
	}

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	if sub.SubscriptionStatus == types.SubscriptionStatusCancelled {
		s.cancelRemoteSubscription(ctx, sub)
		s.invalidateQuota(ctx, sub.OrganizationID)
	}

	s.Logger.Infow("cancelled subscription",
		"subscription_id", sub.ID,
		"organization_id", req.OrganizationID,
		"immediate", sub.SubscriptionStatus == types.SubscriptionStatusCancelled,
		"cancel_at", sub.CancelAt)

	return dto.NewSubscriptionResponse(sub), nil
}

func (s *subscriptionService) ScheduleSeatReduction(ctx context.Context, req dto.ScheduleSeatReductionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.SubRepo.GetActiveOrTrialByOrganization(ctx, req.OrganizationID)
	if err != nil {
		return nil, err
	}
	if sub.SubscriptionStatus != types.SubscriptionStatusActive {
		return nil, ierr.NewError("seat changes require an active paid subscription").
			WithHintf("Subscription is %s", sub.SubscriptionStatus).
			Mark(ierr.ErrInvalidStateTransition)
	}
	if req.TargetUserCount >= sub.UserCount {
		return nil, ierr.NewError("target seat count is not a reduction").
			WithHint("Use the payment flow to add seats").
			WithReportableDetails(map[string]any{
				"current_user_count": sub.UserCount,
				"target_user_count":  req.TargetUserCount,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	sub.PendingUserCount = lo.ToPtr(req.TargetUserCount)
	sub.PendingChangeReason = lo.ToPtr(types.PendingChangeReasonSeatReduction)

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.Logger.Infow("scheduled seat reduction",
		"subscription_id", sub.ID,
		"current_user_count", sub.UserCount,
		"target_user_count", req.TargetUserCount,
		"effective_at", sub.CurrentPeriodEnd)

	return dto.NewSubscriptionResponse(sub), nil
}

func (s *subscriptionService) SchedulePlanDowngrade(ctx context.Context, req dto.SchedulePlanDowngradeRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.SubRepo.GetActiveOrTrialByOrganization(ctx, req.OrganizationID)
	if err != nil {
		return nil, err
	}
	if sub.SubscriptionStatus != types.SubscriptionStatusActive {
		return nil, ierr.NewError("plan changes are not allowed during trial").
			WithHintf("Subscription is %s", sub.SubscriptionStatus).
			Mark(ierr.ErrInvalidStateTransition)
	}
	if req.TargetPlanID == sub.PlanID {
		return nil, ierr.NewError("target plan is the current plan").
			Mark(ierr.ErrInvalidOperation)
	}

	currentPlan, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	targetPlan, err := s.PlanRepo.Get(ctx, req.TargetPlanID)
	if err != nil {
		return nil, err
	}

	upgrade, err := s.isUpgrade(currentPlan, targetPlan, sub.BillingCycle)
	if err != nil {
		return nil, err
	}
	if upgrade {
		return nil, ierr.NewError("target plan is not a downgrade").
			WithHint("Upgrades go through the payment flow").
			WithReportableDetails(map[string]any{
				"current_plan_id": sub.PlanID,
				"target_plan_id":  req.TargetPlanID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	sub.PendingPlanID = lo.ToPtr(req.TargetPlanID)
	sub.PendingChangeReason = lo.ToPtr(types.PendingChangeReasonPlanDowngrade)

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.Logger.Infow("scheduled plan downgrade",
		"subscription_id", sub.ID,
		"current_plan_id", sub.PlanID,
		"target_plan_id", req.TargetPlanID,
		"effective_at", sub.CurrentPeriodEnd)

	return dto.NewSubscriptionResponse(sub), nil
}

func (s *subscriptionService) ChangePlan(ctx context.Context, req dto.ChangePlanRequest) (*dto.ChangePlanResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.SubRepo.GetActiveOrTrialByOrganization(ctx, req.OrganizationID)
	if err != nil {
		return nil, err
	}
	if sub.SubscriptionStatus == types.SubscriptionStatusTrial {
		return nil, ierr.NewError("plan changes are not allowed during trial").
			WithHint("Convert the trial to a paid subscription first").
			Mark(ierr.ErrInvalidStateTransition)
	}
	if req.TargetPlanID == sub.PlanID {
		return nil, ierr.NewError("target plan is the current plan").
			Mark(ierr.ErrInvalidOperation)
	}

	currentPlan, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	targetPlan, err := s.PlanRepo.Get(ctx, req.TargetPlanID)
	if err != nil {
		return nil, err
	}

	upgrade, err := s.isUpgrade(currentPlan, targetPlan, sub.BillingCycle)
	if err != nil {
		return nil, err
	}

	if !upgrade {
		scheduled, err := s.SchedulePlanDowngrade(ctx, dto.SchedulePlanDowngradeRequest{
			OrganizationID: req.OrganizationID,
			TargetPlanID:   req.TargetPlanID,
		})
		if err != nil {
			return nil, err
		}
		return &dto.ChangePlanResponse{Scheduled: true, Subscription: scheduled}, nil
	}

	if req.Provider == "" {
		return nil, ierr.NewError("provider is required for upgrades").
			WithHint("Upgrades are charged immediately through a payment gateway").
			Mark(ierr.ErrValidation)
	}

	checkout, err := NewPaymentService(s.ServiceParams).InitiatePayment(ctx, dto.InitiatePaymentRequest{
		OrganizationID: req.OrganizationID,
		PlanID:         req.TargetPlanID,
		BillingCycle:   sub.BillingCycle,
		UserCount:      lo.ToPtr(sub.UserCount),
		Provider:       req.Provider,
	})
	if err != nil {
		return nil, err
	}
	return &dto.ChangePlanResponse{Checkout: checkout}, nil
}

func (s *subscriptionService) ChangeBillingCycle(ctx context.Context, req dto.ChangeBillingCycleRequest) (*dto.InitiatePaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.SubRepo.GetActiveOrTrialByOrganization(ctx, req.OrganizationID)
	if err != nil {
		return nil, err
	}
	if sub.SubscriptionStatus == types.SubscriptionStatusTrial {
		return nil, ierr.NewError("billing cycle changes are not allowed during trial").
			Mark(ierr.ErrInvalidStateTransition)
	}
	if req.TargetCycle == sub.BillingCycle {
		return nil, ierr.NewError("subscription is already on the requested cycle").
			WithReportableDetails(map[string]any{
				"billing_cycle": sub.BillingCycle,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	if req.Provider == "" {
		return nil, ierr.NewError("provider is required for billing cycle changes").
			Mark(ierr.ErrValidation)
	}

	return NewPaymentService(s.ServiceParams).InitiatePayment(ctx, dto.InitiatePaymentRequest{
		OrganizationID: req.OrganizationID,
		PlanID:         sub.PlanID,
		BillingCycle:   req.TargetCycle,
		UserCount:      lo.ToPtr(sub.UserCount),
		Provider:       req.Provider,
	})
}

func (s *subscriptionService) ApplyPendingChanges(ctx context.Context, sub *subscription.Subscription) error {
	if !sub.HasPendingChange() {
		return nil
	}

	if sub.PendingPlanID != nil {
		sub.PlanID = *sub.PendingPlanID
	}
	if sub.PendingUserCount != nil {
		sub.UserCount = *sub.PendingUserCount
	}

	p, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return err
	}
	quote, err := pricing.ComputeQuote(p, sub.UserCount, sub.BillingCycle)
	if err != nil {
		return err
	}
	if quote.RequiresContactSales {
		return ierr.NewError("pending change exceeds self-serve tier").
			WithReportableDetails(map[string]any{
				"subscription_id": sub.ID,
				"user_count":      sub.UserCount,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	periodStart := sub.CurrentPeriodEnd
	periodEnd, err := types.NextPeriodEnd(periodStart, sub.BillingCycle)
	if err != nil {
		return err
	}

	sub.Amount = quote.BasePricePerUser.Mul(decimal.NewFromInt(int64(sub.UserCount))).Round(2)
	sub.FinalAmount = quote.TotalAmount
	sub.VolumeDiscountPercent = quote.VolumeDiscountPercent
	sub.CurrentPeriodStart = periodStart
	sub.CurrentPeriodEnd = periodEnd
	sub.PendingUserCount = nil
	sub.PendingPlanID = nil
	sub.PendingChangeReason = nil

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return err
	}

	s.invalidateQuota(ctx, sub.OrganizationID)

	s.Logger.Infow("applied pending subscription changes",
		"subscription_id", sub.ID,
		"plan_id", sub.PlanID,
		"user_count", sub.UserCount,
		"period_end", sub.CurrentPeriodEnd)

	return nil
}

// isUpgrade compares per-seat prices on the given cycle. A plan with no
// price configured for the cycle cannot be a target of either direction.
func (s *subscriptionService) isUpgrade(current, target *plan.Plan, cycle types.BillingCycle) (bool, error) {
	currentPrice, err := pricing.PerSeatPrice(current, cycle)
	if err != nil {
		return false, err
	}
	targetPrice, err := pricing.PerSeatPrice(target, cycle)
	if err != nil {
		return false, err
	}
	return targetPrice.GreaterThan(currentPrice), nil
}

func (s *subscriptionService) cancelRemoteSubscription(ctx context.Context, sub *subscription.Subscription) {
	for _, provider := range []types.PaymentProvider{types.PaymentProviderStripe, types.PaymentProviderRazorpay} {
		remoteID := sub.GatewaySubscriptionID(provider)
		if remoteID == nil || *remoteID == "" {
			continue
		}
		gw, err := s.Gateways.Gateway(provider)
		if err != nil {
			continue
		}
		if err := gw.CancelRemoteSubscription(ctx, *remoteID); err != nil {
			s.Logger.Warnw("failed to cancel remote gateway subscription",
				"subscription_id", sub.ID,
				"provider", provider,
				"remote_subscription_id", *remoteID,
				"error", err)
		}
	}
}

func (s *subscriptionService) invalidateQuota(ctx context.Context, orgID string) {
	s.Cache.Delete(ctx, cache.QuotaKey(orgID))
}
