package service

import (
	"context"
	"time"

	"github.com/inboz-admin/inboz-app-sub004/internal/api/dto"
	"github.com/inboz-admin/inboz-app-sub004/internal/cache"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/subscription"
	"github.com/inboz-admin/inboz-app-sub004/internal/types"
)

// RenewalService runs the periodic expiry sweep. Scheduling is external;
// each invocation processes every due subscription independently so one
// failure never aborts the batch.
type RenewalService interface {
	RunExpirySweep(ctx context.Context) (*dto.SweepResponse, error)
}

type renewalService struct {
	ServiceParams
}

func NewRenewalService(params ServiceParams) RenewalService {
	return &renewalService{ServiceParams: params}
}

func (s *renewalService) RunExpirySweep(ctx context.Context) (*dto.SweepResponse, error) {
	now := time.Now().UTC()
	result := &dto.SweepResponse{}

	s.expireTrials(ctx, now, result)
	s.expirePastPeriodEnd(ctx, now, result)
	s.processCancellations(ctx, now, result)
	s.generateRenewalInvoices(ctx, now, result)

	s.Logger.Infow("expiry sweep finished",
		"expired_trials", result.ExpiredTrials,
		"expired_subscriptions", result.ExpiredSubscriptions,
		"cancelled_at_period_end", result.CancelledAtPeriodEnd,
		"applied_pending_changes", result.AppliedPendingChanges,
		"renewal_invoices", result.RenewalInvoices,
		"failures", result.Failures)

	return result, nil
}

func (s *renewalService) expireTrials(ctx context.Context, now time.Time, result *dto.SweepResponse) {
	trials, err := s.SubRepo.ListExpiredTrials(ctx, now)
	if err != nil {
		s.Logger.Errorw("failed to list expired trials", "error", err)
		result.Failures++
		return
	}

	for _, sub := range trials {
		if err := s.cancel(ctx, sub, now, "trial expired"); err != nil {
			s.Logger.Errorw("failed to expire trial",
				"subscription_id", sub.ID, "error", err)
			result.Failures++
			continue
		}
		result.ExpiredTrials++
	}
}

// expirePastPeriodEnd handles ACTIVE subscriptions whose paid period ran
// out without a renewal. Rows carrying a pending downgrade or seat
// reduction roll into the new period with the change applied; everything
// else is cancelled.
func (s *renewalService) expirePastPeriodEnd(ctx context.Context, now time.Time, result *dto.SweepResponse) {
	expired, err := s.SubRepo.ListPastPeriodEnd(ctx, now)
	if err != nil {
		s.Logger.Errorw("failed to list expired subscriptions", "error", err)
		result.Failures++
		return
	}

	subService := NewSubscriptionService(s.ServiceParams)
	for _, sub := range expired {
		if sub.HasPendingChange() {
			if err := subService.ApplyPendingChanges(ctx, sub); err != nil {
				s.Logger.Errorw("failed to apply pending changes",
					"subscription_id", sub.ID, "error", err)
				result.Failures++
				continue
			}
			result.AppliedPendingChanges++
			continue
		}

		if err := s.cancel(ctx, sub, now, "period expired without renewal"); err != nil {
			s.Logger.Errorw("failed to expire subscription",
				"subscription_id", sub.ID, "error", err)
			result.Failures++
			continue
		}
		result.ExpiredSubscriptions++
	}
}

func (s *renewalService) processCancellations(ctx context.Context, now time.Time, result *dto.SweepResponse) {
	due, err := s.SubRepo.ListPastCancelAt(ctx, now)
	if err != nil {
		s.Logger.Errorw("failed to list due cancellations", "error", err)
		result.Failures++
		return
	}

	for _, sub := range due {
		reason := sub.CancelReason
		if reason == "" {
			reason = "cancelled at period end"
		}
		if err := s.cancel(ctx, sub, now, reason); err != nil {
			s.Logger.Errorw("failed to process cancellation",
				"subscription_id", sub.ID, "error", err)
			result.Failures++
			continue
		}
		result.CancelledAtPeriodEnd++
	}
}

// generateRenewalInvoices issues OPEN invoices ahead of the period end so
// the organization can pay before access lapses. Pending changes are
// reflected in the invoiced configuration.
func (s *renewalService) generateRenewalInvoices(ctx context.Context, now time.Time, result *dto.SweepResponse) {
	windowEnd := now.AddDate(0, 0, s.Config.Billing.RenewalNoticeDays)
	due, err := s.SubRepo.ListRenewalDue(ctx, windowEnd)
	if err != nil {
		s.Logger.Errorw("failed to list renewals due", "error", err)
		result.Failures++
		return
	}

	invoiceService := NewInvoiceService(s.ServiceParams)
	for _, sub := range due {
		issued, err := s.hasRenewalInvoice(ctx, sub)
		if err != nil {
			s.Logger.Errorw("failed to check existing renewal invoice",
				"subscription_id", sub.ID, "error", err)
			result.Failures++
			continue
		}
		if issued {
			continue
		}

		billable := *sub
		if sub.PendingPlanID != nil {
			billable.PlanID = *sub.PendingPlanID
		}
		if sub.PendingUserCount != nil {
			billable.UserCount = *sub.PendingUserCount
		}

		p, err := s.PlanRepo.Get(ctx, billable.PlanID)
		if err != nil {
			s.Logger.Errorw("failed to load plan for renewal invoice",
				"subscription_id", sub.ID, "plan_id", billable.PlanID, "error", err)
			result.Failures++
			continue
		}

		if _, err := invoiceService.GenerateRenewalInvoice(ctx, &billable, p); err != nil {
			s.Logger.Errorw("failed to generate renewal invoice",
				"subscription_id", sub.ID, "error", err)
			result.Failures++
			continue
		}
		result.RenewalInvoices++
	}
}

func (s *renewalService) hasRenewalInvoice(ctx context.Context, sub *subscription.Subscription) (bool, error) {
	invoices, err := s.InvoiceRepo.GetBySubscriptionID(ctx, sub.ID)
	if err != nil {
		return false, err
	}
	for _, inv := range invoices {
		if inv.BillingReason == types.InvoiceBillingReasonRenewal &&
			inv.DueDate != nil && inv.DueDate.Equal(sub.CurrentPeriodEnd) {
			return true, nil
		}
	}
	return false, nil
}

func (s *renewalService) cancel(ctx context.Context, sub *subscription.Subscription, now time.Time, reason string) error {
	sub.SubscriptionStatus = types.SubscriptionStatusCancelled
	sub.CancelledAt = &now
	sub.CancelReason = reason
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return err
	}

	s.Cache.Delete(ctx, cache.QuotaKey(sub.OrganizationID))

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
				"error", err)
		}
	}
	return nil
}
