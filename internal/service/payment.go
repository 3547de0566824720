package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/inboz-admin/inboz-app-sub004/internal/api/dto"
	"github.com/inboz-admin/inboz-app-sub004/internal/cache"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/organization"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/plan"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/pricing"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/proration"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/subscription"
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/inboz-admin/inboz-app-sub004/internal/integration/gateway"
	"github.com/inboz-admin/inboz-app-sub004/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// PaymentService drives the payment-first protocol: no subscription state
// changes until the gateway confirms the charge.
type PaymentService interface {
	// InitiatePayment classifies the requested change against the current
	// subscription, computes the charge, and opens a gateway checkout. No
	// local state is written except a lazily created gateway customer id.
	InitiatePayment(ctx context.Context, req dto.InitiatePaymentRequest) (*dto.InitiatePaymentResponse, error)

	// VerifyPayment confirms the payment with the gateway and commits the
	// subscription change and its invoice in one serializable transaction.
	VerifyPayment(ctx context.Context, req dto.VerifyPaymentRequest) (*dto.VerifyPaymentResponse, error)

	// HandlePaymentFailure cleans up after a payment that failed post
	// commit. Fresh rows are hard-deleted with their invoice; older
	// upgraded rows are left INCOMPLETE for manual reconciliation.
	HandlePaymentFailure(ctx context.Context, req dto.PaymentFailureRequest) error

	// AdminOverrideUpgrade applies a plan change immediately with no
	// charge, recording a zero-total invoice.
	AdminOverrideUpgrade(ctx context.Context, req dto.AdminOverrideUpgradeRequest) (*dto.SubscriptionResponse, error)
}

type paymentService struct {
	ServiceParams
}

func NewPaymentService(params ServiceParams) PaymentService {
	return &paymentService{ServiceParams: params}
}

// metadata keys carried on every gateway order so verification can replay
// the checkout intent without trusting the client.
const (
	metaOrganizationID = "organization_id"
	metaPlanID         = "plan_id"
	metaUserCount      = "user_count"
	metaBillingCycle   = "billing_cycle"
	metaOperationType  = "operation_type"
	metaSupersedesID   = "supersedes_subscription_id"
	metaBreakdown      = "pricing_breakdown"
)

// checkoutBreakdown is the pricing decision frozen at initiate time and
// serialized onto the gateway order, so verification commits exactly what
// the customer was charged instead of recomputing against state (and a
// clock) that may have moved between initiate and verify.
type checkoutBreakdown struct {
	Quote     *pricing.Quote    `json:"quote"`
	Proration *proration.Result `json:"proration,omitempty"`
	Amount    decimal.Decimal   `json:"amount"`
}

// checkoutIntent is the decoded order metadata.
type checkoutIntent struct {
	OrganizationID string
	PlanID         string
	UserCount      int
	BillingCycle   types.BillingCycle
	Operation      types.BillingOperationType
	SupersedesID   string
	Breakdown      checkoutBreakdown
}

func (s *paymentService) InitiatePayment(ctx context.Context, req dto.InitiatePaymentRequest) (*dto.InitiatePaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	gw, err := s.Gateways.Gateway(req.Provider)
	if err != nil {
		return nil, err
	}
	org, err := s.OrgRepo.Get(ctx, req.OrganizationID)
	if err != nil {
		return nil, err
	}
	newPlan, err := s.PlanRepo.Get(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	current, err := s.currentSubscription(ctx, req.OrganizationID)
	if err != nil {
		return nil, err
	}

	seats, err := s.resolveSeatCount(ctx, req, current)
	if err != nil {
		return nil, err
	}

	op, err := s.classifyOperation(ctx, current, newPlan, seats, req.BillingCycle)
	if err != nil {
		return nil, err
	}

	quote, err := pricing.ComputeQuote(newPlan, seats, req.BillingCycle)
	if err != nil {
		return nil, err
	}
	if quote.RequiresContactSales {
		return s.contactSalesResponse(req.Provider, op, seats), nil
	}

	amount := quote.TotalAmount
	var pr *proration.Result
	if op != types.BillingOperationTrialToPaid {
		amount, pr, err = s.computeCharge(ctx, current, newPlan, seats, req.BillingCycle, op)
		if err != nil {
			if ierr.IsContactSalesRequired(err) {
				return s.contactSalesResponse(req.Provider, op, seats), nil
			}
			return nil, err
		}
	}

	customerID, err := s.resolveGatewayCustomer(ctx, gw, org)
	if err != nil {
		return nil, err
	}

	breakdown, err := json.Marshal(checkoutBreakdown{
		Quote:     quote,
		Proration: pr,
		Amount:    amount,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to record the pricing breakdown").
			Mark(ierr.ErrSystem)
	}

	metadata := types.Metadata{
		metaOrganizationID: org.ID,
		metaPlanID:         newPlan.ID,
		metaUserCount:      strconv.Itoa(seats),
		metaBillingCycle:   string(req.BillingCycle),
		metaOperationType:  string(op),
		metaBreakdown:      string(breakdown),
	}
	if current != nil {
		metadata[metaSupersedesID] = current.ID
	}

	order, err := gw.CreateOrder(ctx, gateway.CreateOrderRequest{
		CustomerID:  customerID,
		Amount:      amount,
		Currency:    s.Config.Billing.Currency,
		Description: fmt.Sprintf("%s x %d users (%s)", newPlan.Name, seats, req.BillingCycle),
		Metadata:    metadata,
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("initiated payment",
		"organization_id", org.ID,
		"plan_id", newPlan.ID,
		"operation", op,
		"user_count", seats,
		"amount", amount,
		"provider", req.Provider,
		"order_id", order.OrderID)

	return &dto.InitiatePaymentResponse{
		Provider:      req.Provider,
		OrderID:       order.OrderID,
		CheckoutURL:   order.CheckoutURL,
		Amount:        amount,
		Currency:      order.Currency,
		OperationType: op,
		UserCount:     seats,
	}, nil
}

func (s *paymentService) VerifyPayment(ctx context.Context, req dto.VerifyPaymentRequest) (*dto.VerifyPaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	gw, err := s.Gateways.Gateway(req.Provider)
	if err != nil {
		return nil, err
	}

	order, err := gw.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	intent, err := parseIntent(order.Metadata)
	if err != nil {
		return nil, err
	}
	if intent.OrganizationID != req.OrganizationID {
		return nil, ierr.NewError("order does not belong to this organization").
			WithReportableDetails(map[string]any{
				"order_id":        req.OrderID,
				"organization_id": req.OrganizationID,
			}).
			Mark(ierr.ErrPaymentVerificationFailed)
	}
	if !order.Amount.Equal(intent.Breakdown.Amount) {
		return nil, ierr.NewError("order amount does not match the recorded quote").
			WithReportableDetails(map[string]any{
				"order_id":      req.OrderID,
				"order_amount":  order.Amount,
				"quoted_amount": intent.Breakdown.Amount,
			}).
			Mark(ierr.ErrPaymentVerificationFailed)
	}

	// Duplicate webhook delivery and double-clicks short-circuit to the
	// already committed outcome.
	window := time.Duration(s.Config.Billing.IdempotencyWindowSecs) * time.Second
	if existing, err := s.SubRepo.FindRecentDuplicate(ctx, subscription.DuplicateSearch{
		OrganizationID: intent.OrganizationID,
		PlanID:         intent.PlanID,
		UserCount:      intent.UserCount,
		BillingCycle:   intent.BillingCycle,
		Provider:       req.Provider,
		CreatedAfter:   time.Now().UTC().Add(-window),
	}); err == nil && existing != nil {
		s.Logger.Warnw("duplicate payment verification short-circuited",
			"organization_id", intent.OrganizationID,
			"subscription_id", existing.ID,
			"order_id", req.OrderID)
		return s.verifiedResponse(ctx, existing)
	} else if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	if err := gw.VerifyPayment(ctx, gateway.VerifyPaymentRequest{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	}); err != nil {
		return nil, err
	}

	var (
		newSub     *subscription.Subscription
		inv        *dto.InvoiceResponse
		superseded *subscription.Subscription
	)

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		org, err := s.OrgRepo.GetForUpdate(ctx, intent.OrganizationID)
		if err != nil {
			return err
		}

		current, err := s.currentSubscription(ctx, intent.OrganizationID)
		if err != nil {
			return err
		}

		newPlan, err := s.PlanRepo.Get(ctx, intent.PlanID)
		if err != nil {
			return err
		}

		// The committed amounts come from the breakdown recorded at
		// initiate, not from a recomputation: the clock and the current
		// subscription may have moved since the customer paid.
		quote := intent.Breakdown.Quote
		pr := intent.Breakdown.Proration

		var priorPlan *plan.Plan
		if intent.Operation != types.BillingOperationTrialToPaid {
			if current == nil {
				return ierr.NewError("no live subscription to change").
					WithHint("The subscription this payment was to change no longer exists").
					Mark(ierr.ErrInvalidOperation)
			}
			if pr == nil {
				return ierr.NewError("order breakdown is missing the proration detail").
					Mark(ierr.ErrPaymentVerificationFailed)
			}
			priorPlan, err = s.PlanRepo.Get(ctx, current.PlanID)
			if err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		periodStart, periodEnd, err := s.newPeriod(current, intent.Operation, intent.BillingCycle, now)
		if err != nil {
			return err
		}

		if current != nil {
			current.SubscriptionStatus = types.SubscriptionStatusCancelled
			current.CancelledAt = &now
			current.CancelReason = fmt.Sprintf("superseded by %s", intent.Operation)
			if err := s.SubRepo.Update(ctx, current); err != nil {
				return err
			}
			superseded = current
		}

		newSub = &subscription.Subscription{
			ID:                    types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
			OrganizationID:        org.ID,
			PlanID:                newPlan.ID,
			SubscriptionStatus:    types.SubscriptionStatusActive,
			BillingCycle:          intent.BillingCycle,
			UserCount:             intent.UserCount,
			VolumeDiscountPercent: quote.VolumeDiscountPercent,
			Amount:                quote.BasePricePerUser.Mul(decimal.NewFromInt(int64(intent.UserCount))).Round(2),
			FinalAmount:           quote.TotalAmount,
			Currency:              s.Config.Billing.Currency,
			CurrentPeriodStart:    periodStart,
			CurrentPeriodEnd:      periodEnd,
			BaseModel:             types.GetDefaultBaseModel(ctx),
		}
		if pr != nil {
			newSub.ProrationDetails = pr.Snapshot(intent.Operation, s.changeParams(current, newPlan, priorPlan, *intent))
		}
		customerID := org.GatewayCustomerID(req.Provider)
		if customerID != nil {
			switch req.Provider {
			case types.PaymentProviderStripe:
				newSub.StripeCustomerID = customerID
			case types.PaymentProviderRazorpay:
				newSub.RazorpayCustomerID = customerID
			}
		}

		if err := s.SubRepo.Create(ctx, newSub); err != nil {
			return err
		}

		invoiceParams := PaymentInvoiceParams{
			Subscription:  newSub,
			Plan:          newPlan,
			PriorPlan:     priorPlan,
			Operation:     intent.Operation,
			BillingReason: billingReasonFor(intent.Operation),
			Quote:         quote,
			Proration:     pr,
		}
		switch req.Provider {
		case types.PaymentProviderStripe:
			if req.PaymentID != "" {
				invoiceParams.StripePaymentIntentID = lo.ToPtr(req.PaymentID)
			}
		case types.PaymentProviderRazorpay:
			invoiceParams.RazorpayOrderID = lo.ToPtr(req.OrderID)
			invoiceParams.RazorpayPaymentID = lo.ToPtr(req.PaymentID)
		}

		created, err := NewInvoiceService(s.ServiceParams).GeneratePaymentInvoice(ctx, invoiceParams)
		if err != nil {
			return err
		}
		inv = dto.NewInvoiceResponse(created)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Committed. Everything below is best-effort.
	s.Cache.Delete(ctx, cache.QuotaKey(intent.OrganizationID))
	if superseded != nil {
		s.cancelRemote(ctx, gw, superseded, req.Provider)
	}

	s.Logger.Infow("payment verified and subscription committed",
		"organization_id", intent.OrganizationID,
		"subscription_id", newSub.ID,
		"operation", intent.Operation,
		"order_id", req.OrderID)

	return &dto.VerifyPaymentResponse{
		Subscription: dto.NewSubscriptionResponse(newSub),
		Invoice:      inv,
	}, nil
}

func (s *paymentService) HandlePaymentFailure(ctx context.Context, req dto.PaymentFailureRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	inv, err := s.InvoiceRepo.Get(ctx, req.InvoiceID)
	if err != nil {
		return err
	}
	sub, err := s.SubRepo.Get(ctx, inv.SubscriptionID)
	if err != nil {
		return err
	}

	age := time.Since(sub.CreatedAt)
	if age < time.Hour {
		err := s.DB.WithTx(ctx, func(ctx context.Context) error {
			if err := s.InvoiceRepo.Delete(ctx, inv.ID); err != nil {
				return err
			}
			return s.SubRepo.Delete(ctx, sub.ID)
		})
		if err != nil {
			return err
		}
		s.Logger.Infow("deleted subscription after payment failure",
			"subscription_id", sub.ID,
			"invoice_id", inv.ID,
			"age", age,
			"reason", req.Reason)
	} else {
		// Older upgraded rows keep their state for manual reconciliation;
		// no automatic rollback to the prior plan is attempted.
		sub.SubscriptionStatus = types.SubscriptionStatusIncomplete
		if err := s.SubRepo.Update(ctx, sub); err != nil {
			return err
		}
		s.Logger.Warnw("left subscription incomplete after payment failure",
			"subscription_id", sub.ID,
			"invoice_id", inv.ID,
			"age", age,
			"reason", req.Reason)
	}

	s.Cache.Delete(ctx, cache.QuotaKey(sub.OrganizationID))
	return nil
}

func (s *paymentService) AdminOverrideUpgrade(ctx context.Context, req dto.AdminOverrideUpgradeRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	newPlan, err := s.PlanRepo.Get(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	quote, err := s.adminQuote(newPlan, req.UserCount, req.BillingCycle)
	if err != nil {
		return nil, err
	}

	var newSub *subscription.Subscription
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		org, err := s.OrgRepo.GetForUpdate(ctx, req.OrganizationID)
		if err != nil {
			return err
		}

		current, err := s.currentSubscription(ctx, req.OrganizationID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		periodEnd, err := types.NextPeriodEnd(now, req.BillingCycle)
		if err != nil {
			return err
		}

		var priorPlan *plan.Plan
		if current != nil {
			priorPlan, err = s.PlanRepo.Get(ctx, current.PlanID)
			if err != nil {
				return err
			}
			current.SubscriptionStatus = types.SubscriptionStatusCancelled
			current.CancelledAt = &now
			current.CancelReason = fmt.Sprintf("superseded by admin override: %s", req.Reason)
			if err := s.SubRepo.Update(ctx, current); err != nil {
				return err
			}
		}

		newSub = &subscription.Subscription{
			ID:                    types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
			OrganizationID:        org.ID,
			PlanID:                newPlan.ID,
			SubscriptionStatus:    types.SubscriptionStatusActive,
			BillingCycle:          req.BillingCycle,
			UserCount:             req.UserCount,
			VolumeDiscountPercent: quote.VolumeDiscountPercent,
			Amount:                quote.BasePricePerUser.Mul(decimal.NewFromInt(int64(req.UserCount))).Round(2),
			FinalAmount:           quote.TotalAmount,
			Currency:              s.Config.Billing.Currency,
			CurrentPeriodStart:    now,
			CurrentPeriodEnd:      periodEnd,
			StripeCustomerID:      org.StripeCustomerID,
			RazorpayCustomerID:    org.RazorpayCustomerID,
			BaseModel:             types.GetDefaultBaseModel(ctx),
		}
		if err := s.SubRepo.Create(ctx, newSub); err != nil {
			return err
		}

		_, err = NewInvoiceService(s.ServiceParams).GeneratePaymentInvoice(ctx, PaymentInvoiceParams{
			Subscription:  newSub,
			Plan:          newPlan,
			PriorPlan:     priorPlan,
			Operation:     types.BillingOperationUpgrade,
			BillingReason: types.InvoiceBillingReasonAdminOverride,
			Quote:         quote,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Cache.Delete(ctx, cache.QuotaKey(req.OrganizationID))

	s.Logger.Infow("applied admin override upgrade",
		"organization_id", req.OrganizationID,
		"subscription_id", newSub.ID,
		"plan_id", req.PlanID,
		"user_count", req.UserCount,
		"reason", req.Reason,
		"actor", types.GetUserID(ctx))

	return dto.NewSubscriptionResponse(newSub), nil
}

// contactSalesResponse is the flagged outcome for above-threshold seat
// counts. It is a successful response on every initiate path; no order is
// opened.
func (s *paymentService) contactSalesResponse(provider types.PaymentProvider, op types.BillingOperationType, seats int) *dto.InitiatePaymentResponse {
	return &dto.InitiatePaymentResponse{
		Provider:             provider,
		Currency:             s.Config.Billing.Currency,
		OperationType:        op,
		UserCount:            seats,
		Amount:               decimal.Zero,
		RequiresContactSales: true,
	}
}

// currentSubscription returns the live row or nil when none exists.
func (s *paymentService) currentSubscription(ctx context.Context, orgID string) (*subscription.Subscription, error) {
	sub, err := s.SubRepo.GetActiveOrTrialByOrganization(ctx, orgID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

// resolveSeatCount picks the seats for the checkout: the explicit request
// value, the seats already paid for, or the live active-user count.
func (s *paymentService) resolveSeatCount(ctx context.Context, req dto.InitiatePaymentRequest, current *subscription.Subscription) (int, error) {
	if req.UserCount != nil {
		return *req.UserCount, nil
	}
	if current != nil && current.SubscriptionStatus == types.SubscriptionStatusActive {
		return current.UserCount, nil
	}
	live, err := s.OrgRepo.CountActiveUsers(ctx, req.OrganizationID)
	if err != nil {
		return 0, err
	}
	if live < 1 {
		live = 1
	}
	return live, nil
}

// classifyOperation decides what kind of billable change the checkout is.
// Seat decreases and plan downgrades never go through payment.
func (s *paymentService) classifyOperation(ctx context.Context, current *subscription.Subscription, newPlan *plan.Plan, seats int, cycle types.BillingCycle) (types.BillingOperationType, error) {
	if current == nil || current.SubscriptionStatus == types.SubscriptionStatusTrial {
		return types.BillingOperationTrialToPaid, nil
	}
	if current.SubscriptionStatus != types.SubscriptionStatusActive {
		return "", ierr.NewError("subscription cannot be changed in its current status").
			WithHintf("Subscription is %s", current.SubscriptionStatus).
			Mark(ierr.ErrInvalidStateTransition)
	}

	if seats < current.UserCount {
		return "", ierr.NewError("seat decreases cannot be charged").
			WithHint("Schedule a seat reduction instead; it applies at the next renewal").
			WithReportableDetails(map[string]any{
				"current_user_count": current.UserCount,
				"requested":          seats,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	planChanged := newPlan.ID != current.PlanID
	seatsAdded := seats > current.UserCount
	cycleChanged := cycle != current.BillingCycle

	if planChanged {
		currentPlan, err := s.PlanRepo.Get(ctx, current.PlanID)
		if err != nil {
			return "", err
		}
		currentPrice, err := pricing.PerSeatPrice(currentPlan, current.BillingCycle)
		if err != nil {
			return "", err
		}
		newPrice, err := pricing.PerSeatPrice(newPlan, current.BillingCycle)
		if err != nil {
			return "", err
		}
		if !newPrice.GreaterThan(currentPrice) {
			return "", ierr.NewError("plan downgrades cannot be charged").
				WithHint("Schedule a plan downgrade instead; it applies at the next renewal").
				Mark(ierr.ErrInvalidOperation)
		}
	}

	switch {
	case planChanged && (seatsAdded || cycleChanged):
		return types.BillingOperationCombined, nil
	case planChanged:
		return types.BillingOperationUpgrade, nil
	case cycleChanged && seatsAdded:
		return types.BillingOperationCombined, nil
	case cycleChanged:
		return types.BillingOperationCycleChange, nil
	case seatsAdded:
		return types.BillingOperationAddUsers, nil
	default:
		return "", ierr.NewError("nothing to change").
			WithHint("Plan, seat count and billing cycle all match the current subscription").
			Mark(ierr.ErrInvalidOperation)
	}
}

// computeCharge returns the prorated amount to collect for a mid-cycle
// change. Trial conversions are full-period quotes and never reach here.
func (s *paymentService) computeCharge(ctx context.Context, current *subscription.Subscription, newPlan *plan.Plan, seats int, cycle types.BillingCycle, op types.BillingOperationType) (decimal.Decimal, *proration.Result, error) {
	priorPlan, err := s.PlanRepo.Get(ctx, current.PlanID)
	if err != nil {
		return decimal.Zero, nil, err
	}

	params := s.changeParams(current, newPlan, priorPlan, checkoutIntent{
		UserCount:    seats,
		BillingCycle: cycle,
	})

	var pr *proration.Result
	switch op {
	case types.BillingOperationUpgrade, types.BillingOperationAddUsers:
		pr, err = proration.UpgradeCharge(params)
	case types.BillingOperationCombined:
		pr, err = proration.CombinedUpgradeCharge(params)
	case types.BillingOperationCycleChange:
		pr, err = proration.BillingCycleChangeCharge(params)
	default:
		return decimal.Zero, nil, ierr.NewError("unsupported billing operation").
			WithReportableDetails(map[string]any{"operation": op}).
			Mark(ierr.ErrInvalidOperation)
	}
	if err != nil {
		return decimal.Zero, nil, err
	}

	if !pr.NetCharge.IsPositive() {
		return decimal.Zero, nil, ierr.NewError("prorated credit covers the new charge").
			WithHint("No payment is due for this change; contact support").
			WithReportableDetails(map[string]any{
				"credit": pr.CreditAmount,
				"charge": pr.ChargeAmount,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	return pr.NetCharge, pr, nil
}

func (s *paymentService) changeParams(current *subscription.Subscription, newPlan, priorPlan *plan.Plan, intent checkoutIntent) proration.ChangeParams {
	now := time.Now().UTC()
	params := proration.ChangeParams{
		OldPlan:           priorPlan,
		OldSeats:          current.UserCount,
		NewSeats:          intent.UserCount,
		OldCycle:          current.BillingCycle,
		DaysRemaining:     proration.DaysRemaining(current.CurrentPeriodStart, current.CurrentPeriodEnd, now),
		TotalDaysInPeriod: proration.TotalDaysInPeriod(current.CurrentPeriodStart, current.CurrentPeriodEnd),
		OldAmountPaid:     lo.ToPtr(current.FinalAmount),
	}
	if newPlan != nil && newPlan.ID != priorPlan.ID {
		params.NewPlan = newPlan
	}
	if intent.BillingCycle != current.BillingCycle {
		params.NewCycle = intent.BillingCycle
	}
	return params
}

// newPeriod decides whether the billing period resets. Plain upgrades and
// seat additions keep the current period; everything else starts fresh.
func (s *paymentService) newPeriod(current *subscription.Subscription, op types.BillingOperationType, cycle types.BillingCycle, now time.Time) (time.Time, time.Time, error) {
	if current != nil &&
		(op == types.BillingOperationUpgrade || op == types.BillingOperationAddUsers) {
		return current.CurrentPeriodStart, current.CurrentPeriodEnd, nil
	}
	end, err := types.NextPeriodEnd(now, cycle)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return now, end, nil
}

// resolveGatewayCustomer reuses the stored gateway customer id, recovers
// one from subscription history, or creates a fresh gateway customer.
func (s *paymentService) resolveGatewayCustomer(ctx context.Context, gw gateway.PaymentGateway, org *organization.Organization) (string, error) {
	if id := org.GatewayCustomerID(gw.Provider()); id != nil && *id != "" {
		return *id, nil
	}

	history, err := s.SubRepo.ListByOrganization(ctx, org.ID)
	if err != nil {
		return "", err
	}
	for _, sub := range history {
		if id := sub.GatewayCustomerID(gw.Provider()); id != nil && *id != "" {
			org.SetGatewayCustomerID(gw.Provider(), *id)
			if err := s.OrgRepo.Update(ctx, org); err != nil {
				return "", err
			}
			return *id, nil
		}
	}

	id, err := gw.CreateCustomer(ctx, org)
	if err != nil {
		return "", err
	}
	org.SetGatewayCustomerID(gw.Provider(), id)
	if err := s.OrgRepo.Update(ctx, org); err != nil {
		return "", err
	}
	return id, nil
}

// adminQuote prices an admin override. The contact-sales gate does not
// apply; above-threshold seat counts get the top volume tier.
func (s *paymentService) adminQuote(p *plan.Plan, seats int, cycle types.BillingCycle) (*pricing.Quote, error) {
	quote, err := pricing.ComputeQuote(p, seats, cycle)
	if err != nil {
		return nil, err
	}
	if !quote.RequiresContactSales {
		return quote, nil
	}

	perSeat, err := pricing.PerSeatPrice(p, cycle)
	if err != nil {
		return nil, err
	}
	discounted := perSeat.Mul(decimal.NewFromFloat(0.8)).Round(2)
	return &pricing.Quote{
		BasePricePerUser:       perSeat,
		VolumeDiscountPercent:  20,
		DiscountedPricePerUser: discounted,
		TotalAmount:            discounted.Mul(decimal.NewFromInt(int64(seats))).Round(2),
	}, nil
}

func (s *paymentService) verifiedResponse(ctx context.Context, sub *subscription.Subscription) (*dto.VerifyPaymentResponse, error) {
	resp := &dto.VerifyPaymentResponse{
		Subscription: dto.NewSubscriptionResponse(sub),
	}
	invoices, err := s.InvoiceRepo.GetBySubscriptionID(ctx, sub.ID)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}
	if len(invoices) > 0 {
		resp.Invoice = dto.NewInvoiceResponse(invoices[0])
	}
	return resp, nil
}

func (s *paymentService) cancelRemote(ctx context.Context, gw gateway.PaymentGateway, sub *subscription.Subscription, provider types.PaymentProvider) {
	remoteID := sub.GatewaySubscriptionID(provider)
	if remoteID == nil || *remoteID == "" {
		return
	}
	if err := gw.CancelRemoteSubscription(ctx, *remoteID); err != nil {
		s.Logger.Warnw("failed to cancel superseded gateway subscription",
			"subscription_id", sub.ID,
			"provider", provider,
			"remote_subscription_id", *remoteID,
			"error", err)
	}
}

func parseIntent(metadata types.Metadata) (*checkoutIntent, error) {
	op := types.BillingOperationType(metadata[metaOperationType])
	if err := op.Validate(); err != nil {
		return nil, ierr.NewError("order metadata is missing the operation type").
			WithHint("The order was not created by this system").
			Mark(ierr.ErrPaymentVerificationFailed)
	}
	seats, err := strconv.Atoi(metadata[metaUserCount])
	if err != nil || seats < 1 {
		return nil, ierr.NewError("order metadata has an invalid user count").
			Mark(ierr.ErrPaymentVerificationFailed)
	}
	cycle := types.BillingCycle(metadata[metaBillingCycle])
	if err := cycle.Validate(); err != nil {
		return nil, ierr.NewError("order metadata has an invalid billing cycle").
			Mark(ierr.ErrPaymentVerificationFailed)
	}
	if metadata[metaOrganizationID] == "" || metadata[metaPlanID] == "" {
		return nil, ierr.NewError("order metadata is missing organization or plan").
			Mark(ierr.ErrPaymentVerificationFailed)
	}

	raw := metadata[metaBreakdown]
	if raw == "" {
		return nil, ierr.NewError("order metadata is missing the pricing breakdown").
			WithHint("The order was not created by this system").
			Mark(ierr.ErrPaymentVerificationFailed)
	}
	var breakdown checkoutBreakdown
	if err := json.Unmarshal([]byte(raw), &breakdown); err != nil {
		return nil, ierr.WithError(err).
			WithHint("The order's pricing breakdown is unreadable").
			Mark(ierr.ErrPaymentVerificationFailed)
	}
	if breakdown.Quote == nil || !breakdown.Amount.IsPositive() {
		return nil, ierr.NewError("order metadata has an invalid pricing breakdown").
			Mark(ierr.ErrPaymentVerificationFailed)
	}

	return &checkoutIntent{
		OrganizationID: metadata[metaOrganizationID],
		PlanID:         metadata[metaPlanID],
		UserCount:      seats,
		BillingCycle:   cycle,
		Operation:      op,
		SupersedesID:   metadata[metaSupersedesID],
		Breakdown:      breakdown,
	}, nil
}

func billingReasonFor(op types.BillingOperationType) types.InvoiceBillingReason {
	if op == types.BillingOperationTrialToPaid {
		return types.InvoiceBillingReasonTrial
	}
	return types.InvoiceBillingReasonUpgrade
}
