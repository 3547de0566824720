package service

import (
	"context"
	"fmt"
	"time"

	"github.com/inboz-admin/inboz-app-sub004/internal/api/dto"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/invoice"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/plan"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/pricing"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/proration"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/subscription"
	"github.com/inboz-admin/inboz-app-sub004/internal/types"
	"github.com/shopspring/decimal"
)

type InvoiceService interface {
	GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, orgID string) (*dto.ListInvoicesResponse, error)

	// GeneratePaymentInvoice writes the PAID invoice for a committed
	// subscription change. Must run inside the same transaction that
	// creates the subscription row.
	GeneratePaymentInvoice(ctx context.Context, params PaymentInvoiceParams) (*invoice.Invoice, error)

	// GenerateRenewalInvoice writes an OPEN invoice ahead of the period
	// end, due on the renewal date.
	GenerateRenewalInvoice(ctx context.Context, sub *subscription.Subscription, p *plan.Plan) (*invoice.Invoice, error)

	// GenerateTrialInvoice records the zero-amount billing event that
	// starts a trial. Runs in the same transaction as the trial row.
	GenerateTrialInvoice(ctx context.Context, sub *subscription.Subscription, p *plan.Plan) (*invoice.Invoice, error)
}

// PaymentInvoiceParams describes one billing event to itemize. Quote is
// set for full-period charges; Proration for mid-cycle changes. Exactly
// one of the two drives the line items.
type PaymentInvoiceParams struct {
	Subscription *subscription.Subscription
	Plan         *plan.Plan
	PriorPlan    *plan.Plan

	Operation     types.BillingOperationType
	BillingReason types.InvoiceBillingReason

	Quote     *pricing.Quote
	Proration *proration.Result

	StripePaymentIntentID *string
	RazorpayOrderID       *string
	RazorpayPaymentID     *string
}

type invoiceService struct {
	ServiceParams
}

func NewInvoiceService(params ServiceParams) InvoiceService {
	return &invoiceService{ServiceParams: params}
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, orgID string) (*dto.ListInvoicesResponse, error) {
	invoices, err := s.InvoiceRepo.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return dto.NewListInvoicesResponse(invoices), nil
}

func (s *invoiceService) GeneratePaymentInvoice(ctx context.Context, params PaymentInvoiceParams) (*invoice.Invoice, error) {
	sub := params.Subscription

	var lines []invoice.LineItem
	if params.Proration != nil {
		lines = s.prorationLines(params)
	} else {
		lines = s.quoteLines(params.Plan, sub.UserCount, params.Quote)
	}

	if params.BillingReason == types.InvoiceBillingReasonAdminOverride {
		// Admin overrides record the full itemization but charge nothing.
		lines = append(lines, invoice.LineItem{
			Kind:        invoice.LineItemKindCredit,
			Description: "Admin override, no charge",
			Amount:      sumLines(lines).Neg(),
		})
	}

	total := sumLines(lines)
	now := time.Now().UTC()

	number, err := s.InvoiceRepo.NextInvoiceNumber(ctx)
	if err != nil {
		return nil, err
	}

	var snapshot *types.ProrationSnapshot
	if sub.ProrationDetails != nil {
		snapshot = sub.ProrationDetails
	}

	inv := &invoice.Invoice{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		OrganizationID: sub.OrganizationID,
		SubscriptionID: sub.ID,
		InvoiceNumber:  number,
		InvoiceStatus:  types.InvoiceStatusPaid,
		BillingReason:  params.BillingReason,
		Currency:       sub.Currency,
		Subtotal:       total,
		TaxAmount:      decimal.Zero,
		Total:          total,
		AmountPaid:     total,
		AmountDue:      decimal.Zero,
		IssueDate:      now,
		PaidAt:         &now,
		Breakdown: invoice.Breakdown{
			LineItems: lines,
			Proration: snapshot,
		},
		StripePaymentIntentID: params.StripePaymentIntentID,
		RazorpayOrderID:       params.RazorpayOrderID,
		RazorpayPaymentID:     params.RazorpayPaymentID,
		BaseModel:             types.GetDefaultBaseModel(ctx),
	}

	if err := s.InvoiceRepo.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.Logger.Infow("generated payment invoice",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"subscription_id", sub.ID,
		"operation", params.Operation,
		"total", total)

	return inv, nil
}

func (s *invoiceService) GenerateRenewalInvoice(ctx context.Context, sub *subscription.Subscription, p *plan.Plan) (*invoice.Invoice, error) {
	quote, err := pricing.ComputeQuote(p, sub.UserCount, sub.BillingCycle)
	if err != nil {
		return nil, err
	}

	lines := s.quoteLines(p, sub.UserCount, quote)
	total := sumLines(lines)

	number, err := s.InvoiceRepo.NextInvoiceNumber(ctx)
	if err != nil {
		return nil, err
	}

	dueDate := sub.CurrentPeriodEnd
	inv := &invoice.Invoice{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		OrganizationID: sub.OrganizationID,
		SubscriptionID: sub.ID,
		InvoiceNumber:  number,
		InvoiceStatus:  types.InvoiceStatusOpen,
		BillingReason:  types.InvoiceBillingReasonRenewal,
		Currency:       sub.Currency,
		Subtotal:       total,
		TaxAmount:      decimal.Zero,
		Total:          total,
		AmountPaid:     decimal.Zero,
		AmountDue:      total,
		IssueDate:      time.Now().UTC(),
		DueDate:        &dueDate,
		Breakdown: invoice.Breakdown{
			LineItems: lines,
		},
		BaseModel: types.GetDefaultBaseModel(ctx),
	}

	if err := s.InvoiceRepo.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.Logger.Infow("generated renewal invoice",
		"invoice_id", inv.ID,
		"subscription_id", sub.ID,
		"due_date", dueDate,
		"total", total)

	return inv, nil
}

func (s *invoiceService) GenerateTrialInvoice(ctx context.Context, sub *subscription.Subscription, p *plan.Plan) (*invoice.Invoice, error) {
	number, err := s.InvoiceRepo.NextInvoiceNumber(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	inv := &invoice.Invoice{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		OrganizationID: sub.OrganizationID,
		SubscriptionID: sub.ID,
		InvoiceNumber:  number,
		InvoiceStatus:  types.InvoiceStatusPaid,
		BillingReason:  types.InvoiceBillingReasonTrial,
		Currency:       sub.Currency,
		Subtotal:       decimal.Zero,
		TaxAmount:      decimal.Zero,
		Total:          decimal.Zero,
		AmountPaid:     decimal.Zero,
		AmountDue:      decimal.Zero,
		IssueDate:      now,
		PaidAt:         &now,
		Breakdown: invoice.Breakdown{
			LineItems: []invoice.LineItem{
				{
					Kind:        invoice.LineItemKindBase,
					Description: fmt.Sprintf("%s trial x %d user", p.Name, sub.UserCount),
					Quantity:    sub.UserCount,
					UnitAmount:  decimal.Zero,
					Amount:      decimal.Zero,
				},
			},
		},
		BaseModel: types.GetDefaultBaseModel(ctx),
	}

	if err := s.InvoiceRepo.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.Logger.Infow("generated trial invoice",
		"invoice_id", inv.ID,
		"subscription_id", sub.ID,
		"organization_id", sub.OrganizationID)

	return inv, nil
}

// quoteLines itemizes a full-period charge: the undiscounted per-seat base
// plus a negative volume discount line when a tier applies.
func (s *invoiceService) quoteLines(p *plan.Plan, seats int, quote *pricing.Quote) []invoice.LineItem {
	baseAmount := quote.BasePricePerUser.Mul(decimal.NewFromInt(int64(seats))).Round(2)
	lines := []invoice.LineItem{
		{
			Kind:        invoice.LineItemKindBase,
			Description: fmt.Sprintf("%s x %d users", p.Name, seats),
			Quantity:    seats,
			UnitAmount:  quote.BasePricePerUser,
			Amount:      baseAmount,
		},
	}
	if quote.VolumeDiscountPercent > 0 {
		lines = append(lines, invoice.LineItem{
			Kind:        invoice.LineItemKindVolumeDiscount,
			Description: fmt.Sprintf("Volume discount %d%%", quote.VolumeDiscountPercent),
			Amount:      quote.TotalAmount.Sub(baseAmount),
		})
	}
	return lines
}

// prorationLines itemizes a mid-cycle change: the new charge, the credit
// for unused time, and a zero-amount reference to the superseded plan.
func (s *invoiceService) prorationLines(params PaymentInvoiceParams) []invoice.LineItem {
	pr := params.Proration
	sub := params.Subscription

	chargeDesc := fmt.Sprintf("%s x %d users (%s)", params.Plan.Name, sub.UserCount, sub.BillingCycle)
	if pr.ChargeAmount.LessThan(sub.FinalAmount) {
		chargeDesc = fmt.Sprintf("%s x %d users, %d of %d days",
			params.Plan.Name, sub.UserCount, pr.DaysRemaining, pr.TotalDaysInPeriod)
	}

	lines := []invoice.LineItem{
		{
			Kind:        invoice.LineItemKindCharge,
			Description: chargeDesc,
			Quantity:    sub.UserCount,
			Amount:      pr.ChargeAmount,
		},
	}

	if pr.CreditAmount.IsPositive() && params.PriorPlan != nil {
		lines = append(lines, invoice.LineItem{
			Kind: invoice.LineItemKindCredit,
			Description: fmt.Sprintf("Credit for unused time on %s, %d of %d days",
				params.PriorPlan.Name, pr.DaysRemaining, pr.TotalDaysInPeriod),
			Amount: pr.CreditAmount.Neg(),
		})
	}

	if params.PriorPlan != nil {
		lines = append(lines, invoice.LineItem{
			Kind:        invoice.LineItemKindPriorPlan,
			Description: fmt.Sprintf("Replaces %s", params.PriorPlan.Name),
			Amount:      decimal.Zero,
		})
	}

	return lines
}

func sumLines(lines []invoice.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Amount)
	}
	return total
}
