package service

import (
	"context"

	"github.com/inboz-admin/inboz-app-sub004/internal/api/dto"
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/pricing"
)

type PricingService interface {
	// QuotePrice prices a seat count against a plan and cycle. The result
	// is computed fresh on every call and never cached.
	QuotePrice(ctx context.Context, req dto.QuotePriceRequest) (*dto.QuotePriceResponse, error)
}

type pricingService struct {
	ServiceParams
}

func NewPricingService(params ServiceParams) PricingService {
	return &pricingService{ServiceParams: params}
}

func (s *pricingService) QuotePrice(ctx context.Context, req dto.QuotePriceRequest) (*dto.QuotePriceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.PlanRepo.Get(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	quote, err := pricing.ComputeQuote(p, req.UserCount, req.BillingCycle)
	if err != nil {
		return nil, err
	}

	return &dto.QuotePriceResponse{
		PlanID:                 p.ID,
		PlanName:               p.Name,
		BillingCycle:           req.BillingCycle,
		UserCount:              req.UserCount,
		Currency:               s.Config.Billing.Currency,
		BasePricePerUser:       quote.BasePricePerUser,
		VolumeDiscountPercent:  quote.VolumeDiscountPercent,
		DiscountedPricePerUser: quote.DiscountedPricePerUser,
		TotalAmount:            quote.TotalAmount,
		RequiresContactSales:   quote.RequiresContactSales,
	}, nil
}
