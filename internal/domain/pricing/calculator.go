package pricing

import (
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/plan"
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/inboz-admin/inboz-app-sub004/internal/types"
	"github.com/shopspring/decimal"
)

// yearlyDiscount is the flat "pay for 10 months" discount on yearly billing.
var yearlyDiscount = decimal.NewFromFloat(0.9)

// contactSalesThreshold is the seat count above which self-serve checkout
// is not available.
const contactSalesThreshold = 50

// PerSeatPrice returns the effective per-seat price for the plan on the
// given cycle: the yearly list price at a flat 10% off, or the monthly
// list price as-is. A zero or unset per-cycle price on the plan fails with
// ErrPriceNotConfigured rather than silently quoting zero.
func PerSeatPrice(p *plan.Plan, cycle types.BillingCycle) (decimal.Decimal, error) {
	if err := cycle.Validate(); err != nil {
		return decimal.Zero, err
	}

	var base decimal.Decimal
	switch cycle {
	case types.BILLING_CYCLE_YEARLY:
		base = p.PricePerUserYearly.Mul(yearlyDiscount)
	default:
		base = p.PricePerUserMonthly
	}

	if !base.IsPositive() {
		return decimal.Zero, ierr.NewError("plan has no price configured for billing cycle").
			WithHintf("Plan '%s' cannot be purchased on the %s cycle", p.Name, cycle).
			WithReportableDetails(map[string]any{
				"plan_id":       p.ID,
				"billing_cycle": cycle,
			}).
			Mark(ierr.ErrPriceNotConfigured)
	}

	return base.Round(2), nil
}

// VolumeDiscountForSeats looks up the seat-count tier. Breakpoints are
// fixed: 1-4 seats no discount, 5-10 at 10%, 11-25 at 15%, 26-50 at 20%.
// Above 50 seats the outcome is ContactSales rather than a percentage.
func VolumeDiscountForSeats(seatCount int) VolumeDiscount {
	switch {
	case seatCount > contactSalesThreshold:
		return VolumeDiscount{ContactSales: true}
	case seatCount >= 26:
		return VolumeDiscount{Percent: 20}
	case seatCount >= 11:
		return VolumeDiscount{Percent: 15}
	case seatCount >= 5:
		return VolumeDiscount{Percent: 10}
	default:
		return VolumeDiscount{Percent: 0}
	}
}

// ComputeQuote prices seatCount seats of the plan on the given cycle.
// Amounts are rounded half-up to cents. A seat count above the self-serve
// threshold returns a quote with RequiresContactSales set and all monetary
// fields zero; that is a successful outcome, not an error.
func ComputeQuote(p *plan.Plan, seatCount int, cycle types.BillingCycle) (*Quote, error) {
	if seatCount < 1 {
		return nil, ierr.NewError("seat count must be at least 1").
			WithHint("Provide a seat count of 1 or more").
			WithReportableDetails(map[string]any{
				"seat_count": seatCount,
			}).
			Mark(ierr.ErrValidation)
	}

	discount := VolumeDiscountForSeats(seatCount)
	if discount.ContactSales {
		return &Quote{RequiresContactSales: true}, nil
	}

	perSeat, err := PerSeatPrice(p, cycle)
	if err != nil {
		return nil, err
	}

	multiplier := decimal.NewFromInt(1).
		Sub(decimal.NewFromInt(int64(discount.Percent)).Div(decimal.NewFromInt(100)))
	discounted := perSeat.Mul(multiplier).Round(2)
	total := discounted.Mul(decimal.NewFromInt(int64(seatCount))).Round(2)

	return &Quote{
		BasePricePerUser:       perSeat,
		VolumeDiscountPercent:  discount.Percent,
		DiscountedPricePerUser: discounted,
		TotalAmount:            total,
	}, nil
}
