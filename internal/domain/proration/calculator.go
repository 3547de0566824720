package proration

import (
	"fmt"
	"math"
	"time"

	"github.com/inboz-admin/inboz-app-sub004/internal/domain/pricing"
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/shopspring/decimal"
)

// DaysRemaining returns the number of billable days left in the period as
// of now: zero once the period has ended, otherwise the ceiling of the
// remaining duration in days. A partially elapsed day still counts.
func DaysRemaining(periodStart, periodEnd, now time.Time) int {
	if !now.Before(periodEnd) {
		return 0
	}
	remaining := periodEnd.Sub(now).Hours() / 24
	return int(math.Ceil(remaining))
}

// TotalDaysInPeriod returns the length of the period in days, never less
// than one so proration ratios stay well-defined.
func TotalDaysInPeriod(periodStart, periodEnd time.Time) int {
	days := int(math.Ceil(periodEnd.Sub(periodStart).Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}

// ProratedAmount returns the fraction of fullAmount covering daysRemaining
// out of totalDays, rounded half-up to cents. Zero or negative operands
// prorate to zero.
func ProratedAmount(fullAmount decimal.Decimal, daysRemaining, totalDays int) decimal.Decimal {
	if daysRemaining <= 0 || totalDays <= 0 || !fullAmount.IsPositive() {
		return decimal.Zero
	}
	return fullAmount.
		Mul(decimal.NewFromInt(int64(daysRemaining))).
		Div(decimal.NewFromInt(int64(totalDays))).
		Round(2)
}

// UpgradeCharge computes the charge-credit pair for a plan upgrade or a
// seat increase on the same plan. The credit is the prorated value of what
// was actually paid for the old subscription; the charge is the prorated
// value of the full new-period amount, because the subscription period does
// not reset on a plain upgrade.
func UpgradeCharge(params ChangeParams) (*Result, error) {
	if err := validateChange(params); err != nil {
		return nil, err
	}

	credit, err := oldPeriodCredit(params)
	if err != nil {
		return nil, err
	}

	newQuote, err := newPeriodQuote(params)
	if err != nil {
		return nil, err
	}

	charge := ProratedAmount(newQuote.TotalAmount, params.DaysRemaining, params.TotalDaysInPeriod)
	net := charge.Sub(credit)

	return &Result{
		DaysRemaining:     params.DaysRemaining,
		TotalDaysInPeriod: params.TotalDaysInPeriod,
		CreditAmount:      credit,
		ChargeAmount:      charge,
		NetCharge:         net,
		Trace: fmt.Sprintf(
			"credit=prorated(%s x %d/%d)=%s; charge=prorated(%s x %d/%d)=%s; net=%s",
			creditBasis(params), params.DaysRemaining, params.TotalDaysInPeriod, credit,
			newQuote.TotalAmount, params.DaysRemaining, params.TotalDaysInPeriod, charge,
			net,
		),
	}, nil
}

// CombinedUpgradeCharge computes the charge-credit pair for a simultaneous
// plan change and seat increase. The credit is identical to UpgradeCharge,
// but the charge is the full, non-prorated new-period amount: a combined
// change restarts the billing period entirely with a fresh subscription
// row, so the new charge is not time-sliced.
func CombinedUpgradeCharge(params ChangeParams) (*Result, error) {
	if err := validateChange(params); err != nil {
		return nil, err
	}

	credit, err := oldPeriodCredit(params)
	if err != nil {
		return nil, err
	}

	newQuote, err := newPeriodQuote(params)
	if err != nil {
		return nil, err
	}

	charge := newQuote.TotalAmount
	net := charge.Sub(credit)

	return &Result{
		DaysRemaining:     params.DaysRemaining,
		TotalDaysInPeriod: params.TotalDaysInPeriod,
		CreditAmount:      credit,
		ChargeAmount:      charge,
		NetCharge:         net,
		Trace: fmt.Sprintf(
			"credit=prorated(%s x %d/%d)=%s; charge=full(%s), period resets; net=%s",
			creditBasis(params), params.DaysRemaining, params.TotalDaysInPeriod, credit,
			charge, net,
		),
	}, nil
}

// DowngradeCredit is always zero: downgrades are deferred to the next
// renewal via the pending-change fields and are never charged or credited
// immediately.
func DowngradeCredit() decimal.Decimal {
	return decimal.Zero
}

// BillingCycleChangeCharge computes the charge-credit pair for switching
// between monthly and yearly billing on the same plan and seats. The credit
// is the prorated remaining value of the old cycle; the charge is the full
// new-cycle amount, because cycle switches always restart the period.
func BillingCycleChangeCharge(params ChangeParams) (*Result, error) {
	if params.OldPlan == nil {
		return nil, ierr.NewError("old plan is required for a cycle change").
			Mark(ierr.ErrValidation)
	}
	if params.NewCycle == "" || params.NewCycle == params.OldCycle {
		return nil, ierr.NewError("cycle change requires a different target cycle").
			WithReportableDetails(map[string]any{
				"old_cycle": params.OldCycle,
				"new_cycle": params.NewCycle,
			}).
			Mark(ierr.ErrValidation)
	}

	credit, err := oldPeriodCredit(params)
	if err != nil {
		return nil, err
	}

	newQuote, err := pricing.ComputeQuote(params.OldPlan, params.OldSeats, params.NewCycle)
	if err != nil {
		return nil, err
	}
	if newQuote.RequiresContactSales {
		return nil, contactSalesErr(params.OldSeats)
	}

	charge := newQuote.TotalAmount
	net := charge.Sub(credit)

	return &Result{
		DaysRemaining:     params.DaysRemaining,
		TotalDaysInPeriod: params.TotalDaysInPeriod,
		CreditAmount:      credit,
		ChargeAmount:      charge,
		NetCharge:         net,
		Trace: fmt.Sprintf(
			"credit=prorated(%s cycle %s x %d/%d)=%s; charge=full(%s cycle %s), period resets; net=%s",
			params.OldCycle, creditBasis(params), params.DaysRemaining, params.TotalDaysInPeriod, credit,
			params.NewCycle, charge, net,
		),
	}, nil
}

// oldPeriodCredit prorates the value already paid for the old subscription.
// The actually-paid amount is preferred; the old plan's list quote is the
// fallback when payment history is unknown.
func oldPeriodCredit(params ChangeParams) (decimal.Decimal, error) {
	var full decimal.Decimal
	if params.OldAmountPaid != nil {
		full = *params.OldAmountPaid
	} else {
		oldQuote, err := pricing.ComputeQuote(params.OldPlan, params.OldSeats, params.OldCycle)
		if err != nil {
			return decimal.Zero, err
		}
		if oldQuote.RequiresContactSales {
			return decimal.Zero, contactSalesErr(params.OldSeats)
		}
		full = oldQuote.TotalAmount
	}
	return ProratedAmount(full, params.DaysRemaining, params.TotalDaysInPeriod), nil
}

// newPeriodQuote prices the new configuration for a full period.
func newPeriodQuote(params ChangeParams) (*pricing.Quote, error) {
	target := params.NewPlan
	if target == nil {
		target = params.OldPlan
	}
	quote, err := pricing.ComputeQuote(target, params.NewSeats, params.EffectiveNewCycle())
	if err != nil {
		return nil, err
	}
	if quote.RequiresContactSales {
		return nil, contactSalesErr(params.NewSeats)
	}
	return quote, nil
}

func creditBasis(params ChangeParams) string {
	if params.OldAmountPaid != nil {
		return params.OldAmountPaid.String()
	}
	return "list"
}

func validateChange(params ChangeParams) error {
	if params.OldPlan == nil {
		return ierr.NewError("old plan is required").
			Mark(ierr.ErrValidation)
	}
	if params.OldSeats < 1 || params.NewSeats < 1 {
		return ierr.NewError("seat counts must be at least 1").
			WithReportableDetails(map[string]any{
				"old_seats": params.OldSeats,
				"new_seats": params.NewSeats,
			}).
			Mark(ierr.ErrValidation)
	}
	if params.TotalDaysInPeriod < 1 {
		return ierr.NewError("total days in period must be at least 1").
			Mark(ierr.ErrValidation)
	}
	if params.DaysRemaining < 0 {
		return ierr.NewError("days remaining cannot be negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func contactSalesErr(seats int) error {
	return ierr.NewError("seat count exceeds self-serve tier").
		WithHint("Contact sales for more than 50 seats").
		WithReportableDetails(map[string]any{
			"seat_count": seats,
		}).
		Mark(ierr.ErrContactSalesRequired)
}
