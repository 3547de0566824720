package proration

import (
	"time"

	"github.com/inboz-admin/inboz-app-sub004/internal/domain/plan"
	"github.com/inboz-admin/inboz-app-sub004/internal/types"
	"github.com/shopspring/decimal"
)

// Result is the outcome of a proration computation. CreditAmount and
// ChargeAmount are both non-negative; NetCharge is charge minus credit and
// may be negative (a net credit). Callers clamp the final checkout amount
// above zero before initiating payment.
type Result struct {
	DaysRemaining     int             `json:"days_remaining"`
	TotalDaysInPeriod int             `json:"total_days_in_period"`
	CreditAmount      decimal.Decimal `json:"credit_amount"`
	ChargeAmount      decimal.Decimal `json:"charge_amount"`
	NetCharge         decimal.Decimal `json:"net_charge"`

	// Trace is a human-readable record of the calculation, kept for audit
	// and shown alongside the invoice breakdown.
	Trace string `json:"trace"`
}

// Snapshot converts the result into the persistable audit form.
func (r *Result) Snapshot(op types.BillingOperationType, params ChangeParams) *types.ProrationSnapshot {
	snap := &types.ProrationSnapshot{
		OperationType:     op,
		DaysRemaining:     r.DaysRemaining,
		TotalDaysInPeriod: r.TotalDaysInPeriod,
		CreditAmount:      r.CreditAmount,
		ChargeAmount:      r.ChargeAmount,
		NetCharge:         r.NetCharge,
		OldSeats:          params.OldSeats,
		NewSeats:          params.NewSeats,
		OldCycle:          params.OldCycle,
		NewCycle:          params.EffectiveNewCycle(),
		Trace:             r.Trace,
		ComputedAt:        time.Now().UTC(),
	}
	if params.OldPlan != nil {
		snap.OldPlanID = params.OldPlan.ID
	}
	if params.NewPlan != nil {
		snap.NewPlanID = params.NewPlan.ID
	}
	return snap
}

// ChangeParams describes a mid-cycle subscription change for the
// charge-credit calculators.
type ChangeParams struct {
	OldPlan *plan.Plan
	NewPlan *plan.Plan

	OldSeats int
	NewSeats int

	OldCycle types.BillingCycle
	// NewCycle is empty when the cycle is unchanged.
	NewCycle types.BillingCycle

	DaysRemaining     int
	TotalDaysInPeriod int

	// OldAmountPaid is what the organization actually paid for the old
	// subscription, when known. Preferred over recomputing from the old
	// plan's list price because it reflects real history, including prior
	// seat additions.
	OldAmountPaid *decimal.Decimal
}

// EffectiveNewCycle returns the cycle the new charge is priced on.
func (p ChangeParams) EffectiveNewCycle() types.BillingCycle {
	if p.NewCycle != "" {
		return p.NewCycle
	}
	return p.OldCycle
}
