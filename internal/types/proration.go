package types

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/shopspring/decimal"
)

// ProrationSnapshot is the audit record of the last proration computation
// applied to a subscription. It is persisted as JSONB on the subscription
// row and copied into the invoice breakdown when the charge commits.
// Calculation functions always work on this struct, never on untyped maps.
type ProrationSnapshot struct {
	OperationType     BillingOperationType `json:"operation_type"`
	DaysRemaining     int                  `json:"days_remaining"`
	TotalDaysInPeriod int                  `json:"total_days_in_period"`
	CreditAmount      decimal.Decimal      `json:"credit_amount"`
	ChargeAmount      decimal.Decimal      `json:"charge_amount"`
	NetCharge         decimal.Decimal      `json:"net_charge"`
	OldPlanID         string               `json:"old_plan_id,omitempty"`
	NewPlanID         string               `json:"new_plan_id,omitempty"`
	OldSeats          int                  `json:"old_seats,omitempty"`
	NewSeats          int                  `json:"new_seats,omitempty"`
	OldCycle          BillingCycle         `json:"old_cycle,omitempty"`
	NewCycle          BillingCycle         `json:"new_cycle,omitempty"`
	Trace             string               `json:"trace,omitempty"`
	ComputedAt        time.Time            `json:"computed_at"`
}

// Value implements driver.Valuer for JSONB storage.
func (p *ProrationSnapshot) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB storage.
func (p *ProrationSnapshot) Scan(src any) error {
	if src == nil {
		return nil
	}
	data, ok := src.([]byte)
	if !ok {
		return ierr.NewError("unsupported scan type for proration snapshot").
			Mark(ierr.ErrDatabase)
	}
	return json.Unmarshal(data, p)
}
