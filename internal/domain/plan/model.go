package plan

import (
	"github.com/inboz-admin/inboz-app-sub004/internal/types"
	"github.com/shopspring/decimal"
)

// Plan is a catalog row. Plans are created by admin tooling and are
// read-only to the billing core.
type Plan struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	LookupKey   string `db:"lookup_key" json:"lookup_key"`
	Description string `db:"description" json:"description"`

	// Per-seat list prices before any volume discount
	PricePerUserMonthly decimal.Decimal `db:"price_per_user_monthly" json:"price_per_user_monthly"`
	PricePerUserYearly  decimal.Decimal `db:"price_per_user_yearly" json:"price_per_user_yearly"`

	// Capability limits granted by the plan
	MaxContacts     int `db:"max_contacts" json:"max_contacts"`
	DailyEmailLimit int `db:"daily_email_limit" json:"daily_email_limit"`
	MaxCampaigns    int `db:"max_campaigns" json:"max_campaigns"`

	IsActive bool `db:"is_active" json:"is_active"`
	IsPublic bool `db:"is_public" json:"is_public"`

	types.BaseModel
}

// HasPriceFor reports whether the plan carries a non-zero price for the cycle.
func (p *Plan) HasPriceFor(cycle types.BillingCycle) bool {
	switch cycle {
	case types.BILLING_CYCLE_YEARLY:
		return p.PricePerUserYearly.IsPositive()
	default:
		return p.PricePerUserMonthly.IsPositive()
	}
}
