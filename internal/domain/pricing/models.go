package pricing

import (
	"github.com/shopspring/decimal"
)

// VolumeDiscount is the outcome of a tier lookup. ContactSales is a
// distinct outcome, not a numeric discount; callers must check it before
// doing arithmetic with Percent.
type VolumeDiscount struct {
	Percent      int
	ContactSales bool
}

// Quote is the ephemeral result of a pricing computation. It is computed
// fresh on every request and never cached, because seat count and plan may
// change between requests.
type Quote struct {
	BasePricePerUser       decimal.Decimal `json:"base_price_per_user"`
	VolumeDiscountPercent  int             `json:"volume_discount_percent"`
	DiscountedPricePerUser decimal.Decimal `json:"discounted_price_per_user"`
	TotalAmount            decimal.Decimal `json:"total_amount"`
	RequiresContactSales   bool            `json:"requires_contact_sales"`
}
