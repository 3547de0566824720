package pricing

import (
	"testing"

	"github.com/inboz-admin/inboz-app-sub004/internal/domain/plan"
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/inboz-admin/inboz-app-sub004/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlan() *plan.Plan {
	return &plan.Plan{
		ID:                  "plan_pro",
		Name:                "Pro",
		LookupKey:           "pro",
		PricePerUserMonthly: decimal.NewFromInt(15),
		PricePerUserYearly:  decimal.NewFromInt(150),
	}
}

func TestVolumeDiscountForSeats(t *testing.T) {
	tests := []struct {
		name         string
		seats        int
		wantPercent  int
		contactSales bool
	}{
		{name: "single seat", seats: 1, wantPercent: 0},
		{name: "top of free tier", seats: 4, wantPercent: 0},
		{name: "bottom of 10 percent tier", seats: 5, wantPercent: 10},
		{name: "top of 10 percent tier", seats: 10, wantPercent: 10},
		{name: "bottom of 15 percent tier", seats: 11, wantPercent: 15},
		{name: "top of 15 percent tier", seats: 25, wantPercent: 15},
		{name: "bottom of 20 percent tier", seats: 26, wantPercent: 20},
		{name: "top of self serve range", seats: 50, wantPercent: 20},
		{name: "above self serve range", seats: 51, contactSales: true},
		{name: "far above self serve range", seats: 500, contactSales: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VolumeDiscountForSeats(tt.seats)
			assert.Equal(t, tt.contactSales, got.ContactSales)
			if !tt.contactSales {
				assert.Equal(t, tt.wantPercent, got.Percent)
			}
		})
	}
}

func TestPerSeatPrice(t *testing.T) {
	p := testPlan()

	monthly, err := PerSeatPrice(p, types.BILLING_CYCLE_MONTHLY)
	require.NoError(t, err)
	assert.True(t, monthly.Equal(decimal.NewFromInt(15)), "got %s", monthly)

	// Yearly gets the flat 10% off the yearly list price.
	yearly, err := PerSeatPrice(p, types.BILLING_CYCLE_YEARLY)
	require.NoError(t, err)
	assert.True(t, yearly.Equal(decimal.NewFromInt(135)), "got %s", yearly)

	_, err = PerSeatPrice(p, types.BillingCycle("WEEKLY"))
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))

	free := &plan.Plan{ID: "plan_free", Name: "Free"}
	_, err = PerSeatPrice(free, types.BILLING_CYCLE_MONTHLY)
	require.Error(t, err)
}

func TestComputeQuote(t *testing.T) {
	p := testPlan()

	tests := []struct {
		name               string
		seats              int
		cycle              types.BillingCycle
		wantDiscount       int
		wantPerUser        string
		wantTotal          string
		wantContactSales   bool
	}{
		{
			name:        "single seat monthly no discount",
			seats:       1,
			cycle:       types.BILLING_CYCLE_MONTHLY,
			wantPerUser: "15",
			wantTotal:   "15",
		},
		{
			name:         "six seats monthly hits the 10 percent tier",
			seats:        6,
			cycle:        types.BILLING_CYCLE_MONTHLY,
			wantDiscount: 10,
			wantPerUser:  "13.5",
			wantTotal:    "81",
		},
		{
			name:         "twelve seats monthly hits the 15 percent tier",
			seats:        12,
			cycle:        types.BILLING_CYCLE_MONTHLY,
			wantDiscount: 15,
			wantPerUser:  "12.75",
			wantTotal:    "153",
		},
		{
			name:         "thirty seats yearly stacks volume on the yearly discount",
			seats:        30,
			cycle:        types.BILLING_CYCLE_YEARLY,
			wantDiscount: 20,
			wantPerUser:  "108",
			wantTotal:    "3240",
		},
		{
			name:             "above fifty seats requires contact sales",
			seats:            51,
			cycle:            types.BILLING_CYCLE_MONTHLY,
			wantContactSales: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := ComputeQuote(p, tt.seats, tt.cycle)
			require.NoError(t, err)

			if tt.wantContactSales {
				assert.True(t, quote.RequiresContactSales)
				assert.True(t, quote.TotalAmount.IsZero())
				return
			}

			assert.False(t, quote.RequiresContactSales)
			assert.Equal(t, tt.wantDiscount, quote.VolumeDiscountPercent)
			assert.True(t, quote.DiscountedPricePerUser.Equal(decimal.RequireFromString(tt.wantPerUser)),
				"per-user: got %s want %s", quote.DiscountedPricePerUser, tt.wantPerUser)
			assert.True(t, quote.TotalAmount.Equal(decimal.RequireFromString(tt.wantTotal)),
				"total: got %s want %s", quote.TotalAmount, tt.wantTotal)
		})
	}
}

func TestComputeQuote_InvalidSeats(t *testing.T) {
	_, err := ComputeQuote(testPlan(), 0, types.BILLING_CYCLE_MONTHLY)
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))

	_, err = ComputeQuote(testPlan(), -3, types.BILLING_CYCLE_MONTHLY)
	require.Error(t, err)
}
