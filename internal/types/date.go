package types

import (
	"time"

	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
)

// NextPeriodEnd returns the end of the billing period that starts at the
// given time. Monthly cycles add one month, yearly cycles add one year.
// time.AddDate-style overflow (Jan 31 + 1 month) is clamped to the last
// valid day of the target month instead of spilling into the next one.
func NextPeriodEnd(start time.Time, cycle BillingCycle) (time.Time, error) {
	switch cycle {
	case BILLING_CYCLE_MONTHLY:
		return AddClampedDate(start, 0, 1, 0), nil
	case BILLING_CYCLE_YEARLY:
		return AddClampedDate(start, 1, 0, 0), nil
	default:
		return start, ierr.NewError("invalid billing cycle").
			WithHintf("cannot compute period end for cycle '%s'", cycle).
			Mark(ierr.ErrValidation)
	}
}

// AddClampedDate adds the given years, months and days to t, clamping the
// day-of-month to the last valid day of the resulting month.
func AddClampedDate(t time.Time, years, months, days int) time.Time {
	y, m, d := t.Date()
	h, min, sec := t.Clock()

	newY := y + years
	newM := time.Month(int(m) + months)

	for newM > 12 {
		newM -= 12
		newY++
	}
	for newM < 1 {
		newM += 12
		newY--
	}

	// Last valid day of the target month
	firstOfNextMonth := time.Date(newY, newM+1, 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfNextMonth.Add(-24 * time.Hour).Day()

	newD := d + days
	if newD > lastDay {
		newD = lastDay
	}

	return time.Date(newY, newM, newD, h, min, sec, t.Nanosecond(), t.Location())
}
