package dto

// SweepResponse summarizes one expiry sweep run. Failures are counted,
// not fatal; each subscription is processed independently.
type SweepResponse struct {
	ExpiredTrials         int `json:"expired_trials"`
	ExpiredSubscriptions  int `json:"expired_subscriptions"`
	CancelledAtPeriodEnd  int `json:"cancelled_at_period_end"`
	AppliedPendingChanges int `json:"applied_pending_changes"`
	RenewalInvoices       int `json:"renewal_invoices"`
	Failures              int `json:"failures"`
}
