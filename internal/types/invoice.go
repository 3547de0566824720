package types

import (
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/samber/lo"
)

// InvoiceStatus is the collection status of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"
	InvoiceStatusOpen          InvoiceStatus = "OPEN"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusVoid          InvoiceStatus = "VOID"
	InvoiceStatusUncollectible InvoiceStatus = "UNCOLLECTIBLE"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	allowed := []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusOpen,
		InvoiceStatusPaid,
		InvoiceStatusVoid,
		InvoiceStatusUncollectible,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid invoice status").
			WithHint("Invalid invoice status").
			WithReportableDetails(map[string]any{
				"status":  s,
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// InvoiceBillingReason records which billing event produced an invoice.
type InvoiceBillingReason string

const (
	InvoiceBillingReasonTrial         InvoiceBillingReason = "TRIAL"
	InvoiceBillingReasonRenewal       InvoiceBillingReason = "RENEWAL"
	InvoiceBillingReasonUpgrade       InvoiceBillingReason = "UPGRADE"
	InvoiceBillingReasonAdminOverride InvoiceBillingReason = "ADMIN_OVERRIDE"
)
