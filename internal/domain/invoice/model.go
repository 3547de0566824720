package invoice

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/inboz-admin/inboz-app-sub004/internal/types"
	"github.com/shopspring/decimal"
)

// LineItemKind distinguishes the rows of an invoice breakdown.
type LineItemKind string

const (
	LineItemKindBase           LineItemKind = "base"
	LineItemKindVolumeDiscount LineItemKind = "volume_discount"
	LineItemKindCredit         LineItemKind = "credit"
	LineItemKindCharge         LineItemKind = "charge"
	LineItemKindPriorPlan      LineItemKind = "prior_plan"
)

// LineItem is one row of the itemized invoice breakdown.
type LineItem struct {
	Kind        LineItemKind    `json:"kind"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity,omitempty"`
	UnitAmount  decimal.Decimal `json:"unit_amount,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

// Breakdown is the structured itemization stored on the invoice row in a
// dedicated JSONB column, together with the proration snapshot that
// produced it.
type Breakdown struct {
	LineItems []LineItem               `json:"line_items"`
	Proration *types.ProrationSnapshot `json:"proration,omitempty"`
}

// Value implements driver.Valuer for JSONB storage.
func (b Breakdown) Value() (driver.Value, error) {
	return json.Marshal(b)
}

// Scan implements sql.Scanner for JSONB storage.
func (b *Breakdown) Scan(src any) error {
	if src == nil {
		return nil
	}
	data, ok := src.([]byte)
	if !ok {
		return ierr.NewError("unsupported scan type for invoice breakdown").
			Mark(ierr.ErrDatabase)
	}
	return json.Unmarshal(data, b)
}

// Invoice records one billing event. It is created exactly once inside the
// same transaction that creates or updates the subscription, and is never
// mutated afterwards except for status and paid fields.
type Invoice struct {
	ID             string `db:"id" json:"id"`
	OrganizationID string `db:"organization_id" json:"organization_id"`
	SubscriptionID string `db:"subscription_id" json:"subscription_id"`

	// InvoiceNumber is a time-based unique string; the DB unique
	// constraint is the real collision guarantee.
	InvoiceNumber string `db:"invoice_number" json:"invoice_number"`

	InvoiceStatus types.InvoiceStatus        `db:"invoice_status" json:"invoice_status"`
	BillingReason types.InvoiceBillingReason `db:"billing_reason" json:"billing_reason"`

	Currency   string          `db:"currency" json:"currency"`
	Subtotal   decimal.Decimal `db:"subtotal" json:"subtotal"`
	TaxAmount  decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	Total      decimal.Decimal `db:"total" json:"total"`
	AmountPaid decimal.Decimal `db:"amount_paid" json:"amount_paid"`
	AmountDue  decimal.Decimal `db:"amount_due" json:"amount_due"`

	IssueDate time.Time  `db:"issue_date" json:"issue_date"`
	DueDate   *time.Time `db:"due_date" json:"due_date,omitempty"`
	PaidAt    *time.Time `db:"paid_at" json:"paid_at,omitempty"`

	// Breakdown carries the itemized line items and proration snapshot.
	Breakdown Breakdown `db:"breakdown" json:"breakdown"`

	// Gateway payment identifiers
	StripePaymentIntentID *string `db:"stripe_payment_intent_id" json:"stripe_payment_intent_id,omitempty"`
	RazorpayOrderID       *string `db:"razorpay_order_id" json:"razorpay_order_id,omitempty"`
	RazorpayPaymentID     *string `db:"razorpay_payment_id" json:"razorpay_payment_id,omitempty"`

	types.BaseModel
}

// Validate enforces the invoice arithmetic invariants.
func (i *Invoice) Validate() error {
	if i.Total.IsNegative() {
		return ierr.NewError("invoice total must be non negative").
			Mark(ierr.ErrValidation)
	}
	if i.AmountPaid.IsNegative() {
		return ierr.NewError("invoice amount_paid must be non negative").
			Mark(ierr.ErrValidation)
	}
	if !i.AmountDue.Equal(i.Total.Sub(i.AmountPaid)) {
		return ierr.NewError("invoice amount_due must equal total minus amount_paid").
			WithReportableDetails(map[string]any{
				"total":       i.Total,
				"amount_paid": i.AmountPaid,
				"amount_due":  i.AmountDue,
			}).
			Mark(ierr.ErrValidation)
	}
	if i.InvoiceStatus == types.InvoiceStatusPaid && !i.AmountDue.IsZero() {
		return ierr.NewError("paid invoice must have zero amount_due").
			Mark(ierr.ErrValidation)
	}
	return nil
}
