package dto

import (
	"github.com/inboz-admin/inboz-app-sub004/internal/domain/invoice"
)

// InvoiceResponse wraps the domain invoice for the API surface. The
// breakdown is carried as-is; it is already the client-facing itemization.
type InvoiceResponse struct {
	*invoice.Invoice
}

func NewInvoiceResponse(inv *invoice.Invoice) *InvoiceResponse {
	return &InvoiceResponse{Invoice: inv}
}

// ListInvoicesResponse is the invoice history for an organization.
type ListInvoicesResponse struct {
	Items []*InvoiceResponse `json:"items"`
	Total int                `json:"total"`
}

func NewListInvoicesResponse(invoices []*invoice.Invoice) *ListInvoicesResponse {
	items := make([]*InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		items = append(items, NewInvoiceResponse(inv))
	}
	return &ListInvoicesResponse{Items: items, Total: len(items)}
}
