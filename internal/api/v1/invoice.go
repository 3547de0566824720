package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/inboz-admin/inboz-app-sub004/internal/logger"
	"github.com/inboz-admin/inboz-app-sub004/internal/service"
)

type InvoiceHandler struct {
	service service.InvoiceService
	log     *logger.Logger
}

func NewInvoiceHandler(service service.InvoiceService, log *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{service: service, log: log}
}

func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("invoice id is required").
			WithHint("Invoice ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.GetInvoice(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	orgID := c.Query("organization_id")
	if orgID == "" {
		c.Error(ierr.NewError("organization id is required").
			WithHint("Organization ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.ListInvoices(c.Request.Context(), orgID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
