package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inboz-admin/inboz-app-sub004/internal/api/dto"
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/inboz-admin/inboz-app-sub004/internal/logger"
	"github.com/inboz-admin/inboz-app-sub004/internal/service"
)

type PricingHandler struct {
	service service.PricingService
	log     *logger.Logger
}

func NewPricingHandler(service service.PricingService, log *logger.Logger) *PricingHandler {
	return &PricingHandler{service: service, log: log}
}

// QuotePrice prices a plan, seat count and cycle without touching any
// subscription state.
func (h *PricingHandler) QuotePrice(c *gin.Context) {
	var req dto.QuotePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.QuotePrice(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
