package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inboz-admin/inboz-app-sub004/internal/api/dto"
	ierr "github.com/inboz-admin/inboz-app-sub004/internal/errors"
	"github.com/inboz-admin/inboz-app-sub004/internal/logger"
	"github.com/inboz-admin/inboz-app-sub004/internal/service"
)

type PaymentHandler struct {
	service service.PaymentService
	log     *logger.Logger
}

func NewPaymentHandler(service service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, log: log}
}

// Initiate quotes the requested change and opens a checkout order with the
// selected payment provider. No subscription state is mutated here.
func (h *PaymentHandler) Initiate(c *gin.Context) {
	var req dto.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.InitiatePayment(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Verify confirms the payment with the provider and commits the
// subscription change it paid for.
func (h *PaymentHandler) Verify(c *gin.Context) {
	var req dto.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.VerifyPayment(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *PaymentHandler) HandleFailure(c *gin.Context) {
	var req dto.PaymentFailureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	if err := h.service.HandlePaymentFailure(c.Request.Context(), req); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "payment failure processed"})
}

func (h *PaymentHandler) AdminOverrideUpgrade(c *gin.Context) {
	var req dto.AdminOverrideUpgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.AdminOverrideUpgrade(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
