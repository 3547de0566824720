package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inboz-admin/inboz-app-sub004/internal/logger"
	"github.com/inboz-admin/inboz-app-sub004/internal/service"
)

type RenewalHandler struct {
	service service.RenewalService
	log     *logger.Logger
}

func NewRenewalHandler(service service.RenewalService, log *logger.Logger) *RenewalHandler {
	return &RenewalHandler{service: service, log: log}
}

// RunSweep triggers the expiry sweep on demand. The cron binary runs the
// same sweep on a schedule.
func (h *RenewalHandler) RunSweep(c *gin.Context) {
	resp, err := h.service.RunExpirySweep(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
