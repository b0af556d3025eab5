package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apierrors "github.com/edconsult/commitdb/pkg/api/errors"
	"github.com/edconsult/commitdb/pkg/usage"
)

// UsageHandler serves the AI cost ledger views. Admin only.
type UsageHandler struct {
	service *usage.Service
}

// NewUsageHandler creates a new usage handler.
func NewUsageHandler(service *usage.Service) *UsageHandler {
	return &UsageHandler{service: service}
}

// Summary godoc
// @Summary AI usage summary
// @Description Ledger totals, per-user and per-day breakdowns, and recent calls
// @Tags Usage
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UsageSummary
// @Failure 403 {object} models.ErrorResponse "Admin only"
// @Router /usage [get]
func (h *UsageHandler) Summary(c echo.Context) error {
	summary, err := h.service.Summarize(c.Request().Context())
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, summary)
}
