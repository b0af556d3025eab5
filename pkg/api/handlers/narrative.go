package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apierrors "github.com/edconsult/commitdb/pkg/api/errors"
	"github.com/edconsult/commitdb/pkg/metrics"
	"github.com/edconsult/commitdb/pkg/narrative"
)

// NarrativeHandler serves AI-written summaries of the dashboard.
type NarrativeHandler struct {
	service *narrative.Service
	metrics *metrics.Metrics
}

// NewNarrativeHandler creates a new narrative handler. m may be nil.
func NewNarrativeHandler(service *narrative.Service, m *metrics.Metrics) *NarrativeHandler {
	return &NarrativeHandler{service: service, metrics: m}
}

// Summarize godoc
// @Summary Generate a narrative summary
// @Description Ask the model for a prose summary of the caller's dashboard figures
// @Tags Narrative
// @Produce json
// @Security BearerAuth
// @Param view query string false "current-week, current-month, or last-3-months"
// @Param start query string false "Range start (YYYY-MM-DD), used with end"
// @Param end query string false "Range end (YYYY-MM-DD), used with start"
// @Success 200 {object} narrative.Result
// @Failure 403 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse "Generation failed"
// @Router /narrative/summary [post]
func (h *NarrativeHandler) Summarize(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	dr, err := rangeOf(c)
	if err != nil {
		return apierrors.ValidationError(c, err)
	}

	result, err := h.service.Summarize(c.Request().Context(), actor, dr)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	if h.metrics != nil {
		h.metrics.RecordNarrative(result.TokensUsed)
	}

	return c.JSON(http.StatusOK, result)
}
