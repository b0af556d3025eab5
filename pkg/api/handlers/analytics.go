package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/edconsult/commitdb/pkg/aggregation"
	apierrors "github.com/edconsult/commitdb/pkg/api/errors"
)

// AnalyticsHandler serves the dashboard and trend views.
type AnalyticsHandler struct {
	service *aggregation.Service
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(service *aggregation.Service) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// Dashboard godoc
// @Summary Dashboard rollups
// @Description Per-consultant, per-team, and stage rollups for the caller's scope and range
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param view query string false "current-week, current-month, or last-3-months"
// @Param start query string false "Range start (YYYY-MM-DD), used with end"
// @Param end query string false "Range end (YYYY-MM-DD), used with start"
// @Success 200 {object} aggregation.Dashboard
// @Failure 403 {object} models.ErrorResponse
// @Router /analytics/dashboard [get]
func (h *AnalyticsHandler) Dashboard(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	dr, err := rangeOf(c)
	if err != nil {
		return apierrors.ValidationError(c, err)
	}

	dash, err := h.service.GetDashboard(c.Request().Context(), actor, dr)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, dash)
}

// MonthlyTrend godoc
// @Summary Monthly trend
// @Description Month-by-month rollups, zero-filled for empty months
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param months query int false "Months back (default 6)"
// @Success 200 {array} aggregation.RollupRow
// @Failure 403 {object} models.ErrorResponse
// @Router /analytics/monthly-trend [get]
func (h *AnalyticsHandler) MonthlyTrend(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	months := 0
	if v := c.QueryParam("months"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 36 {
			return apierrors.ValidationError(c, fmt.Errorf("months must be between 1 and 36"))
		}
		months = parsed
	}

	rows, err := h.service.GetMonthlyTrend(c.Request().Context(), actor, months)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, rows)
}

// DailyActivity godoc
// @Summary Daily activity
// @Description Day-by-day rollups for one month, zero-filled for empty days
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param month query string false "Month (YYYY-MM), default current"
// @Success 200 {array} aggregation.RollupRow
// @Failure 403 {object} models.ErrorResponse
// @Router /analytics/daily-activity [get]
func (h *AnalyticsHandler) DailyActivity(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	month := time.Now()
	if v := c.QueryParam("month"); v != "" {
		parsed, err := time.Parse("2006-01", v)
		if err != nil {
			return apierrors.ValidationError(c, err)
		}
		month = parsed
	}

	rows, err := h.service.GetDailyActivity(c.Request().Context(), actor, month)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, rows)
}
