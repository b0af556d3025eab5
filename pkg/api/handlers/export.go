package handlers

import (
	"github.com/labstack/echo/v4"

	apierrors "github.com/edconsult/commitdb/pkg/api/errors"
	"github.com/edconsult/commitdb/pkg/export"
	"github.com/edconsult/commitdb/pkg/metrics"
)

// ExportHandler serves commitment exports.
type ExportHandler struct {
	service *export.Service
	metrics *metrics.Metrics
}

// NewExportHandler creates a new export handler. m may be nil.
func NewExportHandler(service *export.Service, m *metrics.Metrics) *ExportHandler {
	return &ExportHandler{service: service, metrics: m}
}

// Download godoc
// @Summary Export commitments
// @Description Generate a CSV or Excel file of the caller's visible commitments and stream it back
// @Tags Exports
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv or excel (default csv)"
// @Param view query string false "current-week, current-month, or last-3-months"
// @Param start query string false "Range start (YYYY-MM-DD), used with end"
// @Param end query string false "Range end (YYYY-MM-DD), used with start"
// @Success 200 {file} file
// @Failure 400 {object} models.ErrorResponse "Invalid format"
// @Failure 403 {object} models.ErrorResponse
// @Router /exports [get]
func (h *ExportHandler) Download(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	dr, err := rangeOf(c)
	if err != nil {
		return apierrors.ValidationError(c, err)
	}

	format := c.QueryParam("format")
	if format == "" {
		format = export.FormatCSV
	}

	result, err := h.service.Export(c.Request().Context(), actor, dr, format)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	if h.metrics != nil {
		h.metrics.RecordExportCreated()
	}

	return c.Attachment(result.FilePath, result.FileName)
}
