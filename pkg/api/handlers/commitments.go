package handlers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apierrors "github.com/edconsult/commitdb/pkg/api/errors"
	"github.com/edconsult/commitdb/pkg/commitments"
	"github.com/edconsult/commitdb/pkg/metrics"
	"github.com/edconsult/commitdb/pkg/models"
)

// CloseAdmissionRequest is the optional closing payload. A missing date
// means "now".
type CloseAdmissionRequest struct {
	ClosedDate   *time.Time `json:"closed_date,omitempty"`
	ClosedAmount *float64   `json:"closed_amount,omitempty"`
}

// CommitmentHandler handles commitment CRUD endpoints.
type CommitmentHandler struct {
	service   *commitments.Service
	metrics   *metrics.Metrics
	validator *validator.Validate
}

// NewCommitmentHandler creates a new commitment handler. m may be nil.
func NewCommitmentHandler(service *commitments.Service, m *metrics.Metrics) *CommitmentHandler {
	return &CommitmentHandler{
		service:   service,
		metrics:   m,
		validator: validator.New(),
	}
}

// Create godoc
// @Summary Create a commitment
// @Description Record a weekly commitment. Week fields default to the current ISO week.
// @Tags Commitments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateCommitmentRequest true "Commitment data"
// @Success 201 {object} models.Commitment
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 403 {object} models.ErrorResponse "Out of scope"
// @Router /commitments [post]
func (h *CommitmentHandler) Create(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	var req models.CreateCommitmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	created, err := h.service.Create(c.Request().Context(), actor, req)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	if h.metrics != nil {
		h.metrics.RecordCommitmentCreated()
	}

	return c.JSON(http.StatusCreated, created)
}

// List godoc
// @Summary List commitments
// @Description List the commitments visible to the caller within a range
// @Tags Commitments
// @Produce json
// @Security BearerAuth
// @Param view query string false "current-week, current-month, or last-3-months"
// @Param start query string false "Range start (YYYY-MM-DD), used with end"
// @Param end query string false "Range end (YYYY-MM-DD), used with start"
// @Success 200 {array} models.Commitment
// @Failure 403 {object} models.ErrorResponse
// @Router /commitments [get]
func (h *CommitmentHandler) List(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	dr, err := rangeOf(c)
	if err != nil {
		return apierrors.ValidationError(c, err)
	}

	rows, err := h.service.Query(c.Request().Context(), actor, dr)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, rows)
}

// Get godoc
// @Summary Get one commitment
// @Tags Commitments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Commitment id"
// @Success 200 {object} models.Commitment
// @Failure 404 {object} models.ErrorResponse
// @Router /commitments/{id} [get]
func (h *CommitmentHandler) Get(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apierrors.ValidationError(c, err)
	}

	got, err := h.service.Get(c.Request().Context(), actor, id)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, got)
}

// Update godoc
// @Summary Update a commitment
// @Description Merge a partial update. Week identity cannot be changed.
// @Tags Commitments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Commitment id"
// @Param request body models.UpdateCommitmentRequest true "Fields to change"
// @Success 200 {object} models.Commitment
// @Failure 400 {object} models.ErrorResponse "Invalid request or week change"
// @Failure 403 {object} models.ErrorResponse "Out of scope"
// @Failure 404 {object} models.ErrorResponse
// @Router /commitments/{id} [put]
func (h *CommitmentHandler) Update(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apierrors.ValidationError(c, err)
	}

	var req models.UpdateCommitmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	updated, err := h.service.Update(c.Request().Context(), actor, id, req)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	if h.metrics != nil {
		h.metrics.RecordCommitmentUpdated()
	}

	return c.JSON(http.StatusOK, updated)
}

// CloseAdmission godoc
// @Summary Close an admission
// @Description Mark the commitment's admission as closed. Idempotent.
// @Tags Commitments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Commitment id"
// @Param request body CloseAdmissionRequest false "Closing details"
// @Success 200 {object} models.Commitment
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /commitments/{id}/close-admission [post]
func (h *CommitmentHandler) CloseAdmission(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apierrors.ValidationError(c, err)
	}

	var req CloseAdmissionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	closedDate := time.Now()
	if req.ClosedDate != nil {
		closedDate = *req.ClosedDate
	}

	closed, err := h.service.CloseAdmission(c.Request().Context(), actor, id, closedDate, req.ClosedAmount)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	if h.metrics != nil {
		h.metrics.RecordAdmissionClosed()
	}

	return c.JSON(http.StatusOK, closed)
}

// Delete godoc
// @Summary Delete a commitment
// @Tags Commitments
// @Security BearerAuth
// @Param id path string true "Commitment id"
// @Success 204 "Deleted"
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /commitments/{id} [delete]
func (h *CommitmentHandler) Delete(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apierrors.ValidationError(c, err)
	}

	if err := h.service.Delete(c.Request().Context(), actor, id); err != nil {
		return apierrors.Respond(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
