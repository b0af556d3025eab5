// Package errors maps service failures to HTTP responses. Domain errors
// carry a code that picks the status; anything else becomes a generic 500
// so internals never leak to clients.
package errors

import (
	stderrors "errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/edconsult/commitdb/pkg/domain"
	"github.com/edconsult/commitdb/pkg/models"
)

var statusByCode = map[string]int{
	domain.ErrCodeValidation:   http.StatusBadRequest,
	domain.ErrCodeUnauthorized: http.StatusUnauthorized,
	domain.ErrCodeForbidden:    http.StatusForbidden,
	domain.ErrCodeNotFound:     http.StatusNotFound,
	domain.ErrCodeInternal:     http.StatusInternalServerError,
}

var errorNameByCode = map[string]string{
	domain.ErrCodeValidation:   "validation_error",
	domain.ErrCodeUnauthorized: "unauthorized",
	domain.ErrCodeForbidden:    "forbidden",
	domain.ErrCodeNotFound:     "not_found",
	domain.ErrCodeInternal:     "internal_error",
}

// Respond writes the HTTP response for a service error.
func Respond(c echo.Context, err error) error {
	var de *domain.DomainError
	if stderrors.As(err, &de) {
		status, ok := statusByCode[de.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		return c.JSON(status, models.ErrorResponse{
			Error:   errorNameByCode[de.Code],
			Message: de.Message,
		})
	}

	return InternalError(c, err)
}

// ValidationError returns a 400 without exposing internal details.
func ValidationError(c echo.Context, err error) error {
	log.Printf("[VALIDATION ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)

	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: "Invalid request data. Please check your input and try again.",
	})
}

// InternalError returns a generic 500. The real error is only logged.
func InternalError(c echo.Context, err error) error {
	log.Printf("[INTERNAL ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred. Please try again later.",
	})
}

// UnauthorizedError returns a generic 401.
func UnauthorizedError(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   "unauthorized",
		Message: "You are not authorized to access this resource.",
	})
}
