package errors

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/edconsult/commitdb/pkg/domain"
)

func respond(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, Respond(c, err))
	return rec
}

func TestRespond_DomainErrorStatuses(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantError  string
	}{
		{domain.NewValidationError("week assignment is immutable after creation"), http.StatusBadRequest, "validation_error"},
		{domain.NewUnauthorizedError(), http.StatusUnauthorized, "unauthorized"},
		{domain.NewForbiddenError("unknown role: guest"), http.StatusForbidden, "forbidden"},
		{domain.NewNotFoundError("commitment"), http.StatusNotFound, "not_found"},
		{domain.NewInternalError(nil), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		rec := respond(t, tc.err)
		assert.Equal(t, tc.wantStatus, rec.Code)
		assert.Contains(t, rec.Body.String(), tc.wantError)
	}
}

func TestRespond_WrappedDomainError(t *testing.T) {
	wrapped := fmt.Errorf("failed to update commitment: %w", domain.NewNotFoundError("commitment"))

	rec := respond(t, wrapped)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRespond_UnknownErrorIsInternal(t *testing.T) {
	rec := respond(t, fmt.Errorf("driver: bad connection"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "bad connection")
}
