// Package handlers wires the HTTP surface onto the services. Handlers stay
// thin: bind, validate, resolve the actor, delegate, and map errors.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/edconsult/commitdb/config"
	apierrors "github.com/edconsult/commitdb/pkg/api/errors"
	"github.com/edconsult/commitdb/pkg/auth"
	"github.com/edconsult/commitdb/pkg/domain"
	"github.com/edconsult/commitdb/pkg/email"
	"github.com/edconsult/commitdb/pkg/metrics"
	"github.com/edconsult/commitdb/pkg/models"
)

// RegisterRequest is the account creation payload.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=admin team_lead consultant"`
	TeamName string `json:"team_name" validate:"required_if=Role team_lead"`
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	users        domain.UserRepository
	config       *config.Config
	blacklist    *auth.TokenBlacklist
	emailService *email.Service
	metrics      *metrics.Metrics
	validator    *validator.Validate
}

// NewAuthHandler creates a new auth handler. blacklist, emailService, and m
// may be nil.
func NewAuthHandler(users domain.UserRepository, cfg *config.Config, blacklist *auth.TokenBlacklist, emailService *email.Service, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		users:        users,
		config:       cfg,
		blacklist:    blacklist,
		emailService: emailService,
		metrics:      m,
		validator:    validator.New(),
	}
}

// Register godoc
// @Summary Register a new user
// @Description Create an account with email, password, name, role, and team
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} models.LoginResponse "User registered"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 409 {object} models.ErrorResponse "User already exists"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if existing, err := h.users.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "user_exists",
			Message: "User with this email already exists",
		})
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return apierrors.InternalError(c, err)
	}

	u := &models.User{
		Email:        req.Email,
		PasswordHash: hashed,
		Name:         req.Name,
		Role:         req.Role,
		TeamName:     req.TeamName,
	}
	if err := h.users.Create(ctx, u); err != nil {
		return apierrors.Respond(c, err)
	}

	if h.emailService != nil {
		go h.emailService.SendWelcomeEmail(u.Email, u.Name)
	}

	token, err := auth.GenerateJWT(u, h.config.JWTSecret, h.config.JWTExpirationHours)
	if err != nil {
		return apierrors.InternalError(c, err)
	}

	return c.JSON(http.StatusCreated, models.LoginResponse{Token: token, User: *u})
}

// Login godoc
// @Summary Log in
// @Description Exchange email and password for a JWT
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse "Authenticated"
// @Failure 401 {object} models.ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil || u == nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		if h.metrics != nil {
			h.metrics.RecordLoginAttempt(false)
		}
		// Same response for unknown email and wrong password.
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "invalid_credentials",
			Message: "Invalid email or password",
		})
	}

	token, err := auth.GenerateJWT(u, h.config.JWTSecret, h.config.JWTExpirationHours)
	if err != nil {
		return apierrors.InternalError(c, err)
	}

	if h.metrics != nil {
		h.metrics.RecordLoginAttempt(true)
	}

	return c.JSON(http.StatusOK, models.LoginResponse{Token: token, User: *u})
}

// Me godoc
// @Summary Current user
// @Description Return the profile of the authenticated user
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return apierrors.UnauthorizedError(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.users.GetByID(ctx, actor.ID)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, u)
}

// Logout godoc
// @Summary Log out
// @Description Revoke the presented token for its remaining lifetime
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	token, ok := c.Get("token").(string)
	if !ok || token == "" {
		return apierrors.UnauthorizedError(c)
	}

	if h.blacklist != nil {
		ttl := time.Hour * time.Duration(h.config.JWTExpirationHours)
		if claims, err := auth.ValidateJWT(token, h.config.JWTSecret); err == nil && claims.ExpiresAt != nil {
			ttl = time.Until(claims.ExpiresAt.Time)
		}
		if ttl > 0 {
			if err := h.blacklist.Add(c.Request().Context(), token, ttl); err != nil {
				return apierrors.InternalError(c, err)
			}
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}
