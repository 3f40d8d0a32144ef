package httpx

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"journal.evalgo.org/auth"
)

// AuthHandler exposes registration and login.
type AuthHandler struct {
	service *auth.Service
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

// RegisterRoutes adds auth endpoints to the server.
func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/auth/register", h.handleRegister)
	e.POST("/auth/login", h.handleLogin)
}

// handleRegister creates a person with a credential.
func (h *AuthHandler) handleRegister(c echo.Context) error {
	var req auth.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	person, err := h.service.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, person.Sanitized())
}

// handleLogin verifies credentials and returns a session.
func (h *AuthHandler) handleLogin(c echo.Context) error {
	var req auth.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	session, err := h.service.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, session)
}
