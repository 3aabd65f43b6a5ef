// Package user handles registration and login
package user

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/totegamma/sigchat/core"
)

var tracer = otel.Tracer("user")

// Handler is the interface for handling HTTP requests
type Handler interface {
	Register(c echo.Context) error
	Login(c echo.Context) error
}

type handler struct {
	service core.UserService
}

// NewHandler creates a new handler
func NewHandler(service core.UserService) Handler {
	return &handler{service}
}

type credentialRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r credentialRequest) missing() string {
	if r.Username == "" {
		return "username"
	}
	if r.Password == "" {
		return "password"
	}
	return ""
}

// Register creates a new user
func (h *handler) Register(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "User.Handler.Register")
	defer span.End()

	var request credentialRequest
	err := c.Bind(&request)
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusBadRequest, core.ErrorResponse{Error: "invalid request body"})
	}
	if field := request.missing(); field != "" {
		return c.JSON(http.StatusBadRequest, core.ErrorResponse{Error: "missing required field", Field: field})
	}

	created, err := h.service.Register(ctx, request.Username, request.Password)
	if err != nil {
		span.RecordError(err)
		slog.ErrorContext(ctx, "failed to register user", slog.String("error", err.Error()), slog.String("module", "user"))
		return c.JSON(http.StatusInternalServerError, core.ErrorResponse{Error: "internal server error"})
	}

	return c.JSON(http.StatusOK, core.RegisterResponse{
		ID:       created.ID,
		Username: created.Username,
	})
}

// Login checks the credentials of a user
func (h *handler) Login(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "User.Handler.Login")
	defer span.End()

	var request credentialRequest
	err := c.Bind(&request)
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusBadRequest, core.ErrorResponse{Error: "invalid request body"})
	}
	if field := request.missing(); field != "" {
		return c.JSON(http.StatusBadRequest, core.ErrorResponse{Error: "missing required field", Field: field})
	}

	_, err = h.service.Login(ctx, request.Username, request.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			return c.JSON(http.StatusNotFound, core.ErrorResponse{Error: ErrUserNotFound.Error()})
		case errors.Is(err, ErrIncorrectPassword):
			return c.JSON(http.StatusUnauthorized, core.ErrorResponse{Error: ErrIncorrectPassword.Error()})
		}
		span.RecordError(err)
		slog.ErrorContext(ctx, "failed to login", slog.String("error", err.Error()), slog.String("module", "user"))
		return c.JSON(http.StatusInternalServerError, core.ErrorResponse{Error: "internal server error"})
	}

	return c.JSON(http.StatusOK, core.LoginResponse{Status: "ok"})
}
