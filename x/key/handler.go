// Package key relays public key releases
package key

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/totegamma/sigchat/core"
)

var tracer = otel.Tracer("key")

// Handler is the interface for handling HTTP requests
type Handler interface {
	Release(c echo.Context) error
}

type handler struct {
	service core.KeyService
}

// NewHandler creates a new handler
func NewHandler(service core.KeyService) Handler {
	return &handler{service}
}

type releaseRequest struct {
	Key    string `json:"key"`
	UserID string `json:"userID"`
}

// Release broadcasts a public key
func (h *handler) Release(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Key.Handler.Release")
	defer span.End()

	var request releaseRequest
	err := c.Bind(&request)
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusBadRequest, core.ErrorResponse{Error: "invalid request body"})
	}

	err = h.service.Release(ctx, request.Key, request.UserID)
	if err != nil {
		var verr core.ErrorValidation
		if errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, core.ErrorResponse{Error: "missing required field", Field: verr.Field})
		}
		span.RecordError(err)
		slog.ErrorContext(ctx, "failed to release public key", slog.String("error", err.Error()), slog.String("module", "key"))
		return c.JSON(http.StatusInternalServerError, core.ErrorResponse{Error: "internal server error"})
	}

	return c.NoContent(http.StatusNoContent)
}
