// Package message accepts chat messages from clients
package message

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/totegamma/sigchat/core"
)

var tracer = otel.Tracer("message")

// Handler is the interface for handling HTTP requests
type Handler interface {
	Send(c echo.Context) error
}

type handler struct {
	service core.MessageService
}

// NewHandler creates a new handler
func NewHandler(service core.MessageService) Handler {
	return &handler{service: service}
}

type sendRequest struct {
	Text      string `json:"text"`
	Signature string `json:"signature"`
	UserID    string `json:"userID"`
}

// Send stores a message and broadcasts it
func (h handler) Send(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Message.Handler.Send")
	defer span.End()

	var request sendRequest
	err := c.Bind(&request)
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusBadRequest, core.ErrorResponse{Error: "invalid request body"})
	}

	if request.Text == "" {
		return c.JSON(http.StatusBadRequest, core.ErrorResponse{Error: "missing required field", Field: "text"})
	}
	if request.UserID == "" {
		return c.JSON(http.StatusBadRequest, core.ErrorResponse{Error: "missing required field", Field: "userID"})
	}

	_, err = h.service.Create(ctx, request.Text, request.Signature, request.UserID)
	if err != nil {
		var verr core.ErrorValidation
		if errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, core.ErrorResponse{Error: "missing required field", Field: verr.Field})
		}
		span.RecordError(err)
		slog.ErrorContext(ctx, "failed to send message", slog.String("error", err.Error()), slog.String("module", "message"))
		return c.JSON(http.StatusInternalServerError, core.ErrorResponse{Error: "internal server error"})
	}

	return c.String(http.StatusOK, "sent")
}
