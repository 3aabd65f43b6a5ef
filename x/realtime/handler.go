package realtime

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Handler is the handler interface
type Handler interface {
	Connect(c echo.Context) error
}

type handler struct {
	hub *Hub
}

// NewHandler creates a new handler
func NewHandler(hub *Hub) Handler {
	return &handler{hub: hub}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Connect upgrades the request and attaches the connection to the hub
func (h handler) Connect(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("failed to upgrade websocket", slog.String("error", err.Error()), slog.String("module", "realtime"))
		return nil
	}

	client := newClient(h.hub, ws, c.RealIP())
	if !h.hub.Register(client) {
		ws.Close()
		return nil
	}

	slog.Info("a user connected", slog.String("addr", client.addr), slog.String("module", "realtime"))
	return nil
}
