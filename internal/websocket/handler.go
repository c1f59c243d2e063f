package websocket

import (
	"github.com/labstack/echo/v4"
)

// Handler serves the operation feed. Authentication is applied by the
// route group's middleware.
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

func (h *Handler) HandleOperationsWebSocket(c echo.Context) error {
	return h.hub.ServeWebSocket(c)
}
