package health

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	version string
	started time.Time
}

func NewHandler(version string) *Handler {
	return &Handler{version: version, started: time.Now()}
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": h.version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}
