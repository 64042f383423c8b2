package export

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the export routes on the given Echo instance.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	cg := e.Group("/api/campaigns/:cid")
	cg.GET("/export/player", h.Player)
}
