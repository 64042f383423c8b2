package export

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for player exports.
type Handler struct {
	service ExportService
}

// NewHandler creates a new export handler.
func NewHandler(service ExportService) *Handler {
	return &Handler{service: service}
}

// Player returns the player-safe campaign document
// (GET /api/campaigns/:cid/export/player).
func (h *Handler) Player(c echo.Context) error {
	doc, err := h.service.PlayerExport(c.Request().Context(), c.Param("cid"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}
