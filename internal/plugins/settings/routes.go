package settings

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all settings and catalog routes on the given Echo
// instance, scoped to a campaign via :cid.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	cg := e.Group("/api/campaigns/:cid")

	// Raw key-value settings.
	cg.GET("/settings", h.Index)
	cg.GET("/settings/:key", h.Show)
	cg.PUT("/settings/:key", h.Upsert)
	cg.DELETE("/settings/:key", h.Delete)

	// Visibility config. Static segments take precedence over :key.
	cg.GET("/settings/visibility/config", h.Visibility)
	cg.PUT("/settings/visibility/fields", h.SetFieldVisibility)
	cg.DELETE("/settings/visibility/fields", h.RemoveFieldVisibility)
	cg.PUT("/settings/visibility/categories", h.SetCategoryVisibility)
	cg.DELETE("/settings/visibility/categories", h.RemoveCategoryVisibility)
	cg.POST("/settings/visibility/reset", h.ResetEntityType)

	// Type catalog.
	cg.GET("/types", h.Types)
	cg.GET("/types/ordered", h.OrderedTypes)
	cg.GET("/relationship-templates", h.RelationshipTemplates)
}
