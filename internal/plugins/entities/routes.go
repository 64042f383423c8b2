package entities

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all entity routes on the given Echo instance.
// Everything is scoped to a campaign via the :cid path segment; every
// entity-level handler re-checks that the entity belongs to that campaign.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	cg := e.Group("/api/campaigns/:cid")

	// Collection routes. The static segments must be registered before the
	// :eid wildcard so /entities/search does not bind as an id.
	cg.GET("/entities", h.Index)
	cg.POST("/entities", h.Create)
	cg.GET("/entities/search", h.Search)
	cg.GET("/entities/counts", h.Counts)

	// Single-entity routes.
	cg.GET("/entities/:eid", h.Show)
	cg.PUT("/entities/:eid", h.Update)
	cg.DELETE("/entities/:eid", h.Delete)
	cg.POST("/entities/:eid/duplicate", h.Duplicate)

	// Relationship links.
	cg.POST("/entities/:eid/links", h.AddLink)
	cg.DELETE("/entities/:eid/links", h.RemoveLink)

	// Scene workflow.
	cg.POST("/entities/:eid/status", h.TransitionStatus)
}
