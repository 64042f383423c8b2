package scribe

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the AI workflow routes on the given Echo instance.
// aiLimit, when non-nil, is applied to the routes that reach the LLM.
func RegisterRoutes(e *echo.Echo, h *Handler, aiLimit echo.MiddlewareFunc) {
	cg := e.Group("/api/campaigns/:cid")

	cg.POST("/scribe/parse", h.Parse)
	cg.POST("/scribe/save", h.Save)
	cg.POST("/scribe/mentions", h.Mentions)
	cg.GET("/entities/:eid/context", h.Context)

	if aiLimit != nil {
		cg.POST("/scribe/summarize", h.Summarize, aiLimit)
	} else {
		cg.POST("/scribe/summarize", h.Summarize)
	}
}
