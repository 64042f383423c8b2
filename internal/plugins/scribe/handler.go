package scribe

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/emberfall/lorekeep/internal/apperror"
	"github.com/emberfall/lorekeep/internal/relctx"
)

// Handler handles HTTP requests for the AI workflows.
type Handler struct {
	service ScribeService
}

// NewHandler creates a new scribe handler.
func NewHandler(service ScribeService) *Handler {
	return &Handler{service: service}
}

// Parse parses AI output into candidates (POST /api/campaigns/:cid/scribe/parse).
func (h *Handler) Parse(c echo.Context) error {
	var req ParseRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	resp := h.service.Parse(c.Request().Context(), c.Param("cid"), req)
	return c.JSON(http.StatusOK, resp)
}

// Save persists one reviewed candidate (POST /api/campaigns/:cid/scribe/save).
// Failures keep the {success:false, error} envelope so review UIs can show
// the refusal inline.
func (h *Handler) Save(c echo.Context) error {
	var req SaveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, SaveResponse{
			Success: false, Error: "invalid request body",
		})
	}

	entity, err := h.service.Save(c.Request().Context(),
		c.Param("cid"), c.Request().Header.Get("X-User-ID"), req)
	if err != nil {
		return c.JSON(apperror.SafeCode(err), SaveResponse{
			Success: false, Error: apperror.SafeMessage(err),
		})
	}
	return c.JSON(http.StatusCreated, SaveResponse{Success: true, Entity: entity})
}

// Summarize generates a summary (POST /api/campaigns/:cid/scribe/summarize).
func (h *Handler) Summarize(c echo.Context) error {
	var req SummarizeRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	summary, err := h.service.Summarize(c.Request().Context(), c.Param("cid"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SummarizeResponse{Summary: summary})
}

// Mentions detects entity mentions (POST /api/campaigns/:cid/scribe/mentions).
func (h *Handler) Mentions(c echo.Context) error {
	var req MentionsRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	mentions, err := h.service.DetectMentions(c.Request().Context(), c.Param("cid"), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mentions)
}

// Context builds the relationship digest for one entity
// (GET /api/campaigns/:cid/entities/:eid/context).
func (h *Handler) Context(c echo.Context) error {
	opts := relctx.Options{
		Direction: c.QueryParam("direction"),
	}
	if v, _ := strconv.Atoi(c.QueryParam("depth")); v > 0 {
		opts.MaxDepth = v
	}
	if v, _ := strconv.Atoi(c.QueryParam("maxEntities")); v > 0 {
		opts.MaxRelatedEntities = v
	}
	if v, _ := strconv.Atoi(c.QueryParam("maxCharacters")); v > 0 {
		opts.MaxCharacters = v
	}
	if v := c.QueryParam("relationships"); v != "" {
		opts.RelationshipTypes = splitParam(v)
	}
	if v := c.QueryParam("entityTypes"); v != "" {
		opts.EntityTypes = splitParam(v)
	}
	opts.IncludeStrength = c.QueryParam("includeStrength") == "true"
	opts.IncludeNotes = c.QueryParam("includeNotes") == "true"

	resp, err := h.service.BuildContext(c.Request().Context(),
		c.Param("cid"), c.Param("eid"), opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// splitParam splits a comma-separated query value, dropping empties.
func splitParam(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
