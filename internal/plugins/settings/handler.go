package settings

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/emberfall/lorekeep/internal/apperror"
	"github.com/emberfall/lorekeep/internal/catalog"
)

// Handler handles HTTP requests for campaign settings and type catalogs.
type Handler struct {
	service SettingsService
}

// NewHandler creates a new settings handler.
func NewHandler(service SettingsService) *Handler {
	return &Handler{service: service}
}

// Index returns all stored settings (GET /api/campaigns/:cid/settings).
func (h *Handler) Index(c echo.Context) error {
	all, err := h.service.All(c.Request().Context(), c.Param("cid"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, all)
}

// Show returns one setting (GET /api/campaigns/:cid/settings/:key).
func (h *Handler) Show(c echo.Context) error {
	val, err := h.service.Get(c.Request().Context(), c.Param("cid"), c.Param("key"))
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusOK, val)
}

// Upsert stores one setting (PUT /api/campaigns/:cid/settings/:key). The
// request body is the raw JSON value.
func (h *Handler) Upsert(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil || len(body) == 0 || !json.Valid(body) {
		return apperror.NewBadRequest("request body must be a JSON value")
	}
	if err := h.service.Set(c.Request().Context(), c.Param("cid"), c.Param("key"), body); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes one setting (DELETE /api/campaigns/:cid/settings/:key).
func (h *Handler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("cid"), c.Param("key")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Visibility config ---

// fieldVisibilityRequest is the body for field-level visibility changes.
type fieldVisibilityRequest struct {
	EntityType string `json:"entityType"`
	FieldKey   string `json:"fieldKey"`
	Visible    bool   `json:"visible"`
}

// categoryVisibilityRequest is the body for category-level visibility changes.
type categoryVisibilityRequest struct {
	EntityType string `json:"entityType"`
	Visible    bool   `json:"visible"`
}

// Visibility returns the effective visibility config
// (GET /api/campaigns/:cid/settings/visibility/config).
func (h *Handler) Visibility(c echo.Context) error {
	cfg := h.service.VisibilityConfig(c.Request().Context(), c.Param("cid"))
	return c.JSON(http.StatusOK, cfg)
}

// SetFieldVisibility sets one field rule
// (PUT /api/campaigns/:cid/settings/visibility/fields).
func (h *Handler) SetFieldVisibility(c echo.Context) error {
	var req fieldVisibilityRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	cfg, err := h.service.SetFieldVisibility(c.Request().Context(),
		c.Param("cid"), req.EntityType, req.FieldKey, req.Visible)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cfg)
}

// RemoveFieldVisibility clears one field rule
// (DELETE /api/campaigns/:cid/settings/visibility/fields?entityType=...&fieldKey=...).
func (h *Handler) RemoveFieldVisibility(c echo.Context) error {
	cfg, err := h.service.RemoveFieldVisibility(c.Request().Context(),
		c.Param("cid"), c.QueryParam("entityType"), c.QueryParam("fieldKey"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cfg)
}

// SetCategoryVisibility sets a whole-category rule
// (PUT /api/campaigns/:cid/settings/visibility/categories).
func (h *Handler) SetCategoryVisibility(c echo.Context) error {
	var req categoryVisibilityRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	cfg, err := h.service.SetCategoryVisibility(c.Request().Context(),
		c.Param("cid"), req.EntityType, req.Visible)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cfg)
}

// RemoveCategoryVisibility clears a whole-category rule
// (DELETE /api/campaigns/:cid/settings/visibility/categories?entityType=...).
func (h *Handler) RemoveCategoryVisibility(c echo.Context) error {
	cfg, err := h.service.RemoveCategoryVisibility(c.Request().Context(),
		c.Param("cid"), c.QueryParam("entityType"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cfg)
}

// ResetEntityType clears every rule for one type
// (POST /api/campaigns/:cid/settings/visibility/reset?entityType=...).
func (h *Handler) ResetEntityType(c echo.Context) error {
	cfg, err := h.service.ResetEntityTypeConfig(c.Request().Context(),
		c.Param("cid"), c.QueryParam("entityType"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cfg)
}

// --- Type catalog ---

// Types returns the campaign's effective entity types
// (GET /api/campaigns/:cid/types).
func (h *Handler) Types(c echo.Context) error {
	tc := h.service.TypeCustomization(c.Request().Context(), c.Param("cid"))
	return c.JSON(http.StatusOK, catalog.All(tc.CustomTypes, tc.Overrides))
}

// OrderedTypes returns the effective types in sidebar order
// (GET /api/campaigns/:cid/types/ordered).
func (h *Handler) OrderedTypes(c echo.Context) error {
	return c.JSON(http.StatusOK,
		h.service.EffectiveTypes(c.Request().Context(), c.Param("cid")))
}

// RelationshipTemplates returns the built-in relationship templates
// (GET /api/campaigns/:cid/relationship-templates).
func (h *Handler) RelationshipTemplates(c echo.Context) error {
	return c.JSON(http.StatusOK, catalog.RelationshipTemplates())
}
