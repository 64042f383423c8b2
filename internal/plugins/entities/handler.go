package entities

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/emberfall/lorekeep/internal/apperror"
)

// Handler handles HTTP requests for entity operations. Handlers are thin:
// bind request, call service, render JSON. No business logic lives here.
type Handler struct {
	service EntityService
}

// NewHandler creates a new entity handler.
func NewHandler(service EntityService) *Handler {
	return &Handler{service: service}
}

// listResponse is the envelope for paginated entity listings.
type listResponse struct {
	Entities []Entity `json:"entities"`
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	PerPage  int      `json:"perPage"`
}

// Index lists entities (GET /api/campaigns/:cid/entities).
// Query params: type, page, perPage, playerOnly.
func (h *Handler) Index(c echo.Context) error {
	campaignID := c.Param("cid")

	opts := DefaultListOptions()
	if page, _ := strconv.Atoi(c.QueryParam("page")); page > 0 {
		opts.Page = page
	}
	if per, _ := strconv.Atoi(c.QueryParam("perPage")); per > 0 {
		opts.PerPage = per
	}
	playerOnly := c.QueryParam("playerOnly") == "true"

	list, total, err := h.service.List(c.Request().Context(),
		campaignID, c.QueryParam("type"), playerOnly, opts)
	if err != nil {
		return err
	}
	if list == nil {
		list = []Entity{}
	}
	return c.JSON(http.StatusOK, listResponse{
		Entities: list, Total: total, Page: opts.Page, PerPage: opts.PerPage,
	})
}

// Search searches entities by name (GET /api/campaigns/:cid/entities/search).
func (h *Handler) Search(c echo.Context) error {
	campaignID := c.Param("cid")

	opts := DefaultListOptions()
	if page, _ := strconv.Atoi(c.QueryParam("page")); page > 0 {
		opts.Page = page
	}
	playerOnly := c.QueryParam("playerOnly") == "true"

	list, total, err := h.service.Search(c.Request().Context(),
		campaignID, c.QueryParam("q"), c.QueryParam("type"), playerOnly, opts)
	if err != nil {
		return err
	}
	if list == nil {
		list = []Entity{}
	}
	return c.JSON(http.StatusOK, listResponse{
		Entities: list, Total: total, Page: opts.Page, PerPage: opts.PerPage,
	})
}

// Counts returns per-type entity counts (GET /api/campaigns/:cid/entities/counts).
func (h *Handler) Counts(c echo.Context) error {
	counts, err := h.service.CountByType(c.Request().Context(),
		c.Param("cid"), c.QueryParam("playerOnly") == "true")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, counts)
}

// Show returns one entity (GET /api/campaigns/:cid/entities/:eid).
func (h *Handler) Show(c echo.Context) error {
	entity, err := h.service.GetByID(c.Request().Context(), c.Param("eid"))
	if err != nil {
		return err
	}
	// Verify the entity belongs to the campaign in the URL.
	if entity.CampaignID != c.Param("cid") {
		return apperror.NewNotFound("entity not found")
	}
	return c.JSON(http.StatusOK, entity)
}

// Create creates a new entity (POST /api/campaigns/:cid/entities).
func (h *Handler) Create(c echo.Context) error {
	var input CreateEntityInput
	if err := c.Bind(&input); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	entity, err := h.service.Create(c.Request().Context(),
		c.Param("cid"), c.Request().Header.Get("X-User-ID"), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, entity)
}

// Update modifies an entity (PUT /api/campaigns/:cid/entities/:eid).
func (h *Handler) Update(c echo.Context) error {
	if err := h.requireCampaignEntity(c); err != nil {
		return err
	}

	var input UpdateEntityInput
	if err := c.Bind(&input); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	entity, err := h.service.Update(c.Request().Context(), c.Param("eid"), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entity)
}

// Delete removes an entity (DELETE /api/campaigns/:cid/entities/:eid).
func (h *Handler) Delete(c echo.Context) error {
	if err := h.requireCampaignEntity(c); err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), c.Param("eid")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Duplicate copies an entity (POST /api/campaigns/:cid/entities/:eid/duplicate).
func (h *Handler) Duplicate(c echo.Context) error {
	if err := h.requireCampaignEntity(c); err != nil {
		return err
	}
	entity, err := h.service.Duplicate(c.Request().Context(), c.Param("eid"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, entity)
}

// AddLink attaches a relationship link (POST /api/campaigns/:cid/entities/:eid/links).
func (h *Handler) AddLink(c echo.Context) error {
	if err := h.requireCampaignEntity(c); err != nil {
		return err
	}

	var input LinkInput
	if err := c.Bind(&input); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	entity, err := h.service.AddLink(c.Request().Context(), c.Param("eid"), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entity)
}

// RemoveLink detaches a relationship link
// (DELETE /api/campaigns/:cid/entities/:eid/links?targetId=...&relationship=...).
func (h *Handler) RemoveLink(c echo.Context) error {
	if err := h.requireCampaignEntity(c); err != nil {
		return err
	}

	entity, err := h.service.RemoveLink(c.Request().Context(), c.Param("eid"),
		c.QueryParam("targetId"), c.QueryParam("relationship"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entity)
}

// sceneStatusRequest is the body for scene status transitions.
type sceneStatusRequest struct {
	Status string `json:"status"`
}

// TransitionStatus moves a scene along its workflow
// (POST /api/campaigns/:cid/entities/:eid/status).
func (h *Handler) TransitionStatus(c echo.Context) error {
	if err := h.requireCampaignEntity(c); err != nil {
		return err
	}

	var req sceneStatusRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	entity, err := h.service.TransitionSceneStatus(c.Request().Context(), c.Param("eid"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entity)
}

// requireCampaignEntity verifies the :eid entity belongs to the :cid
// campaign before a mutating operation.
func (h *Handler) requireCampaignEntity(c echo.Context) error {
	entity, err := h.service.GetByID(c.Request().Context(), c.Param("eid"))
	if err != nil {
		return err
	}
	if entity.CampaignID != c.Param("cid") {
		return apperror.NewNotFound("entity not found")
	}
	return nil
}
