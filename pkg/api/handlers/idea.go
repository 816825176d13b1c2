package handlers

import (
	"net/http"

	"github.com/jordanlanch/freelancecrm/pkg/ideas"
	"github.com/jordanlanch/freelancecrm/pkg/logger"
	"github.com/labstack/echo/v4"
)

// IdeaHandler handles idea endpoints
type IdeaHandler struct {
	base
	service *ideas.Service
}

// NewIdeaHandler creates a new idea handler
func NewIdeaHandler(service *ideas.Service, log logger.Logger) *IdeaHandler {
	return &IdeaHandler{base: base{log: log}, service: service}
}

// List godoc
// @Summary List ideas
// @Tags Ideas
// @Produce json
// @Param q query string false "Search over title, tags and notes"
// @Success 200 {object} ListResponse[models.Idea]
// @Router /ideas [get]
func (h *IdeaHandler) List(c echo.Context) error {
	list, err := h.service.List(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, newList(list))
}

// Create godoc
// @Summary Create an idea
// @Tags Ideas
// @Accept json
// @Produce json
// @Param request body ideas.CreateRequest true "Idea"
// @Success 201 {object} models.Idea
// @Failure 400 {object} models.ErrorResponse "Validation error"
// @Router /ideas [post]
func (h *IdeaHandler) Create(c echo.Context) error {
	var req ideas.CreateRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	idea, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return created(c, idea)
}
