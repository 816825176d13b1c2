package handlers

import (
	"net/http"
	"strconv"

	"github.com/jordanlanch/freelancecrm/pkg/activity"
	"github.com/jordanlanch/freelancecrm/pkg/logger"
	"github.com/jordanlanch/freelancecrm/pkg/models"
	"github.com/labstack/echo/v4"
)

// FeedLimit is the number of entries the activity feed returns.
const FeedLimit = 300

// ActivityHandler serves the activity log
type ActivityHandler struct {
	base
	service *activity.Service
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(service *activity.Service, log logger.Logger) *ActivityHandler {
	return &ActivityHandler{base: base{log: log}, service: service}
}

// List godoc
// @Summary Activity feed
// @Description Latest activity entries, newest first. With entity_type and entity_id only that entity's entries are returned.
// @Tags Activity
// @Produce json
// @Param entity_type query string false "Entity type (Contact, Project, ...)"
// @Param entity_id query integer false "Entity id"
// @Param limit query integer false "Maximum entries" default(300)
// @Success 200 {object} ListResponse[models.Activity]
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /activity [get]
func (h *ActivityHandler) List(c echo.Context) error {
	limit := FeedLimit
	if n, err := strconv.Atoi(c.QueryParam("limit")); err == nil && n > 0 && n < FeedLimit {
		limit = n
	}

	ctx := c.Request().Context()
	var (
		items []*models.Activity
		err   error
	)
	entityType := c.QueryParam("entity_type")
	if id := queryID(c, "entity_id"); entityType != "" && id != nil {
		items, err = h.service.ForEntity(ctx, entityType, *id, limit)
	} else {
		items, err = h.service.Recent(ctx, limit)
	}
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, newList(items))
}

// Create godoc
// @Summary Record an activity entry
// @Description Appends a standalone entry to the activity log
// @Tags Activity
// @Accept json
// @Produce json
// @Param request body activity.Entry true "Entry"
// @Success 201 {object} models.Activity
// @Failure 400 {object} models.ErrorResponse "Invalid entry"
// @Router /activity [post]
func (h *ActivityHandler) Create(c echo.Context) error {
	var entry activity.Entry
	if err := bind(c, &entry); err != nil {
		return h.fail(c, err)
	}
	a, err := h.service.Log(c.Request().Context(), entry)
	if err != nil {
		return h.fail(c, err)
	}
	return created(c, a)
}
