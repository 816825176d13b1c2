package handlers

import (
	"net/http"

	"github.com/jordanlanch/freelancecrm/pkg/events"
	"github.com/jordanlanch/freelancecrm/pkg/logger"
	"github.com/labstack/echo/v4"
)

// EventHandler handles event and calendar endpoints
type EventHandler struct {
	base
	service *events.Service
}

// NewEventHandler creates a new event handler
func NewEventHandler(service *events.Service, log logger.Logger) *EventHandler {
	return &EventHandler{base: base{log: log}, service: service}
}

// List godoc
// @Summary List events
// @Tags Events
// @Produce json
// @Param project_id query integer false "Project id"
// @Param contact_id query integer false "Contact id"
// @Success 200 {object} ListResponse[models.Event]
// @Router /events [get]
func (h *EventHandler) List(c echo.Context) error {
	list, err := h.service.List(c.Request().Context(), events.Filter{
		ProjectID: queryID(c, "project_id"),
		ContactID: queryID(c, "contact_id"),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, newList(list))
}

// Create godoc
// @Summary Create an event
// @Description start is required and must be a valid date or datetime; an unparseable end is ignored.
// @Tags Events
// @Accept json
// @Produce json
// @Param request body events.CreateRequest true "Event"
// @Success 201 {object} models.Event
// @Failure 400 {object} models.ErrorResponse "Validation error"
// @Router /events [post]
func (h *EventHandler) Create(c echo.Context) error {
	var req events.CreateRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	event, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return created(c, event)
}

// Calendar godoc
// @Summary Calendar feed
// @Description Events plus open tasks with a due date, shaped for FullCalendar
// @Tags Events
// @Produce json
// @Success 200 {array} events.CalendarItem
// @Router /calendar [get]
func (h *EventHandler) Calendar(c echo.Context) error {
	items, err := h.service.CalendarFeed(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, items)
}
