package handlers

import (
	"net/http"

	"github.com/jordanlanch/freelancecrm/pkg/leads"
	"github.com/jordanlanch/freelancecrm/pkg/logger"
	"github.com/labstack/echo/v4"
)

// LeadHandler handles lead endpoints
type LeadHandler struct {
	base
	service *leads.Service
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(service *leads.Service, log logger.Logger) *LeadHandler {
	return &LeadHandler{base: base{log: log}, service: service}
}

// Board godoc
// @Summary Lead board
// @Description Leads grouped by status in pipeline order, newest first within a column
// @Tags Leads
// @Produce json
// @Success 200 {object} leads.Board
// @Router /leads [get]
func (h *LeadHandler) Board(c echo.Context) error {
	board, err := h.service.Board(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, board)
}

// Create godoc
// @Summary Create a lead
// @Description An unknown status falls back to NEW. Unparseable value estimate or due date are ignored.
// @Tags Leads
// @Accept json
// @Produce json
// @Param request body leads.CreateRequest true "Lead"
// @Success 201 {object} models.Lead
// @Failure 400 {object} models.ErrorResponse "Validation error"
// @Router /leads [post]
func (h *LeadHandler) Create(c echo.Context) error {
	var req leads.CreateRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	lead, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return created(c, lead)
}

// SetStatus godoc
// @Summary Change a lead's status
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path integer true "Lead id"
// @Param request body StatusRequest true "New status"
// @Success 200 {object} models.Lead
// @Failure 400 {object} models.ErrorResponse "Invalid status"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /leads/{id}/status [patch]
func (h *LeadHandler) SetStatus(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req StatusRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	lead, err := h.service.SetStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, lead)
}
