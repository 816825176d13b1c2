package handlers

import (
	"net/http"

	"github.com/jordanlanch/freelancecrm/pkg/dashboard"
	"github.com/jordanlanch/freelancecrm/pkg/logger"
	"github.com/labstack/echo/v4"
)

// DashboardHandler serves the home summary
type DashboardHandler struct {
	base
	service *dashboard.Service
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service *dashboard.Service, log logger.Logger) *DashboardHandler {
	return &DashboardHandler{base: base{log: log}, service: service}
}

// Summary godoc
// @Summary Dashboard summary
// @Description Entity counts, open task count and the 20 most recent activity entries
// @Tags Dashboard
// @Produce json
// @Success 200 {object} dashboard.Summary
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c echo.Context) error {
	summary, err := h.service.Summary(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}
