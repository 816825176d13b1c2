package handlers

import (
	"net/http"

	"github.com/jordanlanch/freelancecrm/pkg/logger"
	"github.com/jordanlanch/freelancecrm/pkg/tasks"
	"github.com/labstack/echo/v4"
)

// TaskHandler handles task endpoints
type TaskHandler struct {
	base
	service *tasks.Service
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(service *tasks.Service, log logger.Logger) *TaskHandler {
	return &TaskHandler{base: base{log: log}, service: service}
}

// SetStatus godoc
// @Summary Change a task's status
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path integer true "Task id"
// @Param request body StatusRequest true "New status"
// @Success 200 {object} models.Task
// @Failure 400 {object} models.ErrorResponse "Invalid status"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /tasks/{id}/status [patch]
func (h *TaskHandler) SetStatus(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req StatusRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	task, err := h.service.SetStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, task)
}
