package handlers

import (
	"net/http"

	"github.com/jordanlanch/freelancecrm/pkg/assets"
	"github.com/jordanlanch/freelancecrm/pkg/dashboard"
	"github.com/jordanlanch/freelancecrm/pkg/logger"
	"github.com/jordanlanch/freelancecrm/pkg/models"
	"github.com/jordanlanch/freelancecrm/pkg/parse"
	"github.com/jordanlanch/freelancecrm/pkg/projects"
	"github.com/jordanlanch/freelancecrm/pkg/tasks"
	"github.com/labstack/echo/v4"
)

// ProjectHandler handles project endpoints, including project tasks and
// project-scoped uploads
type ProjectHandler struct {
	base
	service   *projects.Service
	tasks     *tasks.Service
	assets    *assets.Pipeline
	dashboard *dashboard.Service
	maxBytes  int64
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(
	service *projects.Service,
	tasks *tasks.Service,
	pipeline *assets.Pipeline,
	dash *dashboard.Service,
	maxBytes int64,
	log logger.Logger,
) *ProjectHandler {
	if maxBytes <= 0 {
		maxBytes = assets.DefaultMaxBytes
	}
	return &ProjectHandler{
		base:      base{log: log},
		service:   service,
		tasks:     tasks,
		assets:    pipeline,
		dashboard: dash,
		maxBytes:  maxBytes,
	}
}

// List godoc
// @Summary List projects
// @Tags Projects
// @Produce json
// @Param status query string false "Exact status"
// @Param contact_id query integer false "Contact id"
// @Param company_id query integer false "Company id"
// @Success 200 {object} ListResponse[models.Project]
// @Router /projects [get]
func (h *ProjectHandler) List(c echo.Context) error {
	f := projects.Filter{
		ContactID: queryID(c, "contact_id"),
		CompanyID: queryID(c, "company_id"),
	}
	if s := models.ProjectStatus(c.QueryParam("status")); s.Valid() {
		f.Status = &s
	}
	list, err := h.service.List(c.Request().Context(), f)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, newList(list))
}

// Create godoc
// @Summary Create a project
// @Description An unknown status falls back to ACTIVE. Unparseable dates or budget are ignored.
// @Tags Projects
// @Accept json
// @Produce json
// @Param request body projects.CreateRequest true "Project"
// @Success 201 {object} models.Project
// @Failure 400 {object} models.ErrorResponse "Validation error"
// @Router /projects [post]
func (h *ProjectHandler) Create(c echo.Context) error {
	var req projects.CreateRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	project, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return created(c, project)
}

// Get godoc
// @Summary Project detail
// @Description Project with company, contact, tasks by due date, assets, events and the last 100 activity entries
// @Tags Projects
// @Produce json
// @Param id path integer true "Project id"
// @Success 200 {object} dashboard.ProjectDetail
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /projects/{id} [get]
func (h *ProjectHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	detail, err := h.dashboard.ProjectDetail(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// SetStatus godoc
// @Summary Change a project's status
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path integer true "Project id"
// @Param request body StatusRequest true "New status"
// @Success 200 {object} models.Project
// @Failure 400 {object} models.ErrorResponse "Invalid status"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /projects/{id}/status [patch]
func (h *ProjectHandler) SetStatus(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req StatusRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	project, err := h.service.SetStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, project)
}

// CreateTask godoc
// @Summary Add a task to a project
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path integer true "Project id"
// @Param request body tasks.CreateRequest true "Task"
// @Success 201 {object} models.Task
// @Failure 400 {object} models.ErrorResponse "Validation error"
// @Failure 404 {object} models.ErrorResponse "Project not found"
// @Router /projects/{id}/tasks [post]
func (h *ProjectHandler) CreateTask(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req tasks.CreateRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	task, err := h.tasks.Create(c.Request().Context(), id, req)
	if err != nil {
		return h.fail(c, err)
	}
	return created(c, task)
}

// Upload godoc
// @Summary Upload assets to a project
// @Description Stores the files linked to the project. Duplicates are skipped; when every file is a duplicate the response is 200 with all_duplicates set.
// @Tags Projects
// @Accept multipart/form-data
// @Produce json
// @Param id path integer true "Project id"
// @Param files formData file true "Files"
// @Param tags formData string false "Tags"
// @Param notes formData string false "Notes"
// @Success 201 {object} UploadResponse
// @Success 200 {object} UploadResponse "All files were duplicates"
// @Failure 404 {object} models.ErrorResponse "Project not found"
// @Failure 413 {object} models.ErrorResponse "File too large"
// @Failure 415 {object} models.ErrorResponse "Unsupported file type"
// @Router /projects/{id}/assets [post]
func (h *ProjectHandler) Upload(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	ctx := c.Request().Context()
	if _, err := h.service.Get(ctx, id); err != nil {
		return h.fail(c, err)
	}

	var meta assets.Metadata
	if err := bind(c, &meta); err != nil {
		return h.fail(c, err)
	}
	meta.ProjectID = parse.OptionalInt{Value: id, Valid: true}
	meta.ContactID = parse.OptionalInt{}

	uploads, err := readUploads(c, h.maxBytes)
	if err != nil {
		return h.fail(c, err)
	}
	result, err := h.assets.UploadBatch(ctx, uploads, meta)
	if err != nil {
		return h.fail(c, err)
	}
	return uploadResponse(c, result)
}
