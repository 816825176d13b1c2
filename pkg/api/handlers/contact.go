package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/jordanlanch/freelancecrm/pkg/contacts"
	"github.com/jordanlanch/freelancecrm/pkg/dashboard"
	"github.com/jordanlanch/freelancecrm/pkg/export"
	importpkg "github.com/jordanlanch/freelancecrm/pkg/import"
	"github.com/jordanlanch/freelancecrm/pkg/logger"
	"github.com/labstack/echo/v4"
)

// ContactHandler handles contact endpoints, including import and export
type ContactHandler struct {
	base
	service    *contacts.Service
	dashboard  *dashboard.Service
	reconciler *importpkg.Reconciler
	exporter   *export.Service
	maxBytes   int64
}

// NewContactHandler creates a new contact handler. maxBytes caps import files.
func NewContactHandler(
	service *contacts.Service,
	dash *dashboard.Service,
	reconciler *importpkg.Reconciler,
	exporter *export.Service,
	maxBytes int64,
	log logger.Logger,
) *ContactHandler {
	if maxBytes <= 0 {
		maxBytes = importpkg.DefaultMaxBytes
	}
	return &ContactHandler{
		base:       base{log: log},
		service:    service,
		dashboard:  dash,
		reconciler: reconciler,
		exporter:   exporter,
		maxBytes:   maxBytes,
	}
}

// List godoc
// @Summary List contacts
// @Tags Contacts
// @Produce json
// @Param q query string false "Search over first name, last name and email"
// @Success 200 {object} ListResponse[models.Contact]
// @Router /contacts [get]
func (h *ContactHandler) List(c echo.Context) error {
	list, err := h.service.List(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, newList(list))
}

// Create godoc
// @Summary Create a contact
// @Description Creates a contact. Duplicate emails are allowed on this path.
// @Tags Contacts
// @Accept json
// @Produce json
// @Param request body contacts.Request true "Contact"
// @Success 201 {object} models.Contact
// @Failure 400 {object} models.ErrorResponse "Validation error"
// @Router /contacts [post]
func (h *ContactHandler) Create(c echo.Context) error {
	var req contacts.Request
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	contact, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return created(c, contact)
}

// Get godoc
// @Summary Contact detail
// @Description Contact with company, leads, projects, assets, events, phone details and the last 50 activity entries
// @Tags Contacts
// @Produce json
// @Param id path integer true "Contact id"
// @Success 200 {object} dashboard.ContactDetail
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /contacts/{id} [get]
func (h *ContactHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	detail, err := h.dashboard.ContactDetail(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// Update godoc
// @Summary Update a contact
// @Description Replaces the editable fields. An update that changes nothing records no activity.
// @Tags Contacts
// @Accept json
// @Produce json
// @Param id path integer true "Contact id"
// @Param request body contacts.Request true "Contact"
// @Success 200 {object} models.Contact
// @Failure 400 {object} models.ErrorResponse "Validation error"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /contacts/{id} [put]
func (h *ContactHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req contacts.Request
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	contact, err := h.service.Update(c.Request().Context(), id, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, contact)
}

// Delete godoc
// @Summary Delete a contact
// @Description Deletes the contact and clears its references on leads, projects, assets and events
// @Tags Contacts
// @Param id path integer true "Contact id"
// @Success 204
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /contacts/{id} [delete]
func (h *ContactHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Import godoc
// @Summary Import contacts
// @Description Imports a CSV or XLSX file. Rows without a name or email, and emails that already exist, are skipped.
// @Tags Contacts
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Success 200 {object} importpkg.ImportResult
// @Failure 400 {object} models.ErrorResponse "Missing file or header row"
// @Failure 413 {object} models.ErrorResponse "File too large"
// @Router /contacts/import [post]
func (h *ContactHandler) Import(c echo.Context) error {
	files, err := formFiles(c, "file")
	if err != nil {
		return h.fail(c, err)
	}
	data, err := readFile(files[0], h.maxBytes)
	if err != nil {
		return h.fail(c, err)
	}
	result, err := h.reconciler.ImportContacts(c.Request().Context(), data)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// Export godoc
// @Summary Export contacts
// @Tags Contacts
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "csv or excel" default(csv)
// @Param q query string false "Search over first name, last name and email"
// @Success 200 {file} file
// @Failure 400 {object} models.ErrorResponse "Unknown format"
// @Router /contacts/export [get]
func (h *ContactHandler) Export(c echo.Context) error {
	format, err := export.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return h.fail(c, err)
	}

	var buf bytes.Buffer
	if err := h.exporter.Contacts(c.Request().Context(), &buf, format, c.QueryParam("q")); err != nil {
		return h.fail(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", format.Filename(time.Now())))
	return c.Blob(http.StatusOK, format.ContentType(), buf.Bytes())
}
