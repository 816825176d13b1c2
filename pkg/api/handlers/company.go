package handlers

import (
	"net/http"

	"github.com/jordanlanch/freelancecrm/pkg/companies"
	"github.com/jordanlanch/freelancecrm/pkg/contacts"
	"github.com/jordanlanch/freelancecrm/pkg/logger"
	"github.com/jordanlanch/freelancecrm/pkg/models"
	"github.com/labstack/echo/v4"
)

// CompanyHandler handles company endpoints
type CompanyHandler struct {
	base
	service  *companies.Service
	contacts *contacts.Service
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(service *companies.Service, contacts *contacts.Service, log logger.Logger) *CompanyHandler {
	return &CompanyHandler{base: base{log: log}, service: service, contacts: contacts}
}

// CompanyDetail is a company with its contacts.
type CompanyDetail struct {
	*models.Company
	Contacts []*models.Contact `json:"contacts"`
}

// List godoc
// @Summary List companies
// @Tags Companies
// @Produce json
// @Param q query string false "Case-insensitive search over name, website and notes"
// @Success 200 {object} ListResponse[models.Company]
// @Router /companies [get]
func (h *CompanyHandler) List(c echo.Context) error {
	list, err := h.service.List(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, newList(list))
}

// Create godoc
// @Summary Create a company
// @Tags Companies
// @Accept json
// @Produce json
// @Param request body companies.CreateRequest true "Company"
// @Success 201 {object} models.Company
// @Failure 400 {object} models.ErrorResponse "Validation error"
// @Router /companies [post]
func (h *CompanyHandler) Create(c echo.Context) error {
	var req companies.CreateRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	company, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return created(c, company)
}

// Get godoc
// @Summary Get a company with its contacts
// @Tags Companies
// @Produce json
// @Param id path integer true "Company id"
// @Success 200 {object} CompanyDetail
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /companies/{id} [get]
func (h *CompanyHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	ctx := c.Request().Context()
	company, err := h.service.Get(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	people, err := h.contacts.ListByCompany(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, CompanyDetail{Company: company, Contacts: people})
}
