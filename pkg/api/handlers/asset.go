package handlers

import (
	"net/http"

	"github.com/jordanlanch/freelancecrm/pkg/assets"
	"github.com/jordanlanch/freelancecrm/pkg/logger"
	"github.com/jordanlanch/freelancecrm/pkg/models"
	"github.com/labstack/echo/v4"
)

// AssetHandler handles asset endpoints and serves stored uploads
type AssetHandler struct {
	base
	pipeline *assets.Pipeline
	maxBytes int64
}

// NewAssetHandler creates a new asset handler
func NewAssetHandler(pipeline *assets.Pipeline, maxBytes int64, log logger.Logger) *AssetHandler {
	if maxBytes <= 0 {
		maxBytes = assets.DefaultMaxBytes
	}
	return &AssetHandler{base: base{log: log}, pipeline: pipeline, maxBytes: maxBytes}
}

// UploadResponse reports the outcome of a multi-file upload.
type UploadResponse struct {
	Created       []*models.Asset `json:"created"`
	Duplicates    []string        `json:"duplicates"`
	AllDuplicates bool            `json:"all_duplicates"`
}

// uploadResponse answers 201 when at least one asset was created and 200
// when every file was a duplicate.
func uploadResponse(c echo.Context, result *assets.BatchResult) error {
	resp := UploadResponse{
		Created:       result.Created,
		Duplicates:    result.Duplicates,
		AllDuplicates: result.AllDuplicates(),
	}
	if resp.AllDuplicates {
		return c.JSON(http.StatusOK, resp)
	}
	return c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary List assets
// @Description Newest first, at most 200
// @Tags Assets
// @Produce json
// @Param q query string false "Search over filename, tags and notes"
// @Param project_id query integer false "Project id"
// @Param contact_id query integer false "Contact id"
// @Param file_type query string false "image, video, document or other"
// @Success 200 {object} ListResponse[models.Asset]
// @Router /assets [get]
func (h *AssetHandler) List(c echo.Context) error {
	list, err := h.pipeline.List(c.Request().Context(), assets.Filter{
		Q:         c.QueryParam("q"),
		ProjectID: queryID(c, "project_id"),
		ContactID: queryID(c, "contact_id"),
		FileType:  c.QueryParam("file_type"),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, newList(list))
}

// Upload godoc
// @Summary Upload assets
// @Description Every file is checked for size and type before any is stored. Duplicates (same filename, size and type) are skipped.
// @Tags Assets
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Files"
// @Param tags formData string false "Tags"
// @Param project_id formData integer false "Project id"
// @Param contact_id formData integer false "Contact id"
// @Param notes formData string false "Notes"
// @Success 201 {object} UploadResponse
// @Success 200 {object} UploadResponse "All files were duplicates"
// @Failure 400 {object} models.ErrorResponse "No files or unknown project/contact"
// @Failure 413 {object} models.ErrorResponse "File too large"
// @Failure 415 {object} models.ErrorResponse "Unsupported file type"
// @Router /assets [post]
func (h *AssetHandler) Upload(c echo.Context) error {
	var meta assets.Metadata
	if err := bind(c, &meta); err != nil {
		return h.fail(c, err)
	}
	uploads, err := readUploads(c, h.maxBytes)
	if err != nil {
		return h.fail(c, err)
	}
	result, err := h.pipeline.UploadBatch(c.Request().Context(), uploads, meta)
	if err != nil {
		return h.fail(c, err)
	}
	return uploadResponse(c, result)
}

// Delete godoc
// @Summary Delete an asset
// @Tags Assets
// @Param id path integer true "Asset id"
// @Success 204
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /assets/{id} [delete]
func (h *AssetHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.pipeline.Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Serve writes stored upload bytes unchanged.
func (h *AssetHandler) Serve(c echo.Context) error {
	name := c.Param("name")
	rc, err := h.pipeline.Open(c.Request().Context(), name)
	if err != nil {
		return h.fail(c, err)
	}
	defer rc.Close()

	return c.Stream(http.StatusOK, assets.ServeType(name), rc)
}
