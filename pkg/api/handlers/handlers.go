// Package handlers exposes the CRM services over HTTP with echo.
package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	apierrors "github.com/jordanlanch/freelancecrm/pkg/api/errors"
	"github.com/jordanlanch/freelancecrm/pkg/assets"
	"github.com/jordanlanch/freelancecrm/pkg/logger"
	"github.com/jordanlanch/freelancecrm/pkg/models"
	"github.com/labstack/echo/v4"
)

// StatusRequest moves a lead, project or task to another status.
type StatusRequest struct {
	Status string `json:"status" form:"status"`
}

// ListResponse wraps list results with their count.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func newList[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Count: len(items)}
}

// base carries what every handler needs to report errors.
type base struct {
	log logger.Logger
}

func (b base) fail(c echo.Context, err error) error {
	return apierrors.Respond(c, b.log, err)
}

// paramID parses the named path parameter as an id.
func paramID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}

// queryID parses an optional id query parameter. Unparseable values are
// treated as absent.
func queryID(c echo.Context, name string) *int64 {
	id, err := strconv.ParseInt(c.QueryParam(name), 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

// bind decodes the request body into req.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return models.NewValidationError("", "invalid request body")
	}
	return nil
}

// formFiles returns the files submitted under any of fields.
func formFiles(c echo.Context, fields ...string) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, models.NewValidationError("files", "expected a multipart form")
	}
	for _, field := range fields {
		if files := form.File[field]; len(files) > 0 {
			return files, nil
		}
	}
	return nil, models.NewValidationError("files", "at least one file is required")
}

// readFile reads an uploaded file, refusing anything above maxBytes before
// reading it.
func readFile(fh *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	if fh.Size > maxBytes {
		return nil, &models.SizeLimitError{Size: fh.Size, Limit: maxBytes}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, &models.SizeLimitError{Size: int64(len(data)), Limit: maxBytes}
	}
	return data, nil
}

// readUploads reads every submitted file for the asset pipeline.
func readUploads(c echo.Context, maxBytes int64) ([]assets.Upload, error) {
	files, err := formFiles(c, "files", "file")
	if err != nil {
		return nil, err
	}
	uploads := make([]assets.Upload, 0, len(files))
	for _, fh := range files {
		data, err := readFile(fh, maxBytes)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, assets.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Data:        data,
		})
	}
	return uploads, nil
}

func created(c echo.Context, v any) error {
	return c.JSON(http.StatusCreated, v)
}
