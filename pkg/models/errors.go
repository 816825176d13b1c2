package models

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below match them through errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("validation failed")
	ErrPayloadTooLarge      = errors.New("payload too large")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
)

// ErrMissingHeader is returned when an import file has no header row.
var ErrMissingHeader = &ValidationError{Field: "file", Message: "file is missing a header row"}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NotFoundError reports an unknown id referenced by an operation.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) true.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a NotFoundError for the given resource and id.
func NewNotFoundError(resource string, id int64) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError reports a rejected field value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is makes errors.Is(err, ErrValidation) true.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// SizeLimitError reports a payload above the configured ceiling.
type SizeLimitError struct {
	Size  int64
	Limit int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("file too large (%d bytes, max %d MB)", e.Size, e.Limit/(1024*1024))
}

// Is makes errors.Is(err, ErrPayloadTooLarge) true.
func (e *SizeLimitError) Is(target error) bool {
	return target == ErrPayloadTooLarge
}

// UnsupportedTypeError reports a file rejected by the asset allow-lists.
type UnsupportedTypeError struct {
	Filename string
	MimeType string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type for %q (%s)", e.Filename, e.MimeType)
}

// Is makes errors.Is(err, ErrUnsupportedMediaType) true.
func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedMediaType
}
