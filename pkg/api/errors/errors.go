package errors

import (
	stderrors "errors"
	"net/http"

	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/jordanlanch/freelancecrm/pkg/logger"
	"github.com/jordanlanch/freelancecrm/pkg/models"
	"github.com/labstack/echo/v4"
)

// Respond writes the JSON error response matching err. Domain errors carry
// messages that are safe to show; anything else is logged and reported as
// an internal error.
func Respond(c echo.Context, log logger.Logger, err error) error {
	var httpErr *echo.HTTPError
	switch {
	case stderrors.Is(err, models.ErrValidation):
		return ValidationError(c, err)
	case stderrors.Is(err, models.ErrNotFound):
		return NotFoundError(c, err)
	case stderrors.Is(err, models.ErrPayloadTooLarge):
		return PayloadTooLarge(c, err)
	case stderrors.Is(err, models.ErrUnsupportedMediaType):
		return UnsupportedMediaType(c, err)
	case stderrors.As(err, &httpErr):
		return httpError(c, httpErr)
	}
	return InternalError(c, log, err)
}

// ValidationError returns 400 with the validation message.
func ValidationError(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
	})
}

// BadRequest returns 400 for a body or parameter that could not be bound.
func BadRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}

// NotFoundError returns 404.
func NotFoundError(c echo.Context, err error) error {
	return c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error:   "not_found",
		Message: err.Error(),
	})
}

// PayloadTooLarge returns 413.
func PayloadTooLarge(c echo.Context, err error) error {
	return c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
		Error:   "payload_too_large",
		Message: err.Error(),
	})
}

// UnsupportedMediaType returns 415.
func UnsupportedMediaType(c echo.Context, err error) error {
	return c.JSON(http.StatusUnsupportedMediaType, models.ErrorResponse{
		Error:   "unsupported_media_type",
		Message: err.Error(),
	})
}

// InternalError logs err, reports it to Sentry when the request carries a
// hub, and returns a generic 500 without internal details.
func InternalError(c echo.Context, log logger.Logger, err error) error {
	log.Error("internal error",
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
		"error", err,
	)
	if hub := sentryecho.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred. Please try again later.",
	})
}

func httpError(c echo.Context, he *echo.HTTPError) error {
	message := http.StatusText(he.Code)
	if m, ok := he.Message.(string); ok && m != "" {
		message = m
	}
	return c.JSON(he.Code, models.ErrorResponse{
		Error:   "http_error",
		Message: message,
	})
}
