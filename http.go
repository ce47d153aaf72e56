package users

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// HTTPError is the JSON error envelope. Detail carries the human readable
// message, Code the stable text code when one was attached.
type HTTPError struct {
	Detail string         `json:"detail"`
	Code   string         `json:"code,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

// HTTPStatus maps a rich error to a response status. An explicit numeric
// code on the error wins, otherwise the category decides.
func HTTPStatus(err *errors.Error) int {
	if err.Code > 0 {
		return err.Code
	}

	switch err.Category {
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// NewErrorHandler builds the fiber error handler used by the whole app.
// Internal messages never leak, everything else renders the envelope.
func NewErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(HTTPError{Detail: fiberErr.Message})
		}

		var richErr *errors.Error
		if !errors.As(err, &richErr) {
			richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
				WithCode(errors.CodeInternal)
		}

		status := HTTPStatus(richErr)

		logger.Info(
			"request error",
			"error", richErr.Message,
			"category", richErr.Category,
			"status", status,
			"path", c.OriginalURL(),
			"details", print.MaybePrettyJSON(richErr.Metadata),
		)

		body := HTTPError{
			Detail: richErr.Message,
			Code:   richErr.TextCode,
		}

		if status >= http.StatusInternalServerError {
			body.Detail = "An unexpected server error occurred"
			body.Code = ""
		}

		if status == http.StatusBadRequest && len(richErr.Metadata) > 0 {
			body.Fields = richErr.Metadata
		}

		return c.Status(status).JSON(body)
	}
}
