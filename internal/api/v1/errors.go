package v1

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/taskboard/internal/domain"
)

// toHTTPError maps engine errors onto problem responses.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, domain.ErrOutOfRange):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, domain.ErrClosed):
		return huma.Error503ServiceUnavailable("board is shutting down")
	default:
		return huma.Error500InternalServerError("board operation failed", err)
	}
}

// warning renders a persistence failure for the response body.
func warning(saveErr error) string {
	if saveErr == nil {
		return ""
	}
	return "change applied but not saved: " + saveErr.Error()
}
