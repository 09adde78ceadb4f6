package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/imtaco/livecast/internal/errors"
)

// FormatValidationError flattens validator errors into field/message pairs.
// Anything else yields nil.
func FormatValidationError(err error) []Error {
	validationErrors, ok := errors.As[validator.ValidationErrors](err)
	if !ok {
		return nil
	}

	out := make([]Error, 0, len(validationErrors))
	for _, e := range validationErrors {
		out = append(out, Error{
			Field:   e.Field(),
			Message: message(e),
		})
	}
	return out
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "title":
		return fmt.Sprintf("must be 1 to %d characters", MaxTitleLength)
	case "description":
		return fmt.Sprintf("must be at most %d characters", MaxDescriptionLength)
	case "sessionid", "uuid4":
		return "must be a session id"
	case "url", "http_url":
		return "must be a url"
	}
	if e.Param() != "" {
		return fmt.Sprintf("failed on the '%s=%s' rule", e.Tag(), e.Param())
	}
	return fmt.Sprintf("failed on the '%s' rule", e.Tag())
}

type Error struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
