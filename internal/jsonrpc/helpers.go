package jsonrpc

import (
	"encoding/json"

	"github.com/imtaco/livecast/internal/errors"
	"github.com/imtaco/livecast/internal/validation"
)

var validate = validation.New()

// ShouldBindParams unmarshals and validates params. Failures carry the validation kind.
func ShouldBindParams(params *json.RawMessage, v any) error {
	if params == nil {
		return errors.New(errors.ErrValidation, "params required")
	}
	if err := json.Unmarshal(*params, v); err != nil {
		return errors.New(errors.ErrValidation, "invalid params")
	}
	if err := validate.Struct(v); err != nil {
		if details := validation.FormatValidationError(err); len(details) > 0 {
			return errors.Newf(errors.ErrValidation, "%s: %s", details[0].Field, details[0].Message)
		}
		return errors.New(errors.ErrValidation, "invalid params")
	}
	return nil
}
