package openapi

import (
	"fmt"

	apperrors "github.com/khanhnv2901/hapi-cli/internal/shared/errors"
)

// SchemaError reports an OpenAPI document that cannot be read or lacks the
// structure the endpoint index needs.
type SchemaError struct {
	Source string
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	msg := e.Reason
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	if e.Source != "" {
		return fmt.Sprintf("schema %s: %s", e.Source, msg)
	}
	return "schema: " + msg
}

func (e *SchemaError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrSchema) match every SchemaError.
func (e *SchemaError) Is(target error) bool {
	return target == apperrors.ErrSchema
}
